package parkeeractie

import (
	"regexp"
)

// PayloadKind identifies one of the initializer payloads the portal embeds
// into its pages.
type PayloadKind int

const (
	PayloadLogin PayloadKind = iota
	PayloadCustomerLayout
	PayloadPlanSession
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadLogin:
		return "login"
	case PayloadCustomerLayout:
		return "customer-layout"
	case PayloadPlanSession:
		return "plan-session"
	}
	return "unknown"
}

// Extractor finds the raw (still encoded) payload of a single kind in a page.
// A missing payload is not an error, it only means the page does not carry it.
type Extractor interface {
	Extract(html string) (string, bool)
}

// callExtractor matches `<call>'<payload>');` or `<call>"<payload>");` and
// captures the literal verbatim. Only the first match in a page is used.
type callExtractor struct {
	pattern *regexp.Regexp
}

// newCallExtractor takes a regexp fragment matching everything before the
// quoted literal argument.
func newCallExtractor(call string) callExtractor {
	return callExtractor{
		pattern: regexp.MustCompile(
			`(?s)` + call + `\s*(?:'(.+?)'|"(.+?)")\)\s*;`,
		),
	}
}

func (e callExtractor) Extract(html string) (string, bool) {
	groups := e.pattern.FindStringSubmatchIndex(html)
	if groups == nil {
		return "", false
	}
	for i := 2; i+1 < len(groups); i += 2 {
		if groups[i] >= 0 {
			return html[groups[i]:groups[i+1]], true
		}
	}
	return "", false
}

var (
	loginExtractor          = newCallExtractor(`login\.init\(`)
	customerLayoutExtractor = newCallExtractor(`customerLayout\.init\([^,]+,`)
	planSessionExtractor    = newCallExtractor(`planSession\.init\(`)
)

// DefaultExtractors returns the extractors matching the portal's current
// `<name>.init('<json>');` embedding convention.
func DefaultExtractors() map[PayloadKind]Extractor {
	return map[PayloadKind]Extractor{
		PayloadLogin:          loginExtractor,
		PayloadCustomerLayout: customerLayoutExtractor,
		PayloadPlanSession:    planSessionExtractor,
	}
}
