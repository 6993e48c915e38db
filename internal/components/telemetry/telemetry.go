package telemetry

import "strings"

// API is the sink for every diagnostic a component produces. Components never
// log directly, which lets tests assert on what was reported.
type API interface {
	// ReportBroken reports a failure that someone should fix.
	//
	// The id names the component and method that broke and nothing more
	// specific, like `client.start-parking-session`. Ids are lowercase, with
	// underscores for larger components and dashes for methods. Details of what
	// went wrong belong in params, usually as a wrapped error.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected that is not necessarily a bug,
	// like the portal refusing a request. Ids follow ReportBroken.
	ReportWarning(id string, params ...any)

	// ReportDebug reports information that is only useful while developing.
	ReportDebug(msg string, params ...any)

	// ReportCount reports a point in time count of some event, counts should
	// not be summed.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id reported through it with a namespace. Scopes
// nest, an `http` scope wrapping a `parkeeractie` scope reports
// `parkeeractie.http.<id>`.
type ScopedAPI struct {
	namespace string
	inner     API
}

func NewScopedAPI(namespace string, inner API) ScopedAPI {
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) scope(id string) string {
	return strings.Join([]string{s.namespace, id}, ".")
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.scope(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.scope(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.namespace+": "+msg, params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.scope(id), count)
}
