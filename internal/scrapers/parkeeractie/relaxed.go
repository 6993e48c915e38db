package parkeeractie

import (
	"encoding/json"
	"fmt"
	"parkeeractie/internal/components/telemetry"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Strategy turns a raw payload into a mapping or fails.
type Strategy func(raw string) (map[string]any, error)

// DefaultStrategies are tried in order, the first one to succeed wins.
var DefaultStrategies = []Strategy{
	decodeUnescaped,
	decodeUnslashed,
	decodeUnicodeEscaped,
}

// Decoder decodes JSON that was embedded into html without much care, it may
// be html-entity encoded or still carry the backslashes of a JS string literal.
type Decoder struct {
	strategies []Strategy
	tel        telemetry.API
}

func NewDecoder(tel telemetry.API, strategies ...Strategy) Decoder {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	return Decoder{strategies: strategies, tel: tel}
}

// Decode returns a *DecodeError holding the error of the last strategy if
// every strategy fails. Only that final failure is reported.
func (d Decoder) Decode(raw string) (map[string]any, error) {
	var lastErr error
	for _, strategy := range d.strategies {
		out, err := strategy(raw)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no decode strategies")
	}
	d.tel.ReportDebug("relaxed decode failed", lastErr)
	return nil, &DecodeError{Err: lastErr}
}

func parseStrict(s string) (map[string]any, error) {
	var out map[string]any
	err := json.Unmarshal([]byte(s), &out)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("payload is null")
	}
	return out, nil
}

func decodeUnescaped(raw string) (map[string]any, error) {
	return parseStrict(html.UnescapeString(raw))
}

func decodeUnslashed(raw string) (map[string]any, error) {
	s := html.UnescapeString(raw)
	s = strings.ReplaceAll(s, `\\`, `\`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\'`, `'`)
	return parseStrict(s)
}

func decodeUnicodeEscaped(raw string) (map[string]any, error) {
	s, err := unescapeBackslashes(html.UnescapeString(raw))
	if err != nil {
		return nil, err
	}
	return parseStrict(s)
}

// unescapeBackslashes resolves the escape sequences a JS string literal may
// contain (\n, \t, \xNN, \uNNNN, \', \" ...). Unknown escapes are kept as is.
func unescapeBackslashes(s string) (string, error) {
	var out strings.Builder
	out.Grow(len(s))

	for len(s) > 0 {
		idx := strings.IndexByte(s, '\\')
		if idx < 0 {
			out.WriteString(s)
			break
		}
		out.WriteString(s[:idx])
		s = s[idx:]

		if len(s) == 1 {
			return "", fmt.Errorf("trailing backslash")
		}
		switch s[1] {
		case '\'', '"':
			out.WriteByte(s[1])
			s = s[2:]
			continue
		case 'x', 'u', 'U':
			value, _, tail, err := strconv.UnquoteChar(s, 0)
			if err != nil {
				return "", fmt.Errorf("truncated \\%c escape: %w", s[1], err)
			}
			out.WriteRune(value)
			s = tail
			continue
		}

		value, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			out.WriteByte('\\')
			s = s[1:]
			continue
		}
		out.WriteRune(value)
		s = tail
	}

	return out.String(), nil
}
