package parkeeractie

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

const (
	loginInitMarker   = "login.init"
	loginDebugFile    = "parkeeractie_login_debug.html"
	csrfTokenField    = "__RequestVerificationToken"
	loginScreenWidth  = "1920"
	loginCaptchaField = "False"
)

// LoginAndFetch makes sure the session is logged in and returns the account's
// saldo and remaining time.
//
// If the session is still logged in nothing is posted. Failures of the login
// flow itself are returned as an *AuthError, transport errors are returned
// wrapped as they are.
func (c *Client) LoginAndFetch(ctx context.Context) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "client:LoginAndFetch")
	defer span.End()

	loginUrl := c.url(loginPath)
	html, err := c.get(ctx, loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		return Snapshot{}, err
	}

	snapshot := c.parseSnapshot(html)
	if snapshot.Resolved() {
		c.tel.ReportDebug("already logged in")
		return snapshot, nil
	}

	if !strings.Contains(strings.ToLower(html), loginInitMarker) {
		html, err = c.get(ctx, c.url(accountLoginPath))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch account login page")
			return Snapshot{}, err
		}
	}

	raw, ok := c.extract(PayloadLogin, html)
	if !ok {
		snapshot = c.parseSnapshot(html)
		if snapshot.Resolved() {
			return snapshot, nil
		}
		c.dumpLoginPage(html)
		span.SetStatus(codes.Error, ErrLoginPayloadNotFound.Error())
		return Snapshot{}, &AuthError{Err: ErrLoginPayloadNotFound}
	}

	csrf, ok := csrfToken(html)
	if !ok {
		c.tel.ReportBroken(report_client_login_and_fetch, ErrCsrfTokenMissing)
		span.SetStatus(codes.Error, ErrCsrfTokenMissing.Error())
		return Snapshot{}, &AuthError{Err: ErrCsrfTokenMissing}
	}

	loginPayload, err := c.decoder.Decode(raw)
	if err != nil {
		c.tel.ReportBroken(report_client_login_and_fetch, err)
		span.SetStatus(codes.Error, "failed to decode login payload")
		return Snapshot{}, &AuthError{Err: fmt.Errorf("%w: %w", ErrLoginPayloadNotFound, err)}
	}
	if truthy(loginPayload["showCaptcha"]) || truthy(loginPayload["ShowCaptcha"]) {
		c.tel.ReportWarning(report_client_login_and_fetch, ErrCaptchaRequired)
		span.SetStatus(codes.Error, ErrCaptchaRequired.Error())
		return Snapshot{}, &AuthError{Err: ErrCaptchaRequired}
	}

	returnUrl, _ := loginPayload["returnUrl"].(string)
	html, err = c.postForm(ctx, loginUrl, map[string]string{
		csrfTokenField: csrf,
		"Email":        c.username,
		"Password":     c.password,
		"ReturnUrl":    returnUrl,
		"ShowCaptcha":  loginCaptchaField,
		"ScreenWidth":  loginScreenWidth,
	}, loginUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post credentials")
		return Snapshot{}, err
	}

	snapshot = c.parseSnapshot(html)
	if snapshot.Resolved() {
		return snapshot, nil
	}
	span.SetStatus(codes.Error, ErrLoginFailed.Error())
	return Snapshot{}, &AuthError{Err: ErrLoginFailed}
}

// dumpLoginPage writes the page for an operator to look at, failing to do so
// is only reported.
func (c *Client) dumpLoginPage(html string) {
	err := c.debug.Write(loginDebugFile, html)
	if err != nil {
		c.tel.ReportBroken(
			report_client_login_and_fetch,
			fmt.Errorf("write debug html: %w", err),
		)
		return
	}
	c.tel.ReportBroken(
		report_client_login_and_fetch,
		ErrLoginPayloadNotFound,
		c.debug.Path(loginDebugFile),
	)
}

func csrfToken(html string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false
	}
	token := doc.Find(fmt.Sprintf("input[name=%s]", csrfTokenField)).First().AttrOr("value", "")
	return token, token != ""
}

// truthy interprets a loosely typed flag, strings are parsed as booleans when
// possible.
func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
		return value != ""
	case []any:
		return len(value) > 0
	case map[string]any:
		return len(value) > 0
	}
	return true
}
