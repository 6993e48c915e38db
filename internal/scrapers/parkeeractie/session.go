package parkeeractie

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
)

const (
	// loggedInMarker is only rendered on pages of a logged in customer.
	loggedInMarker = "/Account/LogOff"

	// defaultPermitProductId is used when the selected permit carries no
	// product id.
	defaultPermitProductId = 2

	regimeStartHour = 9
	regimeEndHour   = 23
)

// Outcome is the result of StartParkingSession, Messages explains why the
// session was not started.
type Outcome struct {
	Success  bool
	Messages []string
}

func failed(messages ...string) Outcome {
	return Outcome{Messages: messages}
}

// StartParkingSession starts a parking session for licensePlate on the first
// active permit of the account, ending at endTime (ISO-8601).
//
// Expected real-world failures (not logged in, no active permit, a refusal by
// the portal, network errors) are reported through the returned Outcome. An
// error is only returned if the portal's pages no longer look the way the
// client expects them to.
func (c *Client) StartParkingSession(ctx context.Context, licensePlate, endTime string) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "client:StartParkingSession")
	defer span.End()

	// a stale session must not be trusted for a state changing operation
	_, err := c.LoginAndFetch(ctx)
	if err != nil {
		c.tel.ReportWarning(report_client_start_parking_session, fmt.Errorf("login: %w", err))
		span.SetStatus(codes.Error, "login failed")
		return failed(err.Error()), nil
	}

	planUrl := c.url(planSessionPath)
	html, err := c.get(ctx, planUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_start_parking_session, err)
		span.SetStatus(codes.Error, "failed to fetch plan session page")
		return failed(err.Error()), nil
	}
	if !strings.Contains(html, loggedInMarker) {
		c.tel.ReportWarning(report_client_start_parking_session, "not logged in on plan session page")
		span.SetStatus(codes.Error, "not logged in")
		return failed("not logged in"), nil
	}

	// not part of the body, but the portal's own client always has it at this point
	_, ok := csrfToken(html)
	if !ok {
		span.SetStatus(codes.Error, ErrCsrfTokenMissing.Error())
		return Outcome{}, &OperationError{Op: "start parking session", Err: ErrCsrfTokenMissing}
	}

	payload, err := c.planPayload(html)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, &OperationError{Op: "start parking session", Err: err}
	}

	permit, ok := FirstActivePermit(Permits(payload))
	if !ok {
		c.tel.ReportWarning(report_client_start_parking_session, ErrNoActivePermit)
		span.SetStatus(codes.Error, ErrNoActivePermit.Error())
		return failed(ErrNoActivePermit.Error()), nil
	}

	body, err := json.Marshal(newStartSessionRequest(
		permit,
		licensePlate,
		endTime,
		c.clock.Now(),
		c.clock.Location(),
	))
	if err != nil {
		return Outcome{}, &OperationError{Op: "start parking session", Err: err}
	}

	res, err := c.postJson(ctx, c.url(startSessionPath), body, planUrl)
	if err != nil {
		c.tel.ReportBroken(report_client_start_parking_session, err)
		span.SetStatus(codes.Error, "failed to post session")
		return failed(err.Error()), nil
	}

	outcome := c.interpretStartSessionResponse(res)
	if !outcome.Success {
		span.SetStatus(codes.Error, "portal refused session")
	}
	return outcome, nil
}

func (c *Client) planPayload(html string) (map[string]any, error) {
	for _, kind := range []PayloadKind{PayloadPlanSession, PayloadCustomerLayout} {
		raw, ok := c.extract(kind, html)
		if !ok {
			continue
		}
		payload, err := c.decoder.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPlanPayloadNotFound, err)
		}
		return payload, nil
	}
	return nil, ErrPlanPayloadNotFound
}

func (c *Client) interpretStartSessionResponse(body string) Outcome {
	var result map[string]any
	err := json.Unmarshal([]byte(body), &result)
	if err != nil {
		c.tel.ReportWarning(
			report_client_start_parking_session,
			fmt.Errorf("decode response: %w", err),
		)
		return failed("invalid response from portal")
	}

	if truthy(result["successful"]) {
		return Outcome{Success: true}
	}

	messages := notificationMessages(result["notifications"])
	if len(messages) == 0 {
		c.tel.ReportWarning(report_client_start_parking_session, "session not started", body)
		return failed("session not started")
	}
	for _, message := range messages {
		c.tel.ReportWarning(report_client_start_parking_session, message)
	}
	return failed(messages...)
}

func notificationMessages(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	var messages []string
	for _, entry := range list {
		switch value := entry.(type) {
		case string:
			messages = append(messages, value)
		case map[string]any:
			for _, key := range []string{"message", "Message", "text", "Text"} {
				if text, ok := value[key].(string); ok && text != "" {
					messages = append(messages, text)
					break
				}
			}
		}
	}
	return messages
}

// NormalizeLicensePlate uppercases the plate and strips dashes.
func NormalizeLicensePlate(plate string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(plate)), "-", "")
}

const isoLocalLayout = "2006-01-02T15:04:05"

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// normalizeEndTime reformats a parseable ISO-8601 time to seconds precision.
// Times with an offset are converted to UTC and keep a "+00:00" suffix,
// anything unparseable is returned as is.
func normalizeEndTime(endTime string) string {
	endTime = strings.TrimSpace(endTime)
	for _, layout := range zonedLayouts {
		t, err := time.Parse(layout, endTime)
		if err == nil {
			return t.UTC().Format(isoLocalLayout) + "+00:00"
		}
	}
	for _, layout := range naiveLayouts {
		t, err := time.Parse(layout, endTime)
		if err == nil {
			return t.Format(isoLocalLayout)
		}
	}
	return endTime
}

func endTimeUtc(normalized string) string {
	if strings.HasSuffix(normalized, "+00:00") {
		return strings.TrimSuffix(normalized, "+00:00") + ".000Z"
	}
	return normalized + ".000Z"
}

// formatUtc formats t in UTC with millisecond precision and a Z suffix, the
// milliseconds are always zero.
func formatUtc(t time.Time) string {
	return t.UTC().Format(isoLocalLayout) + ".000Z"
}
