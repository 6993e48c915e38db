package parkeeractie

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func planRoutes(plan string, start http.HandlerFunc) map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /":                    page(customerPage(customerPayload)),
		"GET " + planSessionPath:   page(plan),
		"POST " + startSessionPath: start,
	}
}

func TestStartParkingSession(t *testing.T) {
	var start capture
	p := newPortal(t, planRoutes(
		planPage(planPayload),
		recorded(&start, page(`{"successful":true}`)),
	))
	client, _, _ := newTestClient(t, p)

	outcome, err := client.StartParkingSession(context.Background(), " ab-123-cd ", "2025-10-06T23:00:00")
	require.NoError(t, err)
	require.Equal(t, Outcome{Success: true}, outcome)

	require.Equal(t, []string{
		"GET /",
		"GET " + planSessionPath,
		"POST " + startSessionPath,
	}, p.log())

	body, _, headers := start.get()
	require.Equal(t, p.url(planSessionPath), headers.Get("Referer"))
	require.Equal(t, p.server.URL, headers.Get("Origin"))
	require.Equal(t, "XMLHttpRequest", headers.Get("X-Requested-With"))
	require.Equal(t, "application/json; charset=UTF-8", headers.Get("Content-Type"))

	var request map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &request))
	require.Equal(t, "AB123CD", request["lp"])
	require.Equal(t, float64(502), request["permitId"])
	require.Equal(t, float64(9), request["permitProductId"])
	require.Equal(t, float64(opaqueUserId), request["userId"])
	require.Equal(t, float64(opaqueGarageId), request["garageId"])
	require.Equal(t, "2025-10-06T12:37:00.000Z", request["timeStartUtc"])
	require.Equal(t, "2025-10-06T23:00:00.000Z", request["timeEndUtc"])
	require.Equal(t, "2025-10-06T07:00:00.000Z", request["regimeTimeStartUtc"])
	require.Equal(t, "2025-10-06T21:00:00.000Z", request["regimeTimeEndUtc"])
	require.Equal(t, "New", request["status"])
	require.Equal(t, "Permit", request["sessionType"])
	require.Equal(t, []any{}, request["recurringDays"])
	require.Nil(t, request["zoneCode"])
}

func TestStartParkingSessionDefaultProductId(t *testing.T) {
	var start capture
	p := newPortal(t, planRoutes(
		planPage(`{"permitList":[{"id":7,"status":"Active"}]}`),
		recorded(&start, page(`{"successful":true}`)),
	))
	client, _, _ := newTestClient(t, p)

	outcome, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T20:00:00+02:00")
	require.NoError(t, err)
	require.True(t, outcome.Success)

	body, _, _ := start.get()
	var request map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &request))
	require.Equal(t, float64(defaultPermitProductId), request["permitProductId"])
	require.Equal(t, float64(7), request["permitId"])
	require.Equal(t, "2025-10-06T18:00:00.000Z", request["timeEndUtc"])
}

func TestStartParkingSessionRefused(t *testing.T) {
	cases := []struct {
		name     string
		response string
		messages []string
	}{
		{
			name:     "malformed response",
			response: `<html>Er ging iets mis</html>`,
			messages: []string{"invalid response from portal"},
		},
		{
			name:     "notifications",
			response: `{"successful":false,"notifications":[{"message":"Kenteken onbekend"},"Geen saldo",{"Text":"Probeer later"}]}`,
			messages: []string{"Kenteken onbekend", "Geen saldo", "Probeer later"},
		},
		{
			name:     "no notifications",
			response: `{"successful":false}`,
			messages: []string{"session not started"},
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			p := newPortal(t, planRoutes(planPage(planPayload), page(test.response)))
			client, _, _ := newTestClient(t, p)

			outcome, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T23:00")
			require.NoError(t, err)
			require.False(t, outcome.Success)
			require.Equal(t, test.messages, outcome.Messages)
		})
	}
}

func TestStartParkingSessionNotLoggedIn(t *testing.T) {
	p := newPortal(t, planRoutes(
		`<html><body><script>planSession.init('{"permitList":[]}');</script></body></html>`,
		page(`{"successful":true}`),
	))
	client, _, _ := newTestClient(t, p)

	outcome, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T23:00")
	require.NoError(t, err)
	require.Equal(t, failed("not logged in"), outcome)
	require.Equal(t, 0, p.count("POST"))
}

func TestStartParkingSessionNoActivePermit(t *testing.T) {
	p := newPortal(t, planRoutes(
		planPage(`{"permitList":[{"id":1,"status":"Expired"},{"id":2,"status":"Pending"}]}`),
		page(`{"successful":true}`),
	))
	client, tel, _ := newTestClient(t, p)

	outcome, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T23:00")
	require.NoError(t, err)
	require.Equal(t, failed("no active permit"), outcome)
	require.Equal(t, 0, p.count("POST"))
	require.NotEmpty(t, tel.Find(report_client_start_parking_session))
}

func TestStartParkingSessionBrokenPlanPage(t *testing.T) {
	cases := []struct {
		name   string
		html   string
		target error
	}{
		{
			name: "missing payload",
			html: `<a href="/Account/LogOff"></a>
<input name="__RequestVerificationToken" value="csrf-456">`,
			target: ErrPlanPayloadNotFound,
		},
		{
			name: "undecodable payload",
			html: `<a href="/Account/LogOff"></a>
<input name="__RequestVerificationToken" value="csrf-456">
<script>planSession.init('{permitList: [');</script>`,
			target: ErrPlanPayloadNotFound,
		},
		{
			name:   "missing csrf token",
			html:   `<a href="/Account/LogOff"></a><script>planSession.init('{}');</script>`,
			target: ErrCsrfTokenMissing,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			p := newPortal(t, planRoutes(test.html, page(`{"successful":true}`)))
			client, _, _ := newTestClient(t, p)

			_, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T23:00")
			require.ErrorIs(t, err, test.target)

			var operationErr *OperationError
			require.True(t, errors.As(err, &operationErr))
			require.Equal(t, 0, p.count("POST"))
		})
	}
}

func TestStartParkingSessionCaptcha(t *testing.T) {
	p := newPortal(t, map[string]http.HandlerFunc{
		"GET /": page(loginPage(true)),
	})
	client, _, _ := newTestClient(t, p)

	outcome, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T23:00")
	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.Len(t, outcome.Messages, 1)
	require.Contains(t, outcome.Messages[0], ErrCaptchaRequired.Error())
	require.Equal(t, []string{"GET /"}, p.log())
}

func TestStartParkingSessionTransportError(t *testing.T) {
	p := newPortal(t, planRoutes(planPage(planPayload), hangUp))
	client, _, _ := newTestClient(t, p)

	outcome, err := client.StartParkingSession(context.Background(), "AB123CD", "2025-10-06T23:00")
	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.NotEmpty(t, outcome.Messages)
}

func TestNormalizeEndTime(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "2025-10-06T23:00", expected: "2025-10-06T23:00:00"},
		{input: "2025-10-06T23:00:59.123", expected: "2025-10-06T23:00:59"},
		{input: "2025-10-06 23:00", expected: "2025-10-06T23:00:00"},
		{input: "2025-10-06", expected: "2025-10-06T00:00:00"},
		{input: "2025-10-06T23:00:00+02:00", expected: "2025-10-06T21:00:00+00:00"},
		{input: "2025-10-06T23:00:00Z", expected: "2025-10-06T23:00:00+00:00"},
		{input: "2025-10-06T23:00+01:00", expected: "2025-10-06T22:00:00+00:00"},
		{input: " 2025-10-06T23:00 ", expected: "2025-10-06T23:00:00"},
		{input: "morgen", expected: "morgen"},
	}

	for _, test := range cases {
		t.Run(test.input, func(t *testing.T) {
			require.Equal(t, test.expected, normalizeEndTime(test.input))
		})
	}
}

func TestEndTimeUtc(t *testing.T) {
	require.Equal(t, "2025-10-06T21:00:00.000Z", endTimeUtc("2025-10-06T21:00:00+00:00"))
	require.Equal(t, "2025-10-06T23:00:00.000Z", endTimeUtc("2025-10-06T23:00:00"))
}

func TestNormalizeLicensePlate(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{input: "ab-123-cd", expected: "AB123CD"},
		{input: "  xx-99-yy\n", expected: "XX99YY"},
		{input: "AB123CD", expected: "AB123CD"},
		{input: "", expected: ""},
	}

	for _, test := range cases {
		t.Run(test.input, func(t *testing.T) {
			require.Equal(t, test.expected, NormalizeLicensePlate(test.input))
		})
	}
}
