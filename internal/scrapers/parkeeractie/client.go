package parkeeractie

import (
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"parkeeractie/internal/components/assert"
	"parkeeractie/internal/components/chrono"
	"parkeeractie/internal/components/telemetry"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl  = "https://parkeerapp.utrecht.nl"
	DefaultDebugDir = "config/www"

	loginPath        = "/"
	accountLoginPath = "/Account/Login"
	planSessionPath  = "/Customer/PlanSession/Index/"
	startSessionPath = "/Customer/PlanSession/StartParkingSession"

	userAgent      = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	acceptLanguage = "nl-NL,nl;q=0.9,en;q=0.8"
)

const (
	report_client_get                   = "client.get"
	report_client_post                  = "client.post"
	report_client_parse_snapshot        = "client.parse-snapshot"
	report_client_login_and_fetch       = "client.login-and-fetch"
	report_client_start_parking_session = "client.start-parking-session"
)

var tracer = otel.Tracer("parkeeractie/internal/scrapers/parkeeractie")

type HttpOptions struct {
	BaseUrl string
	// RequestsPerSecond is the maximum request rate, zero disables the limit.
	RequestsPerSecond float64
	// Timeout is applied per request, zero means no timeout.
	Timeout time.Duration
	// Output receives full http messages, it may be nil.
	Output telemetry.Output
}

// NewHttpClient creates the cookie persisting session shared by every request
// of a Client. The Client never closes or reconfigures it.
func NewHttpClient(opts HttpOptions, tel telemetry.API) (*resty.Client, error) {
	assert.NotNil("tel", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	parsedBaseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	if opts.Timeout > 0 {
		httpClient.SetTimeout(opts.Timeout)
	}

	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, telemetry.NewScopedAPI("http", tel), opts.Output)

	return httpClient, nil
}

type ClientOptions struct {
	BaseUrl  string
	Username string
	Password string
	// DebugDir is where the login page is written when no login payload can be
	// found on it, it should be servable by the host so an operator can look at it.
	DebugDir string
	// Extractors overrides the extractor used for a given kind of payload.
	Extractors map[PayloadKind]Extractor
}

// Client scrapes the parking portal with a single set of credentials.
//
// A Client does not coordinate concurrent calls, callers should make sure only
// one operation per account is in flight at a time.
type Client struct {
	http       *resty.Client
	baseUrl    string
	username   string
	password   string
	debug      telemetry.FilesystemOutput
	extractors map[PayloadKind]Extractor
	decoder    Decoder

	tel   telemetry.API
	clock chrono.API
}

func NewClient(http *resty.Client, opts ClientOptions, tel telemetry.API, clock chrono.API) *Client {
	assert.NotNil("http", http)
	assert.NotNil("tel", tel)
	assert.NotNil("clock", clock)

	tel = telemetry.NewScopedAPI("parkeeractie", tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.DebugDir == "" {
		opts.DebugDir = DefaultDebugDir
	}

	extractors := DefaultExtractors()
	for kind, extractor := range opts.Extractors {
		extractors[kind] = extractor
	}

	return &Client{
		http:       http,
		baseUrl:    strings.TrimSuffix(opts.BaseUrl, "/"),
		username:   opts.Username,
		password:   opts.Password,
		debug:      telemetry.NewFilesystemOutput(opts.DebugDir),
		extractors: extractors,
		decoder:    NewDecoder(tel),
		tel:        tel,
		clock:      clock,
	}
}

func (c *Client) url(path string) string {
	return c.baseUrl + path
}

func (c *Client) extract(kind PayloadKind, html string) (string, bool) {
	extractor, ok := c.extractors[kind]
	if !ok {
		return "", false
	}
	return extractor.Extract(html)
}

func baseHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept-Language": acceptLanguage,
	}
}

func (c *Client) get(ctx context.Context, endpoint string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(baseHeaders()).
		Get(endpoint)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", endpoint, err)
	}
	c.tel.ReportDebug(report_client_get, endpoint, res.StatusCode())
	return string(res.Body()), nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, data map[string]string, referer string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(baseHeaders()).
		SetHeader("Referer", referer).
		SetFormData(data).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", endpoint, err)
	}
	c.tel.ReportDebug(report_client_post, endpoint, res.StatusCode())
	return string(res.Body()), nil
}

func (c *Client) postJson(ctx context.Context, endpoint string, body []byte, referer string) (string, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(baseHeaders()).
		SetHeaders(map[string]string{
			"Referer":          referer,
			"Origin":           c.baseUrl,
			"Content-Type":     "application/json; charset=UTF-8",
			"X-Requested-With": "XMLHttpRequest",
		}).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("POST %s: %w", endpoint, err)
	}
	c.tel.ReportDebug(report_client_post, endpoint, res.StatusCode())
	return string(res.Body()), nil
}

// parseSnapshot resolves the customer payload of a page, it returns an empty
// snapshot if the page carries no (decodable) payload.
func (c *Client) parseSnapshot(html string) Snapshot {
	for _, kind := range []PayloadKind{PayloadCustomerLayout, PayloadPlanSession} {
		raw, ok := c.extract(kind, html)
		if !ok {
			continue
		}
		payload, err := c.decoder.Decode(raw)
		if err != nil {
			c.tel.ReportDebug(report_client_parse_snapshot, kind.String(), err)
			continue
		}
		return Resolve(payload)
	}
	return Snapshot{}
}
