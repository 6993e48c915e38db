package parkeeractie

import (
	"io"
	"net/http"
	"net/http/httptest"
	"parkeeractie/internal/components/chrono"
	"parkeeractie/internal/components/telemetry"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// portal is a fake of the parking portal, routes are keyed by "METHOD /path".
type portal struct {
	server   *httptest.Server
	routes   map[string]http.HandlerFunc
	mutex    sync.Mutex
	requests []string
}

func newPortal(t *testing.T, routes map[string]http.HandlerFunc) *portal {
	p := &portal{routes: routes}
	p.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		p.mutex.Lock()
		p.requests = append(p.requests, key)
		p.mutex.Unlock()

		handler, ok := p.routes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(p.server.Close)
	return p
}

func (p *portal) url(path string) string {
	return p.server.URL + path
}

func (p *portal) log() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return append([]string{}, p.requests...)
}

func (p *portal) count(method string) int {
	n := 0
	for _, request := range p.log() {
		if strings.HasPrefix(request, method+" ") {
			n++
		}
	}
	return n
}

// capture keeps the last request a handler has seen.
type capture struct {
	mutex   sync.Mutex
	body    string
	form    map[string]string
	headers http.Header
}

func (c *capture) record(r *http.Request) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.headers = r.Header.Clone()
	if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err == nil {
			c.form = map[string]string{}
			for key := range r.PostForm {
				c.form[key] = r.PostForm.Get(key)
			}
		}
		return
	}
	body, _ := io.ReadAll(r.Body)
	c.body = string(body)
}

func (c *capture) get() (string, map[string]string, http.Header) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.body, c.form, c.headers
}

func page(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}
}

func recorded(c *capture, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c.record(r)
		next(w, r)
	}
}

// hangUp closes the connection without answering.
func hangUp(w http.ResponseWriter, r *http.Request) {
	conn, _, err := w.(http.Hijacker).Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

const (
	customerPayload = `{&quot;addItem&quot;:{&quot;saldo&quot;:12.5,&quot;timeRemaining&quot;:&quot;01:30:00&quot;}}`
	planPayload     = `{"addItem":{"saldo":4},"permitList":[{"id":501,"status":"Expired"},{"id":502,"status":"Active","timeBalance":120,"permitProductId":9}]}`
)

func customerPage(payload string) string {
	return `<html><body>
<a href="/Account/LogOff">Uitloggen</a>
<script>
	customerLayout.init('nl-NL', '` + payload + `');
</script>
</body></html>`
}

func loginPage(showCaptcha bool) string {
	captcha := "false"
	if showCaptcha {
		captcha = "true"
	}
	return `<html><body>
<form method="post" action="/">
	<input name="__RequestVerificationToken" type="hidden" value="csrf-123">
	<input name="Email" type="email">
</form>
<script>
	login.init("{\"returnUrl\":\"/Customer/PlanSession\",\"showCaptcha\":` + captcha + `}");
</script>
</body></html>`
}

func planPage(payload string) string {
	return `<html><body>
<a href="/Account/LogOff">Uitloggen</a>
<input name="__RequestVerificationToken" type="hidden" value="csrf-456">
<script>planSession.init('` + payload + `');</script>
</body></html>`
}

var testNow = time.Date(2025, 10, 6, 14, 37, 42, 0, time.FixedZone("CEST", 2*60*60))

func newTestClient(t *testing.T, p *portal) (*Client, *telemetry.Recorder, string) {
	tel := telemetry.NewRecorder()
	httpClient, err := NewHttpClient(HttpOptions{BaseUrl: p.server.URL}, tel)
	require.NoError(t, err)

	debugDir := t.TempDir()
	client := NewClient(httpClient, ClientOptions{
		BaseUrl:  p.server.URL,
		Username: "user@example.com",
		Password: "hunter2",
		DebugDir: debugDir,
	}, tel, chrono.FixedImpl{Time: testNow})
	return client, tel, debugDir
}
