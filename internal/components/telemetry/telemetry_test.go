package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorder()
	tel := NewScopedAPI("http", NewScopedAPI("parkeeractie", recorder))

	tel.ReportBroken("client.get", errors.New("boom"))
	tel.ReportWarning("client.post")
	tel.ReportDebug("hello", 1)
	tel.ReportCount("client.requests", 3)

	require.Equal(t, []Report{
		{Kind: KindBroken, Id: "parkeeractie.http.client.get", Params: []any{errors.New("boom")}},
	}, recorder.Reports(KindBroken))
	require.Equal(t, "parkeeractie.http.client.post", recorder.Reports(KindWarning)[0].Id)
	require.Equal(t, "parkeeractie: http: hello", recorder.Reports(KindDebug)[0].Id)
	require.Equal(t, int64(3), recorder.Reports(KindCount)[0].Count)

	require.Len(t, recorder.Find("client.get"), 1)
	require.Empty(t, recorder.Find("client.delete"))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	output := NewFilesystemOutput(dir)

	require.NoError(t, output.Write("1", "first"))
	contents, err := os.ReadFile(output.Path("1"))
	require.NoError(t, err)
	require.Equal(t, "first", string(contents))

	clean, err := NewCleanFilesystemOutput(dir)
	require.NoError(t, err)
	_, err = os.Stat(clean.Path("1"))
	require.True(t, os.IsNotExist(err))
}

type memoryOutput map[string]string

func (m memoryOutput) Write(id, contents string) error {
	m[id] = contents
	return nil
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Portal", "yes")
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	recorder := NewRecorder()
	output := memoryOutput{}
	client := resty.New()
	InstrumentResty(client, recorder, output)

	_, err := client.R().
		SetContext(context.Background()).
		SetBody([]byte("ping")).
		Post(server.URL + "/ping")
	require.NoError(t, err)

	require.Len(t, recorder.Find(report_resty_request), 1)
	require.Len(t, recorder.Find(report_resty_response), 1)

	message, ok := output["1"]
	require.True(t, ok)
	require.Contains(t, message, "POST "+server.URL+"/ping")
	require.Contains(t, message, "ping")
	require.Contains(t, message, "X-Portal: yes")
	require.Contains(t, message, "pong")
}

func TestInstrumentRestyError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	recorder := NewRecorder()
	client := resty.New()
	InstrumentResty(client, recorder, nil)

	_, err := client.R().Get(url)
	require.Error(t, err)
	require.Len(t, recorder.Reports(KindBroken), 1)
}
