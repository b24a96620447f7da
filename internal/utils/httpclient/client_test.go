package httpclient

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"LogoSync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestNewHTTPClient_SendsBrowserHeaders(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewHTTPClient(Options{UserAgent: "TestAgent/1.0"}, testLogger())
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "TestAgent/1.0", gotUA)
	assert.Equal(t, "en-US,en;q=0.9", gotLang)
}

func TestNewHTTPClient_KeepsExplicitUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewHTTPClient(Options{UserAgent: "Default/1.0"}, testLogger())
	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "Custom/2.0")
	resp, err := client.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	assert.Equal(t, "Custom/2.0", gotUA)
}

func TestNewHTTPClient_DecodesGzip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "gzip")
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("<html>compressed</html>"))
		_ = gz.Close()
	}))
	defer srv.Close()

	client := NewHTTPClient(Options{}, testLogger())
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "<html>compressed</html>", string(body))
	assert.Empty(t, resp.Header.Get("Content-Encoding"))
}

func TestNewHTTPClient_DefaultTimeout(t *testing.T) {
	client := NewHTTPClient(Options{}, testLogger())
	assert.Equal(t, defaultTimeout, client.Timeout)

	client = NewHTTPClient(Options{Timeout: 3 * time.Second}, testLogger())
	assert.Equal(t, 3*time.Second, client.Timeout)
}

func TestNewHTTPClient_InvalidProxyFallsBackToDirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := NewHTTPClient(Options{Proxy: "://bad proxy"}, testLogger())
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
}

func TestFromProvider(t *testing.T) {
	opts := FromProvider(&config.ProviderConfig{Timeout: 7, Proxy: "http://proxy:8080"})
	assert.Equal(t, 7*time.Second, opts.Timeout)
	assert.Equal(t, "http://proxy:8080", opts.Proxy)
	assert.Equal(t, config.DefaultUserAgent, opts.UserAgent)

	opts = FromProvider(&config.ProviderConfig{UserAgent: "X/1"})
	assert.Equal(t, "X/1", opts.UserAgent)
}
