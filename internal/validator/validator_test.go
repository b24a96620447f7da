package validator

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"LogoSync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() config.ValidatorConfig {
	return config.ValidatorConfig{
		Timeout:            time.Second,
		FollowRedirects:    true,
		MaxRedirects:       5,
		PlaceholderDomains: []string{"placeholder.com"},
		BlockedDomains:     []string{"vectorportal.com"},
	}
}

// countingServer answers HEAD requests on a few paths and counts every request
func countingServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, config.DefaultUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/moved.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, "/ok.png", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/loop.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Redirect(w, r, "/loop.png", http.StatusFound)
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestIsAccessible_RejectsWithoutNetwork(t *testing.T) {
	t.Parallel()
	srv, hits := countingServer(t)
	v := NewValidator(testConfig(), nil, nil, quietLogger())

	for _, url := range []string{
		"",
		"   ",
		"https://via.placeholder.com/300x150?text=NBA",
		"https://VIA.PLACEHOLDER.COM/x.png",
		"https://www.vectorportal.com/img/logo.svg",
		srv.URL + "/ok.png?src=vectorportal.com",
	} {
		assert.False(t, v.IsAccessible(context.Background(), url), url)
	}
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestIsAccessible_Status(t *testing.T) {
	t.Parallel()
	srv, _ := countingServer(t)
	cfg := testConfig()
	cfg.Timeout = 200 * time.Millisecond
	v := NewValidator(cfg, nil, nil, quietLogger())

	tests := []struct {
		path string
		want bool
	}{
		{"/ok.png", true},
		{"/missing.png", false},
		{"/moved.png", true},
		{"/loop.png", false},
		{"/slow.png", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, v.IsAccessible(context.Background(), srv.URL+tt.path), tt.path)
	}
}

func TestIsAccessible_RedirectsDisabled(t *testing.T) {
	t.Parallel()
	srv, _ := countingServer(t)
	cfg := testConfig()
	cfg.FollowRedirects = false
	v := NewValidator(cfg, nil, nil, quietLogger())

	assert.False(t, v.IsAccessible(context.Background(), srv.URL+"/moved.png"))
	assert.True(t, v.IsAccessible(context.Background(), srv.URL+"/ok.png"))
}

func TestIsAccessible_TransportErrors(t *testing.T) {
	t.Parallel()
	v := NewValidator(testConfig(), nil, nil, quietLogger())

	assert.False(t, v.IsAccessible(context.Background(), "http://127.0.0.1:1/logo.png"))
	assert.False(t, v.IsAccessible(context.Background(), "://not a url"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	srv, _ := countingServer(t)
	assert.False(t, v.IsAccessible(ctx, srv.URL+"/ok.png"))
}

func TestIsAccessible_Cache(t *testing.T) {
	t.Parallel()
	srv, hits := countingServer(t)

	cfg := testConfig()
	cfg.CacheTTL = time.Minute
	cached := NewValidator(cfg, nil, nil, quietLogger())
	for i := 0; i < 3; i++ {
		assert.True(t, cached.IsAccessible(context.Background(), srv.URL+"/ok.png"))
		assert.False(t, cached.IsAccessible(context.Background(), srv.URL+"/missing.png"))
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))

	cfg.CacheTTL = 0
	uncached := NewValidator(cfg, nil, nil, quietLogger())
	for i := 0; i < 3; i++ {
		assert.True(t, uncached.IsAccessible(context.Background(), srv.URL+"/ok.png"))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(hits))
}
