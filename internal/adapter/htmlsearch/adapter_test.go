package htmlsearch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/jarcoal/httpmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engine(t *testing.T, name model.ProviderName) Engine {
	t.Helper()
	for _, e := range Engines {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("unknown engine %s", name)
	return Engine{}
}

func newMockedAdapter(t *testing.T, name model.ProviderName) (*Adapter, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	a := NewAdapter(engine(t, name), &config.ProviderConfig{}, &http.Client{Transport: mock}, logger)
	return a, mock
}

func TestSearchURL_PerEngine(t *testing.T) {
	t.Parallel()
	want := map[model.ProviderName]string{
		model.ProviderGoogle: "https://www.google.com/search?q=NBA%20logo&tbm=isch",
		model.ProviderYandex: "https://yandex.com/images/search?text=NBA%20logo",
		model.ProviderEcosia: "https://www.ecosia.org/images?q=NBA%20logo",
		model.ProviderYahoo:  "https://images.search.yahoo.com/search/images?p=NBA%20logo",
		model.ProviderBrave:  "https://search.brave.com/images?q=NBA%20logo",
	}
	for name, url := range want {
		a, _ := newMockedAdapter(t, name)
		assert.Equal(t, url, a.SearchURL("NBA%20logo"), name)
		assert.Equal(t, name, a.GetName())
	}
}

func TestSearchURL_ConfiguredBaseURL(t *testing.T) {
	t.Parallel()
	a := NewAdapter(engine(t, model.ProviderBrave), &config.ProviderConfig{BaseURL: "http://localhost:9999/"}, http.DefaultClient, logrus.New())
	assert.Equal(t, "http://localhost:9999/images?q=x", a.SearchURL("x"))
}

func TestSearchImage_ExtractsFromPage(t *testing.T) {
	t.Parallel()
	a, mock := newMockedAdapter(t, model.ProviderBrave)
	mock.RegisterResponder(http.MethodGet, "https://search.brave.com/images", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, config.DefaultUserAgent, req.Header.Get("User-Agent"))
		assert.Equal(t, "no-cache", req.Header.Get("Cache-Control"))
		assert.Equal(t, "en-US,en;q=0.9", req.Header.Get("Accept-Language"))
		return httpmock.NewStringResponse(http.StatusOK,
			`<html><body><img src="https://cdn.brave.com/icon.png"><img src="https://upload.test/nba.png"></body></html>`), nil
	})

	got, err := a.SearchImage(context.Background(), "NBA%20logo")
	require.NoError(t, err)
	assert.Equal(t, "https://upload.test/nba.png", got)
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestSearchImage_RateLimited(t *testing.T) {
	t.Parallel()
	a, mock := newMockedAdapter(t, model.ProviderGoogle)
	mock.RegisterResponder(http.MethodGet, "https://www.google.com/search", httpmock.NewStringResponder(http.StatusTooManyRequests, ""))

	got, err := a.SearchImage(context.Background(), "q")
	assert.Empty(t, got)
	require.Error(t, err)

	var rl *interfaces.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, model.ProviderGoogle, rl.Provider)
	assert.Equal(t, http.StatusTooManyRequests, rl.Status)
	assert.ErrorIs(t, err, interfaces.ErrNoResult, "a rate limit is still no result for callers")
}

func TestSearchImage_NoResult(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"forbidden", httpmock.NewStringResponder(http.StatusForbidden, `<img src="https://x.test/a.png">`)},
		{"redirect status", httpmock.NewStringResponder(http.StatusFound, "")},
		{"empty page", httpmock.NewStringResponder(http.StatusOK, "<html></html>")},
		{"timeout", httpmock.NewErrorResponder(context.DeadlineExceeded)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, mock := newMockedAdapter(t, model.ProviderYandex)
			mock.RegisterResponder(http.MethodGet, "https://yandex.com/images/search", tt.responder)

			got, err := a.SearchImage(context.Background(), "q")
			assert.Empty(t, got)
			assert.ErrorIs(t, err, interfaces.ErrNoResult)
			assert.False(t, interfaces.IsRateLimited(err))
		})
	}
}

func TestEngines_RegisteredWithAdapterFactory(t *testing.T) {
	t.Parallel()
	for _, e := range Engines {
		f := factoryFor(e)
		p := f(&config.ProviderConfig{}, http.DefaultClient, logrus.New())
		assert.Equal(t, e.Name, p.GetName())
	}
}
