package duckduckgo

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

const searchURL = "https://ddg.test/i.js"

func newMockedAdapter(t *testing.T) (interfaces.ImageProvider, *httpmock.MockTransport) {
	t.Helper()
	mock := httpmock.NewMockTransport()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	a := NewDuckDuckGoAdapter(&config.ProviderConfig{BaseURL: "https://ddg.test/"}, &http.Client{Transport: mock}, logger)
	return a, mock
}

func TestSearchImage_FirstResult(t *testing.T) {
	t.Parallel()
	a, mock := newMockedAdapter(t)
	mock.RegisterResponder(http.MethodGet, searchURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, config.DefaultUserAgent, req.Header.Get("User-Agent"))
		assert.Equal(t, "q=NBA%20logo", req.URL.RawQuery)
		return httpmock.NewStringResponse(http.StatusOK,
			`{"results":[{"image":"https://cdn.test/nba.png","title":"NBA"},{"image":"https://cdn.test/other.png"}]}`), nil
	})

	got, err := a.SearchImage(context.Background(), "NBA%20logo")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/nba.png", got)
	assert.Equal(t, model.ProviderDuckDuckGo, a.GetName())
}

func TestSearchImage_NoResults(t *testing.T) {
	t.Parallel()
	a, mock := newMockedAdapter(t)
	mock.RegisterResponder(http.MethodGet, searchURL, httpmock.NewStringResponder(http.StatusOK, `{"results":[]}`))

	got, err := a.SearchImage(context.Background(), "NBA%20logo")
	assert.Empty(t, got)
	assert.ErrorIs(t, err, interfaces.ErrNoResult)
	assert.False(t, interfaces.IsRateLimited(err))
}

func TestSearchImage_RateLimited(t *testing.T) {
	t.Parallel()
	a, mock := newMockedAdapter(t)
	mock.RegisterResponder(http.MethodGet, searchURL, httpmock.NewStringResponder(http.StatusTooManyRequests, "slow down"))

	_, err := a.SearchImage(context.Background(), "NBA%20logo")
	require.Error(t, err)
	assert.True(t, interfaces.IsRateLimited(err))

	var rl *interfaces.RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, model.ProviderDuckDuckGo, rl.Provider)
}

func TestSearchImage_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		responder httpmock.Responder
	}{
		{"server error", httpmock.NewStringResponder(http.StatusInternalServerError, "boom")},
		{"forbidden", httpmock.NewStringResponder(http.StatusForbidden, "")},
		{"html instead of json", httpmock.NewStringResponder(http.StatusOK, "<html></html>")},
		{"missing image field", httpmock.NewStringResponder(http.StatusOK, `{"results":[{"title":"x"}]}`)},
		{"transport error", httpmock.NewErrorResponder(errors.New("connection refused"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a, mock := newMockedAdapter(t)
			mock.RegisterResponder(http.MethodGet, searchURL, tt.responder)

			got, err := a.SearchImage(context.Background(), "NBA%20logo")
			assert.Empty(t, got)
			assert.ErrorIs(t, err, interfaces.ErrNoResult)
			assert.False(t, interfaces.IsRateLimited(err))
		})
	}
}
