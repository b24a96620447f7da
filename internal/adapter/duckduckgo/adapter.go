// Package duckduckgo queries the DuckDuckGo image JSON endpoint.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"LogoSync/internal/adapter"
	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL = "https://duckduckgo.com"
	maxBodyBytes   = 2 << 20
)

func init() {
	adapter.Register(model.ProviderDuckDuckGo, NewDuckDuckGoAdapter)
}

type Adapter struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Logger
}

// searchResponse only the fields of i.js that are used
type searchResponse struct {
	Results []struct {
		Image     string `json:"image"`
		Thumbnail string `json:"thumbnail"`
		Title     string `json:"title"`
	} `json:"results"`
}

func NewDuckDuckGoAdapter(cfg *config.ProviderConfig, client *http.Client, logger *logrus.Logger) interfaces.ImageProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &Adapter{
		baseURL:    baseURL,
		userAgent:  ua,
		httpClient: client,
		logger:     logger,
	}
}

func (a *Adapter) GetName() model.ProviderName {
	return model.ProviderDuckDuckGo
}

// SearchImage returns the image of the first result
func (a *Adapter) SearchImage(ctx context.Context, encodedQuery string) (string, error) {
	searchURL := fmt.Sprintf("%s/i.js?q=%s", a.baseURL, encodedQuery)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: build duckduckgo request: %v", interfaces.ErrNoResult, err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: duckduckgo request: %v", interfaces.ErrNoResult, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.WithError(err).Debug("close duckduckgo response body")
		}
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &interfaces.RateLimitError{Provider: a.GetName(), Status: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: duckduckgo status %d", interfaces.ErrNoResult, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode duckduckgo response: %v", interfaces.ErrNoResult, err)
	}
	if len(body.Results) == 0 || body.Results[0].Image == "" {
		return "", interfaces.ErrNoResult
	}
	return body.Results[0].Image, nil
}
