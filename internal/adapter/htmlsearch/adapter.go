// Package htmlsearch scrapes image search result pages of engines without a usable API.
package htmlsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"LogoSync/internal/adapter"
	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const maxBodyBytes = 5 << 20

// Engine describes where an engine serves its image results.
// SearchPath contains one %s for the url-encoded query.
type Engine struct {
	Name           model.ProviderName
	DefaultBaseURL string
	SearchPath     string
}

// Engines every scraped engine
var Engines = []Engine{
	{Name: model.ProviderGoogle, DefaultBaseURL: "https://www.google.com", SearchPath: "/search?q=%s&tbm=isch"},
	{Name: model.ProviderYandex, DefaultBaseURL: "https://yandex.com", SearchPath: "/images/search?text=%s"},
	{Name: model.ProviderEcosia, DefaultBaseURL: "https://www.ecosia.org", SearchPath: "/images?q=%s"},
	{Name: model.ProviderYahoo, DefaultBaseURL: "https://images.search.yahoo.com", SearchPath: "/search/images?p=%s"},
	{Name: model.ProviderBrave, DefaultBaseURL: "https://search.brave.com", SearchPath: "/images?q=%s"},
}

func init() {
	for _, e := range Engines {
		adapter.Register(e.Name, factoryFor(e))
	}
}

func factoryFor(engine Engine) adapter.Factory {
	return func(cfg *config.ProviderConfig, client *http.Client, logger *logrus.Logger) interfaces.ImageProvider {
		return NewAdapter(engine, cfg, client, logger)
	}
}

type Adapter struct {
	engine     Engine
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *logrus.Logger
	extractors []Extractor
}

// NewAdapter builds a scraper for engine; an empty cfg.BaseURL falls back to the engine default
func NewAdapter(engine Engine, cfg *config.ProviderConfig, client *http.Client, logger *logrus.Logger) *Adapter {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = engine.DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	return &Adapter{
		engine:     engine,
		baseURL:    baseURL,
		userAgent:  ua,
		httpClient: client,
		logger:     logger,
		extractors: DefaultExtractors,
	}
}

func (a *Adapter) GetName() model.ProviderName {
	return a.engine.Name
}

// SearchURL the results page requested for encodedQuery
func (a *Adapter) SearchURL(encodedQuery string) string {
	return a.baseURL + fmt.Sprintf(a.engine.SearchPath, encodedQuery)
}

// SearchImage fetches the results page and extracts the first candidate image.
// Non-2xx statuses are inspected, never treated as transport errors.
func (a *Adapter) SearchImage(ctx context.Context, encodedQuery string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.SearchURL(encodedQuery), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("%w: build %s request: %v", interfaces.ErrNoResult, a.engine.Name, err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s request: %v", interfaces.ErrNoResult, a.engine.Name, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.WithError(err).WithField("provider", a.engine.Name).Debug("close response body")
		}
	}()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &interfaces.RateLimitError{Provider: a.engine.Name, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("%w: %s status %d", interfaces.ErrNoResult, a.engine.Name, resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: parse %s page: %v", interfaces.ErrNoResult, a.engine.Name, err)
	}

	imageURL, strategy, ok := Extract(doc, a.extractors)
	if !ok {
		return "", interfaces.ErrNoResult
	}
	a.logger.WithFields(logrus.Fields{
		"provider": a.engine.Name,
		"strategy": strategy,
	}).Debug("extracted image candidate")
	return imageURL, nil
}
