// Package resolver turns a catalog name into an image url: overrides first, then the current
// provider, then every other provider in canonical order, and finally a placeholder.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/metrics"
	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	DefaultQualifier      = "logo official svg"
	DefaultPlaceholderURL = "https://via.placeholder.com/300x150?text="
)

// DefaultOverrides queries whose search results are known to be wrong
var DefaultOverrides = map[string]string{
	"Bundesliga (Alemania)":        "https://upload.wikimedia.org/wikipedia/en/thumb/d/df/Bundesliga_logo_%282017%29.svg/1200px-Bundesliga_logo_%282017%29.svg.png",
	"Fórmula 1 World Championship": "https://upload.wikimedia.org/wikipedia/commons/thumb/3/33/F1.svg/2560px-F1.svg.png",
}

// Providers lookup of initialised image providers
type Providers interface {
	GetProvider(name model.ProviderName) (interfaces.ImageProvider, error)
	ListProviders() []model.ProviderName
}

// Rotator the part of the rotation manager the resolver needs
type Rotator interface {
	CurrentProvider() model.ProviderName
	RotateIfCurrent(p model.ProviderName) bool
}

// Outcome resolved url and where it came from: a provider name, "override" or "placeholder"
type Outcome struct {
	URL    string `json:"imageUrl"`
	Source string `json:"source"`
}

// Resolver image resolution orchestrator
type Resolver struct {
	providers   Providers
	rotation    Rotator
	overrides   map[string]string
	qualifier   string
	placeholder string
	metrics     *metrics.Metrics
	logger      *logrus.Logger
}

// NewResolver builds a resolver; configured overrides extend and replace DefaultOverrides
func NewResolver(cfg config.ResolverConfig, providers Providers, rotation Rotator, m *metrics.Metrics, logger *logrus.Logger) *Resolver {
	overrides := make(map[string]string, len(DefaultOverrides)+len(cfg.Overrides))
	for q, u := range DefaultOverrides {
		overrides[q] = u
	}
	for _, o := range cfg.Overrides {
		if o.Query == "" || o.URL == "" {
			logger.WithField("query", o.Query).Warn("ignoring incomplete image override")
			continue
		}
		overrides[o.Query] = o.URL
	}

	qualifier := cfg.Qualifier
	if qualifier == "" {
		qualifier = DefaultQualifier
	}
	placeholder := cfg.PlaceholderURL
	if placeholder == "" {
		placeholder = DefaultPlaceholderURL
	}

	return &Resolver{
		providers:   providers,
		rotation:    rotation,
		overrides:   overrides,
		qualifier:   qualifier,
		placeholder: placeholder,
		metrics:     m,
		logger:      logger,
	}
}

// QueryFor search phrase of a catalog entity
func QueryFor(e model.Entity) string {
	if e.Catalog == model.CatalogChannels {
		return e.Name + " tv channel logo"
	}
	return e.Name
}

// ResolveImageForQuery returns a non-empty image url for query
func (r *Resolver) ResolveImageForQuery(ctx context.Context, query string) string {
	return r.Resolve(ctx, query).URL
}

// Resolve returns a non-empty image url for query together with its source
func (r *Resolver) Resolve(ctx context.Context, query string) Outcome {
	log := r.logger.WithField("query", query)

	if u, ok := r.overrides[query]; ok {
		log.Debug("using image override")
		r.metrics.IncResolution(model.SourceOverride)
		return Outcome{URL: u, Source: model.SourceOverride}
	}

	encoded := EncodeURIComponent(query + " " + r.qualifier)

	current := r.rotation.CurrentProvider()
	if u, err := r.try(ctx, current, encoded, log); err == nil {
		return r.found(u, current)
	}

	for _, p := range r.providers.ListProviders() {
		if p == current {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if u, err := r.try(ctx, p, encoded, log); err == nil {
			return r.found(u, p)
		}
	}

	log.Info("no provider found an image, using placeholder")
	r.metrics.IncResolution(model.SourcePlaceholder)
	return Outcome{URL: r.placeholder + EncodeURIComponent(query), Source: model.SourcePlaceholder}
}

func (r *Resolver) found(u string, p model.ProviderName) Outcome {
	r.metrics.IncResolution(string(p))
	return Outcome{URL: u, Source: string(p)}
}

// try calls one provider; every failure is absorbed into an error
func (r *Resolver) try(ctx context.Context, name model.ProviderName, encoded string, log *logrus.Entry) (u string, err error) {
	log = log.WithField("provider", name)

	provider, err := r.providers.GetProvider(name)
	if err != nil {
		log.WithError(err).Debug("provider unavailable")
		return "", err
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.WithField("panic", rec).Error("provider panicked")
			r.metrics.ObserveProviderRequest(string(name), metrics.OutcomePanic, time.Since(start))
			u, err = "", fmt.Errorf("%w: %s panicked: %v", interfaces.ErrNoResult, name, rec)
		}
	}()

	u, err = provider.SearchImage(ctx, encoded)
	if err == nil && u == "" {
		err = fmt.Errorf("%w: %s returned an empty url", interfaces.ErrNoResult, name)
	}

	switch {
	case err == nil:
		log.WithField("url", u).Debug("provider found image")
		r.metrics.ObserveProviderRequest(string(name), metrics.OutcomeSuccess, time.Since(start))
	case interfaces.IsRateLimited(err):
		log.WithError(err).Warn("provider rate limited")
		r.metrics.ObserveProviderRequest(string(name), metrics.OutcomeRateLimited, time.Since(start))
		if r.rotation.RotateIfCurrent(name) {
			log.Info("rotated away from rate limited provider")
		}
	case errors.Is(err, interfaces.ErrNoResult):
		log.WithError(err).Debug("provider found nothing")
		r.metrics.ObserveProviderRequest(string(name), metrics.OutcomeNoResult, time.Since(start))
	default:
		log.WithError(err).Warn("provider failed")
		r.metrics.ObserveProviderRequest(string(name), metrics.OutcomeNoResult, time.Since(start))
	}
	return u, err
}

// EncodeURIComponent escapes s for use inside a query string: spaces become %20 and
// the marks ! ' ( ) * stay literal.
func EncodeURIComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
