// Package validator decides whether a stored image url is still usable.
package validator

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"LogoSync/internal/config"
	"LogoSync/internal/metrics"
	"LogoSync/internal/utils/httpclient"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 5 * time.Second

// Validator probes image urls with HEAD requests
type Validator struct {
	client             *http.Client
	timeout            time.Duration
	placeholderDomains []string
	blockedDomains     []string
	cache              *cache.Cache // nil when memoisation is disabled
	metrics            *metrics.Metrics
	logger             *logrus.Logger
}

// NewValidator builds a validator from config. client may be nil, in which case one is created
// with the configured timeout, user agent and redirect policy.
func NewValidator(cfg config.ValidatorConfig, client *http.Client, m *metrics.Metrics, logger *logrus.Logger) *Validator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		ua := cfg.UserAgent
		if ua == "" {
			ua = config.DefaultUserAgent
		}
		client = httpclient.NewHTTPClient(httpclient.Options{
			Timeout:       timeout,
			UserAgent:     ua,
			CheckRedirect: redirectPolicy(cfg.FollowRedirects, cfg.MaxRedirects),
		}, logger)
	}

	v := &Validator{
		client:             client,
		timeout:            timeout,
		placeholderDomains: lower(cfg.PlaceholderDomains),
		blockedDomains:     lower(cfg.BlockedDomains),
		metrics:            m,
		logger:             logger,
	}
	if cfg.CacheTTL > 0 {
		v.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	return v
}

// redirectPolicy without follow every 3xx is returned as is and fails the 200 check
func redirectPolicy(follow bool, max int) func(*http.Request, []*http.Request) error {
	if !follow {
		return func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	if max <= 0 {
		max = 5
	}
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}

// IsAccessible reports whether url answers a HEAD request with 200.
// Empty, placeholder and blocked urls are rejected without a network call.
func (v *Validator) IsAccessible(ctx context.Context, url string) bool {
	if reason, rejected := v.reject(url); rejected {
		v.logger.WithFields(logrus.Fields{"url": url, "reason": reason}).Debug("image url rejected")
		v.metrics.IncProbe(metrics.ProbeRejected)
		return false
	}

	if v.cache != nil {
		if ok, found := v.cache.Get(url); found {
			v.metrics.IncProbe(metrics.ProbeCached)
			return ok.(bool)
		}
	}

	ok := v.probe(ctx, url)
	if v.cache != nil {
		v.cache.SetDefault(url, ok)
	}
	if ok {
		v.metrics.IncProbe(metrics.ProbeAccessible)
	} else {
		v.metrics.IncProbe(metrics.ProbeInaccessible)
	}
	return ok
}

func (v *Validator) reject(url string) (string, bool) {
	if strings.TrimSpace(url) == "" {
		return "empty", true
	}
	lowered := strings.ToLower(url)
	for _, d := range v.placeholderDomains {
		if strings.Contains(lowered, d) {
			return "placeholder", true
		}
	}
	for _, d := range v.blockedDomains {
		if strings.Contains(lowered, d) {
			return "blocked", true
		}
	}
	return "", false
}

func (v *Validator) probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		v.logger.WithError(err).WithField("url", url).Debug("invalid image url")
		return false
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.logger.WithError(err).WithField("url", url).Debug("image probe failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		v.logger.WithFields(logrus.Fields{"url": url, "status": resp.StatusCode}).Debug("image not accessible")
		return false
	}
	return true
}

func lower(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
