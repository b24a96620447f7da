// Package metrics exposes Prometheus metrics for provider calls, rotation, resolution, validation and refresh runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Provider request outcomes
const (
	OutcomeSuccess     = "success"
	OutcomeNoResult    = "no_result"
	OutcomeRateLimited = "rate_limited"
	OutcomePanic       = "panic"
)

// Validator probe results
const (
	ProbeAccessible   = "accessible"
	ProbeInaccessible = "inaccessible"
	ProbeRejected     = "rejected" // empty, placeholder or blocked, no network call
	ProbeCached       = "cached"
)

// Refresh entity outcomes
const (
	EntityUpdated   = "updated"
	EntitySkipped   = "skipped"
	EntityFailed    = "failed"
	EntityUnchanged = "unchanged"
)

// Metrics holds every collector of the service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ProviderRequests *prometheus.CounterVec
	ProviderDuration *prometheus.HistogramVec
	Rotations        *prometheus.CounterVec
	Resolutions      *prometheus.CounterVec
	ValidatorProbes  *prometheus.CounterVec
	RefreshRuns      *prometheus.CounterVec
	RefreshEntities  *prometheus.CounterVec
	RefreshDuration  *prometheus.HistogramVec
	registry         *prometheus.Registry
}

// NewMetrics creates the collectors and registers them on registry.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register logosync metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.ProviderRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logosync_provider_requests_total",
		Help: "Image search requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	m.ProviderDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logosync_provider_request_duration_seconds",
		Help:    "Duration of image search requests in seconds.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"provider"})

	m.Rotations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logosync_provider_rotations_total",
		Help: "Provider rotations by reason.",
	}, []string{"reason"})

	m.Resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logosync_resolutions_total",
		Help: "Image resolutions by source (provider name, override or placeholder).",
	}, []string{"source"})

	m.ValidatorProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logosync_validator_probes_total",
		Help: "Accessibility checks by result.",
	}, []string{"result"})

	m.RefreshRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logosync_refresh_runs_total",
		Help: "Completed refresh runs by catalog and trigger.",
	}, []string{"catalog", "trigger"})

	m.RefreshEntities = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "logosync_refresh_entities_total",
		Help: "Entities processed by refresh runs, by catalog and outcome.",
	}, []string{"catalog", "outcome"})

	m.RefreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "logosync_refresh_duration_seconds",
		Help:    "Duration of refresh runs in seconds.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"catalog"})
}

// ObserveProviderRequest records one adapter call.
func (m *Metrics) ObserveProviderRequest(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// IncRotation counts a provider rotation.
func (m *Metrics) IncRotation(reason string) {
	if m == nil {
		return
	}
	m.Rotations.WithLabelValues(reason).Inc()
}

// IncResolution counts a resolved query by where the URL came from.
func (m *Metrics) IncResolution(source string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(source).Inc()
}

// IncProbe counts an accessibility check.
func (m *Metrics) IncProbe(result string) {
	if m == nil {
		return
	}
	m.ValidatorProbes.WithLabelValues(result).Inc()
}

// IncRefreshEntity counts one entity outcome of a refresh run.
func (m *Metrics) IncRefreshEntity(catalog, outcome string) {
	if m == nil {
		return
	}
	m.RefreshEntities.WithLabelValues(catalog, outcome).Inc()
}

// ObserveRefreshRun records a finished refresh run.
func (m *Metrics) ObserveRefreshRun(catalog, trigger string, d time.Duration) {
	if m == nil {
		return
	}
	m.RefreshRuns.WithLabelValues(catalog, trigger).Inc()
	m.RefreshDuration.WithLabelValues(catalog).Observe(d.Seconds())
}

// Describe implements the prometheus.Collector interface.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.ProviderRequests.Describe(ch)
	m.ProviderDuration.Describe(ch)
	m.Rotations.Describe(ch)
	m.Resolutions.Describe(ch)
	m.ValidatorProbes.Describe(ch)
	m.RefreshRuns.Describe(ch)
	m.RefreshEntities.Describe(ch)
	m.RefreshDuration.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.ProviderRequests.Collect(ch)
	m.ProviderDuration.Collect(ch)
	m.Rotations.Collect(ch)
	m.Resolutions.Collect(ch)
	m.ValidatorProbes.Collect(ch)
	m.RefreshRuns.Collect(ch)
	m.RefreshEntities.Collect(ch)
	m.RefreshDuration.Collect(ch)
}
