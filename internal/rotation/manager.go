// Package rotation decides which image-search provider serves the next query.
//
// The provider order is shuffled once per Manager so separate processes do not all start on the
// same provider. The current provider is replaced when it has been active longer than the rotation
// interval, when it has served more than the request ceiling, or on demand (rate limit signals).
package rotation

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval    = 30 * time.Second
	DefaultMaxRequests = 5
)

// Rotation reasons reported to the rotate hook
const (
	ReasonInterval     = "interval"
	ReasonRequestLimit = "request_limit"
	ReasonForced       = "forced"
)

// Manager provider rotation state, safe for concurrent use
type Manager struct {
	mu           sync.Mutex
	order        []model.ProviderName
	current      int
	counts       map[model.ProviderName]int
	lastRotation time.Time

	interval    time.Duration
	maxRequests int
	now         func() time.Time
	shuffle     func(n int, swap func(i, j int))
	logger      *logrus.Logger
	onRotate    func(from, to model.ProviderName, reason string)
}

// Option configures a Manager
type Option func(*Manager)

// WithInterval sets the wall-clock time after which the provider is rotated
func WithInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMaxRequests sets the request ceiling of a provider before rotation
func WithMaxRequests(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxRequests = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithShuffle replaces the startup permutation; pass a no-op to keep the given order
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(m *Manager) { m.shuffle = shuffle }
}

// WithLogger sets the logger used for rotation messages
func WithLogger(logger *logrus.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithRotateHook registers a callback invoked after every rotation
func WithRotateHook(fn func(from, to model.ProviderName, reason string)) Option {
	return func(m *Manager) { m.onRotate = fn }
}

// NoShuffle keeps the provider order as given
func NoShuffle(int, func(i, j int)) {}

// New builds a Manager over providers, permuting their order once
func New(providers []model.ProviderName, opts ...Option) (*Manager, error) {
	if len(providers) == 0 {
		return nil, errors.New("rotation: no providers")
	}

	m := &Manager{
		order:       append([]model.ProviderName(nil), providers...),
		counts:      make(map[model.ProviderName]int, len(providers)),
		interval:    DefaultInterval,
		maxRequests: DefaultMaxRequests,
		now:         time.Now,
		shuffle:     rand.Shuffle, // Fisher-Yates
		logger:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.shuffle(len(m.order), func(i, j int) {
		m.order[i], m.order[j] = m.order[j], m.order[i]
	})
	for _, p := range m.order {
		m.counts[p] = 0
	}
	m.lastRotation = m.now()

	m.logger.WithField("order", m.order).Info("provider rotation initialised")
	return m, nil
}

// CurrentProvider returns the provider for the next request and counts that request.
// Callers must only call it when they are about to query the provider.
func (m *Manager) CurrentProvider() model.ProviderName {
	m.mu.Lock()
	from, to, reason, rotated := m.rotateIfDueLocked()
	p := m.order[m.current]
	m.counts[p]++
	m.mu.Unlock()

	if rotated {
		m.rotated(from, to, reason)
	}
	return p
}

// Peek returns the current provider without counting a request or rotating
func (m *Manager) Peek() model.ProviderName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order[m.current]
}

// ForceRotation moves to the next provider and resets its request count
func (m *Manager) ForceRotation() model.ProviderName {
	m.mu.Lock()
	from, to := m.advanceLocked()
	m.mu.Unlock()

	m.rotated(from, to, ReasonForced)
	return to
}

// RotateIfCurrent forces a rotation only while p is still the selected provider.
// Repeated rate-limit signals from a provider that was already rotated away are ignored.
func (m *Manager) RotateIfCurrent(p model.ProviderName) bool {
	m.mu.Lock()
	if m.order[m.current] != p {
		m.mu.Unlock()
		return false
	}
	from, to := m.advanceLocked()
	m.mu.Unlock()

	m.rotated(from, to, ReasonForced)
	return true
}

// Order returns the shuffled provider order
func (m *Manager) Order() []model.ProviderName {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ProviderName(nil), m.order...)
}

// Snapshot point-in-time view of the rotation state
type Snapshot struct {
	Order        []model.ProviderName       `json:"order"`
	Current      model.ProviderName         `json:"current"`
	Counts       map[model.ProviderName]int `json:"counts"`
	LastRotation time.Time                  `json:"lastRotation"`
	Interval     string                     `json:"interval"`
	MaxRequests  int                        `json:"maxRequests"`
}

// Snapshot copies the current state
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	counts := make(map[model.ProviderName]int, len(m.counts))
	for k, v := range m.counts {
		counts[k] = v
	}
	return Snapshot{
		Order:        append([]model.ProviderName(nil), m.order...),
		Current:      m.order[m.current],
		Counts:       counts,
		LastRotation: m.lastRotation,
		Interval:     m.interval.String(),
		MaxRequests:  m.maxRequests,
	}
}

func (m *Manager) rotateIfDueLocked() (from, to model.ProviderName, reason string, rotated bool) {
	switch {
	case m.now().Sub(m.lastRotation) > m.interval:
		reason = ReasonInterval
	case m.counts[m.order[m.current]] > m.maxRequests:
		reason = ReasonRequestLimit
	default:
		return "", "", "", false
	}
	from, to = m.advanceLocked()
	return from, to, reason, true
}

func (m *Manager) advanceLocked() (from, to model.ProviderName) {
	from = m.order[m.current]
	m.current = (m.current + 1) % len(m.order)
	to = m.order[m.current]
	m.counts[to] = 0
	m.lastRotation = m.now()
	return from, to
}

func (m *Manager) rotated(from, to model.ProviderName, reason string) {
	m.logger.WithFields(logrus.Fields{
		"from":   from,
		"to":     to,
		"reason": reason,
	}).Info("rotated search provider")
	if m.onRotate != nil {
		m.onRotate(from, to, reason)
	}
}
