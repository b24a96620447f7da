package rotation

import (
	"io"
	"sync"
	"testing"
	"time"

	"LogoSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestManager(t *testing.T, clock *fakeClock, opts ...Option) *Manager {
	t.Helper()
	base := []Option{WithShuffle(NoShuffle), WithClock(clock.Now), WithLogger(quietLogger())}
	m, err := New(model.CanonicalProviders, append(base, opts...)...)
	require.NoError(t, err)
	return m
}

func TestNew_RejectsEmptyProviderList(t *testing.T) {
	t.Parallel()
	_, err := New(nil)
	require.Error(t, err)
}

func TestNew_ShuffleKeepsEveryProvider(t *testing.T) {
	t.Parallel()
	m, err := New(model.CanonicalProviders, WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.ElementsMatch(t, model.CanonicalProviders, m.Order())
}

func TestNew_ShuffleIsAppliedOnce(t *testing.T) {
	t.Parallel()
	calls := 0
	reverse := func(n int, swap func(i, j int)) {
		calls++
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	m, err := New([]model.ProviderName{"a", "b", "c"}, WithShuffle(reverse), WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []model.ProviderName{"c", "b", "a"}, m.Order())
	assert.Equal(t, model.ProviderName("c"), m.Peek())
}

func TestForceRotation_CyclesWithWraparound(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)
	order := m.Order()

	for i := 1; i <= 2*len(order); i++ {
		got := m.ForceRotation()
		want := order[i%len(order)]
		assert.Equal(t, want, got, "rotation %d", i)
		assert.Equal(t, want, m.Peek())
		assert.Zero(t, m.Snapshot().Counts[want], "counter must reset on rotation %d", i)
	}
}

func TestForceRotation_ResetsCounterOfNewProvider(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock, WithMaxRequests(100))
	order := m.Order()

	// give every provider some traffic
	for range order {
		m.CurrentProvider()
		m.CurrentProvider()
		m.ForceRotation()
	}
	next := m.ForceRotation()
	assert.Equal(t, order[1], next)
	assert.Zero(t, m.Snapshot().Counts[next])
}

func TestCurrentProvider_CountsRequests(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	p := m.CurrentProvider()
	m.CurrentProvider()
	m.CurrentProvider()

	snap := m.Snapshot()
	assert.Equal(t, p, snap.Current)
	assert.Equal(t, 3, snap.Counts[p])
}

func TestCurrentProvider_RotatesAfterRequestCeiling(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock, WithMaxRequests(5))
	order := m.Order()

	// the ceiling is exceeded only once the counter goes above 5
	for i := 0; i < 6; i++ {
		assert.Equal(t, order[0], m.CurrentProvider(), "request %d", i+1)
	}
	assert.Equal(t, order[1], m.CurrentProvider())
	assert.Equal(t, 1, m.Snapshot().Counts[order[1]])
}

func TestCurrentProvider_RotatesAfterInterval(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock, WithInterval(30*time.Second))
	order := m.Order()

	assert.Equal(t, order[0], m.CurrentProvider())
	clock.Advance(30 * time.Second)
	assert.Equal(t, order[0], m.CurrentProvider(), "exactly the interval is not yet stale")
	clock.Advance(time.Millisecond)
	assert.Equal(t, order[1], m.CurrentProvider())
	assert.Equal(t, clock.Now(), m.Snapshot().LastRotation)
}

func TestRotateIfCurrent(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)
	order := m.Order()

	assert.False(t, m.RotateIfCurrent(order[3]))
	assert.Equal(t, order[0], m.Peek())

	assert.True(t, m.RotateIfCurrent(order[0]))
	assert.Equal(t, order[1], m.Peek())

	// a second signal from the same provider is stale
	assert.False(t, m.RotateIfCurrent(order[0]))
	assert.Equal(t, order[1], m.Peek())
}

func TestPeek_DoesNotCount(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock)

	for i := 0; i < 10; i++ {
		m.Peek()
	}
	assert.Zero(t, m.Snapshot().Counts[m.Peek()])
}

func TestRotateHook(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	var reasons []string
	m := newTestManager(t, clock, WithMaxRequests(1), WithRotateHook(func(_, _ model.ProviderName, reason string) {
		reasons = append(reasons, reason)
	}))

	m.ForceRotation()
	m.CurrentProvider()
	m.CurrentProvider()
	m.CurrentProvider() // counter 2 > 1
	clock.Advance(time.Minute)
	m.CurrentProvider()

	assert.Equal(t, []string{ReasonForced, ReasonRequestLimit, ReasonInterval}, reasons)
}

func TestManager_ConcurrentUse(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newTestManager(t, clock, WithMaxRequests(3))
	valid := make(map[model.ProviderName]bool)
	for _, p := range m.Order() {
		valid[p] = true
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if (g+i)%7 == 0 {
					m.ForceRotation()
					continue
				}
				p := m.CurrentProvider()
				assert.True(t, valid[p])
			}
		}(g)
	}
	wg.Wait()

	snap := m.Snapshot()
	assert.True(t, valid[snap.Current])
	assert.LessOrEqual(t, snap.Counts[snap.Current], 4)
}
