// Package scheduler runs catalog refreshes at startup, on a cron schedule and on demand.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"LogoSync/internal/config"
	"LogoSync/internal/model"
	"LogoSync/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrStopped the scheduler no longer accepts runs
var ErrStopped = errors.New("scheduler stopped")

// Runner executes one catalog refresh
type Runner interface {
	RunCatalog(ctx context.Context, catalog model.Catalog, trigger string) (*service.RunSummary, error)
}

// Scheduler owns every background refresh goroutine
type Scheduler struct {
	runner       Runner
	cron         *cron.Cron
	spec         string
	startupDelay time.Duration
	channelDelay time.Duration
	logger       *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

// New validates the cron expression; nothing runs until Start
func New(cfg config.RefreshConfig, runner Runner, logger *logrus.Logger) (*Scheduler, error) {
	spec := cfg.Cron
	if spec == "" {
		spec = "0 */8 * * *"
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid refresh cron %q: %w", spec, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner:       runner,
		cron:         cron.New(cron.WithLogger(cron.PrintfLogger(logger))),
		spec:         spec,
		startupDelay: cfg.StartupDelay,
		channelDelay: cfg.ChannelDelay,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
	}, nil
}

// Start schedules the startup pass and the periodic job
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.runStaggered(model.TriggerScheduled) }); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.sleep(s.startupDelay) {
			s.runStaggered(model.TriggerStartup)
		}
	}()
	s.cron.Start()

	s.logger.WithFields(logrus.Fields{
		"cron":          s.spec,
		"startup_delay": s.startupDelay,
		"channel_delay": s.channelDelay,
	}).Info("refresh scheduler started")
	return nil
}

// Trigger starts a refresh of catalog in the background
func (s *Scheduler) Trigger(catalog model.Catalog) error {
	if !catalog.Valid() {
		return fmt.Errorf("unknown catalog %q", catalog)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrStopped
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(catalog, model.TriggerManual)
	}()
	return nil
}

// Stop cancels pending and running refreshes and waits for them until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	cronDone := s.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for refresh runs: %w", ctx.Err())
	}
}

// runStaggered starts the league run and the channel run channelDelay later
func (s *Scheduler) runStaggered(trigger string) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.wg.Add(2)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.run(model.CatalogLeagues, trigger)
	}()
	go func() {
		defer s.wg.Done()
		if s.sleep(s.channelDelay) {
			s.run(model.CatalogChannels, trigger)
		}
	}()
}

// sleep waits d and reports false if the scheduler stopped first
func (s *Scheduler) sleep(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Scheduler) run(catalog model.Catalog, trigger string) {
	if s.ctx.Err() != nil {
		return
	}
	log := s.logger.WithFields(logrus.Fields{"catalog": catalog, "trigger": trigger})

	summary, err := s.runner.RunCatalog(s.ctx, catalog, trigger)
	switch {
	case errors.Is(err, service.ErrRefreshInProgress):
		log.Info("refresh already running, skipped")
	case err != nil:
		log.WithError(err).Error("refresh run failed")
	default:
		log.WithFields(logrus.Fields{"updated": summary.Updated, "failed": summary.Failed}).Info("background refresh finished")
	}
}
