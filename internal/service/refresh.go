package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"LogoSync/internal/config"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/metrics"
	"LogoSync/internal/model"
	"LogoSync/internal/resolver"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

var (
	// ErrRefreshInProgress a run of the same catalog is already active
	ErrRefreshInProgress = errors.New("refresh already in progress")
	// ErrNoMatch no entity name contains the requested text
	ErrNoMatch = errors.New("no matching entity")
)

// ImageValidator checks whether a stored image url still works
type ImageValidator interface {
	IsAccessible(ctx context.Context, url string) bool
}

// ImageResolver finds an image url for a search phrase; it never returns an empty url
type ImageResolver interface {
	Resolve(ctx context.Context, query string) resolver.Outcome
}

// RunSummary result of one catalog refresh pass
type RunSummary struct {
	RunID      string         `json:"runId"`
	Catalog    model.Catalog  `json:"catalog"`
	Trigger    string         `json:"trigger"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Processed  int            `json:"processed"`
	Updated    int            `json:"updated"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"` // image still accessible
	Sources    map[string]int `json:"sources"` // where new urls came from
}

// ManualResult outcome of refreshing one entity by name
type ManualResult struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	OldImageURL string `json:"oldImageUrl"`
	NewImageURL string `json:"newImageUrl"`
	Success     bool   `json:"success"`
}

// RefreshService keeps catalog images valid
type RefreshService struct {
	store     interfaces.CatalogStore
	validator ImageValidator
	resolver  ImageResolver
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	now       func() time.Time

	locks map[model.Catalog]*sync.Mutex
}

func NewRefreshService(cfg config.RefreshConfig, store interfaces.CatalogStore, validator ImageValidator, resolver ImageResolver, m *metrics.Metrics, logger *logrus.Logger) *RefreshService {
	limit := rate.Inf
	if cfg.PaceInterval > 0 {
		limit = rate.Every(cfg.PaceInterval)
	}
	burst := cfg.PaceBurst
	if burst < 1 {
		burst = 1
	}

	return &RefreshService{
		store:     store,
		validator: validator,
		resolver:  resolver,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		locks: map[model.Catalog]*sync.Mutex{
			model.CatalogLeagues:  {},
			model.CatalogChannels: {},
		},
	}
}

// RunLeagueRefresh refreshes every league image that is missing or broken
func (s *RefreshService) RunLeagueRefresh(ctx context.Context, trigger string) (*RunSummary, error) {
	return s.RunCatalog(ctx, model.CatalogLeagues, trigger)
}

// RunChannelRefresh refreshes every channel image that is missing or broken
func (s *RefreshService) RunChannelRefresh(ctx context.Context, trigger string) (*RunSummary, error) {
	return s.RunCatalog(ctx, model.CatalogChannels, trigger)
}

// RunCatalog walks the catalog serially, replaces missing or inaccessible images and records a run.
// A run is recorded even when listing fails or ctx is cancelled midway.
func (s *RefreshService) RunCatalog(ctx context.Context, catalog model.Catalog, trigger string) (*RunSummary, error) {
	lock, ok := s.locks[catalog]
	if !ok {
		return nil, fmt.Errorf("unknown catalog %q", catalog)
	}
	if !lock.TryLock() {
		return nil, fmt.Errorf("%w: %s", ErrRefreshInProgress, catalog)
	}
	defer lock.Unlock()

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Catalog:   catalog,
		Trigger:   trigger,
		StartedAt: s.now(),
		Sources:   map[string]int{},
	}
	log := s.logger.WithFields(logrus.Fields{"catalog": catalog, "trigger": trigger, "run_id": summary.RunID})
	log.Info("refresh run started")

	runErr := s.refreshAll(ctx, summary, log)

	summary.FinishedAt = s.now()
	// the record is written even if the caller's context is gone
	if err := s.record(context.WithoutCancel(ctx), summary); err != nil {
		log.WithError(err).Error("failed to record refresh run")
		if runErr == nil {
			runErr = err
		}
	}
	s.metrics.ObserveRefreshRun(string(catalog), trigger, summary.FinishedAt.Sub(summary.StartedAt))

	log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"updated":   summary.Updated,
		"skipped":   summary.Skipped,
		"failed":    summary.Failed,
	}).Info("refresh run finished")
	return summary, runErr
}

func (s *RefreshService) refreshAll(ctx context.Context, summary *RunSummary, log *logrus.Entry) error {
	entities, err := s.store.ListAll(ctx, summary.Catalog)
	if err != nil {
		log.WithError(err).Error("failed to list entities")
		return fmt.Errorf("list %s: %w", summary.Catalog, err)
	}

	for _, e := range entities {
		if err := ctx.Err(); err != nil {
			log.WithError(err).Warn("refresh run cancelled")
			return err
		}
		if err := s.limiter.Wait(ctx); err != nil {
			log.WithError(err).Warn("refresh run cancelled while pacing")
			return err
		}

		summary.Processed++
		outcome, source, err := s.refreshOne(ctx, e)
		switch outcome {
		case metrics.EntityUpdated:
			summary.Updated++
			summary.Sources[source]++
		case metrics.EntitySkipped:
			summary.Skipped++
		case metrics.EntityFailed:
			summary.Failed++
			log.WithError(err).WithFields(logrus.Fields{"entity_id": e.ID, "name": e.Name}).Warn("entity refresh failed")
		}
		s.metrics.IncRefreshEntity(string(summary.Catalog), outcome)
	}
	return nil
}

// refreshOne never panics; a panic is reported as a failed entity
func (s *RefreshService) refreshOne(ctx context.Context, e model.Entity) (outcome, source string, err error) {
	defer func() {
		if r := recover(); r != nil {
			outcome, source, err = metrics.EntityFailed, "", fmt.Errorf("panic: %v", r)
		}
	}()

	if e.ImageURL != "" && s.validator.IsAccessible(ctx, e.ImageURL) {
		return metrics.EntitySkipped, "", nil
	}

	s.logger.WithFields(logrus.Fields{"entity_id": e.ID, "name": e.Name, "current": e.ImageURL}).Debug("searching new image")
	res := s.resolver.Resolve(ctx, resolver.QueryFor(e))
	if res.URL == "" {
		return metrics.EntityUnchanged, "", nil
	}

	updated, err := s.store.UpdateImage(ctx, e.Catalog, e.ID, res.URL)
	if err != nil {
		return metrics.EntityFailed, "", fmt.Errorf("update image: %w", err)
	}
	if updated == nil {
		// removed while the run was in progress
		return metrics.EntityUnchanged, "", nil
	}
	return metrics.EntityUpdated, res.Source, nil
}

func (s *RefreshService) record(ctx context.Context, summary *RunSummary) error {
	stats, err := json.Marshal(summary.Sources)
	if err != nil {
		return fmt.Errorf("encode run stats: %w", err)
	}
	return s.store.SetLastRefresh(ctx, &model.RefreshRun{
		RunID:       summary.RunID,
		Catalog:     string(summary.Catalog),
		Trigger:     summary.Trigger,
		StartedAt:   summary.StartedAt,
		LastUpdated: summary.FinishedAt,
		Processed:   summary.Processed,
		Updated:     summary.Updated,
		Failed:      summary.Failed,
		Skipped:     summary.Skipped,
		Stats:       datatypes.JSON(stats),
	})
}

// RefreshByName re-resolves every entity whose name contains name (case-insensitive),
// regardless of whether its current image still works.
func (s *RefreshService) RefreshByName(ctx context.Context, catalog model.Catalog, name string) ([]ManualResult, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNoMatch)
	}

	entities, err := s.store.ListAll(ctx, catalog)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", catalog, err)
	}

	var results []ManualResult
	for _, e := range entities {
		if !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}
		s.logger.WithFields(logrus.Fields{"entity_id": e.ID, "name": e.Name}).Info("manually refreshing image")

		res := s.resolver.Resolve(ctx, resolver.QueryFor(e))
		result := ManualResult{ID: e.ID, Name: e.Name, OldImageURL: e.ImageURL, NewImageURL: res.URL}
		updated, err := s.store.UpdateImage(ctx, catalog, e.ID, res.URL)
		if err != nil {
			s.logger.WithError(err).WithField("entity_id", e.ID).Warn("manual image update failed")
		}
		result.Success = err == nil && updated != nil
		results = append(results, result)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q in %s", ErrNoMatch, name, catalog)
	}
	return results, nil
}

// ResolveImageForQuery resolves a free-form query without touching the catalog
func (s *RefreshService) ResolveImageForQuery(ctx context.Context, query string) resolver.Outcome {
	return s.resolver.Resolve(ctx, query)
}

// LastRefresh latest recorded run; nil when none exists
func (s *RefreshService) LastRefresh(ctx context.Context) (*model.RefreshRun, error) {
	run, err := s.store.GetLastRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("get last refresh: %w", err)
	}
	return run, nil
}
