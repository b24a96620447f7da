package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound entity id does not exist in the catalog
var ErrNotFound = errors.New("catalog entity not found")

// CatalogRepository leagues, channels and refresh runs on gorm
type CatalogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCatalogRepository(db *gorm.DB) interfaces.CatalogStore {
	return &CatalogRepository{db: db, now: time.Now}
}

// Models tables managed by the repository, for AutoMigrate
func Models() []interface{} {
	return []interface{}{&model.League{}, &model.Channel{}, &model.RefreshRun{}}
}

func (r *CatalogRepository) ListAll(ctx context.Context, catalog model.Catalog) ([]model.Entity, error) {
	return r.list(ctx, catalog, "")
}

// ListByGroup leagues of a sport or channels of a region; channels without region belong to Global
func (r *CatalogRepository) ListByGroup(ctx context.Context, catalog model.Catalog, group string) ([]model.Entity, error) {
	if group == "" {
		return []model.Entity{}, nil
	}
	return r.list(ctx, catalog, group)
}

func (r *CatalogRepository) list(ctx context.Context, catalog model.Catalog, group string) ([]model.Entity, error) {
	db := r.db.WithContext(ctx).Order("id ASC")

	switch catalog {
	case model.CatalogLeagues:
		var rows []model.League
		if group != "" {
			db = db.Where("sport = ?", group)
		}
		if err := db.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list leagues: %w", err)
		}
		out := make([]model.Entity, 0, len(rows))
		for i := range rows {
			out = append(out, rows[i].Entity())
		}
		return out, nil

	case model.CatalogChannels:
		var rows []model.Channel
		switch {
		case group == model.DefaultRegion:
			db = db.Where("region = ? OR region IS NULL OR region = ''", group)
		case group != "":
			db = db.Where("region = ?", group)
		}
		if err := db.Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("list channels: %w", err)
		}
		out := make([]model.Entity, 0, len(rows))
		for i := range rows {
			out = append(out, rows[i].Entity())
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown catalog %q", catalog)
}

func (r *CatalogRepository) GetByID(ctx context.Context, catalog model.Catalog, id uint64) (*model.Entity, error) {
	e, err := r.find(r.db.WithContext(ctx), catalog, id)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *CatalogRepository) find(db *gorm.DB, catalog model.Catalog, id uint64) (*model.Entity, error) {
	var e model.Entity
	var err error
	switch catalog {
	case model.CatalogLeagues:
		var row model.League
		err = db.First(&row, id).Error
		e = row.Entity()
	case model.CatalogChannels:
		var row model.Channel
		err = db.First(&row, id).Error
		e = row.Entity()
	default:
		return nil, fmt.Errorf("unknown catalog %q", catalog)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s %d", ErrNotFound, catalog, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", catalog, id, err)
	}
	return &e, nil
}

// UpdateImage stores url and stamps last_updated with the current time.
// last_updated never moves backwards, even when the clock does.
func (r *CatalogRepository) UpdateImage(ctx context.Context, catalog model.Catalog, id uint64, url string) (*model.Entity, error) {
	var updated *model.Entity
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := r.find(tx, catalog, id)
		if err != nil {
			return err
		}

		stamp := r.now()
		if current.LastUpdated != nil && stamp.Before(*current.LastUpdated) {
			stamp = *current.LastUpdated
		}

		values := map[string]interface{}{"image_url": url, "last_updated": stamp}
		var res *gorm.DB
		if catalog == model.CatalogLeagues {
			res = tx.Model(&model.League{}).Where("id = ?", id).Updates(values)
		} else {
			res = tx.Model(&model.Channel{}).Where("id = ?", id).Updates(values)
		}
		if res.Error != nil {
			return fmt.Errorf("update %s %d image: %w", catalog, id, res.Error)
		}

		current.ImageURL = url
		current.LastUpdated = &stamp
		updated = current
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Create inserts entity into its catalog; a missing LastUpdated defaults to now
func (r *CatalogRepository) Create(ctx context.Context, entity model.Entity) (*model.Entity, error) {
	if entity.LastUpdated == nil {
		now := r.now()
		entity.LastUpdated = &now
	}

	db := r.db.WithContext(ctx)
	switch entity.Catalog {
	case model.CatalogLeagues:
		row := model.NewLeague(entity)
		if err := db.Create(row).Error; err != nil {
			return nil, fmt.Errorf("create league %s: %w", entity.Name, err)
		}
		e := row.Entity()
		return &e, nil
	case model.CatalogChannels:
		row := model.NewChannel(entity)
		if err := db.Create(row).Error; err != nil {
			return nil, fmt.Errorf("create channel %s: %w", entity.Name, err)
		}
		e := row.Entity()
		return &e, nil
	}
	return nil, fmt.Errorf("unknown catalog %q", entity.Catalog)
}

// GetLastRefresh latest run by last_updated; nil when no run was recorded yet
func (r *CatalogRepository) GetLastRefresh(ctx context.Context) (*model.RefreshRun, error) {
	var run model.RefreshRun
	err := r.db.WithContext(ctx).Order("last_updated DESC").Order("id DESC").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last refresh: %w", err)
	}
	return &run, nil
}

func (r *CatalogRepository) SetLastRefresh(ctx context.Context, run *model.RefreshRun) error {
	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if run.LastUpdated.IsZero() {
		run.LastUpdated = r.now()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.LastUpdated
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("save refresh run %s: %w", run.RunID, err)
	}
	return nil
}

// ClearAll removes every league, channel and refresh run
func (r *CatalogRepository) ClearAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, m := range Models() {
			if err := tx.Where("1 = 1").Delete(m).Error; err != nil {
				return fmt.Errorf("clear %T: %w", m, err)
			}
		}
		return nil
	})
}
