package interfaces

import (
	"context"

	"LogoSync/internal/model"
)

// CatalogStore persistence of catalog entities and refresh runs
type CatalogStore interface {
	ListAll(ctx context.Context, catalog model.Catalog) ([]model.Entity, error)
	ListByGroup(ctx context.Context, catalog model.Catalog, group string) ([]model.Entity, error)
	GetByID(ctx context.Context, catalog model.Catalog, id uint64) (*model.Entity, error)
	// UpdateImage stores url and stamps last_updated; returns nil, nil when the id is unknown
	UpdateImage(ctx context.Context, catalog model.Catalog, id uint64, url string) (*model.Entity, error)
	Create(ctx context.Context, entity model.Entity) (*model.Entity, error)
	GetLastRefresh(ctx context.Context) (*model.RefreshRun, error)
	SetLastRefresh(ctx context.Context, run *model.RefreshRun) error
	ClearAll(ctx context.Context) error
}
