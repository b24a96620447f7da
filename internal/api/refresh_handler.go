package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"LogoSync/internal/model"
	"LogoSync/internal/resolver"
	"LogoSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Refresher refresh operations exposed over HTTP, implemented by service.RefreshService
type Refresher interface {
	RunCatalog(ctx context.Context, catalog model.Catalog, trigger string) (*service.RunSummary, error)
	RefreshByName(ctx context.Context, catalog model.Catalog, name string) ([]service.ManualResult, error)
	ResolveImageForQuery(ctx context.Context, query string) resolver.Outcome
	LastRefresh(ctx context.Context) (*model.RefreshRun, error)
}

type RefreshHandler struct {
	refresher Refresher
	logger    *logrus.Logger
}

func NewRefreshHandler(refresher Refresher, logger *logrus.Logger) *RefreshHandler {
	return &RefreshHandler{refresher: refresher, logger: logger}
}

type nameRequest struct {
	Name string `json:"name"`
}

type queryRequest struct {
	Query string `json:"query"`
}

// LastUpdate GET /api/updates/last
func (h *RefreshHandler) LastUpdate(c *gin.Context) {
	run, err := h.refresher.LastRefresh(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("fetch last update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching last update time"})
		return
	}
	if run == nil {
		c.JSON(http.StatusOK, gin.H{"lastUpdated": time.Now()})
		return
	}
	c.JSON(http.StatusOK, run)
}

// RefreshLeagues POST /api/updates/refresh
func (h *RefreshHandler) RefreshLeagues(c *gin.Context) {
	h.refreshCatalog(c, model.CatalogLeagues)
}

// RefreshChannels POST /api/channels/refresh
func (h *RefreshHandler) RefreshChannels(c *gin.Context) {
	h.refreshCatalog(c, model.CatalogChannels)
}

func (h *RefreshHandler) refreshCatalog(c *gin.Context, catalog model.Catalog) {
	ctx := c.Request.Context()
	_, err := h.refresher.RunCatalog(ctx, catalog, model.TriggerManual)
	if errors.Is(err, service.ErrRefreshInProgress) {
		c.JSON(http.StatusConflict, gin.H{"message": "Refresh of " + string(catalog) + " already in progress"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("catalog", catalog).Error("manual refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating " + string(catalog) + " images"})
		return
	}
	h.LastUpdate(c)
}

// RefreshLeagueImage POST /api/league/refresh-image
func (h *RefreshHandler) RefreshLeagueImage(c *gin.Context) {
	var req nameRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "League name is required"})
		return
	}

	results, err := h.refresher.RefreshByName(c.Request.Context(), model.CatalogLeagues, req.Name)
	if errors.Is(err, service.ErrNoMatch) {
		c.JSON(http.StatusNotFound, gin.H{"message": "League not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("name", req.Name).Error("manual league refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error updating league image"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": results})
}

// ResolveImage POST /api/images/resolve
func (h *RefreshHandler) ResolveImage(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Query is required"})
		return
	}
	out := h.refresher.ResolveImageForQuery(c.Request.Context(), req.Query)
	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"imageUrl": out.URL,
		"source":   out.Source,
	})
}
