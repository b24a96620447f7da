package api

import (
	"net/http"

	"LogoSync/internal/export"
	"LogoSync/internal/interfaces"
	"LogoSync/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CatalogHandler read-only league and channel endpoints
type CatalogHandler struct {
	store  interfaces.CatalogStore
	logger *logrus.Logger
}

func NewCatalogHandler(store interfaces.CatalogStore, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{store: store, logger: logger}
}

// ListLeagues GET /api/leagues
func (h *CatalogHandler) ListLeagues(c *gin.Context) {
	h.respondLeagues(c, "")
}

// LeaguesBySport GET /api/leagues/sport/:sport
func (h *CatalogHandler) LeaguesBySport(c *gin.Context) {
	h.respondLeagues(c, c.Param("sport"))
}

// ListChannels GET /api/channels
func (h *CatalogHandler) ListChannels(c *gin.Context) {
	h.respondChannels(c, "")
}

// ChannelsByRegion GET /api/channels/region/:region
func (h *CatalogHandler) ChannelsByRegion(c *gin.Context) {
	h.respondChannels(c, c.Param("region"))
}

// LeaguesXML GET /api/leagues/logos-xml
func (h *CatalogHandler) LeaguesXML(c *gin.Context) {
	h.respondXML(c, model.CatalogLeagues, export.LeaguesXML)
}

// ChannelsXML GET /api/channels/logos-xml
func (h *CatalogHandler) ChannelsXML(c *gin.Context) {
	h.respondXML(c, model.CatalogChannels, export.ChannelsXML)
}

func (h *CatalogHandler) list(c *gin.Context, catalog model.Catalog, group string) ([]model.Entity, bool) {
	var (
		entities []model.Entity
		err      error
	)
	if group == "" {
		entities, err = h.store.ListAll(c.Request.Context(), catalog)
	} else {
		entities, err = h.store.ListByGroup(c.Request.Context(), catalog, group)
	}
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{"catalog": catalog, "group": group}).Error("catalog query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching " + string(catalog)})
		return nil, false
	}
	return entities, true
}

func (h *CatalogHandler) respondLeagues(c *gin.Context, sport string) {
	entities, ok := h.list(c, model.CatalogLeagues, sport)
	if !ok {
		return
	}
	out := make([]model.League, 0, len(entities))
	for _, e := range entities {
		l := model.NewLeague(e)
		l.ID = e.ID
		out = append(out, *l)
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) respondChannels(c *gin.Context, region string) {
	entities, ok := h.list(c, model.CatalogChannels, region)
	if !ok {
		return
	}
	out := make([]model.Channel, 0, len(entities))
	for _, e := range entities {
		ch := model.NewChannel(e)
		ch.ID = e.ID
		out = append(out, *ch)
	}
	c.JSON(http.StatusOK, out)
}

func (h *CatalogHandler) respondXML(c *gin.Context, catalog model.Catalog, render func([]model.Entity) ([]byte, error)) {
	entities, ok := h.list(c, catalog, "")
	if !ok {
		return
	}
	body, err := render(entities)
	if err != nil {
		h.logger.WithError(err).WithField("catalog", catalog).Error("logos xml export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error generating logos XML"})
		return
	}
	c.Data(http.StatusOK, export.ContentType, body)
}
