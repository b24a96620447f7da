package api

import (
	"LogoSync/internal/interfaces"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Deps collaborators of the HTTP API
type Deps struct {
	Store     interfaces.CatalogStore
	Refresher Refresher
	Rotation  RotationSource
	Registry  *prometheus.Registry // nil disables /metrics
	Logger    *logrus.Logger
}

// NewRouter registers every route; pprof is only mounted in gin debug mode
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger), cors.Default())

	if gin.Mode() == gin.DebugMode {
		pprof.Register(r)
	}
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})))
	}

	catalog := NewCatalogHandler(deps.Store, deps.Logger)
	refresh := NewRefreshHandler(deps.Refresher, deps.Logger)
	providers := NewProviderHandler(deps.Rotation)

	api := r.Group("/api")
	api.GET("/leagues", catalog.ListLeagues)
	api.GET("/leagues/sport/:sport", catalog.LeaguesBySport)
	api.GET("/leagues/logos-xml", catalog.LeaguesXML)
	api.POST("/league/refresh-image", refresh.RefreshLeagueImage)

	api.GET("/channels", catalog.ListChannels)
	api.GET("/channels/region/:region", catalog.ChannelsByRegion)
	api.GET("/channels/logos-xml", catalog.ChannelsXML)
	api.POST("/channels/refresh", refresh.RefreshChannels)

	api.GET("/updates/last", refresh.LastUpdate)
	api.POST("/updates/refresh", refresh.RefreshLeagues)

	api.POST("/images/resolve", refresh.ResolveImage)
	api.GET("/providers/rotation", providers.Rotation)

	return r
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"status": c.Writer.Status(),
		}).Debug("http request")
	}
}
