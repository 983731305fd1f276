// Package router assembles the HTTP surface.
package router

import (
	"context"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/arxiv-channels/internal/handler"
	"github.com/noah-isme/arxiv-channels/internal/middleware"
	"github.com/noah-isme/arxiv-channels/internal/service"
	"github.com/noah-isme/arxiv-channels/pkg/config"
	"github.com/noah-isme/arxiv-channels/pkg/logger"
	corsmiddleware "github.com/noah-isme/arxiv-channels/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/arxiv-channels/pkg/middleware/requestid"
)

// Services are the collaborators the routes dispatch to. Exports may be nil when disabled.
type Services struct {
	Channels *service.ChannelService
	Queries  *service.QueryService
	Reloader *service.FolderReloader
	Exports  *service.ExportService
	Metrics  *service.MetricsService
}

// New builds the gin engine with middleware and every route registered.
func New(cfg *config.Config, logr *zap.Logger, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(svc.Metrics, "/metrics", "/health", "/ready"))
	}

	var probe interface {
		Ready(ctx context.Context) error
	}
	if svc.Queries != nil {
		probe = svc.Queries
	}
	metricsHandler := handler.NewMetricsHandler(svc.Metrics, probe)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	workspaceHandler := handler.NewWorkspaceHandler(svc.Channels, svc.Queries)
	folderHandler := handler.NewFolderHandler(svc.Channels, svc.Reloader)
	channelHandler := handler.NewChannelHandler(svc.Channels)

	api := r.Group(cfg.APIPrefix)
	api.GET("/workspace", workspaceHandler.Get)
	api.PUT("/active", workspaceHandler.SetActive)
	api.DELETE("/cache", workspaceHandler.PurgeCache)
	if cfg.Metrics.Enabled {
		api.GET("/metrics/summary", metricsHandler.Summary)
	}

	folders := api.Group("/folders")
	folders.POST("", folderHandler.Create)
	folders.DELETE("/:id", folderHandler.Delete)
	folders.POST("/:id/toggle", folderHandler.Toggle)
	folders.POST("/:id/reload", folderHandler.Reload)

	channels := api.Group("/channels")
	channels.POST("", channelHandler.Create)
	channels.POST("/reorder", channelHandler.Reorder)
	channels.GET("/:id", channelHandler.Get)
	channels.DELETE("/:id", channelHandler.Delete)
	channels.POST("/:id/reload", channelHandler.Reload)
	channels.PUT("/:id/folder", channelHandler.Move)
	if cfg.Exports.Enabled && svc.Exports != nil {
		channels.GET("/:id/export", handler.NewExportHandler(svc.Exports).Export)
	}

	return r
}
