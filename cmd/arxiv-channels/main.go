package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/arxiv-channels/api/swagger"
	"github.com/noah-isme/arxiv-channels/internal/repository"
	"github.com/noah-isme/arxiv-channels/internal/router"
	"github.com/noah-isme/arxiv-channels/internal/service"
	"github.com/noah-isme/arxiv-channels/pkg/arxiv"
	"github.com/noah-isme/arxiv-channels/pkg/cache"
	"github.com/noah-isme/arxiv-channels/pkg/config"
	"github.com/noah-isme/arxiv-channels/pkg/export"
	"github.com/noah-isme/arxiv-channels/pkg/jobs"
	"github.com/noah-isme/arxiv-channels/pkg/logger"
)

// @title arXiv Channels API
// @version 0.1.0
// @description Saved arXiv keyword queries organised into folders, with deduplicated reloads.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	cacheSvc, closeCache := buildQueryCache(cfg, metrics, logr)
	defer closeCache()

	client := arxiv.NewClient(arxiv.Options{
		Endpoint:    cfg.Arxiv.Endpoint,
		UserAgent:   cfg.Arxiv.UserAgent,
		Timeout:     cfg.Arxiv.Timeout,
		MinInterval: cfg.Arxiv.MinInterval,
		Logger:      logr.Named("arxiv"),
	})
	queries := service.NewQueryService(client, cacheSvc, metrics, logr.Named("query"))
	channels := service.NewChannelService(repository.NewWorkspaceRepository(), queries, validator.New(), metrics, logr.Named("channels"))

	reloader := service.NewFolderReloader(channels, logr.Named("folder_reload"))
	queue := jobs.NewQueue("folder-reload", reloader.HandleJob, jobs.QueueConfig{
		Workers:    cfg.FolderReload.Workers,
		BufferSize: cfg.FolderReload.BufferSize,
		Logger:     logr,
		Observer: func(job jobs.Job, err error, took time.Duration) {
			metrics.ObserveJob("folder-reload", job.Type, err, took)
		},
	})
	reloader.SetQueue(queue)
	queue.Start(ctx)
	defer queue.Stop()

	var exports *service.ExportService
	if cfg.Exports.Enabled {
		delimiter, err := export.ParseDelimiter(cfg.Exports.CSVDelimiter)
		if err != nil {
			logr.Fatal("invalid export configuration", zap.Error(err))
		}
		exports = service.NewExportService(channels, logr.Named("export"),
			export.NewCSVExporter(export.CSVOptions{Delimiter: delimiter, ByteOrderMark: cfg.Exports.CSVByteOrder}),
			export.NewPDFExporter(cfg.Exports.PDFEmphasis),
		)
	}

	engine := router.New(cfg, logr, router.Services{
		Channels: channels,
		Queries:  queries,
		Reloader: reloader,
		Exports:  exports,
		Metrics:  metrics,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "query_cache", cacheSvc.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server shutdown", zap.Error(err))
	}
	logr.Info("server stopped")
}

// buildQueryCache wires the configured cache backend. A Redis backend that cannot be reached
// degrades to a disabled cache.
func buildQueryCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) (*service.CacheService, func()) {
	noop := func() {}
	if !cfg.QueryCache.Enabled {
		return service.NewCacheService(nil, metrics, cfg.QueryCache.TTL, logr, false), noop
	}

	switch cfg.QueryCache.Backend {
	case config.CacheBackendRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, query cache disabled", zap.Error(err))
			return service.NewCacheService(nil, metrics, cfg.QueryCache.TTL, logr, false), noop
		}
		repo := repository.NewCacheRepository(client, logr.Named("cache"))
		return service.NewCacheService(repo, metrics, cfg.QueryCache.TTL, logr, true), func() {
			if err := repo.Close(); err != nil {
				logr.Warn("close redis", zap.Error(err))
			}
		}
	default:
		repo, err := repository.NewMemoryCacheRepository(cfg.QueryCache.Size)
		if err != nil {
			logr.Warn("memory cache unavailable, query cache disabled", zap.Error(err))
			return service.NewCacheService(nil, metrics, cfg.QueryCache.TTL, logr, false), noop
		}
		return service.NewCacheService(repo, metrics, cfg.QueryCache.TTL, logr, true), noop
	}
}
