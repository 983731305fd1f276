package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/arxiv-channels/internal/models"
	"github.com/noah-isme/arxiv-channels/pkg/arxiv"
	"github.com/noah-isme/arxiv-channels/pkg/cache"
)

type paperSearcher interface {
	Execute(ctx context.Context, term string, opts models.FetchOptions) ([]models.Paper, error)
	RequestURL(term string, opts models.FetchOptions) string
}

// QueryService runs arXiv searches behind an optional read-through cache.
type QueryService struct {
	searcher paperSearcher
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewQueryService constructs a query service. cache and metrics may be nil.
func NewQueryService(searcher paperSearcher, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{searcher: searcher, cache: cache, metrics: metrics, logger: logger}
}

// Search returns at most opts.MaxResults papers for term. Cache failures degrade to an upstream call.
func (s *QueryService) Search(ctx context.Context, term string, opts models.FetchOptions) ([]models.Paper, error) {
	opts = opts.Normalize()
	key := cache.QueryKey(s.searcher.RequestURL(term, opts))

	var cached []models.Paper
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		s.metrics.ObserveFetch(FetchOutcomeCached, 0)
		return capPapers(cached, opts.MaxResults), nil
	}

	start := time.Now()
	papers, err := s.searcher.Execute(ctx, term, opts)
	duration := time.Since(start)
	if err != nil {
		s.metrics.ObserveFetch(fetchOutcome(err), duration)
		s.logger.Warn("arxiv query failed", zap.String("term", term), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveFetch(FetchOutcomeSuccess, duration)

	if err := s.cache.Set(ctx, key, papers, 0); err != nil {
		s.logger.Debug("query result not cached", zap.String("term", term), zap.Error(err))
	}
	return papers, nil
}

// Purge drops every cached query response.
func (s *QueryService) Purge(ctx context.Context) error {
	return s.cache.Invalidate(ctx, cache.KeyPrefix+"*")
}

// Ready reports whether the query path's dependencies are reachable.
func (s *QueryService) Ready(ctx context.Context) error {
	if err := s.cache.Ping(ctx); err != nil {
		return fmt.Errorf("query cache: %w", err)
	}
	return nil
}

// CacheEnabled reports whether responses are cached.
func (s *QueryService) CacheEnabled() bool {
	return s.cache.Enabled()
}

func fetchOutcome(err error) string {
	if errors.Is(err, arxiv.ErrMalformedResponse) {
		return FetchOutcomeMalformed
	}
	return FetchOutcomeTransport
}

func capPapers(papers []models.Paper, limit int) []models.Paper {
	if papers == nil {
		return []models.Paper{}
	}
	if limit > 0 && len(papers) > limit {
		return papers[:limit]
	}
	return papers
}
