// Package search serves vacancy searches through the result cache.
package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/cache"
	"github.com/vacancy-aggregator/backend/internal/domain"
)

// Pipeline produces the sorted, filtered list for a search
type Pipeline interface {
	Search(ctx context.Context, spec domain.RequestSpec) []domain.Vacancy
}

// Result of one search call
type Result struct {
	SearchID  string
	Spec      domain.RequestSpec
	Vacancies []domain.Vacancy
	Cached    bool
}

// Service short-circuits repeated searches of a session from the cache
type Service struct {
	pipeline     Pipeline
	cache        cache.ResultCache
	lookbackDays int
	logger       *zap.Logger
	now          func() time.Time
}

// NewService creates a search service
func NewService(pipeline Pipeline, c cache.ResultCache, lookbackDays int, logger *zap.Logger) *Service {
	return &Service{
		pipeline:     pipeline,
		cache:        c,
		lookbackDays: lookbackDays,
		logger:       logger,
		now:          time.Now,
	}
}

// Key is the cache key of one search of one session
func Key(session, searchID string) string {
	return session + ":" + searchID
}

// Search runs the pipeline unless the same session already has results for the
// same criteria. refresh forces a new run; its result overwrites the cached one.
func (s *Service) Search(ctx context.Context, session string, raw domain.RawSearch, refresh bool) Result {
	spec := domain.NewRequestSpec(raw, s.now(), s.lookbackDays)
	result := Result{SearchID: spec.Fingerprint(), Spec: spec}
	key := Key(session, result.SearchID)

	if !refresh {
		if list, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug("Serving cached results", zap.String("key", key), zap.Int("vacancies", len(list)))
			result.Vacancies = list
			result.Cached = true
			return result
		}
	}

	start := time.Now()
	result.Vacancies = s.pipeline.Search(ctx, spec)
	if err := ctx.Err(); err != nil {
		// a cut short run must not shadow a complete one for the cache TTL
		s.logger.Warn("Search cancelled, results not cached", zap.String("key", key), zap.Error(err))
		return result
	}
	s.cache.Set(ctx, key, result.Vacancies)

	s.logger.Info("Search completed",
		zap.String("search_id", result.SearchID),
		zap.String("source", string(spec.Source())),
		zap.Int("vacancies", len(result.Vacancies)),
		zap.Duration("took", time.Since(start)),
	)
	return result
}

// Results returns the cached list of an earlier search
func (s *Service) Results(ctx context.Context, session, searchID string) ([]domain.Vacancy, bool) {
	return s.cache.Get(ctx, Key(session, searchID))
}
