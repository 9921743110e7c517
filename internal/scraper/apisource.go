package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
)

// apiSpec is everything that differs between the JSON API sources
type apiSpec struct {
	source    domain.Source
	name      string
	itemsKey  string
	subKey    string
	pageParam string
	header    http.Header
	params    func(ctx context.Context, spec domain.RequestSpec) url.Values
	mapping   Mapping

	// detailURL returns the enrichment endpoint for an item, or "" to skip it
	detailURL func(r Record) string
}

// APISource adapts one paginated JSON API to the Scraper interface
type APISource struct {
	apiSpec
	cfg     config.SourceConfig
	fetcher *PageFetcher
	logger  *zap.Logger
	now     func() time.Time
}

func newAPISource(s apiSpec, cfg config.SourceConfig, fetcher *PageFetcher, logger *zap.Logger) *APISource {
	return &APISource{
		apiSpec: s,
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With(zap.String("source", string(s.source))),
		now:     time.Now,
	}
}

func (s *APISource) Name() string { return s.name }

func (s *APISource) Source() domain.Source { return s.source }

// BuildParams returns the query shared by every page
func (s *APISource) BuildParams(ctx context.Context, spec domain.RequestSpec) url.Values {
	return s.params(ctx, spec)
}

// ToCanonical maps one raw record
func (s *APISource) ToCanonical(r Record) domain.Vacancy {
	return s.mapping.Canonical(s.source, r, s.now())
}

// Scrape fetches every page, enriches items sequentially when the source needs it
// and maps them into canonical vacancies
func (s *APISource) Scrape(ctx context.Context, spec domain.RequestSpec) (*ScrapeResult, error) {
	result := newResult(s.source)

	items, stats := s.fetcher.FetchAll(ctx, PageRequest{
		URL:       s.cfg.BaseURL,
		Params:    s.BuildParams(ctx, spec),
		Header:    s.header,
		ItemsKey:  s.itemsKey,
		SubKey:    s.subKey,
		PageParam: s.pageParam,
		MaxPages:  s.cfg.MaxPages,
	})
	result.Requests += stats.Pages
	result.Failures += stats.Failures

	if stats.Pages > 0 && stats.Failures == stats.Pages {
		return result.finish(), fmt.Errorf("%s: all %d pages failed: %w", s.source, stats.Pages, domain.ErrTransport)
	}

	result.Vacancies = make([]domain.Vacancy, 0, len(items))
	for _, item := range items {
		rec := Record{Item: item}

		if s.detailURL != nil && ctx.Err() == nil {
			if target := s.detailURL(rec); target != "" {
				result.Requests++
				detail, err := s.fetcher.GetJSON(ctx, target, nil, s.header)
				if err != nil {
					result.Failures++
					s.logger.Warn("Detail fetch failed", zap.String("url", target), zap.Error(err))
				} else {
					rec.Detail = detail
				}
			}
		}

		result.Vacancies = append(result.Vacancies, s.ToCanonical(rec))
	}

	s.logger.Info("Source scraped",
		zap.Int("vacancies", len(result.Vacancies)),
		zap.Int("requests", result.Requests),
		zap.Int("failures", result.Failures),
	)
	return result.finish(), nil
}

func setIf(params url.Values, key, value string) {
	if strings.TrimSpace(value) != "" {
		params.Set(key, value)
	}
}
