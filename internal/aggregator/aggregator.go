// Package aggregator runs the source scrapers concurrently and merges their output.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/scraper"
)

// Selector picks the scrapers taking part in a search, in merge order
type Selector interface {
	Select(spec domain.RequestSpec) []scraper.Scraper
}

// Options tunes the merge step
type Options struct {
	// DedupByURL drops later records whose url was already merged
	DedupByURL bool
	// OnScraperDone runs from the scraper goroutine once it has finished
	OnScraperDone func(report Report)
}

// Report describes how one scraper did in one aggregation
type Report struct {
	Source   domain.Source
	Found    int
	Requests int
	Failures int
	Duration time.Duration
	Err      error
}

// Aggregator fans a search out to every selected scraper and waits for all of them
type Aggregator struct {
	sources Selector
	opts    Options
	logger  *zap.Logger
}

// New creates an aggregator
func New(sources Selector, opts Options, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		sources: sources,
		opts:    opts,
		logger:  logger,
	}
}

// Collect runs the scrapers and concatenates their vacancies in selection order.
// A failing scraper contributes nothing; Collect itself never fails.
func (a *Aggregator) Collect(ctx context.Context, spec domain.RequestSpec) ([]domain.Vacancy, []Report) {
	selected := a.sources.Select(spec)

	lists := make([][]domain.Vacancy, len(selected))
	reports := make([]Report, len(selected))

	var wg sync.WaitGroup
	for i, s := range selected {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lists[i], reports[i] = a.run(ctx, s, spec)
			if a.opts.OnScraperDone != nil {
				a.opts.OnScraperDone(reports[i])
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]domain.Vacancy, 0, total)
	for _, l := range lists {
		merged = append(merged, l...)
	}
	if a.opts.DedupByURL {
		merged = DedupByURL(merged)
	}

	a.logger.Info("Aggregation finished",
		zap.Int("sources", len(selected)),
		zap.Int("vacancies", len(merged)),
	)
	return merged, reports
}

// Search collects and post-processes: date sort then the optional filters
func (a *Aggregator) Search(ctx context.Context, spec domain.RequestSpec) []domain.Vacancy {
	merged, _ := a.Collect(ctx, spec)
	return Process(merged, spec)
}

func (a *Aggregator) run(ctx context.Context, s scraper.Scraper, spec domain.RequestSpec) (list []domain.Vacancy, report Report) {
	report.Source = s.Source()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			list = nil
			report.Err = fmt.Errorf("scraper %s panicked: %v", s.Source(), r)
			a.logger.Error("Scraper panicked", zap.String("source", string(s.Source())), zap.Any("panic", r))
		}
		report.Duration = time.Since(start)
	}()

	result, err := s.Scrape(ctx, spec)
	if result != nil {
		report.Requests = result.Requests
		report.Failures = result.Failures
	}
	if err != nil {
		report.Err = err
		a.logger.Warn("Scraper failed",
			zap.String("source", string(s.Source())),
			zap.Error(err),
		)
		return nil, report
	}
	if result == nil {
		return nil, report
	}

	report.Found = len(result.Vacancies)
	return result.Vacancies, report
}
