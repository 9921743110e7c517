package scraper

import (
	"context"
	"time"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

// Scraper interface for job board adapters
type Scraper interface {
	// Name returns the human readable board name
	Name() string

	// Source returns the job board tag
	Source() domain.Source

	// Scrape collects every vacancy matching the search. Per-page failures are
	// swallowed and counted; an error means the source produced nothing usable.
	Scrape(ctx context.Context, spec domain.RequestSpec) (*ScrapeResult, error)
}

// ScrapeResult contains scraping results of one source
type ScrapeResult struct {
	Source    domain.Source
	Vacancies []domain.Vacancy
	Requests  int
	Failures  int
	StartTime time.Time
	EndTime   time.Time
}

func newResult(src domain.Source) *ScrapeResult {
	return &ScrapeResult{Source: src, StartTime: time.Now()}
}

func (r *ScrapeResult) finish() *ScrapeResult {
	r.EndTime = time.Now()
	return r
}

// Duration returns the scraping duration
func (r *ScrapeResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// Registry keeps scrapers in registration order, which is also the merge order
type Registry struct {
	order    []domain.Source
	scrapers map[domain.Source]Scraper
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		scrapers: make(map[domain.Source]Scraper),
	}
}

// Register adds a scraper, replacing a previous one for the same source in place
func (r *Registry) Register(s Scraper) {
	if _, ok := r.scrapers[s.Source()]; !ok {
		r.order = append(r.order, s.Source())
	}
	r.scrapers[s.Source()] = s
}

// Get retrieves a scraper by source
func (r *Registry) Get(source domain.Source) (Scraper, bool) {
	s, ok := r.scrapers[source]
	return s, ok
}

// All returns all registered scrapers
func (r *Registry) All() []Scraper {
	scrapers := make([]Scraper, 0, len(r.order))
	for _, src := range r.order {
		scrapers = append(scrapers, r.scrapers[src])
	}
	return scrapers
}

// Select returns the scrapers taking part in the given search
func (r *Registry) Select(spec domain.RequestSpec) []Scraper {
	var selected []Scraper
	for _, s := range r.All() {
		if spec.Wants(s.Source()) {
			selected = append(selected, s)
		}
	}
	return selected
}
