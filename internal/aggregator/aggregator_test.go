package aggregator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/scraper"
)

type fakeScraper struct {
	src       domain.Source
	vacancies []domain.Vacancy
	err       error
	panics    bool
	delay     time.Duration
}

func (f *fakeScraper) Name() string          { return string(f.src) }
func (f *fakeScraper) Source() domain.Source { return f.src }

func (f *fakeScraper) Scrape(ctx context.Context, _ domain.RequestSpec) (*scraper.ScrapeResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return &scraper.ScrapeResult{Source: f.src, Requests: 20, Failures: 20}, f.err
	}
	return &scraper.ScrapeResult{Source: f.src, Vacancies: f.vacancies, Requests: 1}, nil
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func vacancy(src domain.Source, title, url string, published *time.Time) domain.Vacancy {
	return domain.Vacancy{
		JobBoard:    src,
		Title:       strPtr(title),
		URL:         strPtr(url),
		PublishedAt: published,
	}
}

func registryOf(scrapers ...scraper.Scraper) *scraper.Registry {
	r := scraper.NewRegistry()
	for _, s := range scrapers {
		r.Register(s)
	}
	return r
}

var now = time.Date(2023, 2, 2, 12, 0, 0, 0, time.UTC)

func specOf(raw domain.RawSearch) domain.RequestSpec {
	return domain.NewRequestSpec(raw, now, domain.DefaultLookbackDays)
}

func TestCollectIsolatesFailures(t *testing.T) {
	registry := registryOf(
		&fakeScraper{src: domain.SourceHH, vacancies: []domain.Vacancy{
			vacancy(domain.SourceHH, "Go", "https://hh/1", nil),
			vacancy(domain.SourceHH, "Go 2", "https://hh/2", nil),
		}, delay: 20 * time.Millisecond},
		&fakeScraper{src: domain.SourceSuperJob, err: errors.New("every page failed")},
		&fakeScraper{src: domain.SourceTrudvsem, panics: true},
		&fakeScraper{src: domain.SourceHabr, vacancies: []domain.Vacancy{
			vacancy(domain.SourceHabr, "Go", "https://habr/1", nil),
		}},
	)

	var (
		mu   sync.Mutex
		done []domain.Source
	)
	agg := New(registry, Options{OnScraperDone: func(r Report) {
		mu.Lock()
		done = append(done, r.Source)
		mu.Unlock()
	}}, zap.NewNop())

	merged, reports := agg.Collect(context.Background(), specOf(domain.RawSearch{}))

	require.Len(t, merged, 3)
	assert.Equal(t, "https://hh/1", merged[0].Link())
	assert.Equal(t, "https://hh/2", merged[1].Link())
	assert.Equal(t, "https://habr/1", merged[2].Link())

	require.Len(t, reports, 4)
	assert.Equal(t, 2, reports[0].Found)
	assert.Error(t, reports[1].Err)
	assert.Equal(t, 20, reports[1].Failures)
	assert.ErrorContains(t, reports[2].Err, "panicked")
	assert.NoError(t, reports[3].Err)
	assert.ElementsMatch(t, []domain.Source{
		domain.SourceHH, domain.SourceSuperJob, domain.SourceTrudvsem, domain.SourceHabr,
	}, done)
}

func TestCollectRunsOnlyRequestedSource(t *testing.T) {
	registry := registryOf(
		&fakeScraper{src: domain.SourceHH, vacancies: []domain.Vacancy{vacancy(domain.SourceHH, "a", "1", nil)}},
		&fakeScraper{src: domain.SourceGeekJob, vacancies: []domain.Vacancy{vacancy(domain.SourceGeekJob, "b", "2", nil)}},
	)
	agg := New(registry, Options{}, zap.NewNop())

	merged, reports := agg.Collect(context.Background(), specOf(domain.RawSearch{Source: "geekjob"}))

	require.Len(t, merged, 1)
	assert.Equal(t, domain.SourceGeekJob, merged[0].JobBoard)
	assert.Len(t, reports, 1)
}

func TestCollectDedupByURLIsOptional(t *testing.T) {
	registry := registryOf(
		&fakeScraper{src: domain.SourceHH, vacancies: []domain.Vacancy{vacancy(domain.SourceHH, "a", "https://same", nil)}},
		&fakeScraper{src: domain.SourceZarplata, vacancies: []domain.Vacancy{vacancy(domain.SourceZarplata, "a", "https://same", nil)}},
	)

	merged, _ := New(registry, Options{}, zap.NewNop()).Collect(context.Background(), specOf(domain.RawSearch{}))
	assert.Len(t, merged, 2)

	merged, _ = New(registry, Options{DedupByURL: true}, zap.NewNop()).Collect(context.Background(), specOf(domain.RawSearch{}))
	require.Len(t, merged, 1)
	assert.Equal(t, domain.SourceHH, merged[0].JobBoard)
}

func TestSearchEndToEndWithStubSources(t *testing.T) {
	var scrapers []scraper.Scraper
	for i, src := range domain.AllSources() {
		published := time.Date(2023, 1, 1+i*5, 0, 0, 0, 0, time.UTC)
		scrapers = append(scrapers, &fakeScraper{src: src, vacancies: []domain.Vacancy{
			vacancy(src, "Senior Python developer", "https://"+string(src)+"/1", &published),
		}})
	}
	agg := New(registryOf(scrapers...), Options{}, zap.NewNop())

	spec := specOf(domain.RawSearch{
		Title:    "Python",
		DateFrom: "2023-01-01",
		DateTo:   "2023-02-02",
	})
	result := agg.Search(context.Background(), spec)

	require.Len(t, result, len(domain.AllSources()))
	boards := map[domain.Source]bool{}
	for i, v := range result {
		boards[v.JobBoard] = true
		if i > 0 {
			assert.False(t, v.PublishedAt.After(*result[i-1].PublishedAt))
		}
	}
	assert.Len(t, boards, len(domain.AllSources()))
	assert.Equal(t, domain.SourceGeekJob, result[0].JobBoard)
}
