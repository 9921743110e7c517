package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/normalize"
)

var testNow = time.Date(2023, 2, 2, 12, 0, 0, 0, time.UTC)

func testSpec(raw domain.RawSearch) domain.RequestSpec {
	return domain.NewRequestSpec(raw, testNow, domain.DefaultLookbackDays)
}

func TestHHPaginatesAndEnrichesSequentially(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
		query = map[string]string{}
	)
	record := func(r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		p := r.URL.Path
		if page := r.URL.Query().Get("page"); page != "" {
			p += "?page=" + page
		}
		paths = append(paths, p)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/areas", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		fmt.Fprint(w, `[{"id": "113", "name": "Россия", "areas": [
			{"id": "1", "name": "Москва", "areas": []},
			{"id": "2", "name": "Санкт-Петербург", "areas": []}
		]}]`)
	})
	mux.HandleFunc("/vacancies", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		if r.URL.Query().Get("page") != "0" {
			fmt.Fprint(w, `{"items": [], "pages": 1}`)
			return
		}
		mu.Lock()
		for key := range r.URL.Query() {
			query[key] = r.URL.Query().Get(key)
		}
		mu.Unlock()
		fmt.Fprint(w, `{"items": [
			{
				"id": "10",
				"name": "Go developer",
				"alternate_url": "https://hh.ru/vacancy/10",
				"area": {"name": "Москва"},
				"employer": {"name": "Acme"},
				"salary": {"from": 100000, "to": null, "currency": "RUR"},
				"experience": {"id": "between1And3"},
				"schedule": {"name": "Полный день"},
				"snippet": {"responsibility": "Писать на Go", "requirement": null},
				"published_at": "2023-01-10T12:00:00+0300"
			},
			{"id": "11", "name": "Sparse"}
		]}`)
	})
	mux.HandleFunc("/vacancies/10", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		fmt.Fprint(w, `{"id": "10", "description": "<p>Full <b>description</b></p>", "schedule": {"name": "Удаленная работа"}}`)
	})
	mux.HandleFunc("/vacancies/11", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	hh := NewHH(config.SourceConfig{
		BaseURL:  srv.URL + "/vacancies",
		AreasURL: srv.URL + "/areas",
		PerPage:  100,
		MaxPages: 20,
	}, newTestFetcher(), zap.NewNop())
	hh.now = func() time.Time { return testNow }

	result, err := hh.Scrape(context.Background(), testSpec(domain.RawSearch{
		Title:      "Go",
		City:       "москва",
		Experience: 2,
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/areas",
		"/vacancies?page=0",
		"/vacancies?page=1",
		"/vacancies/10",
		"/vacancies/11",
	}, paths)
	assert.Equal(t, "Go", query["text"])
	assert.Equal(t, "1", query["area"])
	assert.Equal(t, "between1And3", query["experience"])
	assert.Equal(t, "100", query["per_page"])
	assert.Equal(t, "2023-01-30", query["date_from"])

	assert.Equal(t, 4, result.Requests)
	assert.Equal(t, 1, result.Failures)
	require.Len(t, result.Vacancies, 2)

	full := result.Vacancies[0]
	assert.Equal(t, domain.SourceHH, full.JobBoard)
	assert.Equal(t, "https://hh.ru/vacancy/10", full.Link())
	assert.Equal(t, "Go developer", full.TitleText())
	require.NotNil(t, full.Company)
	assert.Equal(t, "Acme", *full.Company)
	require.NotNil(t, full.SalaryFrom)
	assert.Equal(t, 100000, *full.SalaryFrom)
	assert.Nil(t, full.SalaryTo)
	assert.Equal(t, "от 100 000 RUR", full.SalaryText)
	assert.Equal(t, normalize.ExperienceOneToThree, full.Experience)
	assert.Equal(t, "Удаленная работа", full.Schedule)
	assert.True(t, full.Remote)
	assert.Contains(t, full.Description, "**description**")
	assert.Equal(t, normalize.NoDescription, full.Requirement)
	require.NotNil(t, full.PublishedAt)
	assert.Equal(t, time.Date(2023, 1, 10, 9, 0, 0, 0, time.UTC), *full.PublishedAt)

	sparse := result.Vacancies[1]
	assert.Equal(t, "Sparse", sparse.TitleText())
	assert.Nil(t, sparse.URL)
	assert.Equal(t, normalize.NoDescription, sparse.Description)
	assert.Equal(t, normalize.NotSpecified, sparse.Schedule)
	assert.False(t, sparse.Remote)
}

func TestSuperJobHeaderAndZeroSalary(t *testing.T) {
	var appID string
	ps := &pageServer{param: "page", pages: map[string]string{
		"0": `{"objects": [{
			"link": "https://superjob.ru/vakansii/1.html",
			"profession": "Python разработчик",
			"firm_name": "Рога и копыта",
			"town": {"title": "Москва"},
			"payment_from": 0,
			"payment_to": 150000,
			"currency": "rub",
			"experience": {"id": 2},
			"type_of_work": {"title": "Полный рабочий день"},
			"place_of_work": {"title": "Удалённая работа (на дому)"},
			"vacancyRichText": "<p>Описание</p>",
			"date_published": 1673341200
		}]}`,
		"1": `{"objects": []}`,
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		appID = r.Header.Get("X-Api-App-Id")
		ps.ServeHTTP(w, r)
	}))
	defer srv.Close()

	sj := NewSuperJob(config.SourceConfig{
		BaseURL:  srv.URL,
		APIKey:   "secret",
		PerPage:  100,
		MaxPages: 5,
	}, newTestFetcher(), zap.NewNop())

	result, err := sj.Scrape(context.Background(), testSpec(domain.RawSearch{Title: "Python", Remote: true}))
	require.NoError(t, err)

	assert.Equal(t, "secret", appID)
	assert.Equal(t, []string{"0", "1"}, ps.requests())
	assert.Equal(t, "Python", ps.queries[0].Get("keyword"))
	assert.Equal(t, "100", ps.queries[0].Get("count"))
	assert.Equal(t, superjobRemote, ps.queries[0].Get("place_of_work"))

	require.Len(t, result.Vacancies, 1)
	v := result.Vacancies[0]
	assert.Nil(t, v.SalaryFrom)
	require.NotNil(t, v.SalaryTo)
	assert.Equal(t, 150000, *v.SalaryTo)
	assert.Equal(t, "RUR", v.SalaryCurrency)
	assert.Equal(t, normalize.ExperienceOneToThree, v.Experience)
	assert.Equal(t, "Полный рабочий день", v.Employment)
	assert.True(t, v.Remote)
	assert.Equal(t, "Описание", v.Description)
	require.NotNil(t, v.PublishedAt)
	assert.Equal(t, time.Unix(1673341200, 0).UTC(), *v.PublishedAt)
}

func TestTrudvsemOffsetIsLoopIndex(t *testing.T) {
	ps := &pageServer{param: "offset", pages: map[string]string{
		"0": `{"status": "200", "results": {"vacancies": [{"vacancy": {
			"vac_url": "https://trudvsem.ru/vacancy/1",
			"job-name": "Программист",
			"region": {"name": "Омская область"},
			"company": {"name": "ООО Ромашка"},
			"salary_min": 0,
			"salary_max": 60000,
			"currency": "«руб.»",
			"employment": "Полная занятость",
			"schedule": "Удаленная работа",
			"requirement": {"experience": 5, "education": "Высшее"},
			"duty": "Разработка",
			"creation-date": "2023-01-15"
		}}]}}`,
		"1": `{"results": {"vacancies": [{"vacancy": {}}]}}`,
		"2": `{"results": {"vacancies": [{"vacancy": {"job-name": "Тестировщик"}}]}}`,
	}}
	srv := httptest.NewServer(ps)
	defer srv.Close()

	tv := NewTrudvsem(config.SourceConfig{
		BaseURL:  srv.URL,
		PerPage:  100,
		MaxPages: 20,
	}, newTestFetcher(), zap.NewNop())

	result, err := tv.Scrape(context.Background(), testSpec(domain.RawSearch{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"0", "1", "2", "3"}, ps.requests())
	for _, q := range ps.queries {
		assert.Equal(t, "100", q.Get("limit"))
	}

	require.Len(t, result.Vacancies, 3)
	v := result.Vacancies[0]
	assert.Equal(t, domain.SourceTrudvsem, v.JobBoard)
	assert.Nil(t, v.SalaryFrom)
	require.NotNil(t, v.SalaryTo)
	assert.Equal(t, 60000, *v.SalaryTo)
	assert.Equal(t, "RUR", v.SalaryCurrency)
	assert.Equal(t, normalize.ExperienceThreeToSix, v.Experience)
	assert.True(t, v.Remote)
	require.NotNil(t, v.City)
	assert.Equal(t, "Омская область", *v.City)

	empty := result.Vacancies[1]
	assert.Nil(t, empty.Title)
	assert.Equal(t, normalize.NotSpecified, empty.Experience)
	assert.Equal(t, "Тестировщик", result.Vacancies[2].TitleText())
}

func TestAPISourceFailsWhenEveryPageFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sj := NewSuperJob(config.SourceConfig{BaseURL: srv.URL, PerPage: 100, MaxPages: 3}, newTestFetcher(), zap.NewNop())
	result, err := sj.Scrape(context.Background(), testSpec(domain.RawSearch{}))

	require.ErrorIs(t, err, domain.ErrTransport)
	assert.Empty(t, result.Vacancies)
	assert.Equal(t, 3, result.Failures)
}

func TestSparseRecordsUseDefaults(t *testing.T) {
	mappings := map[string]struct {
		mapping Mapping
		raw     string
	}{
		"hh":       {hhMapping, `{"salary": null, "area": null, "experience": null, "snippet": {}}`},
		"superjob": {superjobMapping, `{"town": null, "payment_from": null}`},
		"trudvsem": {trudvsemMapping, `{"vacancy": {"requirement": {}}}`},
		"habr":     {habrMapping, `{}`},
		"geekjob":  {geekjobMapping, `{"salary": "", "published": "давно"}`},
	}

	for name, tc := range mappings {
		t.Run(name, func(t *testing.T) {
			v := tc.mapping.Canonical(domain.Source(name), Record{Item: gjson.Parse(tc.raw)}, testNow)

			assert.Equal(t, domain.Source(name), v.JobBoard)
			assert.Nil(t, v.URL)
			assert.Nil(t, v.Title)
			assert.Nil(t, v.City)
			assert.Nil(t, v.Company)
			assert.Nil(t, v.SalaryFrom)
			assert.Nil(t, v.SalaryTo)
			assert.Nil(t, v.PublishedAt)
			assert.Equal(t, normalize.NotSpecified, v.SalaryText)
			assert.Equal(t, normalize.NotSpecified, v.Employment)
			assert.Equal(t, normalize.NotSpecified, v.Experience)
			assert.Equal(t, normalize.NotSpecified, v.Schedule)
			assert.Equal(t, normalize.NoDescription, v.Description)
			assert.Equal(t, normalize.NoDescription, v.Responsibility)
			assert.Equal(t, normalize.NoDescription, v.Requirement)
			assert.False(t, v.Remote)
		})
	}
}

func TestRecordPrefersDetail(t *testing.T) {
	rec := Record{
		Item:   gjson.Parse(`{"name": "listing", "schedule": {"name": "Полный день"}}`),
		Detail: gjson.Parse(`{"schedule": {"name": "Удаленная работа"}}`),
	}
	assert.Equal(t, "listing", rec.Get("name").String())
	assert.Equal(t, "Удаленная работа", rec.Get("schedule.name").String())
}

type stubScraper struct{ src domain.Source }

func (s stubScraper) Name() string          { return string(s.src) }
func (s stubScraper) Source() domain.Source { return s.src }
func (s stubScraper) Scrape(context.Context, domain.RequestSpec) (*ScrapeResult, error) {
	return &ScrapeResult{Source: s.src}, nil
}

func TestRegistryKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(stubScraper{domain.SourceTrudvsem})
	r.Register(stubScraper{domain.SourceHH})
	r.Register(stubScraper{domain.SourceHabr})
	r.Register(stubScraper{domain.SourceHH})

	var order []domain.Source
	for _, s := range r.All() {
		order = append(order, s.Source())
	}
	assert.Equal(t, []domain.Source{domain.SourceTrudvsem, domain.SourceHH, domain.SourceHabr}, order)

	selected := r.Select(testSpec(domain.RawSearch{Source: "habr"}))
	require.Len(t, selected, 1)
	assert.Equal(t, domain.SourceHabr, selected[0].Source())
	assert.Len(t, r.Select(testSpec(domain.RawSearch{})), 3)
}
