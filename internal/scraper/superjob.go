package scraper

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/normalize"
)

// superjob place_of_work id for remote work
const superjobRemote = "2"

var superjobMapping = Mapping{
	URL:            Path("link"),
	Title:          Path("profession"),
	City:           Path("town.title"),
	Company:        FirstOf(Path("firm_name"), Path("client.title")),
	SalaryFrom:     NonZeroIntPath("payment_from"),
	SalaryTo:       NonZeroIntPath("payment_to"),
	SalaryCurrency: Translate(Path("currency"), superjobCurrency),
	Employment:     Path("type_of_work.title"),
	Experience:     CodePath("experience.id", normalize.ExperienceByCode),
	Schedule:       Path("place_of_work.title"),
	Description:    FirstOf(HTMLText(Path("vacancyRichText")), Path("candidat")),
	Responsibility: Path("work"),
	Requirement:    Path("candidat"),
	PublishedAt:    UnixPath("date_published"),
}

// NewSuperJob creates the superjob.ru adapter
func NewSuperJob(cfg config.SourceConfig, fetcher *PageFetcher, logger *zap.Logger) *APISource {
	header := http.Header{}
	if cfg.APIKey != "" {
		header.Set("X-Api-App-Id", cfg.APIKey)
	}

	return newAPISource(apiSpec{
		source:    domain.SourceSuperJob,
		name:      "SuperJob",
		itemsKey:  "objects",
		pageParam: "page",
		header:    header,
		mapping:   superjobMapping,
		params: func(_ context.Context, spec domain.RequestSpec) url.Values {
			params := url.Values{}
			setIf(params, "keyword", spec.Title())
			setIf(params, "town", spec.City())
			params.Set("count", strconv.Itoa(cfg.PerPage))
			params.Set("date_published_from", strconv.FormatInt(spec.DateFrom().Unix(), 10))
			params.Set("date_published_to", strconv.FormatInt(spec.DateTo().AddDate(0, 0, 1).Unix(), 10))
			if spec.Experience() > 0 {
				params.Set("experience", strconv.Itoa(spec.Experience()))
			}
			if spec.Remote() {
				params.Set("place_of_work", superjobRemote)
			}
			return params
		},
	}, cfg, fetcher, logger)
}

func superjobCurrency(c string) string {
	if c == "rub" {
		return "RUR"
	}
	return c
}
