package scraper

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/normalize"
)

// Items of the trudvsem listing are wrapped as {"vacancy": {...}}
var trudvsemMapping = Mapping{
	URL:            Path("vacancy.vac_url"),
	Title:          Path("vacancy.job-name"),
	City:           FirstOf(Path("vacancy.addresses.address.0.location"), Path("vacancy.region.name")),
	Company:        Path("vacancy.company.name"),
	SalaryFrom:     NonZeroIntPath("vacancy.salary_min"),
	SalaryTo:       NonZeroIntPath("vacancy.salary_max"),
	SalaryCurrency: Translate(Path("vacancy.currency"), trudvsemCurrency),
	Employment:     Path("vacancy.employment"),
	Experience:     CodePath("vacancy.requirement.experience", normalize.ExperienceByYears),
	Schedule:       Path("vacancy.schedule"),
	Description:    HTMLText(FirstOf(Path("vacancy.duty"), Path("vacancy.requirement.qualification"))),
	Responsibility: HTMLText(Path("vacancy.duty")),
	Requirement:    Join("; ", Path("vacancy.requirement.education"), Path("vacancy.requirement.qualification")),
	PublishedAt:    TimePath("vacancy.creation-date"),
}

// NewTrudvsem creates the trudvsem.ru open data adapter. Its offset parameter
// takes the loop index 0,1,2 rather than a record offset.
func NewTrudvsem(cfg config.SourceConfig, fetcher *PageFetcher, logger *zap.Logger) *APISource {
	return newAPISource(apiSpec{
		source:    domain.SourceTrudvsem,
		name:      "Trudvsem",
		itemsKey:  "results",
		subKey:    "vacancies",
		pageParam: "offset",
		mapping:   trudvsemMapping,
		params: func(_ context.Context, spec domain.RequestSpec) url.Values {
			params := url.Values{}
			setIf(params, "text", spec.Title())
			params.Set("limit", strconv.Itoa(cfg.PerPage))
			params.Set("modifiedFrom", spec.DateFrom().UTC().Format(time.RFC3339))
			params.Set("modifiedTo", spec.DateTo().AddDate(0, 0, 1).UTC().Format(time.RFC3339))
			return params
		},
	}, cfg, fetcher, logger)
}

func trudvsemCurrency(c string) string {
	switch c {
	case "«руб.»", "руб.", "RUB":
		return "RUR"
	}
	return c
}
