package scraper

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/normalize"
)

// hhMapping is shared by every board running on the hh API
var hhMapping = Mapping{
	URL:            Path("alternate_url"),
	Title:          Path("name"),
	City:           FirstOf(Path("address.city"), Path("area.name")),
	Company:        Path("employer.name"),
	SalaryFrom:     IntPath("salary.from"),
	SalaryTo:       IntPath("salary.to"),
	SalaryCurrency: Path("salary.currency"),
	Employment:     Path("employment.name"),
	Experience:     Translate(Path("experience.id"), normalize.ExperienceByID),
	Schedule:       Path("schedule.name"),
	Description:    HTMLText(Path("description")),
	Responsibility: HTMLText(Path("snippet.responsibility")),
	Requirement:    HTMLText(Path("snippet.requirement")),
	PublishedAt:    TimePath("published_at"),
}

// NewHH creates the hh.ru adapter
func NewHH(cfg config.SourceConfig, fetcher *PageFetcher, logger *zap.Logger) *APISource {
	return newHHFamily(domain.SourceHH, "HeadHunter", cfg, fetcher, logger)
}

// NewZarplata creates the zarplata.ru adapter. It shares the hh API and mapping.
func NewZarplata(cfg config.SourceConfig, fetcher *PageFetcher, logger *zap.Logger) *APISource {
	return newHHFamily(domain.SourceZarplata, "Zarplata", cfg, fetcher, logger)
}

func newHHFamily(src domain.Source, name string, cfg config.SourceConfig, fetcher *PageFetcher, logger *zap.Logger) *APISource {
	areas := &areaResolver{url: cfg.AreasURL, fetcher: fetcher, logger: logger}
	base := strings.TrimRight(cfg.BaseURL, "/")

	return newAPISource(apiSpec{
		source:    src,
		name:      name,
		itemsKey:  "items",
		pageParam: "page",
		mapping:   hhMapping,
		params: func(ctx context.Context, spec domain.RequestSpec) url.Values {
			params := url.Values{}
			setIf(params, "text", spec.Title())
			params.Set("per_page", strconv.Itoa(cfg.PerPage))
			params.Set("date_from", spec.DateFrom().Format(domain.DateLayout))
			params.Set("date_to", spec.DateTo().Format(domain.DateLayout))
			params.Set("order_by", "publication_time")
			setIf(params, "experience", normalize.ExperienceID(spec.Experience()))
			if spec.Remote() {
				params.Set("schedule", "remote")
			}
			if spec.City() != "" {
				setIf(params, "area", areas.Lookup(ctx, spec.City()))
			}
			return params
		},
		detailURL: func(r Record) string {
			id := r.Item.Get("id").String()
			if id == "" {
				return ""
			}
			return base + "/" + url.PathEscape(id)
		},
	}, cfg, fetcher, logger)
}

// areaResolver turns a city name into an hh area id. The area tree is loaded once.
type areaResolver struct {
	url     string
	fetcher *PageFetcher
	logger  *zap.Logger

	mu   sync.Mutex
	tree gjson.Result
}

// Lookup returns the id of the area whose folded name equals city, or ""
func (a *areaResolver) Lookup(ctx context.Context, city string) string {
	if a.url == "" {
		return ""
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.tree.Exists() {
		tree, err := a.fetcher.GetJSON(ctx, a.url, nil, nil)
		if err != nil {
			a.logger.Warn("Area tree unavailable", zap.String("url", a.url), zap.Error(err))
			return ""
		}
		a.tree = tree
	}

	id := findArea(a.tree, cases.Fold().String(city))
	if id == "" {
		a.logger.Debug("Unknown city, searching everywhere", zap.String("city", city))
	}
	return id
}

func findArea(list gjson.Result, city string) string {
	var id string
	list.ForEach(func(_, area gjson.Result) bool {
		if cases.Fold().String(area.Get("name").String()) == city {
			id = area.Get("id").String()
			return false
		}
		if nested := findArea(area.Get("areas"), city); nested != "" {
			id = nested
			return false
		}
		return true
	})
	return id
}
