package scraper

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/normalize"
)

var habrFields = map[string]Field{
	"title":       {Selector: "h1.page-title__title"},
	"company":     {Selector: ".company_name a"},
	"salary":      {Selector: ".basic-salary"},
	"city":        {Selector: `.basic-section--appearance-vacancy a[href*="city_id"]`},
	"conditions":  {Selector: ".basic-section--appearance-vacancy .inline-list"},
	"grade":       {Selector: `a[href*="qid="]`},
	"description": {Selector: ".vacancy-description__text", HTML: true},
	"published":   {Selector: ".vacancy-header__date time", Attr: "datetime"},
}

var habrMapping = Mapping{
	URL:         Path("url"),
	Title:       Path("title"),
	City:        Path("city"),
	Company:     Path("company"),
	SalaryRange: Path("salary"),
	Employment:  Translate(Path("conditions"), employmentFromText),
	Experience:  Translate(Path("grade"), habrGrade),
	Schedule:    Path("conditions"),
	Description: HTMLText(Path("description")),
	PublishedAt: TimePath("published"),
}

// NewHabr creates the career.habr.com adapter
func NewHabr(cfg config.SourceConfig, loader PageLoader, concurrency int, logger *zap.Logger) *HTMLSource {
	base := strings.TrimRight(cfg.BaseURL, "/")

	return newHTMLSource(htmlSpec{
		source: domain.SourceHabr,
		name:   "Habr Career",
		listURL: func(spec domain.RequestSpec, page int) string {
			params := url.Values{}
			setIf(params, "q", spec.Title())
			params.Set("sort", "date")
			params.Set("type", "all")
			params.Set("page", strconv.Itoa(page))
			if spec.Remote() {
				params.Set("remote", "true")
			}
			return base + "/vacancies?" + params.Encode()
		},
		pageCount:    habrPageCount,
		linkSelector: "a.vacancy-card__title-link",
		fields:       habrFields,
		mapping:      habrMapping,
	}, cfg, loader, concurrency, logger)
}

// habrPageCount takes the largest number in the paginator
func habrPageCount(doc *goquery.Document) int {
	count := 1
	doc.Find(".pagination a, .pagination em").Each(func(_ int, sel *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(sel.Text())); err == nil && n > count {
			count = n
		}
	})
	return count
}

// habrGrades is checked in order, most senior first
var habrGrades = []struct {
	marker string
	bucket string
}{
	{"lead", normalize.ExperienceSixPlus},
	{"ведущий", normalize.ExperienceSixPlus},
	{"senior", normalize.ExperienceSixPlus},
	{"старший", normalize.ExperienceSixPlus},
	{"middle", normalize.ExperienceThreeToSix},
	{"средний", normalize.ExperienceThreeToSix},
	{"junior", normalize.ExperienceOneToThree},
	{"младший", normalize.ExperienceOneToThree},
	{"intern", normalize.ExperienceNone},
	{"стажёр", normalize.ExperienceNone},
	{"стажер", normalize.ExperienceNone},
}

func habrGrade(text string) string {
	lower := strings.ToLower(text)
	for _, g := range habrGrades {
		if strings.Contains(lower, g.marker) {
			return g.bucket
		}
	}
	return normalize.ExperienceFromText(text)
}

var employmentKinds = []string{
	"Полный рабочий день",
	"Неполный рабочий день",
	"Полная занятость",
	"Частичная занятость",
	"Проектная работа",
	"Стажировка",
}

func employmentFromText(text string) string {
	lower := strings.ToLower(text)
	for _, kind := range employmentKinds {
		if strings.Contains(lower, strings.ToLower(kind)) {
			return kind
		}
	}
	return ""
}
