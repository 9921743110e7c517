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

// geekjob lists this many vacancies per page
const geekjobPerPage = 20

var geekjobFields = map[string]Field{
	"title":       {Selector: "h1"},
	"company":     {Selector: ".company-name"},
	"salary":      {Selector: ".jobinfo .salary"},
	"city":        {Selector: ".location"},
	"format":      {Selector: ".jobformat"},
	"experience":  {Selector: ".jobinfo .expirience"},
	"description": {Selector: "#vacancy-description", HTML: true},
	"published":   {Selector: ".time"},
}

var geekjobMapping = Mapping{
	URL:         Path("url"),
	Title:       Path("title"),
	City:        Path("city"),
	Company:     Path("company"),
	SalaryRange: Path("salary"),
	Employment:  Translate(Path("format"), employmentFromText),
	Experience:  Translate(Path("experience"), normalize.ExperienceFromText),
	Schedule:    Path("format"),
	Description: HTMLText(Path("description")),
	PublishedAt: TimePath("published"),
}

// NewGeekJob creates the geekjob.ru adapter
func NewGeekJob(cfg config.SourceConfig, loader PageLoader, concurrency int, logger *zap.Logger) *HTMLSource {
	base := strings.TrimRight(cfg.BaseURL, "/")

	return newHTMLSource(htmlSpec{
		source: domain.SourceGeekJob,
		name:   "GeekJob",
		listURL: func(spec domain.RequestSpec, page int) string {
			params := url.Values{}
			setIf(params, "qs", spec.Title())
			if spec.Remote() {
				params.Set("rm", "1")
			}
			target := base + "/vacancies/" + strconv.Itoa(page)
			if len(params) > 0 {
				target += "?" + params.Encode()
			}
			return target
		},
		pageCount:    geekjobPageCount,
		linkSelector: "#serplist .title a",
		fields:       geekjobFields,
		mapping:      geekjobMapping,
	}, cfg, loader, concurrency, logger)
}

// geekjobPageCount reads "Найдено 57 вакансий" from the listing header
func geekjobPageCount(doc *goquery.Document) int {
	m := firstNumber(doc.Find(".category-total").First().Text())
	if m <= 0 {
		return 1
	}
	return (m + geekjobPerPage - 1) / geekjobPerPage
}

func firstNumber(text string) int {
	digits := strings.Builder{}
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case digits.Len() > 0 && r != ' ' && r != '\u00a0':
			n, _ := strconv.Atoi(digits.String())
			return n
		}
	}
	n, _ := strconv.Atoi(digits.String())
	return n
}
