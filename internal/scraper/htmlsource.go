package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
)

// PageLoader returns the rendered HTML of one page
type PageLoader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Field locates one value on a detail page
type Field struct {
	Selector string
	Attr     string // read the attribute instead of the text
	HTML     bool   // keep the inner HTML
}

// fieldTitle must be present on a detail page for it to count as a vacancy
const fieldTitle = "title"

type htmlSpec struct {
	source domain.Source
	name   string

	// listURL builds the listing url of a 1-based page
	listURL func(spec domain.RequestSpec, page int) string
	// pageCount reads the number of listing pages from the first one
	pageCount    func(doc *goquery.Document) int
	linkSelector string

	fields  map[string]Field
	mapping Mapping
}

// HTMLSource scrapes a listing site: page count, then links, then details
type HTMLSource struct {
	htmlSpec
	cfg         config.SourceConfig
	base        *url.URL
	loader      PageLoader
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

func newHTMLSource(s htmlSpec, cfg config.SourceConfig, loader PageLoader, concurrency int, logger *zap.Logger) *HTMLSource {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		base = &url.URL{}
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &HTMLSource{
		htmlSpec:    s,
		cfg:         cfg,
		base:        base,
		loader:      loader,
		concurrency: concurrency,
		logger:      logger.With(zap.String("source", string(s.source))),
		now:         time.Now,
	}
}

func (s *HTMLSource) Name() string { return s.name }

func (s *HTMLSource) Source() domain.Source { return s.source }

// Scrape resolves the page count, collects detail links from every listing page
// and parses each detail page
func (s *HTMLSource) Scrape(ctx context.Context, spec domain.RequestSpec) (*ScrapeResult, error) {
	result := newResult(s.source)

	first, err := s.document(ctx, s.listURL(spec, 1))
	result.Requests++
	if err != nil {
		result.Failures++
		return result.finish(), fmt.Errorf("%s: first listing page: %w", s.source, err)
	}

	pages := s.pageCount(first)
	if pages < 1 {
		pages = 1
	}
	if s.cfg.MaxPages > 0 && pages > s.cfg.MaxPages {
		pages = s.cfg.MaxPages
	}

	links, linkStats := s.FetchLinks(ctx, spec, first, pages)
	result.Requests += linkStats.Pages
	result.Failures += linkStats.Failures

	vacancies, detailStats := s.FetchDetails(ctx, links)
	result.Requests += detailStats.Pages
	result.Failures += detailStats.Failures
	result.Vacancies = vacancies

	s.logger.Info("Source scraped",
		zap.Int("pages", pages),
		zap.Int("links", len(links)),
		zap.Int("vacancies", len(vacancies)),
		zap.Int("failures", result.Failures),
	)
	return result.finish(), nil
}

// FetchLinks loads listing pages 2..pages concurrently and returns the detail links
// of all pages in page order, without duplicates
func (s *HTMLSource) FetchLinks(ctx context.Context, spec domain.RequestSpec, first *goquery.Document, pages int) ([]string, PageStats) {
	perPage := make([][]string, pages)
	perPage[0] = s.extractLinks(first)

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			if gctx.Err() != nil {
				failures.Add(1)
				return nil
			}
			target := s.listURL(spec, page)
			doc, err := s.document(gctx, target)
			if err != nil {
				failures.Add(1)
				s.logger.Warn("Listing page failed", zap.String("url", target), zap.Error(err))
				return nil
			}
			perPage[page-1] = s.extractLinks(doc)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	var links []string
	for _, pageLinks := range perPage {
		for _, link := range pageLinks {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
		}
	}
	return links, PageStats{Pages: pages - 1, Failures: int(failures.Load())}
}

// FetchDetails loads and maps every detail page concurrently, keeping link order
func (s *HTMLSource) FetchDetails(ctx context.Context, links []string) ([]domain.Vacancy, PageStats) {
	slots := make([]*domain.Vacancy, len(links))

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, link := range links {
		g.Go(func() error {
			if gctx.Err() != nil {
				failures.Add(1)
				return nil
			}
			doc, err := s.document(gctx, link)
			if err != nil {
				failures.Add(1)
				s.logger.Warn("Detail page failed", zap.String("url", link), zap.Error(err))
				return nil
			}
			rec, err := s.extractRecord(link, doc)
			if err != nil {
				failures.Add(1)
				s.logger.Debug("Detail page skipped", zap.String("url", link), zap.Error(err))
				return nil
			}
			v := s.mapping.Canonical(s.source, rec, s.now())
			slots[i] = &v
			return nil
		})
	}
	_ = g.Wait()

	vacancies := make([]domain.Vacancy, 0, len(links))
	for _, v := range slots {
		if v != nil {
			vacancies = append(vacancies, *v)
		}
	}
	return vacancies, PageStats{Pages: len(links), Failures: int(failures.Load())}
}

func (s *HTMLSource) document(ctx context.Context, target string) (*goquery.Document, error) {
	html, err := s.loader.Load(ctx, target)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return doc, nil
}

func (s *HTMLSource) extractLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find(s.linkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		links = append(links, s.base.ResolveReference(ref).String())
	})
	return links
}

// extractRecord reads the field table into a flat JSON document so that the
// same mapping rules apply as for the API sources
func (s *HTMLSource) extractRecord(link string, doc *goquery.Document) (Record, error) {
	values := map[string]string{"url": link}
	for name, field := range s.fields {
		sel := doc.Find(field.Selector).First()
		var value string
		switch {
		case field.Attr != "":
			value = sel.AttrOr(field.Attr, "")
		case field.HTML:
			value, _ = sel.Html()
		default:
			value = strings.Join(strings.Fields(sel.Text()), " ")
		}
		values[name] = strings.TrimSpace(value)
	}

	if values[fieldTitle] == "" {
		return Record{}, fmt.Errorf("%w: no %s on page", domain.ErrFieldExtraction, fieldTitle)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", domain.ErrFieldExtraction, err)
	}
	return Record{Item: gjson.ParseBytes(data)}, nil
}
