package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/domain"
)

// PageRequest describes one paginated JSON listing
type PageRequest struct {
	URL    string
	Params url.Values
	Header http.Header

	// ItemsKey is the gjson path of the item list, SubKey an optional level below it
	ItemsKey string
	SubKey   string

	// PageParam receives the loop index 0..MaxPages-1
	PageParam string
	MaxPages  int
}

// PageStats counts the requests issued by one FetchAll call
type PageStats struct {
	Pages    int
	Failures int
}

// PageFetcher runs the bounded pagination loop shared by the API sources.
// Every request is attempted once.
type PageFetcher struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewPageFetcher creates a fetcher with a fixed per-request timeout
func NewPageFetcher(timeout time.Duration, userAgent string, logger *zap.Logger) *PageFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		logger:    logger,
	}
}

// FetchAll walks the pages and returns the accumulated items. It stops on the
// first empty or missing list, or when MaxPages is reached. A failed page is
// logged and skipped.
func (f *PageFetcher) FetchAll(ctx context.Context, req PageRequest) ([]gjson.Result, PageStats) {
	var (
		items []gjson.Result
		stats PageStats
	)

	for page := 0; page < req.MaxPages; page++ {
		if ctx.Err() != nil {
			break
		}

		params := cloneValues(req.Params)
		params.Set(req.PageParam, strconv.Itoa(page))

		body, err := f.GetJSON(ctx, req.URL, params, req.Header)
		stats.Pages++
		if err != nil {
			stats.Failures++
			f.logger.Warn("Page fetch failed",
				zap.String("url", req.URL),
				zap.Int("page", page),
				zap.Error(err),
			)
			continue
		}

		list := body.Get(req.ItemsKey)
		if req.SubKey != "" {
			list = list.Get(req.SubKey)
		}
		if !list.IsArray() || len(list.Array()) == 0 {
			f.logger.Debug("Pagination finished",
				zap.String("url", req.URL),
				zap.Int("page", page),
			)
			break
		}
		items = append(items, list.Array()...)
	}

	return items, stats
}

// GetJSON issues one GET and validates the body as JSON
func (f *PageFetcher) GetJSON(ctx context.Context, rawURL string, params url.Values, header http.Header) (gjson.Result, error) {
	target := rawURL
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: build request: %v", domain.ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("%w: unexpected status %d", domain.ErrTransport, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: read body: %v", domain.ErrTransport, err)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, fmt.Errorf("%w: body is not valid JSON", domain.ErrDecode)
	}
	return gjson.ParseBytes(data), nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+1)
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
