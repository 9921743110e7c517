package scraper

import (
	"context"
	"fmt"

	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
)

// CollyLoader fetches static HTML. Every Load runs on a clone of one parent
// collector, so all loads share its limit rule.
type CollyLoader struct {
	collector *colly.Collector
	randomUA  bool
	logger    *zap.Logger
}

// NewCollyLoader creates a loader paced by the fetch settings
func NewCollyLoader(cfg config.FetchConfig, logger *zap.Logger) (*CollyLoader, error) {
	c := colly.NewCollector(colly.AllowURLRevisit())
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	}

	parallelism := cfg.DetailConcurrency
	if parallelism <= 0 {
		parallelism = 1
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       cfg.DetailDelay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set limit rule: %w", err)
	}

	return &CollyLoader{
		collector: c,
		randomUA:  cfg.UserAgent == "",
		logger:    logger,
	}, nil
}

// Load visits url and returns the response body
func (l *CollyLoader) Load(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	c := l.collector.Clone()
	// in-flight requests are aborted with ctx
	c.Context = ctx
	extensions.Referer(c)
	if l.randomUA {
		extensions.RandomUserAgent(c)
	}

	var (
		body    []byte
		loadErr error
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		loadErr = fmt.Errorf("%w: status %d: %v", domain.ErrTransport, r.StatusCode, err)
	})

	l.logger.Debug("Fetching page", zap.String("url", url))
	if err := c.Visit(url); err != nil && loadErr == nil {
		loadErr = fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	c.Wait()

	if loadErr != nil {
		return "", loadErr
	}
	return string(body), nil
}
