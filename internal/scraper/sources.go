package scraper

import (
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/config"
)

const renderBrowser = "browser"

// NewRegistryFromConfig registers every enabled source in dispatch order. The
// returned func releases the browser when one was started.
func NewRegistryFromConfig(cfg *config.Config, logger *zap.Logger) (*Registry, func(), error) {
	fetcher := NewPageFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, logger)

	httpLoader, err := NewCollyLoader(cfg.Fetch, logger)
	if err != nil {
		return nil, nil, err
	}

	var pool *BrowserPool
	loaderFor := func(sc config.SourceConfig) PageLoader {
		if sc.Render != renderBrowser {
			return httpLoader
		}
		if pool == nil {
			bc := DefaultBrowserConfig()
			bc.Timeout = cfg.Fetch.BrowserTimeout
			if cfg.Fetch.UserAgent != "" {
				bc.UserAgent = cfg.Fetch.UserAgent
			}
			pool = NewBrowserPool(logger, bc)
		}
		return pool
	}

	src := cfg.Sources
	concurrency := cfg.Fetch.DetailConcurrency
	registry := NewRegistry()

	if src.HH.Enabled {
		registry.Register(NewHH(src.HH, fetcher, logger))
	}
	if src.Zarplata.Enabled {
		registry.Register(NewZarplata(src.Zarplata, fetcher, logger))
	}
	if src.SuperJob.Enabled {
		registry.Register(NewSuperJob(src.SuperJob, fetcher, logger))
	}
	if src.Trudvsem.Enabled {
		registry.Register(NewTrudvsem(src.Trudvsem, fetcher, logger))
	}
	if src.Habr.Enabled {
		registry.Register(NewHabr(src.Habr, loaderFor(src.Habr), concurrency, logger))
	}
	if src.GeekJob.Enabled {
		registry.Register(NewGeekJob(src.GeekJob, loaderFor(src.GeekJob), concurrency, logger))
	}

	release := func() {
		if pool != nil {
			pool.Close()
		}
	}
	return registry, release, nil
}
