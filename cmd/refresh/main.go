package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/aggregator"
	"github.com/vacancy-aggregator/backend/internal/cache"
	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/notify"
	"github.com/vacancy-aggregator/backend/internal/refresh"
	"github.com/vacancy-aggregator/backend/internal/scraper"
	"github.com/vacancy-aggregator/backend/internal/search"
	"github.com/vacancy-aggregator/backend/internal/storage"
	"github.com/vacancy-aggregator/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	once := flag.Bool("once", false, "Refresh every subscription once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Server.Debug, "vacancy-refresh")
	defer logger.Sync()
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := storage.NewPool(ctx, cfg.Postgres.DSN())
	if err != nil {
		logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	repo := storage.NewVacancyRepository(pool, log)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to prepare schema", zap.Error(err))
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.RabbitMQ.Enabled {
		publisher, err := notify.NewPublisher(cfg.RabbitMQ, log)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		notifier = publisher
	}
	defer notifier.Close()

	resultCache := cache.Open(cfg, log)
	defer resultCache.Close()

	registry, release, err := scraper.NewRegistryFromConfig(cfg, log)
	if err != nil {
		logger.Fatal("Failed to set up sources", zap.Error(err))
	}
	defer release()

	agg := aggregator.New(registry, aggregator.Options{DedupByURL: cfg.Aggregator.DedupByURL}, log)
	service := search.NewService(agg, resultCache, cfg.Search.LookbackDays, log)
	job := refresh.NewJob(service, repo, notifier, cfg.Refresh.Subscriptions, log)

	logger.Info("Refresh job starting",
		zap.Int("subscriptions", len(cfg.Refresh.Subscriptions)),
		zap.Duration("interval", cfg.Refresh.Interval),
		zap.Bool("once", *once),
	)

	if *once {
		if err := job.RunOnce(ctx); err != nil {
			logger.Error("Refresh failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	job.Run(ctx, cfg.Refresh.Interval)
}
