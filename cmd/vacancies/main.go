package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"go.uber.org/zap"

	"github.com/vacancy-aggregator/backend/internal/aggregator"
	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/report"
	"github.com/vacancy-aggregator/backend/internal/scraper"
	"github.com/vacancy-aggregator/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	title := flag.String("t", "", "Keyword to search for in vacancy titles (case-sensitive)")
	city := flag.String("c", "", "City name")
	dateFrom := flag.String("from", "", "Earliest publication date, YYYY-MM-DD")
	dateTo := flag.String("to", "", "Latest publication date, YYYY-MM-DD")
	experience := flag.Int("e", 0, "Experience bucket: 0 any, 1 none, 2 1-3 years, 3 3-6 years, 4 6+ years")
	remote := flag.Bool("r", false, "Include only remote vacancies")
	source := flag.String("source", "", "Query a single board (hh|zarplata|superjob|trudvsem|habr|geekjob)")
	limit := flag.Int("n", 50, "Number of rows to print, 0 for all")
	asJSON := flag.Bool("json", false, "Print the result as JSON")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := zap.NewNop()
	if *debug {
		logger.Init(true, "vacancies-cli")
		defer logger.Sync()
		log = logger.Get()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, release, err := scraper.NewRegistryFromConfig(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up sources: %v\n", err)
		os.Exit(1)
	}
	defer release()

	spec := domain.NewRequestSpec(domain.RawSearch{
		Title:      *title,
		City:       *city,
		DateFrom:   *dateFrom,
		DateTo:     *dateTo,
		Experience: *experience,
		Remote:     *remote,
		Source:     *source,
	}, time.Now(), cfg.Search.LookbackDays)

	var bar *pb.ProgressBar
	if !*asJSON {
		bar = pb.StartNew(len(registry.Select(spec)))
	}

	agg := aggregator.New(registry, aggregator.Options{
		DedupByURL: cfg.Aggregator.DedupByURL,
		OnScraperDone: func(aggregator.Report) {
			if bar != nil {
				bar.Increment()
			}
		},
	}, log)

	merged, reports := agg.Collect(ctx, spec)
	vacancies := aggregator.Process(merged, spec)
	if bar != nil {
		bar.Finish()
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(vacancies); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			os.Exit(1)
		}
		return
	}

	shown := vacancies
	if *limit > 0 && len(shown) > *limit {
		shown = shown[:*limit]
	}

	report.Headline(os.Stdout, len(vacancies), spec.Title())
	if err := report.Render(os.Stdout, report.SourceRows(reports)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
		os.Exit(1)
	}
	if len(shown) > 0 {
		if err := report.Render(os.Stdout, report.VacancyRows(shown)); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render table: %v\n", err)
			os.Exit(1)
		}
	}
}
