package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vacancy-aggregator/backend/internal/aggregator"
	"github.com/vacancy-aggregator/backend/internal/api"
	"github.com/vacancy-aggregator/backend/internal/api/handlers"
	"github.com/vacancy-aggregator/backend/internal/api/middleware"
	"github.com/vacancy-aggregator/backend/internal/cache"
	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/health"
	"github.com/vacancy-aggregator/backend/internal/scraper"
	"github.com/vacancy-aggregator/backend/internal/search"
	"github.com/vacancy-aggregator/backend/pkg/logger"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Server.Debug, "vacancy-api")
	defer logger.Sync()
	log := logger.Get()

	logger.Info("Starting Vacancy Aggregator API",
		zap.Bool("debug", cfg.Server.Debug),
		zap.String("cache", cfg.Cache.Backend),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checker := health.NewChecker(0)

	// Result cache
	resultCache := cache.Open(cfg, log)
	defer resultCache.Close()
	if resultCache.Ping != nil {
		checker.Add("redis", resultCache.Ping)
	}

	// Sources and pipeline
	registry, release, err := scraper.NewRegistryFromConfig(cfg, log)
	if err != nil {
		logger.Fatal("Failed to set up sources", zap.Error(err))
	}
	defer release()

	var sources []handlers.SourceInfo
	for _, s := range registry.All() {
		sources = append(sources, handlers.SourceInfo{Source: s.Source(), Name: s.Name()})
	}

	agg := aggregator.New(registry, aggregator.Options{DedupByURL: cfg.Aggregator.DedupByURL}, log)
	service := search.NewService(agg, resultCache, cfg.Search.LookbackDays, log)

	// gRPC health endpoint
	var grpcServer *grpc.Server
	if cfg.GRPC.Enabled {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			logger.Fatal("Failed to listen for gRPC", zap.Error(err))
		}
		grpcServer = grpc.NewServer()
		hs := grpchealth.NewServer()
		healthpb.RegisterHealthServer(grpcServer, hs)
		go checker.Watch(ctx, hs, cfg.GRPC.CheckInterval, log)

		go func() {
			logger.Info("gRPC health server starting", zap.Int("port", cfg.GRPC.Port))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server stopped", zap.Error(err))
			}
		}()
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Vacancy Aggregator API",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: !cfg.Server.Debug,
		ErrorHandler:          errorHandler,
	})

	// Setup middleware
	middleware.Setup(app, cfg)

	// Setup routes
	api.SetupRoutes(app, cfg, &api.Dependencies{
		Search:  service,
		Health:  checker,
		Sources: sources,
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logger.Info("Shutting down gracefully...")
		cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		_ = app.Shutdown()
	}()

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting",
		zap.String("address", addr),
		zap.Int("sources", len(sources)),
	)

	if err := app.Listen(addr); err != nil {
		logger.Fatal("Server failed to start", zap.Error(err))
	}
}

// errorHandler handles errors globally
func errorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Log error
	logger.Error("Request error",
		zap.Int("status", code),
		zap.String("path", c.Path()),
		zap.Error(err),
	)

	return c.Status(code).JSON(fiber.Map{
		"error":   "request_failed",
		"message": message,
		"path":    c.Path(),
	})
}
