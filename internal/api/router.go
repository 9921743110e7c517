package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vacancy-aggregator/backend/internal/api/handlers"
	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/health"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, deps *Dependencies) {
	// Health check routes (no prefix)
	app.Get("/health", handlers.HealthCheck())
	app.Get("/ready", handlers.ReadinessCheck(deps.Health))
	app.Get("/", handlers.Root(cfg))

	// API routes
	api := app.Group("/api")

	vacanciesHandler := handlers.NewVacanciesHandler(deps.Search, deps.Sources)
	api.Get("/sources", vacanciesHandler.GetSources)

	vacancies := api.Group("/vacancies")
	vacancies.Post("/search", vacanciesHandler.Search)
	vacancies.Get("/", vacanciesHandler.GetVacancies)
}

// Dependencies holds all service dependencies for handlers
type Dependencies struct {
	Search  handlers.SearchService
	Health  *health.Checker
	Sources []handlers.SourceInfo
}
