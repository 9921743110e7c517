package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vacancy-aggregator/backend/internal/config"
	"github.com/vacancy-aggregator/backend/internal/health"
)

const version = "1.0.0"

// HealthCheck returns the liveness status
func HealthCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": version,
		})
	}
}

// ReadinessCheck returns whether the backing services answer
func ReadinessCheck(checker *health.Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ready, checks := checker.Run(c.Context())
		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "not_ready",
				"checks": checks,
			})
		}

		return c.JSON(fiber.Map{
			"status": "ready",
			"checks": checks,
		})
	}
}

// Root returns basic API info
func Root(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "Vacancy Aggregator API",
			"version": version,
			"cache":   cfg.Cache.Backend,
			"health":  "/health",
			"ready":   "/ready",
		})
	}
}
