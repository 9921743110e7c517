package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/vacancy-aggregator/backend/internal/api/middleware"
	"github.com/vacancy-aggregator/backend/internal/domain"
	"github.com/vacancy-aggregator/backend/internal/search"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// SearchService defines the interface for vacancy search operations
type SearchService interface {
	Search(ctx context.Context, session string, raw domain.RawSearch, refresh bool) search.Result
	Results(ctx context.Context, session, searchID string) ([]domain.Vacancy, bool)
}

// SourceInfo describes one enabled job board
type SourceInfo struct {
	Source domain.Source `json:"source"`
	Name   string        `json:"name"`
}

type searchRequest struct {
	domain.RawSearch
	Refresh bool `json:"refresh"`
}

type vacancyPage struct {
	SearchID  string           `json:"search_id"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
	Cached    bool             `json:"cached"`
	Vacancies []domain.Vacancy `json:"vacancies"`
}

// VacanciesHandler handles vacancy API requests
type VacanciesHandler struct {
	service SearchService
	sources []SourceInfo
}

// NewVacanciesHandler creates a new vacancies handler
func NewVacanciesHandler(service SearchService, sources []SourceInfo) *VacanciesHandler {
	return &VacanciesHandler{service: service, sources: sources}
}

// Search handles POST /api/vacancies/search
func (h *VacanciesHandler) Search(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "Invalid request body",
		})
	}

	if req.Experience < 0 || req.Experience > 4 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "Experience must be between 0 and 4",
		})
	}

	result := h.service.Search(c.Context(), middleware.SessionKey(c), req.RawSearch, req.Refresh)

	page, limit := pageParams(c)
	return c.JSON(paginate(result.SearchID, result.Vacancies, page, limit, result.Cached))
}

// GetVacancies handles GET /api/vacancies
func (h *VacanciesHandler) GetVacancies(c *fiber.Ctx) error {
	searchID := c.Query("search_id")
	if searchID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_request",
			"message": "search_id is required",
		})
	}

	list, ok := h.service.Results(c.Context(), middleware.SessionKey(c), searchID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "Search results expired or never existed",
		})
	}

	page, limit := pageParams(c)
	return c.JSON(paginate(searchID, list, page, limit, true))
}

// GetSources handles GET /api/sources
func (h *VacanciesHandler) GetSources(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sources": h.sources,
	})
}

func pageParams(c *fiber.Ctx) (page, limit int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit = c.QueryInt("limit", defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

func paginate(searchID string, list []domain.Vacancy, page, limit int, cached bool) vacancyPage {
	start := (page - 1) * limit
	if start > len(list) {
		start = len(list)
	}
	end := start + limit
	if end > len(list) {
		end = len(list)
	}

	items := make([]domain.Vacancy, end-start)
	copy(items, list[start:end])

	return vacancyPage{
		SearchID:  searchID,
		Total:     len(list),
		Page:      page,
		Limit:     limit,
		Cached:    cached,
		Vacancies: items,
	}
}
