package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Linesmerrill/RxVerify/internal/middleware"
	"github.com/Linesmerrill/RxVerify/internal/service"
)

const (
	defaultSearchLimit  = 10
	maxSearchLimit      = 50
	defaultSuggestLimit = 5
)

type SearchHandler struct {
	svc *service.SearchService
}

func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search handles GET /api/drugs/search?q=X&limit=N
func (h *SearchHandler) Search(c fiber.Ctx) error {
	query, errMsg := middleware.ValidateQuery(fiber.Query[string](c, "q"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_QUERY", errMsg)
	}

	limit := fiber.Query[int](c, "limit", defaultSearchLimit)
	if limit < 1 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}

	resp, err := h.svc.Search(c.Context(), query, limit)
	if err != nil {
		return readError(c, err, "Failed to search drugs")
	}

	Metrics.SearchesTotal.Inc()
	return c.JSON(resp)
}

// Suggest handles GET /api/drugs/suggest?q=X&limit=N (autocomplete)
func (h *SearchHandler) Suggest(c fiber.Ctx) error {
	query, errMsg := middleware.ValidateQuery(fiber.Query[string](c, "q"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_QUERY", errMsg)
	}

	limit := fiber.Query[int](c, "limit", defaultSuggestLimit)
	if limit < 1 || limit > maxSearchLimit {
		limit = defaultSuggestLimit
	}

	names, err := h.svc.Suggest(c.Context(), query, limit)
	if err != nil {
		return readError(c, err, "Failed to fetch suggestions")
	}

	return c.JSON(fiber.Map{"suggestions": names})
}
