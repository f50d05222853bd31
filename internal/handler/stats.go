package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Linesmerrill/RxVerify/internal/service"
)

type StatsHandler struct {
	svc *service.SearchService
}

func NewStatsHandler(svc *service.SearchService) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// GetStats handles GET /api/stats
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	stats, err := h.svc.Stats(c.Context())
	if err != nil {
		return readError(c, err, "Failed to fetch statistics")
	}

	return c.JSON(stats)
}
