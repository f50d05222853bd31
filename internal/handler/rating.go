package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Linesmerrill/RxVerify/internal/middleware"
	"github.com/Linesmerrill/RxVerify/internal/service"
)

const defaultHiddenLimit = 50

type RatingHandler struct {
	svc *service.SearchService
}

func NewRatingHandler(svc *service.SearchService) *RatingHandler {
	return &RatingHandler{svc: svc}
}

// Get handles GET /api/drugs/:drugId/rating
func (h *RatingHandler) Get(c fiber.Ctx) error {
	drugID, errMsg := middleware.ValidateDrugID(c.Params("drugId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	snap, err := h.svc.Rating(c.Context(), drugID)
	if err != nil {
		return readError(c, err, "Failed to fetch rating")
	}

	return c.JSON(snap)
}

// Hidden handles GET /api/admin/hidden: drugs currently excluded from
// search results by the auto-hide filter, for review.
func (h *RatingHandler) Hidden(c fiber.Ctx) error {
	limit := fiber.Query[int](c, "limit", defaultHiddenLimit)
	if limit < 1 || limit > 200 {
		limit = defaultHiddenLimit
	}

	hidden, err := h.svc.HiddenDrugs(c.Context(), limit)
	if err != nil {
		return readError(c, err, "Failed to fetch hidden drugs")
	}

	return c.JSON(fiber.Map{"hidden": hidden, "total": len(hidden)})
}
