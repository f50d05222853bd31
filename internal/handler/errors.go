package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/Linesmerrill/RxVerify/internal/middleware"
	"github.com/Linesmerrill/RxVerify/internal/model"
)

// readError translates service errors on read endpoints. Store outages are
// 503 so clients know a search or rating fetch is retryable; fallbackMsg
// covers everything unclassified.
func readError(c fiber.Ctx, err error, fallbackMsg string) error {
	status, code, msg := classifyReadErr(err, fallbackMsg)
	return middleware.ErrorResponse(c, status, code, msg)
}

func classifyReadErr(err error, fallbackMsg string) (int, string, string) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return fiber.StatusNotFound, "NOT_FOUND", "Drug not found"
	case errors.Is(err, model.ErrStoreUnavailable):
		return fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE",
			"Storage temporarily unavailable, please retry"
	default:
		return fiber.StatusInternalServerError, "INTERNAL_ERROR", fallbackMsg
	}
}
