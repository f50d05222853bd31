package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/Linesmerrill/RxVerify/internal/middleware"
	"github.com/Linesmerrill/RxVerify/internal/model"
	"github.com/Linesmerrill/RxVerify/internal/service"
)

type VoteHandler struct {
	svc *service.VoteService
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Submit handles POST /api/votes
func (h *VoteHandler) Submit(c fiber.Ctx) error {
	return h.mutate(c, false)
}

// Delete handles DELETE /api/votes (vote retraction)
func (h *VoteHandler) Delete(c fiber.Ctx) error {
	return h.mutate(c, true)
}

func (h *VoteHandler) mutate(c fiber.Ctx, retract bool) error {
	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	drugID, errMsg := middleware.ValidateDrugID(req.DrugID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.DrugID = drugID

	if !retract && !model.ValidVoteValues[model.VoteValue(req.VoteValue)] {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_VOTE_VALUE",
			"voteValue must be one of: up, down")
	}

	signature := middleware.ValidateUserAgent(c.Get(fiber.HeaderUserAgent))

	resp, err := h.svc.Submit(c.Context(), req, retract, c.IP(), signature)
	if err != nil {
		return voteError(c, err)
	}

	if resp.Status == "recorded" {
		Metrics.VotesTotal.WithLabelValues(req.VoteValue).Inc()
	}

	return c.JSON(resp)
}

// Status handles GET /api/votes/status?drugId=X
func (h *VoteHandler) Status(c fiber.Ctx) error {
	drugID, errMsg := middleware.ValidateDrugID(fiber.Query[string](c, "drugId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	signature := middleware.ValidateUserAgent(c.Get(fiber.HeaderUserAgent))

	resp, err := h.svc.Status(c.Context(), drugID, c.IP(), signature)
	if err != nil {
		return voteError(c, err)
	}

	return c.JSON(resp)
}

// voteError translates core error kinds into API responses. Contention
// and store outages are retryable; the client should back off and retry
// quietly rather than interrupt the user's browsing.
func voteError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, pgx.ErrNoRows):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Drug not found")
	case errors.Is(err, model.ErrContention):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "CONTENTION",
			"Vote contention, please retry")
	case errors.Is(err, model.ErrStoreUnavailable):
		return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE",
			"Storage temporarily unavailable, please retry")
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to process vote")
	}
}
