package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/Linesmerrill/RxVerify/internal/model"
)

func TestClassifyReadErr(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown drug", pgx.ErrNoRows, fiber.StatusNotFound, "NOT_FOUND"},
		{"store outage", model.ErrStoreUnavailable, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"wrapped store outage", fmt.Errorf("search: %w", model.ErrStoreUnavailable),
			fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"},
		{"unclassified", errors.New("boom"), fiber.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := classifyReadErr(tt.err, "fallback")
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestClassifyReadErr_FallbackMessage(t *testing.T) {
	_, _, msg := classifyReadErr(errors.New("boom"), "Failed to fetch rating")
	if msg != "Failed to fetch rating" {
		t.Errorf("msg = %q, want the fallback message", msg)
	}
}
