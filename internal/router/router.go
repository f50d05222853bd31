package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/Linesmerrill/RxVerify/internal/handler"
	"github.com/Linesmerrill/RxVerify/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Search *handler.SearchHandler
	Vote   *handler.VoteHandler
	Rating *handler.RatingHandler
	Stats  *handler.StatsHandler
	Health *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(corsOrigins))

	// Health checks and metrics (before API group)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// API routes
	api := app.Group("/api")

	// Search routes
	searchLimit := middleware.NewSearchRateLimiter()
	api.Get("/drugs/search", h.Search.Search, searchLimit.Handler())
	api.Get("/drugs/suggest", h.Search.Suggest, searchLimit.Handler())
	api.Get("/drugs/:drugId/rating", h.Rating.Get)

	// Vote routes
	api.Post("/votes", h.Vote.Submit, middleware.NewVoteSubmitRateLimiter().Handler())
	api.Delete("/votes", h.Vote.Delete, middleware.NewVoteDeleteRateLimiter().Handler())
	api.Get("/votes/status", h.Vote.Status)

	// Admin routes
	api.Get("/admin/hidden", h.Rating.Hidden)

	// Stats routes
	api.Get("/stats", h.Stats.GetStats, middleware.NewStatsRateLimiter().Handler())
}
