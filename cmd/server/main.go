package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"

	"github.com/Linesmerrill/RxVerify/internal/config"
	"github.com/Linesmerrill/RxVerify/internal/db"
	"github.com/Linesmerrill/RxVerify/internal/handler"
	"github.com/Linesmerrill/RxVerify/internal/middleware"
	"github.com/Linesmerrill/RxVerify/internal/repository"
	"github.com/Linesmerrill/RxVerify/internal/router"
	"github.com/Linesmerrill/RxVerify/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "rxverify-api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	handler.InitMetrics(pool)

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	voteRepo := repository.NewVoteRepo(pool)
	drugRepo := repository.NewDrugRepo(pool)

	rankingSvc := service.NewRankingService(cfg.Ranking)
	searchSvc := service.NewSearchService(drugRepo, rankingSvc, cache, cfg.Ranking)
	voteSvc := service.NewVoteService(voteRepo, cache)

	// Background reconciliation of rating counters from the vote ledger.
	worker := service.NewRatingWorker(pool, voteRepo, cache)
	go worker.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      "RxVerify API",
		ServerHeader: "RxVerify",
	})

	router.Setup(app, &router.Handlers{
		Search: handler.NewSearchHandler(searchSvc),
		Vote:   handler.NewVoteHandler(voteSvc),
		Rating: handler.NewRatingHandler(searchSvc),
		Stats:  handler.NewStatsHandler(searchSvc),
		Health: handler.NewHealthHandler(pool, cache.Client()),
	}, cfg.CORSOrigins)

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("RxVerify API starting on :%s (env=%s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
