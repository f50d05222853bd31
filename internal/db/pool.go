package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Linesmerrill/RxVerify/internal/config"
)

const retryInterval = 2 * time.Second

// NewPool connects to PostgreSQL with bounded retries. The pool backs both
// the request path and the rating worker's LISTEN connection, so MaxConns
// must leave room for one long-lived acquisition on top of request traffic.
func NewPool(ctx context.Context, databaseURL string, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := parseConfig(databaseURL, cfg)
	if err != nil {
		return nil, err
	}

	retries := cfg.ConnectRetries
	if retries < 1 {
		retries = 1
	}

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= retries; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if pingErr := pool.Ping(ctx); pingErr == nil {
				log.Println("database connected")
				return pool, nil
			} else {
				pool.Close()
				err = pingErr
			}
		}

		log.Printf("database connection attempt %d/%d failed: %v", attempt, retries, err)
		if attempt < retries {
			time.Sleep(retryInterval)
		}
	}

	return nil, fmt.Errorf("database connection failed after %d attempts: %w", retries, err)
}

// parseConfig builds the pgxpool configuration from the URL and the
// operator-tuned sizing.
func parseConfig(databaseURL string, cfg config.DBConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	return poolCfg, nil
}
