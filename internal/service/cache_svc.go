package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache TTLs. Search pages are deliberately short-lived: vote commits only
// need to become visible on the next ranking call, not synchronously, so
// pages age out instead of being invalidated per query.
const (
	SearchCacheTTL = 60 * time.Second
	RatingCacheTTL = 5 * time.Minute
)

// CacheService provides a Redis cache-aside layer for search pages and
// rating snapshots.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, it returns a CacheService with a nil client and every
// cache operation becomes a no-op.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetSearch retrieves a cached search page. Returns nil when not cached
// or when caching is disabled.
func (c *CacheService) GetSearch(ctx context.Context, query string, limit int) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, searchKey(query, limit)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetSearch stores a search page in cache.
func (c *CacheService) SetSearch(ctx context.Context, query string, limit int, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, searchKey(query, limit), b, SearchCacheTTL).Err()
}

// GetRating retrieves a cached rating snapshot. Returns nil when not cached.
func (c *CacheService) GetRating(ctx context.Context, drugID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, ratingKey(drugID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetRating stores a rating snapshot in cache.
func (c *CacheService) SetRating(ctx context.Context, drugID string, data interface{}) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ratingKey(drugID), b, RatingCacheTTL).Err()
}

// InvalidateDrug removes a drug's rating snapshot from cache (called after
// vote changes). Search pages are not targeted: they expire on their own.
func (c *CacheService) InvalidateDrug(ctx context.Context, drugID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, ratingKey(drugID)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func searchKey(query string, limit int) string {
	return fmt.Sprintf("search:%s:%d", strings.ToLower(strings.TrimSpace(query)), limit)
}

func ratingKey(drugID string) string {
	return fmt.Sprintf("rating:%s", drugID)
}
