package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Linesmerrill/RxVerify/internal/repository"
)

// RatingWorker listens for PostgreSQL NOTIFY on the 'vote_changes' channel
// and batches rating reconciliations. Each reconciliation replays the
// drug's surviving votes and writes the counters back, so the denormalized
// aggregates can never drift from the ledger for long. If 50 votes hit
// drug X inside one window, it recounts once.
type RatingWorker struct {
	pool    *pgxpool.Pool
	votes   *repository.VoteRepo
	cache   *CacheService
	batchMs time.Duration

	mu      sync.Mutex
	pending map[string]struct{} // drug IDs waiting for reconciliation
}

// NewRatingWorker creates a rating reconciliation worker.
func NewRatingWorker(pool *pgxpool.Pool, votes *repository.VoteRepo, cache *CacheService) *RatingWorker {
	return &RatingWorker{
		pool:    pool,
		votes:   votes,
		cache:   cache,
		batchMs: 5 * time.Second,
		pending: make(map[string]struct{}),
	}
}

// Start begins listening for vote_changes notifications and processing batches.
func (w *RatingWorker) Start(ctx context.Context) {
	log.Printf("rating-worker: starting (batch window=%s)", w.batchMs)

	for {
		if err := w.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				log.Println("rating-worker: stopping (context cancelled)")
				return
			}
			log.Printf("rating-worker: listen error, reconnecting in 5s: %v", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				log.Println("rating-worker: stopping (context cancelled)")
				return
			}
		}
	}
}

// listenLoop acquires a dedicated connection, LISTENs on vote_changes,
// and collects notifications into batched windows.
func (w *RatingWorker) listenLoop(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, "LISTEN vote_changes")
	if err != nil {
		return err
	}
	log.Println("rating-worker: listening on vote_changes")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go w.flushLoop(flushCtx)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		drugID := notification.Payload
		if drugID == "" {
			continue
		}

		w.mu.Lock()
		w.pending[drugID] = struct{}{}
		w.mu.Unlock()
	}
}

// flushLoop periodically drains the pending set and reconciles ratings.
func (w *RatingWorker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.batchMs)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			// Final flush before exit
			w.flush(context.Background())
			return
		}
	}
}

// flush drains the pending set and recounts each drug's rating from the
// ledger.
func (w *RatingWorker) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	// Swap out the pending map
	batch := w.pending
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	reconciled := 0
	for drugID := range batch {
		start := time.Now()
		if _, err := w.votes.Recount(ctx, drugID); err != nil {
			log.Printf("rating-worker: recount error for %s: %v", drugID, err)
			continue
		}
		ratingRecalcDuration.Observe(time.Since(start).Seconds())

		// Invalidate the cached snapshot so the next read is fresh.
		if w.cache != nil {
			if err := w.cache.InvalidateDrug(ctx, drugID); err != nil {
				log.Printf("rating-worker: cache invalidate error for %s: %v", drugID, err)
			}
		}

		reconciled++
	}

	if reconciled > 0 {
		log.Printf("rating-worker: batch complete: %d drugs reconciled (from %d notifications)",
			reconciled, len(batch))
	}
}
