package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Linesmerrill/RxVerify/internal/model"
)

// VoteRepo is the vote ledger and rating aggregator. Every mutation runs
// in one transaction that takes the drug's rating row lock first, so all
// writes for a given drug are serialized per-item, not globally.
type VoteRepo struct {
	pool *pgxpool.Pool
}

func NewVoteRepo(pool *pgxpool.Pool) *VoteRepo {
	return &VoteRepo{pool: pool}
}

// voteMutationRetries bounds the optimistic retry budget for a mutation
// before ErrContention is surfaced to the caller.
const voteMutationRetries = 3

// GetVote returns the caller's active vote on a drug, or nil when absent.
// Absence is a normal result, not an error.
func (r *VoteRepo) GetVote(ctx context.Context, drugID, identityToken string) (*model.Vote, error) {
	var v model.Vote
	err := r.pool.QueryRow(ctx, `
		SELECT drug_id, identity_token, vote_value, cast_at, updated_at
		FROM votes WHERE drug_id = $1 AND identity_token = $2`,
		drugID, identityToken).Scan(&v.DrugID, &v.IdentityToken, &v.Value, &v.CastAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return &v, nil
}

// CastOrUpdate records or updates the identity's vote on a drug and applies
// the matching counter transition atomically. A same-value re-cast returns
// Unchanged without touching state, because duplicate requests (double
// click, retry) are expected and must be absorbed, not rejected.
func (r *VoteRepo) CastOrUpdate(ctx context.Context, drugID, identityToken string, value model.VoteValue) (model.VoteOutcome, model.RatingCounters, error) {
	var (
		outcome  model.VoteOutcome
		counters model.RatingCounters
	)
	err := r.withRetry(ctx, func(tx pgx.Tx) error {
		current, err := lockCounters(ctx, tx, drugID)
		if err != nil {
			return err
		}

		var existing model.VoteValue
		err = tx.QueryRow(ctx, `
			SELECT vote_value FROM votes
			WHERE drug_id = $1 AND identity_token = $2`,
			drugID, identityToken).Scan(&existing)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			outcome = model.OutcomeCreated
		case err != nil:
			return err
		case existing == value:
			outcome = model.OutcomeUnchanged
		default:
			outcome = model.OutcomeSwitched
		}

		if outcome == model.OutcomeUnchanged {
			counters = current
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO votes (drug_id, identity_token, vote_value)
			VALUES ($1, $2, $3)
			ON CONFLICT (drug_id, identity_token) DO UPDATE
			SET vote_value = EXCLUDED.vote_value, updated_at = NOW()`,
			drugID, identityToken, value)
		if err != nil {
			return err
		}

		counters = current.Apply(outcome, existing, value)
		return writeCounters(ctx, tx, drugID, counters)
	})
	if err != nil {
		return "", model.RatingCounters{}, err
	}
	return outcome, counters, nil
}

// Retract removes the identity's vote on a drug, if one exists. Retracting
// a non-existent vote returns NotFound and is not an error, which makes a
// double retract idempotent.
func (r *VoteRepo) Retract(ctx context.Context, drugID, identityToken string) (model.VoteOutcome, model.RatingCounters, error) {
	var (
		outcome  model.VoteOutcome
		counters model.RatingCounters
	)
	err := r.withRetry(ctx, func(tx pgx.Tx) error {
		current, err := lockCounters(ctx, tx, drugID)
		if err != nil {
			return err
		}

		var removed model.VoteValue
		err = tx.QueryRow(ctx, `
			DELETE FROM votes
			WHERE drug_id = $1 AND identity_token = $2
			RETURNING vote_value`,
			drugID, identityToken).Scan(&removed)
		if errors.Is(err, pgx.ErrNoRows) {
			outcome = model.OutcomeNotFound
			counters = current
			return nil
		}
		if err != nil {
			return err
		}

		outcome = model.OutcomeRemoved
		counters = current.Apply(model.OutcomeRemoved, removed, "")
		return writeCounters(ctx, tx, drugID, counters)
	})
	if err != nil {
		return "", model.RatingCounters{}, err
	}
	return outcome, counters, nil
}

// Recount replays every surviving vote for a drug and writes the counters
// back. This is the reconciliation path: the transition-applied counters
// must always equal the replayed ones, and Recount repairs them if a bug
// or manual edit ever makes them drift.
func (r *VoteRepo) Recount(ctx context.Context, drugID string) (model.RatingCounters, error) {
	var counters model.RatingCounters
	err := r.withRetry(ctx, func(tx pgx.Tx) error {
		if _, err := lockCounters(ctx, tx, drugID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			SELECT
				COUNT(*) FILTER (WHERE vote_value = 'up'),
				COUNT(*) FILTER (WHERE vote_value = 'down')
			FROM votes WHERE drug_id = $1`,
			drugID).Scan(&counters.Upvotes, &counters.Downvotes)
		if err != nil {
			return err
		}
		counters.TotalVotes = counters.Upvotes + counters.Downvotes
		counters.RatingScore = counters.Score()

		return writeCounters(ctx, tx, drugID, counters)
	})
	if err != nil {
		return model.RatingCounters{}, err
	}
	return counters, nil
}

// GetCounters returns the current rating counters for a drug. Drugs with
// no rating row yet report zero counters.
func (r *VoteRepo) GetCounters(ctx context.Context, drugID string) (model.RatingCounters, error) {
	var c model.RatingCounters
	err := r.pool.QueryRow(ctx, `
		SELECT upvotes, downvotes, total_votes, rating_score
		FROM drug_ratings WHERE drug_id = $1`,
		drugID).Scan(&c.Upvotes, &c.Downvotes, &c.TotalVotes, &c.RatingScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RatingCounters{}, nil
	}
	if err != nil {
		return model.RatingCounters{}, classifyStoreErr(err)
	}
	return c, nil
}

// withRetry runs fn inside a transaction, retrying a bounded number of
// times on serialization or deadlock failures. Exhausting the budget maps
// to ErrContention so the caller can apply its own backoff.
func (r *VoteRepo) withRetry(ctx context.Context, fn func(tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 1; attempt <= voteMutationRetries; attempt++ {
		err := r.runTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationErr(err) {
			return classifyStoreErr(err)
		}
		lastErr = err
	}
	return fmt.Errorf("%w (after %d attempts): %v", model.ErrContention, voteMutationRetries, lastErr)
}

func (r *VoteRepo) runTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockCounters upserts the drug's rating row and takes its row lock,
// serializing all vote mutations for the drug. Voting on a drug that is
// not in the catalog fails with pgx.ErrNoRows.
func lockCounters(ctx context.Context, tx pgx.Tx, drugID string) (model.RatingCounters, error) {
	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM drugs WHERE drug_id = $1)`, drugID).Scan(&exists); err != nil {
		return model.RatingCounters{}, err
	}
	if !exists {
		return model.RatingCounters{}, pgx.ErrNoRows
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO drug_ratings (drug_id) VALUES ($1)
		ON CONFLICT (drug_id) DO NOTHING`, drugID)
	if err != nil {
		return model.RatingCounters{}, err
	}

	var c model.RatingCounters
	err = tx.QueryRow(ctx, `
		SELECT upvotes, downvotes, total_votes, rating_score
		FROM drug_ratings WHERE drug_id = $1
		FOR UPDATE`, drugID).Scan(&c.Upvotes, &c.Downvotes, &c.TotalVotes, &c.RatingScore)
	if err != nil {
		return model.RatingCounters{}, err
	}
	return c, nil
}

func writeCounters(ctx context.Context, tx pgx.Tx, drugID string, c model.RatingCounters) error {
	_, err := tx.Exec(ctx, `
		UPDATE drug_ratings
		SET upvotes = $1, downvotes = $2, total_votes = $3, rating_score = $4,
		    last_updated = NOW()
		WHERE drug_id = $5`,
		c.Upvotes, c.Downvotes, c.TotalVotes, c.RatingScore, drugID)
	if err != nil {
		return err
	}

	// Wake the rating worker so it can reconcile and invalidate caches.
	_, err = tx.Exec(ctx, `SELECT pg_notify('vote_changes', $1)`, drugID)
	return err
}

// isSerializationErr reports whether the transaction failed in a way a
// fresh attempt can resolve (serialization conflict or deadlock).
func isSerializationErr(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// classifyStoreErr maps connectivity failures to ErrStoreUnavailable so
// callers can distinguish a retryable outage from a bad request. Row-level
// conditions (pgx.ErrNoRows) pass through untouched.
func classifyStoreErr(err error) error {
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// The server answered; this is a query-level failure.
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
}
