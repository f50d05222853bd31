package model

import "time"

// RatingCounters are the denormalized per-drug vote aggregates. They are
// derived state: replaying every surviving vote for the drug must always
// reproduce them exactly.
type RatingCounters struct {
	Upvotes     int     `json:"upvotes"`
	Downvotes   int     `json:"downvotes"`
	TotalVotes  int     `json:"totalVotes"`
	RatingScore float64 `json:"ratingScore"`
}

// Score returns the normalized rating: (up - down) / total, bounded to
// [-1, 1], or 0.0 when there are no votes. Normalizing keeps the ranking
// vote-boost term scale-stable regardless of vote volume.
func (rc RatingCounters) Score() float64 {
	if rc.TotalVotes <= 0 {
		return 0.0
	}
	return float64(rc.Upvotes-rc.Downvotes) / float64(rc.TotalVotes)
}

// Apply returns the counters after a single vote transition. oldValue is
// only meaningful for Switched and Removed; newValue only for Created and
// Switched. Unchanged and NotFound are no-ops. RatingScore is recomputed
// from the resulting counters, never drifted incrementally.
func (rc RatingCounters) Apply(outcome VoteOutcome, oldValue, newValue VoteValue) RatingCounters {
	switch outcome {
	case OutcomeCreated:
		rc.bump(newValue, 1)
		rc.TotalVotes++
	case OutcomeSwitched:
		rc.bump(oldValue, -1)
		rc.bump(newValue, 1)
	case OutcomeRemoved:
		rc.bump(oldValue, -1)
		rc.TotalVotes--
	case OutcomeUnchanged, OutcomeNotFound:
		return rc
	}
	rc.clamp()
	rc.RatingScore = rc.Score()
	return rc
}

// ShouldHide reports whether the drug meets the auto-hide criteria: a
// sustained negative rating backed by enough votes to trust the sample.
// Both conditions are required so one or two early downvotes never hide
// an entry.
func (rc RatingCounters) ShouldHide(ratingThreshold float64, minVotes int) bool {
	return rc.RatingScore <= ratingThreshold && rc.TotalVotes >= minVotes
}

func (rc *RatingCounters) bump(v VoteValue, delta int) {
	switch v {
	case VoteUp:
		rc.Upvotes += delta
	case VoteDown:
		rc.Downvotes += delta
	}
}

// clamp guards against a decrement racing a reconciliation recount; the
// counters never go negative even if a transition is applied to stale state.
func (rc *RatingCounters) clamp() {
	if rc.Upvotes < 0 {
		rc.Upvotes = 0
	}
	if rc.Downvotes < 0 {
		rc.Downvotes = 0
	}
	if rc.TotalVotes < 0 {
		rc.TotalVotes = 0
	}
}

// RatingSnapshot is the API response for GET /api/drugs/:drugId/rating.
type RatingSnapshot struct {
	DrugID      string         `json:"drugId"`
	Counters    RatingCounters `json:"rating"`
	IsHidden    bool           `json:"isHidden"`
	LastUpdated time.Time      `json:"lastUpdated"`
}

// HiddenDrug is one row in the admin hidden-drugs listing.
type HiddenDrug struct {
	DrugID      string    `json:"drugId"`
	Name        string    `json:"name"`
	RatingScore float64   `json:"ratingScore"`
	TotalVotes  int       `json:"totalVotes"`
	Upvotes     int       `json:"upvotes"`
	Downvotes   int       `json:"downvotes"`
	LastUpdated time.Time `json:"lastUpdated"`
}
