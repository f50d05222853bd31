package model

import "time"

// VoteValue is the direction of a vote.
type VoteValue string

const (
	VoteUp   VoteValue = "up"
	VoteDown VoteValue = "down"
)

// ValidVoteValues are the allowed voteValue strings.
var ValidVoteValues = map[VoteValue]bool{
	VoteUp:   true,
	VoteDown: true,
}

// VoteOutcome describes what a ledger mutation actually did. The aggregator
// derives its counter transition from this, so the set is closed.
type VoteOutcome string

const (
	OutcomeCreated   VoteOutcome = "created"   // first vote for this (drug, identity) pair
	OutcomeSwitched  VoteOutcome = "switched"  // existing vote changed direction
	OutcomeUnchanged VoteOutcome = "unchanged" // same-value re-cast, absorbed as a no-op
	OutcomeRemoved   VoteOutcome = "removed"   // vote retracted
	OutcomeNotFound  VoteOutcome = "notfound"  // retraction with no vote on record
)

// Vote is one identity's current opinion on one drug. At most one vote
// exists per (drug_id, identity_token) pair.
type Vote struct {
	DrugID        string    `json:"drugId"`
	IdentityToken string    `json:"-"`
	Value         VoteValue `json:"voteValue"`
	CastAt        time.Time `json:"castAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// VoteRequest is the API request body for submitting or retracting a vote.
type VoteRequest struct {
	DrugID    string `json:"drugId"`
	VoteValue string `json:"voteValue,omitempty"`
}

// VoteResponse is the API response after a vote mutation.
type VoteResponse struct {
	Status string         `json:"status"` // recorded | removed | noop
	Rating RatingCounters `json:"rating"`
}

// VoteStatusResponse reports whether the caller has an active vote on a
// drug, so the client can show a cast-vs-switch affordance.
type VoteStatusResponse struct {
	DrugID    string  `json:"drugId"`
	HasVoted  bool    `json:"hasVoted"`
	VoteValue *string `json:"voteValue"`
}
