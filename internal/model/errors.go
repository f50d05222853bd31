package model

import "errors"

// Sentinel errors surfaced by the vote ledger and its callers. Handlers
// match these with errors.Is and translate them to API error codes.
var (
	// ErrInvalidInput marks malformed caller arguments. Fatal to the
	// single call only.
	ErrInvalidInput = errors.New("invalid input")

	// ErrContention is returned after the bounded optimistic-retry budget
	// for a vote mutation is exhausted. The caller should retry later.
	ErrContention = errors.New("vote contention: retries exhausted")

	// ErrStoreUnavailable means the underlying persistence could not be
	// reached. Votes are never silently dropped; the caller sees this.
	ErrStoreUnavailable = errors.New("store unavailable")
)
