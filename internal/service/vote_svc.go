package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/Linesmerrill/RxVerify/internal/identity"
	"github.com/Linesmerrill/RxVerify/internal/model"
	"github.com/Linesmerrill/RxVerify/internal/repository"
)

// VoteService is the external interface of the voting core: it resolves
// the caller's anonymous identity, drives the ledger, and returns the
// resulting rating snapshot.
type VoteService struct {
	repo  *repository.VoteRepo
	cache *CacheService
}

func NewVoteService(repo *repository.VoteRepo, cache *CacheService) *VoteService {
	return &VoteService{repo: repo, cache: cache}
}

// Submit records, switches, or retracts a vote. retract=true removes the
// caller's vote regardless of voteValue. The returned status is
// "recorded", "removed", or "noop"; a duplicate same-value cast and a
// retract with nothing to retract are both noops, never errors.
func (s *VoteService) Submit(ctx context.Context, req model.VoteRequest, retract bool, networkAddress, clientSignature string) (*model.VoteResponse, error) {
	drugID := strings.TrimSpace(req.DrugID)
	if drugID == "" {
		return nil, fmt.Errorf("%w: drugId is required", model.ErrInvalidInput)
	}

	value := model.VoteValue(req.VoteValue)
	if !retract && !model.ValidVoteValues[value] {
		return nil, fmt.Errorf("%w: voteValue must be %q or %q", model.ErrInvalidInput, model.VoteUp, model.VoteDown)
	}

	token := identity.Resolve(networkAddress, clientSignature)

	var (
		outcome  model.VoteOutcome
		counters model.RatingCounters
		err      error
	)
	if retract {
		outcome, counters, err = s.repo.Retract(ctx, drugID, token)
	} else {
		outcome, counters, err = s.repo.CastOrUpdate(ctx, drugID, token, value)
	}
	if err != nil {
		return nil, err
	}

	// State changed: drop cached search pages and the rating snapshot so
	// the next read re-fetches. Ranking itself is pull-based.
	if s.cache != nil && outcome != model.OutcomeUnchanged && outcome != model.OutcomeNotFound {
		if err := s.cache.InvalidateDrug(ctx, drugID); err != nil {
			log.Printf("cache: invalidate drug error: %v", err)
		}
	}

	return &model.VoteResponse{
		Status: statusFor(outcome),
		Rating: counters,
	}, nil
}

// Status reports whether this caller currently has a vote on the drug, so
// the client can render a cast-vs-switch affordance before submitting.
// Failures here must not block a subsequent Submit: the ledger absorbs
// duplicate casts on its own.
func (s *VoteService) Status(ctx context.Context, drugID, networkAddress, clientSignature string) (*model.VoteStatusResponse, error) {
	drugID = strings.TrimSpace(drugID)
	if drugID == "" {
		return nil, fmt.Errorf("%w: drugId is required", model.ErrInvalidInput)
	}

	token := identity.Resolve(networkAddress, clientSignature)
	vote, err := s.repo.GetVote(ctx, drugID, token)
	if err != nil {
		return nil, err
	}

	resp := &model.VoteStatusResponse{DrugID: drugID}
	if vote != nil {
		resp.HasVoted = true
		v := string(vote.Value)
		resp.VoteValue = &v
	}
	return resp, nil
}

func statusFor(outcome model.VoteOutcome) string {
	switch outcome {
	case model.OutcomeCreated, model.OutcomeSwitched:
		return "recorded"
	case model.OutcomeRemoved:
		return "removed"
	default:
		return "noop"
	}
}
