package model

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestRatingScore(t *testing.T) {
	tests := []struct {
		name string
		rc   RatingCounters
		want float64
	}{
		{"no votes", RatingCounters{}, 0.0},
		{"all upvotes", RatingCounters{Upvotes: 5, TotalVotes: 5}, 1.0},
		{"all downvotes", RatingCounters{Downvotes: 4, TotalVotes: 4}, -1.0},
		{"even split", RatingCounters{Upvotes: 3, Downvotes: 3, TotalVotes: 6}, 0.0},
		{"2 up 1 down", RatingCounters{Upvotes: 2, Downvotes: 1, TotalVotes: 3}, 1.0 / 3.0},
		{"1 up 3 down", RatingCounters{Upvotes: 1, Downvotes: 3, TotalVotes: 4}, -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rc.Score(); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApply_TransitionTable(t *testing.T) {
	start := RatingCounters{Upvotes: 3, Downvotes: 1, TotalVotes: 4, RatingScore: 0.5}

	tests := []struct {
		name     string
		outcome  VoteOutcome
		oldValue VoteValue
		newValue VoteValue
		want     RatingCounters
	}{
		{"created up", OutcomeCreated, "", VoteUp,
			RatingCounters{Upvotes: 4, Downvotes: 1, TotalVotes: 5, RatingScore: 0.6}},
		{"created down", OutcomeCreated, "", VoteDown,
			RatingCounters{Upvotes: 3, Downvotes: 2, TotalVotes: 5, RatingScore: 0.2}},
		{"switched up to down", OutcomeSwitched, VoteUp, VoteDown,
			RatingCounters{Upvotes: 2, Downvotes: 2, TotalVotes: 4, RatingScore: 0.0}},
		{"switched down to up", OutcomeSwitched, VoteDown, VoteUp,
			RatingCounters{Upvotes: 4, Downvotes: 0, TotalVotes: 4, RatingScore: 1.0}},
		{"removed up", OutcomeRemoved, VoteUp, "",
			RatingCounters{Upvotes: 2, Downvotes: 1, TotalVotes: 3, RatingScore: 1.0 / 3.0}},
		{"removed down", OutcomeRemoved, VoteDown, "",
			RatingCounters{Upvotes: 3, Downvotes: 0, TotalVotes: 3, RatingScore: 1.0}},
		{"unchanged is noop", OutcomeUnchanged, VoteUp, VoteUp, start},
		{"notfound is noop", OutcomeNotFound, "", "", start},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := start.Apply(tt.outcome, tt.oldValue, tt.newValue)
			if got.Upvotes != tt.want.Upvotes || got.Downvotes != tt.want.Downvotes ||
				got.TotalVotes != tt.want.TotalVotes {
				t.Errorf("Apply() counters = %+v, want %+v", got, tt.want)
			}
			if !almostEqual(got.RatingScore, tt.want.RatingScore, 1e-9) {
				t.Errorf("Apply() score = %v, want %v", got.RatingScore, tt.want.RatingScore)
			}
		})
	}
}

func TestApply_SwitchConservation(t *testing.T) {
	// Cast up then switch to down: upvotes -1, downvotes +1, total unchanged.
	rc := RatingCounters{}
	rc = rc.Apply(OutcomeCreated, "", VoteUp)
	afterCast := rc
	rc = rc.Apply(OutcomeSwitched, VoteUp, VoteDown)

	if rc.TotalVotes != afterCast.TotalVotes {
		t.Errorf("total changed on switch: %d -> %d", afterCast.TotalVotes, rc.TotalVotes)
	}
	if rc.Upvotes != afterCast.Upvotes-1 {
		t.Errorf("upvotes = %d, want %d", rc.Upvotes, afterCast.Upvotes-1)
	}
	if rc.Downvotes != afterCast.Downvotes+1 {
		t.Errorf("downvotes = %d, want %d", rc.Downvotes, afterCast.Downvotes+1)
	}
}

func TestApply_TotalInvariant(t *testing.T) {
	// total == up + down must hold through any transition sequence.
	rc := RatingCounters{}
	seq := []struct {
		outcome  VoteOutcome
		oldValue VoteValue
		newValue VoteValue
	}{
		{OutcomeCreated, "", VoteUp},
		{OutcomeCreated, "", VoteDown},
		{OutcomeCreated, "", VoteUp},
		{OutcomeSwitched, VoteDown, VoteUp},
		{OutcomeUnchanged, VoteUp, VoteUp},
		{OutcomeRemoved, VoteUp, ""},
		{OutcomeNotFound, "", ""},
	}
	for i, step := range seq {
		rc = rc.Apply(step.outcome, step.oldValue, step.newValue)
		if rc.TotalVotes != rc.Upvotes+rc.Downvotes {
			t.Fatalf("step %d: total=%d but up+down=%d", i, rc.TotalVotes, rc.Upvotes+rc.Downvotes)
		}
	}
}

func TestApply_ReplayConsistency(t *testing.T) {
	// Counters accumulated transition-by-transition must equal counters
	// recomputed by replaying the surviving votes from scratch.
	type op struct {
		identity string
		value    VoteValue // "" means retract
	}
	ops := []op{
		{"alice", VoteUp},
		{"bob", VoteDown},
		{"carol", VoteUp},
		{"bob", VoteUp},    // switch
		{"alice", VoteUp},  // duplicate, absorbed
		{"carol", ""},      // retract
		{"carol", ""},      // retract again, NotFound
		{"dave", VoteDown},
	}

	ledger := make(map[string]VoteValue)
	rc := RatingCounters{}
	for _, o := range ops {
		existing, has := ledger[o.identity]
		switch {
		case o.value == "" && !has:
			rc = rc.Apply(OutcomeNotFound, "", "")
		case o.value == "":
			delete(ledger, o.identity)
			rc = rc.Apply(OutcomeRemoved, existing, "")
		case !has:
			ledger[o.identity] = o.value
			rc = rc.Apply(OutcomeCreated, "", o.value)
		case existing == o.value:
			rc = rc.Apply(OutcomeUnchanged, existing, o.value)
		default:
			ledger[o.identity] = o.value
			rc = rc.Apply(OutcomeSwitched, existing, o.value)
		}
	}

	var replayed RatingCounters
	for _, v := range ledger {
		replayed = replayed.Apply(OutcomeCreated, "", v)
	}

	if rc.Upvotes != replayed.Upvotes || rc.Downvotes != replayed.Downvotes ||
		rc.TotalVotes != replayed.TotalVotes {
		t.Errorf("drift: accumulated %+v, replayed %+v", rc, replayed)
	}
	if !almostEqual(rc.RatingScore, replayed.RatingScore, 1e-9) {
		t.Errorf("score drift: accumulated %v, replayed %v", rc.RatingScore, replayed.RatingScore)
	}
}

func TestApply_RetractIdempotence(t *testing.T) {
	rc := RatingCounters{}
	rc = rc.Apply(OutcomeCreated, "", VoteDown)
	afterRemove := rc.Apply(OutcomeRemoved, VoteDown, "")
	afterSecond := afterRemove.Apply(OutcomeNotFound, "", "")

	if afterRemove != afterSecond {
		t.Errorf("second retract changed counters: %+v vs %+v", afterRemove, afterSecond)
	}
}

func TestShouldHide(t *testing.T) {
	tests := []struct {
		name string
		rc   RatingCounters
		want bool
	}{
		{"negative but low confidence", RatingCounters{Upvotes: 0, Downvotes: 2, TotalVotes: 2, RatingScore: -1.0}, false},
		{"at rating boundary with confidence", RatingCounters{Upvotes: 1, Downvotes: 3, TotalVotes: 4, RatingScore: -0.5}, true},
		{"below boundary with confidence", RatingCounters{Upvotes: 0, Downvotes: 3, TotalVotes: 3, RatingScore: -1.0}, true},
		{"positive with confidence", RatingCounters{Upvotes: 5, Downvotes: 1, TotalVotes: 6, RatingScore: 4.0 / 6.0}, false},
		{"no votes", RatingCounters{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rc.ShouldHide(-0.5, 3); got != tt.want {
				t.Errorf("ShouldHide() = %v, want %v", got, tt.want)
			}
		})
	}
}
