package service

import (
	"testing"

	"github.com/Linesmerrill/RxVerify/internal/config"
	"github.com/Linesmerrill/RxVerify/internal/model"
)

func testRankingConfig() config.RankingConfig {
	return config.RankingConfig{
		BaseScore:   50,
		PrefixBonus: 50,
		TypeWeights: map[model.DrugType]float64{
			model.DrugTypeGeneric:     30,
			model.DrugTypeBrand:       20,
			model.DrugTypeCombination: 10,
		},
		VoteMultiplier:          25,
		SocialProofBonus:        10,
		VoteConfidenceThreshold: 5,
		HideRatingThreshold:     -0.5,
		HideConfidenceThreshold: 3,
	}
}

func candidate(id, name string, drugType model.DrugType, up, down int) model.DrugSearchResult {
	total := up + down
	score := 0.0
	if total > 0 {
		score = float64(up-down) / float64(total)
	}
	return model.DrugSearchResult{
		DrugID:      id,
		Name:        name,
		DrugType:    drugType,
		Upvotes:     up,
		Downvotes:   down,
		TotalVotes:  total,
		RatingScore: score,
	}
}

func TestRank_GenericOutranksCombinationWithoutVotes(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	a := candidate("drug-a", "Metformin", model.DrugTypeGeneric, 0, 0)
	b := candidate("drug-b", "Metformin-Glyburide", model.DrugTypeCombination, 0, 0)

	got := svc.Rank("met", []model.DrugSearchResult{b, a})

	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].DrugID != "drug-a" {
		t.Errorf("first result = %s, want drug-a", got[0].DrugID)
	}
	// base 50 + prefix 50 + generic 30 = 130
	if got[0].RelevanceScore != 130 {
		t.Errorf("drug-a score = %v, want 130", got[0].RelevanceScore)
	}
	// base 50 + prefix 50 + combination 10 = 110
	if got[1].RelevanceScore != 110 {
		t.Errorf("drug-b score = %v, want 110", got[1].RelevanceScore)
	}
}

func TestRank_VotesOverturnTypeGap(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	a := candidate("drug-a", "Metformin", model.DrugTypeGeneric, 0, 0)
	b := candidate("drug-b", "Metformin-Glyburide", model.DrugTypeCombination, 5, 0)

	got := svc.Rank("met", []model.DrugSearchResult{a, b})

	// B: base 50 + prefix 50 + combination 10 + rating 1.0*25 + social proof 10 = 145
	if got[0].DrugID != "drug-b" {
		t.Errorf("first result = %s, want drug-b after 5 upvotes", got[0].DrugID)
	}
	if got[0].RelevanceScore != 145 {
		t.Errorf("drug-b score = %v, want 145", got[0].RelevanceScore)
	}
	if got[1].RelevanceScore != 130 {
		t.Errorf("drug-a score = %v, want 130", got[1].RelevanceScore)
	}
}

func TestRank_PrefixOutranksSubstring(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	prefix := candidate("drug-p", "Metformin", model.DrugTypeGeneric, 0, 0)
	substr := candidate("drug-s", "Demetformin", model.DrugTypeGeneric, 0, 0)

	got := svc.Rank("met", []model.DrugSearchResult{substr, prefix})
	if got[0].DrugID != "drug-p" {
		t.Errorf("prefix match should rank first, got %s", got[0].DrugID)
	}
}

func TestRank_SocialProofRequiresThreshold(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	// 4 votes: below the confidence threshold of 5, no social-proof bonus.
	four := candidate("drug-4", "Aspirin", model.DrugTypeGeneric, 4, 0)
	got := svc.Rank("aspirin", []model.DrugSearchResult{four})
	// base 50 + prefix 50 + generic 30 + 1.0*25 = 155
	if got[0].RelevanceScore != 155 {
		t.Errorf("score = %v, want 155 (no social proof below threshold)", got[0].RelevanceScore)
	}

	five := candidate("drug-5", "Aspirin", model.DrugTypeGeneric, 5, 0)
	got = svc.Rank("aspirin", []model.DrugSearchResult{five})
	if got[0].RelevanceScore != 165 {
		t.Errorf("score = %v, want 165 (social proof at threshold)", got[0].RelevanceScore)
	}
}

func TestRank_AutoHideBoundary(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	tests := []struct {
		name    string
		c       model.DrugSearchResult
		visible bool
	}{
		{"negative but below confidence", candidate("d1", "Baddrug", model.DrugTypeGeneric, 0, 2), true},    // -1.0, 2 votes
		{"at rating boundary with confidence", candidate("d2", "Baddrug", model.DrugTypeGeneric, 1, 3), false}, // -0.5, 4 votes
		{"below boundary with confidence", candidate("d3", "Baddrug", model.DrugTypeGeneric, 0, 3), false},     // -1.0, 3 votes
		{"slightly above boundary", candidate("d4", "Baddrug", model.DrugTypeGeneric, 2, 3), true},             // -0.2, 5 votes
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Rank("baddrug", []model.DrugSearchResult{tt.c})
			if visible := len(got) == 1; visible != tt.visible {
				t.Errorf("visible = %v, want %v", visible, tt.visible)
			}
		})
	}
}

func TestRank_HideBoundaryFromRawRating(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	// rating -0.5 with only 2 votes must still appear.
	lowConfidence := model.DrugSearchResult{
		DrugID: "d-low", Name: "Edge", DrugType: model.DrugTypeGeneric,
		RatingScore: -0.5, TotalVotes: 2,
	}
	// rating -0.6 with 3 votes must not.
	confident := model.DrugSearchResult{
		DrugID: "d-conf", Name: "Edge", DrugType: model.DrugTypeGeneric,
		RatingScore: -0.6, TotalVotes: 3,
	}

	got := svc.Rank("edge", []model.DrugSearchResult{lowConfidence, confident})
	if len(got) != 1 || got[0].DrugID != "d-low" {
		t.Errorf("got %v, want only d-low visible", got)
	}
}

func TestRank_ScoreMonotonicity(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	// Otherwise-identical drugs: higher rating with equal-or-greater
	// votes must never rank lower.
	better := candidate("d-better", "Lisinopril", model.DrugTypeGeneric, 6, 1)
	worse := candidate("d-worse", "Lisinopril", model.DrugTypeGeneric, 3, 4)

	got := svc.Rank("lisinopril", []model.DrugSearchResult{worse, better})
	if got[0].DrugID != "d-better" {
		t.Errorf("higher-rated drug ranked lower: %v", got)
	}
}

func TestRank_TieBreakOrder(t *testing.T) {
	cfg := testRankingConfig()
	// Zero the prefix bonus so the prefix flag breaks an exact score tie.
	cfg.PrefixBonus = 0
	svc := NewRankingService(cfg)

	prefixMatch := candidate("d-prefix", "Metoprolol", model.DrugTypeGeneric, 0, 0)
	substrMatch := candidate("d-substr", "Dimetoprolol", model.DrugTypeGeneric, 0, 0)

	got := svc.Rank("met", []model.DrugSearchResult{substrMatch, prefixMatch})
	if got[0].DrugID != "d-prefix" {
		t.Errorf("equal scores: prefix match should win tie-break, got %s", got[0].DrugID)
	}
}

func TestRank_TieBreakByVotesThenStableOrder(t *testing.T) {
	cfg := testRankingConfig()
	cfg.VoteMultiplier = 0
	cfg.SocialProofBonus = 0
	svc := NewRankingService(cfg)

	// Equal scores, equal prefix and type; more votes wins.
	popular := candidate("d-popular", "Metformin ER", model.DrugTypeGeneric, 4, 4)
	quiet := candidate("d-quiet", "Metformin XR", model.DrugTypeGeneric, 0, 0)

	got := svc.Rank("met", []model.DrugSearchResult{quiet, popular})
	if got[0].DrugID != "d-popular" {
		t.Errorf("higher vote count should win tie-break, got %s", got[0].DrugID)
	}

	// Fully identical: original order is preserved (stable sort).
	first := candidate("d-first", "Metformin A", model.DrugTypeGeneric, 0, 0)
	second := candidate("d-second", "Metformin B", model.DrugTypeGeneric, 0, 0)
	got = svc.Rank("met", []model.DrugSearchResult{first, second})
	if got[0].DrugID != "d-first" || got[1].DrugID != "d-second" {
		t.Errorf("stable order not preserved: %s, %s", got[0].DrugID, got[1].DrugID)
	}
}

func TestRank_Determinism(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	candidates := []model.DrugSearchResult{
		candidate("d1", "Metformin", model.DrugTypeGeneric, 3, 1),
		candidate("d2", "Glucophage", model.DrugTypeBrand, 5, 0),
		candidate("d3", "Metformin-Glyburide", model.DrugTypeCombination, 0, 0),
		candidate("d4", "Metoprolol", model.DrugTypeGeneric, 1, 1),
	}

	first := svc.Rank("met", candidates)
	second := svc.Rank("met", candidates)

	if len(first) != len(second) {
		t.Fatalf("result lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].DrugID != second[i].DrugID {
			t.Errorf("position %d differs: %s vs %s", i, first[i].DrugID, second[i].DrugID)
		}
	}
}

func TestRank_DropsUnscoreableCandidates(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	good := candidate("d-good", "Metformin", model.DrugTypeGeneric, 0, 0)
	noID := model.DrugSearchResult{Name: "Ghost"}
	noName := model.DrugSearchResult{DrugID: "d-noname"}

	got := svc.Rank("met", []model.DrugSearchResult{noID, good, noName})
	if len(got) != 1 || got[0].DrugID != "d-good" {
		t.Errorf("expected only the scoreable candidate, got %v", got)
	}
}

func TestRank_EmptyCandidates(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	got := svc.Rank("anything", nil)
	if len(got) != 0 {
		t.Errorf("empty input should yield empty output, got %v", got)
	}
}

func TestRank_CaseInsensitivePrefix(t *testing.T) {
	svc := NewRankingService(testRankingConfig())

	c := candidate("d1", "Metformin", model.DrugTypeGeneric, 0, 0)
	got := svc.Rank("MET", []model.DrugSearchResult{c})
	if got[0].RelevanceScore != 130 {
		t.Errorf("uppercase query should still prefix-match: score = %v, want 130", got[0].RelevanceScore)
	}
}
