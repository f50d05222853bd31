package service

import (
	"sort"
	"strings"

	"github.com/Linesmerrill/RxVerify/internal/config"
	"github.com/Linesmerrill/RxVerify/internal/middleware"
	"github.com/Linesmerrill/RxVerify/internal/model"
)

// RankingService orders search candidates by a composite relevance score.
// It is pure and read-only: given the same query, candidates, and counters
// it always produces the same ordering, so it can run with unlimited
// concurrency against whatever counter snapshot the repository supplied.
type RankingService struct {
	cfg config.RankingConfig
}

func NewRankingService(cfg config.RankingConfig) *RankingService {
	return &RankingService{cfg: cfg}
}

// scored pairs a candidate with its score terms. Prefix and type weight
// are kept separately because they double as tie-breakers.
type scored struct {
	result     model.DrugSearchResult
	score      float64
	prefix     bool
	typeWeight float64
	order      int
}

// Rank scores, filters, and sorts the candidate set. Candidates that
// cannot be scored (missing drug_id or name) are dropped with a warning
// rather than failing the query, and drugs meeting the auto-hide criteria
// are excluded entirely. An empty candidate set yields an empty result.
func (s *RankingService) Rank(query string, candidates []model.DrugSearchResult) []model.DrugSearchResult {
	queryLower := strings.ToLower(strings.TrimSpace(query))

	ranked := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		if c.DrugID == "" || c.Name == "" {
			middleware.Logger.Warn().
				Str("drug_id", c.DrugID).
				Str("query", queryLower).
				Msg("dropping unscoreable search candidate")
			continue
		}

		counters := model.RatingCounters{
			Upvotes:     c.Upvotes,
			Downvotes:   c.Downvotes,
			TotalVotes:  c.TotalVotes,
			RatingScore: c.RatingScore,
		}
		if counters.ShouldHide(s.cfg.HideRatingThreshold, s.cfg.HideConfidenceThreshold) {
			continue
		}

		sc := s.score(queryLower, c)
		sc.order = i
		ranked = append(ranked, sc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.prefix != b.prefix {
			return a.prefix
		}
		if a.typeWeight != b.typeWeight {
			return a.typeWeight > b.typeWeight
		}
		if a.result.TotalVotes != b.result.TotalVotes {
			return a.result.TotalVotes > b.result.TotalVotes
		}
		return a.order < b.order
	})

	out := make([]model.DrugSearchResult, len(ranked))
	for i, sc := range ranked {
		out[i] = sc.result
	}
	return out
}

// score computes the additive composite score. The terms are independent
// so each contribution stays auditable in isolation:
//
//	base + prefix bonus + type weight + rating*multiplier + social proof
func (s *RankingService) score(queryLower string, c model.DrugSearchResult) scored {
	sc := scored{result: c}

	sc.score = s.cfg.BaseScore

	if queryLower != "" && strings.HasPrefix(strings.ToLower(c.Name), queryLower) {
		sc.prefix = true
		sc.score += s.cfg.PrefixBonus
	}

	sc.typeWeight = s.cfg.TypeWeights[c.DrugType]
	sc.score += sc.typeWeight

	sc.score += c.RatingScore * s.cfg.VoteMultiplier

	if c.TotalVotes >= s.cfg.VoteConfidenceThreshold {
		sc.score += s.cfg.SocialProofBonus
	}

	sc.result.RelevanceScore = sc.score
	return sc
}
