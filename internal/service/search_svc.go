package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/Linesmerrill/RxVerify/internal/config"
	"github.com/Linesmerrill/RxVerify/internal/model"
	"github.com/Linesmerrill/RxVerify/internal/repository"
)

// minQueryLen mirrors the catalog's shortest useful search term.
const minQueryLen = 2

// SearchService orchestrates a search: fetch candidates from the catalog,
// hand them to the ranking engine, cache the page, and bump popularity
// counters. Candidate supply and ranking stay separate so the engine
// remains a pure function of its inputs.
type SearchService struct {
	repo    *repository.DrugRepo
	ranking *RankingService
	cache   *CacheService
	cfg     config.RankingConfig
}

func NewSearchService(repo *repository.DrugRepo, ranking *RankingService, cache *CacheService, cfg config.RankingConfig) *SearchService {
	return &SearchService{repo: repo, ranking: ranking, cache: cache, cfg: cfg}
}

// Search returns the ranked result page for a query. Queries shorter than
// two characters yield an empty page, not an error.
func (s *SearchService) Search(ctx context.Context, query string, limit int) (*model.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLen {
		return &model.SearchResponse{Query: query, Results: []model.DrugSearchResult{}}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetSearch(ctx, query, limit)
		if err != nil {
			log.Printf("cache: search get error: %v", err)
		} else if cached != nil {
			cacheHits.Inc()
			var resp model.SearchResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				return &resp, nil
			}
		} else {
			cacheMisses.Inc()
		}
	}

	// Over-fetch so the auto-hide filter can drop items without
	// shrinking the page below the requested size.
	candidates, err := s.repo.SearchCandidates(ctx, query, limit*2)
	if err != nil {
		return nil, err
	}

	ranked := s.ranking.Rank(query, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	if ranked == nil {
		ranked = []model.DrugSearchResult{}
	}

	resp := &model.SearchResponse{Query: query, Results: ranked, Total: len(ranked)}

	if s.cache != nil {
		if err := s.cache.SetSearch(ctx, query, limit, resp); err != nil {
			log.Printf("cache: search set error: %v", err)
		}
	}

	// Popularity bump is best effort and off the request's critical path.
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.DrugID
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.repo.BumpSearchCount(ctx, ids); err != nil {
			log.Printf("search: bump search count error: %v", err)
		}
	}()

	return resp, nil
}

// Suggest returns drug name completions for a partial query.
func (s *SearchService) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if len(prefix) < minQueryLen {
		return []string{}, nil
	}
	names, err := s.repo.Suggest(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Rating returns the cached-or-fresh rating snapshot for a drug.
func (s *SearchService) Rating(ctx context.Context, drugID string) (*model.RatingSnapshot, error) {
	if s.cache != nil {
		cached, err := s.cache.GetRating(ctx, drugID)
		if err != nil {
			log.Printf("cache: rating get error: %v", err)
		} else if cached != nil {
			var snap model.RatingSnapshot
			if err := json.Unmarshal(cached, &snap); err == nil {
				return &snap, nil
			}
		}
	}

	snap, err := s.repo.GetRatingSnapshot(ctx, drugID, s.cfg.HideRatingThreshold, s.cfg.HideConfidenceThreshold)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetRating(ctx, drugID, snap); err != nil {
			log.Printf("cache: rating set error: %v", err)
		}
	}
	return snap, nil
}

// HiddenDrugs lists entries currently excluded by the auto-hide filter.
func (s *SearchService) HiddenDrugs(ctx context.Context, limit int) ([]model.HiddenDrug, error) {
	hidden, err := s.repo.HiddenDrugs(ctx, s.cfg.HideRatingThreshold, s.cfg.HideConfidenceThreshold, limit)
	if err != nil {
		return nil, err
	}
	if hidden == nil {
		hidden = []model.HiddenDrug{}
	}
	return hidden, nil
}

// Stats returns aggregate catalog and vote statistics.
func (s *SearchService) Stats(ctx context.Context) (*model.StatsResponse, error) {
	return s.repo.GetStats(ctx, s.cfg.HideRatingThreshold, s.cfg.HideConfidenceThreshold)
}
