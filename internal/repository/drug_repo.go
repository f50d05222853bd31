package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Linesmerrill/RxVerify/internal/model"
)

type DrugRepo struct {
	pool *pgxpool.Pool
}

func NewDrugRepo(pool *pgxpool.Pool) *DrugRepo {
	return &DrugRepo{pool: pool}
}

// SearchStrategy selects which candidate query to run for a search.
type SearchStrategy string

const (
	StrategyGeneric     SearchStrategy = "generic"
	StrategyBrand       SearchStrategy = "brand"
	StrategyCombination SearchStrategy = "combination"
	StrategyGeneral     SearchStrategy = "general"
)

// combinationIndicators are query words that suggest the user is looking
// for a multi-drug combination.
var combinationIndicators = []string{" and ", " with ", " plus ", "+", "-"}

// DetermineStrategy picks the candidate query based on query shape:
// combination indicators select combination entries, an uppercase-looking
// query selects brand entries, a plain lowercase word selects generics.
func DetermineStrategy(query string) SearchStrategy {
	lower := strings.ToLower(query)
	for _, ind := range combinationIndicators {
		if strings.Contains(lower, ind) {
			return StrategyCombination
		}
	}
	if query == strings.ToUpper(query) && query != lower {
		return StrategyBrand
	}
	if len(query) > 3 && query == lower {
		return StrategyGeneric
	}
	return StrategyGeneral
}

// SearchCandidates returns the unranked candidate set for a query: every
// catalog entry whose name or search terms contain the query, joined with
// its current rating counters. Ordering and hiding are the ranking
// engine's job, not the repository's.
func (r *DrugRepo) SearchCandidates(ctx context.Context, query string, limit int) ([]model.DrugSearchResult, error) {
	strategy := DetermineStrategy(query)

	base := `
		SELECT d.drug_id, d.name, d.drug_type, d.generic_name, d.brand_names,
		       d.drug_class, d.common_uses, d.manufacturer, d.rxnorm_id,
		       COALESCE(r.rating_score, 0), COALESCE(r.total_votes, 0),
		       COALESCE(r.upvotes, 0), COALESCE(r.downvotes, 0)
		FROM drugs d
		LEFT JOIN drug_ratings r ON r.drug_id = d.drug_id
		WHERE (d.name ILIKE '%' || $1 || '%'
		   OR  d.search_terms ILIKE '%' || $1 || '%'
		   OR  array_to_string(d.brand_names, ' ') ILIKE '%' || $1 || '%')`

	var typeFilter string
	switch strategy {
	case StrategyGeneric:
		typeFilter = ` AND d.drug_type = 'generic'`
	case StrategyCombination:
		typeFilter = ` AND d.drug_type = 'combination'`
	}

	rows, err := r.pool.Query(ctx, base+typeFilter+` LIMIT $2`, strings.ToLower(query), limit)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer rows.Close()

	results, err := scanCandidates(rows, string(strategy))
	if err != nil {
		return nil, err
	}

	// A narrowed strategy can miss (e.g. lowercase brand name typed by
	// the user). Fall back to the general query rather than return empty.
	if len(results) == 0 && typeFilter != "" {
		rows, err := r.pool.Query(ctx, base+` LIMIT $2`, strings.ToLower(query), limit)
		if err != nil {
			return nil, classifyStoreErr(err)
		}
		defer rows.Close()
		return scanCandidates(rows, string(StrategyGeneral))
	}
	return results, nil
}

func scanCandidates(rows pgx.Rows, matchType string) ([]model.DrugSearchResult, error) {
	var results []model.DrugSearchResult
	for rows.Next() {
		var d model.DrugSearchResult
		err := rows.Scan(&d.DrugID, &d.Name, &d.DrugType, &d.GenericName, &d.BrandNames,
			&d.DrugClass, &d.CommonUses, &d.Manufacturer, &d.RxNormID,
			&d.RatingScore, &d.TotalVotes, &d.Upvotes, &d.Downvotes)
		if err != nil {
			return nil, err
		}
		d.MatchType = matchType
		results = append(results, d)
	}
	return results, rows.Err()
}

// Suggest returns drug names for autocomplete, prefix matches first.
func (r *DrugRepo) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name FROM drugs
		WHERE name ILIKE $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY (name ILIKE $1 || '%') DESC, search_count DESC, name
		LIMIT $2`,
		strings.ToLower(prefix), limit)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// FindByDrugID returns a single catalog entry.
func (r *DrugRepo) FindByDrugID(ctx context.Context, drugID string) (*model.Drug, error) {
	var d model.Drug
	err := r.pool.QueryRow(ctx, `
		SELECT drug_id, name, drug_type, generic_name, brand_names, drug_class,
		       common_uses, manufacturer, rxnorm_id, search_count, created_at, last_updated
		FROM drugs WHERE drug_id = $1`,
		drugID).Scan(&d.DrugID, &d.Name, &d.DrugType, &d.GenericName, &d.BrandNames,
		&d.DrugClass, &d.CommonUses, &d.Manufacturer, &d.RxNormID,
		&d.SearchCount, &d.CreatedAt, &d.LastUpdated)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return &d, nil
}

// GetRatingSnapshot returns the drug's counters plus whether it currently
// meets the auto-hide criteria.
func (r *DrugRepo) GetRatingSnapshot(ctx context.Context, drugID string, hideThreshold float64, minVotes int) (*model.RatingSnapshot, error) {
	snap := model.RatingSnapshot{DrugID: drugID}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(r.upvotes, 0), COALESCE(r.downvotes, 0),
		       COALESCE(r.total_votes, 0), COALESCE(r.rating_score, 0),
		       COALESCE(r.last_updated, d.last_updated)
		FROM drugs d
		LEFT JOIN drug_ratings r ON r.drug_id = d.drug_id
		WHERE d.drug_id = $1`,
		drugID).Scan(&snap.Counters.Upvotes, &snap.Counters.Downvotes,
		&snap.Counters.TotalVotes, &snap.Counters.RatingScore, &snap.LastUpdated)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	snap.IsHidden = snap.Counters.ShouldHide(hideThreshold, minVotes)
	return &snap, nil
}

// HiddenDrugs lists catalog entries currently meeting the auto-hide
// criteria, worst-rated first, for admin review.
func (r *DrugRepo) HiddenDrugs(ctx context.Context, hideThreshold float64, minVotes, limit int) ([]model.HiddenDrug, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.drug_id, d.name, r.rating_score, r.total_votes, r.upvotes, r.downvotes, r.last_updated
		FROM drugs d
		JOIN drug_ratings r ON r.drug_id = d.drug_id
		WHERE r.rating_score <= $1 AND r.total_votes >= $2
		ORDER BY r.rating_score ASC, r.total_votes DESC
		LIMIT $3`,
		hideThreshold, minVotes, limit)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	defer rows.Close()

	var hidden []model.HiddenDrug
	for rows.Next() {
		var h model.HiddenDrug
		err := rows.Scan(&h.DrugID, &h.Name, &h.RatingScore, &h.TotalVotes,
			&h.Upvotes, &h.Downvotes, &h.LastUpdated)
		if err != nil {
			return nil, err
		}
		hidden = append(hidden, h)
	}
	return hidden, rows.Err()
}

// BumpSearchCount increments the popularity counters for the drugs that
// appeared in a result page. Best effort; failures are the caller's to log.
func (r *DrugRepo) BumpSearchCount(ctx context.Context, drugIDs []string) error {
	if len(drugIDs) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE drugs SET search_count = search_count + 1
		WHERE drug_id = ANY($1)`, drugIDs)
	return err
}

// GetStats returns aggregate catalog and vote statistics.
func (r *DrugRepo) GetStats(ctx context.Context, hideThreshold float64, minVotes int) (*model.StatsResponse, error) {
	var s model.StatsResponse
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM drugs) AS total_drugs,
			(SELECT COUNT(*) FROM drugs WHERE drug_type = 'generic') AS generic_drugs,
			(SELECT COUNT(*) FROM drugs WHERE drug_type = 'brand') AS brand_drugs,
			(SELECT COUNT(*) FROM drugs WHERE drug_type = 'combination') AS combination_drugs,
			(SELECT COALESCE(SUM(total_votes), 0) FROM drug_ratings) AS total_votes,
			(SELECT COALESCE(SUM(upvotes), 0) FROM drug_ratings) AS total_upvotes,
			(SELECT COALESCE(SUM(downvotes), 0) FROM drug_ratings) AS total_downvotes,
			(SELECT COALESCE(AVG(rating_score), 0) FROM drug_ratings WHERE total_votes > 0) AS average_rating,
			(SELECT COUNT(*) FROM drug_ratings WHERE rating_score <= $1 AND total_votes >= $2) AS hidden_drugs`,
		hideThreshold, minVotes).Scan(
		&s.TotalDrugs, &s.GenericDrugs, &s.BrandDrugs, &s.CombinationDrugs,
		&s.TotalVotes, &s.TotalUpvotes, &s.TotalDownvotes, &s.AverageRating, &s.HiddenDrugs)
	if err != nil {
		return nil, classifyStoreErr(err)
	}
	return &s, nil
}
