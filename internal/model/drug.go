package model

import "time"

// DrugType classifies a catalog entry. Types are strictly ordered for
// ranking purposes: generic outranks brand outranks combination.
type DrugType string

const (
	DrugTypeGeneric     DrugType = "generic"     // single-concept generic name (e.g. "Metformin")
	DrugTypeBrand       DrugType = "brand"       // brand name (e.g. "Glucophage")
	DrugTypeCombination DrugType = "combination" // multi-drug combination (e.g. "Metformin-Glyburide")
)

// ValidDrugTypes are the allowed drug_type values.
var ValidDrugTypes = map[DrugType]bool{
	DrugTypeGeneric:     true,
	DrugTypeBrand:       true,
	DrugTypeCombination: true,
}

// Drug represents a catalog entry in the curated drug database.
type Drug struct {
	DrugID       string    `json:"drugId"`
	Name         string    `json:"name"`
	DrugType     DrugType  `json:"drugType"`
	GenericName  *string   `json:"genericName,omitempty"`
	BrandNames   []string  `json:"brandNames"`
	DrugClass    *string   `json:"drugClass,omitempty"`
	CommonUses   []string  `json:"commonUses"`
	Manufacturer *string   `json:"manufacturer,omitempty"`
	RxNormID     *string   `json:"rxcui,omitempty"`
	SearchCount  int       `json:"-"`
	CreatedAt    time.Time `json:"-"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// DrugSearchResult is one scored candidate in a search response. Rating
// fields are a snapshot of the drug_ratings counters at query time.
type DrugSearchResult struct {
	DrugID         string   `json:"drugId"`
	Name           string   `json:"name"`
	DrugType       DrugType `json:"drugType"`
	GenericName    *string  `json:"genericName,omitempty"`
	BrandNames     []string `json:"brandNames"`
	DrugClass      *string  `json:"drugClass,omitempty"`
	CommonUses     []string `json:"commonUses"`
	Manufacturer   *string  `json:"manufacturer,omitempty"`
	RxNormID       *string  `json:"rxcui,omitempty"`
	MatchType      string   `json:"matchType"`
	RelevanceScore float64  `json:"relevanceScore"`
	RatingScore    float64  `json:"ratingScore"`
	TotalVotes     int      `json:"totalVotes"`
	Upvotes        int      `json:"upvotes"`
	Downvotes      int      `json:"downvotes"`
}

// SearchResponse is the API response for GET /api/drugs/search.
type SearchResponse struct {
	Query   string             `json:"query"`
	Results []DrugSearchResult `json:"results"`
	Total   int                `json:"total"`
}

// StatsResponse is the API response for GET /api/stats.
type StatsResponse struct {
	TotalDrugs       int     `json:"totalDrugs"`
	GenericDrugs     int     `json:"genericDrugs"`
	BrandDrugs       int     `json:"brandDrugs"`
	CombinationDrugs int     `json:"combinationDrugs"`
	TotalVotes       int     `json:"totalVotes"`
	TotalUpvotes     int     `json:"totalUpvotes"`
	TotalDownvotes   int     `json:"totalDownvotes"`
	AverageRating    float64 `json:"averageRating"`
	HiddenDrugs      int     `json:"hiddenDrugs"`
}
