package tourdex

import "time"

// SortMode controls result ordering.
type SortMode string

// Sort mode constants.
const (
	SortRelevance  SortMode = "relevance"
	SortDistance   SortMode = "distance"
	SortPopularity SortMode = "popularity"
	SortNewest     SortMode = "newest"
)

// Location is a WGS84 coordinate.
type Location struct {
	Lat float64
	Lng float64
}

// Attraction is a searchable place or post.
type Attraction struct {
	ID           string
	Name         string
	Caption      string
	Aliases      []string
	Tags         []string
	Province     string
	Category     string
	Rating       float64
	Location     *Location
	LikeCount    int
	CommentCount int
	CreatedAt    time.Time
}

// Hit is one ranked search result.
type Hit struct {
	Attraction   Attraction
	Score        float64  // final ordering score
	Similarity   float64  // best match similarity in [0, 1]
	MatchedField string   // field and tier, e.g. "name:exact"
	DistanceKm   *float64 // set for geo-scoped searches
}

// SuggestionType classifies a suggestion.
type SuggestionType string

// Suggestion type constants.
const (
	SuggestionPlace      SuggestionType = "place"
	SuggestionCategory   SuggestionType = "category"
	SuggestionAttraction SuggestionType = "attraction"
)

// Suggestion is a query refinement or an autocomplete entry.
type Suggestion struct {
	Type         SuggestionType
	Text         string
	AttractionID string // set for attraction suggestions
}

// SearchResponse is the outcome of one search.
type SearchResponse struct {
	Query       string
	Normalized  string
	Expansion   []string
	Hits        []Hit
	Suggestions []Suggestion
	TotalCount  int
	Latency     time.Duration
}
