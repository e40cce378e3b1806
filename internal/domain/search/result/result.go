package result

import (
	"time"

	"github.com/kailas-cloud/tourdex/internal/domain/document"
)

// Tier identifies which matching rule produced a similarity score.
type Tier string

// Match tiers, strongest first.
const (
	TierExact    Tier = "exact"
	TierContains Tier = "contains"
	TierWord     Tier = "word"
	TierFuzzy    Tier = "fuzzy"
)

// Match is the best similarity of one document against the query terms.
type Match struct {
	DocumentID string
	Score      float64
	Field      string
	Term       string
	Tier       Tier
}

// MatchedField renders the field and tier as "name:exact".
func (m Match) MatchedField() string {
	return m.Field + ":" + string(m.Tier)
}

// Ranked is a matched document with its final ordering score.
type Ranked struct {
	Match      Match
	Document   document.Document
	Score      float64
	Popularity float64
	Recency    float64
	DistanceKm *float64
}

// SuggestionType classifies a suggestion.
type SuggestionType string

// Suggestion types.
const (
	SuggestionPlace      SuggestionType = "place"
	SuggestionCategory   SuggestionType = "category"
	SuggestionAttraction SuggestionType = "attraction"
)

// Suggestion is a query refinement offered alongside results.
type Suggestion struct {
	Type       SuggestionType
	Text       string
	DocumentID string
}

// Response is the assembled output of one search.
type Response struct {
	Query       string
	Normalized  string
	Expansion   []string
	Results     []Ranked
	Suggestions []Suggestion
	TotalCount  int
	Latency     time.Duration
}
