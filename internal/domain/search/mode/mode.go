package mode

import "fmt"

// Mode is the result ordering strategy.
type Mode string

// Sort mode constants.
const (
	// Relevance orders by the weighted popularity/recency score.
	Relevance  Mode = "relevance"
	Distance   Mode = "distance"
	Popularity Mode = "popularity"
	Newest     Mode = "newest"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Relevance || m == Distance || m == Popularity || m == Newest
}

// Parse converts a raw value into a Mode. Empty input means Relevance.
func Parse(s string) (Mode, error) {
	if s == "" {
		return Relevance, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("unknown sort mode %q (want relevance, distance, popularity or newest)", s)
	}
	return m, nil
}
