// Package ranking orders matched documents by popularity, recency, distance or age.
package ranking

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default ranking constants.
const (
	DefaultWeightPopularity      = 0.7
	DefaultWeightRecency         = 0.3
	DefaultAlphaComment          = 2.0
	DefaultMaxExpectedEngagement = 1000.0
	DefaultTauMinutes            = 4320.0
)

// Params are the ranking weights and constants.
type Params struct {
	WeightPopularity      float64
	WeightRecency         float64
	AlphaComment          float64
	MaxExpectedEngagement float64
	TauMinutes            float64
	// RelevanceWeighted multiplies the relevance score by the match similarity.
	RelevanceWeighted bool
}

// DefaultParams returns the default ranking parameters.
func DefaultParams() Params {
	return Params{
		WeightPopularity:      DefaultWeightPopularity,
		WeightRecency:         DefaultWeightRecency,
		AlphaComment:          DefaultAlphaComment,
		MaxExpectedEngagement: DefaultMaxExpectedEngagement,
		TauMinutes:            DefaultTauMinutes,
	}
}

// Validate checks that all constants are usable.
func (p Params) Validate() error {
	var errs []error
	if p.WeightPopularity < 0 || p.WeightRecency < 0 {
		errs = append(errs, errors.New("weights must be non-negative"))
	}
	if p.WeightPopularity == 0 && p.WeightRecency == 0 {
		errs = append(errs, errors.New("at least one weight must be positive"))
	}
	if p.AlphaComment < 0 {
		errs = append(errs, fmt.Errorf("alpha_comment must be non-negative, got %g", p.AlphaComment))
	}
	if p.MaxExpectedEngagement <= 0 {
		errs = append(errs, fmt.Errorf("max_expected_engagement must be positive, got %g", p.MaxExpectedEngagement))
	}
	if p.TauMinutes <= 0 {
		errs = append(errs, fmt.Errorf("tau_minutes must be positive, got %g", p.TauMinutes))
	}
	return errors.Join(errs...)
}

// belowOne is the largest float64 less than 1.
var belowOne = math.Nextafter(1, 0)

// PopularityNorm maps engagement to [0, 1):
// log(1 + likes + alpha*comments) / log(1 + maxExpected).
func PopularityNorm(likes, comments int, alpha, maxExpected float64) float64 {
	raw := float64(likes) + alpha*float64(comments)
	if raw <= 0 || maxExpected <= 0 {
		return 0
	}
	return min(math.Log1p(raw)/math.Log1p(maxExpected), belowOne)
}

// RecencyDecay returns exp(-age/tau) in (0, 1]. Timestamps in the future have age zero.
func RecencyDecay(createdAt, now time.Time, tauMinutes float64) float64 {
	age := now.Sub(createdAt).Minutes()
	if age <= 0 {
		return 1
	}
	return max(math.Exp(-age/tauMinutes), math.SmallestNonzeroFloat64)
}
