package filter

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/domain/document"
)

// Filter is the structural pre-filter applied before similarity scoring.
// Province and category match case-insensitively by containment.
type Filter struct {
	province string
	category string
	rating   *Range
}

// New creates a Filter. Empty values disable the respective clause.
func New(province, category string, rating *Range) Filter {
	return Filter{
		province: strings.ToLower(strings.TrimSpace(province)),
		category: strings.ToLower(strings.TrimSpace(category)),
		rating:   rating,
	}
}

// Province returns the normalized province clause.
func (f Filter) Province() string { return f.province }

// Category returns the normalized category clause.
func (f Filter) Category() string { return f.category }

// Rating returns the rating range, or nil.
func (f Filter) Rating() *Range { return f.rating }

// IsEmpty reports whether the filter has no clauses.
func (f Filter) IsEmpty() bool {
	return f.province == "" && f.category == "" && f.rating == nil
}

// Matches reports whether doc passes every clause.
func (f Filter) Matches(doc *document.Document) bool {
	if f.province != "" && !strings.Contains(strings.ToLower(doc.Province()), f.province) {
		return false
	}
	if f.category != "" && !strings.Contains(strings.ToLower(doc.Category()), f.category) {
		return false
	}
	if f.rating != nil && !f.rating.Contains(doc.Rating()) {
		return false
	}
	return true
}

// Range is a numeric range with gt/gte/lt/lte boundaries.
type Range struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewRangeFilter validates and creates a Range.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewRangeFilter(gt, gte, lt, lte *float64) (Range, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return Range{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return Range{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return Range{}, fmt.Errorf("cannot specify both lt and lte")
	}
	lower, hasLower := bound(gt, gte)
	upper, hasUpper := bound(lt, lte)
	if hasLower && hasUpper && lower > upper {
		return Range{}, fmt.Errorf("lower bound %g exceeds upper bound %g", lower, upper)
	}
	return Range{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

func bound(exclusive, inclusive *float64) (float64, bool) {
	if exclusive != nil {
		return *exclusive, true
	}
	if inclusive != nil {
		return *inclusive, true
	}
	return 0, false
}

// GT returns the lower exclusive bound.
func (r Range) GT() *float64 { return r.gt }

// GTE returns the lower inclusive bound.
func (r Range) GTE() *float64 { return r.gte }

// LT returns the upper exclusive bound.
func (r Range) LT() *float64 { return r.lt }

// LTE returns the upper inclusive bound.
func (r Range) LTE() *float64 { return r.lte }

// Contains reports whether v satisfies every boundary.
func (r Range) Contains(v float64) bool {
	if r.gt != nil && v <= *r.gt {
		return false
	}
	if r.gte != nil && v < *r.gte {
		return false
	}
	if r.lt != nil && v >= *r.lt {
		return false
	}
	if r.lte != nil && v > *r.lte {
		return false
	}
	return true
}
