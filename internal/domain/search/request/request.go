package request

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/domain/search/filter"
	"github.com/kailas-cloud/tourdex/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length in characters.
	MaxQueryLength  = 500
	DefaultLimit    = 20
	MaxLimit        = 100
	DefaultRadiusKm = 50.0
	MinRadiusKm     = 0.1
	MaxRadiusKm     = 100.0
	MinRating       = 0.0
	MaxRating       = 5.0
)

// Supported language hints. Empty means auto-detect.
const (
	LanguageAuto    = ""
	LanguageThai    = "th"
	LanguageEnglish = "en"
)

// GeoQuery holds the search center and radius.
type GeoQuery struct {
	Center   geo.Point
	RadiusKm float64
}

// Params carries raw, unvalidated search parameters from the transport layer.
type Params struct {
	Query     string
	Language  string
	Lat       *float64
	Lon       *float64
	RadiusKm  *float64
	Sort      string
	Limit     *int
	Offset    *int
	Province  string
	Category  string
	MinRating *float64
	MaxRating *float64
}

// Request is a validated search query.
type Request struct {
	query    string
	language string
	geoQuery *GeoQuery
	sortMode mode.Mode
	limit    int
	offset   int
	filter   filter.Filter
}

// New validates search parameters and applies defaults.
// Defaults: sort=relevance, limit=20, offset=0, radius_km=50.
// Every failure is a *domain.ValidationError naming the offending field.
func New(p Params) (Request, error) {
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return Request{}, domain.NewValidationError("q", "is required")
	}
	if utf8.RuneCountInString(query) > MaxQueryLength {
		return Request{}, domain.NewValidationError("q", fmt.Sprintf("too long (max %d characters)", MaxQueryLength))
	}

	switch p.Language {
	case LanguageAuto, LanguageThai, LanguageEnglish:
	default:
		return Request{}, domain.NewValidationError("lang", fmt.Sprintf("unsupported language %q", p.Language))
	}

	sortMode, err := mode.Parse(p.Sort)
	if err != nil {
		return Request{}, domain.NewValidationError("sort", err.Error())
	}

	limit := DefaultLimit
	if p.Limit != nil {
		limit = *p.Limit
	}
	if limit < 1 || limit > MaxLimit {
		return Request{}, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}

	offset := 0
	if p.Offset != nil {
		offset = *p.Offset
	}
	if offset < 0 {
		return Request{}, domain.NewValidationError("offset", "must be non-negative")
	}

	geoQuery, err := parseGeo(p.Lat, p.Lon, p.RadiusKm)
	if err != nil {
		return Request{}, err
	}
	if sortMode == mode.Distance && geoQuery == nil {
		return Request{}, domain.NewValidationError("sort", "distance sort requires lat and lon")
	}

	rating, err := parseRating(p.MinRating, p.MaxRating)
	if err != nil {
		return Request{}, err
	}

	return Request{
		query:    query,
		language: p.Language,
		geoQuery: geoQuery,
		sortMode: sortMode,
		limit:    limit,
		offset:   offset,
		filter:   filter.New(p.Province, p.Category, rating),
	}, nil
}

func parseGeo(lat, lon, radius *float64) (*GeoQuery, error) {
	radiusKm := DefaultRadiusKm
	if radius != nil {
		radiusKm = *radius
		if radiusKm < MinRadiusKm || radiusKm > MaxRadiusKm {
			return nil, domain.NewValidationError("radius_km",
				fmt.Sprintf("must be between %g and %g", MinRadiusKm, MaxRadiusKm))
		}
	}
	if lat == nil && lon == nil {
		return nil, nil
	}
	if lat == nil || lon == nil {
		return nil, domain.NewValidationError("lat", "lat and lon must be provided together")
	}
	center, ok := geo.NewPoint(*lat, *lon)
	if !ok {
		return nil, domain.NewValidationError("lat", "coordinates out of range")
	}
	return &GeoQuery{Center: center, RadiusKm: radiusKm}, nil
}

func parseRating(minRating, maxRating *float64) (*filter.Range, error) {
	if minRating == nil && maxRating == nil {
		return nil, nil
	}
	bounds := []struct {
		field string
		value *float64
	}{{"min_rating", minRating}, {"max_rating", maxRating}}
	for _, b := range bounds {
		if b.value != nil && (*b.value < MinRating || *b.value > MaxRating) {
			return nil, domain.NewValidationError(b.field,
				fmt.Sprintf("must be between %g and %g", MinRating, MaxRating))
		}
	}
	r, err := filter.NewRangeFilter(nil, minRating, nil, maxRating)
	if err != nil {
		return nil, domain.NewValidationError("min_rating", "must not exceed max_rating")
	}
	return &r, nil
}

// Query returns the trimmed raw query text.
func (r *Request) Query() string { return r.query }

// Language returns the language hint ("" for auto).
func (r *Request) Language() string { return r.language }

// GeoQuery returns the geo center and radius (nil when not geo-scoped).
func (r *Request) GeoQuery() *GeoQuery { return r.geoQuery }

// Sort returns the ordering mode.
func (r *Request) Sort() mode.Mode { return r.sortMode }

// Limit returns the page size.
func (r *Request) Limit() int { return r.limit }

// Offset returns the number of results to skip.
func (r *Request) Offset() int { return r.offset }

// Filter returns the structural pre-filter.
func (r *Request) Filter() filter.Filter { return r.filter }
