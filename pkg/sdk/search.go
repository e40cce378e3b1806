package tourdex

import (
	"context"
	"fmt"
	"time"

	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
)

// SearchBuilder is a fluent builder for search queries.
// Parameters are validated when Do runs.
type SearchBuilder struct {
	client *Client
	params request.Params
}

// Lang sets the language hint: "th", "en" or "" for auto-detection.
func (b *SearchBuilder) Lang(lang string) *SearchBuilder {
	b.params.Language = lang
	return b
}

// Near restricts results to attractions around a point (50 km unless Km is set).
func (b *SearchBuilder) Near(lat, lng float64) *SearchBuilder {
	b.params.Lat = &lat
	b.params.Lon = &lng
	return b
}

// Km sets the search radius in kilometers for Near.
func (b *SearchBuilder) Km(radius float64) *SearchBuilder {
	b.params.RadiusKm = &radius
	return b
}

// Sort sets the result ordering.
func (b *SearchBuilder) Sort(m SortMode) *SearchBuilder {
	b.params.Sort = string(m)
	return b
}

// Province keeps only attractions in the given province.
func (b *SearchBuilder) Province(p string) *SearchBuilder {
	b.params.Province = p
	return b
}

// Category keeps only attractions of the given category.
func (b *SearchBuilder) Category(c string) *SearchBuilder {
	b.params.Category = c
	return b
}

// Rating keeps attractions rated within [lo, hi].
func (b *SearchBuilder) Rating(lo, hi float64) *SearchBuilder {
	b.params.MinRating = &lo
	b.params.MaxRating = &hi
	return b
}

// Limit sets the page size.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.params.Limit = &n
	return b
}

// Offset sets the number of results to skip.
func (b *SearchBuilder) Offset(n int) *SearchBuilder {
	b.params.Offset = &n
	return b
}

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (resp *SearchResponse, err error) {
	start := time.Now()
	defer func() { b.client.obs.observe("search", start, err) }()

	req, err := request.New(b.params)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	res, err := b.client.searchSvc.Search(b.client.withLogger(ctx), &req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromResponse(&res), nil
}

func toDocument(a *Attraction) (domdoc.Document, error) {
	f := domdoc.Fields{
		ID:           a.ID,
		Name:         a.Name,
		Caption:      a.Caption,
		Aliases:      a.Aliases,
		Tags:         a.Tags,
		Province:     a.Province,
		Category:     a.Category,
		Rating:       a.Rating,
		LikeCount:    a.LikeCount,
		CommentCount: a.CommentCount,
		CreatedAt:    a.CreatedAt,
	}
	if a.Location != nil {
		f.Location = &geo.Point{Lat: a.Location.Lat, Lon: a.Location.Lng}
	}
	doc, err := domdoc.New(f)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("attraction %q: %w", a.ID, err)
	}
	return doc, nil
}

func fromDocument(d *domdoc.Document) Attraction {
	a := Attraction{
		ID:           d.ID(),
		Name:         d.Name(),
		Caption:      d.Caption(),
		Aliases:      d.Aliases(),
		Tags:         d.Tags(),
		Province:     d.Province(),
		Category:     d.Category(),
		Rating:       d.Rating(),
		LikeCount:    d.LikeCount(),
		CommentCount: d.CommentCount(),
		CreatedAt:    d.CreatedAt(),
	}
	if p := d.Location(); p != nil {
		a.Location = &Location{Lat: p.Lat, Lng: p.Lon}
	}
	return a
}

func fromResponse(r *result.Response) *SearchResponse {
	out := &SearchResponse{
		Query:       r.Query,
		Normalized:  r.Normalized,
		Expansion:   r.Expansion,
		Hits:        make([]Hit, len(r.Results)),
		Suggestions: fromSuggestions(r.Suggestions),
		TotalCount:  r.TotalCount,
		Latency:     r.Latency,
	}
	for i := range r.Results {
		rk := &r.Results[i]
		out.Hits[i] = Hit{
			Attraction:   fromDocument(&rk.Document),
			Score:        rk.Score,
			Similarity:   rk.Match.Score,
			MatchedField: rk.Match.MatchedField(),
			DistanceKm:   rk.DistanceKm,
		}
	}
	return out
}

func fromSuggestions(in []result.Suggestion) []Suggestion {
	if len(in) == 0 {
		return nil
	}
	out := make([]Suggestion, len(in))
	for i, s := range in {
		out[i] = Suggestion{
			Type:         SuggestionType(s.Type),
			Text:         s.Text,
			AttractionID: s.DocumentID,
		}
	}
	return out
}
