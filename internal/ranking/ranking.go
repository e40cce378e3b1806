package ranking

import (
	"sort"
	"time"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/domain/search/mode"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
)

// Query selects the ordering. Center enables distance_km on results.
type Query struct {
	Order  mode.Mode
	Center *geo.Point
}

// Engine ranks matches. It is stateless apart from its parameters and clock.
type Engine struct {
	params Params
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for recency.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a ranking engine.
func New(params Params, opts ...Option) *Engine {
	e := &Engine{params: params, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Params returns the engine parameters.
func (e *Engine) Params() Params { return e.params }

// Popularity returns the normalized popularity of doc.
func (e *Engine) Popularity(doc *document.Document) float64 {
	return PopularityNorm(doc.LikeCount(), doc.CommentCount(), e.params.AlphaComment, e.params.MaxExpectedEngagement)
}

// Rank scores and orders matches. Matches whose document is not in snap are
// skipped; under distance ordering documents without coordinates are dropped.
// Ties are broken by document id.
func (e *Engine) Rank(matches []result.Match, snap *corpus.Snapshot, q Query) []result.Ranked {
	order := q.Order
	if order == "" {
		order = mode.Relevance
	}
	now := e.now()

	out := make([]result.Ranked, 0, len(matches))
	for _, m := range matches {
		entry, ok := snap.Lookup(m.DocumentID)
		if !ok {
			continue
		}
		doc := &entry.Doc

		r := result.Ranked{
			Match:      m,
			Document:   *doc,
			Popularity: e.Popularity(doc),
			Recency:    RecencyDecay(doc.CreatedAt(), now, e.params.TauMinutes),
		}
		if q.Center != nil {
			if loc := doc.Location(); loc != nil {
				d := q.Center.DistanceTo(*loc)
				r.DistanceKm = &d
			}
		}
		if order == mode.Distance && r.DistanceKm == nil {
			continue
		}

		switch order {
		case mode.Popularity:
			r.Score = r.Popularity
		case mode.Newest:
			r.Score = r.Recency
		default:
			r.Score = e.relevance(r)
		}
		out = append(out, r)
	}

	sort.Slice(out, less(out, order))
	return out
}

func (e *Engine) relevance(r result.Ranked) float64 {
	s := e.params.WeightPopularity*r.Popularity + e.params.WeightRecency*r.Recency
	if e.params.RelevanceWeighted {
		s *= r.Match.Score
	}
	return s
}

func less(rs []result.Ranked, order mode.Mode) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := &rs[i], &rs[j]
		switch order {
		case mode.Distance:
			if *a.DistanceKm != *b.DistanceKm {
				return *a.DistanceKm < *b.DistanceKm
			}
		case mode.Newest:
			ta, tb := a.Document.CreatedAt(), b.Document.CreatedAt()
			if !ta.Equal(tb) {
				return ta.After(tb)
			}
		default:
			if a.Score != b.Score {
				return a.Score > b.Score
			}
		}
		return a.Document.ID() < b.Document.ID()
	}
}

// Paginate returns the [offset, offset+limit) window of rs.
func Paginate(rs []result.Ranked, offset, limit int) []result.Ranked {
	if offset >= len(rs) || limit <= 0 {
		return []result.Ranked{}
	}
	offset = max(offset, 0)
	end := min(offset+limit, len(rs))
	return rs[offset:end]
}
