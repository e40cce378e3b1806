// Package search orchestrates normalization, expansion, matching, ranking and
// suggestion assembly for one search request.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/tourdex/internal/autocomplete"
	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/logger"
	"github.com/kailas-cloud/tourdex/internal/metrics"
	"github.com/kailas-cloud/tourdex/internal/ranking"
	"github.com/kailas-cloud/tourdex/internal/similarity"
	"github.com/kailas-cloud/tourdex/internal/text"
)

// Defaults.
const (
	DefaultTimeout          = 5 * time.Second
	DefaultSuggestionsLimit = 5
	// MaxPlaceSuggestions caps province suggestions per response.
	MaxPlaceSuggestions = 3
)

// Config tunes the orchestrator.
type Config struct {
	Threshold        float64
	Timeout          time.Duration
	SuggestionsLimit int
}

// Deps are the pipeline stages.
type Deps struct {
	Corpus     CorpusSource
	Normalizer *text.Normalizer
	Expander   Expander
	Matcher    Matcher
	Ranker     Ranker
	Suggester  Suggester
}

// Service runs searches over the current corpus snapshot.
// Log lines go to the request-scoped logger from the context.
type Service struct {
	deps Deps
	cfg  Config
}

// New creates a search service.
func New(deps Deps, cfg Config) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = similarity.DefaultThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SuggestionsLimit <= 0 {
		cfg.SuggestionsLimit = DefaultSuggestionsLimit
	}
	return &Service{deps: deps, cfg: cfg}
}

// Search executes the full pipeline. The corpus snapshot is fetched
// concurrently with query normalization and expansion.
func (s *Service) Search(ctx context.Context, req *request.Request) (resp result.Response, err error) {
	start := time.Now()
	defer func() {
		metrics.SearchDuration.WithLabelValues(string(req.Sort()), metrics.Status(err)).
			Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	fetchCtx, cancelFetch := context.WithCancel(ctx)
	defer cancelFetch()

	var snap *corpus.Snapshot
	g, gctx := errgroup.WithContext(fetchCtx)
	g.Go(func() error {
		fetched, fetchErr := s.deps.Corpus.Snapshot(gctx)
		if fetchErr != nil {
			return fetchErr
		}
		snap = fetched
		return nil
	})

	q := s.deps.Normalizer.Normalize(req.Query(), text.Language(req.Language()))
	if q.IsEmpty() {
		cancelFetch()
		_ = g.Wait()
		return result.Response{}, domain.NewValidationError("q", "must contain letters or digits")
	}

	expansion := s.deps.Expander.Expand(q)
	if s.deps.Expander.Degraded() {
		metrics.DegradedTotal.WithLabelValues("expansion_unavailable").Inc()
	}
	terms := similarity.Terms(req.Query(), q, expansion)

	if err = g.Wait(); err != nil {
		return result.Response{}, s.classify(ctx, "fetch corpus", err, domain.ErrCorpusUnavailable)
	}

	matches, served, err := similarity.MatchServed(ctx, s.deps.Matcher,
		similarity.Query{Terms: terms, Threshold: s.cfg.Threshold}, snap, prefilter(req))
	metrics.MatcherTotal.WithLabelValues(served, metrics.Status(err)).Inc()
	if err != nil {
		return result.Response{}, s.classify(ctx, "match", err, nil)
	}

	rq := ranking.Query{Order: req.Sort()}
	if gq := req.GeoQuery(); gq != nil {
		center := gq.Center
		rq.Center = &center
	}
	ranked := s.deps.Ranker.Rank(matches, snap, rq)
	metrics.SearchResults.Observe(float64(len(ranked)))

	resp = result.Response{
		Query:       req.Query(),
		Normalized:  q.Joined,
		Expansion:   expansion,
		Results:     ranking.Paginate(ranked, req.Offset(), req.Limit()),
		Suggestions: s.suggestions(ctx, req.Query(), q, snap),
		TotalCount:  len(ranked),
		Latency:     time.Since(start),
	}
	if resp.Expansion == nil {
		resp.Expansion = []string{}
	}

	logger.FromContext(ctx).Info("search_performed",
		zap.String("query", req.Query()),
		zap.String("normalized", q.Joined),
		zap.String("language", string(q.Language)),
		zap.Int("expansion_count", len(expansion)),
		zap.String("sort", string(req.Sort())),
		zap.Int("result_count", len(ranked)),
		zap.Int("page_size", len(resp.Results)),
		zap.String("corpus_version", snap.Version()),
		zap.Duration("latency", resp.Latency),
	)
	return resp, nil
}

// Autocomplete returns attraction suggestions for a prefix.
func (s *Service) Autocomplete(ctx context.Context, prefix string, limit int) (out []result.Suggestion, err error) {
	defer func() { metrics.AutocompleteTotal.WithLabelValues(metrics.Status(err)).Inc() }()

	if limit < 0 || limit > autocomplete.MaxLimit {
		return nil, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", autocomplete.MaxLimit))
	}
	if s.deps.Normalizer.Normalize(prefix, text.LanguageAuto).IsEmpty() {
		return nil, domain.NewValidationError("q", "is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	snap, err := s.deps.Corpus.Snapshot(ctx)
	if err != nil {
		return nil, s.classify(ctx, "fetch corpus", err, domain.ErrCorpusUnavailable)
	}
	out, err = s.deps.Suggester.Suggest(ctx, prefix, limit, snap)
	if err != nil {
		return nil, s.classify(ctx, "suggest", err, nil)
	}
	return out, nil
}

// classify maps a pipeline failure to a domain error. Deadline expiry of the
// request timeout becomes ErrSearchTimeout; cancellation by the caller is
// returned unchanged.
func (s *Service) classify(ctx context.Context, op string, err, sentinel error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrSearchTimeout, err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sentinel != nil {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// prefilter applies the structural and geo filters before scoring.
// Documents without coordinates never pass a geo filter.
func prefilter(req *request.Request) similarity.Prefilter {
	f := req.Filter()
	gq := req.GeoQuery()
	if f.IsEmpty() && gq == nil {
		return nil
	}
	return func(e *corpus.Entry) bool {
		if !f.Matches(&e.Doc) {
			return false
		}
		if gq == nil {
			return true
		}
		loc := e.Doc.Location()
		return loc != nil && geo.WithinRadius(*loc, gq.Center, gq.RadiusKm)
	}
}

// suggestions lists province and category refinements from the expansion
// table, then attraction suggestions, up to the configured limit.
func (s *Service) suggestions(ctx context.Context, raw string, q text.Result, snap *corpus.Snapshot) []result.Suggestion {
	limit := s.cfg.SuggestionsLimit
	out := make([]result.Suggestion, 0, limit)
	seen := make(map[string]struct{}, limit)
	add := func(typ result.SuggestionType, txt, id string) {
		if len(out) >= limit {
			return
		}
		key := string(typ) + "\x00" + txt
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, result.Suggestion{Type: typ, Text: txt, DocumentID: id})
	}

	provinces := s.deps.Expander.Provinces(q)
	for _, p := range provinces[:min(len(provinces), MaxPlaceSuggestions)] {
		add(result.SuggestionPlace, p, "")
	}
	for _, c := range s.deps.Expander.Categories(q) {
		add(result.SuggestionCategory, c, "")
	}

	if s.deps.Suggester == nil || len(out) >= limit {
		return out
	}
	hits, err := s.deps.Suggester.Suggest(ctx, raw, limit-len(out), snap)
	if err != nil {
		logger.FromContext(ctx).Warn("attraction suggestions unavailable", zap.Error(err))
		return out
	}
	for _, h := range hits {
		add(h.Type, h.Text, h.DocumentID)
	}
	return out
}
