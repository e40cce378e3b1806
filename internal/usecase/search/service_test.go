package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/tourdex/internal/autocomplete"
	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/expansion"
	"github.com/kailas-cloud/tourdex/internal/metrics"
	"github.com/kailas-cloud/tourdex/internal/ranking"
	"github.com/kailas-cloud/tourdex/internal/similarity"
	"github.com/kailas-cloud/tourdex/internal/text"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// --- Mocks ---

type mockCorpus struct {
	snap  *corpus.Snapshot
	err   error
	block bool
	calls int
}

func (m *mockCorpus) Snapshot(ctx context.Context) (*corpus.Snapshot, error) {
	m.calls++
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.snap, m.err
}

type countingMatcher struct {
	inner similarity.Index
	err   error
	calls int
	last  similarity.Query
}

func (m *countingMatcher) Match(
	ctx context.Context, q similarity.Query, snap *corpus.Snapshot, pre similarity.Prefilter,
) ([]result.Match, error) {
	m.calls++
	m.last = q
	if m.err != nil {
		return nil, m.err
	}
	return m.inner.Match(ctx, q, snap, pre)
}

func (m *countingMatcher) Name() string { return "counting" }

type mockSuggester struct {
	hits  []result.Suggestion
	err   error
	limit int
}

func (m *mockSuggester) Suggest(_ context.Context, _ string, limit int, _ *corpus.Snapshot) ([]result.Suggestion, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.hits[:min(len(m.hits), limit)], nil
}

// --- Fixtures ---

type fixture struct {
	svc     *Service
	corpus  *mockCorpus
	matcher *countingMatcher
	suggest *mockSuggester
}

func loc(lat, lon float64) *geo.Point {
	p, _ := geo.NewPoint(lat, lon)
	return &p
}

func attraction(f document.Fields) document.Document {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = testNow.Add(-24 * time.Hour)
	}
	return document.Reconstruct(f)
}

func testCorpus() *corpus.Snapshot {
	return corpus.NewSnapshot("v1", []document.Document{
		attraction(document.Fields{
			ID: "wat-phra-kaew", Name: "วัดพระแก้ว", Province: "กรุงเทพฯ", Category: "temple",
			Tags: []string{"bangkok", "temple"}, Rating: 4.8, LikeCount: 500,
			Location: loc(13.7516, 100.4927),
		}),
		attraction(document.Fields{
			ID: "grand-palace", Name: "Grand Palace", Province: "Bangkok", Category: "palace",
			Tags: []string{"bangkok"}, Rating: 4.7, LikeCount: 800,
			Location: loc(13.7500, 100.4913),
		}),
		attraction(document.Fields{
			ID: "wat-arun", Name: "Wat Arun", Province: "Bangkok", Category: "temple",
			Tags: []string{"bangkok", "temple"}, Rating: 4.6, LikeCount: 300,
			Location: loc(13.7437, 100.4889),
		}),
		attraction(document.Fields{
			ID: "chatuchak", Name: "Chatuchak Weekend Market", Province: "Bangkok", Category: "market",
			Tags: []string{"bangkok", "market"}, Rating: 4.2, LikeCount: 900,
			Location: loc(13.7999, 100.5503),
		}),
		attraction(document.Fields{
			ID: "doi-suthep", Name: "Wat Phra That Doi Suthep", Province: "Chiang Mai", Category: "temple",
			Tags: []string{"ดอยสุเทพ", "temple"}, Rating: 4.9, LikeCount: 700,
			Location: loc(18.8048, 98.9216),
		}),
		attraction(document.Fields{
			ID: "nimman", Name: "ถนนนิมมานเหมินท์", Province: "Chiang Mai", Category: "cafe",
			Tags: []string{"cafe"}, Rating: 4.0, LikeCount: 200,
		}),
	})
}

func testExpander(degraded bool) *expansion.Expander {
	if degraded {
		return expansion.NewExpander(expansion.Empty(), 0).WithDegraded(true)
	}
	n := text.NewNormalizer(nil)
	table := expansion.NewTable(expansion.Source{
		Provinces: map[string][]string{
			"เชียงใหม่": {"ดอยสุเทพ", "นิมมาน"},
			"bangkok":   {"กรุงเทพฯ"},
		},
		Categories: map[string][]string{
			"temple": {"วัด"},
		},
	}, n)
	return expansion.NewExpander(table, 0)
}

func newFixture(t *testing.T, snap *corpus.Snapshot, opts ...func(*Deps, *Config)) *fixture {
	t.Helper()
	f := &fixture{
		corpus:  &mockCorpus{snap: snap},
		matcher: &countingMatcher{inner: similarity.NewBruteForce()},
		suggest: &mockSuggester{},
	}
	deps := Deps{
		Corpus:     f.corpus,
		Normalizer: text.NewNormalizer(nil),
		Expander:   testExpander(false),
		Matcher:    f.matcher,
		Ranker:     ranking.New(ranking.DefaultParams(), ranking.WithClock(func() time.Time { return testNow })),
		Suggester:  f.suggest,
	}
	cfg := Config{}
	for _, opt := range opts {
		opt(&deps, &cfg)
	}
	f.svc = New(deps, cfg)
	return f
}

func makeRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	r, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &r
}

func ptr[T any](v T) *T { return &v }

func resultIDs(rs []result.Ranked) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Document.ID()
	}
	return out
}

func findResult(rs []result.Ranked, id string) (result.Ranked, bool) {
	for _, r := range rs {
		if r.Document.ID() == id {
			return r, true
		}
	}
	return result.Ranked{}, false
}

// --- Tests ---

func TestSearch_ThaiSubstring(t *testing.T) {
	f := newFixture(t, testCorpus())

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "วัด"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	r, ok := findResult(resp.Results, "wat-phra-kaew")
	if !ok {
		t.Fatalf("wat-phra-kaew missing from %v", resultIDs(resp.Results))
	}
	if r.Match.Score < similarity.ScoreContains {
		t.Errorf("match score = %f, want >= %f", r.Match.Score, similarity.ScoreContains)
	}
	if r.Match.MatchedField() != "name:contains" {
		t.Errorf("matched field = %q", r.Match.MatchedField())
	}
}

func TestSearch_ExpansionRetrievesRelatedDocuments(t *testing.T) {
	f := newFixture(t, testCorpus())

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "เชียงใหม่"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Expansion) != 2 || resp.Expansion[0] != "ดอยสุเทพ" {
		t.Errorf("expansion = %v", resp.Expansion)
	}
	r, ok := findResult(resp.Results, "doi-suthep")
	if !ok {
		t.Fatalf("doi-suthep missing from %v", resultIDs(resp.Results))
	}
	if r.Match.Term != "ดอยสุเทพ" {
		t.Errorf("matched term = %q, want the expansion term", r.Match.Term)
	}
	if _, ok := findResult(resp.Results, "nimman"); !ok {
		t.Errorf("nimman missing from %v", resultIDs(resp.Results))
	}
	if resp.Suggestions[0].Type != result.SuggestionPlace || resp.Suggestions[0].Text != "เชียงใหม่" {
		t.Errorf("suggestions = %+v, want the province first", resp.Suggestions)
	}
}

func TestSearch_GeoRadiusDistanceSort(t *testing.T) {
	f := newFixture(t, testCorpus())

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{
		Query:    "bangkok",
		Lat:      ptr(13.7563),
		Lon:      ptr(100.5018),
		RadiusKm: ptr(5.0),
		Sort:     "distance",
	}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := []string{"wat-phra-kaew", "grand-palace", "wat-arun"}
	got := resultIDs(resp.Results)
	if len(got) != len(want) {
		t.Fatalf("results = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("results = %v, want %v", got, want)
		}
	}
	prev := 0.0
	for _, r := range resp.Results {
		if r.DistanceKm == nil {
			t.Fatalf("%s: distance_km missing", r.Document.ID())
		}
		if *r.DistanceKm > 5 || *r.DistanceKm < prev {
			t.Errorf("%s: distance %f (previous %f)", r.Document.ID(), *r.DistanceKm, prev)
		}
		prev = *r.DistanceKm
	}
}

func TestSearch_FresherRanksHigher(t *testing.T) {
	snap := corpus.NewSnapshot("v1", []document.Document{
		attraction(document.Fields{ID: "a-old", Name: "Floating Market", LikeCount: 5, CreatedAt: testNow.Add(-72 * time.Hour)}),
		attraction(document.Fields{ID: "b-fresh", Name: "Floating Market", LikeCount: 5, CreatedAt: testNow.Add(-time.Hour)}),
	})
	f := newFixture(t, snap)

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "floating market"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := resultIDs(resp.Results)
	if len(got) != 2 || got[0] != "b-fresh" {
		t.Errorf("results = %v, want b-fresh first", got)
	}
}

func TestSearch_Autocomplete(t *testing.T) {
	snap := corpus.NewSnapshot("v1", []document.Document{
		attraction(document.Fields{ID: "bangkok-night", Name: "Bangkok Night Market", LikeCount: 10}),
		attraction(document.Fields{ID: "bang-saen", Name: "Bang Saen Beach", LikeCount: 40}),
		attraction(document.Fields{ID: "pang-mapha", Name: "Pang Mapha Caves", LikeCount: 900}),
	})
	f := newFixture(t, snap, func(d *Deps, _ *Config) {
		engine, err := autocomplete.New(similarity.NewBruteForce(), d.Normalizer, ranking.New(ranking.DefaultParams()),
			autocomplete.Config{}, nil)
		if err != nil {
			t.Fatalf("autocomplete.New: %v", err)
		}
		d.Suggester = engine
	})

	got, err := f.svc.Autocomplete(context.Background(), "bang", 5)
	if err != nil {
		t.Fatalf("Autocomplete: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("suggestions = %+v", got)
	}
	if got[0].DocumentID != "bang-saen" || got[1].DocumentID != "bangkok-night" || got[2].DocumentID != "pang-mapha" {
		t.Errorf("suggestions = %+v, want prefix matches before the fuzzy match", got)
	}
}

func TestSearch_PunctuationOnlyQuery(t *testing.T) {
	f := newFixture(t, testCorpus())

	_, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "?!..."}))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if f.matcher.calls != 0 {
		t.Error("matcher must not be called")
	}
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	_, err := request.New(request.Params{Query: "   "})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Field != "q" {
		t.Fatalf("expected q validation error, got %v", err)
	}
}

func TestSearch_CorpusUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.corpus.err = errors.New("connection refused")

	_, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if !errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected ErrCorpusUnavailable, got %v", err)
	}
	if f.matcher.calls != 0 {
		t.Error("matcher must not be called without a corpus")
	}
	if f.corpus.calls != 1 {
		t.Errorf("corpus calls = %d, want 1 (no retry)", f.corpus.calls)
	}
}

func TestSearch_Timeout(t *testing.T) {
	f := newFixture(t, nil, func(_ *Deps, c *Config) { c.Timeout = 20 * time.Millisecond })
	f.corpus.block = true

	_, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if !errors.Is(err, domain.ErrSearchTimeout) {
		t.Fatalf("expected ErrSearchTimeout, got %v", err)
	}
}

func TestSearch_CallerCanceled(t *testing.T) {
	f := newFixture(t, nil)
	f.corpus.block = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.svc.Search(ctx, makeRequest(t, request.Params{Query: "temple"}))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, domain.ErrSearchTimeout) || errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Errorf("caller cancellation misclassified: %v", err)
	}
}

func TestSearch_MatcherError(t *testing.T) {
	f := newFixture(t, testCorpus())
	f.matcher.err = errors.New("index exploded")

	_, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if err == nil || errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected plain matcher error, got %v", err)
	}
}

func TestSearch_MatcherMetricNamesServingMatcher(t *testing.T) {
	ngram, err := similarity.NewNGramIndex(1, similarity.WithMaxIndexDocuments(1))
	if err != nil {
		t.Fatalf("NewNGramIndex: %v", err)
	}
	fallback := similarity.NewFallback(ngram, similarity.NewBruteForce(), nil, nil)
	f := newFixture(t, testCorpus(), func(d *Deps, _ *Config) { d.Matcher = fallback })

	served := metrics.MatcherTotal.WithLabelValues(similarity.MatcherBruteForce, "ok")
	configured := metrics.MatcherTotal.WithLabelValues(similarity.MatcherNGram, "ok")
	servedBefore, configuredBefore := testutil.ToFloat64(served), testutil.ToFloat64(configured)

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) == 0 {
		t.Fatal("expected brute-force results")
	}
	if got := testutil.ToFloat64(served); got != servedBefore+1 {
		t.Errorf("bruteforce counter = %f, want %f", got, servedBefore+1)
	}
	if got := testutil.ToFloat64(configured); got != configuredBefore {
		t.Errorf("ngram counter moved to %f", got)
	}
}

func TestSearch_StopWordQueryMatchesExactName(t *testing.T) {
	snap := corpus.NewSnapshot("v1", []document.Document{
		attraction(document.Fields{ID: "wat-arun", Name: "Temple of Dawn", Province: "Bangkok"}),
		attraction(document.Fields{ID: "dawn-market", Name: "Dawn Market by the Temple", Province: "Bangkok"}),
	})
	f := newFixture(t, snap, func(d *Deps, _ *Config) {
		d.Normalizer = text.NewNormalizer(map[text.Language][]string{
			text.LanguageEnglish: {"of", "the", "by"},
		})
	})

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "Temple of Dawn"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Normalized != "temple dawn" {
		t.Errorf("Normalized = %q", resp.Normalized)
	}
	r, ok := findResult(resp.Results, "wat-arun")
	if !ok {
		t.Fatalf("wat-arun missing from %v", resultIDs(resp.Results))
	}
	if r.Match.Score != similarity.ScoreExact || r.Match.MatchedField() != "name:exact" {
		t.Errorf("match = %+v, want name:exact", r.Match)
	}
}

func TestSearch_DegradedExpansion(t *testing.T) {
	f := newFixture(t, testCorpus(), func(d *Deps, _ *Config) { d.Expander = testExpander(true) })
	before := testutil.ToFloat64(metrics.DegradedTotal.WithLabelValues("expansion_unavailable"))

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Expansion) != 0 || resp.Expansion == nil {
		t.Errorf("expansion = %#v, want empty non-nil", resp.Expansion)
	}
	if len(resp.Results) == 0 {
		t.Error("search must proceed without expansion")
	}
	after := testutil.ToFloat64(metrics.DegradedTotal.WithLabelValues("expansion_unavailable"))
	if after != before+1 {
		t.Errorf("degraded counter = %f, want %f", after, before+1)
	}
}

func TestSearch_NoMatches(t *testing.T) {
	f := newFixture(t, testCorpus())

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "zzzzzzzzzz"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 0 || resp.TotalCount != 0 {
		t.Errorf("results = %v, total = %d", resultIDs(resp.Results), resp.TotalCount)
	}
	if resp.Results == nil {
		t.Error("results must be an empty slice, not nil")
	}
}

func TestSearch_Filters(t *testing.T) {
	f := newFixture(t, testCorpus())

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{
		Query:     "temple",
		Province:  "chiang",
		MinRating: ptr(4.5),
	}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	got := resultIDs(resp.Results)
	if len(got) != 1 || got[0] != "doi-suthep" {
		t.Errorf("results = %v, want [doi-suthep]", got)
	}
}

func TestSearch_GeoExcludesDocumentsWithoutCoordinates(t *testing.T) {
	f := newFixture(t, testCorpus())

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{
		Query:    "cafe",
		Lat:      ptr(18.7990),
		Lon:      ptr(98.9680),
		RadiusKm: ptr(100.0),
	}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, ok := findResult(resp.Results, "nimman"); ok {
		t.Error("document without coordinates passed the geo filter")
	}
}

func TestSearch_Pagination(t *testing.T) {
	f := newFixture(t, testCorpus())
	ctx := context.Background()

	full, err := f.svc.Search(ctx, makeRequest(t, request.Params{Query: "bangkok", Sort: "popularity"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if full.TotalCount < 3 {
		t.Fatalf("total = %d, want at least 3", full.TotalCount)
	}

	var paged []string
	for offset := 0; offset < full.TotalCount; offset += 2 {
		page, err := f.svc.Search(ctx, makeRequest(t, request.Params{
			Query: "bangkok", Sort: "popularity", Limit: ptr(2), Offset: ptr(offset),
		}))
		if err != nil {
			t.Fatalf("Search offset %d: %v", offset, err)
		}
		if page.TotalCount != full.TotalCount {
			t.Errorf("offset %d: total = %d, want %d", offset, page.TotalCount, full.TotalCount)
		}
		paged = append(paged, resultIDs(page.Results)...)
	}

	want := resultIDs(full.Results)
	if len(paged) != len(want) {
		t.Fatalf("paged = %v, want %v", paged, want)
	}
	for i := range want {
		if paged[i] != want[i] {
			t.Fatalf("paged = %v, want %v", paged, want)
		}
	}
}

func TestSearch_Suggestions(t *testing.T) {
	f := newFixture(t, testCorpus())
	f.suggest.hits = []result.Suggestion{
		{Type: result.SuggestionAttraction, Text: "Wat Arun", DocumentID: "wat-arun"},
		{Type: result.SuggestionAttraction, Text: "Wat Pho", DocumentID: "wat-pho"},
		{Type: result.SuggestionAttraction, Text: "Wat Saket", DocumentID: "wat-saket"},
		{Type: result.SuggestionAttraction, Text: "Wat Suthat", DocumentID: "wat-suthat"},
		{Type: result.SuggestionAttraction, Text: "Wat Benchamabophit", DocumentID: "wat-ben"},
	}

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Suggestions) != DefaultSuggestionsLimit {
		t.Fatalf("suggestions = %+v", resp.Suggestions)
	}
	if resp.Suggestions[0].Type != result.SuggestionCategory || resp.Suggestions[0].Text != "temple" {
		t.Errorf("first suggestion = %+v, want the temple category", resp.Suggestions[0])
	}
	if f.suggest.limit != DefaultSuggestionsLimit-1 {
		t.Errorf("suggester limit = %d, want %d", f.suggest.limit, DefaultSuggestionsLimit-1)
	}
}

func TestSearch_SuggesterFailureIgnored(t *testing.T) {
	f := newFixture(t, testCorpus())
	f.suggest.err = errors.New("boom")

	resp, err := f.svc.Search(context.Background(), makeRequest(t, request.Params{Query: "temple"}))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Suggestions) != 1 {
		t.Errorf("suggestions = %+v, want only the category", resp.Suggestions)
	}
}

func TestAutocomplete_Validation(t *testing.T) {
	f := newFixture(t, testCorpus())

	tests := []struct {
		name   string
		prefix string
		limit  int
		field  string
	}{
		{"empty prefix", "  ", 5, "q"},
		{"negative limit", "wat", -1, "limit"},
		{"limit too large", "wat", autocomplete.MaxLimit + 1, "limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Autocomplete(context.Background(), tc.prefix, tc.limit)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tc.field {
				t.Fatalf("expected %s validation error, got %v", tc.field, err)
			}
		})
	}
	if f.corpus.calls != 0 {
		t.Error("corpus must not be fetched for invalid input")
	}
}

func TestAutocomplete_CorpusUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	f.corpus.err = errors.New("down")

	_, err := f.svc.Autocomplete(context.Background(), "wat", 5)
	if !errors.Is(err, domain.ErrCorpusUnavailable) {
		t.Fatalf("expected ErrCorpusUnavailable, got %v", err)
	}
}
