// Package autocomplete suggests attractions for a typed prefix.
package autocomplete

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/ranking"
	"github.com/kailas-cloud/tourdex/internal/similarity"
	"github.com/kailas-cloud/tourdex/internal/text"
)

// Defaults.
const (
	DefaultRelaxedThreshold = 0.2
	DefaultLimit            = 10
	MaxLimit                = 50
	DefaultCacheSize        = 1024
)

// suggestFields are the fields matched by both passes.
var suggestFields = []similarity.Field{similarity.FieldName, similarity.FieldAliases}

// Config tunes the engine.
type Config struct {
	RelaxedThreshold float64
	CacheSize        int
}

// Engine answers prefix queries in two passes: prefix matches on name and
// aliases, then similarity matches at a relaxed threshold.
type Engine struct {
	matcher    similarity.Index
	normalizer *text.Normalizer
	ranker     *ranking.Engine
	threshold  float64
	cache      *lru.Cache[string, []result.Suggestion]
	logger     *zap.Logger
}

// New creates an autocomplete engine.
func New(
	matcher similarity.Index, normalizer *text.Normalizer, ranker *ranking.Engine,
	cfg Config, logger *zap.Logger,
) (*Engine, error) {
	if cfg.RelaxedThreshold <= 0 {
		cfg.RelaxedThreshold = DefaultRelaxedThreshold
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[string, []result.Suggestion](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create suggestion cache: %w", err)
	}
	return &Engine{
		matcher:    matcher,
		normalizer: normalizer,
		ranker:     ranker,
		threshold:  cfg.RelaxedThreshold,
		cache:      cache,
		logger:     logger,
	}, nil
}

// Suggest returns up to limit attraction suggestions for prefix.
// Prefix matches always precede similarity matches.
func (e *Engine) Suggest(
	ctx context.Context, prefix string, limit int, snap *corpus.Snapshot,
) ([]result.Suggestion, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	q := e.normalizer.Normalize(prefix, text.LanguageAuto)
	if q.IsEmpty() || snap == nil || snap.Len() == 0 {
		return []result.Suggestion{}, nil
	}

	key := snap.Version() + "\x00" + q.Joined + "\x00" + strconv.Itoa(limit)
	if cached, ok := e.cache.Get(key); ok {
		return append([]result.Suggestion(nil), cached...), nil
	}

	hits := e.prefixPass(q.Joined, snap)
	if len(hits) > limit {
		hits = hits[:limit]
	}

	if len(hits) < limit {
		seen := make(map[string]struct{}, len(hits))
		for _, i := range hits {
			seen[snap.Entry(i).Doc.ID()] = struct{}{}
		}
		fuzzy, err := e.similarityPass(ctx, prefix, q, snap, seen)
		if err != nil {
			return nil, err
		}
		hits = append(hits, fuzzy[:min(len(fuzzy), limit-len(hits))]...)
	}

	out := make([]result.Suggestion, 0, len(hits))
	for _, i := range hits {
		doc := &snap.Entry(i).Doc
		out = append(out, result.Suggestion{
			Type:       result.SuggestionAttraction,
			Text:       doc.Name(),
			DocumentID: doc.ID(),
		})
	}
	e.cache.Add(key, out)
	return append([]result.Suggestion(nil), out...), nil
}

func (e *Engine) prefixPass(prefix string, snap *corpus.Snapshot) []int {
	var hits []int
	for i := 0; i < snap.Len(); i++ {
		entry := snap.Entry(i)
		if hasWordPrefix(entry.Name, prefix) || anyWordPrefix(entry.Aliases, prefix) {
			hits = append(hits, i)
		}
	}
	e.byPopularity(hits, snap)
	return hits
}

func (e *Engine) similarityPass(
	ctx context.Context, prefix string, q text.Result, snap *corpus.Snapshot, exclude map[string]struct{},
) ([]int, error) {
	query := similarity.Query{
		Terms:     similarity.Terms(prefix, q, nil),
		Threshold: e.threshold,
		Fields:    suggestFields,
	}
	pre := func(entry *corpus.Entry) bool {
		_, done := exclude[entry.Doc.ID()]
		return !done
	}
	matches, err := e.matcher.Match(ctx, query, snap, pre)
	if err != nil {
		return nil, fmt.Errorf("match suggestions: %w", err)
	}

	hits := make([]int, 0, len(matches))
	for _, m := range matches {
		if i, ok := snap.Index(m.DocumentID); ok {
			hits = append(hits, i)
		}
	}
	e.byPopularity(hits, snap)
	return hits, nil
}

func (e *Engine) byPopularity(hits []int, snap *corpus.Snapshot) {
	pop := make(map[int]float64, len(hits))
	for _, i := range hits {
		pop[i] = e.ranker.Popularity(&snap.Entry(i).Doc)
	}
	sort.Slice(hits, func(a, b int) bool {
		pa, pb := pop[hits[a]], pop[hits[b]]
		if pa != pb {
			return pa > pb
		}
		// entries are id-ordered
		return hits[a] < hits[b]
	})
}

// hasWordPrefix reports whether s, or s from the start of any of its words, begins with prefix.
func hasWordPrefix(s, prefix string) bool {
	if strings.HasPrefix(s, prefix) {
		return true
	}
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' && strings.HasPrefix(s[i+1:], prefix) {
			return true
		}
	}
	return false
}

func anyWordPrefix(values []string, prefix string) bool {
	for _, v := range values {
		if hasWordPrefix(v, prefix) {
			return true
		}
	}
	return false
}
