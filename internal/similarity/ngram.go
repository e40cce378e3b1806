package similarity

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/tourdex/internal/domain"
	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
)

// DefaultIndexCacheSize is the number of snapshot indexes kept in memory.
const DefaultIndexCacheSize = 4

// trigramIndex maps a trigram to the ascending snapshot positions containing it.
type trigramIndex struct {
	postings map[string][]int32
	size     int
}

func buildTrigramIndex(snap *corpus.Snapshot, fields []Field) *trigramIndex {
	idx := &trigramIndex{postings: make(map[string][]int32), size: snap.Len()}
	seen := make(map[string]struct{})
	for i := 0; i < snap.Len(); i++ {
		clear(seen)
		for _, fv := range fieldValues(snap.Entry(i), fields) {
			for _, g := range Trigrams(fv.value) {
				if _, ok := seen[g]; ok {
					continue
				}
				seen[g] = struct{}{}
				idx.postings[g] = append(idx.postings[g], int32(i))
			}
		}
	}
	return idx
}

// candidates returns positions sharing at least one trigram with any term.
func (idx *trigramIndex) candidates(terms []Term, pre Prefilter, snap *corpus.Snapshot) []int {
	marked := make([]bool, idx.size)
	for ti := range terms {
		for _, g := range Trigrams(terms[ti].Text) {
			for _, pos := range idx.postings[g] {
				marked[pos] = true
			}
		}
	}
	out := make([]int, 0, 64)
	for i, ok := range marked {
		if ok && (pre == nil || pre(snap.Entry(i))) {
			out = append(out, i)
		}
	}
	return out
}

// NGramIndex scores only documents that share a trigram with a query term.
// One index is built per snapshot version and cached.
type NGramIndex struct {
	cache      *lru.Cache[string, *trigramIndex]
	builds     singleflight.Group
	scorer     scorer
	fields     []Field
	maxDocs    int
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// NGramOption configures an NGramIndex.
type NGramOption func(*NGramIndex)

// WithNGramPool scores candidate shards on a shared worker pool.
func WithNGramPool(pool *ants.Pool, shardSize int) NGramOption {
	return func(n *NGramIndex) { n.scorer = scorer{pool: pool, shardSize: shardSize} }
}

// WithMaxIndexDocuments refuses to index larger snapshots (0 = unlimited).
func WithMaxIndexDocuments(limit int) NGramOption {
	return func(n *NGramIndex) { n.maxDocs = limit }
}

// WithCacheCounter records index cache hits and misses under the "result" label.
func WithCacheCounter(c *prometheus.CounterVec) NGramOption {
	return func(n *NGramIndex) { n.cacheTotal = c }
}

// WithNGramLogger sets the logger.
func WithNGramLogger(logger *zap.Logger) NGramOption {
	return func(n *NGramIndex) { n.logger = logger }
}

// NewNGramIndex creates an n-gram matcher caching up to cacheSize indexes.
func NewNGramIndex(cacheSize int, opts ...NGramOption) (*NGramIndex, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultIndexCacheSize
	}
	cache, err := lru.New[string, *trigramIndex](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create index cache: %w", err)
	}
	n := &NGramIndex{cache: cache, fields: DefaultFields, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Name returns "ngram".
func (n *NGramIndex) Name() string { return MatcherNGram }

// Match scores the trigram candidates accepted by pre.
func (n *NGramIndex) Match(
	ctx context.Context, q Query, snap *corpus.Snapshot, pre Prefilter,
) ([]result.Match, error) {
	if !indexable(q.Terms) {
		return n.scorer.score(ctx, q, snap, prefiltered(snap, pre))
	}
	idx, err := n.index(snap, q.fields())
	if err != nil {
		return nil, err
	}
	return n.scorer.score(ctx, q, snap, idx.candidates(q.Terms, pre, snap))
}

// indexable reports whether every term has a word of at least three runes.
// Such a word contains an unpadded trigram, so any field containing the term
// shares a posting with it. Shorter terms are scored against every entry.
func indexable(terms []Term) bool {
	for ti := range terms {
		long := false
		for _, w := range terms[ti].Words {
			if runeLen(w) >= 3 {
				long = true
				break
			}
		}
		if !long {
			return false
		}
	}
	return true
}

func (n *NGramIndex) index(snap *corpus.Snapshot, fields []Field) (*trigramIndex, error) {
	if n.maxDocs > 0 && snap.Len() > n.maxDocs {
		return nil, fmt.Errorf("%w: %d documents exceed the index limit of %d",
			domain.ErrIndexUnavailable, snap.Len(), n.maxDocs)
	}

	key := cacheKey(snap.Version(), fields)
	if idx, ok := n.cache.Get(key); ok {
		n.count("hit")
		return idx, nil
	}
	n.count("miss")

	v, err, _ := n.builds.Do(key, func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: build panicked: %v", domain.ErrIndexUnavailable, r)
			}
		}()
		idx := buildTrigramIndex(snap, fields)
		n.cache.Add(key, idx)
		n.logger.Debug("trigram index built",
			zap.String("version", snap.Version()),
			zap.Int("documents", snap.Len()),
			zap.Int("trigrams", len(idx.postings)),
		)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*trigramIndex), nil
}

func cacheKey(version string, fields []Field) string {
	key := version
	for _, f := range fields {
		key += "|" + string(f)
	}
	return key
}

func (n *NGramIndex) count(res string) {
	if n.cacheTotal != nil {
		n.cacheTotal.WithLabelValues(res).Inc()
	}
}
