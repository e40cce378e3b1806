package similarity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
)

// Matcher names accepted by New.
const (
	MatcherNGram      = "ngram"
	MatcherBruteForce = "bruteforce"
)

// Config selects and tunes the matcher.
type Config struct {
	Matcher           string
	ShardSize         int
	MaxCandidates     int
	ScanBudget        time.Duration
	IndexCacheSize    int
	MaxIndexDocuments int
}

// Deps are shared collaborators. All fields are optional.
type Deps struct {
	Pool          *ants.Pool
	Logger        *zap.Logger
	CacheTotal    *prometheus.CounterVec // label: result
	DegradedTotal *prometheus.CounterVec // label: reason
}

// New builds the configured matcher. The n-gram matcher falls back to brute force on failure.
func New(cfg Config, deps Deps) (Index, error) {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	degraded := func(reason string) {
		if deps.DegradedTotal != nil {
			deps.DegradedTotal.WithLabelValues(reason).Inc()
		}
	}

	brute := NewBruteForce(
		WithPool(deps.Pool, cfg.ShardSize),
		WithMaxCandidates(cfg.MaxCandidates),
		WithScanBudget(cfg.ScanBudget),
		WithBruteForceLogger(logger),
		WithTruncateHook(func(reason string) { degraded("scan_" + reason) }),
	)

	switch cfg.Matcher {
	case MatcherBruteForce:
		return brute, nil
	case MatcherNGram, "":
		ngram, err := NewNGramIndex(cfg.IndexCacheSize,
			WithNGramPool(deps.Pool, cfg.ShardSize),
			WithMaxIndexDocuments(cfg.MaxIndexDocuments),
			WithCacheCounter(deps.CacheTotal),
			WithNGramLogger(logger),
		)
		if err != nil {
			return nil, err
		}
		return NewFallback(ngram, brute, logger, func() { degraded("matcher_fallback") }), nil
	default:
		return nil, fmt.Errorf("unknown matcher %q (want %s or %s)", cfg.Matcher, MatcherNGram, MatcherBruteForce)
	}
}

// Fallback serves from primary and retries on secondary when primary fails.
type Fallback struct {
	primary    Index
	secondary  Index
	logger     *zap.Logger
	onFallback func()
}

// NewFallback creates a Fallback. onFallback may be nil.
func NewFallback(primary, secondary Index, logger *zap.Logger, onFallback func()) *Fallback {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger, onFallback: onFallback}
}

// Name returns the configured (primary) matcher name.
// Use MatchServed to learn which matcher answered a request.
func (f *Fallback) Name() string { return f.primary.Name() }

// Match tries primary first. Cancellation is returned as-is, never retried.
func (f *Fallback) Match(
	ctx context.Context, q Query, snap *corpus.Snapshot, pre Prefilter,
) ([]result.Match, error) {
	matches, _, err := f.match(ctx, q, snap, pre)
	return matches, err
}

func (f *Fallback) match(
	ctx context.Context, q Query, snap *corpus.Snapshot, pre Prefilter,
) ([]result.Match, string, error) {
	matches, err := f.primary.Match(ctx, q, snap, pre)
	if err == nil {
		return matches, f.primary.Name(), nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, f.primary.Name(), err
	}
	f.logger.Warn("similarity matcher failed, falling back",
		zap.String("from", f.primary.Name()),
		zap.String("to", f.secondary.Name()),
		zap.Error(err),
	)
	if f.onFallback != nil {
		f.onFallback()
	}
	matches, err = f.secondary.Match(ctx, q, snap, pre)
	return matches, f.secondary.Name(), err
}

// MatchServed runs idx and also returns the name of the matcher that produced
// the result, which differs from idx.Name() when a Fallback degraded.
func MatchServed(
	ctx context.Context, idx Index, q Query, snap *corpus.Snapshot, pre Prefilter,
) ([]result.Match, string, error) {
	if f, ok := idx.(*Fallback); ok {
		return f.match(ctx, q, snap, pre)
	}
	matches, err := idx.Match(ctx, q, snap, pre)
	return matches, idx.Name(), err
}
