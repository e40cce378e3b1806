package similarity

import (
	"context"
	"errors"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
)

// BruteForce scores every pre-filtered document.
// The scan is bounded by a candidate cap and a time budget; when either is
// hit the matches found so far are returned.
type BruteForce struct {
	scorer        scorer
	maxCandidates int
	budget        time.Duration
	logger        *zap.Logger
	onTruncate    func(reason string)
}

// BruteForceOption configures a BruteForce matcher.
type BruteForceOption func(*BruteForce)

// WithPool scores shards on a shared worker pool.
func WithPool(pool *ants.Pool, shardSize int) BruteForceOption {
	return func(b *BruteForce) {
		b.scorer = scorer{pool: pool, shardSize: shardSize}
	}
}

// WithMaxCandidates caps the number of documents scored per request (0 = unlimited).
func WithMaxCandidates(n int) BruteForceOption {
	return func(b *BruteForce) { b.maxCandidates = n }
}

// WithScanBudget bounds scan time per request (0 = until the request deadline).
func WithScanBudget(d time.Duration) BruteForceOption {
	return func(b *BruteForce) { b.budget = d }
}

// WithBruteForceLogger sets the logger.
func WithBruteForceLogger(logger *zap.Logger) BruteForceOption {
	return func(b *BruteForce) { b.logger = logger }
}

// WithTruncateHook is called with "candidates" or "budget" when a scan is cut short.
func WithTruncateHook(fn func(reason string)) BruteForceOption {
	return func(b *BruteForce) { b.onTruncate = fn }
}

// NewBruteForce creates a brute-force matcher.
func NewBruteForce(opts ...BruteForceOption) *BruteForce {
	b := &BruteForce{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns "bruteforce".
func (b *BruteForce) Name() string { return MatcherBruteForce }

// Match scores all documents accepted by pre.
func (b *BruteForce) Match(
	ctx context.Context, q Query, snap *corpus.Snapshot, pre Prefilter,
) ([]result.Match, error) {
	candidates := prefiltered(snap, pre)
	if b.maxCandidates > 0 && len(candidates) > b.maxCandidates {
		b.logger.Warn("brute-force scan truncated",
			zap.Int("candidates", len(candidates)),
			zap.Int("max_candidates", b.maxCandidates),
		)
		b.truncated("candidates")
		candidates = candidates[:b.maxCandidates]
	}
	return b.scan(ctx, q, snap, candidates)
}

func (b *BruteForce) scan(
	ctx context.Context, q Query, snap *corpus.Snapshot, candidates []int,
) ([]result.Match, error) {
	if b.budget <= 0 {
		return b.scorer.score(ctx, q, snap, candidates)
	}

	scanCtx, cancel := context.WithTimeout(ctx, b.budget)
	defer cancel()

	matches, err := b.scorer.score(scanCtx, q, snap, candidates)
	if err == nil {
		return matches, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		b.logger.Warn("brute-force scan budget exhausted, returning partial matches",
			zap.Duration("budget", b.budget),
			zap.Int("matches", len(matches)),
		)
		b.truncated("budget")
		return matches, nil
	}
	return nil, err
}

func (b *BruteForce) truncated(reason string) {
	if b.onTruncate != nil {
		b.onTruncate(reason)
	}
}
