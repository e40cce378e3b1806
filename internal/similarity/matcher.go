package similarity

import (
	"context"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
)

// Prefilter decides whether an entry is scored at all. Nil accepts everything.
type Prefilter func(e *corpus.Entry) bool

// Index finds documents whose best similarity reaches the query threshold.
// Matches are returned in snapshot (id) order.
type Index interface {
	Match(ctx context.Context, q Query, snap *corpus.Snapshot, pre Prefilter) ([]result.Match, error)
	Name() string
}

// prefiltered returns the positions of all entries accepted by pre.
func prefiltered(snap *corpus.Snapshot, pre Prefilter) []int {
	out := make([]int, 0, snap.Len())
	for i := 0; i < snap.Len(); i++ {
		if pre == nil || pre(snap.Entry(i)) {
			out = append(out, i)
		}
	}
	return out
}

// DefaultShardSize is the number of documents scored per pool task.
const DefaultShardSize = 512

// ctxCheckEvery controls how often a shard checks for cancellation.
const ctxCheckEvery = 128

// scorer fans candidate scoring out over a shared pool in fixed-size shards.
type scorer struct {
	pool      *ants.Pool
	shardSize int
}

func (s scorer) score(ctx context.Context, q Query, snap *corpus.Snapshot, candidates []int) ([]result.Match, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	shardSize := s.shardSize
	if shardSize <= 0 {
		shardSize = DefaultShardSize
	}
	if s.pool == nil || len(candidates) <= shardSize {
		return scoreShard(ctx, q, snap, candidates)
	}

	shards := (len(candidates) + shardSize - 1) / shardSize
	out := make([][]result.Match, shards)
	errs := make([]error, shards)

	var wg sync.WaitGroup
	for i := 0; i < shards; i++ {
		lo := i * shardSize
		hi := min(lo+shardSize, len(candidates))
		wg.Add(1)
		task := func() {
			defer wg.Done()
			out[i], errs[i] = scoreShard(ctx, q, snap, candidates[lo:hi])
		}
		if err := s.pool.Submit(task); err != nil {
			// pool released or overloaded
			task()
		}
	}
	wg.Wait()

	var firstErr error
	total := 0
	for i := range out {
		total += len(out[i])
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}
	merged := make([]result.Match, 0, total)
	for i := range out {
		merged = append(merged, out[i]...)
	}
	return merged, firstErr
}

func scoreShard(ctx context.Context, q Query, snap *corpus.Snapshot, candidates []int) ([]result.Match, error) {
	var out []result.Match
	for n, i := range candidates {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return out, err
			}
		}
		if m, ok := ScoreEntry(snap.Entry(i), q); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
