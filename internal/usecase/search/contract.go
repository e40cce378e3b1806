package search

import (
	"context"

	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/ranking"
	"github.com/kailas-cloud/tourdex/internal/similarity"
	"github.com/kailas-cloud/tourdex/internal/text"
)

// CorpusSource supplies the document snapshot for one request.
type CorpusSource interface {
	Snapshot(ctx context.Context) (*corpus.Snapshot, error)
}

// Expander expands a normalized query with related terms.
type Expander interface {
	Expand(q text.Result) []string
	Provinces(q text.Result) []string
	Categories(q text.Result) []string
	Degraded() bool
}

// Matcher scores the corpus against query terms.
type Matcher = similarity.Index

// Ranker orders matches.
type Ranker interface {
	Rank(matches []result.Match, snap *corpus.Snapshot, q ranking.Query) []result.Ranked
}

// Suggester produces attraction suggestions for a prefix.
type Suggester interface {
	Suggest(ctx context.Context, prefix string, limit int, snap *corpus.Snapshot) ([]result.Suggestion, error)
}
