package corpus

import (
	"context"
	"sync/atomic"

	domcorpus "github.com/kailas-cloud/tourdex/internal/domain/corpus"
	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
)

var _ domcorpus.Source = (*MemorySource)(nil)

// MemorySource holds the corpus in process memory.
type MemorySource struct {
	snap atomic.Pointer[domcorpus.Snapshot]
}

// NewMemorySource creates a source serving docs.
func NewMemorySource(docs []domdoc.Document, version string) *MemorySource {
	m := &MemorySource{}
	m.snap.Store(domcorpus.NewSnapshot(version, docs))
	return m
}

// Snapshot returns the current snapshot.
func (m *MemorySource) Snapshot(_ context.Context) (*domcorpus.Snapshot, error) {
	return m.snap.Load(), nil
}

// Ping always succeeds.
func (m *MemorySource) Ping(_ context.Context) error { return nil }

// Replace swaps in a new snapshot.
func (m *MemorySource) Replace(_ context.Context, docs []domdoc.Document, version string) error {
	m.snap.Store(domcorpus.NewSnapshot(version, docs))
	return nil
}
