// Package corpus defines the read-only document snapshot consumed by search.
package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/text"
)

// Source supplies corpus snapshots. Implementations must be safe for concurrent use.
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
	Ping(ctx context.Context) error
}

// Entry is a document together with its folded searchable fields.
type Entry struct {
	Doc      document.Document
	Name     string
	Caption  string
	Province string
	Tags     []string
	Aliases  []string
}

// Snapshot is an immutable, id-ordered view of the corpus.
type Snapshot struct {
	version string
	entries []Entry
	byID    map[string]int
}

// NewSnapshot folds searchable fields and orders documents by id.
// Later duplicates of an id replace earlier ones. An empty version is
// replaced by a content fingerprint so caches keyed by version stay correct.
func NewSnapshot(version string, docs []document.Document) *Snapshot {
	last := make(map[string]int, len(docs))
	for i := range docs {
		last[docs[i].ID()] = i
	}

	entries := make([]Entry, 0, len(last))
	for i := range docs {
		if last[docs[i].ID()] != i {
			continue
		}
		entries = append(entries, newEntry(docs[i]))
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Doc.ID() < entries[j].Doc.ID()
	})

	byID := make(map[string]int, len(entries))
	for i := range entries {
		byID[entries[i].Doc.ID()] = i
	}

	if version == "" {
		version = fingerprint(entries)
	}
	return &Snapshot{version: version, entries: entries, byID: byID}
}

func newEntry(doc document.Document) Entry {
	return Entry{
		Doc:      doc,
		Name:     text.Fold(doc.Name()),
		Caption:  text.Fold(doc.Caption()),
		Province: text.Fold(doc.Province()),
		Tags:     foldAll(doc.Tags()),
		Aliases:  foldAll(doc.Aliases()),
	}
}

func foldAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if f := text.Fold(v); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func fingerprint(entries []Entry) string {
	h := sha256.New()
	for i := range entries {
		e := &entries[i]
		h.Write([]byte(e.Doc.ID()))
		h.Write([]byte{0})
		h.Write([]byte(e.Name))
		h.Write([]byte{0})
		h.Write([]byte(e.Caption))
		h.Write([]byte{0})
		h.Write([]byte(e.Province))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(e.Tags, "\x1f")))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(e.Aliases, "\x1f")))
		h.Write([]byte{1})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Version identifies the snapshot content.
func (s *Snapshot) Version() string { return s.version }

// Len returns the number of documents.
func (s *Snapshot) Len() int { return len(s.entries) }

// Entry returns the i-th entry in id order.
func (s *Snapshot) Entry(i int) *Entry { return &s.entries[i] }

// Lookup returns the entry with the given id.
func (s *Snapshot) Lookup(id string) (*Entry, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.entries[i], true
}

// Index returns the position of the entry with the given id.
func (s *Snapshot) Index(id string) (int, bool) {
	i, ok := s.byID[id]
	return i, ok
}
