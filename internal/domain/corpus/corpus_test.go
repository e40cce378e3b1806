package corpus

import (
	"testing"

	"github.com/kailas-cloud/tourdex/internal/domain/document"
)

func doc(id, name string, tags ...string) document.Document {
	return document.Reconstruct(document.Fields{ID: id, Name: name, Tags: tags, Province: "Chiang Mai"})
}

func TestNewSnapshot_OrdersByID(t *testing.T) {
	s := NewSnapshot("v1", []document.Document{doc("c", "C"), doc("a", "A"), doc("b", "B")})

	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	for i, want := range []string{"a", "b", "c"} {
		if got := s.Entry(i).Doc.ID(); got != want {
			t.Errorf("Entry(%d) = %q, want %q", i, got, want)
		}
	}
	if s.Version() != "v1" {
		t.Errorf("Version() = %q", s.Version())
	}
}

func TestNewSnapshot_FoldsFields(t *testing.T) {
	s := NewSnapshot("v1", []document.Document{doc("a", "Wat Phra-Singh!", "Temple", "  ")})

	e := s.Entry(0)
	if e.Name != "wat phra singh" {
		t.Errorf("Name = %q", e.Name)
	}
	if e.Province != "chiang mai" {
		t.Errorf("Province = %q", e.Province)
	}
	if len(e.Tags) != 1 || e.Tags[0] != "temple" {
		t.Errorf("Tags = %v (empty tags must be dropped)", e.Tags)
	}
}

func TestNewSnapshot_DuplicateIDsLastWins(t *testing.T) {
	s := NewSnapshot("v1", []document.Document{doc("a", "old"), doc("a", "new")})

	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
	e, ok := s.Lookup("a")
	if !ok || e.Doc.Name() != "new" {
		t.Errorf("Lookup(a) = %v, %v", e, ok)
	}
}

func TestNewSnapshot_FingerprintVersion(t *testing.T) {
	a := NewSnapshot("", []document.Document{doc("a", "A")})
	b := NewSnapshot("", []document.Document{doc("a", "A")})
	c := NewSnapshot("", []document.Document{doc("a", "Changed")})

	if a.Version() == "" {
		t.Fatal("expected fingerprint version")
	}
	if a.Version() != b.Version() {
		t.Errorf("same content produced different versions: %q vs %q", a.Version(), b.Version())
	}
	if a.Version() == c.Version() {
		t.Error("different content produced the same version")
	}
}

func TestLookup_Missing(t *testing.T) {
	s := NewSnapshot("v1", nil)
	if _, ok := s.Lookup("missing"); ok {
		t.Error("expected miss")
	}
}

func TestIndex(t *testing.T) {
	s := NewSnapshot("v1", []document.Document{doc("b", "B"), doc("a", "A")})

	i, ok := s.Index("b")
	if !ok || i != 1 {
		t.Errorf("Index(b) = %d, %v; want 1, true", i, ok)
	}
	if _, ok := s.Index("z"); ok {
		t.Error("Index(z) should miss")
	}
}
