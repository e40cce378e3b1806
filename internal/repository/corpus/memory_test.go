package corpus

import (
	"context"
	"testing"
)

func TestMemorySource_Replace(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySource(fixtureDocs(t), "v1")

	snap, err := m.Snapshot(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Version() != "v1" || snap.Len() != 2 {
		t.Fatalf("got version %q len %d", snap.Version(), snap.Len())
	}

	if err := m.Replace(ctx, fixtureDocs(t)[:1], ""); err != nil {
		t.Fatalf("replace: %v", err)
	}
	snap, _ = m.Snapshot(ctx)
	if snap.Len() != 1 {
		t.Errorf("expected 1 doc, got %d", snap.Len())
	}
	if snap.Version() == "" || snap.Version() == "v1" {
		t.Errorf("expected fingerprint version, got %q", snap.Version())
	}
	if err := m.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
}
