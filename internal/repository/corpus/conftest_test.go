package corpus

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/tourdex/internal/db"
	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/geo"
)

// --- Mocks ---

// mockStore is an in-memory implementation of the consumer interface.
type mockStore struct {
	mu      sync.Mutex
	hashes  map[string]map[string]string
	strings map[string][]byte
	scans   int
	reads   int
	pingErr error
	scanErr error
	getErr  error
	hgetErr error
	deleted []string
}

func newMockStore() *mockStore {
	return &mockStore{
		hashes:  make(map[string]map[string]string),
		strings: make(map[string][]byte),
	}
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) Scan(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range m.hashes {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.hgetErr != nil {
		return nil, m.hgetErr
	}
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		h := make(map[string]string, len(m.hashes[k]))
		for f, v := range m.hashes[k] {
			h[f] = v
		}
		out[i] = h
	}
	return out, nil
}

func (m *mockStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		h := make(map[string]string, len(it.Fields))
		for f, v := range it.Fields {
			h[f] = v
		}
		m.hashes[it.Key] = h
	}
	return nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.hashes, k)
		delete(m.strings, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.strings[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

// --- Fixtures ---

func newDoc(t *testing.T, f domdoc.Fields) domdoc.Document {
	t.Helper()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}
	d, err := domdoc.New(f)
	if err != nil {
		t.Fatalf("new document: %v", err)
	}
	return d
}

func fixtureDocs(t *testing.T) []domdoc.Document {
	t.Helper()
	return []domdoc.Document{
		newDoc(t, domdoc.Fields{
			ID: "wat-arun", Name: "Wat Arun", Caption: "Temple of Dawn",
			Aliases: []string{"วัดอรุณ"}, Tags: []string{"temple", "river"},
			Province: "Bangkok", Category: "temple", Rating: 4.7,
			Location:  &geo.Point{Lat: 13.7437, Lon: 100.4888},
			LikeCount: 120, CommentCount: 14,
		}),
		newDoc(t, domdoc.Fields{
			ID: "doi-suthep", Name: "ดอยสุเทพ", Province: "เชียงใหม่", Category: "temple",
			Rating: 4.8, LikeCount: 300,
		}),
	}
}
