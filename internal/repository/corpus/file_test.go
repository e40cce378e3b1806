package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const corpusYAML = `version: "v1"
documents:
  - id: wat-arun
    name: Wat Arun
    caption: Temple of Dawn
    aliases: ["วัดอรุณ"]
    tags: [temple, river]
    province: Bangkok
    category: temple
    rating: 4.7
    lat: 13.7437
    lng: 100.4888
    like_count: 120
    comment_count: 14
    created_at: 2024-05-01T10:00:00Z
  - id: doi-suthep
    name: ดอยสุเทพ
    province: เชียงใหม่
    created_at: 2024-04-01T00:00:00Z
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestReadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	writeFile(t, path, corpusYAML)

	version, docs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "v1" || len(docs) != 2 {
		t.Fatalf("version=%q docs=%d", version, len(docs))
	}
	d := docs[0]
	if d.Location() == nil || d.Location().Lat != 13.7437 || d.LikeCount() != 120 || len(d.Tags()) != 2 {
		t.Errorf("unexpected document: %+v", d.Fields())
	}
	if !d.CreatedAt().Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("created_at = %v", d.CreatedAt())
	}
}

func TestReadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	writeFile(t, path, `{"documents":[{"id":"a","name":"A","created_at":"2024-01-01T00:00:00Z"}]}`)

	version, docs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != "" || len(docs) != 1 || docs[0].ID() != "a" {
		t.Errorf("version=%q docs=%v", version, docs)
	}
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, file, content, want string
	}{
		{"format", "corpus.txt", "x", "unsupported corpus format"},
		{"parse", "corpus.json", "{", "parse corpus"},
		{"invalid document", "corpus.yaml", "documents:\n  - id: a\n", "entry 0"},
		{"missing", "", "", "read corpus"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, "absent.yaml")
			if tc.file != "" {
				path = filepath.Join(dir, tc.file)
				writeFile(t, path, tc.content)
			}
			_, _, err := ReadFile(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestFileSource_SnapshotAndPing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	writeFile(t, path, corpusYAML)

	src, err := NewFileSource(path, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := src.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	snap, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Version() != "v1" || snap.Len() != 2 {
		t.Errorf("version=%q len=%d", snap.Version(), snap.Len())
	}
}

func TestFileSource_InitialLoadMustSucceed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	writeFile(t, path, "documents: [")

	if _, err := NewFileSource(path, zap.NewNop()); err == nil {
		t.Fatal("expected error")
	}
}

func TestFileSource_ReloadKeepsPreviousOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	writeFile(t, path, corpusYAML)
	src, err := NewFileSource(path, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, path, "documents: [")
	if err := src.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	snap, err := src.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Version() != "v1" {
		t.Errorf("version = %q, want previous v1", snap.Version())
	}
}

func TestFileSource_WatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.yaml")
	writeFile(t, path, corpusYAML)
	src, err := NewFileSource(path, zap.NewNop(), WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("watch: %v", err)
		}
	}()

	updated := strings.Replace(corpusYAML, `version: "v1"`, `version: "v2"`, 1)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		// Rewrite until the watcher is registered and picks the change up.
		writeFile(t, path, updated)
		time.Sleep(50 * time.Millisecond)
		snap, _ := src.Snapshot(context.Background())
		if snap.Version() == "v2" {
			return
		}
	}
	t.Fatal("watcher did not reload the corpus")
}
