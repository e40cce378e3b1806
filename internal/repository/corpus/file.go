package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domcorpus "github.com/kailas-cloud/tourdex/internal/domain/corpus"
	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/metrics"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 200 * time.Millisecond

var errNoSnapshot = errors.New("corpus file not loaded")

var _ domcorpus.Source = (*FileSource)(nil)

// fileCorpus is the top-level layout of a corpus file.
type fileCorpus struct {
	Version   string   `json:"version" yaml:"version"`
	Documents []Record `json:"documents" yaml:"documents"`
}

// ReadFile parses a YAML (.yaml/.yml) or JSON (.json) corpus file.
// Every document must be valid; the first invalid one fails the read.
func ReadFile(path string) (string, []domdoc.Document, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", nil, fmt.Errorf("read corpus %s: %w", path, err)
	}

	var src fileCorpus
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &src)
	case ".json":
		err = json.Unmarshal(data, &src)
	default:
		return "", nil, fmt.Errorf("unsupported corpus format %q", ext)
	}
	if err != nil {
		return "", nil, fmt.Errorf("parse corpus %s: %w", path, err)
	}

	docs := make([]domdoc.Document, 0, len(src.Documents))
	for i := range src.Documents {
		doc, err := src.Documents[i].Document()
		if err != nil {
			return "", nil, fmt.Errorf("corpus %s entry %d: %w", path, i, err)
		}
		docs = append(docs, doc)
	}
	return src.Version, docs, nil
}

// FileOption configures a FileSource.
type FileOption func(*FileSource)

// WithDebounce sets the delay between the last file event and the reload.
func WithDebounce(d time.Duration) FileOption {
	return func(f *FileSource) { f.debounce = d }
}

// FileSource serves the corpus from a local file and reloads it on change.
// A failed reload keeps the previous snapshot.
type FileSource struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger
	snap     atomic.Pointer[domcorpus.Snapshot]
}

// NewFileSource loads path once. The initial load must succeed.
func NewFileSource(path string, logger *zap.Logger, opts ...FileOption) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve corpus path: %w", err)
	}
	f := &FileSource{path: abs, debounce: DefaultDebounce, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.Reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Snapshot returns the most recently loaded snapshot.
func (f *FileSource) Snapshot(_ context.Context) (*domcorpus.Snapshot, error) {
	snap := f.snap.Load()
	if snap == nil {
		return nil, errNoSnapshot
	}
	return snap, nil
}

// Ping reports whether a snapshot is loaded.
func (f *FileSource) Ping(_ context.Context) error {
	if f.snap.Load() == nil {
		return errNoSnapshot
	}
	return nil
}

// Reload re-reads the file and swaps in the new snapshot.
func (f *FileSource) Reload() error {
	version, docs, err := ReadFile(f.path)
	metrics.CorpusLoadsTotal.WithLabelValues("file", metrics.Status(err)).Inc()
	if err != nil {
		return err
	}
	snap := domcorpus.NewSnapshot(version, docs)
	f.snap.Store(snap)
	metrics.CorpusDocuments.Set(float64(snap.Len()))
	f.logger.Info("corpus loaded",
		zap.String("driver", "file"),
		zap.String("path", f.path),
		zap.String("version", snap.Version()),
		zap.Int("documents", snap.Len()),
	)
	return nil
}

// Watch reloads the corpus whenever the file is written or replaced.
// The parent directory is watched so editors that save via rename are seen.
// Blocks until ctx is canceled.
func (f *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(f.path), err)
	}

	timer := time.NewTimer(f.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(f.debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("corpus watcher error", zap.Error(err))
		case <-timer.C:
			if err := f.Reload(); err != nil {
				f.logger.Warn("corpus reload failed, keeping previous snapshot",
					zap.String("path", f.path),
					zap.Error(err),
				)
			}
		}
	}
}
