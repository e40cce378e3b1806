// Package corpus implements domain corpus sources backed by Redis/Valkey,
// SQLite and a watched YAML/JSON file.
package corpus

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	domcorpus "github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/metrics"
)

// DefaultRefreshInterval bounds snapshot staleness when the store exposes no version.
const DefaultRefreshInterval = 30 * time.Second

// reloader caches the latest snapshot of a remote store and collapses
// concurrent reloads into one.
type reloader struct {
	driver  string
	refresh time.Duration
	now     func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	snap     *domcorpus.Snapshot
	loadedAt time.Time
}

func newReloader(driver string, refresh time.Duration) *reloader {
	if refresh <= 0 {
		refresh = DefaultRefreshInterval
	}
	return &reloader{driver: driver, refresh: refresh, now: time.Now}
}

// get returns the cached snapshot when it is still current and calls load otherwise.
// A non-empty version is current when it equals the cached snapshot version;
// an empty version is current until the refresh interval elapses.
func (r *reloader) get(
	ctx context.Context, version string, load func(ctx context.Context) (*domcorpus.Snapshot, error),
) (*domcorpus.Snapshot, error) {
	if snap, ok := r.current(version); ok {
		return snap, nil
	}

	v, err, _ := r.group.Do("load", func() (any, error) {
		if snap, ok := r.current(version); ok {
			return snap, nil
		}
		snap, err := load(ctx)
		metrics.CorpusLoadsTotal.WithLabelValues(r.driver, metrics.Status(err)).Inc()
		if err != nil {
			return nil, err
		}
		r.store(snap)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domcorpus.Snapshot), nil
}

func (r *reloader) current(version string) (*domcorpus.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.snap == nil {
		return nil, false
	}
	if version != "" {
		return r.snap, r.snap.Version() == version
	}
	return r.snap, r.now().Sub(r.loadedAt) < r.refresh
}

func (r *reloader) store(snap *domcorpus.Snapshot) {
	r.mu.Lock()
	r.snap = snap
	r.loadedAt = r.now()
	r.mu.Unlock()
	metrics.CorpusDocuments.Set(float64(snap.Len()))
}

// invalidate drops the cached snapshot so the next get reloads.
func (r *reloader) invalidate() {
	r.mu.Lock()
	r.snap = nil
	r.mu.Unlock()
}
