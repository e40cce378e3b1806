package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/db"
	domcorpus "github.com/kailas-cloud/tourdex/internal/domain/corpus"
	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/logger"
)

// DefaultKeyPrefix namespaces corpus keys in Redis/Valkey.
const DefaultKeyPrefix = "tourdex"

var _ domcorpus.Source = (*RedisSource)(nil)

// store is the consumer interface for the redis corpus driver (ISP).
type store interface {
	Ping(ctx context.Context) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisSource reads the corpus from hashes at "<prefix>:doc:<id>".
// The optional string key "<prefix>:corpus:version" identifies the corpus
// revision; when absent the snapshot is refreshed on an interval.
type RedisSource struct {
	store  store
	prefix string
	cache  *reloader
}

// NewRedisSource creates a corpus source over a Redis or Valkey store.
// driver labels metrics ("redis" or "valkey").
func NewRedisSource(s store, driver, prefix string, refresh time.Duration) *RedisSource {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSource{store: s, prefix: prefix, cache: newReloader(driver, refresh)}
}

// Snapshot returns the current corpus snapshot, reloading it when the
// version key changed or the refresh interval elapsed.
func (r *RedisSource) Snapshot(ctx context.Context) (*domcorpus.Snapshot, error) {
	version, err := r.version(ctx)
	if err != nil {
		return nil, err
	}
	return r.cache.get(ctx, version, func(ctx context.Context) (*domcorpus.Snapshot, error) {
		return r.load(ctx, version)
	})
}

// Ping checks store connectivity.
func (r *RedisSource) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("corpus redis: %w", err)
	}
	return nil
}

// Replace writes docs as the new corpus: documents are upserted, keys of
// documents no longer present are deleted, and the version key is set last.
// An empty version is replaced by the content fingerprint.
func (r *RedisSource) Replace(ctx context.Context, docs []domdoc.Document, version string) error {
	existing, err := r.store.Scan(ctx, r.docPattern())
	if err != nil {
		return fmt.Errorf("scan corpus keys: %w", err)
	}

	items := make([]db.HashSetItem, 0, len(docs))
	keep := make(map[string]struct{}, len(docs))
	for i := range docs {
		fields, err := buildHashFields(&docs[i])
		if err != nil {
			return fmt.Errorf("document %s: %w", docs[i].ID(), err)
		}
		key := r.docKey(docs[i].ID())
		keep[key] = struct{}{}
		items = append(items, db.HashSetItem{Key: key, Fields: fields})
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("write corpus documents: %w", err)
	}

	var stale []string
	for _, key := range existing {
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := r.store.Del(ctx, stale...); err != nil {
		return fmt.Errorf("delete stale documents: %w", err)
	}

	if version == "" {
		version = domcorpus.NewSnapshot("", docs).Version()
	}
	if err := r.store.Set(ctx, r.versionKey(), []byte(version)); err != nil {
		return fmt.Errorf("set corpus version: %w", err)
	}
	r.cache.invalidate()

	logger.FromContext(ctx).Info("corpus replaced",
		zap.String("driver", r.cache.driver),
		zap.String("version", version),
		zap.Int("documents", len(docs)),
		zap.Int("deleted", len(stale)),
	)
	return nil
}

func (r *RedisSource) version(ctx context.Context) (string, error) {
	raw, err := r.store.Get(ctx, r.versionKey())
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get corpus version: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// load reads every document hash. Malformed documents are logged and skipped.
func (r *RedisSource) load(ctx context.Context, version string) (*domcorpus.Snapshot, error) {
	keys, err := r.store.Scan(ctx, r.docPattern())
	if err != nil {
		return nil, fmt.Errorf("scan corpus keys: %w", err)
	}
	sort.Strings(keys)

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read corpus documents: %w", err)
	}

	log := logger.FromContext(ctx)
	docs := make([]domdoc.Document, 0, len(hashes))
	skipped := 0
	for i, m := range hashes {
		if len(m) == 0 {
			// deleted between SCAN and HGETALL
			continue
		}
		if m[fieldID] == "" {
			m[fieldID] = strings.TrimPrefix(keys[i], r.docKey(""))
		}
		doc, err := parseHashFields(m)
		if err != nil {
			skipped++
			log.Warn("skipping malformed corpus document",
				zap.String("key", keys[i]),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, doc)
	}

	snap := domcorpus.NewSnapshot(version, docs)
	log.Info("corpus loaded",
		zap.String("driver", r.cache.driver),
		zap.String("version", snap.Version()),
		zap.Int("documents", snap.Len()),
		zap.Int("skipped", skipped),
	)
	return snap, nil
}

func (r *RedisSource) docKey(id string) string { return r.prefix + ":doc:" + id }
func (r *RedisSource) docPattern() string      { return r.prefix + ":doc:*" }
func (r *RedisSource) versionKey() string      { return r.prefix + ":corpus:version" }
