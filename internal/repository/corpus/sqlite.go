package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go SQLite driver

	domcorpus "github.com/kailas-cloud/tourdex/internal/domain/corpus"
	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/logger"
)

// SQLiteSchema is the table layout the sqlite driver reads.
// aliases and tags hold JSON arrays; created_at holds RFC3339 text.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS attractions (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	caption       TEXT NOT NULL DEFAULT '',
	aliases       TEXT NOT NULL DEFAULT '[]',
	tags          TEXT NOT NULL DEFAULT '[]',
	province      TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	rating        REAL NOT NULL DEFAULT 0,
	lat           REAL,
	lng           REAL,
	like_count    INTEGER NOT NULL DEFAULT 0,
	comment_count INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS corpus_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

const selectAttractions = `
SELECT id, name, caption, aliases, tags, province, category, rating,
       lat, lng, like_count, comment_count, created_at
FROM attractions
ORDER BY id`

const selectVersion = `SELECT value FROM corpus_meta WHERE key = 'version'`

var _ domcorpus.Source = (*SQLiteSource)(nil)

// SQLiteSource reads the corpus from an SQLite database.
type SQLiteSource struct {
	db    *sql.DB
	cache *reloader
}

// OpenSQLite opens the database at path (use ":memory:" for tests) and
// ensures the corpus tables exist.
func OpenSQLite(ctx context.Context, path string, refresh time.Duration) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// Single connection keeps ":memory:" databases shared and writers serialized.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create corpus tables: %w", err)
	}
	return &SQLiteSource{db: db, cache: newReloader("sqlite", refresh)}, nil
}

// Close releases the database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Ping checks the database handle.
func (s *SQLiteSource) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("corpus sqlite: %w", err)
	}
	return nil
}

// Snapshot returns the current corpus snapshot, reloading it when the
// stored version changed or the refresh interval elapsed.
func (s *SQLiteSource) Snapshot(ctx context.Context) (*domcorpus.Snapshot, error) {
	version, err := s.version(ctx)
	if err != nil {
		return nil, err
	}
	return s.cache.get(ctx, version, func(ctx context.Context) (*domcorpus.Snapshot, error) {
		return s.load(ctx, version)
	})
}

// Replace rewrites the attractions table with docs in one transaction.
// An empty version is replaced by the content fingerprint.
func (s *SQLiteSource) Replace(ctx context.Context, docs []domdoc.Document, version string) error {
	if version == "" {
		version = domcorpus.NewSnapshot("", docs).Version()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM attractions`); err != nil {
		return fmt.Errorf("clear attractions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO attractions (id, name, caption, aliases, tags, province, category, rating,
                         lat, lng, like_count, comment_count, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range docs {
		d := &docs[i]
		aliases, _ := json.Marshal(nonNil(d.Aliases()))
		tags, _ := json.Marshal(nonNil(d.Tags()))
		var lat, lng sql.NullFloat64
		if loc := d.Location(); loc != nil {
			lat = sql.NullFloat64{Float64: loc.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: loc.Lon, Valid: true}
		}
		_, err := stmt.ExecContext(ctx,
			d.ID(), d.Name(), d.Caption(), string(aliases), string(tags), d.Province(), d.Category(),
			d.Rating(), lat, lng, d.LikeCount(), d.CommentCount(),
			d.CreatedAt().UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert %s: %w", d.ID(), err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO corpus_meta (key, value) VALUES ('version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, version,
	); err != nil {
		return fmt.Errorf("set corpus version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.cache.invalidate()

	logger.FromContext(ctx).Info("corpus replaced",
		zap.String("driver", s.cache.driver),
		zap.String("version", version),
		zap.Int("documents", len(docs)),
	)
	return nil
}

func (s *SQLiteSource) version(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, selectVersion).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get corpus version: %w", err)
	}
	return v, nil
}

// load reads every row. Malformed rows are logged and skipped.
func (s *SQLiteSource) load(ctx context.Context, version string) (*domcorpus.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, selectAttractions)
	if err != nil {
		return nil, fmt.Errorf("query attractions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	log := logger.FromContext(ctx)
	var docs []domdoc.Document
	skipped := 0
	for rows.Next() {
		var (
			r                 Record
			aliases, tags, ts string
			lat, lng          sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Caption, &aliases, &tags, &r.Province, &r.Category,
			&r.Rating, &lat, &lng, &r.LikeCount, &r.CommentCount, &ts); err != nil {
			return nil, fmt.Errorf("scan attraction: %w", err)
		}
		doc, err := r.fromColumns(aliases, tags, ts, lat, lng)
		if err != nil {
			skipped++
			log.Warn("skipping malformed corpus document", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attractions: %w", err)
	}

	snap := domcorpus.NewSnapshot(version, docs)
	log.Info("corpus loaded",
		zap.String("driver", s.cache.driver),
		zap.String("version", snap.Version()),
		zap.Int("documents", snap.Len()),
		zap.Int("skipped", skipped),
	)
	return snap, nil
}

func (r *Record) fromColumns(aliases, tags, createdAt string, lat, lng sql.NullFloat64) (domdoc.Document, error) {
	var err error
	if r.Aliases, err = parseList(aliases); err != nil {
		return domdoc.Document{}, fmt.Errorf("aliases: %w", err)
	}
	if r.Tags, err = parseList(tags); err != nil {
		return domdoc.Document{}, fmt.Errorf("tags: %w", err)
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return domdoc.Document{}, fmt.Errorf("created_at: %w", err)
	}
	if lat.Valid && lng.Valid {
		r.Lat, r.Lng = &lat.Float64, &lng.Float64
	}
	return r.Document()
}
