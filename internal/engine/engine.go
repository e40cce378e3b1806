// Package engine assembles corpus drivers and the search pipeline from configuration.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/autocomplete"
	"github.com/kailas-cloud/tourdex/internal/config"
	dbredis "github.com/kailas-cloud/tourdex/internal/db/redis"
	domcorpus "github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/expansion"
	"github.com/kailas-cloud/tourdex/internal/metrics"
	"github.com/kailas-cloud/tourdex/internal/ranking"
	corpusrepo "github.com/kailas-cloud/tourdex/internal/repository/corpus"
	"github.com/kailas-cloud/tourdex/internal/similarity"
	"github.com/kailas-cloud/tourdex/internal/text"
	healthuc "github.com/kailas-cloud/tourdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/tourdex/internal/usecase/search"
)

// Replacer overwrites the stored corpus. Implemented by the store-backed drivers.
type Replacer interface {
	Replace(ctx context.Context, docs []document.Document, version string) error
}

// Corpus is an opened corpus driver.
type Corpus struct {
	Source   domcorpus.Source
	Replacer Replacer                        // nil for the file driver
	Watch    func(ctx context.Context) error // nil unless the file driver watches for changes
	Close    func()
}

// OpenCorpus connects the configured corpus driver.
func OpenCorpus(ctx context.Context, cfg config.CorpusConfig, logger *zap.Logger) (*Corpus, error) {
	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:        cfg.Addrs,
			Username:     cfg.Username,
			Password:     cfg.Password,
			DB:           cfg.DB,
			PipelineSize: cfg.PipelineSize,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		logger.Info("Connected to corpus store",
			zap.String("driver", cfg.Driver),
			zap.Strings("addrs", cfg.Addrs),
			zap.String("key_prefix", cfg.KeyPrefix),
		)
		src := corpusrepo.NewRedisSource(store, cfg.Driver, cfg.KeyPrefix, cfg.RefreshInterval)
		return &Corpus{Source: src, Replacer: src, Close: store.Close}, nil

	case config.DriverSQLite:
		src, err := corpusrepo.OpenSQLite(ctx, cfg.Path, cfg.RefreshInterval)
		if err != nil {
			return nil, err
		}
		logger.Info("Opened corpus database", zap.String("path", cfg.Path))
		return &Corpus{
			Source:   src,
			Replacer: src,
			Close: func() {
				if err := src.Close(); err != nil {
					logger.Warn("close corpus database", zap.Error(err))
				}
			},
		}, nil

	case config.DriverFile:
		src, err := corpusrepo.NewFileSource(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		c := &Corpus{Source: src, Close: func() {}}
		if cfg.Watch {
			c.Watch = src.Watch
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown corpus driver %q", cfg.Driver)
	}
}

// Engine is the assembled search pipeline.
type Engine struct {
	Search *searchuc.Service
	Health *healthuc.Service
	pool   *ants.Pool
}

// Release returns pooled workers.
func (e *Engine) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}

// BuildOption customizes Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	now func() time.Time
}

// WithClock sets the time source used for recency ranking.
func WithClock(now func() time.Time) BuildOption {
	return func(o *buildOptions) { o.now = now }
}

// Build wires normalizer, expander, matcher, ranker and suggester over source.
func Build(cfg config.Config, source domcorpus.Source, logger *zap.Logger, opts ...BuildOption) (*Engine, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	var pool *ants.Pool
	if cfg.Search.PoolSize > 0 {
		var err error
		pool, err = ants.NewPool(cfg.Search.PoolSize, ants.WithPreAlloc(false))
		if err != nil {
			return nil, fmt.Errorf("create scoring pool: %w", err)
		}
	}
	e := &Engine{pool: pool}

	matcher, err := similarity.New(similarity.Config{
		Matcher:           cfg.Search.Matcher,
		ShardSize:         cfg.Search.ShardSize,
		MaxCandidates:     cfg.Search.MaxScanCandidates,
		ScanBudget:        cfg.Search.ScanBudget,
		IndexCacheSize:    cfg.Search.IndexCacheSize,
		MaxIndexDocuments: cfg.Search.MaxIndexDocuments,
	}, similarity.Deps{
		Pool:          pool,
		Logger:        logger,
		CacheTotal:    metrics.IndexCacheTotal,
		DegradedTotal: metrics.DegradedTotal,
	})
	if err != nil {
		e.Release()
		return nil, fmt.Errorf("create matcher: %w", err)
	}

	normalizer, err := text.NewDefaultNormalizer()
	if err != nil {
		e.Release()
		return nil, fmt.Errorf("create normalizer: %w", err)
	}

	expander := expansion.Load(cfg.Expansion.Path, cfg.Expansion.MaxTerms, normalizer, logger)
	var rankOpts []ranking.Option
	if bo.now != nil {
		rankOpts = append(rankOpts, ranking.WithClock(bo.now))
	}
	ranker := ranking.New(cfg.Ranking.Params(), rankOpts...)

	suggester, err := autocomplete.New(matcher, normalizer, ranker, autocomplete.Config{
		RelaxedThreshold: cfg.Autocomplete.RelaxedThreshold,
		CacheSize:        cfg.Autocomplete.CacheSize,
	}, logger)
	if err != nil {
		e.Release()
		return nil, err
	}

	e.Search = searchuc.New(searchuc.Deps{
		Corpus:     source,
		Normalizer: normalizer,
		Expander:   expander,
		Matcher:    matcher,
		Ranker:     ranker,
		Suggester:  suggester,
	}, searchuc.Config{
		Threshold:        cfg.Search.Threshold,
		Timeout:          cfg.Search.Timeout,
		SuggestionsLimit: cfg.Search.SuggestionsLimit,
	})
	e.Health = healthuc.New(source, expander)

	logger.Info("Search engine ready",
		zap.String("matcher", matcher.Name()),
		zap.Float64("threshold", cfg.Search.Threshold),
		zap.Duration("timeout", cfg.Search.Timeout),
		zap.Int("pool_size", cfg.Search.PoolSize),
		zap.Bool("expansion_degraded", expander.Degraded()),
	)
	return e, nil
}
