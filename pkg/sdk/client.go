package tourdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tourdex/internal/config"
	domdoc "github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/search/request"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/engine"
	"github.com/kailas-cloud/tourdex/internal/logger"
	corpusrepo "github.com/kailas-cloud/tourdex/internal/repository/corpus"
)

const defaultReadinessTimeout = 10

// Internal interfaces, swapped out in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
	Autocomplete(ctx context.Context, prefix string, limit int) ([]result.Suggestion, error)
}

// Client is the tourdex SDK entry point.
type Client struct {
	searchSvc searchUseCase
	healthSvc healthUseCase
	replacer  engine.Replacer // nil for the file driver
	closers   []func()
	obs       *observer
	log       *zap.Logger
}

// New opens the configured corpus and builds the search engine.
// The provided context is used for the initial connection.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.driver == "" {
		return nil, errors.New("tourdex: corpus required (use WithRedis, WithValkey, WithSQLite, WithFile or WithAttractions)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	ecfg := engineConfig(cfg)
	if err := ecfg.Validate(); err != nil {
		return nil, fmt.Errorf("tourdex: %w", err)
	}

	log := newEngineLogger(cfg.logger)
	corpus, err := openCorpus(ctx, cfg, ecfg.Corpus, log)
	if err != nil {
		return nil, err
	}

	var buildOpts []engine.BuildOption
	if cfg.now != nil {
		buildOpts = append(buildOpts, engine.WithClock(cfg.now))
	}
	eng, err := engine.Build(ecfg, corpus.Source, log, buildOpts...)
	if err != nil {
		corpus.Close()
		return nil, fmt.Errorf("tourdex: %w", err)
	}

	return &Client{
		searchSvc: eng.Search,
		healthSvc: eng.Health,
		replacer:  corpus.Replacer,
		closers:   []func(){eng.Release, corpus.Close},
		obs:       obs,
		log:       log,
	}, nil
}

// engineConfig maps client options onto the service configuration.
func engineConfig(cfg *clientConfig) config.Config {
	c := config.Config{
		HTTP: config.HTTPConfig{Port: 1}, // unused, keeps Validate happy
		Corpus: config.CorpusConfig{
			Driver:           cfg.driver,
			Addrs:            cfg.addrs,
			Password:         cfg.password,
			Path:             cfg.path,
			ReadinessTimeout: defaultReadinessTimeout,
		},
		Search: config.SearchConfig{
			Matcher:   cfg.matcher,
			Threshold: cfg.threshold,
			Timeout:   cfg.timeout,
			PoolSize:  cfg.workers,
		},
		Expansion: config.ExpansionConfig{Path: cfg.expansionPath},
	}
	if cfg.driver == "memory" {
		// the memory driver is SDK-only; validate against a neutral stand-in
		c.Corpus.Driver = config.DriverFile
		c.Corpus.Path = "memory"
	}
	c.ApplyDefaults()
	return c
}

func openCorpus(
	ctx context.Context, cfg *clientConfig, ccfg config.CorpusConfig, log *zap.Logger,
) (*engine.Corpus, error) {
	if cfg.driver == "memory" {
		docs, err := toDocuments(cfg.attractions)
		if err != nil {
			return nil, fmt.Errorf("tourdex: %w", err)
		}
		src := corpusrepo.NewMemorySource(docs, cfg.version)
		return &engine.Corpus{Source: src, Replacer: src, Close: func() {}}, nil
	}
	corpus, err := engine.OpenCorpus(ctx, ccfg, log)
	if err != nil {
		return nil, fmt.Errorf("tourdex: open %s corpus: %w", cfg.driver, err)
	}
	return corpus, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for _, fn := range c.closers {
		fn()
	}
	c.closers = nil
}

// Search starts a search for query.
func (c *Client) Search(query string) *SearchBuilder {
	return &SearchBuilder{client: c, params: request.Params{Query: query}}
}

// Autocomplete returns up to limit suggestions for prefix. limit <= 0 uses the default.
func (c *Client) Autocomplete(ctx context.Context, prefix string, limit int) (out []Suggestion, err error) {
	start := time.Now()
	defer func() { c.obs.observe("autocomplete", start, err) }()

	res, err := c.searchSvc.Autocomplete(c.withLogger(ctx), prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("autocomplete: %w", err)
	}
	return fromSuggestions(res), nil
}

// Load replaces the stored corpus with items.
// Not supported by the file driver, which follows its file instead.
func (c *Client) Load(ctx context.Context, version string, items []Attraction) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("load", start, err) }()

	if c.replacer == nil {
		return errors.New("load: corpus is read-only")
	}
	docs, err := toDocuments(items)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err = c.replacer.Replace(ctx, docs, version); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}

func toDocuments(items []Attraction) ([]domdoc.Document, error) {
	docs := make([]domdoc.Document, 0, len(items))
	for i := range items {
		doc, err := toDocument(&items[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// withLogger attaches the engine logger so per-request log lines reach WithLogger.
func (c *Client) withLogger(ctx context.Context) context.Context {
	if c.log == nil {
		return ctx
	}
	return logger.ContextWithLogger(ctx, c.log)
}
