package tourdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "redis", "valkey", "sqlite", "file" or "memory"
	addrs    []string
	password string
	path     string

	version     string
	attractions []Attraction

	expansionPath string
	matcher       string
	threshold     float64
	timeout       time.Duration
	workers       int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
	now        func() time.Time
}

// WithRedis reads the corpus from a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey reads the corpus from a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSQLite reads the corpus from a SQLite database, creating it if needed.
func WithSQLite(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "sqlite"
		c.path = path
	})
}

// WithFile reads the corpus from a YAML or JSON file.
func WithFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "file"
		c.path = path
	})
}

// WithAttractions serves the given attractions from memory.
// An empty version is replaced by a content fingerprint.
func WithAttractions(version string, items ...Attraction) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "memory"
		c.version = version
		c.attractions = items
	})
}

// WithExpansionTable loads province, category and synonym expansions from path.
// Without it searches run unexpanded and Health reports "degraded".
func WithExpansionTable(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.expansionPath = path
	})
}

// WithMatcher selects the similarity matcher: "ngram" (default) or "bruteforce".
func WithMatcher(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.matcher = name
	})
}

// WithThreshold sets the minimum similarity in (0, 1]. Default: 0.35.
func WithThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = t
	})
}

// WithTimeout bounds each search. Default: 5s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithWorkers scores documents on a pool of n goroutines. Default: 0 (caller goroutine).
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for SDK operations and the engine
// (corpus reloads, degraded expansion, matcher fallbacks, searches).
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithClock sets the time source used for recency ranking. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return optionFunc(func(c *clientConfig) {
		c.now = now
	})
}
