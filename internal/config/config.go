package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/tourdex/internal/ranking"
)

// Corpus drivers.
const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config holds the tourdex configuration.
type Config struct {
	HTTP         HTTPConfig         `yaml:"http"`
	Corpus       CorpusConfig       `yaml:"corpus"`
	Search       SearchConfig       `yaml:"search"`
	Ranking      RankingConfig      `yaml:"ranking"`
	Autocomplete AutocompleteConfig `yaml:"autocomplete"`
	Expansion    ExpansionConfig    `yaml:"expansion"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig selects and configures the corpus driver.
type CorpusConfig struct {
	Driver string `yaml:"driver"` // redis, valkey, sqlite, file (default: file)

	// redis / valkey
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	KeyPrefix        string   `yaml:"key_prefix"`
	PipelineSize     int      `yaml:"pipeline_size"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`

	// sqlite database or corpus file
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"` // file driver: reload on change

	// redis / valkey / sqlite: max snapshot age when the store has no version marker
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// SearchConfig tunes matching and the search pipeline.
type SearchConfig struct {
	Matcher           string        `yaml:"matcher"` // ngram, bruteforce (default: ngram)
	Threshold         float64       `yaml:"threshold"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxScanCandidates int           `yaml:"max_scan_candidates"` // 0 = unlimited
	ScanBudget        time.Duration `yaml:"scan_budget"`         // 0 = unlimited
	ShardSize         int           `yaml:"shard_size"`
	PoolSize          int           `yaml:"pool_size"` // 0 = score on the request goroutine
	IndexCacheSize    int           `yaml:"index_cache_size"`
	MaxIndexDocuments int           `yaml:"max_index_documents"` // 0 = unlimited
	SuggestionsLimit  int           `yaml:"suggestions_limit"`
}

// RankingConfig overrides ranking constants. Nil values keep the defaults.
type RankingConfig struct {
	WeightPopularity      *float64 `yaml:"weight_popularity"`
	WeightRecency         *float64 `yaml:"weight_recency"`
	AlphaComment          *float64 `yaml:"alpha_comment"`
	MaxExpectedEngagement *float64 `yaml:"max_expected_engagement"`
	TauMinutes            *float64 `yaml:"tau_minutes"`
	RelevanceWeighted     bool     `yaml:"relevance_weighted"`
}

// AutocompleteConfig tunes suggestions.
type AutocompleteConfig struct {
	RelaxedThreshold float64 `yaml:"relaxed_threshold"`
	CacheSize        int     `yaml:"cache_size"`
}

// ExpansionConfig locates the keyword expansion table.
type ExpansionConfig struct {
	Path     string `yaml:"path"` // empty = no expansion (degraded)
	MaxTerms int    `yaml:"max_terms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML, substitutes ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Corpus.Driver == "" {
		c.Corpus.Driver = DriverFile
	}
	if c.Corpus.KeyPrefix == "" {
		c.Corpus.KeyPrefix = "tourdex"
	}
	if c.Corpus.ReadinessTimeout <= 0 {
		c.Corpus.ReadinessTimeout = 10
	}
	if c.Corpus.RefreshInterval <= 0 {
		c.Corpus.RefreshInterval = 30 * time.Second
	}
	if c.Search.Matcher == "" {
		c.Search.Matcher = "ngram"
	}
	if c.Search.Threshold <= 0 {
		c.Search.Threshold = 0.35
	}
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 5 * time.Second
	}
	if c.Search.ShardSize <= 0 {
		c.Search.ShardSize = 512
	}
	if c.Search.IndexCacheSize <= 0 {
		c.Search.IndexCacheSize = 4
	}
	if c.Search.SuggestionsLimit <= 0 {
		c.Search.SuggestionsLimit = 5
	}
	if c.Autocomplete.RelaxedThreshold <= 0 {
		c.Autocomplete.RelaxedThreshold = 0.2
	}
	if c.Autocomplete.CacheSize <= 0 {
		c.Autocomplete.CacheSize = 1024
	}
	if c.Expansion.MaxTerms <= 0 {
		c.Expansion.MaxTerms = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port))
	}

	switch c.Corpus.Driver {
	case DriverRedis, DriverValkey:
		if len(c.Corpus.Addrs) == 0 {
			errs = append(errs, fmt.Errorf("corpus.addrs is required for driver %q", c.Corpus.Driver))
		}
	case DriverSQLite, DriverFile:
		if c.Corpus.Path == "" {
			errs = append(errs, fmt.Errorf("corpus.path is required for driver %q", c.Corpus.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("corpus.driver must be redis, valkey, sqlite or file, got %q", c.Corpus.Driver))
	}

	switch c.Search.Matcher {
	case "ngram", "bruteforce":
	default:
		errs = append(errs, fmt.Errorf("search.matcher must be ngram or bruteforce, got %q", c.Search.Matcher))
	}
	if c.Search.Threshold > 1 {
		errs = append(errs, fmt.Errorf("search.threshold must be in (0, 1], got %g", c.Search.Threshold))
	}
	if c.Search.MaxScanCandidates < 0 || c.Search.ScanBudget < 0 || c.Search.PoolSize < 0 ||
		c.Search.MaxIndexDocuments < 0 {
		errs = append(errs, errors.New("search limits must be non-negative"))
	}
	if c.Autocomplete.RelaxedThreshold > 1 {
		errs = append(errs, fmt.Errorf("autocomplete.relaxed_threshold must be in (0, 1], got %g",
			c.Autocomplete.RelaxedThreshold))
	}
	if err := c.Ranking.Params().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ranking: %w", err))
	}
	return errors.Join(errs...)
}

// Params returns ranking parameters with configured overrides applied.
func (r RankingConfig) Params() ranking.Params {
	p := ranking.DefaultParams()
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.WeightPopularity, r.WeightPopularity)
	set(&p.WeightRecency, r.WeightRecency)
	set(&p.AlphaComment, r.AlphaComment)
	set(&p.MaxExpectedEngagement, r.MaxExpectedEngagement)
	set(&p.TauMinutes, r.TauMinutes)
	p.RelevanceWeighted = r.RelevanceWeighted
	return p
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
