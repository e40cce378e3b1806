package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Corpus: CorpusConfig{Driver: DriverFile, Path: "config/corpus.yaml"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_CorpusDriver(t *testing.T) {
	tests := []struct {
		name   string
		corpus CorpusConfig
		want   string
	}{
		{"redis without addrs", CorpusConfig{Driver: DriverRedis}, "corpus.addrs is required"},
		{"valkey without addrs", CorpusConfig{Driver: DriverValkey}, "corpus.addrs is required"},
		{"sqlite without path", CorpusConfig{Driver: DriverSQLite}, "corpus.path is required"},
		{"file without path", CorpusConfig{Driver: DriverFile}, "corpus.path is required"},
		{"unknown", CorpusConfig{Driver: "mongo"}, "corpus.driver must be"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Corpus = tc.corpus
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = -1
	cfg.Search.Matcher = "vector"
	cfg.Search.Threshold = 1.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"http.port", "search.matcher", "search.threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestValidate_Ranking(t *testing.T) {
	zero := 0.0
	cfg := validConfig()
	cfg.Ranking.WeightPopularity = &zero
	cfg.Ranking.WeightRecency = &zero

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "ranking: at least one weight must be positive") {
		t.Errorf("err = %v", err)
	}
}

func TestRankingParams_Overrides(t *testing.T) {
	w := 0.5
	tau := 60.0
	p := RankingConfig{WeightPopularity: &w, TauMinutes: &tau, RelevanceWeighted: true}.Params()

	if p.WeightPopularity != 0.5 || p.TauMinutes != 60 || !p.RelevanceWeighted {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.WeightRecency != 0.3 || p.AlphaComment != 2 || p.MaxExpectedEngagement != 1000 {
		t.Errorf("defaults not kept: %+v", p)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 10 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("unexpected http defaults: %+v", cfg.HTTP)
	}
	if cfg.Corpus.Driver != DriverFile || cfg.Corpus.KeyPrefix != "tourdex" {
		t.Errorf("unexpected corpus defaults: %+v", cfg.Corpus)
	}
	if cfg.Corpus.RefreshInterval != 30*time.Second {
		t.Errorf("expected RefreshInterval=30s, got %v", cfg.Corpus.RefreshInterval)
	}
	if cfg.Search.Matcher != "ngram" || cfg.Search.Threshold != 0.35 || cfg.Search.Timeout != 5*time.Second {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Search.SuggestionsLimit != 5 || cfg.Search.ShardSize != 512 || cfg.Search.IndexCacheSize != 4 {
		t.Errorf("unexpected search defaults: %+v", cfg.Search)
	}
	if cfg.Search.MaxScanCandidates != 0 || cfg.Search.ScanBudget != 0 {
		t.Errorf("scan limits should default to unlimited: %+v", cfg.Search)
	}
	if cfg.Autocomplete.RelaxedThreshold != 0.2 || cfg.Autocomplete.CacheSize != 1024 {
		t.Errorf("unexpected autocomplete defaults: %+v", cfg.Autocomplete)
	}
	if cfg.Expansion.MaxTerms != 10 {
		t.Errorf("expected MaxTerms=10, got %d", cfg.Expansion.MaxTerms)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Corpus: CorpusConfig{Driver: DriverRedis, KeyPrefix: "poi"},
		Search: SearchConfig{Matcher: "bruteforce", Threshold: 0.5, Timeout: time.Second},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 || cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("http overridden: %+v", cfg.HTTP)
	}
	if cfg.Corpus.Driver != DriverRedis || cfg.Corpus.KeyPrefix != "poi" {
		t.Errorf("corpus overridden: %+v", cfg.Corpus)
	}
	if cfg.Search.Matcher != "bruteforce" || cfg.Search.Threshold != 0.5 || cfg.Search.Timeout != time.Second {
		t.Errorf("search overridden: %+v", cfg.Search)
	}
}

func TestParse_ExpandsEnvAndDurations(t *testing.T) {
	t.Setenv("TOURDEX_TEST_PORT", "9090")
	t.Setenv("TOURDEX_TEST_ADDR", "")
	data := []byte(`
http:
  port: ${TOURDEX_TEST_PORT}
corpus:
  driver: valkey
  addrs: ["${TOURDEX_TEST_ADDR:-localhost:6379}"]
  refresh_interval: 1m
search:
  timeout: 750ms
  scan_budget: 200ms
  max_scan_candidates: 50000
ranking:
  weight_popularity: 0.6
  relevance_weighted: true
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if len(cfg.Corpus.Addrs) != 1 || cfg.Corpus.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.Corpus.Addrs)
	}
	if cfg.Corpus.RefreshInterval != time.Minute || cfg.Search.Timeout != 750*time.Millisecond ||
		cfg.Search.ScanBudget != 200*time.Millisecond {
		t.Errorf("durations: refresh=%v timeout=%v budget=%v",
			cfg.Corpus.RefreshInterval, cfg.Search.Timeout, cfg.Search.ScanBudget)
	}
	if p := cfg.Ranking.Params(); p.WeightPopularity != 0.6 || !p.RelevanceWeighted {
		t.Errorf("ranking = %+v", p)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := "http:\n  port: 8081\ncorpus:\n  driver: sqlite\n  path: /tmp/tourdex.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Corpus.Driver != DriverSQLite || cfg.HTTP.Port != 8081 {
		t.Errorf("unexpected config: %+v", cfg)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ShippedConfigs(t *testing.T) {
	t.Setenv("TOURDEX_CORPUS_ADDRS", "")
	for _, env := range []string{"local", "prod"} {
		if _, err := Load(env); err != nil {
			t.Errorf("%s: %v", env, err)
		}
	}
}
