package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- Helpers ---

const testCorpus = `version: test-1
documents:
  - id: wat-arun
    name: วัดอรุณราชวราราม
    aliases: [วัดอรุณ, wat arun]
    tags: [วัด, temple]
    province: กรุงเทพมหานคร
    category: วัด
    rating: 4.7
    lat: 13.7437
    lng: 100.4888
    like_count: 1520
    comment_count: 210
    created_at: 2025-11-02T09:30:00Z
  - id: patong
    name: หาดป่าตอง
    tags: [ทะเล, ชายหาด]
    province: ภูเก็ต
    category: ทะเล
    rating: 4.4
    lat: 7.8961
    lng: 98.2966
    like_count: 1740
    comment_count: 265
    created_at: 2025-09-18T10:20:00Z
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeConfig(t *testing.T, dir, corpus string) string {
	t.Helper()
	return writeFile(t, dir, "tourdex.yaml", "http:\n  port: 8080\ncorpus:\n"+corpus)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", "test"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// --- Tests ---

func TestSeedThenSearch_SQLite(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeFile(t, dir, "corpus.yaml", testCorpus)
	cfgPath := writeConfig(t, dir, fmt.Sprintf("  driver: sqlite\n  path: %s\n", filepath.Join(dir, "tourdex.db")))

	out, err := execute(t, "--config", cfgPath, "seed", "--from", corpusPath)
	if err != nil {
		t.Fatalf("seed: %v (%s)", err, out)
	}
	if !strings.Contains(out, "seeded 2 documents (version test-1)") {
		t.Errorf("unexpected seed output: %q", out)
	}

	out, err = execute(t, "--config", cfgPath, "search", "วัดอรุณ", "--format", "json")
	if err != nil {
		t.Fatalf("search: %v (%s)", err, out)
	}
	var resp cliResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if resp.TotalCount < 1 || resp.Results[0].ID != "wat-arun" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Expansion == nil {
		t.Error("expansion must encode as []")
	}
}

func TestSeed_FileDriverReadOnly(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeFile(t, dir, "corpus.yaml", testCorpus)
	cfgPath := writeConfig(t, dir, fmt.Sprintf("  driver: file\n  path: %s\n", corpusPath))

	_, err := execute(t, "--config", cfgPath, "seed", "--from", corpusPath)
	if err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("expected read-only error, got %v", err)
	}
}

func TestSearchCmd_TextOutput(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeFile(t, dir, "corpus.yaml", testCorpus)
	cfgPath := writeConfig(t, dir, fmt.Sprintf("  driver: file\n  path: %s\n", corpusPath))

	out, err := execute(t, "--config", cfgPath, "search", "ป่าตอง", "--lat", "7.9", "--lon", "98.3", "--sort", "distance")
	if err != nil {
		t.Fatalf("search: %v (%s)", err, out)
	}
	if !strings.Contains(out, "patong") || !strings.Contains(out, " km") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSearchCmd_Validation(t *testing.T) {
	dir := t.TempDir()
	corpusPath := writeFile(t, dir, "corpus.yaml", testCorpus)
	cfgPath := writeConfig(t, dir, fmt.Sprintf("  driver: file\n  path: %s\n", corpusPath))

	if _, err := execute(t, "--config", cfgPath, "search", "wat", "--limit", "0"); err == nil {
		t.Error("expected validation error for limit 0")
	}
	if _, err := execute(t, "--config", cfgPath, "search", "wat", "--format", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var info versionInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if info.Version != "dev" || info.GoVersion == "" {
		t.Errorf("unexpected info: %+v", info)
	}
}
