package expansion

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/tourdex/internal/text"
)

// LoadFile reads an expansion table from a YAML (.yaml/.yml) or JSON (.json) file.
func LoadFile(path string, n *text.Normalizer) (*Table, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read expansion table %s: %w", path, err)
	}

	var src Source
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &src)
	case ".json":
		err = json.Unmarshal(data, &src)
	default:
		return nil, fmt.Errorf("unsupported expansion table format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse expansion table %s: %w", path, err)
	}
	return NewTable(src, n), nil
}

// Load builds an Expander from path. A missing or broken table is not fatal:
// the expander runs on an empty table and reports itself as degraded.
func Load(path string, maxTerms int, n *text.Normalizer, logger *zap.Logger) *Expander {
	if path == "" {
		logger.Warn("expansion table not configured, running without keyword expansion")
		return NewExpander(Empty(), maxTerms).WithDegraded(true)
	}
	table, err := LoadFile(path, n)
	if err != nil {
		logger.Warn("expansion table unavailable, running without keyword expansion",
			zap.String("path", path),
			zap.Error(err),
		)
		return NewExpander(Empty(), maxTerms).WithDegraded(true)
	}
	logger.Info("expansion table loaded",
		zap.String("path", path),
		zap.Int("keys", table.Len()),
	)
	return NewExpander(table, maxTerms)
}
