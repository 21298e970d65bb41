package catalog

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/msalah0e/nodecanvas/internal/config"
)

// PluginDir is where user-provided symbol files live.
func PluginDir() string {
	return filepath.Join(config.ConfigDir(), "symbols")
}

// LoadAll merges the embedded catalog with symbol files from PluginDir.
// Plugin files that fail to parse are skipped.
func LoadAll(fsys fs.FS, dir string) (*Registry, error) {
	reg, err := LoadFromFS(fsys, dir)
	if err != nil {
		return nil, err
	}
	symbols := reg.All()

	entries, err := os.ReadDir(PluginDir())
	if err != nil {
		// No plugins directory is fine
		return New(symbols), nil
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(PluginDir(), entry.Name()))
		if err != nil {
			continue
		}
		extra, err := parseSymbolFile(data)
		if err != nil {
			continue
		}
		symbols = append(symbols, extra...)
	}

	return New(dedup(symbols)), nil
}

// dedup removes duplicate symbols by id. The last occurrence wins so plugin
// files override embedded ones, but the first occurrence keeps its position.
func dedup(symbols []Symbol) []Symbol {
	last := make(map[string]int, len(symbols))
	for i, s := range symbols {
		last[s.ID] = i
	}
	out := make([]Symbol, 0, len(last))
	added := make(map[string]bool, len(last))
	for _, s := range symbols {
		if added[s.ID] {
			continue
		}
		out = append(out, symbols[last[s.ID]])
		added[s.ID] = true
	}
	return out
}
