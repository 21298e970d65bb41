package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/msalah0e/nodecanvas/internal/valid"
)

type symbolFile struct {
	Namespace string   `toml:"namespace"`
	Symbols   []Symbol `toml:"symbols"`
}

// LoadFromFS loads all symbols from the TOML files in dir.
func LoadFromFS(fsys fs.FS, dir string) (*Registry, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading embedded catalog: %w", err)
	}

	var all []Symbol
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		symbols, err := parseSymbolFile(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", entry.Name(), err)
		}
		all = append(all, symbols...)
	}

	return New(all), nil
}

func parseSymbolFile(data []byte) ([]Symbol, error) {
	var sf symbolFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	for i := range sf.Symbols {
		if sf.Symbols[i].Namespace == "" {
			sf.Symbols[i].Namespace = sf.Namespace
		}
		if err := valid.Struct(sf.Symbols[i]); err != nil {
			return nil, fmt.Errorf("symbol %q: %w", sf.Symbols[i].Name, err)
		}
	}
	return sf.Symbols, nil
}
