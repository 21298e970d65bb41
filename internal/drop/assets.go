package drop

import (
	"path/filepath"
	"strings"
)

// AssetTypes maps a file extension to the operator that loads it.
type AssetTypes interface {
	PrimaryOperator(ext string) (string, bool)
}

// AssetMap is an AssetTypes backed by the [assets] config table. Keys are
// extensions with or without the leading dot, in any case.
type AssetMap map[string]string

// NewAssetMap normalizes the keys of m.
func NewAssetMap(m map[string]string) AssetMap {
	out := make(AssetMap, len(m))
	for ext, op := range m {
		out[normalizeExt(ext)] = op
	}
	return out
}

func (m AssetMap) PrimaryOperator(ext string) (string, bool) {
	op, ok := m[normalizeExt(ext)]
	return op, ok && op != ""
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// ExtOf returns the normalized extension of a path.
func ExtOf(path string) string {
	return normalizeExt(filepath.Ext(path))
}
