package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/msalah0e/nodecanvas/internal/catalog"
)

func TestSlotTypes(t *testing.T) {
	tests := []struct {
		name  string
		slots []catalog.Slot
		want  string
	}{
		{"empty", nil, ""},
		{"single", []catalog.Slot{{ID: "a", Type: "float"}}, "float"},
		{"multi", []catalog.Slot{{ID: "l", Type: "texture", Multi: true}, {ID: "o", Type: "float"}}, "[]texture, float"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := slotTypes(tt.slots); got != tt.want {
				t.Errorf("slotTypes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadConfigFromFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := os.WriteFile(path, []byte("[canvas]\ngrid_size = 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	configFile, debugMode = path, true
	t.Cleanup(func() { configFile, debugMode = "", false })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Canvas.GridSize != 10 {
		t.Errorf("GridSize = %v, want 10", cfg.Canvas.GridSize)
	}
	if !cfg.Log.Debug || cfg.Log.Level != "debug" {
		t.Errorf("--debug not applied: %+v", cfg.Log)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.toml")
	if err := os.WriteFile(path, []byte("[undo]\ndepth = 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	configFile = path
	t.Cleanup(func() { configFile = "" })

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Canvas.GridSize != 20 {
		t.Errorf("GridSize = %v, want default 20", cfg.Canvas.GridSize)
	}
}
