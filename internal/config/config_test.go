package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Canvas.GridSize != 20 {
		t.Errorf("expected grid size 20, got %v", cfg.Canvas.GridSize)
	}
	if cfg.Canvas.MaxPushDown != 256 {
		t.Errorf("expected max push-down 256, got %d", cfg.Canvas.MaxPushDown)
	}
	if cfg.Undo.Depth != 200 {
		t.Errorf("expected undo depth 200, got %d", cfg.Undo.Depth)
	}
	if cfg.Assets[".png"] != "image.LoadImage" {
		t.Errorf("expected .png mapped to image.LoadImage, got %q", cfg.Assets[".png"])
	}
	if cfg.Log.Debug {
		t.Error("default debug should be false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	// Test with XDG_CONFIG_HOME set
	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg")
	dir := ConfigDir()
	if dir != "/tmp/test-xdg/nodecanvas" {
		t.Errorf("expected /tmp/test-xdg/nodecanvas, got %q", dir)
	}

	// Test without XDG_CONFIG_HOME
	t.Setenv("XDG_CONFIG_HOME", "")
	dir = ConfigDir()
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".config", "nodecanvas")
	if dir != expected {
		t.Errorf("expected %q, got %q", expected, dir)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfg := Default()
	cfg.Canvas.GridSize = 16
	cfg.Log.Debug = true

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := Load()
	if loaded.Canvas.GridSize != 16 {
		t.Errorf("expected grid size 16, got %v", loaded.Canvas.GridSize)
	}
	if !loaded.Log.Debug {
		t.Error("expected debug true after load")
	}
}

func TestEnsureExists(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}

	path := filepath.Join(tmpDir, "nodecanvas", "config.toml")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file not created: %v", err)
	}

	// Second call should be no-op
	if err := EnsureExists(); err != nil {
		t.Fatalf("EnsureExists second call failed: %v", err)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	os.WriteFile(path, []byte("[canvas]\ngrid_size = 0\n[log]\nlevel = \"loud\"\n"), 0o644)

	_, err := LoadFile(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "gridsize must be greater than 0") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFindProjectConfig(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "a", "b", "c")
	os.MkdirAll(subDir, 0o755)

	// Write .nodecanvas.toml in the root tmpDir
	os.WriteFile(filepath.Join(tmpDir, ProjectFile), []byte("[canvas]\ngrid_size = 10\n"), 0o644)

	// Change to the deep subdirectory
	origDir, _ := os.Getwd()
	os.Chdir(subDir)
	defer os.Chdir(origDir)

	found := findProjectConfig()
	// Resolve symlinks (macOS /var -> /private/var)
	expectedResolved, _ := filepath.EvalSymlinks(filepath.Join(tmpDir, ProjectFile))
	foundResolved, _ := filepath.EvalSymlinks(found)
	if foundResolved != expectedResolved {
		t.Errorf("expected %q, got %q", expectedResolved, foundResolved)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if cfg := Load(); cfg.Canvas.GridSize != 10 {
		t.Errorf("expected project override grid size 10, got %v", cfg.Canvas.GridSize)
	}
}
