package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/msalah0e/nodecanvas/internal/valid"
)

// Config holds nodecanvas configuration.
type Config struct {
	Canvas  CanvasConfig      `toml:"canvas"`
	Undo    UndoConfig        `toml:"undo"`
	Browser BrowserConfig     `toml:"browser"`
	Drop    DropConfig        `toml:"drop"`
	Assets  map[string]string `toml:"assets"` // file extension -> primary operator id
	Log     LogConfig         `toml:"log"`
}

// CanvasConfig controls grid and interaction thresholds.
type CanvasConfig struct {
	GridSize      float64 `toml:"grid_size" validate:"gt=0"`
	DragThreshold float64 `toml:"drag_threshold" validate:"gte=0"` // screen pixels
	MaxPushDown   int     `toml:"max_push_down" validate:"gt=0"`
}

// UndoConfig controls history depth.
type UndoConfig struct {
	Depth int `toml:"depth" validate:"gte=1"`
}

// BrowserConfig controls the symbol browser popup.
type BrowserConfig struct {
	VisibleRows int `toml:"visible_rows" validate:"gte=1"`
}

// DropConfig controls external file drops.
type DropConfig struct {
	ResourceDir     string `toml:"resource_dir"`
	CopyConcurrency int    `toml:"copy_concurrency" validate:"gte=1"`
	Watch           bool   `toml:"watch"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	Debug bool   `toml:"debug"` // development logger, fail fast on invariant violations
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas:  CanvasConfig{GridSize: 20, DragThreshold: 4, MaxPushDown: 256},
		Undo:    UndoConfig{Depth: 200},
		Browser: BrowserConfig{VisibleRows: 12},
		Drop:    DropConfig{ResourceDir: "Resources", CopyConcurrency: 4, Watch: true},
		Assets: map[string]string{
			".png":  "image.LoadImage",
			".jpg":  "image.LoadImage",
			".jpeg": "image.LoadImage",
			".obj":  "mesh.LoadObj",
			".wav":  "audio.AudioClip",
			".mp3":  "audio.AudioClip",
			".mp4":  "video.PlayVideo",
			".json": "data.LoadJson",
		},
		Log: LogConfig{Level: "info"},
	}
}

// ConfigDir returns the nodecanvas config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "nodecanvas")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// ProjectFile is the per-project override file name.
const ProjectFile = ".nodecanvas.toml"

// Load reads the user config file, then a project file found by walking up
// from the working directory. Missing or unreadable files are skipped;
// values present in a file override what came before.
func Load() *Config {
	cfg := Default()

	if data, err := os.ReadFile(Path()); err == nil {
		_ = toml.Unmarshal(data, cfg)
	}
	if project := findProjectConfig(); project != "" {
		if data, err := os.ReadFile(project); err == nil {
			_ = toml.Unmarshal(data, cfg)
		}
	}
	return cfg
}

// findProjectConfig walks up from the working directory looking for ProjectFile.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, ProjectFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// LoadFile reads a specific config file and validates it.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	return valid.Struct(c)
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(Path()); err == nil {
		return nil // already exists
	}
	return Save(Default())
}
