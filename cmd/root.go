package cmd

import (
	"embed"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/config"
	"github.com/msalah0e/nodecanvas/internal/ui"
)

var version = "0.3.0"

var (
	cat        *catalog.Registry
	catalogFS  embed.FS
	configFile string
	debugMode  bool
)

// SetCatalogFS sets the embedded filesystem containing TOML symbol files.
func SetCatalogFS(fs embed.FS) {
	catalogFS = fs
}

func loadCatalog() *catalog.Registry {
	if cat != nil {
		return cat
	}
	r, err := catalog.LoadAll(catalogFS, "catalog")
	if err != nil {
		ui.Bad.Printf("nodecanvas: failed to load catalog: %v\n", err)
		return catalog.New(nil)
	}
	cat = r
	return cat
}

// loadConfig reads --config when given, the user and project files
// otherwise, and applies --debug on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configFile != "" {
		c, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Load()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", config.Path(), err)
		}
	}
	if debugMode {
		cfg.Log.Debug = true
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

var rootCmd = &cobra.Command{
	Use:   "nodecanvas",
	Short: "nodecanvas — headless node-graph canvas editor",
	Long: ui.Brand.Sprint(ui.Mark+" nodecanvas") + " — drive the operator canvas editor without a UI\n" +
		ui.Subtle.Sprint("Replay scripted frames, browse the symbol catalog, manage settings"),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("nodecanvas {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/nodecanvas/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Development logging; invariant violations panic")

	rootCmd.AddCommand(
		replayCmd(),
		symbolsCmd(),
		symbolCmd(),
		configCmd(),
		statsCmd(),
		completionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		ui.Bad.Fprintf(rootCmd.ErrOrStderr(), "nodecanvas: %v\n", err)
		return err
	}
	return nil
}
