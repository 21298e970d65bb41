package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/nodecanvas/internal/config"
	"github.com/msalah0e/nodecanvas/internal/ui"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize nodecanvas settings",
	}
	cmd.AddCommand(configShowCmd(), configInitCmd(), configPathCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if raw {
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			ui.Banner("configuration")
			rows := [][]string{
				{"canvas.grid_size", fmt.Sprint(cfg.Canvas.GridSize)},
				{"canvas.drag_threshold", fmt.Sprint(cfg.Canvas.DragThreshold)},
				{"canvas.max_push_down", fmt.Sprint(cfg.Canvas.MaxPushDown)},
				{"undo.depth", fmt.Sprint(cfg.Undo.Depth)},
				{"browser.visible_rows", fmt.Sprint(cfg.Browser.VisibleRows)},
				{"drop.resource_dir", cfg.Drop.ResourceDir},
				{"drop.copy_concurrency", fmt.Sprint(cfg.Drop.CopyConcurrency)},
				{"drop.watch", fmt.Sprint(cfg.Drop.Watch)},
				{"log.level", cfg.Log.Level},
				{"log.debug", fmt.Sprint(cfg.Log.Debug)},
			}
			exts := make([]string, 0, len(cfg.Assets))
			for ext := range cfg.Assets {
				exts = append(exts, ext)
			}
			sort.Strings(exts)
			for _, ext := range exts {
				rows = append(rows, []string{"assets." + ext, cfg.Assets[ext]})
			}
			ui.Table([]string{"Key", "Value"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "toml", false, "Print as TOML")
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if force {
				if err := config.Save(config.Default()); err != nil {
					return err
				}
			} else {
				if _, err := os.Stat(config.Path()); err == nil {
					fmt.Printf("  %s %s already exists (use --force to overwrite)\n", ui.WarnIcon(), config.Path())
					return nil
				}
				if err := config.EnsureExists(); err != nil {
					return err
				}
			}
			fmt.Printf("  %s wrote %s\n", ui.StatusIcon(true), config.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		},
	}
}
