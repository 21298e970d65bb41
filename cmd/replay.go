package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/nodecanvas/internal/config"
	"github.com/msalah0e/nodecanvas/internal/drop"
	"github.com/msalah0e/nodecanvas/internal/editor"
	"github.com/msalah0e/nodecanvas/internal/logging"
	"github.com/msalah0e/nodecanvas/internal/script"
	"github.com/msalah0e/nodecanvas/internal/stats"
	"github.com/msalah0e/nodecanvas/internal/ui"
)

func replayCmd() *cobra.Command {
	var (
		projectDir string
		verbose    bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:     "replay <script.yaml>...",
		Aliases: []string{"run", "r"},
		Short:   "Replay scripted frames through an editing session",
		Long: `Seed a composition from each script, feed it the scripted frames and
check the expectations attached to them.

  nodecanvas replay scripts/drag.yaml
  nodecanvas replay -v --project ./demo scripts/*.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if projectDir == "" {
				projectDir, _ = os.Getwd()
			}
			reg := loadCatalog()

			var index *drop.Index
			if watch && cfg.Drop.Watch {
				index = drop.NewIndex(filepath.Join(projectDir, cfg.Drop.ResourceDir), log.Named("index"))
				if err := index.Scan(); err != nil {
					return err
				}
				if err := index.Watch(ctx); err != nil {
					log.Warn("asset watch unavailable", zap.Error(err))
				}
				defer index.Close()
			}

			ui.Banner("replay")
			failed := 0
			for _, path := range args {
				ok, err := replayOne(ctx, path, reg, cfg, log, editor.Options{ProjectDir: projectDir, Index: index}, verbose)
				if err != nil {
					return err
				}
				if !ok {
					failed++
				}
			}

			fmt.Printf("\n  %d/%d scripts passed\n", len(args)-failed, len(args))
			if failed > 0 {
				return fmt.Errorf("%d script(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", "", "Project directory for dropped resources (default: working directory)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every frame")
	cmd.Flags().BoolVar(&watch, "watch", false, "Index and watch the project's resource directory")
	return cmd
}

func replayOne(ctx context.Context, path string, reg editor.Catalog, cfg *config.Config, log *zap.Logger, opts editor.Options, verbose bool) (bool, error) {
	s, err := script.Load(path)
	if err != nil {
		return false, err
	}
	l, err := s.Seed(reg)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	opts.CompositionID = s.Composition
	sess := editor.New(reg, l, cfg, log.Named("editor"), opts)
	defer sess.Drops().Wait()

	start := time.Now()
	rep, err := script.Run(ctx, sess, s, log.Named("script"))
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}
	if err := stats.Record(stats.Entry{
		Script:     s.Name,
		Path:       path,
		Frames:     len(rep.Steps),
		Mismatches: len(rep.Mismatches),
		OK:         rep.OK(),
		Elapsed:    float64(time.Since(start).Microseconds()) / 1000,
	}); err != nil {
		log.Debug("recording replay failed", zap.Error(err))
	}

	fmt.Printf("  %s %s %s\n", ui.StatusIcon(rep.OK()), s.Name, ui.Subtle.Sprintf("(%s, %d frames)", filepath.Base(path), len(rep.Steps)))
	if verbose {
		printSteps(rep)
	}
	if !rep.OK() {
		headers := []string{"Frame", "Check", "Want", "Got"}
		var rows [][]string
		for _, m := range rep.Mismatches {
			rows = append(rows, []string{fmt.Sprint(m.Frame), m.Field, ui.Truncate(m.Want, 30), ui.Truncate(m.Got, 30)})
		}
		fmt.Println()
		ui.Table(headers, rows)
		fmt.Println()
	}
	return rep.OK(), nil
}

func printSteps(rep *script.Report) {
	headers := []string{"Frame", "State", "Selection", "Browser", "Created"}
	var rows [][]string
	for _, st := range rep.Steps {
		browser := ""
		if st.Output.BrowserOpen {
			browser = fmt.Sprintf("%q (%d)", st.Output.BrowserQuery, len(st.Output.BrowserRows))
		}
		rows = append(rows, []string{
			fmt.Sprint(st.Frame),
			st.Output.State,
			ui.Truncate(strings.Join(st.Output.Selection, ","), 40),
			browser,
			fmt.Sprint(len(st.Output.Created)),
		})
	}
	fmt.Println()
	ui.Table(headers, rows)
	fmt.Println()
}
