package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/msalah0e/nodecanvas/internal/stats"
	"github.com/msalah0e/nodecanvas/internal/ui"
)

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Aliases: []string{"history"},
		Short:   "Show replay history",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("replay history")

			summary, err := stats.Summarize()
			if err != nil {
				ui.Bad.Printf("  Failed to read history: %v\n", err)
				os.Exit(1)
			}

			if summary.TotalRuns == 0 {
				fmt.Println("  No replays recorded yet.")
				fmt.Println("  Replays are recorded by `nodecanvas replay <script>`")
				return
			}

			fmt.Printf("  Total replays:      %d (%d scripts)\n", summary.TotalRuns, summary.Scripts)
			fmt.Printf("  Passed / failed:    %s %d  %s %d\n", ui.StatusIcon(true), summary.Passed, ui.StatusIcon(false), summary.Failed)
			fmt.Printf("  Frames replayed:    %d\n", summary.Frames)
			if len(summary.Unstable) > 0 {
				fmt.Printf("  %s Unstable:         %s\n", ui.WarnIcon(), strings.Join(summary.Unstable, ", "))
			}

			if !summary.LastRun.IsZero() {
				ago := time.Since(summary.LastRun).Round(time.Second)
				fmt.Printf("  Last replay:        %s ago\n", ago)
			}
		},
	}
}
