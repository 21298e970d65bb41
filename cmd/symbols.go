package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/nodecanvas/internal/catalog"
	"github.com/msalah0e/nodecanvas/internal/ui"
)

func symbolsCmd() *cobra.Command {
	var (
		input  string
		output string
	)

	cmd := &cobra.Command{
		Use:     "symbols [query]",
		Aliases: []string{"s", "search", "browse"},
		Short:   "Search or browse the operator catalog",
		Long: `Search the operator catalog the way the placeholder browser does, or
browse every symbol by namespace.

  nodecanvas symbols                  # Browse by namespace
  nodecanvas symbols blur             # Name, namespace and tag matches
  nodecanvas symbols --output float   # Operators that can feed a float input`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			reg := loadCatalog()

			if len(args) == 0 && input == "" && output == "" {
				ui.Banner("operator catalog")
				for _, ns := range reg.Namespaces() {
					fmt.Printf("  %s\n", ui.Brand.Sprint(ns))
					for _, s := range reg.All() {
						if s.Namespace != ns {
							continue
						}
						fmt.Printf("  %s %-20s %s\n", ui.Subtle.Sprint("──"), s.Name, ui.Truncate(s.Description, 50))
					}
					fmt.Println()
				}
				fmt.Printf("  %d symbols · `nodecanvas symbol <id>` for details\n", reg.Len())
				return
			}

			f := catalog.Filter{InputType: input, OutputType: output}
			if len(args) == 1 {
				f.Query = args[0]
			}
			results := reg.Search(f)

			ui.Banner(fmt.Sprintf("search results for %q", f.Query))
			if len(results) == 0 {
				fmt.Println("  No symbols found matching your query.")
				return
			}

			headers := []string{"Symbol", "Inputs", "Outputs", "Description"}
			var rows [][]string
			for _, s := range results {
				rows = append(rows, []string{s.ID, slotTypes(s.Inputs), slotTypes(s.Outputs), ui.Truncate(s.Description, 40)})
			}
			ui.Table(headers, rows)
			fmt.Printf("\n  %d results\n", len(results))
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Only symbols with an input accepting this type")
	cmd.Flags().StringVar(&output, "output", "", "Only symbols with an output producing this type")
	return cmd
}

func symbolCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "symbol <id>",
		Short:             "Show a symbol's slots",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: symbolCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := loadCatalog()
			s, ok := reg.TryResolve(args[0])
			if !ok {
				return fmt.Errorf("%s: %w", args[0], catalog.ErrUnknownSymbol)
			}

			ui.Banner("symbol info")
			fmt.Printf("  %s %s\n", ui.Brand.Sprint(s.Name), ui.Subtle.Sprintf("(%s)", s.ID))
			if s.Description != "" {
				fmt.Printf("  %s\n", s.Description)
			}
			if len(s.Tags) > 0 {
				fmt.Printf("  Tags:      %s\n", strings.Join(s.Tags, ", "))
			}
			if s.ValueFor != "" {
				fmt.Printf("  Value for: %s\n", s.ValueFor)
			}
			fmt.Println()

			var rows [][]string
			for _, in := range s.Inputs {
				typ := in.Type
				if in.Multi {
					typ = "[]" + typ
				}
				rows = append(rows, []string{"in", in.ID, typ, in.Default})
			}
			for _, out := range s.Outputs {
				rows = append(rows, []string{"out", out.ID, out.Type, ""})
			}
			ui.Table([]string{"Dir", "Slot", "Type", "Default"}, rows)
			return nil
		},
	}
}

func slotTypes(slots []catalog.Slot) string {
	types := make([]string, len(slots))
	for i, s := range slots {
		types[i] = s.Type
		if s.Multi {
			types[i] = "[]" + s.Type
		}
	}
	return strings.Join(types, ", ")
}
