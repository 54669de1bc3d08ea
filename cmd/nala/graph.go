package main

import (
	"fmt"

	"github.com/aretw0/nala/internal/presentation/graph"
	"github.com/aretw0/nala/pkg/lattice"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [dir]",
	Short: "Export the beam path visualization",
	Long: `Outputs a Mermaid diagram (graph LR) of one layout: its sections and their
elements in beam order. --from and --to highlight the elements between them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := openMachine(cmd, latticePath(cmd, args))
		if err != nil {
			return err
		}
		model := machine.Model()
		layoutName := flagString(cmd, "layout")
		layout, err := model.Layout(layoutName)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		from, to := flagString(cmd, "from"), flagString(cmd, "to")
		if from != "" || to != "" {
			names, err := model.ElementsBetween(lattice.Span{Start: from, End: to, Path: layoutName}, lattice.Filter{})
			if err != nil {
				return err
			}
			overlay = &graph.Overlay{Highlight: names}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(layout, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("layout", "", "Layout to draw (default layout if omitted)")
	graphCmd.Flags().String("from", "", "First element to highlight")
	graphCmd.Flags().String("to", "", "Last element to highlight")
}
