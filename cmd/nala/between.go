package main

import (
	"fmt"

	"github.com/aretw0/nala/pkg/lattice"
	"github.com/spf13/cobra"
)

var betweenCmd = &cobra.Command{
	Use:   "between <start> <end>",
	Short: "List the elements between two elements",
	Long: `Prints the names of the elements from start to end (both included) along a
beam path. Use "" for either bound to start or stop at the end of the path.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := openMachine(cmd, flagString(cmd, "dir"))
		if err != nil {
			return err
		}
		types, _ := cmd.Flags().GetStringSlice("type")
		classes, _ := cmd.Flags().GetStringSlice("class")
		models, _ := cmd.Flags().GetStringSlice("model")

		names, err := machine.Model().ElementsBetween(
			lattice.Span{Start: args[0], End: args[1], Path: flagString(cmd, "layout")},
			lattice.Filter{Types: types, Classes: classes, Models: models},
		)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(betweenCmd)
	betweenCmd.Flags().String("layout", "", "Beam path to search (default layout if omitted)")
	betweenCmd.Flags().StringSlice("type", nil, "Keep only these hardware types")
	betweenCmd.Flags().StringSlice("class", nil, "Keep only these hardware classes")
	betweenCmd.Flags().StringSlice("model", nil, "Keep only these hardware models")
}
