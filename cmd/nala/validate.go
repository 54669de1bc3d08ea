package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check the lattice documents",
	Long: `Loads every element document, validates it against its hardware type and
builds the sections and layouts. Reports every invalid document.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := openMachine(cmd, latticePath(cmd, args))
		if err != nil {
			return fmt.Errorf("validation failed:\n%w", err)
		}

		model := machine.Model()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%d elements in %d sections\n", model.Len(), len(model.SectionNames()))
		for _, name := range model.LayoutNames() {
			l, err := model.Layout(name)
			if err != nil {
				return err
			}
			marker := ""
			if name == model.DefaultLayout() {
				marker = " (default)"
			}
			fmt.Fprintf(out, "  %s%s: %s\n", name, marker, strings.Join(l.SectionNames(), " -> "))
		}
		fmt.Fprintln(out, "Lattice is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
