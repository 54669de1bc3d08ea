package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/nala"
	"github.com/aretw0/nala/pkg/adapters/file"
	"github.com/aretw0/nala/pkg/translator"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <code>",
	Short: "Export the lattice as the input deck of a simulation code",
	Long: `Renders a layout, a section or the whole machine for one simulation code.
The deck is printed to stdout unless --out names a directory.

Codes: ` + strings.Join(codeNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: codeNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := translator.ParseCode(args[0])
		if err != nil {
			return err
		}
		outDir := flagString(cmd, "out")

		var env []translator.Option
		if v, _ := cmd.Flags().GetFloat64("momentum"); v > 0 {
			env = append(env, translator.WithMomentum(v))
		}
		if v, _ := cmd.Flags().GetFloat64("charge"); v > 0 {
			env = append(env, translator.WithCharge(v))
		}
		if cmd.Flags().Changed("space-charge") {
			env = append(env, translator.WithSpaceCharge(flagString(cmd, "space-charge")))
		}
		if cmd.Flags().Changed("particles") {
			n, _ := cmd.Flags().GetInt("particles")
			env = append(env, translator.WithParticles(n, 1))
		}

		opts := []nala.Option{nala.WithEnv(env...)}
		if outDir != "" {
			opts = append(opts, nala.WithOutputDir(outDir))
		}
		machine, err := openMachine(cmd, flagString(cmd, "dir"), opts...)
		if err != nil {
			return err
		}

		target := nala.Target{Layout: flagString(cmd, "layout"), Section: flagString(cmd, "section")}
		deck, err := machine.Export(cmd.Context(), string(code), target)
		if err != nil {
			return err
		}

		if outDir == "" {
			fmt.Fprint(cmd.OutOrStdout(), deck.Content)
			return nil
		}
		name := target.String()
		if name == "" {
			name = machine.Name
		}
		path, err := file.NewExporter().ExportDeck(deck, outDir, name+code.Extension())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		for _, f := range deck.Files {
			fmt.Fprintf(cmd.OutOrStdout(), "  needs %s\n", f)
		}
		return nil
	},
}

func codeNames() []string {
	codes := translator.Default().Codes()
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("layout", "", "Layout to export (whole machine if neither --layout nor --section)")
	exportCmd.Flags().String("section", "", "Single section to export")
	exportCmd.Flags().StringP("out", "o", "", "Directory to write the deck to")
	exportCmd.Flags().Float64("momentum", 0, "Reference momentum in eV/c")
	exportCmd.Flags().Float64("charge", 0, "Bunch charge in C")
	exportCmd.Flags().String("space-charge", "3D", "Space charge model: 2D, 3D or empty to disable")
	exportCmd.Flags().Int("particles", 1<<15, "Number of macro particles")
}
