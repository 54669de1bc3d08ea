package main

import (
	"fmt"

	"github.com/aretw0/nala/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <out-dir>",
	Short: "Write the lattice back as YAML documents",
	Long: `Writes every element to <out-dir>/<class>/<type>/<name>.yaml, or to a single
summary.yaml with --combined, together with layouts.yaml and sections.yaml.
The output reads back with --dir <out-dir>.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := openMachine(cmd, flagString(cmd, "dir"))
		if err != nil {
			return err
		}
		outDir := args[0]
		combined, _ := cmd.Flags().GetBool("combined")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		exporter := file.NewExporter()

		if combined {
			path, err := exporter.ExportCombined(machine.Model(), outDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		} else {
			paths, err := exporter.ExportMachine(machine.Model(), outDir, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d element documents to %s\n", len(paths), outDir)
		}

		layouts, sections, err := machine.Loader().LoadConfig(cmd.Context())
		if err != nil {
			return err
		}
		return exporter.ExportConfig(outDir, layouts, sections)
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Bool("combined", false, "Write one summary.yaml instead of a document tree")
	dumpCmd.Flags().Bool("overwrite", false, "Replace existing element documents")
}
