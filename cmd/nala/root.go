package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/nala/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nala",
	Short: "Nala translates accelerator lattices into simulation decks",
	Long: `Nala loads an accelerator lattice described in YAML documents and exports it
to ASTRA, GPT, Elegant, CSRTrack, Ocelot, Xsuite, Wake-T, Genesis and OPAL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(flagString(cmd, "log-level"))
		if err != nil {
			return err
		}
		slog.SetDefault(logging.New(level))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Lattice directory or combined element file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("loam", false, "Read the lattice through a Loam repository")
	rootCmd.PersistentFlags().String("master-lattice", "", "Directory substituted for $master_lattice_location$")
}
