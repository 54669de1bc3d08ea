package main

import (
	"fmt"

	"github.com/aretw0/nala"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nala",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nala version %s\n", nala.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
