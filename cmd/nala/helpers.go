package main

import (
	"log/slog"
	"os"

	"github.com/aretw0/nala"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

// latticePath returns --dir, or the first positional argument when --dir
// was not given.
func latticePath(cmd *cobra.Command, args []string) string {
	dir := flagString(cmd, "dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	return dir
}

// openMachine loads the lattice selected by the persistent flags.
func openMachine(cmd *cobra.Command, path string, extra ...nala.Option) (*nala.Machine, error) {
	opts := []nala.Option{nala.WithLogger(slog.Default())}
	if useLoam, _ := cmd.Flags().GetBool("loam"); useLoam {
		opts = append(opts, nala.WithLoam())
	}
	if ml := flagString(cmd, "master-lattice"); ml != "" {
		opts = append(opts, nala.WithMasterLatticeLocation(ml))
	}
	return nala.New(path, append(opts, extra...)...)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
