package main

import (
	"fmt"
	"os"

	"github.com/aretw0/nala/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <element>",
	Short: "Describe one element",
	Long:  `Prints a summary and the full YAML definition of an element, styled when stdout is a terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		machine, err := openMachine(cmd, flagString(cmd, "dir"))
		if err != nil {
			return err
		}
		e, err := machine.Model().GetElement(args[0])
		if err != nil {
			return err
		}
		md, err := tui.ElementMarkdown(e)
		if err != nil {
			return err
		}

		raw, _ := cmd.Flags().GetBool("raw")
		if raw {
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		}
		render, err := tui.NewRenderer(!isTerminal(os.Stdout))
		if err != nil {
			return err
		}
		out, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("raw", false, "Print the markdown without rendering it")
}
