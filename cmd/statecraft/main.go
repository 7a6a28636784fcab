// Command statecraft is the CLI collaborator: it drives the in-process
// interpreter over the fixed sample registry (samples.go), since parsing a
// statechart textual format is explicitly out of scope for the core.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "statecraft",
		Short: "Drive, validate and test hierarchical statecharts",
		Long: `statecraft is a command-line collaborator around the statecraft
interpreter. It operates over a small built-in registry of sample
statecharts rather than a file format, since parsing statechart source is
a collaborator concern the core does not take on.`,
	}

	root.AddCommand(newExecuteCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newTestCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "statecraft:", err)
		os.Exit(1)
	}
}
