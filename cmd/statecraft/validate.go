package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate SAMPLE",
		Short: "Check a sample statechart's structural invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := lookupSample(args[0])
			if err != nil {
				return err
			}
			if err := sc.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid (%d states, %d transitions)\n", args[0], len(sc.States), len(sc.Transitions))
			return nil
		},
	}
}
