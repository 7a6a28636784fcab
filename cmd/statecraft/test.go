package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harelcraft/statecraft"
	"github.com/harelcraft/statecraft/internal/tester"
)

func newTestCmd() *cobra.Command {
	var noCode bool
	var level int
	var events []string
	var testSamples []string

	cmd := &cobra.Command{
		Use:   "test SAMPLE --tests SAMPLE...",
		Short: "Run SAMPLE under the tester harness against one or more tester statecharts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(testSamples) == 0 {
				return fmt.Errorf("at least one --tests sample is required")
			}

			sutChart, err := lookupSample(args[0])
			if err != nil {
				return err
			}
			sut, err := statecraft.NewInterpreter(sutChart, evaluatorFactory(noCode))
			if err != nil {
				return err
			}

			var testers []*statecraft.Interpreter
			for _, name := range testSamples {
				chart, err := lookupSample(name)
				if err != nil {
					return err
				}
				it, err := statecraft.NewInterpreter(chart, evaluatorFactory(noCode))
				if err != nil {
					return err
				}
				testers = append(testers, it)
			}

			h, err := tester.NewHarness(sut, testers...)
			if err != nil {
				return err
			}

			for _, wire := range events {
				ev, err := parseEventWire(wire)
				if err != nil {
					return err
				}
				sut.Send(ev, false)
			}

			if level >= 1 {
				sut.AddObserver(func(ms *statecraft.MacroStep) {
					printStep(cmd, sut, ms, level)
				})
			}

			if _, err := h.Execute(-1); err != nil {
				return err
			}
			if err := h.Stop(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "All tests passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCode, "no-code", false, "use the no-op evaluator instead of the dynamic-expression one")
	cmd.Flags().IntVarP(&level, "level", "l", 0, "trace verbosity: 1 transitions, 2 events+configuration, 3 state enter/exit")
	cmd.Flags().StringSliceVar(&events, "events", nil, "events to enqueue into the tested sample, wire form name[:key=value...]")
	cmd.Flags().StringSliceVar(&testSamples, "tests", nil, "tester sample names")

	return cmd
}
