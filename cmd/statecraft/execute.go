package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harelcraft/statecraft"
)

func newExecuteCmd() *cobra.Command {
	var noCode bool
	var level int
	var events []string

	cmd := &cobra.Command{
		Use:   "execute SAMPLE",
		Short: "Run a sample statechart to completion, printing a step trace",
		Long: fmt.Sprintf("Runs a sample statechart to completion.\nAvailable samples: %v", sampleNames()),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := lookupSample(args[0])
			if err != nil {
				return err
			}

			var it *statecraft.Interpreter
			it, err = statecraft.NewInterpreter(sc, evaluatorFactory(noCode),
				statecraft.WithObserver(func(ms *statecraft.MacroStep) {
					printStep(cmd, it, ms, level)
				}),
			)
			if err != nil {
				return err
			}

			for _, wire := range events {
				ev, err := parseEventWire(wire)
				if err != nil {
					return err
				}
				it.Send(ev, false)
			}

			_, err = it.Execute(-1)
			return err
		},
	}

	cmd.Flags().BoolVar(&noCode, "no-code", false, "use the no-op evaluator instead of the dynamic-expression one")
	cmd.Flags().IntVarP(&level, "level", "l", 1, "trace verbosity: 1 transitions, 2 events+configuration, 3 state enter/exit")
	cmd.Flags().StringSliceVar(&events, "events", nil, "events to enqueue before running, wire form name[:key=value...]")

	return cmd
}

func printStep(cmd *cobra.Command, it *statecraft.Interpreter, ms *statecraft.MacroStep, level int) {
	out := cmd.OutOrStdout()
	for _, t := range ms.Transitions() {
		to := t.To
		if t.Internal {
			to = "(internal)"
		}
		fmt.Fprintf(out, "%s -> %s\n", t.From, to)
	}
	if level >= 2 {
		name := "(eventless)"
		if ev := ms.Event(); ev != nil {
			name = ev.Name
		}
		fmt.Fprintf(out, "  event=%s configuration=%v\n", name, it.Configuration())
	}
	if level >= 3 {
		if entered := ms.EnteredStates(); len(entered) > 0 {
			fmt.Fprintf(out, "  entered=%v\n", entered)
		}
		if exited := ms.ExitedStates(); len(exited) > 0 {
			fmt.Fprintf(out, "  exited=%v\n", exited)
		}
	}
}
