// Package extensibility provides concrete Evaluator implementations that
// plug into the statecraft core through the Evaluator interface (spec
// §4.2). The core itself never imports this package; callers wire one of
// these (or their own) via statecraft.EvaluatorFactory.
package extensibility

import (
	"github.com/harelcraft/statecraft"
)

// NoCode is the trivial Evaluator required by spec §4.2: every guard
// evaluates true, every action/entry/exit/contract check is a no-op, and
// Context is always empty. It exists so control flow that does not depend
// on expressions can be exercised without a real expression engine.
type NoCode struct{}

// NewNoCode constructs a NoCode evaluator. The returned value ignores the
// bound interpreter entirely, since it has no state to track.
func NewNoCode(*statecraft.Interpreter) statecraft.Evaluator {
	return &NoCode{}
}

func (*NoCode) Context() map[string]any { return map[string]any{} }

func (*NoCode) EvaluateGuard(*statecraft.Transition, *statecraft.Event) (bool, error) {
	return true, nil
}

func (*NoCode) ExecuteAction(*statecraft.Transition, *statecraft.Event) error { return nil }
func (*NoCode) ExecuteOnEntry(any) error                                     { return nil }
func (*NoCode) ExecuteOnExit(any) error                                      { return nil }

func (*NoCode) EvaluatePre(any, *statecraft.Event) ([]string, error)         { return nil, nil }
func (*NoCode) EvaluatePost(any, *statecraft.Event) ([]string, error)        { return nil, nil }
func (*NoCode) EvaluateInvariants(any, *statecraft.Event) ([]string, error)  { return nil, nil }
