package statecraft

import "fmt"

// ContractKind identifies which clause category a contract failure belongs to.
type ContractKind string

const (
	ContractPrecondition ContractKind = "precondition"
	ContractPostcondition ContractKind = "postcondition"
	ContractInvariant     ContractKind = "invariant"
)

// ContractFailure records one unsatisfied contract clause, as produced by
// EvaluatePre/EvaluatePost/EvaluateInvariants and surfaced either as an
// error (strict mode) or appended to Interpreter.FailedConditions (silent
// mode).
type ContractFailure struct {
	Kind          ContractKind
	Configuration []string
	Step          *MacroStep
	Obj           any
	Clause        string
	Context       map[string]any
}

func (f *ContractFailure) Error() string {
	return fmt.Sprintf("%s failed: %q (configuration=%v)", f.Kind, f.Clause, f.Configuration)
}

// PreconditionFailedError wraps a ContractFailure of kind precondition.
type PreconditionFailedError struct{ *ContractFailure }

// PostconditionFailedError wraps a ContractFailure of kind postcondition.
type PostconditionFailedError struct{ *ContractFailure }

// InvariantFailedError wraps a ContractFailure of kind invariant.
type InvariantFailedError struct{ *ContractFailure }

// NonDeterminismError is raised when two or more enabled transitions have a
// least common ancestor that is not orthogonal.
type NonDeterminismError struct {
	Transitions []*Transition
}

func (e *NonDeterminismError) Error() string {
	return fmt.Sprintf("non-determinism: %d simultaneously enabled transitions do not share an orthogonal ancestor", len(e.Transitions))
}

// ConflictError is raised when a selected transition's target escapes the
// orthogonal region rooted at its source.
type ConflictError struct {
	Transition *Transition
	RegionRoot string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: transition %s->%s escapes region rooted at %q", e.Transition.From, e.Transition.To, e.RegionRoot)
}

// EvaluationError wraps an error raised by the evaluator while evaluating a
// guard, action, or contract clause, annotated with the source object.
type EvaluationError struct {
	Obj   any
	Cause error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation error on %v: %v", e.Obj, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

// ClockMonotonicityError is raised when Clock.SetTime is called with a value
// smaller than the clock's current time.
type ClockMonotonicityError struct {
	Current  float64
	Attempted float64
}

func (e *ClockMonotonicityError) Error() string {
	return fmt.Sprintf("clock monotonicity violation: attempted to set time to %v, current is %v", e.Attempted, e.Current)
}

// ModelError describes a structural violation detected while validating a
// Statechart (unique names, resolvable edges, valid initial children,
// well-attached history states, compound/orthogonal children).
type ModelError struct {
	Msg string
}

func (e *ModelError) Error() string { return "model error: " + e.Msg }

// TesterAssertionError is raised by the tester harness when a tester
// statechart's contract or invariant fails while observing the
// system-under-test.
type TesterAssertionError struct {
	SessionID           string
	TestedConfiguration []string
	Step                *MacroStep
	Tester              *Interpreter
	Cause               error
}

func (e *TesterAssertionError) Error() string {
	return fmt.Sprintf("tester assertion failed: %v (tested configuration=%v)", e.Cause, e.TestedConfiguration)
}

func (e *TesterAssertionError) Unwrap() error { return e.Cause }
