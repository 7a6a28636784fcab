package statecraft

// Evaluator is the pluggable collaborator the core depends on for every
// expression/action touchpoint (spec §4.2). The core never parses
// expression strings itself; it only calls this interface at the moments
// listed in the spec's evaluator-contract table.
type Evaluator interface {
	// Context exposes a read-only snapshot of the evaluator's extended
	// state, for diagnostics and for the contract-failure context
	// snapshot recorded in ContractFailure.Context.
	Context() map[string]any

	// EvaluateGuard gates a transition. ev is nil for eventless
	// transitions. A guard that fails (returns an error) makes the
	// interpreter return that error to its caller unchanged.
	EvaluateGuard(t *Transition, ev *Event) (bool, error)

	// ExecuteAction runs a transition's action body.
	ExecuteAction(t *Transition, ev *Event) error

	// ExecuteOnEntry runs obj's entry action. obj is a *State or a
	// *Statechart (for the preamble, at statechart-start time).
	ExecuteOnEntry(obj any) error

	// ExecuteOnExit runs obj's exit action. obj is a *State.
	ExecuteOnExit(obj any) error

	// EvaluatePre, EvaluatePost and EvaluateInvariants each return the
	// unsatisfied clauses among obj's corresponding contract list. obj is
	// a *State, *Transition or *Statechart. ev is the triggering event,
	// or nil when none applies.
	EvaluatePre(obj any, ev *Event) ([]string, error)
	EvaluatePost(obj any, ev *Event) ([]string, error)
	EvaluateInvariants(obj any, ev *Event) ([]string, error)
}

// EvaluatorFactory builds an Evaluator bound to the interpreter that will
// drive it, mirroring spec §6's constructor signature
// "(statechart, evaluator_factory?, silent_contract?)".
type EvaluatorFactory func(interp *Interpreter) Evaluator
