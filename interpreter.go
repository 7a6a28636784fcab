package statecraft

import "fmt"

// Observer is notified with every non-nil MacroStep produced by
// Interpreter.ExecuteOnce, used by the trace utilities (internal/trace) to
// record execution and compute coverage without the core depending on
// them.
type Observer func(*MacroStep)

// Option configures an Interpreter at construction time, following the
// functional-options pattern the teacher uses for Machine.
type Option func(*Interpreter)

// WithSilentContractMode puts the interpreter in silent-contract mode: a
// failed contract clause is appended to FailedConditions instead of
// aborting ExecuteOnce with an error.
func WithSilentContractMode(silent bool) Option {
	return func(it *Interpreter) { it.silent = silent }
}

// WithClock supplies a pre-configured Clock instead of a fresh manual one.
func WithClock(c *Clock) Option {
	return func(it *Interpreter) { it.clock = c }
}

// WithObserver registers an Observer invoked after every macro step that
// ExecuteOnce returns (not called for a nil/no-work result).
func WithObserver(obs Observer) Option {
	return func(it *Interpreter) { it.observers = append(it.observers, obs) }
}

// Interpreter owns the active configuration, pending event queue, history
// memory and the step-selection/stabilization/contract pipeline (spec §2
// item 4, §3 "Interpreter runtime state").
type Interpreter struct {
	sc        *Statechart
	evaluator Evaluator
	clock     *Clock

	configuration map[string]struct{}
	events        []Event
	memory        map[string][]string

	FailedConditions []ContractFailure

	silent    bool
	running   bool
	observers []Observer
}

// NewInterpreter validates sc (if not already validated), constructs the
// evaluator via factory, executes the preamble, enters the root's initial
// child, evaluates statechart preconditions, and stabilizes — the
// construction lifecycle of spec §3.
func NewInterpreter(sc *Statechart, factory EvaluatorFactory, opts ...Option) (*Interpreter, error) {
	if sc.parent == nil {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
	}

	it := &Interpreter{
		sc:            sc,
		configuration: map[string]struct{}{},
		memory:        map[string][]string{},
		clock:         NewClock(),
	}
	for _, opt := range opts {
		opt(it)
	}
	if factory == nil {
		return nil, fmt.Errorf("statecraft: evaluator factory is required")
	}
	it.evaluator = factory(it)
	it.running = true

	if err := it.evaluator.ExecuteOnEntry(sc); err != nil {
		return nil, err
	}

	initialChain := sc.ancestorsOuterToInner(sc.Initial)
	initMicro := &MicroStep{Entered: initialChain}
	if err := it.executeMicroStep(initMicro, nil); err != nil {
		return nil, err
	}

	if err := it.checkContract(ContractPrecondition, sc, nil, nil); err != nil {
		return nil, err
	}

	for {
		ms, err := it.stabilizeOnce()
		if err != nil {
			return nil, err
		}
		if ms == nil {
			break
		}
		if err := it.executeMicroStep(ms, nil); err != nil {
			return nil, err
		}
	}
	if len(it.configuration) == 0 {
		it.running = false
	}

	return it, nil
}

// Send enqueues event for processing: appended if external, prepended
// (ahead of any other pending event) if internal — spec §5's
// internal-event priority.
func (it *Interpreter) Send(ev Event, internal bool) {
	if internal {
		it.events = append([]Event{ev}, it.events...)
	} else {
		it.events = append(it.events, ev)
	}
}

// Configuration returns the active configuration, depth-sorted with
// lexicographic tie-break (spec §6).
func (it *Interpreter) Configuration() []string {
	return it.sc.SortedConfiguration(it.configuration)
}

// Running reports whether the statechart has an active configuration.
func (it *Interpreter) Running() bool { return it.running }

// AddObserver registers obs to be invoked after construction, unlike
// WithObserver which only applies at NewInterpreter time. Useful for
// collaborators (internal/trace, internal/bdd) built from an already-live
// Interpreter.
func (it *Interpreter) AddObserver(obs Observer) {
	it.observers = append(it.observers, obs)
}

// Evaluator returns the bound evaluator collaborator.
func (it *Interpreter) Evaluator() Evaluator { return it.evaluator }

// Clock returns the interpreter's virtual time source.
func (it *Interpreter) Clock() *Clock { return it.clock }

// Time proxies to the clock, per spec §6's read-only "time" property.
func (it *Interpreter) Time() float64 { return it.clock.Time() }

// Statechart returns the bound statechart model.
func (it *Interpreter) Statechart() *Statechart { return it.sc }

// PendingEvents returns a copy of the event queue, oldest first.
func (it *Interpreter) PendingEvents() []Event {
	return append([]Event(nil), it.events...)
}

// History returns a copy of the history-state memory, keyed by history
// state name.
func (it *Interpreter) History() map[string][]string {
	out := make(map[string][]string, len(it.memory))
	for k, v := range it.memory {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Snapshot captures the runtime state needed to resume an interpreter:
// active configuration, history memory, pending events and virtual time.
type Snapshot struct {
	StatechartName string
	Configuration  []string
	Memory         map[string][]string
	Events         []Event
	Time           float64
}

// Snapshot returns the interpreter's current runtime state.
func (it *Interpreter) Snapshot() Snapshot {
	return Snapshot{
		StatechartName: it.sc.Name,
		Configuration:  it.Configuration(),
		Memory:         it.History(),
		Events:         it.PendingEvents(),
		Time:           it.clock.Time(),
	}
}

// Restore replaces the interpreter's runtime state with snap, without
// re-running entry actions. A non-empty snap.StatechartName that differs
// from the bound statechart's name, or a configuration naming an unknown
// state, is rejected with an error.
func (it *Interpreter) Restore(snap Snapshot) error {
	if snap.StatechartName != "" && snap.StatechartName != it.sc.Name {
		return fmt.Errorf("statecraft: snapshot statechart %q does not match bound statechart %q", snap.StatechartName, it.sc.Name)
	}
	cfg := make(map[string]struct{}, len(snap.Configuration))
	for _, name := range snap.Configuration {
		if _, ok := it.sc.States[name]; !ok {
			return fmt.Errorf("statecraft: snapshot references unknown state %q", name)
		}
		cfg[name] = struct{}{}
	}
	mem := make(map[string][]string, len(snap.Memory))
	for k, v := range snap.Memory {
		mem[k] = append([]string(nil), v...)
	}
	it.configuration = cfg
	it.memory = mem
	it.events = append([]Event(nil), snap.Events...)
	it.running = len(cfg) > 0
	if err := it.clock.SetTime(snap.Time); err != nil {
		return err
	}
	return nil
}

// Reset rebuilds the interpreter's runtime state (configuration, event
// queue, history memory, failed conditions) by re-running construction
// against the same statechart and evaluator factory is not possible once
// an evaluator is bound without re-creating it; Reset therefore clears
// runtime state and re-enters the initial configuration using the current
// evaluator, which is the behavior a stateless NoCode/Dynamic evaluator
// supports.
func (it *Interpreter) Reset() error {
	it.configuration = map[string]struct{}{}
	it.events = nil
	it.memory = map[string][]string{}
	it.FailedConditions = nil
	it.running = true

	initialChain := it.sc.ancestorsOuterToInner(it.sc.Initial)
	if err := it.executeMicroStep(&MicroStep{Entered: initialChain}, nil); err != nil {
		return err
	}
	for {
		ms, err := it.stabilizeOnce()
		if err != nil {
			return err
		}
		if ms == nil {
			break
		}
		if err := it.executeMicroStep(ms, nil); err != nil {
			return err
		}
	}
	if len(it.configuration) == 0 {
		it.running = false
	}
	return nil
}

// Execute repeatedly calls ExecuteOnce, collecting non-nil results, until a
// nil result is returned or maxSteps results have been collected.
// maxSteps <= 0 means unbounded.
func (it *Interpreter) Execute(maxSteps int) ([]MacroStep, error) {
	var out []MacroStep
	for maxSteps <= 0 || len(out) < maxSteps {
		ms, err := it.ExecuteOnce()
		if err != nil {
			return out, err
		}
		if ms == nil {
			break
		}
		out = append(out, *ms)
	}
	return out, nil
}
