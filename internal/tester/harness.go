// Package tester implements the tester harness of spec §4.12: it
// co-executes a system-under-test Interpreter with zero or more tester
// Interpreters, injecting synthetic start/step/stop events and a
// reflective step context.
package tester

import (
	"github.com/google/uuid"

	"github.com/harelcraft/statecraft"
)

// StepContext is the reflective value injected into a tester's "step"
// event data, exposing what happened during the system-under-test's last
// macro step.
type StepContext struct {
	entered        map[string]bool
	exited         map[string]bool
	active         map[string]bool
	processedEvent string
	consumedEvent  string
	testedContext  map[string]any
}

// Entered reports whether name was entered during the observed macro step.
func (s *StepContext) Entered(name string) bool { return s.entered[name] }

// Exited reports whether name was exited during the observed macro step.
func (s *StepContext) Exited(name string) bool { return s.exited[name] }

// Active reports whether name is active in the tested interpreter right now.
func (s *StepContext) Active(name string) bool { return s.active[name] }

// Processed reports whether eventName triggered the first transition fired
// in the observed macro step.
func (s *StepContext) Processed(eventName string) bool {
	return s.processedEvent != "" && s.processedEvent == eventName
}

// Consumed reports whether eventName is the event consumed by the observed
// macro step (regardless of whether any transition fired).
func (s *StepContext) Consumed(eventName string) bool {
	return s.consumedEvent != "" && s.consumedEvent == eventName
}

// Context returns the tested interpreter's expression context, for testers
// that want to inspect extended state directly.
func (s *StepContext) Context() map[string]any { return s.testedContext }

// Harness co-executes a system-under-test Interpreter with tester
// Interpreters.
type Harness struct {
	SessionID uuid.UUID

	sut     *statecraft.Interpreter
	testers []*statecraft.Interpreter
}

// NewHarness constructs a Harness and injects the "start" event into every
// tester. SessionID identifies this particular co-execution, surfaced on
// any TesterAssertionError the harness produces so assertion failures from
// concurrent test runs can be told apart.
func NewHarness(sut *statecraft.Interpreter, testers ...*statecraft.Interpreter) (*Harness, error) {
	h := &Harness{SessionID: uuid.New(), sut: sut, testers: testers}
	for _, t := range testers {
		t.Send(statecraft.NewEvent("start", nil), false)
		if _, err := t.Execute(-1); err != nil {
			return nil, h.wrap(t, nil, err)
		}
	}
	return h, nil
}

// ExecuteOnce drives one macro step of the system-under-test, then injects
// a "step" event carrying the reflective StepContext into every tester.
func (h *Harness) ExecuteOnce() (*statecraft.MacroStep, error) {
	step, err := h.sut.ExecuteOnce()
	if err != nil {
		return nil, err
	}
	if step == nil {
		return nil, nil
	}

	sc := h.buildStepContext(step)
	for _, t := range h.testers {
		t.Send(statecraft.NewEvent("step", map[string]any{"step": sc}), false)
		if _, err := t.Execute(-1); err != nil {
			return step, h.wrap(t, step, err)
		}
	}
	return step, nil
}

// Execute drives the harness until the system-under-test stops running,
// has no more work (ExecuteOnce returns nil), or maxSteps macro steps have
// been observed (maxSteps <= 0 means unbounded).
func (h *Harness) Execute(maxSteps int) ([]statecraft.MacroStep, error) {
	var out []statecraft.MacroStep
	for h.sut.Running() && (maxSteps <= 0 || len(out) < maxSteps) {
		step, err := h.ExecuteOnce()
		if err != nil {
			return out, err
		}
		if step == nil {
			break
		}
		out = append(out, *step)
	}
	return out, nil
}

// Stop injects the "stop" event into every tester.
func (h *Harness) Stop() error {
	for _, t := range h.testers {
		t.Send(statecraft.NewEvent("stop", nil), false)
		if _, err := t.Execute(-1); err != nil {
			return h.wrap(t, nil, err)
		}
	}
	return nil
}

func (h *Harness) buildStepContext(step *statecraft.MacroStep) *StepContext {
	entered := map[string]bool{}
	for _, n := range step.EnteredStates() {
		entered[n] = true
	}
	exited := map[string]bool{}
	for _, n := range step.ExitedStates() {
		exited[n] = true
	}
	active := map[string]bool{}
	for _, n := range h.sut.Configuration() {
		active[n] = true
	}

	var processed, consumed string
	if ev := step.Event(); ev != nil {
		consumed = ev.Name
		if len(step.Transitions()) > 0 {
			processed = ev.Name
		}
	}

	return &StepContext{
		entered:        entered,
		exited:         exited,
		active:         active,
		processedEvent: processed,
		consumedEvent:  consumed,
		testedContext:  h.sut.Evaluator().Context(),
	}
}

func (h *Harness) wrap(t *statecraft.Interpreter, step *statecraft.MacroStep, cause error) error {
	return &statecraft.TesterAssertionError{
		SessionID:           h.SessionID.String(),
		TestedConfiguration: h.sut.Configuration(),
		Step:                step,
		Tester:              t,
		Cause:               cause,
	}
}
