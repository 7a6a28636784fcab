// Package trace provides observers over Interpreter macro steps: recording
// them, computing state/transition coverage, and logging them — spec §2
// item 6, detailed in SPEC_FULL.md Part E.
package trace

import (
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/harelcraft/statecraft"
)

// RecordedStep pairs a macro step with a stable identifier, so a step can
// be referenced (e.g. in a bug report or a replay log) independently of
// its position in Recorder.Steps.
type RecordedStep struct {
	ID   uuid.UUID
	Step statecraft.MacroStep
}

// Recorder is a statecraft.Observer that appends every macro step to an
// in-memory log, for later inspection or coverage computation.
type Recorder struct {
	Steps []RecordedStep
}

// NewRecorder returns a Recorder ready to be passed to
// statecraft.WithObserver(recorder.Observe).
func NewRecorder() *Recorder { return &Recorder{} }

// Observe implements statecraft.Observer.
func (r *Recorder) Observe(ms *statecraft.MacroStep) {
	r.Steps = append(r.Steps, RecordedStep{ID: uuid.New(), Step: *ms})
}

// MacroSteps extracts the bare macro steps, in order, for callers that
// don't need per-step identifiers (e.g. FromSteps).
func (r *Recorder) MacroSteps() []statecraft.MacroStep {
	out := make([]statecraft.MacroStep, len(r.Steps))
	for i, rs := range r.Steps {
		out[i] = rs.Step
	}
	return out
}

// Coverage summarizes which states were entered/exited and which
// transitions fired across a recorded list of macro steps, mirroring
// sismic's coverage-from-trace helper (original_source/sismic/interpreter/helpers.py).
type Coverage struct {
	Entered      map[string]int
	Exited       map[string]int
	Transitions  map[string]int // "from->to" or "from->(internal)"
	EventsFired  map[string]int
	EventsStale  map[string]int // consumed but no transition fired
}

// FromSteps computes coverage from a recorded list of macro steps.
func FromSteps(steps []statecraft.MacroStep) *Coverage {
	c := &Coverage{
		Entered:     map[string]int{},
		Exited:      map[string]int{},
		Transitions: map[string]int{},
		EventsFired: map[string]int{},
		EventsStale: map[string]int{},
	}
	for i := range steps {
		step := &steps[i]
		for _, name := range step.EnteredStates() {
			c.Entered[name]++
		}
		for _, name := range step.ExitedStates() {
			c.Exited[name]++
		}
		transitions := step.Transitions()
		for _, t := range transitions {
			to := t.To
			if t.Internal {
				to = "(internal)"
			}
			c.Transitions[t.From+"->"+to]++
		}
		if ev := step.Event(); ev != nil {
			if len(transitions) == 0 {
				c.EventsStale[ev.Name]++
			} else {
				c.EventsFired[ev.Name]++
			}
		}
	}
	return c
}

// VisitedStates returns the sorted union of entered and exited state names,
// handy for asserting "every state was visited" in tests.
func (c *Coverage) VisitedStates() []string {
	seen := map[string]struct{}{}
	for name := range c.Entered {
		seen[name] = struct{}{}
	}
	for name := range c.Exited {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoggingObserver logs each macro step via the standard log package,
// mirroring comalice-statechartx's LoggingActionRunner wrapper shape.
type LoggingObserver struct {
	*log.Logger
}

// NewLoggingObserver wraps logger (or the standard logger if nil).
func NewLoggingObserver(logger *log.Logger) *LoggingObserver {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingObserver{Logger: logger}
}

// Observe implements statecraft.Observer.
func (o *LoggingObserver) Observe(ms *statecraft.MacroStep) {
	ev := ms.Event()
	name := "(eventless)"
	if ev != nil {
		name = ev.Name
	}
	o.Printf("macro step: event=%s entered=%v exited=%v", name, ms.EnteredStates(), ms.ExitedStates())
}
