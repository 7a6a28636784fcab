package statecraft

// Event is a named occurrence with an associated data mapping, as consumed
// by the interpreter's event queue and matched against Transition.Event.
type Event struct {
	Name string
	Data map[string]any
}

// NewEvent builds an Event, defaulting Data to an empty map so callers can
// always range over it without a nil check.
func NewEvent(name string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{Name: name, Data: data}
}

// Equal reports whether two events have the same name and an equal data
// mapping (shallow comparison by key/value, per spec §4.1).
func (e Event) Equal(other Event) bool {
	if e.Name != other.Name || len(e.Data) != len(other.Data) {
		return false
	}
	for k, v := range e.Data {
		ov, ok := other.Data[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// MicroStep is a single transition firing or stabilization increment: it
// carries the triggering event (nil for eventless/stabilization steps), the
// transition fired (nil for stabilization steps and for the "event
// discarded" step), and the ordered lists of states entered and exited.
// Order is semantically significant: Exited lists leaves before ancestors,
// Entered lists ancestors before descendants.
type MicroStep struct {
	Event      *Event
	Transition *Transition
	Entered    []string
	Exited     []string
}

// MacroStep is the ordered sequence of MicroSteps produced by one
// Interpreter.ExecuteOnce call: at most one event consumption followed by
// stabilization to a stable configuration.
type MacroStep struct {
	Steps []MicroStep
}

// Event returns the first non-nil event carried by any MicroStep in this
// MacroStep, or nil if the macro step was pure stabilization.
func (m *MacroStep) Event() *Event {
	for i := range m.Steps {
		if m.Steps[i].Event != nil {
			return m.Steps[i].Event
		}
	}
	return nil
}

// Transitions concatenates the non-nil transitions fired during this macro
// step, in firing order.
func (m *MacroStep) Transitions() []*Transition {
	var out []*Transition
	for i := range m.Steps {
		if m.Steps[i].Transition != nil {
			out = append(out, m.Steps[i].Transition)
		}
	}
	return out
}

// EnteredStates concatenates the Entered lists of every MicroStep, in order.
func (m *MacroStep) EnteredStates() []string {
	var out []string
	for i := range m.Steps {
		out = append(out, m.Steps[i].Entered...)
	}
	return out
}

// ExitedStates concatenates the Exited lists of every MicroStep, in order.
func (m *MacroStep) ExitedStates() []string {
	var out []string
	for i := range m.Steps {
		out = append(out, m.Steps[i].Exited...)
	}
	return out
}
