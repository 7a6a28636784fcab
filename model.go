// Package statecraft implements the core of a hierarchical statechart
// interpreter with Design-by-Contract semantics, closely aligned with
// SCXML/Harel statechart semantics. See SPEC_FULL.md for the full
// requirements this package satisfies.
package statecraft

import (
	"fmt"
	"sort"
)

// StateKind discriminates the state variants of the data model.
type StateKind int

const (
	Atomic StateKind = iota
	Compound
	Orthogonal
	History
	Final
)

func (k StateKind) String() string {
	switch k {
	case Atomic:
		return "atomic"
	case Compound:
		return "compound"
	case Orthogonal:
		return "orthogonal"
	case History:
		return "history"
	case Final:
		return "final"
	default:
		return "unknown"
	}
}

// State is one node of the statechart hierarchy. The Kind field
// discriminates between atomic, compound, orthogonal, history and final
// variants; fields that are meaningless for a given Kind are simply left
// zero (Go has no sum types, so this mirrors the teacher's StateConfig
// shape rather than reaching for an interface per variant).
type State struct {
	Name     string
	Kind     StateKind
	Children []string // ordered; compound and orthogonal children
	Initial  string    // compound: default child. history: fallback child.
	Deep     bool      // history only: shallow (false) vs deep (true)

	OnEntry ActionRef
	OnExit  ActionRef

	Pre  []string
	Inv  []string
	Post []string
}

// NewState constructs a bare State of the given kind, ready for fluent
// configuration via the With* methods.
func NewState(name string, kind StateKind) *State {
	return &State{Name: name, Kind: kind}
}

// WithInitial sets the default child for a compound state, or the fallback
// child for a history state.
func (s *State) WithInitial(name string) *State {
	s.Initial = name
	return s
}

// WithChildren sets the ordered children of a compound or orthogonal state.
func (s *State) WithChildren(names ...string) *State {
	s.Children = append([]string(nil), names...)
	return s
}

// WithOnEntry attaches an entry action reference.
func (s *State) WithOnEntry(a ActionRef) *State {
	s.OnEntry = a
	return s
}

// WithOnExit attaches an exit action reference.
func (s *State) WithOnExit(a ActionRef) *State {
	s.OnExit = a
	return s
}

// WithContracts attaches precondition, invariant and postcondition clauses.
func (s *State) WithContracts(pre, inv, post []string) *State {
	s.Pre = pre
	s.Inv = inv
	s.Post = post
	return s
}

// GuardRef and ActionRef are opaque references the core never interprets:
// the concrete Evaluator decides how to turn them into behavior (an
// expression string, a closure, a registered identifier, ...).
type GuardRef any
type ActionRef any

// Transition is an edge of the statechart. A zero-value To with Internal
// true denotes an internal transition (no exit/entry); a zero-value Event
// with HasEvent false denotes an eventless transition.
type Transition struct {
	From     string
	To       string
	Internal bool
	Event    string
	HasEvent bool
	Guard    GuardRef
	Action   ActionRef

	Pre  []string
	Inv  []string
	Post []string
}

// NewTransition builds an external, eventless, unguarded transition; use
// the With* methods to add an event, guard, action or contracts, or set
	// Internal to make it an internal transition.
func NewTransition(from, to string) *Transition {
	return &Transition{From: from, To: to}
}

// WithEvent sets the triggering event name.
func (t *Transition) WithEvent(name string) *Transition {
	t.Event = name
	t.HasEvent = true
	return t
}

// WithGuard attaches a guard reference.
func (t *Transition) WithGuard(g GuardRef) *Transition {
	t.Guard = g
	return t
}

// WithAction attaches an action reference.
func (t *Transition) WithAction(a ActionRef) *Transition {
	t.Action = a
	return t
}

// AsInternal marks the transition as internal (no exit/entry on firing).
func (t *Transition) AsInternal() *Transition {
	t.Internal = true
	t.To = ""
	return t
}

// WithContracts attaches precondition, invariant and postcondition clauses.
func (t *Transition) WithContracts(pre, inv, post []string) *Transition {
	t.Pre = pre
	t.Inv = inv
	t.Post = post
	return t
}

// Statechart is the immutable-after-construction root container: it plays
// the role of the implicit compound root (Children/Initial) plus the
// preamble and its own contract clauses.
type Statechart struct {
	Name     string
	Preamble ActionRef
	Initial  string
	Children []string // top-level state names
	States   map[string]*State
	Transitions []*Transition

	Pre  []string
	Inv  []string
	Post []string

	parent map[string]string // name -> parent name ("" = top-level), computed at Validate
}

// NewStatechart creates an empty Statechart shell; use the builder (builder.go)
// or populate States/Transitions/Children directly before calling Validate.
func NewStatechart(name string) *Statechart {
	return &Statechart{Name: name, States: map[string]*State{}}
}

// Validate checks the structural invariants spec.md §3 relies upon: unique
// names, resolvable edges, well-formed initial children, history states
// attached only to compound parents, orthogonal children that are compound
// or orthogonal. It also computes the parent index used by the structural
// query methods below, so it MUST be called (directly or via
// NewInterpreter) before those queries are used.
func (sc *Statechart) Validate() error {
	if sc.Name == "" {
		return &ModelError{Msg: "statechart name is required"}
	}
	if len(sc.Children) == 0 {
		return &ModelError{Msg: "statechart requires at least one top-level child"}
	}
	if sc.Initial == "" {
		return &ModelError{Msg: "statechart requires an initial child"}
	}

	parent := map[string]string{}
	var walk func(names []string, parentName string) error
	walk = func(names []string, parentName string) error {
		for _, name := range names {
			if existing, ok := parent[name]; ok {
				return &ModelError{Msg: fmt.Sprintf("state %q appears under both %q and %q", name, existing, parentName)}
			}
			parent[name] = parentName
			st, ok := sc.States[name]
			if !ok {
				return &ModelError{Msg: fmt.Sprintf("state %q referenced but not defined", name)}
			}
			if len(st.Children) > 0 {
				if err := walk(st.Children, name); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(sc.Children, ""); err != nil {
		return err
	}
	if len(parent) != len(sc.States) {
		for name := range sc.States {
			if _, ok := parent[name]; !ok {
				return &ModelError{Msg: fmt.Sprintf("state %q is defined but unreachable from the statechart's children", name)}
			}
		}
	}

	found := false
	for _, c := range sc.Children {
		if c == sc.Initial {
			found = true
			break
		}
	}
	if !found {
		return &ModelError{Msg: fmt.Sprintf("statechart initial child %q is not a top-level state", sc.Initial)}
	}

	for name, st := range sc.States {
		switch st.Kind {
		case Compound:
			if st.Initial == "" {
				return &ModelError{Msg: fmt.Sprintf("compound state %q requires an initial child", name)}
			}
			if !containsString(st.Children, st.Initial) {
				return &ModelError{Msg: fmt.Sprintf("compound state %q initial child %q not among its children", name, st.Initial)}
			}
		case Orthogonal:
			if len(st.Children) == 0 {
				return &ModelError{Msg: fmt.Sprintf("orthogonal state %q requires children", name)}
			}
			for _, c := range st.Children {
				cs, ok := sc.States[c]
				if !ok || (cs.Kind != Compound && cs.Kind != Orthogonal) {
					return &ModelError{Msg: fmt.Sprintf("orthogonal state %q child %q must be compound or orthogonal", name, c)}
				}
			}
		case History:
			p, ok := parent[name]
			if !ok || p == "" {
				return &ModelError{Msg: fmt.Sprintf("history state %q must attach to a compound parent", name)}
			}
			ps, ok := sc.States[p]
			if !ok || ps.Kind != Compound {
				return &ModelError{Msg: fmt.Sprintf("history state %q parent %q is not compound", name, p)}
			}
			if st.Initial != "" && !containsString(ps.Children, st.Initial) {
				return &ModelError{Msg: fmt.Sprintf("history state %q fallback %q is not a sibling child of %q", name, st.Initial, p)}
			}
		case Atomic, Final:
			if len(st.Children) != 0 {
				return &ModelError{Msg: fmt.Sprintf("%s state %q cannot have children", st.Kind, name)}
			}
		}
	}

	for _, t := range sc.Transitions {
		if _, ok := sc.States[t.From]; !ok {
			return &ModelError{Msg: fmt.Sprintf("transition references unknown from_state %q", t.From)}
		}
		if !t.Internal {
			if _, ok := sc.States[t.To]; !ok {
				return &ModelError{Msg: fmt.Sprintf("transition references unknown to_state %q", t.To)}
			}
		}
	}

	sc.parent = parent
	return nil
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// ParentFor returns the immediate parent of name, or "" if name is a
// top-level state. Validate must have been called first.
func (sc *Statechart) ParentFor(name string) string {
	return sc.parent[name]
}

// AncestorsFor returns the ancestors of name, nearest-first, excluding name
// itself and excluding the implicit root.
func (sc *Statechart) AncestorsFor(name string) []string {
	var out []string
	for cur := sc.parent[name]; cur != ""; cur = sc.parent[cur] {
		out = append(out, cur)
	}
	return out
}

// DepthOf returns len(AncestorsFor(name)): top-level states have depth 0.
func (sc *Statechart) DepthOf(name string) int {
	return len(sc.AncestorsFor(name))
}

// ancestorsOuterToInner returns [root-most ancestor, ..., immediate parent, name].
func (sc *Statechart) ancestorsOuterToInner(name string) []string {
	anc := sc.AncestorsFor(name)
	out := make([]string, 0, len(anc)+1)
	for i := len(anc) - 1; i >= 0; i-- {
		out = append(out, anc[i])
	}
	out = append(out, name)
	return out
}

// DescendantsFor returns the proper descendants of name in pre-order,
// excluding name itself.
func (sc *Statechart) DescendantsFor(name string) []string {
	var out []string
	st, ok := sc.States[name]
	if !ok {
		return nil
	}
	var walk func(n string)
	walk = func(n string) {
		s := sc.States[n]
		if s == nil {
			return
		}
		for _, c := range s.Children {
			out = append(out, c)
			walk(c)
		}
	}
	walk(st.Name)
	return out
}

// LeastCommonAncestor returns the nearest common proper ancestor name of a
// and b (a state is not its own ancestor), or "" if their only common
// ancestor is the implicit statechart root.
func (sc *Statechart) LeastCommonAncestor(a, b string) string {
	ancA := sc.AncestorsFor(a)
	for _, cand := range sc.AncestorsFor(b) {
		if containsString(ancA, cand) {
			return cand
		}
	}
	return ""
}

// LeafFor returns the states in config that have no active child also in
// config: i.e. the deepest active leaf per independent region.
func (sc *Statechart) LeafFor(config map[string]struct{}) []string {
	isParentOfActive := map[string]bool{}
	for name := range config {
		if p := sc.parent[name]; p != "" {
			isParentOfActive[p] = true
		}
	}
	var leaves []string
	for name := range config {
		if !isParentOfActive[name] {
			leaves = append(leaves, name)
		}
	}
	sort.Slice(leaves, func(i, j int) bool {
		if sc.DepthOf(leaves[i]) != sc.DepthOf(leaves[j]) {
			return sc.DepthOf(leaves[i]) < sc.DepthOf(leaves[j])
		}
		return leaves[i] < leaves[j]
	})
	return leaves
}

// SortedConfiguration renders a configuration set as a depth-sorted,
// lexicographically tie-broken slice, matching the ordering Interpreter's
// Configuration() property exposes (spec §6).
func (sc *Statechart) SortedConfiguration(config map[string]struct{}) []string {
	out := make([]string, 0, len(config))
	for name := range config {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := sc.DepthOf(out[i]), sc.DepthOf(out[j])
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}

func (sc *Statechart) lastBeforeLCA(from, lca string) string {
	chain := sc.ancestorsOuterToInner(from)
	for _, name := range chain {
		if sc.parent[name] == lca {
			return name
		}
	}
	return from
}

// String renders a `statechart "name"` label, used in error
// messages and trace output.
func (sc *Statechart) String() string {
	return fmt.Sprintf("statechart %q", sc.Name)
}
