package statecraft

// Builder provides a fluent, teacher-style construction API for
// Statecharts, mirroring internal/primitives' State()/Transition() chaining
// from the source project while producing the richer five-variant model
// this engine requires.
type Builder struct {
	sc *Statechart
}

// NewBuilder starts a new Statechart named name.
func NewBuilder(name string) *Builder {
	return &Builder{sc: NewStatechart(name)}
}

// WithPreamble attaches the statechart's preamble action reference.
func (b *Builder) WithPreamble(a ActionRef) *Builder {
	b.sc.Preamble = a
	return b
}

// WithInitial sets the statechart's initial top-level child.
func (b *Builder) WithInitial(name string) *Builder {
	b.sc.Initial = name
	return b
}

// WithContracts attaches statechart-level contract clauses.
func (b *Builder) WithContracts(pre, inv, post []string) *Builder {
	b.sc.Pre = pre
	b.sc.Inv = inv
	b.sc.Post = post
	return b
}

// AddState registers st as a top-level child of the statechart.
func (b *Builder) AddState(st *State) *Builder {
	b.sc.States[st.Name] = st
	b.sc.Children = append(b.sc.Children, st.Name)
	return b
}

// AddChildState registers st as a child of the state named parent (which
// must already have been added). Use for compound/orthogonal nesting.
func (b *Builder) AddChildState(parent string, st *State) *Builder {
	b.sc.States[st.Name] = st
	if p, ok := b.sc.States[parent]; ok {
		p.Children = append(p.Children, st.Name)
	}
	return b
}

// AddTransition registers t on the statechart.
func (b *Builder) AddTransition(t *Transition) *Builder {
	b.sc.Transitions = append(b.sc.Transitions, t)
	return b
}

// Build validates and returns the constructed Statechart.
func (b *Builder) Build() (*Statechart, error) {
	if err := b.sc.Validate(); err != nil {
		return nil, err
	}
	return b.sc, nil
}
