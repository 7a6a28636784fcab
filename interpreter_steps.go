package statecraft

import "sort"

// ExecuteOnce performs at most one event consumption followed by
// stabilization to a stable configuration — the heart of the interpreter
// (spec §4.4).
func (it *Interpreter) ExecuteOnce() (*MacroStep, error) {
	selected, err := it.selectEnabled(nil, true)
	if err != nil {
		return nil, err
	}

	var consumed *Event
	if len(selected) == 0 {
		if len(it.events) == 0 {
			return nil, nil
		}
		ev := it.events[0]
		it.events = it.events[1:]
		consumed = &ev
		selected, err = it.selectEnabled(consumed, false)
		if err != nil {
			return nil, err
		}
		if len(selected) == 0 {
			// Open question (b): the event is still reported as consumed,
			// but no invariants are re-evaluated on this branch.
			ms := &MacroStep{Steps: []MicroStep{{Event: consumed}}}
			it.notify(ms)
			return ms, nil
		}
	}

	selected = filterInnerFirst(it.sc, selected)
	sorted, sortErr := sortAndCheckConflicts(it.sc, selected)
	if sortErr != nil {
		return nil, sortErr
	}

	macro := &MacroStep{}
	for _, t := range sorted {
		ms, err := it.computeMicroStep(t)
		if err != nil {
			return nil, err
		}
		ms.Event = consumed
		if err := it.executeMicroStep(ms, consumed); err != nil {
			return nil, err
		}
		macro.Steps = append(macro.Steps, *ms)

		for {
			sms, err := it.stabilizeOnce()
			if err != nil {
				return nil, err
			}
			if sms == nil {
				break
			}
			if err := it.executeMicroStep(sms, consumed); err != nil {
				return nil, err
			}
			macro.Steps = append(macro.Steps, *sms)
		}
	}

	for _, name := range it.sc.SortedConfiguration(it.configuration) {
		if err := it.checkContract(ContractInvariant, it.sc.States[name], consumed, macro); err != nil {
			return nil, err
		}
	}
	if err := it.checkContract(ContractInvariant, it.sc, consumed, macro); err != nil {
		return nil, err
	}
	if len(it.configuration) == 0 {
		it.running = false
		if err := it.checkContract(ContractPostcondition, it.sc, consumed, macro); err != nil {
			return nil, err
		}
	}

	it.notify(macro)
	return macro, nil
}

func (it *Interpreter) notify(ms *MacroStep) {
	for _, obs := range it.observers {
		obs(ms)
	}
}

// selectEnabled gathers transitions whose source is active, whose event
// matches (eventless when ev == nil and eventlessOnly, or ev.Name
// otherwise), and whose guard passes. A guard that raises is fatal and
// propagates to the caller as-is (spec §4.5), rather than being treated as
// a false guard.
func (it *Interpreter) selectEnabled(ev *Event, eventlessOnly bool) ([]*Transition, error) {
	var out []*Transition
	for _, t := range it.sc.Transitions {
		if _, active := it.configuration[t.From]; !active {
			continue
		}
		if eventlessOnly {
			if t.HasEvent {
				continue
			}
		} else {
			if !t.HasEvent || t.Event != ev.Name {
				continue
			}
		}
		ok, err := it.evaluator.EvaluateGuard(t, ev)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// filterInnerFirst drops any transition shadowed by another enabled
// transition rooted in one of its descendants (spec §4.6).
func filterInnerFirst(sc *Statechart, in []*Transition) []*Transition {
	var out []*Transition
	for _, t := range in {
		shadowed := false
		for _, other := range in {
			if other == t {
				continue
			}
			if isStrictDescendant(sc, other.From, t.From) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, t)
		}
	}
	return out
}

func isStrictDescendant(sc *Statechart, candidate, ancestor string) bool {
	for _, a := range sc.AncestorsFor(candidate) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// regionRootFor returns the highest ancestor of from that is a proper
// child of from's outermost orthogonal ancestor — the "region root" of
// spec §4.7 — or "" if from has no orthogonal ancestor.
func regionRootFor(sc *Statechart, from string) string {
	chain := sc.ancestorsOuterToInner(from)
	for i := 1; i < len(chain); i++ {
		if sc.States[chain[i-1]].Kind == Orthogonal {
			return chain[i]
		}
	}
	return ""
}

// sortAndCheckConflicts applies spec §4.7: pairwise LCA-orthogonality,
// region-escape conflict detection, then a deterministic sort.
func sortAndCheckConflicts(sc *Statechart, in []*Transition) ([]*Transition, error) {
	if len(in) <= 1 {
		return in, nil
	}

	var sameSource []*Transition
	for i := 0; i < len(in); i++ {
		for j := i + 1; j < len(in); j++ {
			if in[i].From == in[j].From {
				// Same source: reported as non-determinism only after the
				// region-root check below, so an escaping target is
				// reported as a conflict first.
				if sameSource == nil {
					sameSource = []*Transition{in[i], in[j]}
				}
				continue
			}
			lca := sc.LeastCommonAncestor(in[i].From, in[j].From)
			if lca == "" || sc.States[lca].Kind != Orthogonal {
				return nil, &NonDeterminismError{Transitions: []*Transition{in[i], in[j]}}
			}
		}
	}

	for _, t := range in {
		if t.Internal {
			continue
		}
		regionRoot := regionRootFor(sc, t.From)
		if regionRoot == "" {
			continue
		}
		if t.To != regionRoot && !isStrictDescendant(sc, t.To, regionRoot) {
			return nil, &ConflictError{Transition: t, RegionRoot: regionRoot}
		}
	}
	if sameSource != nil {
		return nil, &NonDeterminismError{Transitions: sameSource}
	}

	sort.SliceStable(in, func(i, j int) bool {
		di, dj := sc.DepthOf(in[i].From), sc.DepthOf(in[j].From)
		if di != dj {
			return di > dj
		}
		return in[i].From < in[j].From
	})
	return in, nil
}

// computeMicroStep builds the entered/exited lists for a selected
// transition (spec §4.8).
func (it *Interpreter) computeMicroStep(t *Transition) (*MicroStep, error) {
	if t.Internal {
		return &MicroStep{Transition: t}, nil
	}

	sc := it.sc
	lca := sc.LeastCommonAncestor(t.From, t.To)
	lastBefore := sc.lastBeforeLCA(t.From, lca)

	var exited []string
	descendants := sc.DescendantsFor(lastBefore)
	for i := len(descendants) - 1; i >= 0; i-- {
		if _, ok := it.configuration[descendants[i]]; ok {
			exited = append(exited, descendants[i])
		}
	}
	if _, ok := it.configuration[lastBefore]; ok {
		exited = append(exited, lastBefore)
	}

	chain := sc.ancestorsOuterToInner(t.To)
	idx := 0
	if lca != "" {
		for i, name := range chain {
			if name == lca {
				idx = i + 1
				break
			}
		}
	}
	entered := append([]string(nil), chain[idx:]...)

	return &MicroStep{Transition: t, Entered: entered, Exited: exited}, nil
}

// executeMicroStep runs the ordered exit/history/action/entry pipeline of
// spec §4.9 and applies the resulting configuration change.
func (it *Interpreter) executeMicroStep(ms *MicroStep, ev *Event) error {
	sc := it.sc

	for _, name := range ms.Exited {
		st := sc.States[name]
		if err := it.evaluator.ExecuteOnExit(st); err != nil {
			return err
		}
		if err := it.checkContract(ContractPostcondition, st, ev, nil); err != nil {
			return err
		}
	}

	for _, name := range ms.Exited {
		st := sc.States[name]
		if st.Kind != Compound {
			continue
		}
		for _, childName := range st.Children {
			child := sc.States[childName]
			if child.Kind != History {
				continue
			}
			var recorded []string
			if child.Deep {
				for _, d := range sc.DescendantsFor(name) {
					if _, ok := it.configuration[d]; ok {
						recorded = append(recorded, d)
					}
				}
			} else {
				for _, c := range st.Children {
					if _, ok := it.configuration[c]; ok {
						recorded = append(recorded, c)
					}
				}
			}
			it.memory[childName] = recorded
		}
	}

	for _, name := range ms.Exited {
		delete(it.configuration, name)
	}

	if ms.Transition != nil && ms.Transition.Action != nil {
		t := ms.Transition
		if err := it.checkContract(ContractPrecondition, t, ev, nil); err != nil {
			return err
		}
		if err := it.checkContract(ContractInvariant, t, ev, nil); err != nil {
			return err
		}
		if err := it.evaluator.ExecuteAction(t, ev); err != nil {
			return err
		}
		if err := it.checkContract(ContractPostcondition, t, ev, nil); err != nil {
			return err
		}
		if err := it.checkContract(ContractInvariant, t, ev, nil); err != nil {
			return err
		}
	}

	for _, name := range ms.Entered {
		st := sc.States[name]
		if err := it.checkContract(ContractPrecondition, st, ev, nil); err != nil {
			return err
		}
		if err := it.evaluator.ExecuteOnEntry(st); err != nil {
			return err
		}
	}
	for _, name := range ms.Entered {
		it.configuration[name] = struct{}{}
	}

	return nil
}

// stabilizeOnce produces the next stabilization MicroStep (spec §4.10), or
// nil if the configuration is already stable.
func (it *Interpreter) stabilizeOnce() (*MicroStep, error) {
	sc := it.sc
	leaves := sc.LeafFor(it.configuration)
	if len(leaves) == 0 {
		return nil, nil
	}

	allFinal := true
	for _, l := range leaves {
		if sc.States[l].Kind != Final {
			allFinal = false
			break
		}
	}
	if allFinal {
		all := sc.SortedConfiguration(it.configuration)
		exited := make([]string, len(all))
		for i, n := range all {
			exited[len(all)-1-i] = n
		}
		return &MicroStep{Exited: exited}, nil
	}

	for _, leafName := range leaves {
		st := sc.States[leafName]
		switch st.Kind {
		case History:
			targets, ok := it.memory[leafName]
			if !ok || len(targets) == 0 {
				targets = []string{st.Initial}
			}
			targets = append([]string(nil), targets...)
			sort.Slice(targets, func(i, j int) bool {
				di, dj := sc.DepthOf(targets[i]), sc.DepthOf(targets[j])
				if di != dj {
					return di < dj
				}
				return targets[i] < targets[j]
			})
			parent := sc.ParentFor(leafName)
			seen := map[string]bool{}
			var entered []string
			for _, target := range targets {
				chain := sc.ancestorsOuterToInner(target)
				idx := 0
				for i, name := range chain {
					if name == parent {
						idx = i + 1
						break
					}
				}
				for _, name := range chain[idx:] {
					if !seen[name] {
						entered = append(entered, name)
						seen[name] = true
					}
				}
			}
			return &MicroStep{Entered: entered, Exited: []string{leafName}}, nil

		case Orthogonal:
			children := append([]string(nil), st.Children...)
			sort.Strings(children)
			return &MicroStep{Entered: children}, nil

		case Compound:
			return &MicroStep{Entered: []string{st.Initial}}, nil

		default:
			continue
		}
	}

	return nil, nil
}

func (it *Interpreter) checkContract(kind ContractKind, obj any, ev *Event, step *MacroStep) error {
	var clauses []string
	var err error
	switch kind {
	case ContractPrecondition:
		clauses, err = it.evaluator.EvaluatePre(obj, ev)
	case ContractPostcondition:
		clauses, err = it.evaluator.EvaluatePost(obj, ev)
	case ContractInvariant:
		clauses, err = it.evaluator.EvaluateInvariants(obj, ev)
	}
	if err != nil {
		return err
	}
	for _, clause := range clauses {
		failure := &ContractFailure{
			Kind:          kind,
			Configuration: it.Configuration(),
			Step:          step,
			Obj:           obj,
			Clause:        clause,
			Context:       it.evaluator.Context(),
		}
		if it.silent {
			it.FailedConditions = append(it.FailedConditions, *failure)
			continue
		}
		switch kind {
		case ContractPrecondition:
			return &PreconditionFailedError{failure}
		case ContractPostcondition:
			return &PostconditionFailedError{failure}
		default:
			return &InvariantFailedError{failure}
		}
	}
	return nil
}
