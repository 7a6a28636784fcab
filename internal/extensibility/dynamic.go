package extensibility

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/harelcraft/statecraft"
)

// Dynamic is the concrete dynamic-expression Evaluator the core treats as a
// pluggable collaborator (spec §4.2, §9). Guards, actions, preambles and
// contract clauses are JavaScript-subset source strings run through goja
// against a shared, mutable extended-state context.
//
// Snapshots for __old__ are shallow copies of the context, captured before
// a state's entry action or a transition's action runs, and keyed by the
// entity's own pointer identity — stable for the lifetime of an immutable
// Statechart. No index is assigned to states or transitions for this.
type Dynamic struct {
	vm  *goja.Runtime
	ctx map[string]any
	old map[any]map[string]any
}

// NewDynamic builds a Dynamic evaluator. It matches statecraft.EvaluatorFactory
// so it can be passed directly to NewInterpreter.
func NewDynamic(_ *statecraft.Interpreter) statecraft.Evaluator {
	return &Dynamic{
		vm:  goja.New(),
		ctx: map[string]any{},
		old: map[any]map[string]any{},
	}
}

func (d *Dynamic) Context() map[string]any {
	out := make(map[string]any, len(d.ctx))
	for k, v := range d.ctx {
		out[k] = v
	}
	return out
}

// SetVariable writes a value directly into the extended state, bypassing
// guard/action evaluation. It implements bdd.ContextWriter so BDD step
// definitions like "I set variable x to 4" can reach into a running
// interpreter's context.
func (d *Dynamic) SetVariable(name string, value any) error {
	d.ctx[name] = value
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (d *Dynamic) pushContext(ev *statecraft.Event, old map[string]any) {
	for k, v := range d.ctx {
		_ = d.vm.Set(k, v)
	}
	if ev != nil {
		_ = d.vm.Set("event", map[string]any{"name": ev.Name, "data": ev.Data})
	} else {
		_ = d.vm.Set("event", nil)
	}
	if old != nil {
		_ = d.vm.Set("__old__", old)
	}
}

var builtinGlobals = map[string]bool{
	"Object": true, "Function": true, "Array": true, "String": true, "Number": true,
	"Boolean": true, "RegExp": true, "Date": true, "Error": true, "Math": true, "JSON": true,
	"console": true, "undefined": true, "NaN": true, "Infinity": true, "eval": true,
	"parseInt": true, "parseFloat": true, "isNaN": true, "isFinite": true,
	"TypeError": true, "RangeError": true, "SyntaxError": true, "ReferenceError": true,
	"EvalError": true, "URIError": true, "Symbol": true, "Promise": true, "Proxy": true,
	"Reflect": true, "WeakMap": true, "WeakSet": true, "Map": true, "Set": true,
	"event": true, "__old__": true,
}

func (d *Dynamic) pullContext() {
	g := d.vm.GlobalObject()
	for _, k := range g.Keys() {
		if builtinGlobals[k] {
			continue
		}
		d.ctx[k] = g.Get(k).Export()
	}
}

func asCode(ref any, kind string) (string, error) {
	code, ok := ref.(string)
	if !ok {
		return "", fmt.Errorf("%s reference is not a string expression: %T", kind, ref)
	}
	return code, nil
}

func (d *Dynamic) EvaluateGuard(t *statecraft.Transition, ev *statecraft.Event) (bool, error) {
	if t.Guard == nil {
		return true, nil
	}
	code, err := asCode(t.Guard, "guard")
	if err != nil {
		return false, &statecraft.EvaluationError{Obj: t, Cause: err}
	}
	d.pushContext(ev, d.old[t])
	v, err := d.vm.RunString(code)
	if err != nil {
		return false, &statecraft.EvaluationError{Obj: t, Cause: err}
	}
	return v.ToBoolean(), nil
}

func (d *Dynamic) ExecuteAction(t *statecraft.Transition, ev *statecraft.Event) error {
	if t.Action == nil {
		return nil
	}
	code, err := asCode(t.Action, "action")
	if err != nil {
		return &statecraft.EvaluationError{Obj: t, Cause: err}
	}
	d.old[t] = cloneMap(d.ctx)
	d.pushContext(ev, d.old[t])
	if _, err := d.vm.RunString(code); err != nil {
		return &statecraft.EvaluationError{Obj: t, Cause: err}
	}
	d.pullContext()
	return nil
}

func (d *Dynamic) runLifecycle(obj any, ref any) error {
	if ref == nil {
		return nil
	}
	code, err := asCode(ref, "onentry/onexit")
	if err != nil {
		return &statecraft.EvaluationError{Obj: obj, Cause: err}
	}
	d.old[obj] = cloneMap(d.ctx)
	d.pushContext(nil, d.old[obj])
	if _, err := d.vm.RunString(code); err != nil {
		return &statecraft.EvaluationError{Obj: obj, Cause: err}
	}
	d.pullContext()
	return nil
}

func (d *Dynamic) ExecuteOnEntry(obj any) error {
	switch v := obj.(type) {
	case *statecraft.State:
		return d.runLifecycle(obj, v.OnEntry)
	case *statecraft.Statechart:
		return d.runLifecycle(obj, v.Preamble)
	}
	return nil
}

func (d *Dynamic) ExecuteOnExit(obj any) error {
	if v, ok := obj.(*statecraft.State); ok {
		return d.runLifecycle(obj, v.OnExit)
	}
	return nil
}

func clausesOf(obj any, kind string) []string {
	switch v := obj.(type) {
	case *statecraft.State:
		switch kind {
		case "pre":
			return v.Pre
		case "post":
			return v.Post
		default:
			return v.Inv
		}
	case *statecraft.Transition:
		switch kind {
		case "pre":
			return v.Pre
		case "post":
			return v.Post
		default:
			return v.Inv
		}
	case *statecraft.Statechart:
		switch kind {
		case "pre":
			return v.Pre
		case "post":
			return v.Post
		default:
			return v.Inv
		}
	}
	return nil
}

func (d *Dynamic) evaluateClauses(obj any, ev *statecraft.Event, kind string) ([]string, error) {
	clauses := clausesOf(obj, kind)
	if len(clauses) == 0 {
		return nil, nil
	}
	var unsatisfied []string
	for _, clause := range clauses {
		d.pushContext(ev, d.old[obj])
		v, err := d.vm.RunString(clause)
		if err != nil {
			return nil, &statecraft.EvaluationError{Obj: obj, Cause: err}
		}
		if !v.ToBoolean() {
			unsatisfied = append(unsatisfied, clause)
		}
	}
	return unsatisfied, nil
}

func (d *Dynamic) EvaluatePre(obj any, ev *statecraft.Event) ([]string, error) {
	return d.evaluateClauses(obj, ev, "pre")
}

func (d *Dynamic) EvaluatePost(obj any, ev *statecraft.Event) ([]string, error) {
	return d.evaluateClauses(obj, ev, "post")
}

func (d *Dynamic) EvaluateInvariants(obj any, ev *statecraft.Event) ([]string, error) {
	return d.evaluateClauses(obj, ev, "inv")
}
