// Package bdd implements a small Gherkin-flavored step vocabulary for
// driving an Interpreter from plain-text scenarios — a supplemented
// feature ported from sismic's testing/steps.py Behave step library, since
// no Gherkin runner is available in this module's dependency corpus.
package bdd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/harelcraft/statecraft"
)

// AssertionError reports a failed "Then" step.
type AssertionError struct {
	Step string
	Msg  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("bdd: assertion failed at %q: %s", e.Step, e.Msg)
}

// ContextWriter is implemented by evaluators that support direct writes
// into extended state, used by the "I set variable" step.
type ContextWriter interface {
	SetVariable(name string, value any) error
}

// Scenario is a named, ordered list of Gherkin-style step lines, usable as
// the target of an "I reproduce" step.
type Scenario struct {
	Name  string
	Steps []string
}

type stepDef struct {
	pattern *regexp.Regexp
	run     func(r *Runner, args []string) error
}

// Runner executes step lines against a bound Interpreter, tracking fired
// events for the "event ... should be fired" family of assertions.
type Runner struct {
	it        *statecraft.Interpreter
	auto      bool
	Fired     []statecraft.Event
	scenarios map[string]*Scenario
	custom    []stepDef
	builtin   []stepDef
}

// NewRunner builds a Runner bound to it, with automatic execution enabled
// (every action step is followed by draining the interpreter).
func NewRunner(it *statecraft.Interpreter) *Runner {
	r := &Runner{
		it:        it,
		auto:      true,
		scenarios: map[string]*Scenario{},
	}
	it.AddObserver(r.observe)
	r.builtin = r.builtinSteps()
	return r
}

func (r *Runner) observe(ms *statecraft.MacroStep) {
	if ev := ms.Event(); ev != nil && len(ms.Transitions()) > 0 {
		r.Fired = append(r.Fired, *ev)
	}
}

// RegisterScenario makes s available to "I reproduce" steps by name.
func (r *Runner) RegisterScenario(s *Scenario) {
	r.scenarios[s.Name] = s
}

// MapAction registers a custom action step pattern, checked before the
// built-in vocabulary (spec's map_action aliasing).
func (r *Runner) MapAction(pattern string, fn func(r *Runner, args []string) error) error {
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return fmt.Errorf("bdd: invalid action pattern %q: %w", pattern, err)
	}
	r.custom = append(r.custom, stepDef{pattern: re, run: fn})
	return nil
}

// MapAssertion registers a custom assertion step pattern (spec's
// map_assertion aliasing). It is indistinguishable from MapAction at
// dispatch time; the distinction is purely documentary for callers.
func (r *Runner) MapAssertion(pattern string, fn func(r *Runner, args []string) error) error {
	return r.MapAction(pattern, fn)
}

// SetAutomaticExecution toggles whether action steps drain the interpreter
// automatically after enqueuing an event or advancing the clock.
func (r *Runner) SetAutomaticExecution(auto bool) { r.auto = auto }

func stripKeyword(step string) string {
	step = strings.TrimSpace(step)
	for _, kw := range []string{"Given ", "When ", "Then ", "And ", "But "} {
		if strings.HasPrefix(step, kw) {
			return strings.TrimSpace(strings.TrimPrefix(step, kw))
		}
	}
	return step
}

// Run dispatches a single step line (with or without its Gherkin keyword)
// against the bound interpreter.
func (r *Runner) Run(step string) error {
	body := stripKeyword(step)
	for _, defs := range [][]stepDef{r.custom, r.builtin} {
		for _, d := range defs {
			if m := d.pattern.FindStringSubmatch(body); m != nil {
				return d.run(r, m[1:])
			}
		}
	}
	return fmt.Errorf("bdd: no step definition matches %q", step)
}

// RunAll runs each line of steps in order, stopping at the first error.
func (r *Runner) RunAll(steps []string) error {
	for _, s := range steps {
		if err := r.Run(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) drain() error {
	if !r.auto {
		return nil
	}
	_, err := r.it.Execute(-1)
	return err
}

// valuesEqual compares two step-parsed or context values, treating any
// combination of int64/float64 as numerically comparable: goja may export a
// given number as either depending on whether it stayed integral, and a
// literal parsed from step text is always one or the other.
func valuesEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func parseLiteral(s string) any {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func (r *Runner) builtinSteps() []stepDef {
	return []stepDef{
		{regexp.MustCompile(`^I do nothing$`), func(r *Runner, _ []string) error { return nil }},

		{regexp.MustCompile(`^I reproduce "(.+)"$`), func(r *Runner, a []string) error {
			s, ok := r.scenarios[a[0]]
			if !ok {
				return fmt.Errorf("bdd: unknown scenario %q", a[0])
			}
			return r.RunAll(s.Steps)
		}},

		{regexp.MustCompile(`^I repeat step "(.+)" (\d+) times$`), func(r *Runner, a []string) error {
			n, err := strconv.Atoi(a[1])
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if err := r.Run(a[0]); err != nil {
					return err
				}
			}
			return nil
		}},

		{regexp.MustCompile(`^I disable automatic execution$`), func(r *Runner, _ []string) error {
			r.auto = false
			return nil
		}},

		{regexp.MustCompile(`^I enable automatic execution$`), func(r *Runner, _ []string) error {
			r.auto = true
			return nil
		}},

		{regexp.MustCompile(`^I execute the statechart$`), func(r *Runner, _ []string) error {
			_, err := r.it.Execute(-1)
			return err
		}},

		{regexp.MustCompile(`^I execute once the statechart$`), func(r *Runner, _ []string) error {
			_, err := r.it.ExecuteOnce()
			return err
		}},

		{regexp.MustCompile(`^I send event (\S+) with (\S+)=(.+)$`), func(r *Runner, a []string) error {
			r.it.Send(statecraft.NewEvent(a[0], map[string]any{a[1]: parseLiteral(a[2])}), false)
			return r.drain()
		}},

		{regexp.MustCompile(`^I send event (\S+)$`), func(r *Runner, a []string) error {
			r.it.Send(statecraft.NewEvent(a[0], nil), false)
			return r.drain()
		}},

		{regexp.MustCompile(`^I wait ([0-9.]+) seconds? (\d+) times$`), func(r *Runner, a []string) error {
			seconds, err := strconv.ParseFloat(a[0], 64)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(a[1])
			if err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				if err := r.it.Clock().SetTime(r.it.Time() + seconds); err != nil {
					return err
				}
				if err := r.drain(); err != nil {
					return err
				}
			}
			return nil
		}},

		{regexp.MustCompile(`^I wait ([0-9.]+) seconds?$`), func(r *Runner, a []string) error {
			seconds, err := strconv.ParseFloat(a[0], 64)
			if err != nil {
				return err
			}
			if err := r.it.Clock().SetTime(r.it.Time() + seconds); err != nil {
				return err
			}
			return r.drain()
		}},

		{regexp.MustCompile(`^I set variable (\S+) to (.+)$`), func(r *Runner, a []string) error {
			w, ok := r.it.Evaluator().(ContextWriter)
			if !ok {
				return fmt.Errorf("bdd: evaluator %T does not support setting variables", r.it.Evaluator())
			}
			return w.SetVariable(a[0], parseLiteral(a[1]))
		}},

		{regexp.MustCompile(`^state (\S+) should be active$`), func(r *Runner, a []string) error {
			return r.assertActive(a[0], true)
		}},
		{regexp.MustCompile(`^state (\S+) should not be active$`), func(r *Runner, a []string) error {
			return r.assertActive(a[0], false)
		}},

		{regexp.MustCompile(`^event (\S+) should be fired with (\S+)=(.+)$`), func(r *Runner, a []string) error {
			want := parseLiteral(a[2])
			for _, ev := range r.Fired {
				if ev.Name != a[0] {
					continue
				}
				if v, ok := ev.Data[a[1]]; ok && valuesEqual(v, want) {
					return nil
				}
			}
			return &AssertionError{Step: "event fired", Msg: fmt.Sprintf("no matching event %s with %s=%v", a[0], a[1], want)}
		}},
		{regexp.MustCompile(`^event (\S+) should be fired$`), func(r *Runner, a []string) error {
			for _, ev := range r.Fired {
				if ev.Name == a[0] {
					return nil
				}
			}
			return &AssertionError{Step: "event fired", Msg: fmt.Sprintf("event %s was not fired", a[0])}
		}},
		{regexp.MustCompile(`^event (\S+) should not be fired$`), func(r *Runner, a []string) error {
			for _, ev := range r.Fired {
				if ev.Name == a[0] {
					return &AssertionError{Step: "event not fired", Msg: fmt.Sprintf("event %s was fired", a[0])}
				}
			}
			return nil
		}},
		{regexp.MustCompile(`^no event should be fired$`), func(r *Runner, _ []string) error {
			if len(r.Fired) != 0 {
				return &AssertionError{Step: "no event fired", Msg: fmt.Sprintf("%d events fired", len(r.Fired))}
			}
			return nil
		}},

		{regexp.MustCompile(`^variable (\S+) should be defined$`), func(r *Runner, a []string) error {
			if _, ok := r.it.Evaluator().Context()[a[0]]; !ok {
				return &AssertionError{Step: "variable defined", Msg: fmt.Sprintf("%s is not defined", a[0])}
			}
			return nil
		}},

		{regexp.MustCompile(`^the value of (\S+) should be (.+)$`), func(r *Runner, a []string) error {
			v, ok := r.it.Evaluator().Context()[a[0]]
			if !ok {
				return &AssertionError{Step: "value", Msg: fmt.Sprintf("%s is not defined", a[0])}
			}
			want := parseLiteral(a[1])
			if !valuesEqual(v, want) {
				return &AssertionError{Step: "value", Msg: fmt.Sprintf("%s = %v, want %v", a[0], v, want)}
			}
			return nil
		}},

		{regexp.MustCompile(`^expression (.+) should hold$`), func(r *Runner, a []string) error {
			probe := &statecraft.Transition{Guard: a[0]}
			ok, err := r.it.Evaluator().EvaluateGuard(probe, nil)
			if err != nil {
				return err
			}
			if !ok {
				return &AssertionError{Step: "expression holds", Msg: fmt.Sprintf("%s does not hold", a[0])}
			}
			return nil
		}},

		{regexp.MustCompile(`^the statechart is in a final configuration$`), func(r *Runner, _ []string) error {
			if r.it.Running() {
				return &AssertionError{Step: "final configuration", Msg: fmt.Sprintf("not final: %v", r.it.Configuration())}
			}
			return nil
		}},
	}
}

func (r *Runner) assertActive(name string, want bool) error {
	if _, ok := r.it.Statechart().States[name]; !ok {
		return fmt.Errorf("bdd: unknown state %q", name)
	}
	active := false
	for _, n := range r.it.Configuration() {
		if n == name {
			active = true
			break
		}
	}
	if active != want {
		verb := "is not active"
		if active {
			verb = "is active"
		}
		return &AssertionError{Step: "state active", Msg: fmt.Sprintf("state %s %s", name, verb)}
	}
	return nil
}
