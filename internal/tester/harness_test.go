package tester_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harelcraft/statecraft"
	"github.com/harelcraft/statecraft/internal/extensibility"
	"github.com/harelcraft/statecraft/internal/tester"
)

// assertingEvaluator is a minimal statecraft.Evaluator test double: its
// guards observe the step/start/stop events a tester receives and fail
// (by raising, not by returning false) when the supplied predicate is
// unmet, mirroring a BDD assertion step without going through goja.
type assertingEvaluator struct {
	onStep func(sc *tester.StepContext) error
	seen   []string
}

func (a *assertingEvaluator) Context() map[string]any { return map[string]any{} }

func (a *assertingEvaluator) EvaluateGuard(t *statecraft.Transition, ev *statecraft.Event) (bool, error) {
	a.seen = append(a.seen, t.Event)
	if t.Event == "step" && a.onStep != nil {
		sc, _ := ev.Data["step"].(*tester.StepContext)
		if err := a.onStep(sc); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (a *assertingEvaluator) ExecuteAction(*statecraft.Transition, *statecraft.Event) error { return nil }
func (a *assertingEvaluator) ExecuteOnEntry(any) error                                      { return nil }
func (a *assertingEvaluator) ExecuteOnExit(any) error                                       { return nil }
func (a *assertingEvaluator) EvaluatePre(any, *statecraft.Event) ([]string, error)           { return nil, nil }
func (a *assertingEvaluator) EvaluatePost(any, *statecraft.Event) ([]string, error)          { return nil, nil }
func (a *assertingEvaluator) EvaluateInvariants(any, *statecraft.Event) ([]string, error)    { return nil, nil }

func buildTesterChart(t *testing.T) *statecraft.Statechart {
	t.Helper()
	sc := statecraft.NewStatechart("watcher")
	sc.Initial = "root"
	sc.Children = []string{"root"}
	sc.States["root"] = statecraft.NewState("root", statecraft.Compound).WithInitial("watching").WithChildren("watching")
	sc.States["watching"] = statecraft.NewState("watching", statecraft.Atomic)
	sc.Transitions = []*statecraft.Transition{
		statecraft.NewTransition("watching", "").AsInternal().WithEvent("start"),
		statecraft.NewTransition("watching", "").AsInternal().WithEvent("step"),
		statecraft.NewTransition("watching", "").AsInternal().WithEvent("stop"),
	}
	require.NoError(t, sc.Validate())
	return sc
}

func buildSUTChart(t *testing.T) *statecraft.Statechart {
	t.Helper()
	sc := statecraft.NewStatechart("toggle")
	sc.Initial = "root"
	sc.Children = []string{"root"}
	sc.States["root"] = statecraft.NewState("root", statecraft.Compound).WithInitial("off").WithChildren("off", "on")
	sc.States["off"] = statecraft.NewState("off", statecraft.Atomic)
	sc.States["on"] = statecraft.NewState("on", statecraft.Atomic)
	sc.Transitions = []*statecraft.Transition{
		statecraft.NewTransition("off", "on").WithEvent("flip"),
	}
	require.NoError(t, sc.Validate())
	return sc
}

func TestHarness_InjectsStartStepStop(t *testing.T) {
	sutChart := buildSUTChart(t)
	sut, err := statecraft.NewInterpreter(sutChart, extensibility.NewNoCode)
	require.NoError(t, err)

	fake := &assertingEvaluator{}
	testerChart := buildTesterChart(t)
	testerIt, err := statecraft.NewInterpreter(testerChart, func(*statecraft.Interpreter) statecraft.Evaluator { return fake })
	require.NoError(t, err)

	h, err := tester.NewHarness(sut, testerIt)
	require.NoError(t, err)
	assert.Equal(t, []string{"start"}, fake.seen)

	sut.Send(statecraft.NewEvent("flip", nil), false)
	_, err = h.ExecuteOnce()
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "step"}, fake.seen)

	require.NoError(t, h.Stop())
	assert.Equal(t, []string{"start", "step", "stop"}, fake.seen)
}

func TestHarness_StepContextReflectsObservedStep(t *testing.T) {
	sutChart := buildSUTChart(t)
	sut, err := statecraft.NewInterpreter(sutChart, extensibility.NewNoCode)
	require.NoError(t, err)

	var captured *tester.StepContext
	fake := &assertingEvaluator{onStep: func(sc *tester.StepContext) error {
		captured = sc
		return nil
	}}
	testerChart := buildTesterChart(t)
	testerIt, err := statecraft.NewInterpreter(testerChart, func(*statecraft.Interpreter) statecraft.Evaluator { return fake })
	require.NoError(t, err)

	h, err := tester.NewHarness(sut, testerIt)
	require.NoError(t, err)

	sut.Send(statecraft.NewEvent("flip", nil), false)
	_, err = h.ExecuteOnce()
	require.NoError(t, err)

	require.NotNil(t, captured)
	assert.True(t, captured.Entered("on"))
	assert.True(t, captured.Exited("off"))
	assert.True(t, captured.Active("on"))
	assert.False(t, captured.Active("off"))
	assert.True(t, captured.Processed("flip"))
	assert.True(t, captured.Consumed("flip"))
}

func TestHarness_FailedAssertionWrapsIntoTesterAssertionError(t *testing.T) {
	sutChart := buildSUTChart(t)
	sut, err := statecraft.NewInterpreter(sutChart, extensibility.NewNoCode)
	require.NoError(t, err)

	boom := errors.New("expected off to stay active")
	fake := &assertingEvaluator{onStep: func(sc *tester.StepContext) error {
		if sc.Active("on") {
			return boom
		}
		return nil
	}}
	testerChart := buildTesterChart(t)
	testerIt, err := statecraft.NewInterpreter(testerChart, func(*statecraft.Interpreter) statecraft.Evaluator { return fake })
	require.NoError(t, err)

	h, err := tester.NewHarness(sut, testerIt)
	require.NoError(t, err)

	sut.Send(statecraft.NewEvent("flip", nil), false)
	_, err = h.ExecuteOnce()
	require.Error(t, err)

	var taErr *statecraft.TesterAssertionError
	require.ErrorAs(t, err, &taErr)
	assert.Equal(t, h.SessionID.String(), taErr.SessionID)
	assert.ErrorIs(t, taErr, boom)
	assert.Equal(t, []string{"root", "on"}, taErr.TestedConfiguration)
}

func TestHarness_ExecuteStopsWhenSUTStopsRunning(t *testing.T) {
	sc := statecraft.NewStatechart("finishes")
	sc.Initial = "root"
	sc.Children = []string{"root"}
	sc.States["root"] = statecraft.NewState("root", statecraft.Compound).WithInitial("s1").WithChildren("s1", "done")
	sc.States["s1"] = statecraft.NewState("s1", statecraft.Atomic)
	sc.States["done"] = statecraft.NewState("done", statecraft.Final)
	sc.Transitions = []*statecraft.Transition{statecraft.NewTransition("s1", "done").WithEvent("finish")}
	require.NoError(t, sc.Validate())

	sut, err := statecraft.NewInterpreter(sc, extensibility.NewNoCode)
	require.NoError(t, err)
	sut.Send(statecraft.NewEvent("finish", nil), false)

	h, err := tester.NewHarness(sut)
	require.NoError(t, err)
	steps, err := h.Execute(-1)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
	assert.False(t, sut.Running())
}
