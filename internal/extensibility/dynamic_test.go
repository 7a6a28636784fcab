package extensibility_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harelcraft/statecraft"
	"github.com/harelcraft/statecraft/internal/extensibility"
)

func TestDynamic_ActionMutatesContext(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	tr := statecraft.NewTransition("a", "b").WithAction("count = 5")
	require.NoError(t, ev.ExecuteAction(tr, nil))
	assert.EqualValues(t, 5, ev.Context()["count"])
}

func TestDynamic_GuardSeesContext(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	set := statecraft.NewTransition("a", "b").WithAction("count = 5")
	require.NoError(t, ev.ExecuteAction(set, nil))

	guard := statecraft.NewTransition("a", "b").WithGuard("count == 5")
	ok, err := ev.EvaluateGuard(guard, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	falseGuard := statecraft.NewTransition("a", "b").WithGuard("count == 0")
	ok, err = ev.EvaluateGuard(falseGuard, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDynamic_OldSnapshotIsPreActionContext(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	tr := statecraft.NewTransition("a", "b").WithAction("count = 1")
	require.NoError(t, ev.ExecuteAction(tr, nil))

	tr.Action = "count = __old__.count + 1"
	require.NoError(t, ev.ExecuteAction(tr, nil))
	assert.EqualValues(t, 2, ev.Context()["count"])
}

func TestDynamic_EventVisibleToActionAndGuard(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	e := statecraft.NewEvent("go", map[string]any{"n": 3})
	tr := statecraft.NewTransition("a", "b").WithAction("n = event.data.n")
	require.NoError(t, ev.ExecuteAction(tr, &e))
	assert.EqualValues(t, 3, ev.Context()["n"])
}

func TestDynamic_OnEntryRunsStatePreambleAndStateActions(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	sc := statecraft.NewStatechart("x")
	sc.Preamble = "x = 1"
	require.NoError(t, ev.ExecuteOnEntry(sc))
	assert.EqualValues(t, 1, ev.Context()["x"])

	st := statecraft.NewState("s", statecraft.Atomic).WithOnEntry("x = x + 1").WithOnExit("x = x - 1")
	require.NoError(t, ev.ExecuteOnEntry(st))
	assert.EqualValues(t, 2, ev.Context()["x"])
	require.NoError(t, ev.ExecuteOnExit(st))
	assert.EqualValues(t, 1, ev.Context()["x"])
}

func TestDynamic_ContractClausesReportUnsatisfied(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	tr := statecraft.NewTransition("a", "b").WithAction("count = 0")
	require.NoError(t, ev.ExecuteAction(tr, nil))

	st := statecraft.NewState("a", statecraft.Atomic).WithContracts(nil, nil, []string{"count > 0"})
	unsatisfied, err := ev.EvaluatePost(st, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"count > 0"}, unsatisfied)

	satisfied := statecraft.NewState("a", statecraft.Atomic).WithContracts(nil, nil, []string{"count == 0"})
	unsatisfied, err = ev.EvaluatePost(satisfied, nil)
	require.NoError(t, err)
	assert.Empty(t, unsatisfied)
}

func TestDynamic_GuardSyntaxErrorPropagates(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	tr := statecraft.NewTransition("a", "b").WithGuard("this is not ) valid js (")
	_, err := ev.EvaluateGuard(tr, nil)
	require.Error(t, err)
	var evalErr *statecraft.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestDynamic_NonStringGuardIsEvaluationError(t *testing.T) {
	ev := extensibility.NewDynamic(nil)
	tr := statecraft.NewTransition("a", "b").WithGuard(42)
	_, err := ev.EvaluateGuard(tr, nil)
	require.Error(t, err)
	var evalErr *statecraft.EvaluationError
	require.ErrorAs(t, err, &evalErr)
}

func TestDynamic_SetVariableBypassesEvaluation(t *testing.T) {
	d, ok := extensibility.NewDynamic(nil).(*extensibility.Dynamic)
	require.True(t, ok)
	require.NoError(t, d.SetVariable("flag", true))
	assert.Equal(t, true, d.Context()["flag"])
}
