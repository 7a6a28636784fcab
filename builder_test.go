package statecraft_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harelcraft/statecraft"
)

func TestBuilder_BuildsValidStatechart(t *testing.T) {
	sc, err := statecraft.NewBuilder("lamp").
		WithInitial("off").
		AddState(statecraft.NewState("off", statecraft.Atomic)).
		AddState(statecraft.NewState("on", statecraft.Atomic)).
		AddTransition(statecraft.NewTransition("off", "on").WithEvent("flip")).
		AddTransition(statecraft.NewTransition("on", "off").WithEvent("flip")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, "lamp", sc.Name)
	assert.ElementsMatch(t, []string{"off", "on"}, sc.Children)
}

func TestBuilder_AddChildStateNests(t *testing.T) {
	sc, err := statecraft.NewBuilder("nested").
		WithInitial("root").
		AddState(statecraft.NewState("root", statecraft.Compound).WithInitial("s1")).
		AddChildState("root", statecraft.NewState("s1", statecraft.Atomic)).
		AddChildState("root", statecraft.NewState("s2", statecraft.Atomic)).
		AddTransition(statecraft.NewTransition("s1", "s2").WithEvent("go")).
		Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, sc.States["root"].Children)
}

func TestBuilder_BuildPropagatesValidationError(t *testing.T) {
	_, err := statecraft.NewBuilder("broken").
		WithInitial("ghost").
		AddState(statecraft.NewState("off", statecraft.Atomic)).
		Build()
	require.Error(t, err)
}
