package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harelcraft/statecraft/internal/extensibility"
)

func TestParseEventWire_NameOnly(t *testing.T) {
	ev, err := parseEventWire("flip")
	require.NoError(t, err)
	assert.Equal(t, "flip", ev.Name)
	assert.Empty(t, ev.Data)
}

func TestParseEventWire_WithTypedValues(t *testing.T) {
	ev, err := parseEventWire("move:floor=3:express=true:label=up")
	require.NoError(t, err)
	assert.Equal(t, "move", ev.Name)
	assert.EqualValues(t, 3, ev.Data["floor"])
	assert.Equal(t, true, ev.Data["express"])
	assert.Equal(t, "up", ev.Data["label"])
}

func TestParseEventWire_EmptyNameErrors(t *testing.T) {
	_, err := parseEventWire(":k=v")
	require.Error(t, err)
}

func TestParseEventWire_MalformedPairErrors(t *testing.T) {
	_, err := parseEventWire("flip:noequalssign")
	require.Error(t, err)
}

func TestEvaluatorFactory_SelectsImplementation(t *testing.T) {
	noCode := evaluatorFactory(true)(nil)
	_, ok := noCode.(*extensibility.NoCode)
	assert.True(t, ok)

	dynamic := evaluatorFactory(false)(nil)
	_, ok = dynamic.(*extensibility.Dynamic)
	assert.True(t, ok)
}
