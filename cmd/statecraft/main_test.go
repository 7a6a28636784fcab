package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_ValidateKnownSample(t *testing.T) {
	out, err := runCLI(t, "validate", "light")
	require.NoError(t, err)
	assert.Contains(t, out, "light: valid")
}

func TestCLI_ValidateUnknownSample(t *testing.T) {
	_, err := runCLI(t, "validate", "ghost")
	require.Error(t, err)
}

func TestCLI_ExecuteLightPrintsTransition(t *testing.T) {
	out, err := runCLI(t, "execute", "light", "--events", "switch")
	require.NoError(t, err)
	assert.Contains(t, out, "off -> on")
}

func TestCLI_ExecuteWithLevelPrintsConfiguration(t *testing.T) {
	out, err := runCLI(t, "execute", "light", "--events", "switch", "--level", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "event=switch")
	assert.Contains(t, out, "configuration=")
}

func TestCLI_TestRequiresTestsFlag(t *testing.T) {
	_, err := runCLI(t, "test", "light")
	require.Error(t, err)
}

func TestCLI_TestRunsHarnessToCompletion(t *testing.T) {
	out, err := runCLI(t, "test", "light", "--tests", "light", "--events", "switch")
	require.NoError(t, err)
	assert.Contains(t, out, "All tests passed")
}
