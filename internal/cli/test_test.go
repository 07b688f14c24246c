package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioDir(t *testing.T) string {
	t.Helper()
	return writeFiles(t, map[string]string{
		"people.cue": peopleSrc,
		"people.yaml": `name: people
description: "Models compile"
sources: [people.cue]
assertions:
  - type: no_errors
  - type: field_type
    name: acme.Person
    field: name
    expect: acme.Name
`,
		"wrong.yaml": `name: wrong
description: "Expects an error that is not reported"
sources: [people.cue]
assertions:
  - type: error_count
    count: 1
`,
	})
}

func TestTestCommand(t *testing.T) {
	out, _, err := execute(t, "test", scenarioDir(t))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✓ people\n")
	assert.Contains(t, out, "✗ wrong\n")
	assert.Contains(t, out, "  Assertion failed: error_count\n")
	assert.Contains(t, out, "  Expected: 1 errors\n")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(t, "test", scenarioDir(t), "--filter", "peo*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ people\n")
	assert.NotContains(t, out, "wrong")
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")

	_, _, err = execute(t, "test", scenarioDir(t), "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandJSON(t *testing.T) {
	out, _, err := execute(t, "test", scenarioDir(t), "--format", "json")
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, ScenarioResult{Name: "people", Pass: true}, resp.Data.Scenarios[0])
	assert.Equal(t, "wrong", resp.Data.Scenarios[1].Name)
	assert.False(t, resp.Data.Scenarios[1].Pass)
	assert.Len(t, resp.Data.Scenarios[1].Errors, 1)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"typo.yaml": `name: typo
description: "Unknown key"
sources: [missing.cue]
assertion: []
`,
	})

	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ typo\n")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandNoScenarios(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	out, _, err := execute(t, "test", dir)
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommandMissingDir(t *testing.T) {
	_, _, err := execute(t, "test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"cart-add.yaml", "cart-remove.yml", "order.yaml", "ignore.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(""), 0644))
	}

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(dir, "cart-*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "cart-add.yaml"),
		filepath.Join(dir, "cart-remove.yml"),
	}, files)
}
