package harness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/diag"
)

func runScenario(t *testing.T, name string) *Result {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	result, err := Run(scenario)
	require.NoError(t, err)
	return result
}

func TestRun_Imports(t *testing.T) {
	result := runScenario(t, "people")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NotNil(t, result.Document)
	assert.Empty(t, result.Diagnostics)
}

func TestRun_PartialDocumentKeepsDiagnostics(t *testing.T) {
	result := runScenario(t, "broken")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	require.NotNil(t, result.Document, "partial documents survive errors")
	assert.Len(t, result.Diagnostics.WithCode(diag.NotDefined), 1)
}

func TestRun_ViewRows(t *testing.T) {
	result := runScenario(t, "shop")

	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailingAssertions(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "people.yaml"))
	require.NoError(t, err)
	scenario.Assertions = []Assertion{
		{Type: AssertErrorCount, Count: 1},
		{Type: AssertTypeExists, Name: "acme.Missing"},
		{Type: AssertTypeExists, Name: "acme.Country", Kind: "object"},
		{Type: AssertFieldType, Name: "acme.Person", Field: "age", Expect: "lang.taxi.Int"},
		{Type: AssertFieldType, Name: "acme.Person", Field: "height", Expect: "lang.taxi.Int"},
		{Type: AssertBasePrimitive, Name: "acme.Person", Expect: "lang.taxi.String"},
		{Type: AssertDiagnostic, Code: "NotDefined"},
		{Type: AssertViewRows, Name: "acme.Nothing"},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 8)
	assert.Contains(t, result.Errors[0], "Expected: 1 errors")
	assert.Contains(t, result.Errors[1], "type acme.Missing")
	assert.Contains(t, result.Errors[2], "Actual: kind enum")
	assert.Contains(t, result.Errors[3], "Actual: acme.Age")
	assert.Contains(t, result.Errors[4], "field acme.Person.height")
	assert.Contains(t, result.Errors[5], "Actual: <none>")
	assert.Contains(t, result.Errors[6], "Assertion failed: diagnostic")
	assert.Contains(t, result.Errors[7], "view_rows requires scenario data")
}

func TestRun_ImportsMustCompile(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "people.yaml"))
	require.NoError(t, err)
	scenario.Imports = []string{filepath.Join("testdata", "scenarios", "broken.cue")}

	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile imports")
}

func TestRunSuite(t *testing.T) {
	paths, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	require.Len(t, paths, 4)

	result := New(nil).RunSuite(context.Background(), append(paths, "testdata/scenarios/missing.yaml"))

	assert.Equal(t, 5, result.TotalScenarios)
	assert.Equal(t, 4, result.Passed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "testdata/scenarios/missing.yaml", result.Failures[0].ScenarioPath)
	assert.Contains(t, result.Failures[0].Errors[0], "failed to load scenario")
}
