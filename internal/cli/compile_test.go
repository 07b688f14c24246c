package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileText(t *testing.T) {
	dir := writeFiles(t, map[string]string{"people.cue": peopleSrc})

	out, _, err := execute(t, "compile", filepath.Join(dir, "people.cue"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 2 type(s), 0 function(s), 0 service(s), 0 query(ies), 0 view(s)")
	assert.Contains(t, out, "  acme.Name (object)\n")
	assert.Contains(t, out, "  acme.Person (object)\n")
	assert.NotContains(t, out, "Warnings:")
}

func TestCompileJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"people.cue": peopleSrc})

	out, _, err := execute(t, "compile", filepath.Join(dir, "people.cue"), "--format", "json")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	doc, ok := data["document"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1", doc["schemaVersion"])
	assert.Len(t, doc["types"], 2)
	assert.NotContains(t, data, "diagnostics")
}

func TestCompileOutputToFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"people.cue": peopleSrc})
	outputFile := filepath.Join(t.TempDir(), "compiled.json")

	out, _, err := execute(t, "compile", filepath.Join(dir, "people.cue"), "--output", outputFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote canonical IR to "+outputFile)

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"schemaVersion":"1","types":[`)
	assert.Contains(t, string(data), `{"fields":[{"name":"name","type":"acme.Name"},{"name":"age","type":"lang.taxi.Int"}],"kind":"object","name":"acme.Person"}`)
}

func TestCompileErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.cue": brokenSrc})

	out, _, err := execute(t, "compile", filepath.Join(dir, "broken.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "Compilation failed with 1 error(s)")

	assert.Contains(t, out, "✗ Compilation failed")
	assert.Contains(t, out, "ERROR NotDefined: ")
	assert.Contains(t, out, "Nmae is not defined")
}

func TestCompileErrorsJSON(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.cue": brokenSrc})

	out, _, err := execute(t, "compile", filepath.Join(dir, "broken.cue"), "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NotDefined", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "Nmae is not defined")
}

func TestCompilePartialWritesDocument(t *testing.T) {
	dir := writeFiles(t, map[string]string{"broken.cue": brokenSrc})
	outputFile := filepath.Join(t.TempDir(), "partial.json")

	_, _, err := execute(t, "compile", filepath.Join(dir, "broken.cue"), "--partial", "--output", outputFile)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	data, err := os.ReadFile(outputFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name":"acme.Person"`)
}

func TestCompileMissingSource(t *testing.T) {
	out, _, err := execute(t, "compile", filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Loading sources failed")
	assert.Contains(t, out, ErrCodeNotFound+": source not found")
}

func TestCompileImports(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"base.cue": `namespace: "base"
types: Name: inherits: ["String"]
`,
		"people.cue": `namespace: "acme"
imports: ["base.Name"]
types: Person: fields: name: "Name"
`,
	})

	t.Run("without import", func(t *testing.T) {
		_, _, err := execute(t, "compile", filepath.Join(dir, "people.cue"))
		require.Error(t, err)
	})
	t.Run("with import", func(t *testing.T) {
		out, _, err := execute(t, "compile", filepath.Join(dir, "people.cue"),
			"--import", filepath.Join(dir, "base.cue"))
		require.NoError(t, err)
		assert.Contains(t, out, "  base.Name (object)\n")
	})
	t.Run("imports must compile", func(t *testing.T) {
		broken := writeFiles(t, map[string]string{"broken.cue": brokenSrc})
		out, _, err := execute(t, "compile", filepath.Join(dir, "people.cue"),
			"--import", filepath.Join(broken, "broken.cue"))
		require.Error(t, err)
		assert.Contains(t, out, ErrCodeImportFailed)
		assert.Contains(t, out, "Nmae is not defined")
	})
}

func TestCompileTypeCheckerFlag(t *testing.T) {
	dir := writeFiles(t, map[string]string{"age.cue": mismatchSrc})
	src := filepath.Join(dir, "age.cue")

	_, _, err := execute(t, "compile", src)
	require.Error(t, err)

	out, _, err := execute(t, "compile", src, "--type-checker", "warning")
	require.NoError(t, err)
	assert.Contains(t, out, "Warnings:")
	assert.Contains(t, out, "WARNING TypeMismatch: Type mismatch. Type of lang.taxi.String is not assignable to type lang.taxi.Int")

	out, _, err = execute(t, "compile", src, "--type-checker", "disabled")
	require.NoError(t, err)
	assert.NotContains(t, out, "Warnings:")

	_, _, err = execute(t, "compile", src, "--type-checker", "loose")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompileConfigDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"taxi.yaml": `sources: [schema]
typeChecker:
  mode: warning
`,
		"schema/people.cue": "package schema\n\ndocuments: \"people.taxi\": {\n" + peopleSrc + "}\n",
		"schema/age.cue":    "package schema\n\ndocuments: \"age.taxi\": {\n" + mismatchSrc + "}\n",
	})

	out, _, err := execute(t, "compile", "--config", filepath.Join(dir, "taxi.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 3 type(s)")
	assert.Contains(t, out, "age.taxi")
	assert.Contains(t, out, "WARNING TypeMismatch")
}

func TestCalculateStats(t *testing.T) {
	assert.Equal(t, CompilationStats{}, calculateStats(nil))
}
