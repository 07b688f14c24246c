package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadError(t *testing.T, errs []error) *LoadError {
	t.Helper()
	require.Len(t, errs, 1)
	var le *LoadError
	require.True(t, errors.As(errs[0], &le), "got %T", errs[0])
	return le
}

func TestLoadSourcesFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"people.cue": peopleSrc,
		"many.cue": `documents: {
	"a.taxi": {namespace: "a", types: A: inherits: ["String"]}
	"b.taxi": {namespace: "b", types: B: inherits: ["Int"]}
}
`,
	})

	result, errs := LoadSources([]string{filepath.Join(dir, "people.cue"), filepath.Join(dir, "many.cue")})
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Documents, 3)
	assert.Equal(t, "acme", result.Documents[0].Namespace)
	assert.Equal(t, "a.taxi", result.Documents[1].Source)
	assert.Equal(t, "b.taxi", result.Documents[2].Source)
}

func TestLoadSourcesDirectory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.cue":     "package schema\n\ndocuments: \"a.taxi\": {namespace: \"a\", types: A: inherits: [\"String\"]}\n",
		"b.cue":     "package schema\n\ndocuments: \"b.taxi\": {namespace: \"b\", types: B: inherits: [\"a.A\"]}\n",
		"notes.txt": "ignored",
	})

	result, errs := LoadSources([]string{dir})
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Documents, 2)
}

func TestLoadSourcesErrors(t *testing.T) {
	t.Run("no paths", func(t *testing.T) {
		_, errs := LoadSources(nil)
		assert.Equal(t, ErrCodeNoFiles, loadError(t, errs).Code)
	})
	t.Run("missing", func(t *testing.T) {
		_, errs := LoadSources([]string{filepath.Join(t.TempDir(), "nope.cue")})
		assert.Equal(t, ErrCodeNotFound, loadError(t, errs).Code)
	})
	t.Run("empty directory", func(t *testing.T) {
		_, errs := LoadSources([]string{t.TempDir()})
		le := loadError(t, errs)
		assert.Equal(t, ErrCodeNoFiles, le.Code)
		assert.Contains(t, le.Message, "no CUE files found")
	})
	t.Run("cue syntax", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"bad.cue": "types: {\n"})
		le := loadError(t, loadErrs(filepath.Join(dir, "bad.cue")))
		assert.Equal(t, ErrCodeBuildFailed, le.Code)
		assert.True(t, le.Pos.IsValid())
		assert.Contains(t, le.Error(), "bad.cue:")
	})
	t.Run("malformed tree", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"bad.cue": "namespace: 5\n"})
		le := loadError(t, loadErrs(filepath.Join(dir, "bad.cue")))
		assert.Equal(t, ErrCodeDecodeFailed, le.Code)
		assert.Contains(t, le.Message, "namespace")
	})
	t.Run("every path is reported", func(t *testing.T) {
		tmp := t.TempDir()
		_, errs := LoadSources([]string{filepath.Join(tmp, "a.cue"), filepath.Join(tmp, "b.cue")})
		assert.Len(t, errs, 2)
	})
}

// loadErrs returns only the errors of LoadSources.
func loadErrs(paths ...string) []error {
	_, errs := LoadSources(paths)
	return errs
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Code: ErrCodeNotFound, Message: "source not found: x.cue"}
	assert.Equal(t, "E005: source not found: x.cue", err.Error())
}

func TestCompileImportsHelper(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"base.cue":   "namespace: \"base\"\ntypes: Name: inherits: [\"String\"]\n",
		"broken.cue": brokenSrc,
	})

	doc, errs := CompileImports([]string{filepath.Join(dir, "base.cue")})
	require.Empty(t, errs)
	_, ok := doc.Type("base.Name")
	assert.True(t, ok)

	doc, errs = CompileImports([]string{filepath.Join(dir, "broken.cue")})
	assert.Nil(t, doc)
	assert.Equal(t, ErrCodeImportFailed, loadError(t, errs).Code)
}
