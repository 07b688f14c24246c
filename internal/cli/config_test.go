package cli

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"taxi.yaml": `sources: [src, /abs/schema.cue]
imports: [../shared]
typeChecker:
  mode: warning
maxDepth: 64
partial: true
`,
	})
	path := filepath.Join(dir, "taxi.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "src"), "/abs/schema.cue"}, cfg.Sources)
	assert.Equal(t, []string{filepath.Join(dir, "..", "shared")}, cfg.Imports)
	assert.Equal(t, "warning", cfg.TypeChecker.Mode)
	assert.Equal(t, 64, cfg.MaxDepth)
	assert.True(t, cfg.Partial)
	assert.Equal(t, path, cfg.Path())

	opts, err := cfg.CompilerOptions(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 4)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"unknown key", "typechecker: {mode: warning}\n", "field typechecker not found"},
		{"bad mode", "typeChecker: {mode: loose}\n", `typeChecker.mode: unknown type checker mode "loose"`},
		{"negative depth", "maxDepth: -1\n", "maxDepth must be non-negative"},
		{"not yaml", "sources: [\n", "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"taxi.yaml": tt.content})
			_, err := LoadConfig(filepath.Join(dir, "taxi.yaml"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "taxi.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestResolveConfig(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"taxi.yaml":  "maxDepth: 8\n",
		"people.cue": peopleSrc,
	})

	t.Run("next to a source file", func(t *testing.T) {
		cfg, err := ResolveConfig("", []string{filepath.Join(dir, "people.cue")})
		require.NoError(t, err)
		assert.Equal(t, 8, cfg.MaxDepth)
	})
	t.Run("in a source directory", func(t *testing.T) {
		cfg, err := ResolveConfig("", []string{dir})
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Path())
	})
	t.Run("absent", func(t *testing.T) {
		cfg, err := ResolveConfig("", []string{t.TempDir()})
		require.NoError(t, err)
		assert.Equal(t, &Config{}, cfg)
	})
	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := ResolveConfig(filepath.Join(t.TempDir(), "other.yaml"), nil)
		require.Error(t, err)
	})
}

func TestCompileFlagsOverrideConfig(t *testing.T) {
	cmd := &cobra.Command{Use: "compile"}
	opts := &CompileFlags{}
	addCompileFlags(cmd, opts)
	require.NoError(t, cmd.Flags().Parse([]string{"--type-checker", "disabled", "--max-depth", "3"}))

	cfg := &Config{MaxDepth: 64, Partial: true, TypeChecker: TypeCheckerConfig{Mode: "warning"}}
	opts.apply(cmd, cfg)

	assert.Equal(t, "disabled", cfg.TypeChecker.Mode)
	assert.Equal(t, 3, cfg.MaxDepth)
	assert.True(t, cfg.Partial, "unset flags keep the config value")
	assert.Nil(t, cfg.Imports)
}
