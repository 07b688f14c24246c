package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taxilang/taxilang-sub000/internal/compiler"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// ConfigFileName is looked up next to the sources when --config is not set.
const ConfigFileName = "taxi.yaml"

// Config is a project file. Relative paths are resolved against the file's
// directory.
//
//	sources: [src]
//	imports: [../shared]
//	typeChecker:
//	  mode: warning
//	maxDepth: 64
//	partial: false
type Config struct {
	Sources     []string          `yaml:"sources,omitempty"`
	Imports     []string          `yaml:"imports,omitempty"`
	TypeChecker TypeCheckerConfig `yaml:"typeChecker,omitempty"`
	MaxDepth    int               `yaml:"maxDepth,omitempty"`
	Partial     bool              `yaml:"partial,omitempty"`

	path string
}

// TypeCheckerConfig configures assignability checking.
type TypeCheckerConfig struct {
	// Mode is disabled, warning or error. Empty means error.
	Mode string `yaml:"mode,omitempty"`
}

// LoadConfig reads a config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if _, err := typecheck.ParseMode(cfg.TypeChecker.Mode); err != nil {
		return nil, fmt.Errorf("%s: typeChecker.mode: %w", path, err)
	}
	if cfg.MaxDepth < 0 {
		return nil, fmt.Errorf("%s: maxDepth must be non-negative", path)
	}

	base := filepath.Dir(path)
	for _, paths := range [][]string{cfg.Sources, cfg.Imports} {
		for i, p := range paths {
			if !filepath.IsAbs(p) {
				paths[i] = filepath.Join(base, p)
			}
		}
	}
	cfg.path = path
	return &cfg, nil
}

// Path is the file the config was read from, empty for the default config.
func (c *Config) Path() string {
	return c.path
}

// ResolveConfig loads the explicit config file, or taxi.yaml next to the
// first source path (or in the working directory when there is none). A
// missing implicit file yields the default config.
func ResolveConfig(explicit string, sources []string) (*Config, error) {
	if explicit != "" {
		return LoadConfig(explicit)
	}

	dir := "."
	if len(sources) > 0 {
		dir = sources[0]
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			dir = filepath.Dir(dir)
		}
	}
	candidate := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(candidate); err != nil {
		return &Config{}, nil
	}
	return LoadConfig(candidate)
}

// CompileFlags are the compiler flags shared by compile, validate and sql.
// Set flags override the config file.
type CompileFlags struct {
	Imports     []string
	TypeChecker string
	MaxDepth    int
	Partial     bool
}

func addCompileFlags(cmd *cobra.Command, f *CompileFlags) {
	cmd.Flags().StringSliceVar(&f.Imports, "import", nil, "sources other sources may import types from (repeatable)")
	cmd.Flags().StringVar(&f.TypeChecker, "type-checker", "", "type checker mode (disabled|warning|error)")
	cmd.Flags().IntVar(&f.MaxDepth, "max-depth", 0, "resolution depth limit (0 keeps the default)")
	cmd.Flags().BoolVar(&f.Partial, "partial", false, "keep the best-effort document when errors are reported")
}

// apply overrides cfg with the flags the user set.
func (f *CompileFlags) apply(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("import") {
		cfg.Imports = f.Imports
	}
	if flags.Changed("type-checker") {
		cfg.TypeChecker.Mode = f.TypeChecker
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth = f.MaxDepth
	}
	if flags.Changed("partial") {
		cfg.Partial = f.Partial
	}
}

// CompilerOptions maps the config to compiler options. Imports are
// compiled separately, see CompileImports.
func (c *Config) CompilerOptions(logger *slog.Logger) ([]compiler.Option, error) {
	mode, err := typecheck.ParseMode(c.TypeChecker.Mode)
	if err != nil {
		return nil, err
	}
	opts := []compiler.Option{
		compiler.WithLogger(logger),
		compiler.WithTypeChecker(mode),
		compiler.WithMaxDepth(c.MaxDepth),
	}
	if c.Partial {
		opts = append(opts, compiler.WithPartialDocument())
	}
	return opts, nil
}
