package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taxilang/taxilang-sub000/internal/compiler"
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	CompileFlags
	Output string // output file path
}

// CompilationResult is the JSON payload of a compile run.
type CompilationResult struct {
	Document    map[string]any     `json:"document,omitempty"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics,omitempty"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	TypeCount     int
	FunctionCount int
	ServiceCount  int
	QueryCount    int
	ViewCount     int
}

// session is one load-and-compile run shared by compile, validate and sql.
type session struct {
	cfg       *Config
	doc       *ir.Document
	diags     diag.List
	fileCount int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [sources...]",
		Short: "Compile sources to the canonical document",
		Long: `Compile Taxi sources to a resolved document.

Sources are CUE files or directories holding parse trees. Without
arguments, the sources listed in the config file are compiled. The
document is written as canonical JSON with --output.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	addCompileFlags(cmd, &opts.CompileFlags)

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, errs := compileSources(opts.RootOptions, &opts.CompileFlags, args, cmd, formatter)
	if len(errs) > 0 {
		return formatter.LoadErrors(errs, ExitCommandError)
	}

	// A partial document is still written so it can be inspected.
	if opts.Output != "" && s.doc != nil {
		if err := writeDocumentToFile(s.doc, opts.Output); err != nil {
			return formatter.Fail(ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if s.diags.HasErrors() {
		// Compilation errors are command-level errors (exit code 2)
		return formatter.Diagnostics("Compilation failed", s.diags, ExitCommandError)
	}
	return outputCompileSuccess(formatter, s, calculateStats(s.doc), opts.Output)
}

// compileSources resolves the config, compiles imports and then the
// sources. Errors are load-level failures; compiler diagnostics are in the
// session.
func compileSources(opts *RootOptions, flags *CompileFlags, args []string, cmd *cobra.Command, formatter *OutputFormatter) (*session, []error) {
	cfg, err := ResolveConfig(opts.Config, args)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeConfig, Message: err.Error()}}
	}
	flags.apply(cmd, cfg)
	if cfg.Path() != "" {
		formatter.VerboseLog("Using config %s", cfg.Path())
	}

	logger := opts.Logger()
	compilerOpts, err := cfg.CompilerOptions(logger)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeConfig, Message: err.Error()}}
	}

	sources := args
	if len(sources) == 0 {
		sources = cfg.Sources
	}

	if len(cfg.Imports) > 0 {
		formatter.VerboseLog("Compiling %d import path(s)", len(cfg.Imports))
		imported, errs := CompileImports(cfg.Imports, compilerOpts...)
		if len(errs) > 0 {
			return nil, errs
		}
		compilerOpts = append(compilerOpts, compiler.WithImports(imported))
	}

	loaded, errs := LoadSources(sources)
	if len(errs) > 0 {
		return nil, errs
	}
	formatter.VerboseLog("Found %d CUE file(s), %d document(s)", loaded.FileCount, len(loaded.Documents))
	for _, d := range loaded.Documents {
		formatter.VerboseLog("Compiling document: %s", d.Source)
	}

	doc, diags := compiler.Compile(loaded.Documents, compilerOpts...)
	logger.Debug("compiled sources", "documents", len(loaded.Documents), "diagnostics", diags.Len())
	return &session{cfg: cfg, doc: doc, diags: diags, fileCount: loaded.FileCount}, nil
}

// calculateStats computes summary statistics from a compiled document.
func calculateStats(doc *ir.Document) CompilationStats {
	if doc == nil {
		return CompilationStats{}
	}
	return CompilationStats{
		TypeCount:     len(doc.Types()),
		FunctionCount: len(doc.Functions()),
		ServiceCount:  len(doc.Services()),
		QueryCount:    len(doc.Queries()),
		ViewCount:     len(doc.Views()),
	}
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, s *session, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(CompilationResult{
			Document:    ir.Describe(s.doc),
			Diagnostics: s.diags.Sorted(),
		})
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d type(s), %d function(s), %d service(s), %d query(ies), %d view(s)\n\n",
		stats.TypeCount, stats.FunctionCount, stats.ServiceCount, stats.QueryCount, stats.ViewCount)

	if types := s.doc.Types(); len(types) > 0 {
		fmt.Fprintln(formatter.Writer, "Types:")
		for _, t := range types {
			fmt.Fprintf(formatter.Writer, "  %s (%v)\n", t.Name(), ir.DescribeType(t)["kind"])
		}
		fmt.Fprintln(formatter.Writer)
	}

	if warnings := s.diags.Warnings(); len(warnings) > 0 {
		fmt.Fprintln(formatter.Writer, "Warnings:")
		for _, d := range warnings {
			formatter.Diagnostic(d)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical IR to %s\n", outputFile)
	}

	return nil
}

// writeDocumentToFile writes a document as canonical JSON, the form used
// for fingerprints and golden snapshots.
func writeDocumentToFile(doc *ir.Document, filename string) error {
	data, err := ir.MarshalCanonical(ir.Describe(doc))
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
