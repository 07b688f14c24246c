package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taxilang/taxilang-sub000/internal/diag"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool               `json:"valid"`
	Diagnostics []*diag.Diagnostic `json:"diagnostics,omitempty"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	CompileFlags
	Strict bool // warnings fail validation
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [sources...]",
		Short: "Check sources without writing output",
		Long: `Compile Taxi sources and report every diagnostic.

Nothing is written. Use --strict to fail on warnings as well as errors.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as failures")
	addCompileFlags(cmd, &opts.CompileFlags)

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, errs := compileSources(opts.RootOptions, &opts.CompileFlags, args, cmd, formatter)
	if len(errs) > 0 {
		return formatter.LoadErrors(errs, ExitCommandError)
	}

	diags := s.diags
	if opts.Strict {
		diags = promoteWarnings(diags)
	}
	if diags.HasErrors() {
		// Validation failures = exit code 1 (test/validation failure)
		return formatter.Diagnostics("Validation failed", diags, ExitFailure)
	}
	return outputValidateSuccess(formatter, diags)
}

// promoteWarnings copies diags with every warning raised to an error.
func promoteWarnings(diags diag.List) diag.List {
	out := make(diag.List, len(diags))
	for i, d := range diags {
		promoted := *d
		promoted.Severity = diag.SeverityError
		out[i] = &promoted
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, diags diag.List) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Diagnostics: diags.Sorted()})
	}

	fmt.Fprintln(formatter.Writer, "✓ All sources valid")
	if warnings := diags.Warnings(); len(warnings) > 0 {
		fmt.Fprintf(formatter.Writer, "\n%d warning(s):\n\n", len(warnings))
		for _, d := range warnings {
			formatter.Diagnostic(d)
		}
	}
	return nil
}

// ValidateSources compiles sources with default options and returns their
// diagnostics. This is a helper function for external callers.
func ValidateSources(paths []string) (diag.List, error) {
	formatter := &OutputFormatter{Format: "text", Writer: io.Discard}
	cmd := &cobra.Command{}
	s, errs := compileSources(&RootOptions{}, &CompileFlags{}, paths, cmd, formatter)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return s.diags, nil
}
