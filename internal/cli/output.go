package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taxilang/taxilang-sub000/internal/diag"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Validation failure or failing scenarios
	ExitCommandError = 2 // Command error (unreadable sources, compilation errors, bad config)
)

// ExitError carries the exit code a command failed with.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload, or every error
	Error  *CLIError `json:"error,omitempty"` // first error
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // "E001", diagnostic codes such as "NotDefined"
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// OutputFormatter renders command results as text or as a JSON envelope.
// Verbose logs go to ErrWriter so they never corrupt JSON on Writer.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // defaults to Writer
	Verbose   bool
}

// newFormatter writes to the command's stdout, with verbose logs on stderr.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func (f *OutputFormatter) json() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.json() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail outputs a single error and returns it as a command error.
func (f *OutputFormatter) Fail(code, message string) error {
	_ = f.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// Indented writes v as indented JSON.
func (f *OutputFormatter) Indented(v any) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// VerboseLog outputs a message only if verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Diagnostic writes one diagnostic as text: its position on a line of its
// own, then severity, code and message.
func (f *OutputFormatter) Diagnostic(d *diag.Diagnostic) {
	if d.Pos.IsValid() || d.Pos.Source != "" {
		fmt.Fprintln(f.Writer, d.Pos)
	}
	fmt.Fprintf(f.Writer, "  %s %s: %s\n\n", d.Severity, d.Code, d.Message)
}

// Diagnostics reports a compilation with errors, warnings included, in
// position order. The JSON error is the first error diagnostic.
func (f *OutputFormatter) Diagnostics(title string, diags diag.List, exitCode int) error {
	errs := diags.Errors()
	if len(errs) == 0 {
		return fmt.Errorf("no error diagnostics to report")
	}
	summary := fmt.Sprintf("%s with %d error(s)", title, len(errs))

	if f.json() {
		response := CLIResponse{
			Status: "error",
			Data:   CompilationResult{Diagnostics: diags.Sorted()},
			Error:  &CLIError{Code: string(errs[0].Code), Message: errs[0].Message},
		}
		if err := f.Indented(response); err != nil {
			return err
		}
		return NewExitError(exitCode, summary)
	}

	fmt.Fprintf(f.Writer, "✗ %s\n\n", title)
	for _, d := range diags.Sorted() {
		f.Diagnostic(d)
	}
	return NewExitError(exitCode, summary)
}

// LoadErrors reports sources that could not be read or decoded.
func (f *OutputFormatter) LoadErrors(errs []error, exitCode int) error {
	summary := fmt.Sprintf("loading sources failed with %d error(s)", len(errs))

	if f.json() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}
		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}
		if err := f.Indented(response); err != nil {
			return err
		}
		return NewExitError(exitCode, summary)
	}

	fmt.Fprintln(f.Writer, "✗ Loading sources failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(f.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		code, message := parseLoadError(err)
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", code, message)
	}
	return NewExitError(exitCode, summary)
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
