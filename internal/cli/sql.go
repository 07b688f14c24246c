package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	CompileFlags
	Views []string // view names; empty means every view
	DDL   bool     // also print the tables the views read
}

// ViewSQL is the compiled statement of one view.
type ViewSQL struct {
	View     string   `json:"view"`
	SQL      string   `json:"sql"`
	Params   []any    `json:"params,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SQLResult is the JSON payload of the sql command.
type SQLResult struct {
	Tables []string  `json:"tables,omitempty"`
	Views  []ViewSQL `json:"views"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql [sources...]",
		Short: "Print the SQL of compiled views",
		Long: `Compile Taxi sources and print each view as a parameterized SQL
statement, with portability warnings.

Examples:
  taxic sql ./schema
  taxic sql ./schema --view acme.Spend --ddl
  taxic sql ./schema --format json`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Views, "view", nil, "qualified view name (repeatable)")
	cmd.Flags().BoolVar(&opts.DDL, "ddl", false, "print CREATE TABLE statements for the tables views read")
	addCompileFlags(cmd, &opts.CompileFlags)

	return cmd
}

func runSQL(opts *SQLOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	s, errs := compileSources(opts.RootOptions, &opts.CompileFlags, args, cmd, formatter)
	if len(errs) > 0 {
		return formatter.LoadErrors(errs, ExitCommandError)
	}
	if s.diags.HasErrors() {
		return formatter.Diagnostics("Compilation failed", s.diags, ExitCommandError)
	}

	views, err := selectViews(s.doc, opts.Views)
	if err != nil {
		return formatter.Fail(ErrCodeNotFound, err.Error())
	}

	result := SQLResult{Views: make([]ViewSQL, 0, len(views))}
	if opts.DDL {
		for _, obj := range querysql.ViewTables(s.doc) {
			result.Tables = append(result.Tables, querysql.CreateTable(obj))
		}
	}

	sqlc := querysql.NewSQLCompiler()
	for _, v := range views {
		formatter.VerboseLog("Compiling view: %s", v.Name)
		stmt, err := sqlc.CompileView(v)
		if err != nil {
			return formatter.Fail(ErrCodeViewSQL, fmt.Sprintf("view %s: %v", v.Name, err))
		}
		result.Views = append(result.Views, ViewSQL{
			View:     string(v.Name),
			SQL:      stmt.SQL,
			Params:   stmt.Params,
			Warnings: stmt.Warnings,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputSQLText(formatter, result)
	return nil
}

// selectViews returns the named views, or every view when names is empty.
func selectViews(doc *ir.Document, names []string) ([]*ir.View, error) {
	if len(names) == 0 {
		return doc.Views(), nil
	}
	out := make([]*ir.View, 0, len(names))
	for _, name := range names {
		v := doc.View(ir.QualifiedName(name))
		if v == nil {
			return nil, fmt.Errorf("view %s is not defined", name)
		}
		out = append(out, v)
	}
	return out, nil
}

func outputSQLText(formatter *OutputFormatter, result SQLResult) {
	w := formatter.Writer
	for _, ddl := range result.Tables {
		fmt.Fprintf(w, "%s;\n", ddl)
	}
	if len(result.Tables) > 0 {
		fmt.Fprintln(w)
	}

	if len(result.Views) == 0 {
		fmt.Fprintln(w, "No views found.")
		return
	}
	for i, v := range result.Views {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "-- %s\n", v.View)
		for _, warning := range v.Warnings {
			fmt.Fprintf(w, "-- warning: %s\n", warning)
		}
		fmt.Fprintf(w, "%s;\n", v.SQL)
		if len(v.Params) > 0 {
			params := make([]string, len(v.Params))
			for j, p := range v.Params {
				params[j] = fmt.Sprintf("%v", p)
			}
			fmt.Fprintf(w, "-- params: %s\n", strings.Join(params, ", "))
		}
	}
}
