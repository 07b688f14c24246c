package harness

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/querysql"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type        string           // Assertion type for categorization
	Expected    string           // Human-readable expected outcome
	Actual      string           // Human-readable actual outcome
	Diagnostics []*diag.Diagnostic // Every compiler diagnostic, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Diagnostics) > 0 {
		fmt.Fprintf(&buf, "\nDiagnostics:\n")
		for i, d := range e.Diagnostics {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, d.Error())
		}
	}
	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	// DB holds the scenario's data rows. Nil when the scenario has none.
	DB  *querysql.DB
	Ctx context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for view_rows assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertNoErrors:
			err = assertErrorCount(result, 0)
		case AssertErrorCount:
			err = assertErrorCount(result, assertion.Count)
		case AssertDiagnostic:
			err = assertDiagnostic(result, assertion)
		case AssertTypeExists:
			err = assertTypeExists(result, assertion)
		case AssertFieldType:
			err = assertFieldType(result, assertion)
		case AssertBasePrimitive:
			err = assertBasePrimitive(result, assertion)
		case AssertViewSQL:
			err = assertViewSQL(result, assertion)
		case AssertViewRows:
			if actx == nil || actx.DB == nil {
				err = fmt.Errorf("assertion[%d]: view_rows requires scenario data", i)
			} else {
				err = assertViewRows(actx.Ctx, actx.DB, result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func failure(result *Result, typ, expected, actual string) *AssertionError {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Diagnostics: result.Diagnostics}
}

// assertErrorCount checks the number of error-severity diagnostics.
func assertErrorCount(result *Result, want int) error {
	got := len(result.Diagnostics.Errors())
	if got == want {
		return nil
	}
	return failure(result, AssertErrorCount,
		fmt.Sprintf("%d errors", want),
		fmt.Sprintf("%d errors", got))
}

// assertDiagnostic checks that some diagnostic matches code, severity and
// message substring; empty criteria match anything.
func assertDiagnostic(result *Result, a Assertion) error {
	for _, d := range result.Diagnostics {
		if a.Code != "" && string(d.Code) != a.Code {
			continue
		}
		if a.Severity != "" && !strings.EqualFold(d.Severity.String(), a.Severity) {
			continue
		}
		if !strings.Contains(d.Message, a.Message) {
			continue
		}
		return nil
	}
	return failure(result, AssertDiagnostic,
		fmt.Sprintf("diagnostic code=%q severity=%q message containing %q", a.Code, a.Severity, a.Message),
		"not reported")
}

func documentType(result *Result, typ, name string) (ir.Type, error) {
	if result.Document == nil {
		return nil, failure(result, typ, "a compiled document", "compilation failed")
	}
	t, ok := result.Document.Type(ir.QualifiedName(name))
	if !ok {
		return nil, failure(result, typ, fmt.Sprintf("type %s", name), "not defined")
	}
	return t, nil
}

// assertTypeExists checks that the document defines a type, and its kind
// when one is given. Kinds are those of ir.DescribeType.
func assertTypeExists(result *Result, a Assertion) error {
	t, err := documentType(result, AssertTypeExists, a.Name)
	if err != nil {
		return err
	}
	if a.Kind == "" {
		return nil
	}
	if kind := ir.DescribeType(t)["kind"]; kind != a.Kind {
		return failure(result, AssertTypeExists,
			fmt.Sprintf("%s of kind %s", a.Name, a.Kind),
			fmt.Sprintf("kind %v", kind))
	}
	return nil
}

// assertFieldType checks the declared type of a model field, inherited
// fields included.
func assertFieldType(result *Result, a Assertion) error {
	t, err := documentType(result, AssertFieldType, a.Name)
	if err != nil {
		return err
	}
	obj, ok := ir.Unwrap(t).(*ir.ObjectType)
	if !ok {
		return failure(result, AssertFieldType, fmt.Sprintf("%s to be a model", a.Name), fmt.Sprintf("%T", t))
	}
	f := obj.Field(a.Field)
	if f == nil {
		return failure(result, AssertFieldType, fmt.Sprintf("field %s.%s", a.Name, a.Field), "not defined")
	}
	if got := string(f.Type.Name()); got != a.Expect {
		return failure(result, AssertFieldType,
			fmt.Sprintf("%s.%s of type %s", a.Name, a.Field, a.Expect), got)
	}
	return nil
}

func assertBasePrimitive(result *Result, a Assertion) error {
	t, err := documentType(result, AssertBasePrimitive, a.Name)
	if err != nil {
		return err
	}
	got := "<none>"
	if p := ir.BasePrimitive(t); p != nil {
		got = string(p.Name())
	}
	if got != a.Expect {
		return failure(result, AssertBasePrimitive, fmt.Sprintf("%s based on %s", a.Name, a.Expect), got)
	}
	return nil
}

func documentView(result *Result, typ, name string) (*ir.View, error) {
	if result.Document == nil {
		return nil, failure(result, typ, "a compiled document", "compilation failed")
	}
	v := result.Document.View(ir.QualifiedName(name))
	if v == nil {
		return nil, failure(result, typ, fmt.Sprintf("view %s", name), "not defined")
	}
	return v, nil
}

// assertViewSQL checks that a view's compiled SQL contains a fragment.
func assertViewSQL(result *Result, a Assertion) error {
	v, err := documentView(result, AssertViewSQL, a.Name)
	if err != nil {
		return err
	}
	stmt, err := querysql.NewSQLCompiler().CompileView(v)
	if err != nil {
		return failure(result, AssertViewSQL, "view compiles to SQL", err.Error())
	}
	if !strings.Contains(stmt.SQL, a.Contains) {
		return failure(result, AssertViewSQL, fmt.Sprintf("SQL containing %q", a.Contains), stmt.SQL)
	}
	return nil
}

// assertViewRows runs a view over the scenario data and compares every row,
// in order. Only the columns named in an expected row are compared.
func assertViewRows(ctx context.Context, db *querysql.DB, result *Result, a Assertion) error {
	v, err := documentView(result, AssertViewRows, a.Name)
	if err != nil {
		return err
	}
	rows, err := db.QueryView(ctx, v)
	if err != nil {
		return failure(result, AssertViewRows, "view runs", err.Error())
	}
	if len(rows) != len(a.Rows) {
		return failure(result, AssertViewRows,
			fmt.Sprintf("%d rows", len(a.Rows)),
			fmt.Sprintf("%d rows: %s", len(rows), formatRows(rows)))
	}
	for i, want := range a.Rows {
		for col, exp := range want {
			act, ok := rows[i][col]
			if !ok || !rowValuesEqual(exp, act) {
				return failure(result, AssertViewRows,
					fmt.Sprintf("row %d %s = %v", i+1, col, exp),
					fmt.Sprintf("%v", act))
			}
		}
	}
	return nil
}

// formatRows renders rows with sorted columns for readable failures.
func formatRows(rows []map[string]any) string {
	parts := make([]string, len(rows))
	for i, row := range rows {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cols := make([]string, len(keys))
		for j, k := range keys {
			cols[j] = fmt.Sprintf("%s=%v", k, row[k])
		}
		parts[i] = "{" + strings.Join(cols, ", ") + "}"
	}
	return strings.Join(parts, " ")
}

// rowValuesEqual compares an expected YAML value with a value read from
// SQLite. Handles type coercion for SQLite values which may be returned as
// different types.
func rowValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case string:
		act, ok := actual.(string)
		return ok && exp == act
	case int:
		return numericEqual(float64(exp), actual)
	case int64:
		return numericEqual(float64(exp), actual)
	case float64:
		return numericEqual(exp, actual)
	case bool:
		// SQLite stores booleans as integers
		if act, ok := actual.(int64); ok {
			return exp == (act != 0)
		}
		act, ok := actual.(bool)
		return ok && exp == act
	}

	return reflect.DeepEqual(expected, actual)
}

func numericEqual(exp float64, actual any) bool {
	switch act := actual.(type) {
	case int64:
		return exp == float64(act)
	case float64:
		return exp == act
	default:
		return false
	}
}
