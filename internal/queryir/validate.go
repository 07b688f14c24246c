package queryir

import (
	"fmt"

	"github.com/taxilang/taxilang-sub000/internal/ir"
)

// ValidationResult contains portability analysis of a query.
//
// The portable fragment is the subset of QueryIR that renders to SQL with
// the same meaning on every mainstream engine. Queries outside this
// fragment still render, and run correctly on SQLite.
type ValidationResult struct {
	// IsPortable indicates if the query uses only portable fragment features.
	IsPortable bool

	// Warnings lists non-portable features used in the query.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks if a query conforms to the portable fragment rules.
//
// Portable fragment rules:
//  1. No NULL literals in comparisons - = NULL is never true
//  2. No LIKE - case sensitivity differs between engines
//  3. Explicit columns - every select projects at least one column
//  4. Joins have a condition - no cross joins
//  5. Union branches agree on their columns
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// validateQuery recursively validates a query node.
func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addWarning("nil query - portable fragment requires valid query nodes")
	case *Select:
		v.validateSelect(query)
	case *Union:
		v.validateUnion(query)
	default:
		v.addWarning("Unknown query type: %T - portability cannot be verified", q)
	}
}

func (v *validator) validateSelect(sel *Select) {
	// Rule 3: Explicit columns
	if len(sel.Columns) == 0 {
		v.addWarning("Select from %s projects no columns - portable fragment requires explicit columns", sourceName(sel.From))
	}
	v.validateSource(sel.From)
	v.validatePredicate(sel.Filter)
}

func (v *validator) validateUnion(u *Union) {
	if len(u.Selects) == 0 {
		v.addWarning("Empty union - portable fragment requires at least one select")
		return
	}
	// Rule 5: Union branches agree on their columns
	want := len(u.Selects[0].Columns)
	for i, s := range u.Selects {
		if len(s.Columns) != want {
			v.addWarning("Union branch %d has %d columns, expected %d", i+1, len(s.Columns), want)
		}
		v.validateSelect(s)
	}
}

func (v *validator) validateSource(s Source) {
	switch src := s.(type) {
	case nil:
		v.addWarning("Select has no source")
	case *Table:
	case *Join:
		v.validateSource(src.Left)
		// Rule 4: Joins have a condition
		if src.On == nil {
			v.addWarning("Join with %s has no condition - portable fragment excludes cross joins", src.Right.Name)
			return
		}
		v.validatePredicate(src.On)
	default:
		v.addWarning("Unknown source type: %T - portability cannot be verified", s)
	}
}

// validatePredicate recursively validates a predicate node.
func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		// no filter
	case *Compare:
		// Rule 1: No NULL literals
		for _, o := range []Operand{pred.Left, pred.Right} {
			if lit, ok := o.(Literal); ok && isNull(lit.Value) {
				v.addWarning("Comparison %s NULL is never true - portable fragment requires explicit values", pred.Op)
			}
		}
	case *In:
		for _, val := range pred.Values {
			if isNull(val) {
				v.addWarning("IN list contains NULL - portable fragment requires explicit values")
				break
			}
		}
	case *Like:
		// Rule 2: No LIKE
		v.addWarning("LIKE %q - case sensitivity differs between SQL engines", pred.Pattern)
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addWarning("Unknown predicate type: %T - portability cannot be verified", p)
	}
}

func isNull(v ir.IRValue) bool {
	switch v.(type) {
	case nil, ir.IRNull:
		return true
	}
	return false
}

func sourceName(s Source) string {
	switch src := s.(type) {
	case *Table:
		return src.Name
	case *Join:
		return sourceName(src.Left)
	default:
		return "<unknown>"
	}
}
