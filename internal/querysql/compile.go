package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/queryir"
)

// Statement is a compiled view: the SQL text, its positional parameters and
// any portability warnings the plan raised.
type Statement struct {
	SQL      string
	Params   []any
	Warnings []string
}

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries end with ORDER BY over every result column so that
// results are deterministic.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// CompileView lowers a compiled view and renders it.
func (c *SQLCompiler) CompileView(v *ir.View) (*Statement, error) {
	q, err := queryir.LowerView(v)
	if err != nil {
		return nil, err
	}
	sql, params, err := c.Compile(q)
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", v.Name, err)
	}
	return &Statement{SQL: sql, Params: params, Warnings: queryir.Validate(q).Warnings}, nil
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	w := &writer{}
	switch query := q.(type) {
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	case *queryir.Select:
		if err := w.selectBody(query); err != nil {
			return "", nil, err
		}
		w.orderBy(len(query.Columns))
	case *queryir.Union:
		if len(query.Selects) == 0 {
			return "", nil, fmt.Errorf("cannot compile empty union")
		}
		for i, s := range query.Selects {
			if i > 0 {
				w.sb.WriteString(" UNION ALL ")
			}
			if err := w.selectBody(s); err != nil {
				return "", nil, fmt.Errorf("union branch %d: %w", i+1, err)
			}
		}
		w.orderBy(len(query.Selects[0].Columns))
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
	return w.sb.String(), w.params, nil
}

// writer accumulates SQL text and its parameters in textual order.
type writer struct {
	sb     strings.Builder
	params []any
}

func (w *writer) selectBody(s *queryir.Select) error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("select projects no columns")
	}
	w.sb.WriteString("SELECT ")
	for i, col := range s.Columns {
		if i > 0 {
			w.sb.WriteString(", ")
		}
		v, err := value(col.Value)
		if err != nil {
			return fmt.Errorf("column %s: %w", col.Name, err)
		}
		w.sb.WriteString(v + " AS " + QuoteIdent(col.Name))
	}

	w.sb.WriteString(" FROM ")
	if err := w.source(s.From); err != nil {
		return err
	}

	if s.Filter != nil {
		w.sb.WriteString(" WHERE ")
		if err := w.predicate(s.Filter); err != nil {
			return fmt.Errorf("compile filter: %w", err)
		}
	}

	if len(s.GroupBy) > 0 {
		refs := make([]string, len(s.GroupBy))
		for i, ref := range s.GroupBy {
			refs[i] = columnRef(ref)
		}
		w.sb.WriteString(" GROUP BY " + strings.Join(refs, ", "))
	}
	return nil
}

// orderBy orders by every result column, by position.
// MANDATORY: every compiled statement ends with this clause.
func (w *writer) orderBy(columns int) {
	keys := make([]string, columns)
	for i := range keys {
		keys[i] = strconv.Itoa(i + 1)
	}
	w.sb.WriteString(" ORDER BY " + strings.Join(keys, ", "))
}

func (w *writer) source(s queryir.Source) error {
	switch src := s.(type) {
	case *queryir.Table:
		w.sb.WriteString(QuoteIdent(src.Name))
		return nil
	case *queryir.Join:
		if err := w.source(src.Left); err != nil {
			return err
		}
		w.sb.WriteString(" INNER JOIN " + QuoteIdent(src.Right.Name) + " ON ")
		if src.On == nil {
			w.sb.WriteString("1 = 1")
			return nil
		}
		return w.predicate(src.On)
	default:
		return fmt.Errorf("unsupported source type: %T", s)
	}
}

var sqlOperators = map[string]string{
	"==": "=",
	"!=": "<>",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

// predicate compiles a queryir.Predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (w *writer) predicate(p queryir.Predicate) error {
	switch pred := p.(type) {
	case *queryir.Compare:
		op, ok := sqlOperators[pred.Op]
		if !ok {
			return fmt.Errorf("unsupported operator %q", pred.Op)
		}
		if err := w.operand(pred.Left); err != nil {
			return err
		}
		w.sb.WriteString(" " + op + " ")
		return w.operand(pred.Right)
	case *queryir.In:
		if len(pred.Values) == 0 {
			// x IN () is false and x NOT IN () is true.
			if pred.Negated {
				w.sb.WriteString("1 = 1")
			} else {
				w.sb.WriteString("1 = 0")
			}
			return nil
		}
		if err := w.operand(pred.Subject); err != nil {
			return err
		}
		if pred.Negated {
			w.sb.WriteString(" NOT")
		}
		w.sb.WriteString(" IN (")
		for i, v := range pred.Values {
			if i > 0 {
				w.sb.WriteString(", ")
			}
			if err := w.param(v); err != nil {
				return err
			}
		}
		w.sb.WriteString(")")
		return nil
	case *queryir.Like:
		if err := w.operand(pred.Subject); err != nil {
			return err
		}
		w.sb.WriteString(" LIKE ")
		return w.param(ir.IRString(pred.Pattern))
	case *queryir.And:
		return w.junction(pred.Predicates, " AND ", "1 = 1")
	case *queryir.Or:
		return w.junction(pred.Predicates, " OR ", "1 = 0")
	default:
		return fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// junction joins predicates with AND or OR inside parentheses. An empty
// junction is its identity: true for AND, false for OR.
func (w *writer) junction(preds []queryir.Predicate, sep, empty string) error {
	if len(preds) == 0 {
		w.sb.WriteString(empty)
		return nil
	}
	w.sb.WriteString("(")
	for i, p := range preds {
		if i > 0 {
			w.sb.WriteString(sep)
		}
		if err := w.predicate(p); err != nil {
			return err
		}
	}
	w.sb.WriteString(")")
	return nil
}

func (w *writer) operand(o queryir.Operand) error {
	switch op := o.(type) {
	case queryir.ColumnRef:
		w.sb.WriteString(columnRef(op))
		return nil
	case queryir.Literal:
		return w.param(op.Value)
	default:
		return fmt.Errorf("unsupported operand type: %T", o)
	}
}

func (w *writer) param(v ir.IRValue) error {
	p, err := irValueToParam(v)
	if err != nil {
		return fmt.Errorf("convert value: %w", err)
	}
	w.sb.WriteString("?")
	w.params = append(w.params, p)
	return nil
}

func value(v queryir.Value) (string, error) {
	switch val := v.(type) {
	case queryir.ColumnRef:
		return columnRef(val), nil
	case queryir.Aggregate:
		return string(val.Func) + "(" + columnRef(val.Arg) + ")", nil
	case queryir.Null:
		return "NULL", nil
	default:
		return "", fmt.Errorf("unsupported column value: %T", v)
	}
}

func columnRef(ref queryir.ColumnRef) string {
	return QuoteIdent(ref.Table) + "." + QuoteIdent(ref.Column)
}

// QuoteIdent quotes a table or column name. Qualified type names and dotted
// field paths are single identifiers.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// irValueToParam converts an ir.IRValue to a Go native type for SQL parameter.
// Decimals and temporals bind as their canonical text. Arrays and objects
// are not directly supported as SQL parameters.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case nil, ir.IRNull:
		return nil, nil
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		return bool(val), nil
	case ir.IRDecimal:
		return val.String(), nil
	case ir.IRTemporal:
		return val.String(), nil
	case ir.IRArray:
		return nil, fmt.Errorf("IRArray cannot be used as SQL parameter directly")
	case ir.IRObject:
		return nil, fmt.Errorf("IRObject cannot be used as SQL parameter directly")
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
