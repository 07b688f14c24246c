package queryir

import (
	"fmt"
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/ir"
)

// TableName is the table a model type is stored in.
func TableName(t ir.Type) string {
	return string(ir.Unwrap(ir.CollectionMember(t)).Name())
}

// ColumnName is the column a field path is stored in.
func ColumnName(path ...*ir.Field) string {
	names := make([]string, len(path))
	for i, f := range path {
		names[i] = f.Name
	}
	return strings.Join(names, ".")
}

// TableColumn is one column of a model type's table.
type TableColumn struct {
	Name string
	Type *ir.Primitive
}

// TableColumns flattens a model type into columns, in field order. Fields
// with a base primitive become columns; fields of a model type contribute
// that model's columns under a dotted prefix. Collections are not stored in
// the table.
func TableColumns(obj *ir.ObjectType) []TableColumn {
	var out []TableColumn
	var walk func(o *ir.ObjectType, prefix string, seen map[*ir.ObjectType]bool)
	walk = func(o *ir.ObjectType, prefix string, seen map[*ir.ObjectType]bool) {
		if seen[o] {
			return
		}
		seen[o] = true
		defer delete(seen, o)
		for _, f := range o.AllFields() {
			if ir.IsCollection(f.Type) {
				continue
			}
			if base := ir.BasePrimitive(f.Type); base != nil {
				out = append(out, TableColumn{Name: prefix + f.Name, Type: base})
				continue
			}
			if nested, ok := ir.Unwrap(f.Type).(*ir.ObjectType); ok {
				walk(nested, prefix+f.Name+".", seen)
			}
		}
	}
	walk(obj, "", map[*ir.ObjectType]bool{})
	return out
}

var aggregates = map[ir.QualifiedName]AggregateFunc{
	ir.NewQualifiedName(ir.StdlibNamespace, "sumOver"):   AggregateSum,
	ir.NewQualifiedName(ir.StdlibNamespace, "countOver"): AggregateCount,
}

// LowerView lowers a compiled view. A view with one find block is a Select;
// several find blocks are a Union whose branches are aligned by column name.
func LowerView(v *ir.View) (Query, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot lower nil view")
	}
	if len(v.Finds) == 0 {
		return nil, fmt.Errorf("view %s has no find blocks", v.Name)
	}
	selects := make([]*Select, 0, len(v.Finds))
	for i, f := range v.Finds {
		s, err := lowerFind(f)
		if err != nil {
			return nil, fmt.Errorf("view %s find %d: %w", v.Name, i+1, err)
		}
		selects = append(selects, s)
	}
	if len(selects) == 1 {
		return selects[0], nil
	}
	return alignUnion(selects), nil
}

// findScope is the set of tables one find block reads.
type findScope struct {
	types []*ir.ObjectType
}

func lowerFind(f *ir.ViewFind) (*Select, error) {
	scope := &findScope{}
	for _, t := range f.Types {
		obj, ok := ir.Unwrap(ir.CollectionMember(t)).(*ir.ObjectType)
		if !ok {
			return nil, fmt.Errorf("%s is not a model type", t.Name())
		}
		scope.types = append(scope.types, obj)
	}
	if len(scope.types) == 0 {
		return nil, fmt.Errorf("find block names no types")
	}

	var from Source = &Table{Name: TableName(scope.types[0])}
	for _, j := range f.Joins {
		from = &Join{
			Left:  from,
			Right: &Table{Name: TableName(j.Right)},
			On: &Compare{
				Left:  ColumnRef{Table: TableName(j.Left), Column: j.LeftField.Name},
				Op:    "==",
				Right: ColumnRef{Table: TableName(j.Right), Column: j.RightField.Name},
			},
		}
	}
	sel := &Select{From: from}

	preds := make([]Predicate, 0, len(f.Filter))
	for _, c := range f.Filter {
		p, err := scope.predicate(c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	switch len(preds) {
	case 0:
	case 1:
		sel.Filter = preds[0]
	default:
		sel.Filter = &And{Predicates: preds}
	}

	if f.Projection == nil {
		table := TableName(scope.types[0])
		for _, c := range TableColumns(scope.types[0]) {
			sel.Columns = append(sel.Columns, Column{Name: c.Name, Value: ColumnRef{Table: table, Column: c.Name}})
		}
		return sel, nil
	}

	aggregated := false
	for _, field := range f.Projection.Fields() {
		v, err := scope.value(field)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(Aggregate); ok {
			aggregated = true
		}
		sel.Columns = append(sel.Columns, Column{Name: field.Name, Value: v})
	}
	if aggregated {
		for _, c := range sel.Columns {
			if ref, ok := c.Value.(ColumnRef); ok {
				sel.GroupBy = append(sel.GroupBy, ref)
			}
		}
	}
	return sel, nil
}

// value lowers a projected view field: a Type::field reference or a query
// aggregate over one.
func (s *findScope) value(f *ir.Field) (Value, error) {
	switch e := f.Expression().(type) {
	case *ir.ModelAttributeReference:
		return attributeRef(e), nil
	case *ir.FunctionCall:
		fn, ok := aggregates[e.Function.Name()]
		if !ok {
			return nil, fmt.Errorf("field %s: %s is not an aggregate", f.Name, e.Function.Name())
		}
		if len(e.Args) != 1 {
			return nil, fmt.Errorf("field %s: %s takes one argument", f.Name, e.Function.Name())
		}
		attr, ok := e.Args[0].(*ir.ModelAttributeReference)
		if !ok {
			return nil, fmt.Errorf("field %s: %s must aggregate a Type::field reference", f.Name, e.Function.Name())
		}
		return Aggregate{Func: fn, Arg: attributeRef(attr)}, nil
	default:
		return nil, fmt.Errorf("field %s: %T cannot be lowered to a column", f.Name, e)
	}
}

func attributeRef(e *ir.ModelAttributeReference) ColumnRef {
	return ColumnRef{Table: TableName(e.Source), Column: e.Field.Name}
}

func (s *findScope) predicate(c ir.Constraint) (Predicate, error) {
	switch v := c.(type) {
	case *ir.ComparisonConstraint:
		l, err := s.operand(v.Left)
		if err != nil {
			return nil, err
		}
		r, err := s.operand(v.Right)
		if err != nil {
			return nil, err
		}
		return &Compare{Left: l, Op: v.Operator.Symbol(), Right: r}, nil
	case *ir.InListConstraint:
		subject, err := s.operand(v.Subject)
		if err != nil {
			return nil, err
		}
		return &In{Subject: subject, Values: v.Values, Negated: v.Negated}, nil
	case *ir.LikeConstraint:
		subject, err := s.operand(v.Subject)
		if err != nil {
			return nil, err
		}
		return &Like{Subject: subject, Pattern: v.Pattern}, nil
	case *ir.AndConstraint:
		l, r, err := s.pair(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		return &And{Predicates: flattenAnd(l, r)}, nil
	case *ir.OrConstraint:
		l, r, err := s.pair(v.Left, v.Right)
		if err != nil {
			return nil, err
		}
		return &Or{Predicates: flattenOr(l, r)}, nil
	default:
		return nil, fmt.Errorf("unsupported constraint type: %T", c)
	}
}

func (s *findScope) pair(left, right ir.Constraint) (Predicate, Predicate, error) {
	l, err := s.predicate(left)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.predicate(right)
	if err != nil {
		return nil, nil, err
	}
	return l, r, nil
}

// flattenAnd merges directly nested conjunctions so that a and b and c
// lowers to one And of three predicates.
func flattenAnd(preds ...Predicate) []Predicate {
	var out []Predicate
	for _, p := range preds {
		if and, ok := p.(*And); ok {
			out = append(out, and.Predicates...)
			continue
		}
		out = append(out, p)
	}
	return out
}

func flattenOr(preds ...Predicate) []Predicate {
	var out []Predicate
	for _, p := range preds {
		if or, ok := p.(*Or); ok {
			out = append(out, or.Predicates...)
			continue
		}
		out = append(out, p)
	}
	return out
}

func (s *findScope) operand(o ir.ConstraintOperand) (Operand, error) {
	switch v := o.(type) {
	case *ir.ValueOperand:
		return Literal{Value: v.Value}, nil
	case *ir.PropertyTypeOperand:
		return s.column([]*ir.Field{v.Field})
	case *ir.PropertyFieldOperand:
		return s.column(v.Path)
	case *ir.ParameterOperand:
		return nil, fmt.Errorf("parameter %s cannot be used in a view", v.Name)
	default:
		return nil, fmt.Errorf("unsupported operand type: %T", o)
	}
}

// column finds the found type that declares (or inherits) the first field
// of path.
func (s *findScope) column(path []*ir.Field) (ColumnRef, error) {
	if len(path) == 0 {
		return ColumnRef{}, fmt.Errorf("empty field path")
	}
	for _, t := range s.types {
		for _, f := range t.AllFields() {
			if f == path[0] {
				return ColumnRef{Table: TableName(t), Column: ColumnName(path...)}, nil
			}
		}
	}
	return ColumnRef{}, fmt.Errorf("field %s is not a column of any found type", path[0].Name)
}

// alignUnion gives every branch the same columns: the union of all column
// names in order of first appearance, with Null where a branch has none.
func alignUnion(selects []*Select) *Union {
	var names []string
	seen := map[string]bool{}
	for _, s := range selects {
		for _, c := range s.Columns {
			if !seen[c.Name] {
				seen[c.Name] = true
				names = append(names, c.Name)
			}
		}
	}
	for _, s := range selects {
		byName := make(map[string]Value, len(s.Columns))
		for _, c := range s.Columns {
			byName[c.Name] = c.Value
		}
		aligned := make([]Column, len(names))
		for i, n := range names {
			v, ok := byName[n]
			if !ok {
				v = Null{}
			}
			aligned[i] = Column{Name: n, Value: v}
		}
		s.Columns = aligned
	}
	return &Union{Selects: selects}
}
