package compiler

import (
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// filterContext is what a filter is compiled against: the types whose
// properties it may name, and the parameters in scope.
type filterContext struct {
	scope   symbols.Scope
	targets []ir.Type
	params  map[string]*ir.Parameter
}

// compileFilter compiles a filter tree. Both sides of and/or are always
// compiled so every error in the tree is reported.
func (c *Compiler) compileFilter(ctx filterContext, f syntax.Filter) diag.Result[ir.Constraint] {
	switch v := f.(type) {
	case *syntax.ParenFilter:
		return c.compileFilter(ctx, v.Inner)
	case *syntax.AndFilter:
		l, r := c.compileFilter(ctx, v.Left), c.compileFilter(ctx, v.Right)
		if diags := diag.Collect(l, r); diags.HasErrors() {
			return diag.FailList[ir.Constraint](diags)
		}
		return diag.OkWith[ir.Constraint](&ir.AndConstraint{Left: l.Value(), Right: r.Value()}, diag.Collect(l, r)...)
	case *syntax.OrFilter:
		l, r := c.compileFilter(ctx, v.Left), c.compileFilter(ctx, v.Right)
		if diags := diag.Collect(l, r); diags.HasErrors() {
			return diag.FailList[ir.Constraint](diags)
		}
		return diag.OkWith[ir.Constraint](&ir.OrConstraint{Left: l.Value(), Right: r.Value()}, diag.Collect(l, r)...)
	case *syntax.CompareFilter:
		return c.compileCompare(ctx, v)
	case *syntax.InFilter:
		return c.compileIn(ctx, v)
	case *syntax.LikeFilter:
		return c.compileLike(ctx, v)
	default:
		diag.Defectf(f.FilterPos(), "unexpected filter %T", f)
		return diag.Result[ir.Constraint]{}
	}
}

func (c *Compiler) compileCompare(ctx filterContext, f *syntax.CompareFilter) diag.Result[ir.Constraint] {
	op, ok := ir.ParseOperator(f.Op)
	if !ok || !op.IsComparison() {
		return diag.Fail[ir.Constraint](diag.Errorf(diag.StructuralError, f.Pos,
			"%s is not a comparison operator", f.Op))
	}
	l, r := c.compileOperand(ctx, f.Left), c.compileOperand(ctx, f.Right)
	if diags := diag.Collect(l, r); diags.HasErrors() {
		return diag.FailList[ir.Constraint](diags)
	}
	left, right := l.Value(), r.Value()

	// The property side decides which operators are legal and what the
	// other side is checked against.
	if ir.PropertyField(left) == nil && ir.PropertyField(right) != nil {
		left, right = right, left
		op = mirror(op)
	}
	if prop := left.OperandType(); ir.PropertyField(left) != nil {
		if d := operatorAllowed(op, prop, f.Pos); d != nil {
			return diag.Fail[ir.Constraint](d)
		}
		right = coerceOperand(right, prop)
		if d := c.checker.AssertAssignable(right.OperandType(), prop, f.Pos); d != nil {
			if d.IsError() {
				return diag.Fail[ir.Constraint](d)
			}
			return diag.OkWith[ir.Constraint](&ir.ComparisonConstraint{Operator: op, Left: left, Right: right}, d)
		}
	}
	return diag.Ok[ir.Constraint](&ir.ComparisonConstraint{Operator: op, Left: left, Right: right})
}

// mirror swaps the direction of an ordering operator so that a < b can be
// written as b > a.
func mirror(op ir.Operator) ir.Operator {
	var symbol string
	switch op.Symbol() {
	case "<":
		symbol = ">"
	case "<=":
		symbol = ">="
	case ">":
		symbol = "<"
	case ">=":
		symbol = "<="
	default:
		return op
	}
	m, _ := ir.ParseOperator(symbol)
	return m
}

// operatorAllowed enforces per-type operator legality: strings and booleans
// only compare for equality.
func operatorAllowed(op ir.Operator, prop ir.Type, pos syntax.Pos) *diag.Diagnostic {
	base := ir.BasePrimitive(prop)
	if op.IsEquality() || base == nil {
		return nil
	}
	if base == ir.String || base == ir.Boolean {
		return diag.Errorf(diag.TypeMismatch, pos,
			"Operator %s is not applicable to %s properties, only == and != are supported",
			op.Symbol(), base.Name().Simple())
	}
	return nil
}

// listOperatorAllowed rejects in and like against numeric and boolean
// properties.
func listOperatorAllowed(keyword string, prop ir.Type, pos syntax.Pos) *diag.Diagnostic {
	base := ir.BasePrimitive(prop)
	if base == nil {
		return nil
	}
	if base.IsNumeric() || base == ir.Boolean {
		return diag.Errorf(diag.TypeMismatch, pos,
			"Operator %s is not applicable to %s properties", keyword, base.Name().Simple())
	}
	return nil
}

func coerceOperand(o ir.ConstraintOperand, target ir.Type) ir.ConstraintOperand {
	v, ok := o.(*ir.ValueOperand)
	if !ok {
		return o
	}
	lit := coerceLiteral(&ir.LiteralExpression{Value: v.Value, Type: v.Type}, target)
	return &ir.ValueOperand{Value: lit.Value, Type: lit.Type}
}

func (c *Compiler) compileIn(ctx filterContext, f *syntax.InFilter) diag.Result[ir.Constraint] {
	keyword := "in"
	if f.Not {
		keyword = "not in"
	}
	subject := c.compileOperand(ctx, f.Subject)
	if subject.Failed() {
		return diag.FailList[ir.Constraint](subject.Diagnostics())
	}
	s := subject.Value()
	if ir.PropertyField(s) != nil {
		if d := listOperatorAllowed(keyword, s.OperandType(), f.Pos); d != nil {
			return diag.Fail[ir.Constraint](d)
		}
	}

	var diags diag.List
	values := make([]ir.IRValue, 0, len(f.Values))
	types := make([]ir.Type, 0, len(f.Values))
	for _, lit := range f.Values {
		v, p, d := literalValue(lit)
		if d != nil {
			diags.Add(d)
			continue
		}
		if len(values) > 0 {
			if first := values[0]; ir.ValueKind(first) != ir.ValueKind(v) {
				diags.Add(diag.Errorf(diag.TypeMismatch, lit.Pos,
					"Values of an %s list must all have the same type, but %s is %s and %s is %s",
					keyword, ir.FormatValue(first), ir.ValueKind(first), ir.FormatValue(v), ir.ValueKind(v)))
				break
			}
		}
		values = append(values, v)
		types = append(types, p)
	}
	if diags.HasErrors() {
		return diag.FailList[ir.Constraint](diags)
	}

	// Each value is coerced to the property and checked against it.
	if ir.PropertyField(s) != nil {
		prop := s.OperandType()
		for i := range values {
			o := coerceOperand(&ir.ValueOperand{Value: values[i], Type: types[i]}, prop).(*ir.ValueOperand)
			values[i] = o.Value
			diags.Add(c.checker.AssertAssignable(o.Type, prop, f.Values[i].Pos))
		}
		if diags.HasErrors() {
			return diag.FailList[ir.Constraint](diags)
		}
	}
	return diag.OkWith[ir.Constraint](&ir.InListConstraint{Subject: s, Values: values, Negated: f.Not}, diags...)
}

func (c *Compiler) compileLike(ctx filterContext, f *syntax.LikeFilter) diag.Result[ir.Constraint] {
	subject := c.compileOperand(ctx, f.Subject)
	if subject.Failed() {
		return diag.FailList[ir.Constraint](subject.Diagnostics())
	}
	s := subject.Value()
	if ir.PropertyField(s) != nil {
		if d := listOperatorAllowed("like", s.OperandType(), f.Pos); d != nil {
			return diag.Fail[ir.Constraint](d)
		}
	}
	return diag.Ok[ir.Constraint](&ir.LikeConstraint{Subject: s, Pattern: f.Pattern})
}

func (c *Compiler) compileOperand(ctx filterContext, o syntax.Operand) diag.Result[ir.ConstraintOperand] {
	switch v := o.(type) {
	case *syntax.PropertyOperand:
		return c.propertyByType(ctx, v)
	case *syntax.FieldOperand:
		return c.propertyByPath(ctx, v)
	case *syntax.LiteralOperand:
		val, prim, d := literalValue(v.Value)
		if d != nil {
			return diag.Fail[ir.ConstraintOperand](d)
		}
		return diag.Ok[ir.ConstraintOperand](&ir.ValueOperand{Value: val, Type: prim})
	case *syntax.ParamOperand:
		p, ok := ctx.params[v.Name]
		if !ok {
			return diag.Fail[ir.ConstraintOperand](diag.Errorf(diag.NotDefined, v.Pos,
				"Parameter %s is not defined", v.Name))
		}
		return diag.Ok[ir.ConstraintOperand](&ir.ParameterOperand{Name: p.Name, Type: p.Type})
	default:
		diag.Defectf(o.OperandPos(), "unexpected operand %T", o)
		return diag.Result[ir.ConstraintOperand]{}
	}
}

// propertyByType finds the single field, across every target, whose type is
// the operand's type.
func (c *Compiler) propertyByType(ctx filterContext, v *syntax.PropertyOperand) diag.Result[ir.ConstraintOperand] {
	r := c.resolveTypeRef(ctx.scope, v.Type)
	if r.Failed() {
		return diag.FailList[ir.ConstraintOperand](r.Diagnostics())
	}
	want := r.Value()
	var matches []*ir.Field
	for _, t := range ctx.targets {
		matches = append(matches, fieldsOfType(ir.CollectionMember(t), want)...)
	}
	switch len(matches) {
	case 0:
		return diag.Fail[ir.ConstraintOperand](diag.Errorf(diag.NotDefined, v.Pos,
			"No property of type %s exists on %s", want.Name(), targetNames(ctx.targets)))
	case 1:
		return diag.Ok[ir.ConstraintOperand](&ir.PropertyTypeOperand{Type: want, Field: matches[0]})
	default:
		return diag.Fail[ir.ConstraintOperand](diag.Errorf(diag.AmbiguousReference, v.Pos,
			"Property type %s is ambiguous on %s, it matches fields %s",
			want.Name(), targetNames(ctx.targets), fieldNames(matches)))
	}
}

func (c *Compiler) propertyByPath(ctx filterContext, v *syntax.FieldOperand) diag.Result[ir.ConstraintOperand] {
	path := v.Path
	if len(path) > 0 && path[0] == "this" {
		path = path[1:]
	}
	if len(path) == 0 || len(ctx.targets) == 0 {
		return diag.Fail[ir.ConstraintOperand](diag.Errorf(diag.StructuralError, v.Pos,
			"A field path needs a type to select from"))
	}
	var t ir.Type = ir.CollectionMember(ctx.targets[0])
	fields := make([]*ir.Field, 0, len(path))
	for _, name := range path {
		r := c.lookupField(t, name, v.Pos)
		if r.Failed() {
			return diag.FailList[ir.ConstraintOperand](r.Diagnostics())
		}
		f := r.Value()
		fields = append(fields, f)
		t = ir.CollectionMember(f.Type)
	}
	return diag.Ok[ir.ConstraintOperand](&ir.PropertyFieldOperand{Path: fields})
}

func targetNames(ts []ir.Type) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = string(typeName(t))
	}
	return strings.Join(names, ", ")
}
