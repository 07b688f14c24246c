package compiler

import (
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// exprContext is what an expression may refer to.
type exprContext struct {
	scope symbols.Scope
	// session is the enclosing type body; nil outside one, where field
	// references are not allowed.
	session *fieldSession
	// query allows query-only functions.
	query bool
}

func (c *Compiler) compileExpr(ctx exprContext, e syntax.Expr) diag.Result[ir.Expression] {
	d := c.guard.enter("expression", e.ExprPos())
	defer c.guard.leave()
	if d != nil {
		return diag.Fail[ir.Expression](d)
	}

	switch v := e.(type) {
	case *syntax.ParenExpr:
		return c.compileExpr(ctx, v.Inner)
	case *syntax.LiteralExpr:
		val, prim, ld := literalValue(v.Value)
		if ld != nil {
			return diag.Fail[ir.Expression](ld)
		}
		return diag.Ok[ir.Expression](&ir.LiteralExpression{Value: val, Type: prim})
	case *syntax.TypeRefExpr:
		return diag.Map(c.resolveTypeRef(ctx.scope, v.Type), func(t ir.Type) ir.Expression {
			return &ir.TypeReferenceExpression{Type: t}
		})
	case *syntax.CallExpr:
		return c.compileCall(ctx, v)
	case *syntax.BinaryExpr:
		return c.compileBinary(ctx, v)
	case *syntax.CastExpr:
		return c.compileCast(ctx, v)
	case *syntax.FieldRefExpr:
		return c.compileFieldRef(ctx, v)
	case *syntax.AttrRefExpr:
		return c.compileAttrRef(ctx, v)
	case *syntax.ProjectionExpr:
		return c.compileProjection(ctx, v)
	default:
		diag.Defectf(e.ExprPos(), "unexpected expression %T", e)
		return diag.Result[ir.Expression]{}
	}
}

// compileBinary compiles both operands even when one fails, so every error
// in the expression is reported at once.
func (c *Compiler) compileBinary(ctx exprContext, v *syntax.BinaryExpr) diag.Result[ir.Expression] {
	left := c.compileExpr(ctx, v.Left)
	right := c.compileExpr(ctx, v.Right)
	diags := diag.Collect(left, right)
	op, ok := ir.ParseOperator(v.Op)
	if !ok {
		diags.Add(diag.Errorf(diag.StructuralError, v.Pos, "Unknown operator %s", v.Op))
	}
	if diags.HasErrors() {
		return diag.FailList[ir.Expression](diags)
	}

	l, r := left.Value(), right.Value()
	ll, leftLit := l.(*ir.LiteralExpression)
	rl, rightLit := r.(*ir.LiteralExpression)
	switch {
	case leftLit && !rightLit:
		l = coerceLiteral(ll, r.ReturnType())
	case rightLit && !leftLit:
		r = coerceLiteral(rl, l.ReturnType())
	}

	ret, rd := binaryResultType(op, l.ReturnType(), r.ReturnType(), v.Pos)
	if rd != nil {
		return diag.FailList[ir.Expression](append(diags, rd))
	}
	return diag.OkWith[ir.Expression](&ir.BinaryOperatorExpression{
		Operator: op,
		Left:     l,
		Right:    r,
		Return:   ret,
	}, diags...)
}

// operandPrimitive returns the base primitive of t, and whether t is
// dynamic (Any, a type parameter or unknown) and so fits any operator.
func operandPrimitive(t ir.Type) (*ir.Primitive, bool) {
	if ir.IsAny(t) {
		return nil, true
	}
	if _, ok := t.(*ir.TypeParameter); ok {
		return nil, true
	}
	return ir.BasePrimitive(t), false
}

// binaryResultType checks that op applies to the operand types and infers
// the result: comparisons and logical operators give Boolean; arithmetic
// gives Double if either side is Double, else Decimal if either side is
// Decimal, else Int; + on two strings gives String.
func binaryResultType(op ir.Operator, lt, rt ir.Type, pos syntax.Pos) (ir.Type, *diag.Diagnostic) {
	lp, lDyn := operandPrimitive(lt)
	rp, rDyn := operandPrimitive(rt)
	ok := false
	var ret ir.Type
	switch {
	case op.IsEquality():
		ok, ret = true, ir.Boolean
	case op.IsLogical():
		ok = (lDyn || lp == ir.Boolean) && (rDyn || rp == ir.Boolean)
		ret = ir.Boolean
	case op.IsOrdering():
		ret = ir.Boolean
		switch {
		case lDyn || rDyn:
			ok = true
		case lp == nil || rp == nil:
		case lp.IsNumeric() && rp.IsNumeric():
			ok = true
		case lp == rp && (lp == ir.String || lp.IsTemporal()):
			ok = true
		}
	case op.IsArithmetic():
		switch {
		case lDyn && rDyn:
			ok, ret = true, ir.Any
		case lDyn:
			ok, ret = arithmeticOperand(op, rp), rp
		case rDyn:
			ok, ret = arithmeticOperand(op, lp), lp
		case lp == nil || rp == nil:
		case lp.IsNumeric() && rp.IsNumeric():
			ok, ret = true, numericResult(lp, rp)
		case op == ir.OpAdd && lp == ir.String && rp == ir.String:
			ok, ret = true, ir.String
		}
	}
	if !ok {
		return nil, diag.Errorf(diag.StructuralError, pos,
			"Operator %s is not applicable to types %s and %s", op, typeName(lt), typeName(rt))
	}
	return ret, nil
}

func arithmeticOperand(op ir.Operator, p *ir.Primitive) bool {
	return p != nil && (p.IsNumeric() || (op == ir.OpAdd && p == ir.String))
}

func numericResult(a, b *ir.Primitive) *ir.Primitive {
	switch {
	case a == ir.Double || b == ir.Double:
		return ir.Double
	case a == ir.Decimal || b == ir.Decimal:
		return ir.Decimal
	default:
		return ir.Int
	}
}

func typeName(t ir.Type) ir.QualifiedName {
	if t == nil {
		return ir.Any.Name()
	}
	return t.Name()
}

// compileCast allows casts between related types and between any two
// types that both have a base primitive.
func (c *Compiler) compileCast(ctx exprContext, v *syntax.CastExpr) diag.Result[ir.Expression] {
	target := c.resolveTypeRef(ctx.scope, v.Type)
	inner := c.compileExpr(ctx, v.Inner)
	diags := diag.Collect(target, inner)
	if diags.HasErrors() {
		return diag.FailList[ir.Expression](diags)
	}
	t, e := target.Value(), inner.Value()
	from := e.ReturnType()
	castable := ir.IsAny(from) ||
		typecheck.IsAssignable(from, t) ||
		typecheck.IsAssignable(t, from) ||
		(ir.BasePrimitive(from) != nil && ir.BasePrimitive(t) != nil)
	if !castable {
		return diag.Fail[ir.Expression](diag.Errorf(diag.StructuralError, v.Pos,
			"Cannot cast %s to %s", typeName(from), t.Name()))
	}
	if lit, ok := e.(*ir.LiteralExpression); ok {
		e = coerceLiteral(lit, t)
	}
	return diag.OkWith[ir.Expression](&ir.CastExpression{Type: t, Inner: e}, diags...)
}

// compileFieldRef resolves this.a.b against the enclosing body. Each step
// after the first is looked up on the type of the previous field.
func (c *Compiler) compileFieldRef(ctx exprContext, v *syntax.FieldRefExpr) diag.Result[ir.Expression] {
	path := v.Path
	if len(path) > 0 && path[0] == "this" {
		path = path[1:]
	}
	if len(path) == 0 {
		return diag.Fail[ir.Expression](diag.Errorf(diag.StructuralError, v.Pos, "Field reference must name a field"))
	}
	if ctx.session == nil {
		return diag.Fail[ir.Expression](diag.Errorf(diag.StructuralError, v.Pos,
			"Field reference this.%s is only valid inside a type body", strings.Join(path, ".")))
	}
	owner := ctx.session.owner
	var cur ir.Type = owner
	fields := make([]*ir.Field, 0, len(path))
	for _, name := range path {
		r := c.lookupField(cur, name, v.Pos)
		if r.Failed() {
			return diag.FailList[ir.Expression](r.Diagnostics())
		}
		f := r.Value()
		fields = append(fields, f)
		cur = f.Type
	}
	return diag.Ok[ir.Expression](&ir.FieldReference{Owner: owner, Path: fields})
}

// compileAttrRef compiles Source::name. The name is first looked up as a
// field of Source; failing that it is resolved as a type and must match
// exactly one field of that type. A collection source yields a collection.
func (c *Compiler) compileAttrRef(ctx exprContext, v *syntax.AttrRefExpr) diag.Result[ir.Expression] {
	src := c.resolveTypeRef(ctx.scope, v.Source)
	if src.Failed() {
		return diag.FailList[ir.Expression](src.Diagnostics())
	}
	source := src.Value()
	member := ir.CollectionMember(source)

	field, found := c.findField(member, v.Field, map[ir.Type]bool{})
	if !found {
		field = c.fieldByTypeName(ctx.scope, member, v.Field, v.Pos)
	}
	if field.Failed() {
		return diag.FailList[ir.Expression](field.Diagnostics())
	}
	f := field.Value()
	var ret ir.Type = f.Type
	if ir.IsCollectionLike(source) {
		ret = ir.ArrayOf(f.Type)
	}
	return diag.Ok[ir.Expression](&ir.ModelAttributeReference{Source: source, Field: f, Return: ret})
}

func (c *Compiler) fieldByTypeName(scope symbols.Scope, owner ir.Type, name string, pos syntax.Pos) diag.Result[*ir.Field] {
	notDefined := diag.Fail[*ir.Field](diag.Errorf(diag.NotDefined, pos,
		"Field %s is not defined on type %s", name, owner.Name()))
	q, d := c.resolver.Resolve(scope, name, pos)
	if d != nil {
		return notDefined
	}
	t := c.typeNamed(q, pos)
	if t.Failed() {
		return notDefined
	}
	matches := fieldsOfType(owner, t.Value())
	switch len(matches) {
	case 0:
		return diag.Fail[*ir.Field](diag.Errorf(diag.NotDefined, pos,
			"Type %s has no field of type %s", owner.Name(), q))
	case 1:
		return diag.Ok(matches[0])
	default:
		return diag.Fail[*ir.Field](diag.Errorf(diag.AmbiguousReference, pos,
			"Type %s has more than one field of type %s (%s)", owner.Name(), q, fieldNames(matches)))
	}
}

// compileProjection compiles "source as Target" and "source as { ... }".
// The target must match the source in being a collection or not; an
// anonymous body over a collection source projects each member.
func (c *Compiler) compileProjection(ctx exprContext, v *syntax.ProjectionExpr) diag.Result[ir.Expression] {
	src := c.compileExpr(ctx, v.Source)
	if src.Failed() {
		return src
	}
	source := src.Value()
	srcType := source.ReturnType()
	isList := ir.IsCollectionLike(srcType)

	var base ir.Type
	if v.Target != nil {
		r := c.resolveTypeRef(ctx.scope, *v.Target)
		if r.Failed() {
			return diag.FailList[ir.Expression](r.Diagnostics())
		}
		base = r.Value()
	}

	switch {
	case v.Body != nil:
		owner := ir.NewQualifiedName(ctx.scope.Namespace, c.names.Next("Projection"))
		obj := ir.NewObjectType(owner)
		var inherits []ir.Type
		if base != nil {
			inherits = []ir.Type{ir.CollectionMember(base)}
		}
		diags := c.compileAnonymous(obj, ctx.scope, v.Body, sessionOptions{
			query:      ctx.query,
			projection: ir.CollectionMember(srcType),
		}, inherits)
		var target ir.Type = obj
		if isList {
			target = ir.ArrayOf(obj)
		}
		return diag.OkWith[ir.Expression](&ir.CollectionProjection{Source: source, Target: target}, diags...)
	case base != nil:
		if isList != ir.IsCollectionLike(base) {
			return diag.Fail[ir.Expression](symmetryError(v.Pos, srcType, base))
		}
		return diag.Ok[ir.Expression](&ir.CollectionProjection{Source: source, Target: base})
	default:
		diag.Defectf(v.Pos, "projection without a target")
		return diag.Result[ir.Expression]{}
	}
}

func symmetryError(pos syntax.Pos, source, target ir.Type) *diag.Diagnostic {
	return diag.Errorf(diag.StructuralError, pos,
		"The source type %s and the projected type %s should either be list or single entity",
		typeName(source), typeName(target))
}
