package compiler

import (
	"fmt"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

var functionModifiers = []string{ir.FunctionModifierQuery, ir.FunctionModifierExtension}

// ensureFunction compiles a declared function signature on first use, so
// calls may appear before the declaration.
func (c *Compiler) ensureFunction(slot *symbols.FunctionSlot, pos syntax.Pos) diag.Result[*ir.Function] {
	switch slot.State {
	case symbols.Defined:
		return diag.Ok(slot.Function)
	case symbols.Compiling:
		return diag.Fail[*ir.Function](diag.Errorf(diag.CyclicDependency, pos,
			"Function %s has a cyclic dependency on itself", slot.Name))
	case symbols.Failed:
		if slot.Function.IsDefined() {
			return diag.Ok(slot.Function)
		}
		return diag.Fail[*ir.Function](diag.Errorf(diag.NotDefined, pos,
			"Function %s could not be compiled", slot.Name))
	}
	if slot.Decl == nil {
		diag.Defectf(pos, "function %s has no declaration", slot.Name)
	}

	slot.State = symbols.Compiling
	c.logger.Debug("compiling function", "function", slot.Name)
	diags := c.guarded(func() diag.List { return c.compileFunctionDecl(slot) })
	c.diags.Merge(diags)
	if diags.HasErrors() {
		slot.State = symbols.Failed
	} else {
		slot.State = symbols.Defined
	}
	if !slot.Function.IsDefined() {
		return diag.Fail[*ir.Function](diag.Errorf(diag.NotDefined, pos,
			"Function %s could not be compiled", slot.Name))
	}
	return diag.Ok(slot.Function)
}

func (c *Compiler) compileFunctionDecl(slot *symbols.FunctionSlot) diag.List {
	d := slot.Decl
	fn := slot.Function
	var diags diag.List

	typeParams := make([]*ir.TypeParameter, 0, len(d.TypeParams))
	seen := map[string]bool{}
	for _, name := range d.TypeParams {
		if seen[name] {
			diags.Add(diag.Errorf(diag.StructuralError, d.Pos, "Type parameter %s is declared more than once", name))
			continue
		}
		seen[name] = true
		typeParams = append(typeParams, &ir.TypeParameter{Param: name})
	}
	scope := symbols.ScopeOf(slot.Doc).WithTypeParams(typeParams)

	modifiers, mds := checkModifiers(d.Modifiers, functionModifiers, "function", d.Pos)
	diags.Add(mds...)

	params := c.compileParams(scope, d.Params, nil)
	diags.Merge(params.Diagnostics())
	for i, p := range d.Params {
		if p.Vararg && i != len(d.Params)-1 {
			diags.Add(diag.Errorf(diag.StructuralError, p.Pos,
				"Only the last parameter of %s may be a vararg", slot.Name))
		}
	}
	if containsString(modifiers, ir.FunctionModifierExtension) && len(d.Params) == 0 {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos,
			"Extension function %s must take its receiver as the first parameter", slot.Name))
	}

	var ret ir.Type = ir.Void
	if d.Returns.Name != "" {
		r := c.resolveTypeRef(scope, d.Returns)
		diags.Merge(r.Diagnostics())
		if t, ok := r.Get(); ok {
			ret = t
		}
	}

	fn.Define(&ir.FunctionDefinition{
		TypeParams: typeParams,
		Params:     params.Value(),
		Return:     ret,
		Modifiers:  modifiers,
	})
	fn.Doc = d.Doc
	fn.AddUnit(unitOf(d.Pos))
	return diags
}

// compileParams compiles parameter declarations. Parameter constraints see
// the other parameters through params, when given.
func (c *Compiler) compileParams(scope symbols.Scope, decls []syntax.ParamDecl, params map[string]*ir.Parameter) diag.Result[[]*ir.Parameter] {
	var diags diag.List
	var sites []site
	out := make([]*ir.Parameter, 0, len(decls))
	pending := make([]*syntax.ParamDecl, 0, len(decls))
	for i := range decls {
		pd := &decls[i]
		sites = append(sites, site{name: pd.Name, pos: pd.Pos})
		t := c.resolveTypeRef(scope, pd.Type)
		annotations := c.compileAnnotations(scope, pd.Annotations)
		diags.Merge(diag.Collect(t, annotations))
		if t.Failed() {
			continue
		}
		p := &ir.Parameter{
			Name:        pd.Name,
			Type:        t.Value(),
			Vararg:      pd.Vararg,
			Nullable:    pd.Nullable || pd.Type.Nullable,
			Annotations: annotations.Value(),
		}
		out = append(out, p)
		pending = append(pending, pd)
		if params != nil && pd.Name != "" {
			params[pd.Name] = p
		}
	}
	diags.Add(duplicateSites("Parameter", "the parameter list", sites)...)

	for i, pd := range pending {
		if pd.Constraints == nil {
			continue
		}
		ctx := filterContext{scope: scope, targets: []ir.Type{out[i].Type}, params: params}
		r := c.compileFilter(ctx, pd.Constraints)
		diags.Merge(r.Diagnostics())
		if con, ok := r.Get(); ok {
			out[i].Constraints = []ir.Constraint{con}
		}
	}
	return diag.OkWith(out, diags...)
}

func (c *Compiler) functionNamed(scope symbols.Scope, name string, pos syntax.Pos) diag.Result[*ir.Function] {
	q, d := c.resolver.ResolveFunction(scope, name, pos)
	if d != nil {
		return diag.Fail[*ir.Function](d)
	}
	slot, ok := c.reg.Function(q)
	if !ok {
		diag.Defectf(pos, "resolved function %s has no slot", q)
	}
	return c.ensureFunction(slot, pos)
}

// compileCall compiles a function call or, with a receiver, an extension
// call. Arguments and the receiver are compiled before the function is
// resolved so their errors are reported even when the name is wrong.
func (c *Compiler) compileCall(ctx exprContext, call *syntax.CallExpr) diag.Result[ir.Expression] {
	var diags diag.List
	var args []ir.Expression
	var positions []syntax.Pos

	if call.Receiver != nil {
		r := c.compileExpr(ctx, call.Receiver)
		diags.Merge(r.Diagnostics())
		args = append(args, r.Value())
		positions = append(positions, call.Receiver.ExprPos())
	}
	for _, a := range call.Args {
		r := c.compileExpr(ctx, a)
		diags.Merge(r.Diagnostics())
		args = append(args, r.Value())
		positions = append(positions, a.ExprPos())
	}

	fn := c.functionNamed(ctx.scope, call.Name, call.Pos)
	diags.Merge(fn.Diagnostics())
	if diags.HasErrors() {
		return diag.FailList[ir.Expression](diags)
	}
	f := fn.Value()

	if f.IsQueryOnly() && !ctx.query {
		diags.Add(diag.Errorf(diag.StructuralError, call.Pos,
			"Function %s can only be used in a query or a view", f.Name()))
	}
	if call.Receiver != nil && !f.IsExtension() {
		diags.Add(diag.Errorf(diag.StructuralError, call.Pos,
			"Function %s is not an extension function and cannot be called on a value", f.Name()))
	}
	if diags.HasErrors() {
		return diag.FailList[ir.Expression](diags)
	}

	bound, ret, bd := c.bindArguments(f, args, positions, call.Pos)
	diags.Add(bd...)
	if diags.HasErrors() {
		return diag.FailList[ir.Expression](diags)
	}
	if call.Receiver != nil {
		return diag.OkWith[ir.Expression](&ir.ExtensionFunctionCall{
			Function: f,
			Receiver: bound[0],
			Args:     bound[1:],
			Return:   ret,
		}, diags...)
	}
	return diag.OkWith[ir.Expression](&ir.FunctionCall{Function: f, Args: bound, Return: ret}, diags...)
}

// bindArguments matches arguments to parameters, binds generic type
// parameters from argument types, coerces literal arguments and checks each
// argument against its (substituted) parameter type. The last parameter
// absorbs any number of arguments when it is a vararg.
func (c *Compiler) bindArguments(f *ir.Function, args []ir.Expression, positions []syntax.Pos, pos syntax.Pos) ([]ir.Expression, ir.Type, []*diag.Diagnostic) {
	def := f.Definition()
	params := def.Params
	fixed := len(params)
	variadic := fixed > 0 && params[fixed-1].Vararg
	if variadic {
		fixed--
	}
	required := 0
	for i := 0; i < fixed; i++ {
		if !params[i].Nullable {
			required = i + 1
		}
	}
	if len(args) < required || (!variadic && len(args) > len(params)) {
		expected := fmt.Sprintf("%d", len(params))
		switch {
		case variadic:
			expected = fmt.Sprintf("at least %d", required)
		case required != len(params):
			expected = fmt.Sprintf("%d to %d", required, len(params))
		}
		return nil, nil, []*diag.Diagnostic{diag.Errorf(diag.StructuralError, pos,
			"Function %s expects %s arguments but was given %d", f.Name(), expected, len(args))}
	}

	paramFor := func(i int) *ir.Parameter {
		if i < fixed {
			return params[i]
		}
		return params[len(params)-1]
	}

	bindings := map[string]ir.Type{}
	for i, a := range args {
		bindTypeParams(paramFor(i).Type, a.ReturnType(), bindings)
	}

	var diags []*diag.Diagnostic
	out := make([]ir.Expression, len(args))
	for i, a := range args {
		expected := substitute(paramFor(i).Type, bindings)
		if lit, ok := a.(*ir.LiteralExpression); ok {
			a = coerceLiteral(lit, expected)
		}
		if d := c.checker.AssertAssignable(a.ReturnType(), expected, positions[i]); d != nil {
			diags = append(diags, d)
		}
		out[i] = a
	}
	return out, substitute(def.Return, bindings), diags
}

// bindTypeParams records the first binding of every type parameter that
// appears in expected, matching through arrays, streams and maps.
func bindTypeParams(expected, actual ir.Type, bindings map[string]ir.Type) {
	if actual == nil {
		return
	}
	switch e := expected.(type) {
	case *ir.TypeParameter:
		if _, ok := bindings[e.Param]; !ok {
			bindings[e.Param] = actual
		}
	case *ir.ArrayType:
		if a, ok := ir.Unwrap(actual).(*ir.ArrayType); ok {
			bindTypeParams(e.Member, a.Member, bindings)
		}
	case *ir.StreamType:
		if a, ok := ir.Unwrap(actual).(*ir.StreamType); ok {
			bindTypeParams(e.Member, a.Member, bindings)
		}
	case *ir.MapType:
		if a, ok := ir.Unwrap(actual).(*ir.MapType); ok {
			bindTypeParams(e.Key, a.Key, bindings)
			bindTypeParams(e.Value, a.Value, bindings)
		}
	}
}

// substitute replaces bound type parameters. Unbound parameters become
// their bound, or Any.
func substitute(t ir.Type, bindings map[string]ir.Type) ir.Type {
	switch v := t.(type) {
	case *ir.TypeParameter:
		if b, ok := bindings[v.Param]; ok {
			return b
		}
		if v.Bound != nil {
			return v.Bound
		}
		return ir.Any
	case *ir.ArrayType:
		return ir.ArrayOf(substitute(v.Member, bindings))
	case *ir.StreamType:
		return ir.StreamOf(substitute(v.Member, bindings))
	case *ir.MapType:
		return &ir.MapType{Key: substitute(v.Key, bindings), Value: substitute(v.Value, bindings)}
	default:
		return t
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
