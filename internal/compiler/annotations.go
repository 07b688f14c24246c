package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// compileAnnotations compiles annotation usages. An annotation whose name
// resolves to a declared annotation type has its arguments checked against
// that type's fields; any other annotation is kept as written with its
// arguments unchecked.
func (c *Compiler) compileAnnotations(scope symbols.Scope, anns []syntax.Annotation) diag.Result[[]*ir.Annotation] {
	if len(anns) == 0 {
		return diag.Ok[[]*ir.Annotation](nil)
	}
	rs := make([]diag.Result[*ir.Annotation], len(anns))
	for i := range anns {
		rs[i] = c.compileAnnotation(scope, &anns[i])
	}
	return diag.All(rs)
}

func (c *Compiler) compileAnnotation(scope symbols.Scope, a *syntax.Annotation) diag.Result[*ir.Annotation] {
	at, d := c.annotationType(scope, a)
	if d != nil {
		return diag.Fail[*ir.Annotation](d)
	}
	if at == nil {
		return c.rawAnnotation(a)
	}

	var diags diag.List
	out := &ir.Annotation{Name: at.Name(), Type: at}
	given := map[string]bool{}
	for _, p := range a.Params {
		f := at.Field(p.Name)
		if f == nil {
			diags.Add(diag.Errorf(diag.NotDefined, p.Pos,
				"Annotation %s has no parameter %s", at.Name(), p.Name))
			continue
		}
		given[p.Name] = true
		v, prim, ld := literalValue(p.Value)
		if ld != nil {
			diags.Add(ld)
			continue
		}
		lit := coerceLiteral(&ir.LiteralExpression{Value: v, Type: prim}, f.Type)
		if prim != ir.Any {
			if ad := c.checker.AssertAssignable(lit.Type, f.Type, p.Pos); ad != nil {
				diags.Add(ad)
				if ad.IsError() {
					continue
				}
			}
		} else if !f.Nullable {
			diags.Add(diag.Errorf(diag.TypeMismatch, p.Pos,
				"Parameter %s of annotation %s is not nullable", p.Name, at.Name()))
			continue
		}
		out.Params = append(out.Params, ir.AnnotationArg{Name: p.Name, Value: lit.Value})
	}
	for _, f := range at.Fields() {
		if !given[f.Name] && !f.Nullable {
			diags.Add(diag.Errorf(diag.StructuralError, a.Pos,
				"Annotation %s requires parameter %s", at.Name(), f.Name))
		}
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Annotation](diags)
	}
	return diag.OkWith(out, diags...)
}

// annotationType resolves the annotation's name without reporting a missing
// type: undeclared annotations are allowed. An ambiguous name is still an
// error.
func (c *Compiler) annotationType(scope symbols.Scope, a *syntax.Annotation) (*ir.AnnotationType, *diag.Diagnostic) {
	q, d := c.resolver.Resolve(scope, a.Name, a.Pos)
	if d != nil {
		if d.Code == diag.AmbiguousReference {
			return nil, d
		}
		return nil, nil
	}
	slot, ok := c.reg.Slot(q)
	if !ok || slot.Kind != symbols.KindAnnotation {
		return nil, nil
	}
	if d := c.guard.enter(string(q), a.Pos); d != nil {
		c.guard.leave()
		return nil, d
	}
	defer c.guard.leave()
	at, _ := c.ensureType(slot).(*ir.AnnotationType)
	return at, nil
}

func (c *Compiler) rawAnnotation(a *syntax.Annotation) diag.Result[*ir.Annotation] {
	var diags diag.List
	out := &ir.Annotation{Name: ir.QualifiedName(a.Name)}
	for _, p := range a.Params {
		v, _, ld := literalValue(p.Value)
		if ld != nil {
			diags.Add(ld)
			continue
		}
		out.Params = append(out.Params, ir.AnnotationArg{Name: p.Name, Value: v})
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Annotation](diags)
	}
	return diag.Ok(out)
}
