package compiler

import (
	"fmt"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

func (c *Compiler) compileView(scope symbols.Scope, name ir.QualifiedName, d *syntax.ViewDecl) diag.Result[*ir.View] {
	var diags diag.List
	v := &ir.View{Name: name}
	v.Doc = d.Doc
	v.AddUnit(unitOf(d.Pos))

	annotations := c.compileAnnotations(scope, d.Annotations)
	diags.Merge(annotations.Diagnostics())
	v.Annotations = annotations.Value()

	if len(d.Finds) == 0 {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos, "View %s must contain at least one find block", name))
	}
	for i := range d.Finds {
		r := c.compileViewFind(scope, name, i, &d.Finds[i])
		diags.Merge(r.Diagnostics())
		if f, ok := r.Get(); ok {
			v.Finds = append(v.Finds, f)
		}
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.View](diags)
	}
	return diag.OkWith(v, diags...)
}

// compileViewFind compiles "find { A[] (joinTo B[]) } (filter) as { ... }".
// Every later type is joined to the first through a pair of fields sharing
// a semantic type.
func (c *Compiler) compileViewFind(scope symbols.Scope, view ir.QualifiedName, index int, d *syntax.ViewFindDecl) diag.Result[*ir.ViewFind] {
	types := c.resolveTypeRefs(scope, d.Types)
	if types.Failed() {
		return diag.FailList[*ir.ViewFind](types.Diagnostics())
	}
	var diags diag.List
	find := &ir.ViewFind{Types: types.Value()}
	if len(find.Types) == 0 {
		return diag.Fail[*ir.ViewFind](diag.Errorf(diag.StructuralError, d.Pos,
			"Find block %d of view %s names no types", index+1, view))
	}

	left, ok := ir.Unwrap(ir.CollectionMember(find.Types[0])).(*ir.ObjectType)
	if !ok {
		return diag.Fail[*ir.ViewFind](diag.Errorf(diag.StructuralError, d.Pos,
			"View %s can only find model types, not %s", view, typeName(find.Types[0])))
	}
	for _, t := range find.Types[1:] {
		right, ok := ir.Unwrap(ir.CollectionMember(t)).(*ir.ObjectType)
		if !ok {
			diags.Add(diag.Errorf(diag.StructuralError, d.Pos,
				"View %s can only find model types, not %s", view, typeName(t)))
			continue
		}
		join, d := inferJoin(left, right, d.Pos)
		if d != nil {
			diags.Add(d)
			continue
		}
		find.Joins = append(find.Joins, join)
	}

	if d.Filter != nil {
		r := c.compileFilter(filterContext{scope: scope, targets: find.Types}, d.Filter)
		diags.Merge(r.Diagnostics())
		if con, ok := r.Get(); ok {
			find.Filter = []ir.Constraint{con}
		}
	}

	if d.Body != nil {
		obj := ir.NewObjectType(ir.NewQualifiedName(scope.Namespace, c.names.Next(fmt.Sprintf("%s$Find%d", view.Simple(), index+1))))
		bodyDiags := c.compileAnonymous(obj, scope, d.Body, sessionOptions{query: true}, nil)
		diags.Merge(bodyDiags)
		if !bodyDiags.HasErrors() {
			diags.Add(viewFieldErrors(obj, find.Types, d.Body)...)
		}
		find.Projection = obj
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.ViewFind](diags)
	}
	return diag.OkWith(find, diags...)
}

// inferJoin finds the first pair of fields, in declaration order, whose
// types are the same non-primitive type.
func inferJoin(left, right *ir.ObjectType, pos syntax.Pos) (*ir.ViewJoin, *diag.Diagnostic) {
	for _, lf := range left.AllFields() {
		lt := ir.Unwrap(lf.Type)
		if _, primitive := lt.(*ir.Primitive); primitive || lt == nil {
			continue
		}
		for _, rf := range right.AllFields() {
			if ir.Unwrap(rf.Type) == lt {
				return &ir.ViewJoin{Left: left, Right: right, LeftField: lf, RightField: rf}, nil
			}
		}
	}
	return nil, diag.Errorf(diag.StructuralError, pos,
		"Cannot join %s to %s, they share no field of the same type", left.Name(), right.Name())
}

// viewFieldErrors requires every view field to read from one of the found
// types (Type::field) or to aggregate with a query function.
func viewFieldErrors(obj *ir.ObjectType, types []ir.Type, body *syntax.TypeBody) []*diag.Diagnostic {
	found := map[ir.Type]bool{}
	for _, t := range types {
		found[ir.Unwrap(ir.CollectionMember(t))] = true
	}
	pos := map[string]syntax.Pos{}
	for _, fd := range body.Fields {
		pos[fd.Name] = fd.Pos
	}

	var out []*diag.Diagnostic
	for _, f := range obj.Fields() {
		switch e := f.Expression().(type) {
		case *ir.ModelAttributeReference:
			if found[ir.Unwrap(ir.CollectionMember(e.Source))] {
				continue
			}
			out = append(out, diag.Errorf(diag.StructuralError, pos[f.Name],
				"View field %s reads from %s, which is not found by this view", f.Name, typeName(e.Source)))
		case *ir.FunctionCall:
			if e.Function.IsQueryOnly() {
				continue
			}
			out = append(out, diag.Errorf(diag.StructuralError, pos[f.Name],
				"View field %s must use a query function, %s is not one", f.Name, e.Function.Name()))
		default:
			out = append(out, diag.Errorf(diag.StructuralError, pos[f.Name],
				"View field %s must be a Type::field reference or a query function call", f.Name))
		}
	}
	return out
}
