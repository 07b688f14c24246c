package compiler

import (
	"slices"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

var (
	objectModifiers = []string{ir.ModifierClosed, ir.ModifierAbstract, ir.ModifierParameter}
	fieldModifiers  = []string{ir.ModifierClosed}
)

// ensureType compiles a declared slot and returns its type.
//
// CRITICAL: a slot that is already Compiling returns its shell without
// error. This is what lets X = Y + Z, Y = X + Z and Z = X + Y compile: the
// shells carry the partial definitions published so far.
func (c *Compiler) ensureType(slot *symbols.Slot) ir.Type {
	if slot.State != symbols.Declared || slot.Decl == nil {
		return slot.Type
	}
	slot.State = symbols.Compiling
	c.logger.Debug("compiling type", "type", slot.Name, "kind", slot.Kind.String())

	diags := c.guarded(func() diag.List { return c.compileTypeDecl(slot) })
	c.diags.Merge(diags)
	if named, ok := slot.Type.(ir.Named); ok {
		for _, site := range slot.Sites {
			named.Metadata().AddUnit(unitOf(site))
		}
	}
	if diags.HasErrors() {
		slot.State = symbols.Failed
		c.logger.Debug("type failed", "type", slot.Name, "errors", len(diags.Errors()))
	} else {
		slot.State = symbols.Defined
	}
	return slot.Type
}

func (c *Compiler) compileTypeDecl(slot *symbols.Slot) diag.List {
	scope := symbols.ScopeOf(slot.Doc)
	switch d := slot.Decl.(type) {
	case *syntax.TypeDecl:
		return c.compileObject(scope, slot.Type.(*ir.ObjectType), d)
	case *syntax.EnumDecl:
		return c.compileEnum(scope, slot.Type.(*ir.EnumType), d)
	case *syntax.AliasDecl:
		return c.compileAlias(scope, slot.Type.(*ir.TypeAlias), d)
	case *syntax.UnionDecl:
		return c.compileUnion(scope, slot.Type.(*ir.UnionType), d)
	case *syntax.JoinDecl:
		return c.compileJoin(scope, slot.Type.(*ir.JoinType), d)
	case *syntax.AnnotationTypeDecl:
		return c.compileAnnotationType(scope, slot.Type.(*ir.AnnotationType), d)
	default:
		diag.Defectf(slot.Decl.DeclPos(), "unexpected type declaration %T", slot.Decl)
		return nil
	}
}

// resolveTypeRef turns a source reference into a type, compiling the named
// declaration on demand.
func (c *Compiler) resolveTypeRef(scope symbols.Scope, ref syntax.TypeRef) diag.Result[ir.Type] {
	if ref.Name == "" {
		diag.Defectf(ref.Pos, "type reference without a name")
	}
	if tp, ok := scope.TypeParams[ref.Name]; ok {
		if len(ref.Params) > 0 {
			return diag.Fail[ir.Type](diag.Errorf(diag.StructuralError, ref.Pos,
				"Type parameter %s does not take type arguments", ref.Name))
		}
		return diag.Ok[ir.Type](tp)
	}
	if ir.IsBuiltinGeneric(ref.Name) {
		return c.resolveGeneric(scope, ref)
	}
	if len(ref.Params) > 0 {
		return diag.Fail[ir.Type](diag.Errorf(diag.StructuralError, ref.Pos,
			"Type %s does not take type arguments", ref.Name))
	}
	name, d := c.resolver.Resolve(scope, ref.Name, ref.Pos)
	if d != nil {
		return diag.Fail[ir.Type](d)
	}
	return c.typeNamed(name, ref.Pos)
}

func (c *Compiler) resolveTypeRefs(scope symbols.Scope, refs []syntax.TypeRef) diag.Result[[]ir.Type] {
	results := make([]diag.Result[ir.Type], len(refs))
	for i, ref := range refs {
		results[i] = c.resolveTypeRef(scope, ref)
	}
	return diag.All(results)
}

func (c *Compiler) typeNamed(name ir.QualifiedName, pos syntax.Pos) diag.Result[ir.Type] {
	if p, ok := ir.PrimitiveByName(string(name)); ok {
		return diag.Ok[ir.Type](p)
	}
	slot, ok := c.reg.Slot(name)
	if !ok {
		return diag.Fail[ir.Type](diag.Errorf(diag.NotDefined, pos, "%s is not defined", name))
	}
	if slot.State == symbols.Declared && slot.Decl != nil {
		d := c.guard.enter(string(name), pos)
		defer c.guard.leave()
		if d != nil {
			return diag.Fail[ir.Type](d)
		}
		c.ensureType(slot)
	}
	return diag.Ok(slot.Type)
}

func (c *Compiler) resolveGeneric(scope symbols.Scope, ref syntax.TypeRef) diag.Result[ir.Type] {
	params := c.resolveTypeRefs(scope, ref.Params)
	if params.Failed() {
		return diag.FailList[ir.Type](params.Diagnostics())
	}
	args := params.Value()
	base := ir.QualifiedName(ref.Name).Simple()
	arity := func(n int) diag.Result[ir.Type] {
		return diag.Fail[ir.Type](diag.Errorf(diag.StructuralError, ref.Pos,
			"%s takes %d type arguments but %d were given", base, n, len(args)))
	}
	switch base {
	case "Array", "Stream":
		member := ir.Type(ir.Any)
		switch len(args) {
		case 0:
		case 1:
			member = args[0]
		default:
			return arity(1)
		}
		if base == "Stream" {
			return diag.Ok[ir.Type](ir.StreamOf(member))
		}
		return diag.Ok[ir.Type](ir.ArrayOf(member))
	case "Map":
		switch len(args) {
		case 0:
			return diag.Ok[ir.Type](&ir.MapType{Key: ir.Any, Value: ir.Any})
		case 2:
			return diag.Ok[ir.Type](&ir.MapType{Key: args[0], Value: args[1]})
		default:
			return arity(2)
		}
	default:
		diag.Defectf(ref.Pos, "unknown built-in generic %s", ref.Name)
		return diag.Result[ir.Type]{}
	}
}

// compileObject defines a model or scalar type.
//
// The definition is published with inheritance and modifiers before fields
// and the backing expression are compiled, so dependents that reach back to
// this type see its supertypes and base primitive.
func (c *Compiler) compileObject(scope symbols.Scope, obj *ir.ObjectType, d *syntax.TypeDecl) diag.List {
	var diags diag.List
	session := c.openSession(obj, scope, d.Body, sessionOptions{})
	defer c.closeSession(obj)

	inherits := c.resolveTypeRefs(scope, d.Inherits)
	diags.Merge(inherits.Diagnostics())
	modifiers, mds := checkModifiers(d.Modifiers, objectModifiers, "type", d.Pos)
	diags.Add(mds...)

	def := &ir.ObjectDefinition{
		Inherits:      inherits.Value(),
		Modifiers:     modifiers,
		Format:        d.Format,
		Discriminator: d.Discriminator,
	}
	obj.Define(def)
	obj.Doc = d.Doc
	obj.AddUnit(unitOf(d.Pos))

	annotations := c.compileAnnotations(scope, d.Annotations)
	obj.Annotations = annotations.Value()
	diags.Merge(annotations.Diagnostics())

	if d.Body != nil {
		fields := session.compileAll()
		def.Fields = fields.Value()
		diags.Merge(fields.Diagnostics())
	}

	if d.Expr != nil {
		expr := c.compileExpr(exprContext{scope: scope, session: session}, d.Expr)
		diags.Merge(expr.Diagnostics())
		if e, ok := expr.Get(); ok {
			def.Expression = e
			if len(def.Inherits) > 0 {
				diags.Add(c.checker.AssertAssignable(e.ReturnType(), obj, d.Expr.ExprPos()))
			}
		}
	}
	return diags
}

func (c *Compiler) compileAlias(scope symbols.Scope, alias *ir.TypeAlias, d *syntax.AliasDecl) diag.List {
	alias.Doc = d.Doc
	alias.AddUnit(unitOf(d.Pos))
	target := c.resolveTypeRef(scope, d.Target)
	annotations := c.compileAnnotations(scope, d.Annotations)
	alias.Annotations = annotations.Value()
	if t, ok := target.Get(); ok {
		alias.Define(t)
	}
	return diag.Collect(target, annotations)
}

func (c *Compiler) compileUnion(scope symbols.Scope, union *ir.UnionType, d *syntax.UnionDecl) diag.List {
	union.Doc = d.Doc
	union.AddUnit(unitOf(d.Pos))
	members := c.resolveTypeRefs(scope, d.Members)
	annotations := c.compileAnnotations(scope, d.Annotations)
	union.Annotations = annotations.Value()
	diags := diag.Collect(members, annotations)
	if len(d.Members) < 2 {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos, "Union type %s must have at least two members", union.Name()))
	}
	union.Define(members.Value())
	return diags
}

func (c *Compiler) compileJoin(scope symbols.Scope, join *ir.JoinType, d *syntax.JoinDecl) diag.List {
	join.Doc = d.Doc
	join.AddUnit(unitOf(d.Pos))
	left := c.resolveTypeRef(scope, d.Left)
	rights := c.resolveTypeRefs(scope, d.Rights)
	annotations := c.compileAnnotations(scope, d.Annotations)
	join.Annotations = annotations.Value()
	diags := diag.Collect(left, rights, annotations)
	if len(d.Rights) == 0 {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos, "Join type %s must join at least one type", join.Name()))
	}
	join.Define(left.Value(), rights.Value())
	return diags
}

func (c *Compiler) compileAnnotationType(scope symbols.Scope, at *ir.AnnotationType, d *syntax.AnnotationTypeDecl) diag.List {
	at.Doc = d.Doc
	at.AddUnit(unitOf(d.Pos))
	annotations := c.compileAnnotations(scope, d.Annotations)
	at.Annotations = annotations.Value()
	diags := annotations.Diagnostics()
	if d.Body == nil {
		at.Define(nil)
		return diags
	}
	session := c.openSession(at, scope, d.Body, sessionOptions{})
	defer c.closeSession(at)
	fields := session.compileAll()
	at.Define(fields.Value())
	diags.Merge(fields.Diagnostics())
	return diags
}

// checkModifiers drops repeats and reports modifiers not in allowed.
func checkModifiers(mods, allowed []string, what string, pos syntax.Pos) ([]string, []*diag.Diagnostic) {
	var out []string
	var ds []*diag.Diagnostic
	for _, m := range mods {
		if !slices.Contains(allowed, m) {
			ds = append(ds, diag.Errorf(diag.StructuralError, pos, "Modifier %s is not valid on a %s", m, what))
			continue
		}
		if !slices.Contains(out, m) {
			out = append(out, m)
		}
	}
	return out, ds
}
