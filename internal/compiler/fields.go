package compiler

import (
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

type fieldState int

const (
	fieldNotStarted fieldState = iota
	fieldInProgress
	fieldDone
)

// fieldEntry memoizes the compilation of one field declaration.
type fieldEntry struct {
	decl   *syntax.FieldDecl
	block  *ir.ConditionalBlock
	state  fieldState
	result diag.Result[*ir.Field]
}

// sessionOptions describe the context a body is compiled in.
type sessionOptions struct {
	// query allows query-only functions (projection bodies, views).
	query bool
	// projection is the type a projection body projects from; fields with
	// no type of their own take the same-named field of this type.
	projection ir.Type
}

type conditionalDecl struct {
	decl  *syntax.ConditionalBlock
	block *ir.ConditionalBlock
}

// fieldSession compiles the fields of one body on demand.
//
// Fields may reference each other in any order (this.a.b), so each field is
// compiled the first time it is requested, either by the body walk or by
// another field's expression. Re-entering a field that is still in progress
// is a cycle and produces a single CyclicDependency for that field.
type fieldSession struct {
	c          *Compiler
	owner      ir.Type
	scope      symbols.Scope
	opts       sessionOptions
	entries    map[string]*fieldEntry
	order      []*fieldEntry
	blocks     []conditionalDecl
	duplicates []*diag.Diagnostic
}

// openSession registers a field session for owner. It must be opened before
// the owner's supertypes are resolved so that references reaching back into
// the owner during that resolution find its fields.
func (c *Compiler) openSession(owner ir.Type, scope symbols.Scope, body *syntax.TypeBody, opts sessionOptions) *fieldSession {
	s := &fieldSession{
		c:       c,
		owner:   owner,
		scope:   scope,
		opts:    opts,
		entries: map[string]*fieldEntry{},
	}
	if body != nil {
		var sites []site
		add := func(fd *syntax.FieldDecl, block *ir.ConditionalBlock) {
			sites = append(sites, site{name: fd.Name, pos: fd.Pos})
			if _, exists := s.entries[fd.Name]; exists {
				return
			}
			e := &fieldEntry{decl: fd, block: block}
			s.entries[fd.Name] = e
			s.order = append(s.order, e)
		}
		for i := range body.Fields {
			add(&body.Fields[i], nil)
		}
		for i := range body.Conditionals {
			cb := &body.Conditionals[i]
			block := &ir.ConditionalBlock{}
			for j := range cb.Fields {
				block.Fields = append(block.Fields, cb.Fields[j].Name)
				add(&cb.Fields[j], block)
			}
			s.blocks = append(s.blocks, conditionalDecl{decl: cb, block: block})
		}
		s.duplicates = duplicateSites("Field", owner.Name(), sites)
	}
	c.sessions[owner] = s
	return s
}

func (c *Compiler) closeSession(owner ir.Type) {
	delete(c.sessions, owner)
}

func (s *fieldSession) exprContext() exprContext {
	return exprContext{scope: s.scope, session: s, query: s.opts.query}
}

// compileAll compiles every field in declaration order. Fields that failed
// are left out of the value; the result carries every diagnostic.
func (s *fieldSession) compileAll() diag.Result[[]*ir.Field] {
	var diags diag.List
	diags.Add(s.duplicates...)
	for _, b := range s.blocks {
		if b.decl.Condition == nil {
			continue
		}
		cond := s.c.compileExpr(s.exprContext(), b.decl.Condition)
		diags.Merge(cond.Diagnostics())
		if e, ok := cond.Get(); ok {
			b.block.Condition = e
			diags.Add(s.c.checker.AssertAssignable(e.ReturnType(), ir.Boolean, b.decl.Condition.ExprPos()))
		}
	}
	fields := make([]*ir.Field, 0, len(s.order))
	for _, e := range s.order {
		r := s.provide(e)
		diags.Merge(r.Diagnostics())
		if f, ok := r.Get(); ok {
			fields = append(fields, f)
		}
	}
	return diag.OkWith(fields, diags...)
}

func (s *fieldSession) provide(e *fieldEntry) diag.Result[*ir.Field] {
	switch e.state {
	case fieldDone:
		return e.result
	case fieldInProgress:
		return diag.Fail[*ir.Field](diag.Errorf(diag.CyclicDependency, e.decl.Pos,
			"Field %s of %s has a cyclic dependency on itself", e.decl.Name, s.owner.Name()))
	}
	e.state = fieldInProgress
	e.result = s.compileField(e)
	e.state = fieldDone
	return e.result
}

// compileField determines a field's type and accessor.
//
// The type comes from, in order of precedence: an explicit type, an inline
// anonymous body, a model attribute reference (Source::field), the return
// type of a backing expression, and in a projection body the same-named
// field of the projected type.
func (s *fieldSession) compileField(e *fieldEntry) diag.Result[*ir.Field] {
	c, d := s.c, e.decl
	if d.Accessor != nil && d.Expr != nil {
		diag.Defectf(d.Pos, "field %s has both an accessor and an expression", d.Name)
	}
	var diags diag.List
	f := &ir.Field{
		Name:     d.Name,
		Owner:    s.owner.Name(),
		Nullable: d.Nullable,
		Doc:      d.Doc,
		Block:    e.block,
		Unit:     unitOf(d.Pos),
	}
	mods, mds := checkModifiers(d.Modifiers, fieldModifiers, "field", d.Pos)
	f.Modifiers = mods
	diags.Add(mds...)
	annotations := c.compileAnnotations(s.scope, d.Annotations)
	f.Annotations = annotations.Value()
	diags.Merge(annotations.Diagnostics())

	var declared ir.Type
	switch {
	case d.Type != nil:
		r := c.resolveTypeRef(s.scope, *d.Type)
		diags.Merge(r.Diagnostics())
		declared = r.Value()
	case d.Inline != nil:
		r := s.compileInline(d)
		diags.Merge(r.Diagnostics())
		declared = r.Value()
	}

	var derived ir.Expression
	var derivedPos syntax.Pos
	switch {
	case d.Attr != nil:
		r := c.compileAttrRef(s.exprContext(), d.Attr)
		diags.Merge(r.Diagnostics())
		derived, derivedPos = r.Value(), d.Attr.Pos
	case d.Expr != nil:
		r := c.compileExpr(s.exprContext(), d.Expr)
		diags.Merge(r.Diagnostics())
		derived, derivedPos = r.Value(), d.Expr.ExprPos()
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Field](diags)
	}
	if derived != nil {
		f.Accessor = &ir.ExpressionAccessor{Expression: derived}
	}

	switch {
	case declared != nil:
		f.Type = declared
		if derived != nil {
			diags.Add(c.checker.AssertAssignable(derived.ReturnType(), declared, derivedPos))
		}
	case derived != nil:
		f.Type = derived.ReturnType()
	case s.opts.projection != nil:
		source := ir.CollectionMember(s.opts.projection)
		inherited, found := c.findField(source, d.Name, map[ir.Type]bool{})
		if !found {
			return diag.FailList[*ir.Field](append(diags, diag.Errorf(diag.StructuralError, d.Pos,
				"Field %s has no type, and the projected type %s has no field of that name", d.Name, source.Name())))
		}
		if inherited.Failed() {
			return diag.FailList[*ir.Field](append(diags, inherited.Diagnostics()...))
		}
		f.Type = inherited.Value().Type
		f.MemberSource = source.Name()
	default:
		return diag.FailList[*ir.Field](append(diags, diag.Errorf(diag.StructuralError, d.Pos,
			"Field %s of %s must declare a type", d.Name, s.owner.Name())))
	}

	if d.Accessor != nil {
		r := c.compileAccessor(s.exprContext(), d.Accessor, f.Type)
		diags.Merge(r.Diagnostics())
		f.Accessor = r.Value()
	}
	if d.Constraints != nil {
		r := c.compileFilter(filterContext{scope: s.scope, targets: []ir.Type{f.Type}}, d.Constraints)
		diags.Merge(r.Diagnostics())
		if con, ok := r.Get(); ok {
			f.Constraints = []ir.Constraint{con}
		}
	}
	return diag.OkWith(f, diags...)
}

// compileInline compiles an anonymous body declared as a field type.
func (s *fieldSession) compileInline(d *syntax.FieldDecl) diag.Result[ir.Type] {
	owner := s.owner.Name()
	name := ir.NewQualifiedName(owner.Namespace(), s.c.names.Next(owner.Simple()+"$"+d.Name))
	obj := ir.NewObjectType(name)
	diags := s.c.compileAnonymous(obj, s.scope, d.Inline, sessionOptions{query: s.opts.query}, nil)
	var t ir.Type = obj
	if d.InlineList {
		t = ir.ArrayOf(obj)
	}
	return diag.OkWith(t, diags...)
}

// compileAnonymous defines a synthesized type from a body and registers it.
func (c *Compiler) compileAnonymous(obj *ir.ObjectType, scope symbols.Scope, body *syntax.TypeBody, opts sessionOptions, inherits []ir.Type) diag.List {
	var diags diag.List
	if d := c.guard.enter(string(obj.Name()), body.Pos); d != nil {
		c.guard.leave()
		return diag.List{d}
	}
	defer c.guard.leave()

	def := &ir.ObjectDefinition{Inherits: inherits, Anonymous: true}
	obj.Define(def)
	obj.AddUnit(unitOf(body.Pos))
	if err := c.reg.Register(obj, false); err != nil {
		diags.Add(diag.Errorf(diag.InternalDefect, body.Pos, "register %s: %v", obj.Name(), err))
	}
	session := c.openSession(obj, scope, body, opts)
	defer c.closeSession(obj)
	fields := session.compileAll()
	def.Fields = fields.Value()
	diags.Merge(fields.Diagnostics())
	return diags
}

// lookupField finds a field on t or its supertypes. Fields of a type that is
// still being compiled are compiled on demand through its session.
func (c *Compiler) lookupField(t ir.Type, name string, pos syntax.Pos) diag.Result[*ir.Field] {
	if t == nil {
		return diag.Fail[*ir.Field](diag.Errorf(diag.NotDefined, pos, "Field %s is not defined", name))
	}
	if r, found := c.findField(t, name, map[ir.Type]bool{}); found {
		return r
	}
	return diag.Fail[*ir.Field](diag.Errorf(diag.NotDefined, pos,
		"Field %s is not defined on type %s", name, t.Name()))
}

func (c *Compiler) findField(t ir.Type, name string, seen map[ir.Type]bool) (diag.Result[*ir.Field], bool) {
	t = ir.Unwrap(t)
	if t == nil || seen[t] {
		return diag.Result[*ir.Field]{}, false
	}
	seen[t] = true
	if s, ok := c.sessions[t]; ok {
		if e, ok := s.entries[name]; ok {
			return s.provide(e), true
		}
	} else {
		switch v := t.(type) {
		case *ir.ObjectType:
			for _, f := range v.Fields() {
				if f.Name == name {
					return diag.Ok(f), true
				}
			}
		case *ir.AnnotationType:
			if f := v.Field(name); f != nil {
				return diag.Ok(f), true
			}
		}
	}
	for _, parent := range ir.Supertypes(t) {
		if r, ok := c.findField(parent, name, seen); ok {
			return r, true
		}
	}
	return diag.Result[*ir.Field]{}, false
}

// fieldsOfType returns the fields of t whose type is want.
func fieldsOfType(t ir.Type, want ir.Type) []*ir.Field {
	obj, ok := ir.Unwrap(t).(*ir.ObjectType)
	if !ok {
		return nil
	}
	target := ir.Unwrap(want)
	var out []*ir.Field
	for _, f := range obj.AllFields() {
		if f.Type == want || ir.Unwrap(f.Type) == target {
			out = append(out, f)
		}
	}
	return out
}

func fieldNames(fields []*ir.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return strings.Join(names, ", ")
}

func (c *Compiler) compileAccessor(ctx exprContext, a syntax.Accessor, fieldType ir.Type) diag.Result[ir.Accessor] {
	switch v := a.(type) {
	case *syntax.ColumnAccessor:
		if v.Index <= 0 && v.Name == "" {
			return diag.Fail[ir.Accessor](diag.Errorf(diag.StructuralError, v.Pos,
				"Column accessor needs a 1-based index or a column name"))
		}
		return diag.Ok[ir.Accessor](&ir.ColumnAccessor{Index: v.Index, Name: v.Name})

	case *syntax.PathAccessor:
		kind := ir.PathKind(v.Kind)
		if kind != ir.PathJSON && kind != ir.PathXPath {
			return diag.Fail[ir.Accessor](diag.Errorf(diag.StructuralError, v.Pos,
				"Unknown path accessor %s; expected %s or %s", v.Kind, ir.PathJSON, ir.PathXPath))
		}
		if strings.TrimSpace(v.Path) == "" {
			return diag.Fail[ir.Accessor](diag.Errorf(diag.StructuralError, v.Pos, "Path accessor has an empty path"))
		}
		return diag.Ok[ir.Accessor](&ir.PathAccessor{Kind: kind, Path: v.Path})

	case *syntax.DefaultAccessor:
		val, prim, d := literalValue(v.Value)
		if d != nil {
			return diag.Fail[ir.Accessor](d)
		}
		lit := coerceLiteral(&ir.LiteralExpression{Value: val, Type: prim}, fieldType)
		return typecheck.IfAssignable(c.checker, lit.Type, fieldType, v.Pos, func() ir.Accessor {
			return &ir.DefaultAccessor{Value: lit.Value}
		})

	case *syntax.ConditionalAccessor:
		return c.compileWhen(ctx, v, fieldType)

	default:
		diag.Defectf(a.AccessorPos(), "unexpected accessor %T", a)
		return diag.Result[ir.Accessor]{}
	}
}

func (c *Compiler) compileWhen(ctx exprContext, v *syntax.ConditionalAccessor, fieldType ir.Type) diag.Result[ir.Accessor] {
	var diags diag.List
	out := &ir.ConditionalAccessor{}
	elseSeen := false
	for i, wc := range v.Cases {
		when := &ir.WhenCase{}
		if wc.Condition == nil {
			if elseSeen {
				diags.Add(diag.Errorf(diag.StructuralError, wc.Pos, "A when block may only have one else branch"))
			} else if i != len(v.Cases)-1 {
				diags.Add(diag.Errorf(diag.StructuralError, wc.Pos, "The else branch must be the last case of a when block"))
			}
			elseSeen = true
		} else {
			cond := c.compileExpr(ctx, wc.Condition)
			diags.Merge(cond.Diagnostics())
			if e, ok := cond.Get(); ok {
				when.Condition = e
				diags.Add(c.checker.AssertAssignable(e.ReturnType(), ir.Boolean, wc.Condition.ExprPos()))
			}
		}
		val := c.compileExpr(ctx, wc.Value)
		diags.Merge(val.Diagnostics())
		if e, ok := val.Get(); ok {
			if lit, isLit := e.(*ir.LiteralExpression); isLit {
				e = coerceLiteral(lit, fieldType)
			}
			when.Value = e
			diags.Add(c.checker.AssertAssignable(e.ReturnType(), fieldType, wc.Value.ExprPos()))
		}
		out.Cases = append(out.Cases, when)
	}
	return diag.OkWith[ir.Accessor](out, diags...)
}
