package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// compileQuery compiles a query's facts, discovery types and projection.
func (c *Compiler) compileQuery(scope symbols.Scope, name ir.QualifiedName, d *syntax.QueryDecl) diag.Result[*ir.Query] {
	var diags diag.List
	mode, ok := ir.ParseQueryMode(d.Mode)
	if !ok {
		diags.Add(diag.Errorf(diag.StructuralError, d.Pos,
			"Query mode %s is not one of find, findAll or stream", d.Mode))
	}
	q := &ir.Query{Name: name, Mode: mode}
	q.Doc = d.Doc
	q.AddUnit(unitOf(d.Pos))

	params := map[string]*ir.Parameter{}
	ps := c.compileParams(scope, d.Params, params)
	diags.Merge(ps.Diagnostics())
	q.Params = ps.Value()

	facts := c.compileFacts(scope, d.Given)
	diags.Merge(facts.Diagnostics())
	q.Facts = facts.Value()

	discovery := c.compileDiscovery(scope, name, d, mode, facts.Value(), params)
	diags.Merge(discovery.Diagnostics())
	q.Discovery = discovery.Value()

	if d.Projection != nil && !discovery.Failed() {
		projection := c.compileQueryProjection(scope, name, d.Projection, q.Discovery)
		diags.Merge(projection.Diagnostics())
		q.Projection = projection.Value()
	}
	if diags.HasErrors() {
		return diag.FailList[*ir.Query](diags)
	}
	return diag.OkWith(q, diags...)
}

// compileFacts compiles given { name: Type = value } bindings. A value that
// cannot be converted to its declared type is reported against that fact.
func (c *Compiler) compileFacts(scope symbols.Scope, given []syntax.GivenDecl) diag.Result[[]*ir.Fact] {
	rs := make([]diag.Result[*ir.Fact], len(given))
	for i := range given {
		g := &given[i]
		rs[i] = diag.Then(c.resolveTypeRef(scope, g.Type), func(t ir.Type) diag.Result[*ir.Fact] {
			v, prim, d := literalValue(g.Value)
			if d != nil {
				return diag.Fail[*ir.Fact](d)
			}
			lit := coerceLiteral(&ir.LiteralExpression{Value: v, Type: prim}, t)
			return c.typedFact(lit, t, g)
		})
	}
	return diag.All(rs)
}

func (c *Compiler) typedFact(lit *ir.LiteralExpression, t ir.Type, g *syntax.GivenDecl) diag.Result[*ir.Fact] {
	if d := c.checker.AssertAssignable(lit.Type, t, g.Pos); d != nil {
		if d.IsError() {
			return diag.Fail[*ir.Fact](diag.Errorf(diag.TypeMismatch, g.Pos,
				"Fact %s: %s", g.Name, d.Message))
		}
		return diag.OkWith(&ir.Fact{Name: g.Name, Type: t, Value: lit.Value}, d)
	}
	return diag.Ok(&ir.Fact{Name: g.Name, Type: t, Value: lit.Value})
}

// compileDiscovery compiles the find block: either a list of types, each
// with optional constraints, or a single anonymous body. In stream mode the
// bare discovery type is wrapped in Stream.
func (c *Compiler) compileDiscovery(scope symbols.Scope, name ir.QualifiedName, d *syntax.QueryDecl, mode ir.QueryMode, facts []*ir.Fact, params map[string]*ir.Parameter) diag.Result[[]*ir.DiscoveryType] {
	if d.AnonymousDiscovery != nil {
		obj := ir.NewObjectType(ir.NewQualifiedName(scope.Namespace, c.names.Next(name.Simple()+"$Find")))
		diags := c.compileAnonymous(obj, scope, d.AnonymousDiscovery, sessionOptions{query: true}, nil)
		var t ir.Type = obj
		if mode == ir.QueryStream {
			t = ir.StreamOf(obj)
		}
		dt := &ir.DiscoveryType{Type: t, StartingFacts: facts, Anonymous: true}
		if diags.HasErrors() {
			return diag.FailList[[]*ir.DiscoveryType](diags)
		}
		return diag.OkWith([]*ir.DiscoveryType{dt}, diags...)
	}
	if len(d.Discovery) == 0 {
		return diag.Fail[[]*ir.DiscoveryType](diag.Errorf(diag.StructuralError, d.Pos,
			"Query %s must find at least one type", name))
	}

	rs := make([]diag.Result[*ir.DiscoveryType], len(d.Discovery))
	for i := range d.Discovery {
		dd := &d.Discovery[i]
		rs[i] = diag.Then(c.resolveTypeRef(scope, dd.Type), func(t ir.Type) diag.Result[*ir.DiscoveryType] {
			dt := &ir.DiscoveryType{Type: t, StartingFacts: facts}
			if mode == ir.QueryStream {
				if _, isStream := ir.Unwrap(t).(*ir.StreamType); !isStream {
					dt.Type = ir.StreamOf(t)
				}
			}
			if dd.Constraints == nil {
				return diag.Ok(dt)
			}
			ctx := filterContext{scope: scope, targets: []ir.Type{t}, params: params}
			return diag.Map(c.compileFilter(ctx, dd.Constraints), func(con ir.Constraint) *ir.DiscoveryType {
				dt.Constraints = []ir.Constraint{con}
				return dt
			})
		})
	}
	return diag.All(rs)
}

// compileQueryProjection resolves the "as" clause. Collection-ness of the
// projection must match the discovery type; this is checked before any
// projection body is compiled.
func (c *Compiler) compileQueryProjection(scope symbols.Scope, name ir.QualifiedName, p *syntax.ProjectionDecl, discovery []*ir.DiscoveryType) diag.Result[*ir.ProjectedType] {
	var concrete ir.Type
	if p.Type != nil {
		r := c.resolveTypeRef(scope, *p.Type)
		if r.Failed() {
			return diag.FailList[*ir.ProjectedType](r.Diagnostics())
		}
		concrete = r.Value()
	}
	if concrete == nil && p.Body == nil {
		diag.Defectf(p.Pos, "projection of %s has neither a type nor a body", name)
	}

	source := discovery[0].Type
	if len(discovery) > 1 && concrete == nil {
		return diag.Fail[*ir.ProjectedType](diag.Errorf(diag.StructuralError, p.Pos,
			"Query %s finds %d types, so an anonymous projection must extend a concrete type", name, len(discovery)))
	}

	var anon *ir.ObjectType
	if p.Body != nil {
		anon = ir.NewObjectType(ir.NewQualifiedName(scope.Namespace, c.names.Next(name.Simple()+"$Projection")))
	}
	projectsList := p.Collection
	if concrete != nil {
		projectsList = ir.IsCollectionLike(concrete)
	}
	if len(discovery) == 1 && ir.IsCollectionLike(source) != projectsList {
		target := concrete
		if target == nil {
			target = collectionOf(anon, projectsList)
		}
		return diag.Fail[*ir.ProjectedType](symmetryError(p.Pos, source, target))
	}

	if anon == nil {
		return diag.Ok(&ir.ProjectedType{Concrete: concrete, Result: concrete})
	}
	var inherits []ir.Type
	if concrete != nil {
		inherits = []ir.Type{ir.CollectionMember(concrete)}
	}
	diags := c.compileAnonymous(anon, scope, p.Body, sessionOptions{
		query:      true,
		projection: ir.CollectionMember(source),
	}, inherits)
	out := &ir.ProjectedType{Concrete: concrete, Anonymous: anon, Result: collectionOf(anon, projectsList)}
	if diags.HasErrors() {
		return diag.FailList[*ir.ProjectedType](diags)
	}
	return diag.OkWith(out, diags...)
}

func collectionOf(t ir.Type, list bool) ir.Type {
	if list {
		return ir.ArrayOf(t)
	}
	return t
}
