package compiler

import (
	"log/slog"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// Compiler turns parse trees into a compiled document.
//
// Each call to Compile is an independent session: it owns a fresh registry,
// field sessions and diagnostics, and shares nothing with other calls. A
// Compiler is not safe for concurrent use.
type Compiler struct {
	logger        *slog.Logger
	checker       *typecheck.Checker
	names         NameGenerator
	maxDepth      int
	importSources []*ir.Document
	partial       bool

	// Session state, reset by Compile.
	reg      *symbols.Registry
	resolver *symbols.Resolver
	guard    *depthGuard
	doc      *ir.Document
	diags    diag.List
	sessions map[ir.Type]*fieldSession
	synonyms []pendingSynonym
	members  []memberDecl
}

// memberDecl is a top-level declaration that is not a type or function:
// services, policies, data sources, queries and views. They are compiled
// after every type is defined.
type memberDecl struct {
	decl syntax.Decl
	doc  *syntax.Document
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		logger:   discardLogger(),
		checker:  typecheck.New(typecheck.DefaultMode),
		names:    UUIDNames{},
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile compiles docs with a new Compiler configured by opts.
func Compile(docs []*syntax.Document, opts ...Option) (*ir.Document, diag.List) {
	return New(opts...).Compile(docs)
}

// Compile compiles the given source documents into a single document.
//
// Every declaration is collected first, so references may appear before the
// declarations they name, in any of the documents. Diagnostics are returned
// in the order they were raised. When any diagnostic is an error the
// document is nil unless WithPartialDocument was given.
func (c *Compiler) Compile(docs []*syntax.Document) (*ir.Document, diag.List) {
	c.reset()
	c.logger.Info("compilation starting",
		"sources", len(docs),
		"imports", len(c.importSources),
		"type_checker", c.checker.Mode())

	registerStdlib(c.reg)
	c.collect(docs)
	c.importTypes(docs)
	c.checkInheritanceCycles()
	c.compileTypes()
	c.compileFunctions()
	c.compileMembers()
	c.diags.Merge(c.validate())
	c.assemble(docs)

	errs := len(c.diags.Errors())
	c.logger.Info("compilation finished",
		"types", len(c.doc.Types()),
		"errors", errs,
		"warnings", len(c.diags.Warnings()),
		"max_depth", c.guard.peak)

	if errs > 0 && !c.partial {
		return nil, c.diags
	}
	return c.doc, c.diags
}

func (c *Compiler) reset() {
	c.reg = symbols.NewRegistry()
	c.resolver = symbols.NewResolver(c.reg)
	c.guard = newDepthGuard(c.maxDepth)
	c.doc = ir.NewDocument()
	c.diags = nil
	c.sessions = map[ir.Type]*fieldSession{}
	c.synonyms = nil
	c.members = nil
}

// guarded runs one compilation unit. An internal defect raised inside it
// becomes an InternalDefect diagnostic and aborts only that unit.
func (c *Compiler) guarded(fn func() diag.List) (out diag.List) {
	defer diag.RecoverDefect(&out)
	return fn()
}

func (c *Compiler) compileTypes() {
	for _, slot := range c.reg.Slots() {
		if slot.Decl != nil {
			c.ensureType(slot)
		}
	}
}

func (c *Compiler) compileFunctions() {
	for _, slot := range c.reg.Functions() {
		if slot.Decl != nil {
			c.ensureFunction(slot, slot.Decl.Pos)
		}
	}
}

func (c *Compiler) compileMembers() {
	seen := map[string]map[ir.QualifiedName]syntax.Pos{}
	for _, m := range c.members {
		c.diags.Merge(c.guarded(func() diag.List {
			return c.compileMember(m, seen)
		}))
	}
}

func (c *Compiler) compileMember(m memberDecl, seen map[string]map[ir.QualifiedName]syntax.Pos) diag.List {
	kind, name := memberKind(m.decl), memberName(m)
	if name != "" {
		if seen[kind] == nil {
			seen[kind] = map[ir.QualifiedName]syntax.Pos{}
		}
		if _, dup := seen[kind][name]; dup {
			return diag.List{diag.Errorf(diag.StructuralError, m.decl.DeclPos(),
				"%s %s is already defined", kind, name)}
		}
		seen[kind][name] = m.decl.DeclPos()
	}
	scope := symbols.ScopeOf(m.doc)

	switch d := m.decl.(type) {
	case *syntax.ServiceDecl:
		r := c.compileService(scope, name, d)
		if s, ok := r.Get(); ok {
			c.doc.AddService(s)
		}
		return r.Diagnostics()
	case *syntax.PolicyDecl:
		r := c.compilePolicy(scope, name, d)
		if p, ok := r.Get(); ok {
			c.doc.AddPolicy(p)
		}
		return r.Diagnostics()
	case *syntax.DataSourceDecl:
		r := c.compileDataSource(scope, name, d)
		if ds, ok := r.Get(); ok {
			c.doc.AddDataSource(ds)
		}
		return r.Diagnostics()
	case *syntax.QueryDecl:
		if name == "" {
			name = ir.NewQualifiedName(m.doc.Namespace, c.names.Next("AnonymousQuery"))
		}
		r := c.compileQuery(scope, name, d)
		if q, ok := r.Get(); ok {
			c.doc.AddQuery(q)
		}
		return r.Diagnostics()
	case *syntax.ViewDecl:
		r := c.compileView(scope, name, d)
		if v, ok := r.Get(); ok {
			c.doc.AddView(v)
		}
		return r.Diagnostics()
	default:
		diag.Defectf(m.decl.DeclPos(), "unexpected member declaration %T", m.decl)
		return nil
	}
}

func memberKind(d syntax.Decl) string {
	switch d.(type) {
	case *syntax.ServiceDecl:
		return "Service"
	case *syntax.PolicyDecl:
		return "Policy"
	case *syntax.DataSourceDecl:
		return "Data source"
	case *syntax.QueryDecl:
		return "Query"
	case *syntax.ViewDecl:
		return "View"
	default:
		return "Declaration"
	}
}

func memberName(m memberDecl) ir.QualifiedName {
	if m.decl.DeclName() == "" {
		return ""
	}
	return ir.NewQualifiedName(m.doc.Namespace, m.decl.DeclName())
}

// assemble copies the registry into the output document. Types that failed
// to compile are only kept for partial documents.
func (c *Compiler) assemble(docs []*syntax.Document) {
	for _, d := range docs {
		c.doc.Sources = append(c.doc.Sources, d.Source)
	}
	for _, slot := range c.reg.Slots() {
		switch slot.State {
		case symbols.Defined:
			c.doc.AddType(slot.Type)
		case symbols.Failed:
			if c.partial {
				c.doc.AddType(slot.Type)
			}
		}
	}
	for _, slot := range c.reg.Functions() {
		if slot.Builtin {
			continue
		}
		if slot.State == symbols.Defined || (c.partial && slot.Function.IsDefined()) {
			c.doc.AddFunction(slot.Function)
		}
	}
}

func unitOf(pos syntax.Pos) ir.CompilationUnit {
	return ir.CompilationUnit{Source: pos.Source, Line: pos.Line, Column: pos.Column}
}
