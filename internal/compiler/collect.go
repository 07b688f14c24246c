package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// collect is the first pass: every declaration of every document is
// registered before anything is compiled, so compilation can follow
// references in any order.
func (c *Compiler) collect(docs []*syntax.Document) {
	for _, doc := range docs {
		for _, decl := range doc.Decls {
			c.collectDecl(doc, decl)
		}
	}
	c.logger.Debug("declarations collected",
		"types", len(c.reg.Slots()),
		"members", len(c.members))
}

func (c *Compiler) collectDecl(doc *syntax.Document, decl syntax.Decl) {
	switch decl.(type) {
	case *syntax.ServiceDecl, *syntax.PolicyDecl, *syntax.DataSourceDecl, *syntax.ViewDecl:
		if decl.DeclName() == "" {
			c.diags.Add(missingName(decl))
			return
		}
		c.members = append(c.members, memberDecl{decl: decl, doc: doc})
		return
	case *syntax.QueryDecl:
		// Anonymous queries are named when compiled.
		c.members = append(c.members, memberDecl{decl: decl, doc: doc})
		return
	}

	if decl.DeclName() == "" {
		c.diags.Add(missingName(decl))
		return
	}
	name := ir.NewQualifiedName(doc.Namespace, decl.DeclName())

	if fn, ok := decl.(*syntax.FunctionDecl); ok {
		if _, outcome := c.reg.DeclareFunction(name, fn, doc); outcome == symbols.Conflict {
			c.diags.Add(diag.Errorf(diag.StructuralError, fn.Pos, "Function %s is already defined", name))
		}
		return
	}

	if _, ok := symbols.KindOf(decl); !ok {
		c.diags.Add(diag.Errorf(diag.InternalDefect, decl.DeclPos(), "unexpected declaration %T", decl))
		return
	}
	fingerprint, err := ir.DeclarationFingerprint(decl, "Pos")
	if err != nil {
		c.diags.Add(diag.Errorf(diag.InternalDefect, decl.DeclPos(), "fingerprint %s: %v", name, err))
		return
	}
	slot, outcome := c.reg.Declare(name, decl, doc, fingerprint)
	switch outcome {
	case symbols.Merged:
		c.logger.Debug("identical redeclaration merged", "type", name, "pos", decl.DeclPos().String())
	case symbols.Conflict:
		c.diags.Add(diag.Errorf(diag.StructuralError, decl.DeclPos(),
			"Type %s is already defined at %s with a different definition", name, slot.Sites[0]))
	}
}

func missingName(decl syntax.Decl) *diag.Diagnostic {
	return diag.Errorf(diag.StructuralError, decl.DeclPos(), "%s declaration has no name", memberKind(decl))
}
