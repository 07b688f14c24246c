package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// importTypes registers the types named by import statements, together
// with every type they transitively reference, from the import sources.
//
// A name declared by the sources being compiled needs no import source.
// Anything else must be a top-level type of an import source.
func (c *Compiler) importTypes(docs []*syntax.Document) {
	for _, src := range c.importSources {
		for _, fn := range src.Functions() {
			c.reg.RegisterFunction(fn, false, true)
		}
		if src.Synonyms != nil {
			c.doc.Synonyms.Merge(src.Synonyms)
		}
	}

	seen := map[ir.QualifiedName]bool{}
	for _, doc := range docs {
		for _, imp := range doc.Imports {
			name := ir.QualifiedName(imp.Name)
			if seen[name] {
				continue
			}
			seen[name] = true
			if slot, ok := c.reg.Slot(name); ok && !slot.Imported {
				continue
			}
			root, d := c.findImport(name, imp.Pos)
			if d != nil {
				c.diags.Add(d)
				continue
			}
			c.registerClosure(root)
		}
	}
}

func (c *Compiler) findImport(name ir.QualifiedName, pos syntax.Pos) (ir.Type, *diag.Diagnostic) {
	var found ir.Type
	var foundPrint string
	for _, src := range c.importSources {
		t, ok := src.Type(name)
		if !ok || t == found {
			continue
		}
		if found == nil {
			found = t
			continue
		}
		// The same type may reach us through several sources; only a
		// different definition is a clash.
		if foundPrint == "" {
			foundPrint = describePrint(found)
		}
		if describePrint(t) != foundPrint {
			return nil, diag.Errorf(diag.AmbiguousReference, pos,
				"cannot import %s as it is defined differently by more than one import source", name)
		}
	}
	if found == nil {
		return nil, diag.Errorf(diag.NotDefined, pos, "cannot import %s as it is not defined", name)
	}
	return found, nil
}

func describePrint(t ir.Type) string {
	fp, err := ir.DeclarationFingerprint(ir.DescribeType(t))
	if err != nil {
		return string(t.Name())
	}
	return fp
}

func (c *Compiler) registerClosure(root ir.Type) {
	for _, t := range ir.Closure(root) {
		if slot, ok := c.reg.Slot(t.Name()); ok {
			if !slot.Imported {
				c.logger.Debug("imported type shadowed by local declaration", "type", t.Name())
			}
			continue
		}
		if err := c.reg.Register(t, true); err != nil {
			c.diags.Add(diag.Errorf(diag.InternalDefect, syntax.NoPos, "import %s: %v", t.Name(), err))
			continue
		}
		c.logger.Debug("type imported", "type", t.Name(), "root", root.Name())
	}
}
