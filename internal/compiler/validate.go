package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// validate runs the whole-document checks that need every type defined:
// discriminators and synonym targets. Returns all errors found (does not
// fail-fast).
func (c *Compiler) validate() diag.List {
	var diags diag.List
	for _, slot := range c.reg.Slots() {
		obj, ok := slot.Type.(*ir.ObjectType)
		if !ok || slot.Decl == nil || !obj.IsDefined() {
			continue
		}
		diags.Add(validateDiscriminator(obj, slot.Decl.DeclPos())...)
	}
	for _, syn := range c.synonyms {
		diags.Add(c.validateSynonym(syn))
	}
	return diags
}

// validateDiscriminator requires the discriminator field to exist and the
// type to be abstract: only subtypes are instantiated.
func validateDiscriminator(obj *ir.ObjectType, pos syntax.Pos) []*diag.Diagnostic {
	field := obj.Definition().Discriminator
	if field == "" {
		return nil
	}
	var out []*diag.Diagnostic
	if !obj.HasModifier(ir.ModifierAbstract) {
		out = append(out, diag.Errorf(diag.StructuralError, pos,
			"Type %s declares a discriminator, so it must be abstract", obj.Name()))
	}
	if obj.Field(field) == nil {
		out = append(out, diag.Errorf(diag.NotDefined, pos,
			"Discriminator field %s is not defined on %s", field, obj.Name()))
	}
	return out
}

func (c *Compiler) validateSynonym(syn pendingSynonym) *diag.Diagnostic {
	t, ok := c.reg.Type(syn.enum)
	if !ok {
		return diag.Errorf(diag.NotDefined, syn.pos, "Synonym target %s is not defined", syn.enum)
	}
	enum, ok := ir.Unwrap(t).(*ir.EnumType)
	if !ok {
		return diag.Errorf(diag.StructuralError, syn.pos,
			"Synonym of %s refers to %s, which is not an enum", syn.from, syn.enum)
	}
	if enum.Value(syn.value) == nil {
		return diag.Errorf(diag.NotDefined, syn.pos,
			"Synonym of %s refers to %s, which is not defined", syn.from, enumValueName(syn.enum, syn.value))
	}
	return nil
}
