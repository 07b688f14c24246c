package compiler

import (
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// pendingSynonym is a synonym edge whose target is checked once every enum
// has been compiled.
type pendingSynonym struct {
	from  ir.QualifiedName
	enum  ir.QualifiedName
	value string
	pos   syntax.Pos
}

// compileEnum defines an enum. A value without an explicit literal takes
// its own name as a String literal; every value of one enum must have the
// same literal type, which becomes the enum's base primitive.
func (c *Compiler) compileEnum(scope symbols.Scope, enum *ir.EnumType, d *syntax.EnumDecl) diag.List {
	var diags diag.List
	inherits := c.resolveTypeRefs(scope, d.Inherits)
	diags.Merge(inherits.Diagnostics())

	def := &ir.EnumDefinition{Inherits: inherits.Value(), Lenient: d.Lenient}
	enum.Define(def)
	enum.Doc = d.Doc
	enum.AddUnit(unitOf(d.Pos))

	annotations := c.compileAnnotations(scope, d.Annotations)
	enum.Annotations = annotations.Value()
	diags.Merge(annotations.Diagnostics())

	diags.Add(duplicateSites("Enum value", enum.Name(), enumValueSites(d.Values))...)

	var base *ir.Primitive
	var basePos syntax.Pos
	hasDefault := false
	for i := range d.Values {
		vd := &d.Values[i]
		ev := &ir.EnumValue{
			Name:      vd.Name,
			Qualified: enumValueName(enum.Name(), vd.Name),
			Value:     ir.IRString(vd.Name),
			Default:   vd.Default,
			Doc:       vd.Doc,
		}
		prim := ir.String
		if vd.Value != nil {
			v, p, ld := literalValue(*vd.Value)
			switch {
			case ld != nil:
				diags.Add(ld)
				continue
			case p == ir.Any:
				diags.Add(diag.Errorf(diag.StructuralError, vd.Pos, "Enum value %s cannot be null", ev.Qualified))
				continue
			}
			ev.Value, prim = v, p
		}
		if base == nil {
			base, basePos = prim, vd.Pos
		} else if prim != base {
			diags.Add(diag.Errorf(diag.StructuralError, vd.Pos,
				"Enum %s mixes values of type %s and %s (first %s value at %s)",
				enum.Name(), base.Name().Simple(), prim.Name().Simple(), base.Name().Simple(), basePos))
		}

		if vd.Default {
			if hasDefault {
				diags.Add(diag.Errorf(diag.StructuralError, vd.Pos,
					"Enum %s has more than one default value", enum.Name()))
			}
			hasDefault = true
		}

		valueAnnotations := c.compileAnnotations(scope, vd.Annotations)
		ev.Annotations = valueAnnotations.Value()
		diags.Merge(valueAnnotations.Diagnostics())

		for _, syn := range vd.Synonyms {
			target, sd := c.synonymTarget(scope, ev.Qualified, syn, vd.Pos)
			if sd != nil {
				diags.Add(sd)
				continue
			}
			ev.Synonyms = append(ev.Synonyms, target)
			c.doc.Synonyms.Register(ev.Qualified, target, string(enum.Name()))
		}
		def.Values = append(def.Values, ev)
	}

	if base != nil {
		def.BasePrimitive = base
	}
	return diags
}

// synonymTarget qualifies "Enum.Value" (or "ns.Enum.Value") in scope. The
// enum is only named here, not compiled: synonyms are commonly mutual and
// the target may still be compiling.
func (c *Compiler) synonymTarget(scope symbols.Scope, from ir.QualifiedName, syn string, pos syntax.Pos) (ir.QualifiedName, *diag.Diagnostic) {
	i := strings.LastIndex(syn, ".")
	if i <= 0 || i == len(syn)-1 {
		return "", diag.Errorf(diag.StructuralError, pos,
			"Synonym %s of %s must be written as Enum.Value", syn, from)
	}
	enumName, valueName := syn[:i], syn[i+1:]
	q, d := c.resolver.Resolve(scope, enumName, pos)
	if d != nil {
		return "", d
	}
	c.synonyms = append(c.synonyms, pendingSynonym{from: from, enum: q, value: valueName, pos: pos})
	return enumValueName(q, valueName), nil
}

func enumValueName(enum ir.QualifiedName, value string) ir.QualifiedName {
	return ir.QualifiedName(string(enum) + "." + value)
}

type site struct {
	name string
	pos  syntax.Pos
}

func enumValueSites(values []syntax.EnumValueDecl) []site {
	out := make([]site, len(values))
	for i, v := range values {
		out[i] = site{name: v.Name, pos: v.Pos}
	}
	return out
}

// duplicateSites reports every declaration site of a name declared more
// than once, not just the second one.
func duplicateSites(what string, owner ir.QualifiedName, sites []site) []*diag.Diagnostic {
	count := map[string]int{}
	for _, s := range sites {
		count[s.name]++
	}
	var out []*diag.Diagnostic
	for _, s := range sites {
		if count[s.name] > 1 {
			out = append(out, diag.Errorf(diag.StructuralError, s.pos,
				"%s %s is declared more than once in %s", what, s.name, owner))
		}
	}
	return out
}
