package compiler

import (
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
)

// builtin describes one standard library function.
type builtin struct {
	name      string
	doc       string
	generic   bool // declares the single type parameter T
	modifiers []string
	params    func(t *ir.TypeParameter) []*ir.Parameter
	ret       func(t *ir.TypeParameter) ir.Type
}

func param(name string, t ir.Type) *ir.Parameter {
	return &ir.Parameter{Name: name, Type: t}
}

func fixed(t ir.Type) func(*ir.TypeParameter) ir.Type {
	return func(*ir.TypeParameter) ir.Type { return t }
}

var stdlib = []builtin{
	{
		name: "concat", doc: "Concatenates strings.",
		params: func(*ir.TypeParameter) []*ir.Parameter {
			return []*ir.Parameter{{Name: "values", Type: ir.String, Vararg: true}}
		},
		ret: fixed(ir.String),
	},
	{
		name: "upperCase", doc: "Converts a string to upper case.",
		params: func(*ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("value", ir.String)} },
		ret:    fixed(ir.String),
	},
	{
		name: "lowerCase", doc: "Converts a string to lower case.",
		params: func(*ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("value", ir.String)} },
		ret:    fixed(ir.String),
	},
	{
		name: "trim", doc: "Removes leading and trailing whitespace.",
		params: func(*ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("value", ir.String)} },
		ret:    fixed(ir.String),
	},
	{
		name: "length", doc: "Returns the number of characters in a string.",
		params: func(*ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("value", ir.String)} },
		ret:    fixed(ir.Int),
	},
	{
		name: "left", doc: "Returns the first count characters.",
		params: func(*ir.TypeParameter) []*ir.Parameter {
			return []*ir.Parameter{param("value", ir.String), param("count", ir.Int)}
		},
		ret: fixed(ir.String),
	},
	{
		name: "right", doc: "Returns the last count characters.",
		params: func(*ir.TypeParameter) []*ir.Parameter {
			return []*ir.Parameter{param("value", ir.String), param("count", ir.Int)}
		},
		ret: fixed(ir.String),
	},
	{
		name: "mid", doc: "Returns the characters between start and end.",
		params: func(*ir.TypeParameter) []*ir.Parameter {
			return []*ir.Parameter{param("value", ir.String), param("start", ir.Int), param("end", ir.Int)}
		},
		ret: fixed(ir.String),
	},
	{
		name: "contains", doc: "Reports whether value contains search.",
		params: func(*ir.TypeParameter) []*ir.Parameter {
			return []*ir.Parameter{param("value", ir.String), param("search", ir.String)}
		},
		ret: fixed(ir.Boolean),
	},
	{
		name: "coalesce", doc: "Returns the first non-null value.", generic: true,
		params: func(t *ir.TypeParameter) []*ir.Parameter {
			return []*ir.Parameter{{Name: "values", Type: t, Vararg: true}}
		},
		ret: func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "sum", doc: "Adds up a collection.", generic: true,
		params: func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:    func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "max", doc: "Returns the largest member of a collection.", generic: true,
		params: func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:    func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "min", doc: "Returns the smallest member of a collection.", generic: true,
		params: func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:    func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "count", doc: "Counts the members of a collection.", generic: true,
		params: func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:    fixed(ir.Int),
	},
	{
		name: "now", doc: "Returns the current instant.",
		params: func(*ir.TypeParameter) []*ir.Parameter { return nil },
		ret:    fixed(ir.Instant),
	},
	{
		name: "sumOver", doc: "Sums a value across every result of a query.", generic: true,
		modifiers: []string{ir.FunctionModifierQuery},
		params:    func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("value", t)} },
		ret:       func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "countOver", doc: "Counts the results of a query.", generic: true,
		modifiers: []string{ir.FunctionModifierQuery},
		params:    func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("value", t)} },
		ret:       fixed(ir.Int),
	},
	{
		name: "first", doc: "Returns the first member of a collection.", generic: true,
		modifiers: []string{ir.FunctionModifierExtension},
		params:    func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:       func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "last", doc: "Returns the last member of a collection.", generic: true,
		modifiers: []string{ir.FunctionModifierExtension},
		params:    func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:       func(t *ir.TypeParameter) ir.Type { return t },
	},
	{
		name: "size", doc: "Returns the number of members of a collection.", generic: true,
		modifiers: []string{ir.FunctionModifierExtension},
		params:    func(t *ir.TypeParameter) []*ir.Parameter { return []*ir.Parameter{param("values", ir.ArrayOf(t))} },
		ret:       fixed(ir.Int),
	},
}

// registerStdlib adds the built-in functions to a session registry. Every
// session gets fresh function values so generic signatures are never shared
// between compilations.
func registerStdlib(reg *symbols.Registry) {
	for _, b := range stdlib {
		var tp *ir.TypeParameter
		var typeParams []*ir.TypeParameter
		if b.generic {
			tp = &ir.TypeParameter{Param: "T"}
			typeParams = []*ir.TypeParameter{tp}
		}
		fn := ir.NewFunction(ir.NewQualifiedName(ir.StdlibNamespace, b.name))
		fn.Define(&ir.FunctionDefinition{
			TypeParams: typeParams,
			Params:     b.params(tp),
			Return:     b.ret(tp),
			Modifiers:  b.modifiers,
		})
		fn.Doc = b.doc
		reg.RegisterFunction(fn, true, false)
	}
}
