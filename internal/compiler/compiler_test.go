package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
	"github.com/taxilang/taxilang-sub000/internal/syntax/cuetree"
	"github.com/taxilang/taxilang-sub000/internal/typecheck"
)

// decodeCUE decodes a CUE fixture into parse trees.
func decodeCUE(t *testing.T, src string) []*syntax.Document {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	docs, err := cuetree.DecodeDocuments(v)
	require.NoError(t, err)
	return docs
}

// compileCUE compiles a CUE fixture with deterministic names and a partial
// document, so tests can inspect both the result and the diagnostics.
func compileCUE(t *testing.T, src string, opts ...Option) (*ir.Document, diag.List) {
	t.Helper()
	opts = append([]Option{WithNameGenerator(NewSequenceNames()), WithPartialDocument()}, opts...)
	return Compile(decodeCUE(t, src), opts...)
}

// mustCompile requires a clean compilation.
func mustCompile(t *testing.T, src string, opts ...Option) *ir.Document {
	t.Helper()
	doc, diags := compileCUE(t, src, opts...)
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags.Errors())
	require.NotNil(t, doc)
	return doc
}

func messages(ds []*diag.Diagnostic) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Message
	}
	return out
}

func TestCompileForwardReference(t *testing.T) {
	doc := mustCompile(t, `
		namespace: "acme"
		types: {
			Person: fields: name: "Name"
			Name: inherits: ["String"]
		}
	`)

	person := doc.ObjectType("acme.Person")
	require.NotNil(t, person)
	field := person.Field("name")
	require.NotNil(t, field)
	assert.Equal(t, ir.QualifiedName("acme.Name"), field.Type.Name())
	assert.Equal(t, ir.String, ir.BasePrimitive(field.Type))
}

func TestCompileAcrossDocuments(t *testing.T) {
	doc := mustCompile(t, `
		documents: {
			"people.taxi": {namespace: "people", types: Person: fields: id: "ids.PersonId"}
			"ids.taxi": {namespace: "ids", types: PersonId: inherits: ["Int"]}
		}
	`)
	assert.Equal(t, []string{"people.taxi", "ids.taxi"}, doc.Sources)
	id := doc.ObjectType("people.Person").Field("id")
	require.NotNil(t, id)
	assert.Equal(t, ir.QualifiedName("ids.PersonId"), id.Type.Name())
}

func TestCompileScalarExpression(t *testing.T) {
	doc := mustCompile(t, `
		namespace: "geo"
		types: {
			Area: {inherits: ["Int"], by: {op: "*", left: {type: "Height"}, right: {type: "Width"}}}
			Height: inherits: ["Int"]
			Width: inherits: ["Int"]
		}
	`)

	area := doc.ObjectType("geo.Area")
	require.NotNil(t, area)
	expr, ok := area.Expression().(*ir.BinaryOperatorExpression)
	require.True(t, ok)
	assert.Equal(t, ir.Int, expr.Return)
	assert.Equal(t, ir.QualifiedName("geo.Height"), expr.Left.ReturnType().Name())
}

func TestCompileMutuallyDependentExpressions(t *testing.T) {
	doc := mustCompile(t, `
		types: {
			X: {inherits: ["Decimal"], by: {op: "+", left: {type: "Y"}, right: {type: "Z"}}}
			Y: {inherits: ["Decimal"], by: {op: "+", left: {type: "X"}, right: {type: "Z"}}}
			Z: {inherits: ["Decimal"], by: {op: "+", left: {type: "X"}, right: {type: "Y"}}}
		}
	`)
	for _, name := range []ir.QualifiedName{"X", "Y", "Z"} {
		obj := doc.ObjectType(name)
		require.NotNil(t, obj, name)
		assert.NotNil(t, obj.Expression(), name)
		assert.Equal(t, ir.Decimal, ir.BasePrimitive(obj), name)
	}
}

func TestCompileFieldSelfReference(t *testing.T) {
	doc, diags := compileCUE(t, `
		types: Loop: fields: x: {by: {field: "this.x"}}
	`)
	cyclic := diags.WithCode(diag.CyclicDependency)
	require.Len(t, cyclic, 1)
	assert.Equal(t, "Field x of Loop has a cyclic dependency on itself", cyclic[0].Message)
	assert.NotNil(t, doc, "partial document is still returned")
}

func TestCompileFieldsReferenceEachOther(t *testing.T) {
	doc := mustCompile(t, `
		types: {
			Total: inherits: ["Decimal"]
			Order: fields: {
				total: {type: "Total", by: {op: "+", left: {field: "this.net"}, right: {field: "this.tax"}}}
				net: "Decimal"
				tax: "Decimal"
			}
		}
	`)
	total := doc.ObjectType("Order").Field("total")
	require.NotNil(t, total)
	require.NotNil(t, total.Expression())
	assert.Equal(t, ir.Decimal, total.Expression().ReturnType())
}

func TestCompileDuplicateFieldsReportEverySite(t *testing.T) {
	pos := func(line int) syntax.Pos { return syntax.Pos{Source: "dup.taxi", Line: line, Column: 3} }
	name := syntax.MustParseTypeRef("String")
	docs := []*syntax.Document{{
		Source:    "dup.taxi",
		Namespace: "acme",
		Decls: []syntax.Decl{&syntax.TypeDecl{
			Name: "Person",
			Pos:  pos(1),
			Body: &syntax.TypeBody{Fields: []syntax.FieldDecl{
				{Name: "name", Pos: pos(2), Type: &name},
				{Name: "age", Pos: pos(3), Type: &name},
				{Name: "name", Pos: pos(4), Type: &name},
			}},
		}},
	}}

	_, diags := Compile(docs, WithNameGenerator(NewSequenceNames()))
	errs := diags.Errors()
	require.Len(t, errs, 2)
	for i, line := range []int{2, 4} {
		assert.Equal(t, diag.StructuralError, errs[i].Code)
		assert.Equal(t, line, errs[i].Pos.Line)
		assert.Equal(t, "Field name is declared more than once in acme.Person", errs[i].Message)
	}
}

func TestCompileFailedDocumentIsNil(t *testing.T) {
	docs := decodeCUE(t, `types: Person: fields: name: "Nmae"`)
	doc, diags := Compile(docs)
	assert.Nil(t, doc)
	require.True(t, diags.HasErrors())
	assert.Equal(t, diag.NotDefined, diags.Errors()[0].Code)
	assert.Contains(t, diags.Errors()[0].Message, "Nmae is not defined")
}

func TestCompileEnum(t *testing.T) {
	doc := mustCompile(t, `
		namespace: "acme"
		enums: Foo: values: ["One", "Two"]
	`)
	foo := doc.EnumType("acme.Foo")
	require.NotNil(t, foo)
	require.Len(t, foo.Values(), 2)
	assert.Equal(t, "One", foo.Values()[0].Name)
	assert.Equal(t, ir.QualifiedName("acme.Foo.Two"), foo.Values()[1].Qualified)
	assert.Equal(t, ir.IRString("One"), foo.Value("One").Value)
	assert.Equal(t, ir.String, foo.Definition().BasePrimitive)
}

func TestCompileEnumMixedValues(t *testing.T) {
	_, diags := compileCUE(t, `
		enums: Code: values: [{name: "A", value: 1}, {name: "B", value: "b"}]
	`)
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Enum Code mixes values of type Int and String")
}

func TestCompileEnumDuplicateDefault(t *testing.T) {
	_, diags := compileCUE(t, `
		enums: Size: values: [{name: "S", default: true}, {name: "M", default: true}]
	`)
	assert.Equal(t, []string{"Enum Size has more than one default value"}, messages(diags.Errors()))
}

func TestCompileSynonymsAreTransitive(t *testing.T) {
	doc := mustCompile(t, `
		namespace: "geo"
		enums: {
			Country: values: [{name: "NZ", synonyms: ["IsoCountry.NZL"]}]
			IsoCountry: values: [{name: "NZL", synonyms: ["CountryCode.N"]}]
			CountryCode: values: ["N"]
		}
	`)
	require.NotNil(t, doc.Synonyms)
	assert.Equal(t,
		[]ir.QualifiedName{"geo.CountryCode.N", "geo.IsoCountry.NZL"},
		doc.Synonyms.Synonyms("geo.Country.NZ"))
	assert.Equal(t,
		[]ir.QualifiedName{"geo.Country.NZ", "geo.IsoCountry.NZL"},
		doc.Synonyms.Synonyms("geo.CountryCode.N"))
}

func TestCompileArrayCovariance(t *testing.T) {
	mustCompile(t, `
		types: {
			Animal: fields: name: "String"
			Dog: inherits: ["Animal"]
			Zoo: fields: {
				dogs: "Dog[]"
				animals: {type: "Animal[]", by: {field: "this.dogs"}}
			}
		}
	`)

	_, diags := compileCUE(t, `
		types: {
			Animal: fields: name: "String"
			Dog: inherits: ["Animal"]
			Zoo: fields: {
				animals: "Animal[]"
				dogs: {type: "Dog[]", by: {field: "this.animals"}}
			}
		}
	`)
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diag.TypeMismatch, errs[0].Code)
	assert.Equal(t,
		"Type mismatch. Type of lang.taxi.Array<Animal> is not assignable to type lang.taxi.Array<Dog>",
		errs[0].Message)
}

func TestCompileTypeCheckerModes(t *testing.T) {
	const src = `types: Age: fields: years: {type: "Int", by: {lit: "old"}}`

	t.Run("error", func(t *testing.T) {
		doc, diags := Compile(decodeCUE(t, src), WithTypeChecker(typecheck.Error))
		assert.Nil(t, doc)
		require.Len(t, diags.Errors(), 1)
		assert.Equal(t, diag.TypeMismatch, diags.Errors()[0].Code)
	})
	t.Run("warning", func(t *testing.T) {
		doc, diags := Compile(decodeCUE(t, src), WithTypeChecker(typecheck.Warning))
		require.NotNil(t, doc)
		assert.False(t, diags.HasErrors())
		require.Len(t, diags.Warnings(), 1)
		assert.Equal(t,
			"Type mismatch. Type of lang.taxi.String is not assignable to type lang.taxi.Int",
			diags.Warnings()[0].Message)
	})
	t.Run("disabled", func(t *testing.T) {
		doc, diags := Compile(decodeCUE(t, src), WithTypeChecker(typecheck.Disabled))
		require.NotNil(t, doc)
		assert.Empty(t, diags)
	})
}

func TestCompileProjectionSymmetry(t *testing.T) {
	_, diags := compileCUE(t, `
		types: {
			Person: fields: name: "String"
			Team: fields: {
				people: "Person[]"
				lead: {type: "Person", by: {project: {field: "this.people"}, as: "Person"}}
			}
		}
	`)
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t,
		"The source type lang.taxi.Array<Person> and the projected type Person should either be list or single entity",
		errs[0].Message)
}

func TestCompileProjectionBody(t *testing.T) {
	doc := mustCompile(t, `
		types: {
			Person: fields: {name: "String", age: "Int"}
			Team: fields: {
				people: "Person[]"
				names: by: {project: {field: "this.people"}, body: fields: name: {}}
			}
		}
	`)
	names := doc.ObjectType("Team").Field("names")
	require.NotNil(t, names)
	arr, ok := names.Type.(*ir.ArrayType)
	require.True(t, ok, "projecting a list yields a list")
	member := arr.Member.(*ir.ObjectType)
	assert.True(t, member.IsAnonymous())
	name := member.Field("name")
	require.NotNil(t, name)
	assert.Equal(t, ir.String, name.Type)
	assert.Equal(t, ir.QualifiedName("Person"), name.MemberSource)
}

func TestCompileInlineType(t *testing.T) {
	doc := mustCompile(t, `
		namespace: "acme"
		types: Order: fields: lines: {inline: fields: sku: "String", inlineList: true}
	`)
	lines := doc.ObjectType("acme.Order").Field("lines")
	require.NotNil(t, lines)
	arr, ok := lines.Type.(*ir.ArrayType)
	require.True(t, ok)
	assert.Equal(t, ir.QualifiedName("acme.Order$lines$1"), arr.Member.Name())
	_, registered := doc.Type("acme.Order$lines$1")
	assert.True(t, registered, "anonymous types appear in the document")
}

func TestCompileImportsClosure(t *testing.T) {
	base := mustCompile(t, `
		namespace: "base"
		types: {
			Name: inherits: ["String"]
			Person: fields: name: "Name"
			Unused: inherits: ["Int"]
		}
	`)

	doc := mustCompile(t, `
		namespace: "hr"
		imports: ["base.Person"]
		types: Employee: fields: person: "Person"
	`, WithImports(base))

	for _, name := range []ir.QualifiedName{"hr.Employee", "base.Person", "base.Name"} {
		_, ok := doc.Type(name)
		assert.True(t, ok, "%s should be in the document", name)
	}
	_, ok := doc.Type("base.Unused")
	assert.False(t, ok, "types outside the import closure are not pulled in")
}

func TestCompileImportNotDefined(t *testing.T) {
	_, diags := compileCUE(t, `imports: ["base.Missing"]`)
	assert.Equal(t, []string{"cannot import base.Missing as it is not defined"}, messages(diags.Errors()))
}

func TestCompileAmbiguousReference(t *testing.T) {
	_, diags := compileCUE(t, `
		documents: {
			"a.taxi": {namespace: "a", types: Name: inherits: ["String"]}
			"b.taxi": {namespace: "b", types: Name: inherits: ["String"]}
			"c.taxi": {namespace: "c", types: Person: fields: name: "Name"}
		}
	`)
	amb := diags.WithCode(diag.AmbiguousReference)
	require.Len(t, amb, 1)
	assert.Contains(t, amb[0].Message, "could refer to any of the available types a.Name, b.Name")
}

func TestCompileImportDisambiguates(t *testing.T) {
	doc := mustCompile(t, `
		documents: {
			"a.taxi": {namespace: "a", types: Name: inherits: ["String"]}
			"b.taxi": {namespace: "b", types: Name: inherits: ["String"]}
			"c.taxi": {namespace: "c", imports: ["b.Name"], types: Person: fields: name: "Name"}
		}
	`)
	assert.Equal(t, ir.QualifiedName("b.Name"), doc.ObjectType("c.Person").Field("name").Type.Name())
}

func TestCompileMaxDepth(t *testing.T) {
	_, diags := compileCUE(t, `
		types: {
			A: fields: b: "B"
			B: fields: c: "C"
			C: fields: d: "D"
			D: inherits: ["String"]
		}
	`, WithMaxDepth(2))
	assert.NotEmpty(t, diags.WithCode(diag.ResolutionDepthExceeded))
}

func TestCompileIsDeterministic(t *testing.T) {
	const src = `
		namespace: "acme"
		types: Order: fields: lines: {inline: fields: sku: "String"}
		queries: [{find: ["Order[]"], as: {fields: lines: {}, list: true}}]
	`
	first := mustCompile(t, src)
	second := mustCompile(t, src)

	a, err := ir.MarshalCanonical(ir.Describe(first))
	require.NoError(t, err)
	b, err := ir.MarshalCanonical(ir.Describe(second))
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
