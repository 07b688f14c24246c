package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

const adultCondition = `{op: ">", left: {field: "this.age"}, right: {lit: 17}}`

func TestFieldConditionalBlock(t *testing.T) {
	doc := mustCompile(t, `
		types: Person: {
			fields: age: "Int"
			blocks: [{
				when: `+adultCondition+`
				fields: licence: "String"
			}]
		}
	`)
	person := doc.ObjectType("Person")
	require.NotNil(t, person)
	licence := person.Field("licence")
	require.NotNil(t, licence)
	require.NotNil(t, licence.Block)
	assert.Equal(t, []string{"licence"}, licence.Block.Fields)
	require.NotNil(t, licence.Block.Condition)
	assert.Equal(t, ir.Boolean, licence.Block.Condition.ReturnType())
	assert.Nil(t, person.Field("age").Block)
}

func TestFieldDuplicateAcrossBlockReportsEverySite(t *testing.T) {
	_, diags := compileCUE(t, `
		types: Person: {
			fields: {
				name: "String"
				age: "Int"
			}
			blocks: [{
				when: `+adultCondition+`
				fields: name: "String"
			}]
		}
	`)
	errs := diags.Errors()
	require.Len(t, errs, 2, "%v", errs)
	for _, d := range errs {
		assert.Equal(t, diag.StructuralError, d.Code)
		assert.Equal(t, "Field name is declared more than once in Person", d.Message)
	}
	assert.NotEqual(t, errs[0].Pos, errs[1].Pos)
}

func TestFieldDuplicateWithoutPositions(t *testing.T) {
	str := syntax.MustParseTypeRef("String")
	docs := []*syntax.Document{{
		Namespace: "acme",
		Decls: []syntax.Decl{&syntax.TypeDecl{
			Name: "Person",
			Body: &syntax.TypeBody{
				Fields: []syntax.FieldDecl{{Name: "name", Type: &str}},
				Conditionals: []syntax.ConditionalBlock{{
					Fields: []syntax.FieldDecl{{Name: "name", Type: &str}},
				}},
			},
		}},
	}}

	_, diags := Compile(docs, WithNameGenerator(NewSequenceNames()))
	assert.Equal(t, []string{
		"Field name is declared more than once in acme.Person",
		"Field name is declared more than once in acme.Person",
	}, messages(diags.Errors()))
}

func TestFieldWhenAccessor(t *testing.T) {
	doc := mustCompile(t, `
		types: Person: fields: {
			age: "Int"
			group: {
				type: "String"
				when: [
					{when: `+adultCondition+`, then: {lit: "adult"}},
					{then: {lit: "minor"}},
				]
			}
		}
	`)
	group := doc.ObjectType("Person").Field("group")
	require.NotNil(t, group)
	when, ok := group.Accessor.(*ir.ConditionalAccessor)
	require.True(t, ok, "got %T", group.Accessor)
	require.Len(t, when.Cases, 2)
	assert.NotNil(t, when.Cases[0].Condition)
	assert.Nil(t, when.Cases[1].Condition, "else branch")
	assert.Equal(t, ir.IRString("minor"), when.Cases[1].Value.(*ir.LiteralExpression).Value)
}

func TestFieldWhenAccessorErrors(t *testing.T) {
	tests := []struct {
		name  string
		cases string
		want  []string
	}{
		{
			name:  "else first",
			cases: `[{then: {lit: 2}}, {when: ` + adultCondition + `, then: {lit: 1}}]`,
			want:  []string{"The else branch must be the last case of a when block"},
		},
		{
			name: "two else branches",
			cases: `[
				{when: ` + adultCondition + `, then: {lit: 1}},
				{then: {lit: 2}},
				{then: {lit: 3}},
			]`,
			want: []string{
				"The else branch must be the last case of a when block",
				"A when block may only have one else branch",
			},
		},
		{
			name:  "condition is not boolean",
			cases: `[{when: {field: "this.age"}, then: {lit: 1}}]`,
			want:  []string{"Type mismatch. Type of lang.taxi.Int is not assignable to type lang.taxi.Boolean"},
		},
		{
			name:  "value is not the field type",
			cases: `[{when: ` + adultCondition + `, then: {lit: true}}]`,
			want:  []string{"Type mismatch. Type of lang.taxi.Boolean is not assignable to type Code"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := compileCUE(t, `
				types: {
					Code: inherits: ["Int"]
					Person: fields: {
						age: "Int"
						group: {type: "Code", when: `+tt.cases+`}
					}
				}
			`)
			assert.Equal(t, tt.want, messages(diags.Errors()))
		})
	}
}

func TestFieldDefaultAccessor(t *testing.T) {
	doc := mustCompile(t, `
		types: {
			Age: inherits: ["Int"]
			Person: fields: age: {type: "Age", default: "42"}
		}
	`)
	age := doc.ObjectType("Person").Field("age")
	require.NotNil(t, age)
	assert.Equal(t, &ir.DefaultAccessor{Value: ir.IRInt(42)}, age.Accessor)

	_, diags := compileCUE(t, `
		types: {
			Age: inherits: ["Int"]
			Person: fields: age: {type: "Age", default: "old"}
		}
	`)
	errs := diags.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, diag.TypeMismatch, errs[0].Code)
	assert.Equal(t, "Type mismatch. Type of lang.taxi.String is not assignable to type Age", errs[0].Message)
}

func TestFieldColumnAndPathAccessors(t *testing.T) {
	doc := mustCompile(t, `
		types: Row: fields: {
			id: {type: "String", column: 1}
			name: {type: "String", columnName: "full_name"}
			city: {type: "String", jsonPath: "$.address.city"}
			zip: {type: "String", xpath: "/row/zip"}
		}
	`)
	row := doc.ObjectType("Row")
	assert.Equal(t, &ir.ColumnAccessor{Index: 1}, row.Field("id").Accessor)
	assert.Equal(t, &ir.ColumnAccessor{Name: "full_name"}, row.Field("name").Accessor)
	assert.Equal(t, &ir.PathAccessor{Kind: ir.PathJSON, Path: "$.address.city"}, row.Field("city").Accessor)
	assert.Equal(t, &ir.PathAccessor{Kind: ir.PathXPath, Path: "/row/zip"}, row.Field("zip").Accessor)
}

func TestFieldAccessorErrors(t *testing.T) {
	t.Run("column without index or name", func(t *testing.T) {
		_, diags := compileCUE(t, `types: Row: fields: id: {type: "String", column: 0}`)
		assert.Equal(t, []string{"Column accessor needs a 1-based index or a column name"}, messages(diags.Errors()))
	})

	t.Run("empty path", func(t *testing.T) {
		_, diags := compileCUE(t, `types: Row: fields: id: {type: "String", jsonPath: "  "}`)
		assert.Equal(t, []string{"Path accessor has an empty path"}, messages(diags.Errors()))
	})

	t.Run("unknown path kind", func(t *testing.T) {
		str := syntax.MustParseTypeRef("String")
		pos := syntax.Pos{Source: "row.taxi", Line: 2, Column: 3}
		docs := []*syntax.Document{{
			Source:    "row.taxi",
			Namespace: "acme",
			Decls: []syntax.Decl{&syntax.TypeDecl{
				Name: "Row",
				Pos:  syntax.Pos{Source: "row.taxi", Line: 1, Column: 1},
				Body: &syntax.TypeBody{Fields: []syntax.FieldDecl{{
					Name:     "id",
					Pos:      pos,
					Type:     &str,
					Accessor: &syntax.PathAccessor{Kind: "css", Path: "#id", Pos: pos},
				}}},
			}},
		}}
		_, diags := Compile(docs, WithNameGenerator(NewSequenceNames()))
		errs := diags.Errors()
		require.Len(t, errs, 1)
		assert.Equal(t, diag.StructuralError, errs[0].Code)
		assert.Equal(t, "Unknown path accessor css; expected jsonPath or xpath", errs[0].Message)
		assert.Equal(t, pos, errs[0].Pos)
	})
}
