package queryir

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/compiler"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax/cuetree"
)

const shopSchema = `
	namespace: "shop"
	types: {
		PersonId: inherits: ["String"]
		Address: fields: {city: "String", zip: "String"}
		Person: fields: {
			id: "PersonId"
			name: "String"
			age: "Int"
			address: "Address"
			tags: "String[]"
		}
		Order: fields: {
			buyer: "PersonId"
			total: "Decimal"
		}
	}
`

// compileView compiles a CUE fixture and returns the named view.
func compileView(t *testing.T, src string, name ir.QualifiedName) (*ir.Document, *ir.View) {
	t.Helper()
	v := cuecontext.New().CompileString(shopSchema + src)
	require.NoError(t, v.Err())
	docs, err := cuetree.DecodeDocuments(v)
	require.NoError(t, err)
	doc, diags := compiler.Compile(docs, compiler.WithNameGenerator(compiler.NewSequenceNames()))
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags.Errors())
	view := doc.View(name)
	require.NotNil(t, view)
	return doc, view
}

func person(column string) ColumnRef { return ColumnRef{Table: "shop.Person", Column: column} }
func order(column string) ColumnRef  { return ColumnRef{Table: "shop.Order", Column: column} }

func TestTableColumns(t *testing.T) {
	doc, _ := compileView(t, `views: All: finds: [{types: ["Person[]"]}]`, "shop.All")
	cols := TableColumns(doc.ObjectType("shop.Person"))
	assert.Equal(t, []TableColumn{
		{Name: "id", Type: ir.String},
		{Name: "name", Type: ir.String},
		{Name: "age", Type: ir.Int},
		{Name: "address.city", Type: ir.String},
		{Name: "address.zip", Type: ir.String},
	}, cols, "collections are skipped and nested models are flattened")
}

func TestLowerView_WholeTable(t *testing.T) {
	_, view := compileView(t, `views: All: finds: [{types: ["Person[]"]}]`, "shop.All")

	q, err := LowerView(view)
	require.NoError(t, err)
	sel, ok := q.(*Select)
	require.True(t, ok)
	assert.Equal(t, &Table{Name: "shop.Person"}, sel.From)
	require.Len(t, sel.Columns, 5)
	assert.Equal(t, Column{Name: "address.city", Value: person("address.city")}, sel.Columns[3])
	assert.Nil(t, sel.Filter)
	assert.Empty(t, sel.GroupBy)
}

func TestLowerView_JoinFilterAggregate(t *testing.T) {
	_, view := compileView(t, `
		views: Spend: finds: [{
			types: ["Person[]", "Order[]"]
			where: {op: ">", left: {path: "this.age"}, right: {value: 18}}
			as: fields: {
				who: {type: "PersonId", attr: "Person::id"}
				total: by: {call: "sumOver", args: [{attr: "Order::total"}]}
			}
		}]
	`, "shop.Spend")

	q, err := LowerView(view)
	require.NoError(t, err)
	sel := q.(*Select)

	assert.Equal(t, &Join{
		Left:  &Table{Name: "shop.Person"},
		Right: &Table{Name: "shop.Order"},
		On:    &Compare{Left: person("id"), Op: "==", Right: order("buyer")},
	}, sel.From)
	assert.Equal(t, []Column{
		{Name: "who", Value: person("id")},
		{Name: "total", Value: Aggregate{Func: AggregateSum, Arg: order("total")}},
	}, sel.Columns)
	assert.Equal(t, &Compare{Left: person("age"), Op: ">", Right: Literal{Value: ir.IRInt(18)}}, sel.Filter)
	assert.Equal(t, []ColumnRef{person("id")}, sel.GroupBy, "non-aggregate columns are grouped")
}

func TestLowerView_PredicatesFlatten(t *testing.T) {
	_, view := compileView(t, `
		views: Some: finds: [{
			types: ["Person[]"]
			where: {and: [
				{subject: {path: "name"}, like: "A%"},
				{or: [
					{subject: {path: "address.city"}, anyOf: ["Paris", "Rome"]},
					{op: "==", left: {path: "age"}, right: {value: 30}},
				]},
				{op: "!=", left: {path: "name"}, right: {value: "Bob"}},
			]}
		}]
	`, "shop.Some")

	q, err := LowerView(view)
	require.NoError(t, err)
	and, ok := q.(*Select).Filter.(*And)
	require.True(t, ok)
	assert.Equal(t, []Predicate{
		&Like{Subject: person("name"), Pattern: "A%"},
		&Or{Predicates: []Predicate{
			&In{Subject: person("address.city"), Values: []ir.IRValue{ir.IRString("Paris"), ir.IRString("Rome")}},
			&Compare{Left: person("age"), Op: "==", Right: Literal{Value: ir.IRInt(30)}},
		}},
		&Compare{Left: person("name"), Op: "!=", Right: Literal{Value: ir.IRString("Bob")}},
	}, and.Predicates)
}

func TestLowerView_UnionAlignsColumns(t *testing.T) {
	_, view := compileView(t, `
		views: Everyone: finds: [
			{types: ["Person[]"], as: fields: {
				who: {type: "PersonId", attr: "Person::id"}
				years: {type: "Int", attr: "Person::age"}
			}},
			{types: ["Order[]"], as: fields: who: {type: "PersonId", attr: "Order::buyer"}},
		]
	`, "shop.Everyone")

	q, err := LowerView(view)
	require.NoError(t, err)
	union, ok := q.(*Union)
	require.True(t, ok)
	require.Len(t, union.Selects, 2)
	assert.Equal(t, []Column{
		{Name: "who", Value: person("id")},
		{Name: "years", Value: person("age")},
	}, union.Selects[0].Columns)
	assert.Equal(t, []Column{
		{Name: "who", Value: order("buyer")},
		{Name: "years", Value: Null{}},
	}, union.Selects[1].Columns)
}

func TestLowerView_Nil(t *testing.T) {
	_, err := LowerView(nil)
	require.Error(t, err)

	_, err = LowerView(&ir.View{Name: "Empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view Empty has no find blocks")
}
