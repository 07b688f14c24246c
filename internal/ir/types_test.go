package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedName(t *testing.T) {
	q := Parameterize(ArrayName, "acme.Name")
	assert.Equal(t, QualifiedName("lang.taxi.Array<acme.Name>"), q)
	assert.True(t, q.Parameterized())
	assert.Equal(t, ArrayName, q.Base())
	assert.Equal(t, "lang.taxi", q.Namespace())
	assert.Equal(t, "Array", q.Simple())

	assert.Equal(t, QualifiedName("Foo"), NewQualifiedName("", "Foo"))
	assert.False(t, QualifiedName("Foo").Qualified())
	assert.Equal(t, "Foo", QualifiedName("Foo").Simple())
}

func TestPrimitiveByName(t *testing.T) {
	p, ok := PrimitiveByName("String")
	require.True(t, ok)
	assert.Same(t, String, p)

	p, ok = PrimitiveByName("lang.taxi.Decimal")
	require.True(t, ok)
	assert.Same(t, Decimal, p)

	_, ok = PrimitiveByName("Strin")
	assert.False(t, ok)
	assert.True(t, Int.IsNumeric())
	assert.True(t, Date.IsTemporal())
	assert.False(t, String.IsNumeric())
}

func TestInheritanceThroughAliases(t *testing.T) {
	name := NewObjectType("acme.Name")
	name.Define(&ObjectDefinition{Inherits: []Type{String}})
	alias := NewTypeAlias("acme.PersonName")
	alias.Define(name)
	first := NewObjectType("acme.FirstName")
	first.Define(&ObjectDefinition{Inherits: []Type{alias}})

	assert.True(t, InheritsFrom(first, name))
	assert.True(t, InheritsFrom(first, alias))
	assert.True(t, InheritsFrom(first, String))
	assert.False(t, InheritsFrom(name, first))
	assert.Same(t, String, BasePrimitive(first))
	assert.Equal(t, Type(name), Unwrap(alias))
}

func TestCollections(t *testing.T) {
	order := NewObjectType("acme.Order")
	orders := NewTypeAlias("acme.Orders")
	orders.Define(StreamOf(order))

	assert.True(t, IsCollection(ArrayOf(order)))
	assert.False(t, IsCollection(StreamOf(order)))
	assert.True(t, IsCollectionLike(ArrayOf(order)))
	assert.True(t, IsCollectionLike(orders))
	assert.False(t, IsCollectionLike(order))
	assert.Equal(t, Type(order), CollectionMember(orders))
	assert.Equal(t, Type(order), CollectionMember(order))
}

func TestBasePrimitiveHandlesCycles(t *testing.T) {
	a := NewObjectType("x.A")
	b := NewObjectType("x.B")
	a.Define(&ObjectDefinition{Inherits: []Type{b}})
	b.Define(&ObjectDefinition{Inherits: []Type{a}})
	assert.Nil(t, BasePrimitive(a))
	assert.False(t, InheritsFrom(a, String))

	loop := NewTypeAlias("x.Loop")
	loop.Define(loop)
	assert.Equal(t, Type(loop), Unwrap(loop))
}

func TestBasePrimitiveFromExpression(t *testing.T) {
	area := NewObjectType("x.Area")
	area.Define(&ObjectDefinition{Expression: &BinaryOperatorExpression{
		Operator: OpMultiply,
		Left:     &LiteralExpression{Value: IRInt(1), Type: Int},
		Right:    &LiteralExpression{Value: IRInt(2), Type: Int},
		Return:   Int,
	}})
	assert.Same(t, Int, BasePrimitive(area))
}

func TestAllFieldsOverridesInherited(t *testing.T) {
	base := NewObjectType("x.Base")
	base.Define(&ObjectDefinition{Fields: []*Field{
		{Name: "id", Type: String, Owner: "x.Base"},
		{Name: "name", Type: String, Owner: "x.Base"},
	}})
	child := NewObjectType("x.Child")
	child.Define(&ObjectDefinition{
		Inherits: []Type{base},
		Fields: []*Field{
			{Name: "name", Type: Int, Owner: "x.Child"},
			{Name: "age", Type: Int, Owner: "x.Child"},
		},
	})

	fields := child.AllFields()
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"id", "name", "age"}, []string{fields[0].Name, fields[1].Name, fields[2].Name})
	assert.Equal(t, QualifiedName("x.Child"), child.Field("name").Owner)
	assert.Nil(t, child.Field("missing"))
}

func TestClosureFollowsReferences(t *testing.T) {
	first := NewObjectType("x.FirstName")
	first.Define(&ObjectDefinition{Inherits: []Type{String}})
	tag := NewEnumType("x.Tag")
	tag.Define(&EnumDefinition{BasePrimitive: String})
	customer := NewObjectType("x.Customer")
	customer.Define(&ObjectDefinition{Fields: []*Field{
		{Name: "name", Type: first},
		{Name: "tags", Type: ArrayOf(tag)},
	}})

	got := Closure(customer)
	require.Len(t, got, 3)
	assert.Same(t, customer, got[0])
	assert.ElementsMatch(t, []Type{first, tag}, got[1:])
}

func TestOperators(t *testing.T) {
	op, ok := ParseOperator("*")
	require.True(t, ok)
	assert.Equal(t, OpMultiply, op)
	assert.True(t, op.IsArithmetic())

	_, ok = ParseOperator("<>")
	assert.False(t, ok)
	assert.True(t, OpLessOrEqual.IsOrdering())
	assert.True(t, OpNotEqual.IsComparison())
	assert.True(t, OpOr.IsLogical())
	assert.Equal(t, ">=", OpGreaterOrEqual.String())
}

func TestFormatExpression(t *testing.T) {
	height := NewObjectType("x.Height")
	width := NewObjectType("x.Width")
	expr := &BinaryOperatorExpression{
		Operator: OpMultiply,
		Left:     &TypeReferenceExpression{Type: height},
		Right: &BinaryOperatorExpression{
			Operator: OpAdd,
			Left:     &TypeReferenceExpression{Type: width},
			Right:    &LiteralExpression{Value: IRInt(1), Type: Int},
		},
	}
	assert.Equal(t, "x.Height * (x.Width + 1)", FormatExpression(expr))
}

func TestDescribeOmitsEmptyValues(t *testing.T) {
	doc := NewDocument()
	e := NewEnumType("x.Foo")
	e.Define(&EnumDefinition{BasePrimitive: String, Values: []*EnumValue{
		{Name: "One", Qualified: "x.Foo.One", Value: IRString("One")},
	}})
	doc.AddType(e)

	out, err := MarshalCanonical(Describe(doc))
	require.NoError(t, err)
	assert.Equal(t,
		`{"schemaVersion":"1","types":[{"basePrimitive":"lang.taxi.String","kind":"enum","name":"x.Foo","values":[{"name":"One","value":"\"One\""}]}]}`,
		string(out))
}
