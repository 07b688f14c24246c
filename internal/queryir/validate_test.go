package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/ir"
)

func people() *Select {
	return &Select{
		From:    &Table{Name: "Person"},
		Columns: []Column{{Name: "name", Value: ColumnRef{Table: "Person", Column: "name"}}},
	}
}

func TestValidate_PortableQuery(t *testing.T) {
	sel := people()
	sel.Filter = &Compare{
		Left:  ColumnRef{Table: "Person", Column: "age"},
		Op:    ">",
		Right: Literal{Value: ir.IRInt(18)},
	}

	result := Validate(sel)

	assert.True(t, result.IsPortable, "simple select should be portable")
	assert.Empty(t, result.Warnings, "no warnings for portable query")
}

func TestValidate_NoColumns(t *testing.T) {
	result := Validate(&Select{From: &Table{Name: "Person"}})

	assert.False(t, result.IsPortable)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Select from Person projects no columns")
}

func TestValidate_NullComparison(t *testing.T) {
	sel := people()
	sel.Filter = &Compare{Left: ColumnRef{Table: "Person", Column: "name"}, Op: "==", Right: Literal{Value: ir.IRNull{}}}

	result := Validate(sel)

	assert.False(t, result.IsPortable)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "NULL is never true")
}

func TestValidate_NullInList(t *testing.T) {
	sel := people()
	sel.Filter = &In{Subject: ColumnRef{Table: "Person", Column: "name"}, Values: []ir.IRValue{ir.IRString("a"), ir.IRNull{}}}

	result := Validate(sel)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "IN list contains NULL")
}

func TestValidate_LikeInsideOr(t *testing.T) {
	sel := people()
	sel.Filter = &Or{Predicates: []Predicate{
		&Like{Subject: ColumnRef{Table: "Person", Column: "name"}, Pattern: "A%"},
		&Compare{Left: ColumnRef{Table: "Person", Column: "name"}, Op: "==", Right: Literal{Value: ir.IRString("Bob")}},
	}}

	result := Validate(sel)

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, `LIKE "A%" - case sensitivity differs between SQL engines`, result.Warnings[0])
}

func TestValidate_CrossJoin(t *testing.T) {
	sel := people()
	sel.From = &Join{Left: &Table{Name: "Person"}, Right: &Table{Name: "Order"}}

	result := Validate(sel)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "Join with Order has no condition")
}

func TestValidate_UnionColumnMismatch(t *testing.T) {
	wide := people()
	wide.Columns = append(wide.Columns, Column{Name: "age", Value: ColumnRef{Table: "Person", Column: "age"}})

	result := Validate(&Union{Selects: []*Select{people(), wide}})

	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "Union branch 2 has 2 columns, expected 1", result.Warnings[0])
}

func TestValidate_NilQuery(t *testing.T) {
	result := Validate(nil)

	assert.False(t, result.IsPortable)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "nil query")
}
