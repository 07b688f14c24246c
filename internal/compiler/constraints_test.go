package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
)

// peopleSchema is shared by the constraint tests. Each test adds one query.
const peopleSchema = `
	types: {
		Name: inherits: ["String"]
		Age: inherits: ["Int"]
		BirthDate: inherits: ["Date"]
		Person: fields: {
			first: "Name"
			last: "Name"
			age: "Age"
			born: "BirthDate"
			address: {inline: fields: city: "String"}
		}
	}
`

func compileQueryWhere(t *testing.T, where string) (*ir.Document, diag.List) {
	t.Helper()
	return compileCUE(t, peopleSchema+`
		queries: [{
			name: "Q"
			mode: "findAll"
			params: [{name: "min", type: "Age"}]
			find: [{type: "Person[]", where: `+where+`}]
		}]
	`)
}

func queryConstraint(t *testing.T, doc *ir.Document) ir.Constraint {
	t.Helper()
	q := doc.Query("Q")
	require.NotNil(t, q)
	require.Len(t, q.Discovery, 1)
	require.Len(t, q.Discovery[0].Constraints, 1)
	return q.Discovery[0].Constraints[0]
}

func TestConstraintPropertyByType(t *testing.T) {
	doc, diags := compileQueryWhere(t, `{op: ">=", left: {property: "Age"}, right: {param: "min"}}`)
	require.False(t, diags.HasErrors(), "%v", diags)

	cmp, ok := queryConstraint(t, doc).(*ir.ComparisonConstraint)
	require.True(t, ok)
	assert.Equal(t, ">=", cmp.Operator.Symbol())
	prop, ok := cmp.Left.(*ir.PropertyTypeOperand)
	require.True(t, ok)
	assert.Equal(t, "age", prop.Field.Name)
	assert.Equal(t, "min", cmp.Right.(*ir.ParameterOperand).Name)
}

func TestConstraintValueOnLeftIsMirrored(t *testing.T) {
	doc, diags := compileQueryWhere(t, `{op: "<", left: {value: 18}, right: {property: "Age"}}`)
	require.False(t, diags.HasErrors(), "%v", diags)

	cmp := queryConstraint(t, doc).(*ir.ComparisonConstraint)
	assert.Equal(t, ">", cmp.Operator.Symbol())
	assert.IsType(t, &ir.PropertyTypeOperand{}, cmp.Left)
	assert.Equal(t, ir.IRInt(18), cmp.Right.(*ir.ValueOperand).Value)
}

func TestConstraintValueCoercedToProperty(t *testing.T) {
	doc, diags := compileQueryWhere(t, `{op: "==", left: {property: "Age"}, right: {value: "21"}}`)
	require.False(t, diags.HasErrors(), "%v", diags)

	cmp := queryConstraint(t, doc).(*ir.ComparisonConstraint)
	v := cmp.Right.(*ir.ValueOperand)
	assert.Equal(t, ir.IRInt(21), v.Value)
	assert.Equal(t, ir.Int, v.Type)
}

func TestConstraintInListCoercedToProperty(t *testing.T) {
	doc, diags := compileQueryWhere(t, `{subject: {path: "born"}, anyOf: ["2020-01-31", "2021-02-28"]}`)
	require.False(t, diags.HasErrors(), "%v", diags)

	in := queryConstraint(t, doc).(*ir.InListConstraint)
	require.Len(t, in.Values, 2)
	born, ok := in.Values[0].(ir.IRTemporal)
	require.True(t, ok, "got %T", in.Values[0])
	assert.Equal(t, ir.TemporalDate, born.Kind)
	assert.Equal(t, 2020, born.Time.Year())

	// Numbers become strings against a String property.
	doc, diags = compileQueryWhere(t, `{subject: {path: "last"}, anyOf: [1, 2]}`)
	require.False(t, diags.HasErrors(), "%v", diags)
	in = queryConstraint(t, doc).(*ir.InListConstraint)
	assert.Equal(t, []ir.IRValue{ir.IRString("1"), ir.IRString("2")}, in.Values)
}

func TestConstraintFieldPath(t *testing.T) {
	doc, diags := compileQueryWhere(t, `{subject: {path: "this.address.city"}, like: "Lon%"}`)
	require.False(t, diags.HasErrors(), "%v", diags)

	like := queryConstraint(t, doc).(*ir.LikeConstraint)
	assert.Equal(t, "Lon%", like.Pattern)
	path := like.Subject.(*ir.PropertyFieldOperand)
	require.Len(t, path.Path, 2)
	assert.Equal(t, "city", path.Path[1].Name)
	assert.Equal(t, ir.String, path.OperandType())
}

func TestConstraintAndOr(t *testing.T) {
	doc, diags := compileQueryWhere(t, `{or: [
		{op: "==", left: {path: "first"}, right: {value: "Ann"}},
		{and: [
			{op: ">", left: {property: "Age"}, right: {value: 30}},
			{subject: {path: "last"}, anyOf: ["Smith", "Jones"]},
		]},
	]}`)
	require.False(t, diags.HasErrors(), "%v", diags)

	or := queryConstraint(t, doc).(*ir.OrConstraint)
	assert.IsType(t, &ir.ComparisonConstraint{}, or.Left)
	and := or.Right.(*ir.AndConstraint)
	in := and.Right.(*ir.InListConstraint)
	assert.False(t, in.Negated)
	assert.Equal(t, []ir.IRValue{ir.IRString("Smith"), ir.IRString("Jones")}, in.Values)
}

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name  string
		where string
		code  diag.Code
		msg   string
	}{
		{
			name:  "ordering a string",
			where: `{op: ">", left: {path: "first"}, right: {value: "A"}}`,
			code:  diag.TypeMismatch,
			msg:   "Operator > is not applicable to String properties, only == and != are supported",
		},
		{
			name:  "like on a number",
			where: `{subject: {property: "Age"}, like: "1%"}`,
			code:  diag.TypeMismatch,
			msg:   "Operator like is not applicable to Int properties",
		},
		{
			name:  "in on a number",
			where: `{subject: {property: "Age"}, noneOf: [1, 2]}`,
			code:  diag.TypeMismatch,
			msg:   "Operator not in is not applicable to Int properties",
		},
		{
			name:  "mixed list",
			where: `{subject: {path: "last"}, anyOf: ["a", 1]}`,
			code:  diag.TypeMismatch,
			msg:   `Values of an in list must all have the same type, but "a" is String and 1 is Int`,
		},
		{
			name:  "in list value type",
			where: `{subject: {path: "born"}, noneOf: ["2020-01-31", "someday"]}`,
			code:  diag.TypeMismatch,
			msg:   "Type mismatch. Type of lang.taxi.String is not assignable to type BirthDate",
		},
		{
			name:  "value type",
			where: `{op: "==", left: {property: "Age"}, right: {value: "old"}}`,
			code:  diag.TypeMismatch,
			msg:   "Type mismatch. Type of lang.taxi.String is not assignable to type Age",
		},
		{
			name:  "ambiguous property",
			where: `{op: "==", left: {property: "Name"}, right: {value: "x"}}`,
			code:  diag.AmbiguousReference,
			msg:   "Property type Name is ambiguous on lang.taxi.Array<Person>, it matches fields first, last",
		},
		{
			name:  "missing property",
			where: `{op: "==", left: {property: "String"}, right: {value: "x"}}`,
			code:  diag.NotDefined,
			msg:   "No property of type lang.taxi.String exists on lang.taxi.Array<Person>",
		},
		{
			name:  "unknown parameter",
			where: `{op: "==", left: {property: "Age"}, right: {param: "max"}}`,
			code:  diag.NotDefined,
			msg:   "Parameter max is not defined",
		},
		{
			name:  "unknown field",
			where: `{op: "==", left: {path: "this.nickname"}, right: {value: "x"}}`,
			code:  diag.NotDefined,
			msg:   "Field nickname is not defined on type Person",
		},
		{
			name:  "arithmetic operator",
			where: `{op: "+", left: {property: "Age"}, right: {value: 1}}`,
			code:  diag.StructuralError,
			msg:   "+ is not a comparison operator",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := compileQueryWhere(t, tt.where)
			errs := diags.Errors()
			require.Len(t, errs, 1, "%v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.msg, errs[0].Message)
		})
	}
}

func TestConstraintBothSidesReported(t *testing.T) {
	_, diags := compileQueryWhere(t, `{and: [
		{op: "==", left: {param: "nope"}, right: {value: 1}},
		{op: "==", left: {param: "other"}, right: {value: 1}},
	]}`)
	assert.Equal(t, []string{
		"Parameter nope is not defined",
		"Parameter other is not defined",
	}, messages(diags.Errors()))
}
