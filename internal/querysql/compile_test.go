package querysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/queryir"
)

func col(table, column string) queryir.ColumnRef {
	return queryir.ColumnRef{Table: table, Column: column}
}

func TestCompile_JoinFilterAggregate(t *testing.T) {
	query := &queryir.Select{
		From: &queryir.Join{
			Left:  &queryir.Table{Name: "shop.Person"},
			Right: &queryir.Table{Name: "shop.Order"},
			On:    &queryir.Compare{Left: col("shop.Person", "id"), Op: "==", Right: col("shop.Order", "buyer")},
		},
		Columns: []queryir.Column{
			{Name: "who", Value: col("shop.Person", "id")},
			{Name: "total", Value: queryir.Aggregate{Func: queryir.AggregateSum, Arg: col("shop.Order", "total")}},
		},
		Filter:  &queryir.Compare{Left: col("shop.Person", "age"), Op: ">", Right: queryir.Literal{Value: ir.IRInt(18)}},
		GroupBy: []queryir.ColumnRef{col("shop.Person", "id")},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "shop.Person"."id" AS "who", SUM("shop.Order"."total") AS "total"`+
		` FROM "shop.Person" INNER JOIN "shop.Order" ON "shop.Person"."id" = "shop.Order"."buyer"`+
		` WHERE "shop.Person"."age" > ?`+
		` GROUP BY "shop.Person"."id"`+
		` ORDER BY 1, 2`, sql)
	assert.Equal(t, []any{int64(18)}, params)
}

func TestCompile_PredicatesAreParameterized(t *testing.T) {
	query := &queryir.Select{
		From:    &queryir.Table{Name: "t"},
		Columns: []queryir.Column{{Name: "name", Value: col("t", "name")}},
		Filter: &queryir.And{Predicates: []queryir.Predicate{
			&queryir.Like{Subject: col("t", "name"), Pattern: "A%"},
			&queryir.Or{Predicates: []queryir.Predicate{
				&queryir.In{Subject: col("t", "city"), Values: []ir.IRValue{ir.IRString("Paris"), ir.IRString("Rome")}},
				&queryir.Compare{Left: col("t", "age"), Op: "==", Right: queryir.Literal{Value: ir.IRInt(30)}},
			}},
			&queryir.Compare{Left: col("t", "name"), Op: "!=", Right: queryir.Literal{Value: ir.IRString("Bob")}},
		}},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "t"."name" AS "name" FROM "t"`+
		` WHERE ("t"."name" LIKE ? AND ("t"."city" IN (?, ?) OR "t"."age" = ?) AND "t"."name" <> ?)`+
		` ORDER BY 1`, sql)
	assert.Equal(t, []any{"A%", "Paris", "Rome", int64(30), "Bob"}, params)
	assert.NotContains(t, sql, "Paris", "values are never interpolated")
}

func TestCompile_InList(t *testing.T) {
	testCases := []struct {
		name   string
		pred   queryir.Predicate
		where  string
		params []any
	}{
		{
			name:   "not in",
			pred:   &queryir.In{Subject: col("t", "n"), Values: []ir.IRValue{ir.IRInt(1)}, Negated: true},
			where:  `"t"."n" NOT IN (?)`,
			params: []any{int64(1)},
		},
		{
			name:  "empty in is false",
			pred:  &queryir.In{Subject: col("t", "n")},
			where: "1 = 0",
		},
		{
			name:  "empty not in is true",
			pred:  &queryir.In{Subject: col("t", "n"), Negated: true},
			where: "1 = 1",
		},
		{
			name:  "empty or is false",
			pred:  &queryir.Or{},
			where: "1 = 0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			query := &queryir.Select{
				From:    &queryir.Table{Name: "t"},
				Columns: []queryir.Column{{Name: "n", Value: col("t", "n")}},
				Filter:  tc.pred,
			}
			sql, params, err := NewSQLCompiler().Compile(query)
			require.NoError(t, err)
			assert.Equal(t, `SELECT "t"."n" AS "n" FROM "t" WHERE `+tc.where+` ORDER BY 1`, sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompile_Union(t *testing.T) {
	query := &queryir.Union{Selects: []*queryir.Select{
		{
			From: &queryir.Table{Name: "a"},
			Columns: []queryir.Column{
				{Name: "x", Value: col("a", "x")},
				{Name: "y", Value: queryir.Null{}},
			},
		},
		{
			From: &queryir.Table{Name: "b"},
			Columns: []queryir.Column{
				{Name: "x", Value: col("b", "x")},
				{Name: "y", Value: col("b", "y")},
			},
			Filter: &queryir.Compare{Left: col("b", "y"), Op: "<=", Right: queryir.Literal{Value: ir.IRBool(true)}},
		},
	}}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Equal(t, `SELECT "a"."x" AS "x", NULL AS "y" FROM "a"`+
		` UNION ALL SELECT "b"."x" AS "x", "b"."y" AS "y" FROM "b" WHERE "b"."y" <= ?`+
		` ORDER BY 1, 2`, sql)
	assert.Equal(t, []any{true}, params)
}

func TestCompile_QuotesIdentifiers(t *testing.T) {
	assert.Equal(t, `"shop.Person"`, QuoteIdent("shop.Person"))
	assert.Equal(t, `"odd""name"`, QuoteIdent(`odd"name`))
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		query queryir.Query
		err   string
	}{
		{name: "nil query", query: nil, err: "cannot compile nil query"},
		{name: "empty union", query: &queryir.Union{}, err: "cannot compile empty union"},
		{
			name:  "no columns",
			query: &queryir.Select{From: &queryir.Table{Name: "t"}},
			err:   "select projects no columns",
		},
		{
			name: "unknown operator",
			query: &queryir.Select{
				From:    &queryir.Table{Name: "t"},
				Columns: []queryir.Column{{Name: "n", Value: col("t", "n")}},
				Filter:  &queryir.Compare{Left: col("t", "n"), Op: "~", Right: col("t", "n")},
			},
			err: `unsupported operator "~"`,
		},
		{
			name: "array literal",
			query: &queryir.Select{
				From:    &queryir.Table{Name: "t"},
				Columns: []queryir.Column{{Name: "n", Value: col("t", "n")}},
				Filter:  &queryir.Compare{Left: col("t", "n"), Op: "==", Right: queryir.Literal{Value: ir.IRArray{}}},
			},
			err: "IRArray cannot be used as SQL parameter directly",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.err)
		})
	}
}

func TestIRValueToParam(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	testCases := []struct {
		name  string
		value ir.IRValue
		want  any
	}{
		{"null", ir.IRNull{}, nil},
		{"string", ir.IRString("a"), "a"},
		{"int", ir.IRInt(7), int64(7)},
		{"bool", ir.IRBool(false), false},
		{"decimal", ir.MustIRDecimal("12.50"), "12.50"},
		{"date", ir.IRTemporal{Kind: ir.TemporalDate, Time: day}, "2024-01-02"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := irValueToParam(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
