package querysql

import (
	"context"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taxilang/taxilang-sub000/internal/compiler"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax/cuetree"
)

const shopViews = `
	namespace: "shop"
	types: {
		PersonId: inherits: ["String"]
		Address: fields: {city: "String", zip: "String"}
		Person: fields: {
			id: "PersonId"
			name: "String"
			age: "Int"
			address: "Address"
		}
		Order: fields: {
			buyer: "PersonId"
			total: "Decimal"
		}
	}
	views: {
		Spend: finds: [{
			types: ["Person[]", "Order[]"]
			where: {op: ">", left: {path: "age"}, right: {value: 18}}
			as: fields: {
				who: {type: "PersonId", attr: "Person::id"}
				total: by: {call: "sumOver", args: [{attr: "Order::total"}]}
			}
		}]
		Everyone: finds: [
			{types: ["Person[]"], as: fields: {
				who: {type: "PersonId", attr: "Person::id"}
				years: {type: "Int", attr: "Person::age"}
			}},
			{types: ["Order[]"], as: fields: who: {type: "PersonId", attr: "Order::buyer"}},
		]
		Parisians: finds: [{
			types: ["Person[]"]
			where: {subject: {path: "address.city"}, anyOf: ["Paris"]}
		}]
	}
`

func compileShop(t *testing.T) *ir.Document {
	t.Helper()
	v := cuecontext.New().CompileString(shopViews)
	require.NoError(t, v.Err())
	docs, err := cuetree.DecodeDocuments(v)
	require.NoError(t, err)
	doc, diags := compiler.Compile(docs, compiler.WithNameGenerator(compiler.NewSequenceNames()))
	require.False(t, diags.HasErrors(), "unexpected errors: %v", diags.Errors())
	return doc
}

// openShop opens an in-memory database with the shop tables and rows.
func openShop(t *testing.T) (*DB, *ir.Document) {
	t.Helper()
	ctx := context.Background()
	doc := compileShop(t)

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateTables(ctx, doc))

	person := doc.ObjectType("shop.Person")
	for _, row := range []map[string]any{
		{"id": "p1", "name": "Ann", "age": 30, "address.city": "Paris"},
		{"id": "p2", "name": "Bob", "age": 17, "address.city": "Rome"},
		{"id": "p3", "name": "Cid", "age": 40},
	} {
		require.NoError(t, db.Insert(ctx, person, row))
	}
	order := doc.ObjectType("shop.Order")
	for _, row := range []map[string]any{
		{"buyer": "p1", "total": 10},
		{"buyer": "p1", "total": 15},
		{"buyer": "p2", "total": 99},
		{"buyer": "p3", "total": 5},
	} {
		require.NoError(t, db.Insert(ctx, order, row))
	}
	return db, doc
}

func TestCreateTable(t *testing.T) {
	doc := compileShop(t)

	tables := ViewTables(doc)
	require.Len(t, tables, 2)
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "shop.Order" ("buyer" TEXT, "total" NUMERIC)`,
		CreateTable(tables[0]))
	assert.Equal(t,
		`CREATE TABLE IF NOT EXISTS "shop.Person" ("id" TEXT, "name" TEXT, "age" INTEGER, "address.city" TEXT, "address.zip" TEXT)`,
		CreateTable(tables[1]))
}

func TestQueryView_JoinAggregate(t *testing.T) {
	db, doc := openShop(t)

	rows, err := db.QueryView(context.Background(), doc.View("shop.Spend"))
	require.NoError(t, err)

	assert.Equal(t, []map[string]any{
		{"who": "p1", "total": int64(25)},
		{"who": "p3", "total": int64(5)},
	}, rows)
}

func TestQueryView_Union(t *testing.T) {
	db, doc := openShop(t)

	rows, err := db.QueryView(context.Background(), doc.View("shop.Everyone"))
	require.NoError(t, err)

	require.Len(t, rows, 7)
	assert.Equal(t, []map[string]any{
		{"who": "p1", "years": nil},
		{"who": "p1", "years": nil},
		{"who": "p1", "years": int64(30)},
	}, rows[:3], "NULL sorts first within a key")
}

func TestQueryView_WholeTable(t *testing.T) {
	db, doc := openShop(t)

	rows, err := db.QueryView(context.Background(), doc.View("shop.Parisians"))
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "Ann", rows[0]["name"])
	assert.Equal(t, "Paris", rows[0]["address.city"])
	assert.Nil(t, rows[0]["address.zip"])
}

func TestCompileView_Statement(t *testing.T) {
	doc := compileShop(t)

	stmt, err := NewSQLCompiler().CompileView(doc.View("shop.Spend"))
	require.NoError(t, err)
	assert.Equal(t, []any{int64(18)}, stmt.Params)
	assert.Empty(t, stmt.Warnings)
	assert.Contains(t, stmt.SQL, `GROUP BY "shop.Person"."id"`)
}

func TestInsert_UnknownColumn(t *testing.T) {
	db, doc := openShop(t)

	err := db.Insert(context.Background(), doc.ObjectType("shop.Person"), map[string]any{"nickname": "A"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shop.Person has no column nickname")
}
