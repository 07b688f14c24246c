package queryir

import "github.com/taxilang/taxilang-sub000/internal/ir"

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Query types:
//   - Select: one find block
//   - Union: several find blocks, aligned by column name
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Source is what a Select reads rows from: a single table or an inner join
// of tables.
type Source interface {
	sourceNode()
}

// Value is what a result column holds.
type Value interface {
	valueNode()
}

// Operand is one side of a comparison: a column or a literal.
type Operand interface {
	operandNode()
}

// Predicate represents a filter condition in the QueryIR.
//
// Predicate types:
//   - Compare: left op right
//   - In: subject in (values), or not in
//   - Like: subject like pattern
//   - And, Or: conjunction and disjunction
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select is one find block.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> GROUP BY <groupBy>
//
// GroupBy is set when any column aggregates: it holds every column that
// does not.
type Select struct {
	From    Source
	Columns []Column
	Filter  Predicate // nil = no filter
	GroupBy []ColumnRef
}

func (*Select) queryNode() {}

// Union combines the rows of several selects. Every select has the same
// column names in the same order; columns a find block does not project are
// Null.
type Union struct {
	Selects []*Select
}

func (*Union) queryNode() {}

// Table reads every row of one model type's table.
type Table struct {
	Name string
}

func (*Table) sourceNode() {}

// Join is an inner join of a source with one more table.
//
// Semantics:
//
//	<left> INNER JOIN <right> ON <on>
type Join struct {
	Left  Source
	Right *Table
	On    Predicate
}

func (*Join) sourceNode() {}

// Column is one named result column.
type Column struct {
	Name  string
	Value Value
}

// ColumnRef names a column of a table in the plan.
type ColumnRef struct {
	Table  string
	Column string
}

func (ColumnRef) valueNode()   {}
func (ColumnRef) operandNode() {}

// AggregateFunc is an aggregate over every row of a group.
type AggregateFunc string

// Aggregates supported by views.
const (
	AggregateSum   AggregateFunc = "SUM"
	AggregateCount AggregateFunc = "COUNT"
)

// Aggregate applies an aggregate function to a column.
type Aggregate struct {
	Func AggregateFunc
	Arg  ColumnRef
}

func (Aggregate) valueNode() {}

// Null is a column a union branch does not project.
type Null struct{}

func (Null) valueNode() {}

// Literal is a constant operand.
type Literal struct {
	Value ir.IRValue
}

func (Literal) operandNode() {}

// Compare is "left op right". Op is one of the comparison symbols of
// ir.Operator: ==, !=, <, <=, >, >=.
type Compare struct {
	Left  Operand
	Op    string
	Right Operand
}

func (*Compare) predicateNode() {}

// In is "subject in (values)", or "subject not in (values)" when Negated.
type In struct {
	Subject Operand
	Values  []ir.IRValue
	Negated bool
}

func (*In) predicateNode() {}

// Like is "subject like pattern".
type Like struct {
	Subject Operand
	Pattern string
}

func (*Like) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (*And) predicateNode() {}

// Or represents a disjunction of predicates (any must be true).
// An empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (*Or) predicateNode() {}
