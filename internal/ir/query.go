package ir

// QueryMode selects how many results a query produces.
type QueryMode string

// Query modes.
const (
	QueryFindOne QueryMode = "find"
	QueryFindAll QueryMode = "findAll"
	QueryStream  QueryMode = "stream"
)

// ParseQueryMode validates a query mode keyword. The empty string means
// find.
func ParseQueryMode(s string) (QueryMode, bool) {
	switch QueryMode(s) {
	case "", QueryFindOne:
		return QueryFindOne, true
	case QueryFindAll, QueryStream:
		return QueryMode(s), true
	}
	return "", false
}

// Query is a compiled named or anonymous query.
type Query struct {
	Meta
	Name       QualifiedName
	Mode       QueryMode
	Params     []*Parameter
	Facts      []*Fact
	Discovery  []*DiscoveryType
	Projection *ProjectedType
}

// Fact is a given value bound to a name.
type Fact struct {
	Name  string
	Type  Type
	Value IRValue
}

// DiscoveryType is a type a query searches for.
type DiscoveryType struct {
	Type          Type
	Constraints   []Constraint
	StartingFacts []*Fact
	Anonymous     bool
}

// ProjectedType is the shape results are projected onto: a concrete type,
// an anonymous body, or a concrete base extended by an anonymous body.
// Result is the type the query returns after projection.
type ProjectedType struct {
	Concrete  Type
	Anonymous *ObjectType
	Result    Type
}

// View is a legacy SQL-style projection over joined types.
type View struct {
	Meta
	Name  QualifiedName
	Finds []*ViewFind
}

// ViewFind is one "find { A joinTo B } as { ... }" block.
type ViewFind struct {
	Types      []Type
	Joins      []*ViewJoin
	Filter     []Constraint
	Projection *ObjectType
}

// ViewJoin joins two types on fields of a shared type.
type ViewJoin struct {
	Left       *ObjectType
	Right      *ObjectType
	LeftField  *Field
	RightField *Field
}
