// Package queryir provides the relational plan that compiled views are
// lowered to.
//
// A view in a compiled document is a set of find blocks. Each find block
// names model types, joins later types to the first through a pair of
// fields with the same semantic type, optionally filters the joined rows
// and projects attributes or aggregates of them. QueryIR is the boundary
// between that compiled form and a SQL backend:
//
//	[ir.View] → [Query IR] → [SQL Backend]
//
// TABLE AND COLUMN NAMING:
//
// Every model type is a table named by its qualified name. Every field is a
// column named by its field name; fields whose type is itself a model are
// flattened, so a path such as address.city is the column "address.city".
// TableName and ColumnName are the only places this mapping lives.
//
// SEALED INTERFACES:
//
// Query, Source, Value, Operand and Predicate are sealed interfaces using
// the marker method pattern. Only types in this package implement them,
// which keeps type switches in backends exhaustive:
//
//	switch q := query.(type) {
//	case *Select:
//	    // Handle select
//	case *Union:
//	    // Handle union
//	default:
//	    // Impossible - compiler knows all Query types
//	}
//
// CRITICAL PATTERNS:
//
// IRValue Types Only
// All literal values in predicates are ir.IRValue types. Decimals stay
// arbitrary-precision until a backend binds them.
//
// Deterministic Plans
// Lowering is a pure function of the compiled view: columns follow field
// declaration order and union branches follow find block order.
package queryir
