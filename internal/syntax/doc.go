// Package syntax defines the parse-tree contract between the external
// grammar/parser and the semantic compiler.
//
// The parser is not part of this module. It hands over one Document per
// source file, built from the node types in this package. Every node carries
// a Pos so that compiler diagnostics can point back at the source.
//
// SEALED INTERFACES:
//
// Decl, Expr, Accessor, Filter and Operand are sealed with marker methods,
// the same way the query IR is sealed. The compiler matches them with
// exhaustive type switches; an unknown shape is an internal defect rather
// than a user error.
package syntax
