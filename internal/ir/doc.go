// Package ir provides the compiled document model for taxi schemas.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This ensures IR remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Type, Expression, Accessor, Constraint and IRValue are sealed sums;
//     consumers switch exhaustively over them
//   - Object, enum, alias, union, join, annotation types and functions are
//     shells: the pointer exists before its definition so that forward and
//     cyclic references can be wired while compiling
//   - NO float types anywhere - decimals keep their exact digits
//   - Everything is immutable once a compilation session returns
package ir
