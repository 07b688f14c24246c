// Package symbols holds the type and function registry of a compilation
// session and resolves source names against it.
//
// The registry is an arena of slots keyed by qualified name. Declaring a
// name creates its slot together with an empty shell type, so any
// declaration may refer to any other regardless of source order. A slot
// then moves through Declared, Compiling and finally Defined or Failed; the
// compiler reads the state to detect re-entry instead of recursing blindly.
package symbols
