// Package diag holds compiler diagnostics and the accumulating result type
// threaded through every sub-compiler.
//
// Sub-compilers return Result[T]. All runs every independent part and keeps
// every diagnostic; Then short-circuits when a later step is meaningless
// without the earlier one. User mistakes never panic: only Defect, for
// syntax shapes the grammar cannot produce, unwinds a compilation unit, and
// RecoverDefect turns it back into a diagnostic.
package diag
