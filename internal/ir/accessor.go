package ir

// Accessor describes how a field's value is read from raw data. Accessors
// are compiled, never evaluated.
//
// This is a sealed interface - only types in this package implement it.
type Accessor interface {
	accessorNode()
}

// ColumnAccessor reads a column by index (1-based) or by header name.
type ColumnAccessor struct {
	Index int
	Name  string
}

// PathKind distinguishes path accessor dialects.
type PathKind string

// Path accessor dialects.
const (
	PathJSON  PathKind = "jsonPath"
	PathXPath PathKind = "xpath"
)

// PathAccessor reads a value by JSON path or XPath.
type PathAccessor struct {
	Kind PathKind
	Path string
}

// DefaultAccessor supplies a literal when no other value is present.
type DefaultAccessor struct {
	Value IRValue
}

// ConditionalAccessor selects a value with "when" cases.
type ConditionalAccessor struct {
	Cases []*WhenCase
}

// WhenCase is one branch. A nil Condition is the else branch.
type WhenCase struct {
	Condition Expression
	Value     Expression
}

// ExpressionAccessor derives the value from an expression: a function call,
// a reference to another field or type, or a projection.
type ExpressionAccessor struct {
	Expression Expression
}

func (*ColumnAccessor) accessorNode()      {}
func (*PathAccessor) accessorNode()        {}
func (*DefaultAccessor) accessorNode()     {}
func (*ConditionalAccessor) accessorNode() {}
func (*ExpressionAccessor) accessorNode()  {}
