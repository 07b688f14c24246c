package ir

import "strings"

// Expression is a compiled expression tree. Expressions are never
// evaluated; they carry structure and an inferred return type.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	expressionNode()
	ReturnType() Type
}

// LiteralExpression is a constant.
type LiteralExpression struct {
	Value IRValue
	Type  Type
}

// TypeReferenceExpression refers to a value of a type, as in
// "type Area by Height * Width".
type TypeReferenceExpression struct {
	Type Type
}

// FunctionCall calls a declared function.
type FunctionCall struct {
	Function *Function
	Args     []Expression
	Return   Type
}

// ExtensionFunctionCall calls an extension function on a receiver:
// "receiver.fn(args)".
type ExtensionFunctionCall struct {
	Function *Function
	Receiver Expression
	Args     []Expression
	Return   Type
}

// BinaryOperatorExpression is "left op right".
type BinaryOperatorExpression struct {
	Operator Operator
	Left     Expression
	Right    Expression
	Return   Type
}

// CastExpression is "(Type) inner".
type CastExpression struct {
	Type  Type
	Inner Expression
}

// FieldReference selects a field of the enclosing type: "this.a.b".
// Path holds the resolved field at each step.
type FieldReference struct {
	Owner Type
	Path  []*Field
}

// ModelAttributeReference selects a field of another type: "Source::Field".
type ModelAttributeReference struct {
	Source Type
	Field  *Field
	Return Type
}

// CollectionProjection projects a collection onto a target type:
// "source as Target[]".
type CollectionProjection struct {
	Source Expression
	Target Type
}

func (*LiteralExpression) expressionNode()        {}
func (*TypeReferenceExpression) expressionNode()  {}
func (*FunctionCall) expressionNode()             {}
func (*ExtensionFunctionCall) expressionNode()    {}
func (*BinaryOperatorExpression) expressionNode() {}
func (*CastExpression) expressionNode()           {}
func (*FieldReference) expressionNode()           {}
func (*ModelAttributeReference) expressionNode()  {}
func (*CollectionProjection) expressionNode()     {}

func (e *LiteralExpression) ReturnType() Type        { return e.Type }
func (e *TypeReferenceExpression) ReturnType() Type  { return e.Type }
func (e *FunctionCall) ReturnType() Type             { return e.Return }
func (e *ExtensionFunctionCall) ReturnType() Type    { return e.Return }
func (e *BinaryOperatorExpression) ReturnType() Type { return e.Return }
func (e *CastExpression) ReturnType() Type           { return e.Type }
func (e *ModelAttributeReference) ReturnType() Type  { return e.Return }
func (e *CollectionProjection) ReturnType() Type     { return e.Target }

// ReturnType is the type of the last field in the path.
func (e *FieldReference) ReturnType() Type {
	if len(e.Path) == 0 {
		return e.Owner
	}
	return e.Path[len(e.Path)-1].Type
}

// Selector renders the path as "this.a.b".
func (e *FieldReference) Selector() string {
	parts := make([]string, 0, len(e.Path)+1)
	parts = append(parts, "this")
	for _, f := range e.Path {
		parts = append(parts, f.Name)
	}
	return strings.Join(parts, ".")
}

// WalkExpression calls fn for e and every sub-expression, depth first.
func WalkExpression(e Expression, fn func(Expression)) {
	if e == nil {
		return
	}
	fn(e)
	switch v := e.(type) {
	case *FunctionCall:
		for _, a := range v.Args {
			WalkExpression(a, fn)
		}
	case *ExtensionFunctionCall:
		WalkExpression(v.Receiver, fn)
		for _, a := range v.Args {
			WalkExpression(a, fn)
		}
	case *BinaryOperatorExpression:
		WalkExpression(v.Left, fn)
		WalkExpression(v.Right, fn)
	case *CastExpression:
		WalkExpression(v.Inner, fn)
	case *CollectionProjection:
		WalkExpression(v.Source, fn)
	case *LiteralExpression, *TypeReferenceExpression, *FieldReference, *ModelAttributeReference:
		// leaves
	}
}

// Operator is a binary operator.
type Operator int

// Binary operators.
const (
	OpAdd Operator = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpGreaterThan
	OpGreaterOrEqual
	OpLessThan
	OpLessOrEqual
	OpAnd
	OpOr
)

var operatorSymbols = map[Operator]string{
	OpAdd:            "+",
	OpSubtract:       "-",
	OpMultiply:       "*",
	OpDivide:         "/",
	OpModulo:         "%",
	OpEqual:          "==",
	OpNotEqual:       "!=",
	OpGreaterThan:    ">",
	OpGreaterOrEqual: ">=",
	OpLessThan:       "<",
	OpLessOrEqual:    "<=",
	OpAnd:            "&&",
	OpOr:             "||",
}

// ParseOperator maps a source symbol to its operator.
func ParseOperator(symbol string) (Operator, bool) {
	for op, s := range operatorSymbols {
		if s == symbol {
			return op, true
		}
	}
	return 0, false
}

// Symbol returns the source symbol.
func (o Operator) Symbol() string {
	if s, ok := operatorSymbols[o]; ok {
		return s
	}
	return "?"
}

func (o Operator) String() string {
	return o.Symbol()
}

// IsArithmetic reports + - * / %.
func (o Operator) IsArithmetic() bool {
	return o >= OpAdd && o <= OpModulo
}

// IsEquality reports == and !=.
func (o Operator) IsEquality() bool {
	return o == OpEqual || o == OpNotEqual
}

// IsOrdering reports > >= < <=.
func (o Operator) IsOrdering() bool {
	return o >= OpGreaterThan && o <= OpLessOrEqual
}

// IsComparison reports equality and ordering operators.
func (o Operator) IsComparison() bool {
	return o.IsEquality() || o.IsOrdering()
}

// IsLogical reports && and ||.
func (o Operator) IsLogical() bool {
	return o == OpAnd || o == OpOr
}
