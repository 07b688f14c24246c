package syntax

import "encoding/json"

// Filter is a node of the constraint sub-language used in operation
// contracts, query discovery types, policies and view bodies.
//
// This is a sealed interface - only types in this package implement it.
type Filter interface {
	filterNode()
	FilterPos() Pos
}

// CompareFilter is "left op right" with op one of == != > >= < <=.
type CompareFilter struct {
	Op    string
	Left  Operand
	Right Operand
	Pos   Pos
}

// InFilter is "subject in [values]" or "subject not in [values]".
type InFilter struct {
	Subject Operand
	Values  []Literal
	Not     bool
	Pos     Pos
}

// LikeFilter is "subject like 'pattern'".
type LikeFilter struct {
	Subject Operand
	Pattern string
	Pos     Pos
}

// AndFilter is "left && right".
type AndFilter struct {
	Left  Filter
	Right Filter
	Pos   Pos
}

// OrFilter is "left || right".
type OrFilter struct {
	Left  Filter
	Right Filter
	Pos   Pos
}

// ParenFilter is a parenthesised filter.
type ParenFilter struct {
	Inner Filter
	Pos   Pos
}

func (*CompareFilter) filterNode() {}
func (*InFilter) filterNode()      {}
func (*LikeFilter) filterNode()    {}
func (*AndFilter) filterNode()     {}
func (*OrFilter) filterNode()      {}
func (*ParenFilter) filterNode()   {}

func (f *CompareFilter) FilterPos() Pos { return f.Pos }
func (f *InFilter) FilterPos() Pos      { return f.Pos }
func (f *LikeFilter) FilterPos() Pos    { return f.Pos }
func (f *AndFilter) FilterPos() Pos     { return f.Pos }
func (f *OrFilter) FilterPos() Pos      { return f.Pos }
func (f *ParenFilter) FilterPos() Pos   { return f.Pos }

// AndFilter and OrFilter share a shape; their JSON form is keyed by the
// connective so that declaration fingerprints tell them apart.

func (f *AndFilter) MarshalJSON() ([]byte, error) {
	type plain AndFilter
	return json.Marshal(struct{ And *plain }{(*plain)(f)})
}

func (f *OrFilter) MarshalJSON() ([]byte, error) {
	type plain OrFilter
	return json.Marshal(struct{ Or *plain }{(*plain)(f)})
}

// Operand is one side of a filter leaf.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operandNode()
	OperandPos() Pos
}

// PropertyOperand selects the single field of the target type whose type is
// Type, e.g. Currency in Money(Currency == 'GBP').
type PropertyOperand struct {
	Type TypeRef
	Pos  Pos
}

// FieldOperand selects a field by path: this.currency.
type FieldOperand struct {
	Path []string
	Pos  Pos
}

// LiteralOperand is a constant.
type LiteralOperand struct {
	Value Literal
	Pos   Pos
}

// ParamOperand refers to an operation or query parameter by name.
type ParamOperand struct {
	Name string
	Pos  Pos
}

func (*PropertyOperand) operandNode() {}
func (*FieldOperand) operandNode()    {}
func (*LiteralOperand) operandNode()  {}
func (*ParamOperand) operandNode()    {}

func (o *PropertyOperand) OperandPos() Pos { return o.Pos }
func (o *FieldOperand) OperandPos() Pos    { return o.Pos }
func (o *LiteralOperand) OperandPos() Pos  { return o.Pos }
func (o *ParamOperand) OperandPos() Pos    { return o.Pos }
