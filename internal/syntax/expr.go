package syntax

// Expr is a node of the expression grammar.
//
// This is a sealed interface - only types in this package implement it.
type Expr interface {
	exprNode()
	ExprPos() Pos
}

// LiteralExpr is a literal value.
type LiteralExpr struct {
	Value Literal
	Pos   Pos
}

// TypeRefExpr references a type as a value, e.g. Height in Height * Width.
type TypeRefExpr struct {
	Type TypeRef
	Pos  Pos
}

// CallExpr is a function call. Receiver is set for extension calls written
// as receiver.fn(args).
type CallExpr struct {
	Name     string
	Args     []Expr
	Receiver Expr
	Pos      Pos
}

// BinaryExpr is "left op right".
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	Pos   Pos
}

// ParenExpr is a parenthesised group.
type ParenExpr struct {
	Inner Expr
	Pos   Pos
}

// CastExpr is "(Type) inner".
type CastExpr struct {
	Type  TypeRef
	Inner Expr
	Pos   Pos
}

// FieldRefExpr is a path through fields of the enclosing type: this.a.b.
type FieldRefExpr struct {
	Path []string
	Pos  Pos
}

// AttrRefExpr is a model attribute reference: Source::field.
type AttrRefExpr struct {
	Source TypeRef
	Field  string
	Pos    Pos
}

// ProjectionExpr projects a collection onto another type:
// "source as Target[]" or "source as { ... }[]".
type ProjectionExpr struct {
	Source Expr
	Target *TypeRef
	Body   *TypeBody
	Pos    Pos
}

func (*LiteralExpr) exprNode()    {}
func (*TypeRefExpr) exprNode()    {}
func (*CallExpr) exprNode()       {}
func (*BinaryExpr) exprNode()     {}
func (*ParenExpr) exprNode()      {}
func (*CastExpr) exprNode()       {}
func (*FieldRefExpr) exprNode()   {}
func (*AttrRefExpr) exprNode()    {}
func (*ProjectionExpr) exprNode() {}

func (e *LiteralExpr) ExprPos() Pos    { return e.Pos }
func (e *TypeRefExpr) ExprPos() Pos    { return e.Pos }
func (e *CallExpr) ExprPos() Pos       { return e.Pos }
func (e *BinaryExpr) ExprPos() Pos     { return e.Pos }
func (e *ParenExpr) ExprPos() Pos      { return e.Pos }
func (e *CastExpr) ExprPos() Pos       { return e.Pos }
func (e *FieldRefExpr) ExprPos() Pos   { return e.Pos }
func (e *AttrRefExpr) ExprPos() Pos    { return e.Pos }
func (e *ProjectionExpr) ExprPos() Pos { return e.Pos }
