package syntax

// TypeBody is the braces-delimited field list of a model, annotation type,
// anonymous inline type or projection.
type TypeBody struct {
	Fields       []FieldDecl
	Conditionals []ConditionalBlock
	Pos          Pos
}

// ConditionalBlock is a group of fields populated together, optionally
// guarded by a when-condition:
//
//	( currency: Currency, amount: Amount ) by when { ... }
type ConditionalBlock struct {
	Fields    []FieldDecl
	Condition Expr
	Pos       Pos
}

// FieldDecl is a single field declaration. At most one of Type, Inline,
// Attr and Expr determines the field type; see the field compiler for the
// precedence between them.
type FieldDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Modifiers   []string // "closed"
	Type        *TypeRef
	Inline      *TypeBody
	InlineList  bool // inline body followed by []
	Attr        *AttrRefExpr
	Expr        Expr
	Accessor    Accessor
	Nullable    bool
	Constraints Filter
}

// LiteralKind classifies a literal as written in source.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInt
	LiteralDecimal
	LiteralBool
	LiteralNull
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralString:
		return "String"
	case LiteralInt:
		return "Int"
	case LiteralDecimal:
		return "Decimal"
	case LiteralBool:
		return "Boolean"
	case LiteralNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// Literal keeps the source text of a literal; the compiler converts it to a
// typed value.
type Literal struct {
	Kind LiteralKind
	Text string
	Pos  Pos
}

// Accessor describes how a field value is read from raw data.
//
// This is a sealed interface - only types in this package implement it.
type Accessor interface {
	accessorNode()
	AccessorPos() Pos
}

// ColumnAccessor reads a column by 1-based index or by header name.
type ColumnAccessor struct {
	Index int
	Name  string
	Pos   Pos
}

// PathAccessor reads a value by a json path or xpath expression.
type PathAccessor struct {
	Kind string // "jsonPath" or "xpath"
	Path string
	Pos  Pos
}

// DefaultAccessor supplies a constant.
type DefaultAccessor struct {
	Value Literal
	Pos   Pos
}

// ConditionalAccessor picks a value with a when-block. A case without a
// condition is the else branch.
type ConditionalAccessor struct {
	Cases []WhenCase
	Pos   Pos
}

// WhenCase is one "condition -> value" arm.
type WhenCase struct {
	Condition Expr
	Value     Expr
	Pos       Pos
}

func (*ColumnAccessor) accessorNode()      {}
func (*PathAccessor) accessorNode()        {}
func (*DefaultAccessor) accessorNode()     {}
func (*ConditionalAccessor) accessorNode() {}

func (a *ColumnAccessor) AccessorPos() Pos      { return a.Pos }
func (a *PathAccessor) AccessorPos() Pos        { return a.Pos }
func (a *DefaultAccessor) AccessorPos() Pos     { return a.Pos }
func (a *ConditionalAccessor) AccessorPos() Pos { return a.Pos }
