package ir

// Field is a compiled field of an object or annotation type.
type Field struct {
	Name        string
	Owner       QualifiedName
	Type        Type
	Nullable    bool
	Modifiers   []string
	Annotations []*Annotation
	Doc         string
	Constraints []Constraint

	// Accessor describes how the value is derived; nil for plain fields.
	Accessor Accessor

	// MemberSource names the projected type this field was taken from when
	// a projection body inherits it implicitly.
	MemberSource QualifiedName

	// Block is the conditional block declaring this field, if any.
	Block *ConditionalBlock

	Unit CompilationUnit
}

// ConditionalBlock is a "(fields) by when ..." group inside a type body.
type ConditionalBlock struct {
	Condition Expression
	Fields    []string
}

// Expression returns the expression backing the field, if its accessor is
// expression-based.
func (f *Field) Expression() Expression {
	if ea, ok := f.Accessor.(*ExpressionAccessor); ok {
		return ea.Expression
	}
	return nil
}

// HasModifier reports whether the field carries modifier m.
func (f *Field) HasModifier(m string) bool {
	for _, mod := range f.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}
