package ir

// Constraint is a compiled filter: operation parameter and return
// contracts, discovery constraints, policy conditions and view filters.
//
// This is a sealed interface - only types in this package implement it.
type Constraint interface {
	constraintNode()
}

// ComparisonConstraint is "left op right" with a comparison operator.
type ComparisonConstraint struct {
	Operator Operator
	Left     ConstraintOperand
	Right    ConstraintOperand
}

// InListConstraint is "subject in [values]", or "not in" when Negated.
type InListConstraint struct {
	Subject ConstraintOperand
	Values  []IRValue
	Negated bool
}

// LikeConstraint is "subject like pattern".
type LikeConstraint struct {
	Subject ConstraintOperand
	Pattern string
}

// AndConstraint requires both sides.
type AndConstraint struct {
	Left  Constraint
	Right Constraint
}

// OrConstraint requires either side.
type OrConstraint struct {
	Left  Constraint
	Right Constraint
}

func (*ComparisonConstraint) constraintNode() {}
func (*InListConstraint) constraintNode()     {}
func (*LikeConstraint) constraintNode()       {}
func (*AndConstraint) constraintNode()        {}
func (*OrConstraint) constraintNode()         {}

// ConstraintOperand is one side of a constraint.
//
// This is a sealed interface - only types in this package implement it.
type ConstraintOperand interface {
	operandNode()
	OperandType() Type
}

// PropertyTypeOperand names a property by its type: the unique field of
// that type on the constrained type.
type PropertyTypeOperand struct {
	Type  Type
	Field *Field
}

// PropertyFieldOperand names a property by field path.
type PropertyFieldOperand struct {
	Path []*Field
}

// ValueOperand is a literal.
type ValueOperand struct {
	Value IRValue
	Type  Type
}

// ParameterOperand refers to an operation or query parameter.
type ParameterOperand struct {
	Name string
	Type Type
}

func (*PropertyTypeOperand) operandNode()  {}
func (*PropertyFieldOperand) operandNode() {}
func (*ValueOperand) operandNode()         {}
func (*ParameterOperand) operandNode()     {}

func (o *PropertyTypeOperand) OperandType() Type { return o.Type }
func (o *ValueOperand) OperandType() Type        { return o.Type }
func (o *ParameterOperand) OperandType() Type    { return o.Type }

// OperandType is the type of the last field in the path.
func (o *PropertyFieldOperand) OperandType() Type {
	if len(o.Path) == 0 {
		return nil
	}
	return o.Path[len(o.Path)-1].Type
}

// PropertyField returns the field a property operand selects, or nil for
// value and parameter operands.
func PropertyField(o ConstraintOperand) *Field {
	switch v := o.(type) {
	case *PropertyTypeOperand:
		return v.Field
	case *PropertyFieldOperand:
		if len(v.Path) == 0 {
			return nil
		}
		return v.Path[len(v.Path)-1]
	default:
		return nil
	}
}
