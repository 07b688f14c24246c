package ir

// Service is a named group of operations.
type Service struct {
	Meta
	Name       QualifiedName
	Operations []*Operation
}

// Operation returns the named operation.
func (s *Service) Operation(name string) *Operation {
	for _, op := range s.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// OperationScope classifies what an operation does.
type OperationScope string

// Operation scopes.
const (
	ScopeNone     OperationScope = ""
	ScopeRead     OperationScope = "read"
	ScopeWrite    OperationScope = "write"
	ScopeMutation OperationScope = "mutation"
)

// ParseOperationScope validates a scope keyword.
func ParseOperationScope(s string) (OperationScope, bool) {
	switch OperationScope(s) {
	case ScopeNone, ScopeRead, ScopeWrite, ScopeMutation:
		return OperationScope(s), true
	}
	return ScopeNone, false
}

// Operation is a service operation.
type Operation struct {
	Name        string
	Scope       OperationScope
	Params      []*Parameter
	Return      Type
	Contract    []Constraint
	Annotations []*Annotation
	Doc         string
	Unit        CompilationUnit
}

// Param returns the named parameter.
func (o *Operation) Param(name string) *Parameter {
	for _, p := range o.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Policy restricts access to a target type.
type Policy struct {
	Meta
	Name   QualifiedName
	Target Type
	Rules  []*PolicyRule
}

// PolicyRule is the ordered list of cases for one scope.
type PolicyRule struct {
	Scope string
	Cases []*PolicyCase
	Else  *Instruction
}

// PolicyCase applies an instruction when its condition holds.
type PolicyCase struct {
	Condition   Constraint
	Instruction *Instruction
}

// InstructionKind is what a policy does with matching data.
type InstructionKind string

// Policy instructions.
const (
	InstructionPermit InstructionKind = "permit"
	InstructionFilter InstructionKind = "filter"
)

// Instruction permits data, filters it out entirely, or redacts the named
// attributes when Attributes is set.
type Instruction struct {
	Kind       InstructionKind
	Attributes []string
}

// DataSource declares where values of a type can be read from.
type DataSource struct {
	Meta
	Name   QualifiedName
	Kind   string
	Target Type
	Params []AnnotationArg
}
