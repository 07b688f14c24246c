package ir

// Function modifiers.
const (
	// FunctionModifierQuery marks functions only valid inside queries and
	// views (aggregations).
	FunctionModifierQuery = "query"
	// FunctionModifierExtension marks functions callable on a receiver.
	FunctionModifierExtension = "extension"
)

// Function is a declared function. Like types it is a shell whose
// definition is filled in on demand, so calls may precede the declaration.
type Function struct {
	Meta
	name QualifiedName
	def  *FunctionDefinition
}

// FunctionDefinition is a compiled function signature.
type FunctionDefinition struct {
	TypeParams []*TypeParameter
	Params     []*Parameter
	Return     Type
	Modifiers  []string
}

// Parameter is a function, operation or query parameter.
type Parameter struct {
	Name        string
	Type        Type
	Vararg      bool
	Nullable    bool
	Annotations []*Annotation
	Constraints []Constraint
}

// NewFunction creates an undefined shell.
func NewFunction(name QualifiedName) *Function {
	return &Function{name: name}
}

// Name returns the qualified name.
func (f *Function) Name() QualifiedName { return f.name }

// Define publishes the signature.
func (f *Function) Define(def *FunctionDefinition) { f.def = def }

// Definition returns the signature, nil while undefined.
func (f *Function) Definition() *FunctionDefinition { return f.def }

// IsDefined reports whether a signature has been published.
func (f *Function) IsDefined() bool { return f.def != nil }

func (f *Function) hasModifier(m string) bool {
	if f.def == nil {
		return false
	}
	for _, mod := range f.def.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// IsQueryOnly reports whether the function may only be used in queries and
// views.
func (f *Function) IsQueryOnly() bool { return f.hasModifier(FunctionModifierQuery) }

// IsExtension reports whether the function takes its first parameter from a
// receiver.
func (f *Function) IsExtension() bool { return f.hasModifier(FunctionModifierExtension) }

// TypeParam returns the named type parameter of the signature.
func (f *Function) TypeParam(name string) *TypeParameter {
	if f.def == nil {
		return nil
	}
	for _, tp := range f.def.TypeParams {
		if tp.Param == name {
			return tp
		}
	}
	return nil
}
