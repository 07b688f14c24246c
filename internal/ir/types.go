package ir

import "fmt"

// Type is a sealed interface over every kind of compiled type.
//
// Named types (ObjectType, EnumType, TypeAlias, UnionType, JoinType,
// AnnotationType) are created as empty shells when their declaration is
// first seen and defined later. Holders of a shell pointer observe the
// definition once it is published, which is what makes forward and cyclic
// references work.
type Type interface {
	typeNode() // Sealed - only types in this package implement it
	Name() QualifiedName
}

// Named is implemented by types that are declared in source and carry
// metadata.
type Named interface {
	Type
	Metadata() *Meta
}

// CompilationUnit records where a declaration came from.
type CompilationUnit struct {
	Source string `json:"source"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (u CompilationUnit) String() string {
	if u.Source == "" {
		return fmt.Sprintf("%d:%d", u.Line, u.Column)
	}
	return fmt.Sprintf("%s:%d:%d", u.Source, u.Line, u.Column)
}

// Annotation is a compiled annotation usage.
type Annotation struct {
	Name QualifiedName
	// Type is the declared annotation type, nil for undeclared annotations.
	Type   *AnnotationType
	Params []AnnotationArg
}

// AnnotationArg is a named literal argument of an annotation or data source.
type AnnotationArg struct {
	Name  string
	Value IRValue
}

// Param returns the value of the named parameter.
func (a *Annotation) Param(name string) (IRValue, bool) {
	for _, p := range a.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Meta is the metadata shared by every declared type.
type Meta struct {
	Annotations []*Annotation
	Doc         string
	Units       []CompilationUnit
}

// Metadata returns m.
func (m *Meta) Metadata() *Meta {
	return m
}

// AddUnit records another declaration site, ignoring repeats.
func (m *Meta) AddUnit(u CompilationUnit) {
	for _, existing := range m.Units {
		if existing == u {
			return
		}
	}
	m.Units = append(m.Units, u)
}

// Annotation returns the first annotation with the given name.
func (m *Meta) Annotation(name QualifiedName) *Annotation {
	for _, a := range m.Annotations {
		if a.Name == name || a.Name.Simple() == string(name) {
			return a
		}
	}
	return nil
}

// Object type modifiers.
const (
	ModifierClosed    = "closed"
	ModifierAbstract  = "abstract"
	ModifierParameter = "parameter"
)

// ObjectType is a model or scalar semantic type ("type Name inherits String").
type ObjectType struct {
	Meta
	name QualifiedName
	def  *ObjectDefinition
}

// ObjectDefinition is the compiled body of an object type.
//
// The compiler publishes a definition holding only Inherits and Modifiers
// before compiling fields and the backing expression; those are filled in
// afterwards on the same definition.
type ObjectDefinition struct {
	Inherits      []Type
	Modifiers     []string
	Fields        []*Field
	Expression    Expression
	Format        []string
	Discriminator string
	Anonymous     bool
}

// NewObjectType creates an undefined shell.
func NewObjectType(name QualifiedName) *ObjectType {
	return &ObjectType{name: name}
}

func (*ObjectType) typeNode() {}

// Name returns the qualified name.
func (t *ObjectType) Name() QualifiedName { return t.name }

// Define publishes the definition.
func (t *ObjectType) Define(def *ObjectDefinition) { t.def = def }

// Definition returns the definition, nil while undefined.
func (t *ObjectType) Definition() *ObjectDefinition { return t.def }

// IsDefined reports whether a definition has been published.
func (t *ObjectType) IsDefined() bool { return t.def != nil }

// Inherits returns the direct supertypes.
func (t *ObjectType) Inherits() []Type {
	if t.def == nil {
		return nil
	}
	return t.def.Inherits
}

// Fields returns the fields declared on this type, not inherited ones.
func (t *ObjectType) Fields() []*Field {
	if t.def == nil {
		return nil
	}
	return t.def.Fields
}

// Expression returns the backing expression, if any.
func (t *ObjectType) Expression() Expression {
	if t.def == nil {
		return nil
	}
	return t.def.Expression
}

// HasModifier reports whether the type was declared with modifier m.
func (t *ObjectType) HasModifier(m string) bool {
	if t.def == nil {
		return false
	}
	for _, mod := range t.def.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// IsAnonymous reports whether the type was synthesized for an inline body.
func (t *ObjectType) IsAnonymous() bool {
	return t.def != nil && t.def.Anonymous
}

// Field looks a field up by name on this type and then its supertypes.
func (t *ObjectType) Field(name string) *Field {
	for _, f := range t.AllFields() {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// AllFields returns inherited fields followed by own fields. An own field
// replaces an inherited field of the same name in place.
func (t *ObjectType) AllFields() []*Field {
	var out []*Field
	index := map[string]int{}
	seen := map[*ObjectType]bool{}
	var walk func(o *ObjectType)
	walk = func(o *ObjectType) {
		if seen[o] {
			return
		}
		seen[o] = true
		for _, parent := range o.Inherits() {
			if po, ok := Unwrap(parent).(*ObjectType); ok {
				walk(po)
			}
		}
		for _, f := range o.Fields() {
			if i, ok := index[f.Name]; ok {
				out[i] = f
				continue
			}
			index[f.Name] = len(out)
			out = append(out, f)
		}
	}
	walk(t)
	return out
}

// EnumType is an enumerated type.
type EnumType struct {
	Meta
	name QualifiedName
	def  *EnumDefinition
}

// EnumDefinition is the compiled body of an enum.
type EnumDefinition struct {
	Values        []*EnumValue
	Inherits      []Type
	Lenient       bool
	BasePrimitive *Primitive
}

// EnumValue is one member of an enum.
type EnumValue struct {
	Name        string
	Qualified   QualifiedName
	Value       IRValue
	Synonyms    []QualifiedName
	Default     bool
	Doc         string
	Annotations []*Annotation
}

// NewEnumType creates an undefined shell.
func NewEnumType(name QualifiedName) *EnumType {
	return &EnumType{name: name}
}

func (*EnumType) typeNode() {}

// Name returns the qualified name.
func (t *EnumType) Name() QualifiedName { return t.name }

// Define publishes the definition.
func (t *EnumType) Define(def *EnumDefinition) { t.def = def }

// Definition returns the definition, nil while undefined.
func (t *EnumType) Definition() *EnumDefinition { return t.def }

// Values returns the members in declaration order.
func (t *EnumType) Values() []*EnumValue {
	if t.def == nil {
		return nil
	}
	return t.def.Values
}

// Value returns the member with the given name.
func (t *EnumType) Value(name string) *EnumValue {
	for _, v := range t.Values() {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// DefaultValue returns the member flagged as default, if any.
func (t *EnumType) DefaultValue() *EnumValue {
	for _, v := range t.Values() {
		if v.Default {
			return v
		}
	}
	return nil
}

// TypeAlias is a transparent alternative name for another type.
type TypeAlias struct {
	Meta
	name   QualifiedName
	target Type
}

// NewTypeAlias creates an undefined shell.
func NewTypeAlias(name QualifiedName) *TypeAlias {
	return &TypeAlias{name: name}
}

func (*TypeAlias) typeNode() {}

// Name returns the qualified name.
func (t *TypeAlias) Name() QualifiedName { return t.name }

// Define sets the aliased type.
func (t *TypeAlias) Define(target Type) { t.target = target }

// Target returns the aliased type, nil while undefined.
func (t *TypeAlias) Target() Type { return t.target }

// UnionType is a value of any one of its members.
type UnionType struct {
	Meta
	name    QualifiedName
	members []Type
	defined bool
}

// NewUnionType creates an undefined shell.
func NewUnionType(name QualifiedName) *UnionType {
	return &UnionType{name: name}
}

func (*UnionType) typeNode() {}

// Name returns the qualified name.
func (t *UnionType) Name() QualifiedName { return t.name }

// Define sets the ordered members.
func (t *UnionType) Define(members []Type) {
	t.members = members
	t.defined = true
}

// Members returns the ordered members.
func (t *UnionType) Members() []Type { return t.members }

// IsDefined reports whether Define has been called.
func (t *UnionType) IsDefined() bool { return t.defined }

// JoinType combines a left type with one or more right types.
type JoinType struct {
	Meta
	name   QualifiedName
	left   Type
	rights []Type
}

// NewJoinType creates an undefined shell.
func NewJoinType(name QualifiedName) *JoinType {
	return &JoinType{name: name}
}

func (*JoinType) typeNode() {}

// Name returns the qualified name.
func (t *JoinType) Name() QualifiedName { return t.name }

// Define sets the joined types.
func (t *JoinType) Define(left Type, rights []Type) {
	t.left = left
	t.rights = rights
}

// Left returns the left type.
func (t *JoinType) Left() Type { return t.left }

// Rights returns the right types.
func (t *JoinType) Rights() []Type { return t.rights }

// AnnotationType is a declared annotation with typed fields.
type AnnotationType struct {
	Meta
	name    QualifiedName
	fields  []*Field
	defined bool
}

// NewAnnotationType creates an undefined shell.
func NewAnnotationType(name QualifiedName) *AnnotationType {
	return &AnnotationType{name: name}
}

func (*AnnotationType) typeNode() {}

// Name returns the qualified name.
func (t *AnnotationType) Name() QualifiedName { return t.name }

// Define sets the fields.
func (t *AnnotationType) Define(fields []*Field) {
	t.fields = fields
	t.defined = true
}

// Fields returns the declared fields.
func (t *AnnotationType) Fields() []*Field { return t.fields }

// IsDefined reports whether Define has been called.
func (t *AnnotationType) IsDefined() bool { return t.defined }

// Field returns the named field.
func (t *AnnotationType) Field(name string) *Field {
	for _, f := range t.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// ArrayType is the parameterized lang.taxi.Array<Member>.
type ArrayType struct {
	Member Type
}

// ArrayOf wraps member in an array.
func ArrayOf(member Type) *ArrayType {
	return &ArrayType{Member: member}
}

func (*ArrayType) typeNode() {}

// Name returns lang.taxi.Array<member>.
func (t *ArrayType) Name() QualifiedName {
	return Parameterize(ArrayName, nameOf(t.Member))
}

// MapType is the parameterized lang.taxi.Map<Key,Value>.
type MapType struct {
	Key   Type
	Value Type
}

func (*MapType) typeNode() {}

// Name returns lang.taxi.Map<key,value>.
func (t *MapType) Name() QualifiedName {
	return Parameterize(MapName, nameOf(t.Key), nameOf(t.Value))
}

// StreamType is the parameterized lang.taxi.Stream<Member>.
type StreamType struct {
	Member Type
}

// StreamOf wraps member in a stream.
func StreamOf(member Type) *StreamType {
	return &StreamType{Member: member}
}

func (*StreamType) typeNode() {}

// Name returns lang.taxi.Stream<member>.
func (t *StreamType) Name() QualifiedName {
	return Parameterize(StreamName, nameOf(t.Member))
}

// TypeParameter is a generic parameter of a function ("T"). Bound is
// optional.
type TypeParameter struct {
	Param string
	Bound Type
}

func (*TypeParameter) typeNode() {}

// Name returns the bare parameter name.
func (t *TypeParameter) Name() QualifiedName { return QualifiedName(t.Param) }

func nameOf(t Type) QualifiedName {
	if t == nil {
		return Any.Name()
	}
	return t.Name()
}
