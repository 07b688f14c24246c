package syntax

// Document is the parse tree of one source file.
type Document struct {
	Source    string
	Namespace string
	Imports   []Import
	Decls     []Decl
}

// Import names a type (fully qualified) pulled in from an import source.
type Import struct {
	Name string
	Pos  Pos
}

// Decl is a top-level declaration.
//
// This is a sealed interface - only types in this package implement it.
type Decl interface {
	declNode()
	DeclName() string
	DeclPos() Pos
}

// Annotation is an annotation usage, e.g. @Id or @Tag(value = "x").
type Annotation struct {
	Name   string
	Params []AnnotationParam
	Pos    Pos
}

// AnnotationParam is one named annotation argument.
type AnnotationParam struct {
	Name  string
	Value Literal
	Pos   Pos
}

// TypeDecl declares a model or a semantic scalar type:
//
//	model Person inherits Base { ... }
//	type Area inherits Int by Height * Width
type TypeDecl struct {
	Name          string
	Pos           Pos
	Doc           string
	Annotations   []Annotation
	Modifiers     []string // "closed", "parameter", "abstract"
	Inherits      []TypeRef
	Body          *TypeBody // nil for scalar types
	Expr          Expr      // backing expression ("by ...")
	Format        []string
	Discriminator string // name of the field that identifies the concrete subtype
}

func (*TypeDecl) declNode()          {}
func (d *TypeDecl) DeclName() string { return d.Name }
func (d *TypeDecl) DeclPos() Pos     { return d.Pos }

// EnumDecl declares an enum.
type EnumDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Inherits    []TypeRef
	Lenient     bool
	Values      []EnumValueDecl
}

func (*EnumDecl) declNode()          {}
func (d *EnumDecl) DeclName() string { return d.Name }
func (d *EnumDecl) DeclPos() Pos     { return d.Pos }

// EnumValueDecl is one enum member. Value is nil when the source gives no
// explicit literal.
type EnumValueDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Value       *Literal
	Synonyms    []string // "Other.Value" or "ns.Other.Value"
	Default     bool
}

// AliasDecl declares a transparent alias: type alias Name as String.
type AliasDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Target      TypeRef
}

func (*AliasDecl) declNode()          {}
func (d *AliasDecl) DeclName() string { return d.Name }
func (d *AliasDecl) DeclPos() Pos     { return d.Pos }

// UnionDecl declares a union of member types.
type UnionDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Members     []TypeRef
}

func (*UnionDecl) declNode()          {}
func (d *UnionDecl) DeclName() string { return d.Name }
func (d *UnionDecl) DeclPos() Pos     { return d.Pos }

// JoinDecl declares a join type: a left type joined to one or more rights.
type JoinDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Left        TypeRef
	Rights      []TypeRef
}

func (*JoinDecl) declNode()          {}
func (d *JoinDecl) DeclName() string { return d.Name }
func (d *JoinDecl) DeclPos() Pos     { return d.Pos }

// AnnotationTypeDecl declares a typed annotation: annotation Tag { value: String }.
type AnnotationTypeDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Body        *TypeBody
}

func (*AnnotationTypeDecl) declNode()          {}
func (d *AnnotationTypeDecl) DeclName() string { return d.Name }
func (d *AnnotationTypeDecl) DeclPos() Pos     { return d.Pos }

// FunctionDecl declares a function signature.
type FunctionDecl struct {
	Name       string
	Pos        Pos
	Doc        string
	TypeParams []string
	Params     []ParamDecl
	Returns    TypeRef
	Modifiers  []string // "query", "extension"
}

func (*FunctionDecl) declNode()          {}
func (d *FunctionDecl) DeclName() string { return d.Name }
func (d *FunctionDecl) DeclPos() Pos     { return d.Pos }

// ParamDecl is a function or operation parameter.
type ParamDecl struct {
	Name        string
	Pos         Pos
	Annotations []Annotation
	Type        TypeRef
	Vararg      bool
	Nullable    bool
	Constraints Filter
}

// ServiceDecl declares a service and its operations.
type ServiceDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Operations  []OperationDecl
}

func (*ServiceDecl) declNode()          {}
func (d *ServiceDecl) DeclName() string { return d.Name }
func (d *ServiceDecl) DeclPos() Pos     { return d.Pos }

// OperationDecl is one service operation.
type OperationDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Scope       string // "read", "write", "mutation" or empty
	Params      []ParamDecl
	Returns     *TypeRef
	Contract    Filter // constraints on the return type
}

// PolicyDecl declares an access policy against a target type.
type PolicyDecl struct {
	Name   string
	Pos    Pos
	Doc    string
	Target TypeRef
	Rules  []PolicyRuleDecl
}

func (*PolicyDecl) declNode()          {}
func (d *PolicyDecl) DeclName() string { return d.Name }
func (d *PolicyDecl) DeclPos() Pos     { return d.Pos }

// PolicyRuleDecl groups case statements for one scope ("read", "write").
type PolicyRuleDecl struct {
	Scope string
	Pos   Pos
	Cases []PolicyCaseDecl
	Else  *PolicyInstruction
}

// PolicyCaseDecl is "case <condition> -> <instruction>".
type PolicyCaseDecl struct {
	Condition   Filter
	Instruction PolicyInstruction
	Pos         Pos
}

// PolicyInstruction is "permit", "filter" (drop) or "filter (a, b)" (redact).
type PolicyInstruction struct {
	Kind       string
	Attributes []string
	Pos        Pos
}

// QueryDecl declares a query. Name is empty for anonymous queries.
type QueryDecl struct {
	Name               string
	Pos                Pos
	Doc                string
	Mode               string // "find", "findAll" or "stream"
	Params             []ParamDecl
	Given              []GivenDecl
	Discovery          []DiscoveryDecl
	AnonymousDiscovery *TypeBody
	Projection         *ProjectionDecl
}

func (*QueryDecl) declNode()          {}
func (d *QueryDecl) DeclName() string { return d.Name }
func (d *QueryDecl) DeclPos() Pos     { return d.Pos }

// GivenDecl is a fact supplied to a query: given { email: EmailAddress = "a@b.c" }.
type GivenDecl struct {
	Name  string
	Type  TypeRef
	Value Literal
	Pos   Pos
}

// DiscoveryDecl is one entry of a find block.
type DiscoveryDecl struct {
	Type        TypeRef
	Constraints Filter
	Pos         Pos
}

// ProjectionDecl is the "as ..." clause of a query. Type, Body or both may
// be present; Collection marks a trailing [] on an anonymous body.
type ProjectionDecl struct {
	Type       *TypeRef
	Body       *TypeBody
	Collection bool
	Pos        Pos
}

// ViewDecl declares a (legacy) view over one or more find blocks.
type ViewDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Finds       []ViewFindDecl
}

func (*ViewDecl) declNode()          {}
func (d *ViewDecl) DeclName() string { return d.Name }
func (d *ViewDecl) DeclPos() Pos     { return d.Pos }

// ViewFindDecl is "find { A[] (joinTo B[]) } (filter) as { ... }[]".
type ViewFindDecl struct {
	Types  []TypeRef
	Filter Filter
	Body   *TypeBody
	Pos    Pos
}

// DataSourceDecl declares where instances of a type come from.
type DataSourceDecl struct {
	Name        string
	Pos         Pos
	Doc         string
	Annotations []Annotation
	Kind        string
	Target      TypeRef
	Params      []AnnotationParam
}

func (*DataSourceDecl) declNode()          {}
func (d *DataSourceDecl) DeclName() string { return d.Name }
func (d *DataSourceDecl) DeclPos() Pos     { return d.Pos }
