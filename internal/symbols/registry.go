package symbols

import (
	"fmt"

	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// Kind is the declaration kind of a type slot.
type Kind int

const (
	KindObject Kind = iota
	KindEnum
	KindAlias
	KindUnion
	KindJoin
	KindAnnotation
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "type"
	case KindEnum:
		return "enum"
	case KindAlias:
		return "alias"
	case KindUnion:
		return "union"
	case KindJoin:
		return "join"
	case KindAnnotation:
		return "annotation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// State is the compilation state of a slot.
type State int

const (
	// Declared slots hold an empty shell.
	Declared State = iota
	// Compiling slots are being defined; a partial definition may already
	// be published on the shell.
	Compiling
	// Defined slots hold a complete definition.
	Defined
	// Failed slots could not be defined; diagnostics were reported.
	Failed
)

func (s State) String() string {
	switch s {
	case Declared:
		return "declared"
	case Compiling:
		return "compiling"
	case Defined:
		return "defined"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Slot is one entry of the type arena.
type Slot struct {
	Name  ir.QualifiedName
	Kind  Kind
	State State
	Type  ir.Type

	// Decl and Doc are nil for imported and synthesized types.
	Decl syntax.Decl
	Doc  *syntax.Document

	// Fingerprint identifies the declaration so identical redeclarations
	// can be merged.
	Fingerprint string
	Imported    bool
	Sites       []syntax.Pos
}

// FunctionSlot is one entry of the function table.
type FunctionSlot struct {
	Name     ir.QualifiedName
	State    State
	Function *ir.Function
	Decl     *syntax.FunctionDecl
	Doc      *syntax.Document
	Builtin  bool
	Imported bool
}

// Outcome reports what Declare did.
type Outcome int

const (
	// Created a new slot.
	Created Outcome = iota
	// Merged an identical redeclaration into the existing slot.
	Merged
	// Conflict means the name is already declared differently.
	Conflict
)

// Registry is the arena of types and functions of one session. It is not
// safe for concurrent use; sessions never share a registry.
type Registry struct {
	slots     []*Slot
	index     map[ir.QualifiedName]int
	bySimple  map[string][]int
	functions map[ir.QualifiedName]*FunctionSlot
	fnOrder   []ir.QualifiedName
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:     map[ir.QualifiedName]int{},
		bySimple:  map[string][]int{},
		functions: map[ir.QualifiedName]*FunctionSlot{},
	}
}

// KindOf maps a type declaration to its slot kind. It reports false for
// declarations that do not introduce a type.
func KindOf(decl syntax.Decl) (Kind, bool) {
	switch decl.(type) {
	case *syntax.TypeDecl:
		return KindObject, true
	case *syntax.EnumDecl:
		return KindEnum, true
	case *syntax.AliasDecl:
		return KindAlias, true
	case *syntax.UnionDecl:
		return KindUnion, true
	case *syntax.JoinDecl:
		return KindJoin, true
	case *syntax.AnnotationTypeDecl:
		return KindAnnotation, true
	default:
		return 0, false
	}
}

func newShell(kind Kind, name ir.QualifiedName) ir.Type {
	switch kind {
	case KindEnum:
		return ir.NewEnumType(name)
	case KindAlias:
		return ir.NewTypeAlias(name)
	case KindUnion:
		return ir.NewUnionType(name)
	case KindJoin:
		return ir.NewJoinType(name)
	case KindAnnotation:
		return ir.NewAnnotationType(name)
	default:
		return ir.NewObjectType(name)
	}
}

func kindOfType(t ir.Type) Kind {
	switch t.(type) {
	case *ir.EnumType:
		return KindEnum
	case *ir.TypeAlias:
		return KindAlias
	case *ir.UnionType:
		return KindUnion
	case *ir.JoinType:
		return KindJoin
	case *ir.AnnotationType:
		return KindAnnotation
	default:
		return KindObject
	}
}

// Declare records a type declaration and creates its shell.
//
// A second declaration of the same name with the same fingerprint is merged
// (its site is recorded); one with a different fingerprint or kind is a
// Conflict and leaves the slot untouched.
func (r *Registry) Declare(name ir.QualifiedName, decl syntax.Decl, doc *syntax.Document, fingerprint string) (*Slot, Outcome) {
	kind, ok := KindOf(decl)
	if !ok {
		panic(fmt.Sprintf("symbols: %T does not declare a type", decl))
	}
	if i, exists := r.index[name]; exists {
		slot := r.slots[i]
		if slot.Kind == kind && slot.Fingerprint == fingerprint && !slot.Imported {
			slot.Sites = append(slot.Sites, decl.DeclPos())
			return slot, Merged
		}
		return slot, Conflict
	}
	slot := &Slot{
		Name:        name,
		Kind:        kind,
		State:       Declared,
		Type:        newShell(kind, name),
		Decl:        decl,
		Doc:         doc,
		Fingerprint: fingerprint,
		Sites:       []syntax.Pos{decl.DeclPos()},
	}
	r.add(slot)
	return slot, Created
}

func (r *Registry) add(slot *Slot) {
	r.index[slot.Name] = len(r.slots)
	simple := slot.Name.Simple()
	r.bySimple[simple] = append(r.bySimple[simple], len(r.slots))
	r.slots = append(r.slots, slot)
}

// Register inserts a complete type, such as an imported or synthesized
// one. It replaces a placeholder (a slot that is not Defined) and is a no-op
// for the very same type; replacing a defined slot with a different type is
// an error.
func (r *Registry) Register(t ir.Type, imported bool) error {
	name := t.Name()
	if i, exists := r.index[name]; exists {
		slot := r.slots[i]
		if slot.Type == t {
			slot.State = Defined
			return nil
		}
		if slot.State == Defined {
			return fmt.Errorf("type %s is already defined", name)
		}
		slot.Type = t
		slot.Kind = kindOfType(t)
		slot.State = Defined
		slot.Imported = imported
		return nil
	}
	r.add(&Slot{Name: name, Kind: kindOfType(t), State: Defined, Type: t, Imported: imported})
	return nil
}

// Slot returns the slot for name.
func (r *Registry) Slot(name ir.QualifiedName) (*Slot, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.slots[i], true
}

// Type returns the (possibly still undefined) type registered under name.
func (r *Registry) Type(name ir.QualifiedName) (ir.Type, bool) {
	slot, ok := r.Slot(name)
	if !ok {
		return nil, false
	}
	return slot.Type, true
}

// BySimpleName returns the slots whose simple name matches, in declaration
// order.
func (r *Registry) BySimpleName(simple string) []*Slot {
	idx := r.bySimple[simple]
	out := make([]*Slot, len(idx))
	for i, j := range idx {
		out[i] = r.slots[j]
	}
	return out
}

// Slots returns every slot in declaration order.
func (r *Registry) Slots() []*Slot {
	out := make([]*Slot, len(r.slots))
	copy(out, r.slots)
	return out
}

// SimpleNames returns the simple names of every registered type.
func (r *Registry) SimpleNames() []string {
	out := make([]string, 0, len(r.bySimple))
	for n := range r.bySimple {
		out = append(out, n)
	}
	return out
}

// DeclareFunction records a function declaration and creates its shell.
// Conflict is returned when the name is already taken.
func (r *Registry) DeclareFunction(name ir.QualifiedName, decl *syntax.FunctionDecl, doc *syntax.Document) (*FunctionSlot, Outcome) {
	if existing, ok := r.functions[name]; ok {
		return existing, Conflict
	}
	slot := &FunctionSlot{Name: name, State: Declared, Function: ir.NewFunction(name), Decl: decl, Doc: doc}
	r.functions[name] = slot
	r.fnOrder = append(r.fnOrder, name)
	return slot, Created
}

// RegisterFunction inserts an already defined function (built-in or
// imported). Existing entries are kept.
func (r *Registry) RegisterFunction(fn *ir.Function, builtin, imported bool) *FunctionSlot {
	if existing, ok := r.functions[fn.Name()]; ok {
		return existing
	}
	slot := &FunctionSlot{Name: fn.Name(), State: Defined, Function: fn, Builtin: builtin, Imported: imported}
	r.functions[fn.Name()] = slot
	r.fnOrder = append(r.fnOrder, fn.Name())
	return slot
}

// Function returns the function slot for name.
func (r *Registry) Function(name ir.QualifiedName) (*FunctionSlot, bool) {
	slot, ok := r.functions[name]
	return slot, ok
}

// Functions returns every function slot in registration order.
func (r *Registry) Functions() []*FunctionSlot {
	out := make([]*FunctionSlot, len(r.fnOrder))
	for i, n := range r.fnOrder {
		out[i] = r.functions[n]
	}
	return out
}

// FunctionsBySimpleName returns function slots whose simple name matches.
func (r *Registry) FunctionsBySimpleName(simple string) []*FunctionSlot {
	var out []*FunctionSlot
	for _, n := range r.fnOrder {
		if n.Simple() == simple {
			out = append(out, r.functions[n])
		}
	}
	return out
}
