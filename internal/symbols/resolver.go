package symbols

import (
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// Scope is the naming context of a reference: the namespace of the
// declaring document, its explicit imports and any generic parameters in
// scope.
type Scope struct {
	Namespace  string
	Imports    []ir.QualifiedName
	TypeParams map[string]*ir.TypeParameter
}

// ScopeOf builds the scope of a source document.
func ScopeOf(doc *syntax.Document) Scope {
	if doc == nil {
		return Scope{}
	}
	s := Scope{Namespace: doc.Namespace}
	for _, imp := range doc.Imports {
		s.Imports = append(s.Imports, ir.QualifiedName(imp.Name))
	}
	return s
}

// WithTypeParams returns a copy of s with generic parameters added.
func (s Scope) WithTypeParams(params []*ir.TypeParameter) Scope {
	out := s
	out.TypeParams = make(map[string]*ir.TypeParameter, len(s.TypeParams)+len(params))
	for k, v := range s.TypeParams {
		out.TypeParams[k] = v
	}
	for _, p := range params {
		out.TypeParams[p.Param] = p
	}
	return out
}

func (s Scope) imports(name ir.QualifiedName) bool {
	return slices.Contains(s.Imports, name)
}

// Resolver qualifies source names against a registry.
type Resolver struct {
	reg *Registry
}

// NewResolver creates a resolver over reg.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Resolve qualifies a type name.
//
// A name containing a dot is already qualified and must be registered.
// Otherwise the lookup order is: generic parameters in scope, primitives,
// the built-in Array/Map/Stream, the scope's own namespace, then every
// registered type with that simple name. An explicit import picks between
// several candidates; without one, more than one candidate is ambiguous.
// The returned name may be a TypeParameter name; callers check scope first.
func (r *Resolver) Resolve(scope Scope, name string, pos syntax.Pos) (ir.QualifiedName, *diag.Diagnostic) {
	if strings.Contains(name, ".") {
		q := ir.QualifiedName(name)
		if _, ok := r.reg.Type(q); ok {
			return q, nil
		}
		if p, ok := ir.PrimitiveByName(name); ok {
			return p.Name(), nil
		}
		if ir.IsBuiltinGeneric(name) {
			return q, nil
		}
		return "", r.notDefined(name, pos)
	}

	if _, ok := scope.TypeParams[name]; ok {
		return ir.QualifiedName(name), nil
	}
	if p, ok := ir.PrimitiveByName(name); ok {
		return p.Name(), nil
	}
	if ir.IsBuiltinGeneric(name) {
		return ir.NewQualifiedName(ir.PrimitiveNamespace, name), nil
	}
	if scope.Namespace != "" {
		local := ir.NewQualifiedName(scope.Namespace, name)
		if _, ok := r.reg.Type(local); ok {
			return local, nil
		}
	} else if _, ok := r.reg.Type(ir.QualifiedName(name)); ok {
		return ir.QualifiedName(name), nil
	}

	candidates := r.reg.BySimpleName(name)
	switch len(candidates) {
	case 0:
		return "", r.notDefined(name, pos)
	case 1:
		return candidates[0].Name, nil
	}
	var imported []ir.QualifiedName
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = string(c.Name)
		if scope.imports(c.Name) {
			imported = append(imported, c.Name)
		}
	}
	if len(imported) == 1 {
		return imported[0], nil
	}
	slices.Sort(names)
	return "", diag.Errorf(diag.AmbiguousReference, pos,
		"Name reference %s is ambiguous, and could refer to any of the available types %s. Use a fully qualified name or an import",
		name, strings.Join(names, ", "))
}

func (r *Resolver) notDefined(name string, pos syntax.Pos) *diag.Diagnostic {
	msg := name + " is not defined"
	if s := r.suggest(name); s != "" {
		msg += ". Did you mean " + s + "?"
	}
	return diag.Errorf(diag.NotDefined, pos, "%s", msg)
}

// suggest returns the closest known type name, or "" when nothing is
// reasonably close.
func (r *Resolver) suggest(name string) string {
	simple := ir.QualifiedName(name).Simple()
	candidates := r.reg.SimpleNames()
	for _, p := range ir.Primitives() {
		candidates = append(candidates, p.Name().Simple())
	}
	return closest(simple, candidates)
}

func closest(target string, candidates []string) string {
	limit := max(2, len(target)/3)
	best, bestDist := "", limit+1
	slices.Sort(candidates)
	for _, c := range candidates {
		if c == target {
			continue
		}
		d := levenshtein.ComputeDistance(strings.ToLower(target), strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// ResolveFunction qualifies a function name. Unqualified names are tried in
// the scope's namespace, then against imports and unique simple-name
// matches, and finally in the standard library namespace.
func (r *Resolver) ResolveFunction(scope Scope, name string, pos syntax.Pos) (ir.QualifiedName, *diag.Diagnostic) {
	if strings.Contains(name, ".") {
		q := ir.QualifiedName(name)
		if _, ok := r.reg.Function(q); ok {
			return q, nil
		}
		return "", r.functionNotDefined(name, pos)
	}
	if scope.Namespace != "" {
		local := ir.NewQualifiedName(scope.Namespace, name)
		if _, ok := r.reg.Function(local); ok {
			return local, nil
		}
	}
	var candidates []ir.QualifiedName
	for _, slot := range r.reg.FunctionsBySimpleName(name) {
		if !slot.Builtin {
			candidates = append(candidates, slot.Name)
		}
	}
	for _, c := range candidates {
		if scope.imports(c) {
			return c, nil
		}
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if len(candidates) > 1 {
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = string(c)
		}
		slices.Sort(names)
		return "", diag.Errorf(diag.AmbiguousReference, pos,
			"Function reference %s is ambiguous, and could refer to any of %s", name, strings.Join(names, ", "))
	}
	std := ir.NewQualifiedName(ir.StdlibNamespace, name)
	if _, ok := r.reg.Function(std); ok {
		return std, nil
	}
	return "", r.functionNotDefined(name, pos)
}

func (r *Resolver) functionNotDefined(name string, pos syntax.Pos) *diag.Diagnostic {
	var names []string
	for _, slot := range r.reg.Functions() {
		names = append(names, slot.Name.Simple())
	}
	msg := "Function " + name + " is not defined"
	if s := closest(ir.QualifiedName(name).Simple(), names); s != "" {
		msg += ". Did you mean " + s + "?"
	}
	return diag.Errorf(diag.NotDefined, pos, "%s", msg)
}
