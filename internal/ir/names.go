package ir

import "strings"

// Well-known namespaces.
const (
	// PrimitiveNamespace holds the built-in primitive and collection types.
	PrimitiveNamespace = "lang.taxi"

	// StdlibNamespace is searched when an unqualified function name does not
	// resolve any other way.
	StdlibNamespace = "taxi.stdlib"
)

// QualifiedName is a namespace-qualified identifier such as "acme.Customer".
// Parameterized types embed their parameters: "lang.taxi.Array<acme.Name>".
type QualifiedName string

// NewQualifiedName joins namespace and simple name. An empty namespace
// yields the bare simple name.
func NewQualifiedName(namespace, simple string) QualifiedName {
	if namespace == "" {
		return QualifiedName(simple)
	}
	return QualifiedName(namespace + "." + simple)
}

// Parameterize builds "base<p1,p2>".
func Parameterize(base QualifiedName, params ...QualifiedName) QualifiedName {
	if len(params) == 0 {
		return base
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = string(p)
	}
	return QualifiedName(string(base) + "<" + strings.Join(parts, ",") + ">")
}

func (q QualifiedName) String() string {
	return string(q)
}

// Base strips type parameters: "lang.taxi.Array<x.Y>" becomes
// "lang.taxi.Array".
func (q QualifiedName) Base() QualifiedName {
	if i := strings.IndexByte(string(q), '<'); i >= 0 {
		return q[:i]
	}
	return q
}

// Parameterized reports whether the name carries type parameters.
func (q QualifiedName) Parameterized() bool {
	return strings.IndexByte(string(q), '<') >= 0
}

// Namespace returns everything before the last dot of the base name.
func (q QualifiedName) Namespace() string {
	base := string(q.Base())
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[:i]
	}
	return ""
}

// Simple returns the last segment of the base name.
func (q QualifiedName) Simple() string {
	base := string(q.Base())
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		return base[i+1:]
	}
	return base
}

// Qualified reports whether the name carries a namespace.
func (q QualifiedName) Qualified() bool {
	return q.Namespace() != ""
}
