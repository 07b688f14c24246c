package ir

import (
	"slices"
	"strings"
)

// Document is a compiled set of declarations.
//
// The compiler populates a document through the Add methods; consumers
// only read it.
type Document struct {
	Sources  []string
	Synonyms *SynonymRegistry

	types       map[QualifiedName]Type
	functions   map[QualifiedName]*Function
	services    map[QualifiedName]*Service
	policies    map[QualifiedName]*Policy
	dataSources map[QualifiedName]*DataSource
	queries     map[QualifiedName]*Query
	views       map[QualifiedName]*View
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		Synonyms:    NewSynonymRegistry(),
		types:       map[QualifiedName]Type{},
		functions:   map[QualifiedName]*Function{},
		services:    map[QualifiedName]*Service{},
		policies:    map[QualifiedName]*Policy{},
		dataSources: map[QualifiedName]*DataSource{},
		queries:     map[QualifiedName]*Query{},
		views:       map[QualifiedName]*View{},
	}
}

// AddType registers a named type.
func (d *Document) AddType(t Type) { d.types[t.Name()] = t }

// AddFunction registers a function.
func (d *Document) AddFunction(f *Function) { d.functions[f.Name()] = f }

// AddService registers a service.
func (d *Document) AddService(s *Service) { d.services[s.Name] = s }

// AddPolicy registers a policy.
func (d *Document) AddPolicy(p *Policy) { d.policies[p.Name] = p }

// AddDataSource registers a data source.
func (d *Document) AddDataSource(ds *DataSource) { d.dataSources[ds.Name] = ds }

// AddQuery registers a query.
func (d *Document) AddQuery(q *Query) { d.queries[q.Name] = q }

// AddView registers a view.
func (d *Document) AddView(v *View) { d.views[v.Name] = v }

// Type looks up a declared type.
func (d *Document) Type(name QualifiedName) (Type, bool) {
	t, ok := d.types[name]
	return t, ok
}

// ObjectType looks up a declared object type.
func (d *Document) ObjectType(name QualifiedName) *ObjectType {
	t, _ := d.types[name].(*ObjectType)
	return t
}

// EnumType looks up a declared enum.
func (d *Document) EnumType(name QualifiedName) *EnumType {
	t, _ := d.types[name].(*EnumType)
	return t
}

// Function looks up a declared function.
func (d *Document) Function(name QualifiedName) *Function { return d.functions[name] }

// Service looks up a service.
func (d *Document) Service(name QualifiedName) *Service { return d.services[name] }

// Policy looks up a policy.
func (d *Document) Policy(name QualifiedName) *Policy { return d.policies[name] }

// DataSource looks up a data source.
func (d *Document) DataSource(name QualifiedName) *DataSource { return d.dataSources[name] }

// Query looks up a query.
func (d *Document) Query(name QualifiedName) *Query { return d.queries[name] }

// View looks up a view.
func (d *Document) View(name QualifiedName) *View { return d.views[name] }

// Types returns every declared type ordered by name.
func (d *Document) Types() []Type { return sortedValues(d.types, Type.Name) }

// Functions returns every function ordered by name.
func (d *Document) Functions() []*Function { return sortedValues(d.functions, (*Function).Name) }

// Services returns every service ordered by name.
func (d *Document) Services() []*Service {
	return sortedValues(d.services, func(s *Service) QualifiedName { return s.Name })
}

// Policies returns every policy ordered by name.
func (d *Document) Policies() []*Policy {
	return sortedValues(d.policies, func(p *Policy) QualifiedName { return p.Name })
}

// DataSources returns every data source ordered by name.
func (d *Document) DataSources() []*DataSource {
	return sortedValues(d.dataSources, func(ds *DataSource) QualifiedName { return ds.Name })
}

// Queries returns every query ordered by name.
func (d *Document) Queries() []*Query {
	return sortedValues(d.queries, func(q *Query) QualifiedName { return q.Name })
}

// Views returns every view ordered by name.
func (d *Document) Views() []*View {
	return sortedValues(d.views, func(v *View) QualifiedName { return v.Name })
}

// TypesBySimpleName returns the declared types whose simple name matches.
func (d *Document) TypesBySimpleName(simple string) []Type {
	var out []Type
	for _, t := range d.Types() {
		if t.Name().Simple() == simple {
			out = append(out, t)
		}
	}
	return out
}

// Closure returns the named types reachable from roots by following
// ReferencedTypes breadth first, roots included, in visit order.
func Closure(roots ...Type) []Type {
	seen := map[Type]bool{}
	var out []Type
	queue := append([]Type(nil), roots...)
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		if t == nil || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		queue = append(queue, ReferencedTypes(t)...)
	}
	return out
}

func sortedValues[V any](m map[QualifiedName]V, name func(V) QualifiedName) []V {
	out := make([]V, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b V) int {
		return strings.Compare(string(name(a)), string(name(b)))
	})
	return out
}
