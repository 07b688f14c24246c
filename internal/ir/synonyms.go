package ir

import (
	"slices"
	"strings"
)

// SynonymRegistry is an undirected graph over enum value names. Edges carry
// a provenance token (usually the declaring enum).
//
// Edges may be registered before the values they name exist; lookups are
// transitive and terminate on cycles.
type SynonymRegistry struct {
	edges map[QualifiedName]map[QualifiedName]string
}

// NewSynonymRegistry creates an empty registry.
func NewSynonymRegistry() *SynonymRegistry {
	return &SynonymRegistry{edges: map[QualifiedName]map[QualifiedName]string{}}
}

// Register records that a and b are synonyms. The first provenance recorded
// for an edge wins.
func (r *SynonymRegistry) Register(a, b QualifiedName, provenance string) {
	if a == b {
		return
	}
	r.link(a, b, provenance)
	r.link(b, a, provenance)
}

func (r *SynonymRegistry) link(from, to QualifiedName, provenance string) {
	adj, ok := r.edges[from]
	if !ok {
		adj = map[QualifiedName]string{}
		r.edges[from] = adj
	}
	if _, exists := adj[to]; !exists {
		adj[to] = provenance
	}
}

// Direct returns the values declared as synonyms of name, sorted.
func (r *SynonymRegistry) Direct(name QualifiedName) []QualifiedName {
	out := make([]QualifiedName, 0, len(r.edges[name]))
	for n := range r.edges[name] {
		out = append(out, n)
	}
	sortNames(out)
	return out
}

// Synonyms returns every value transitively equivalent to name, excluding
// name itself, sorted.
func (r *SynonymRegistry) Synonyms(name QualifiedName) []QualifiedName {
	visited := map[QualifiedName]bool{name: true}
	queue := []QualifiedName{name}
	var out []QualifiedName
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range r.edges[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	sortNames(out)
	return out
}

// Provenance returns the token stored on the edge between a and b.
func (r *SynonymRegistry) Provenance(a, b QualifiedName) (string, bool) {
	p, ok := r.edges[a][b]
	return p, ok
}

// Names returns every value that takes part in at least one edge, sorted.
func (r *SynonymRegistry) Names() []QualifiedName {
	out := make([]QualifiedName, 0, len(r.edges))
	for n := range r.edges {
		out = append(out, n)
	}
	sortNames(out)
	return out
}

// Merge copies every edge of other into r.
func (r *SynonymRegistry) Merge(other *SynonymRegistry) {
	if other == nil {
		return
	}
	for from, adj := range other.edges {
		for to, p := range adj {
			r.link(from, to, p)
		}
	}
}

func sortNames(names []QualifiedName) {
	slices.SortFunc(names, func(a, b QualifiedName) int {
		return strings.Compare(string(a), string(b))
	})
}
