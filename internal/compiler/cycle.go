package compiler

import (
	"slices"
	"strings"

	"github.com/taxilang/taxilang-sub000/internal/diag"
	"github.com/taxilang/taxilang-sub000/internal/ir"
	"github.com/taxilang/taxilang-sub000/internal/symbols"
	"github.com/taxilang/taxilang-sub000/internal/syntax"
)

// typeGraph maps a declared type to the declared types it inherits from or
// aliases.
type typeGraph map[ir.QualifiedName][]ir.QualifiedName

// checkInheritanceCycles reports circular inheritance and circular aliases.
//
// This runs before any type is compiled. Lazy compilation tolerates cycles
// (a type still compiling resolves to its shell), so without this pass a
// type inheriting from itself would compile silently.
//
// The algorithm:
//  1. Build the graph from inherits clauses and alias targets, resolving
//     names without reporting: unresolved names are reported later.
//  2. Use Tarjan's algorithm to find strongly connected components.
//  3. Report every member of each SCC with size > 1 or a self-loop.
func (c *Compiler) checkInheritanceCycles() {
	graph, decls := c.buildTypeGraph()
	for _, scc := range tarjanSCC(graph) {
		if len(scc) == 1 && !hasSelfLoop(scc[0], graph) {
			continue
		}
		path := reconstructCyclePath(scc, graph)
		names := make([]string, len(path))
		for i, n := range path {
			names[i] = string(n)
		}
		rendered := strings.Join(names, " -> ")
		for _, n := range scc {
			d := decls[n]
			what := "inheritance"
			if _, alias := d.(*syntax.AliasDecl); alias {
				what = "alias"
			}
			c.diags.Add(diag.Errorf(diag.StructuralError, d.DeclPos(),
				"%s has a circular %s: %s", n, what, rendered))
		}
	}
}

func (c *Compiler) buildTypeGraph() (typeGraph, map[ir.QualifiedName]syntax.Decl) {
	graph := typeGraph{}
	decls := map[ir.QualifiedName]syntax.Decl{}
	for _, slot := range c.reg.Slots() {
		if slot.Decl == nil {
			continue
		}
		var refs []syntax.TypeRef
		switch d := slot.Decl.(type) {
		case *syntax.TypeDecl:
			refs = d.Inherits
		case *syntax.EnumDecl:
			refs = d.Inherits
		case *syntax.AliasDecl:
			refs = []syntax.TypeRef{d.Target}
		default:
			continue
		}
		decls[slot.Name] = slot.Decl
		graph[slot.Name] = c.declaredTargets(slot, refs)
	}
	return graph, decls
}

// declaredTargets resolves refs to the source-declared types they name.
// Generic references, primitives and imported types cannot close a cycle
// and are skipped.
func (c *Compiler) declaredTargets(slot *symbols.Slot, refs []syntax.TypeRef) []ir.QualifiedName {
	scope := symbols.ScopeOf(slot.Doc)
	var out []ir.QualifiedName
	for _, ref := range refs {
		if len(ref.Params) > 0 {
			continue
		}
		if _, ok := ir.PrimitiveByName(ref.Name); ok {
			continue
		}
		q, d := c.resolver.Resolve(scope, ref.Name, ref.Pos)
		if d != nil {
			continue
		}
		if target, ok := c.reg.Slot(q); ok && target.Decl != nil {
			out = append(out, q)
		}
	}
	return out
}

func hasSelfLoop(node ir.QualifiedName, graph typeGraph) bool {
	return slices.Contains(graph[node], node)
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in sorted order so diagnostics are deterministic.
func tarjanSCC(graph typeGraph) [][]ir.QualifiedName {
	var (
		index   = 0
		stack   []ir.QualifiedName
		indices = make(map[ir.QualifiedName]int)
		lowlink = make(map[ir.QualifiedName]int)
		onStack = make(map[ir.QualifiedName]bool)
		sccs    [][]ir.QualifiedName
	)

	var strongConnect func(ir.QualifiedName)
	strongConnect = func(v ir.QualifiedName) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []ir.QualifiedName
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			slices.Sort(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]ir.QualifiedName, 0, len(graph))
	for n := range graph {
		nodes = append(nodes, n)
	}
	slices.Sort(nodes)
	for _, n := range nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// reconstructCyclePath walks edges inside the SCC from its first member
// until it returns to the start.
func reconstructCyclePath(scc []ir.QualifiedName, graph typeGraph) []ir.QualifiedName {
	if len(scc) == 0 {
		return nil
	}
	members := make(map[ir.QualifiedName]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[0]
	current := start
	path := []ir.QualifiedName{current}
	visited := map[ir.QualifiedName]bool{}
	for {
		visited[current] = true
		var next ir.QualifiedName
		for _, w := range graph[current] {
			if members[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
