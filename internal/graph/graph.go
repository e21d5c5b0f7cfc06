// Package graph tracks which scripts reference which other scripts.
// References are found by name in SQL text, so unlike a build graph the
// result may contain cycles.
package graph

import (
	"fmt"
	"slices"
	"sort"
)

// Graph is a directed graph of script paths. An edge from a to b means a
// references b.
type Graph struct {
	nodes map[string]bool
	refs  map[string][]string // script -> scripts it references, in insertion order
	refBy map[string][]string // script -> scripts referencing it
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]bool),
		refs:  make(map[string][]string),
		refBy: make(map[string][]string),
	}
}

// AddNode adds a script. Adding an existing script is a no-op.
func (g *Graph) AddNode(id string) {
	g.nodes[id] = true
}

// AddEdge records that from references to.
func (g *Graph) AddEdge(from, to string) error {
	if !g.nodes[from] {
		return fmt.Errorf("node %q does not exist", from)
	}
	if !g.nodes[to] {
		return fmt.Errorf("node %q does not exist", to)
	}
	if from == to {
		return fmt.Errorf("self-reference: %s", from)
	}

	if !slices.Contains(g.refs[from], to) {
		g.refs[from] = append(g.refs[from], to)
		g.refBy[to] = append(g.refBy[to], from)
	}
	return nil
}

// Has reports whether id is in the graph.
func (g *Graph) Has(id string) bool {
	return g.nodes[id]
}

// Nodes returns every script, sorted.
func (g *Graph) Nodes() []string {
	return sortedKeys(g.nodes)
}

// NodeCount returns the number of scripts.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of references.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, to := range g.refs {
		count += len(to)
	}
	return count
}

// References returns the scripts id references directly, in the order they
// were added.
func (g *Graph) References(id string) []string {
	return slices.Clone(g.refs[id])
}

// ReferencedBy returns the scripts referencing id directly, sorted.
func (g *Graph) ReferencedBy(id string) []string {
	by := slices.Clone(g.refBy[id])
	sort.Strings(by)
	return by
}

// Neighbors returns the given scripts plus the scripts they reference or
// are referenced by, sorted. Unknown ids are kept.
func (g *Graph) Neighbors(ids ...string) []string {
	set := make(map[string]bool)
	for _, id := range ids {
		set[id] = true
		for _, to := range g.refs[id] {
			set[to] = true
		}
		for _, from := range g.refBy[id] {
			set[from] = true
		}
	}
	return sortedKeys(set)
}

// Cycle returns one reference cycle, starting and ending at the same
// script, or nil if there is none. Scripts are visited in sorted order so
// the result is deterministic.
func (g *Graph) Cycle() []string {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int, len(g.nodes))
	var stack []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		state[id] = active
		stack = append(stack, id)
		for _, to := range g.refs[id] {
			switch state[to] {
			case active:
				i := slices.Index(stack, to)
				return append(slices.Clone(stack[i:]), to)
			case unvisited:
				if c := dfs(to); c != nil {
					return c
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range g.Nodes() {
		if state[id] == unvisited {
			if c := dfs(id); c != nil {
				return c
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
