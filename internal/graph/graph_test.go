package graph

import (
	"slices"
	"testing"
)

// chain builds a -> b -> c plus d -> b.
func chain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id)
	}
	for _, e := range [][2]string{{"a", "b"}, {"b", "c"}, {"d", "b"}} {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("failed to add edge %v: %v", e, err)
		}
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := chain(t)

	if g.NodeCount() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Errorf("expected 3 edges, got %d", g.EdgeCount())
	}

	// Duplicate references are recorded once.
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("expected 3 edges after duplicate, got %d", g.EdgeCount())
	}

	g.AddNode("a")
	if g.NodeCount() != 4 {
		t.Errorf("re-adding a node changed the count to %d", g.NodeCount())
	}
}

func TestGraph_AddEdge_Invalid(t *testing.T) {
	g := New()
	g.AddNode("a")

	if err := g.AddEdge("a", "missing"); err == nil {
		t.Error("expected error for missing target")
	}
	if err := g.AddEdge("missing", "a"); err == nil {
		t.Error("expected error for missing source")
	}
	if err := g.AddEdge("a", "a"); err == nil {
		t.Error("expected error for self-reference")
	}
}

func TestGraph_Direct(t *testing.T) {
	g := chain(t)

	if got := g.References("a"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("References(a) = %v", got)
	}
	if got := g.ReferencedBy("b"); !slices.Equal(got, []string{"a", "d"}) {
		t.Errorf("ReferencedBy(b) = %v", got)
	}
	if got := g.References("c"); len(got) != 0 {
		t.Errorf("References(c) = %v, want none", got)
	}
}

func TestGraph_Neighbors(t *testing.T) {
	g := chain(t)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"neighbors of b", g.Neighbors("b"), []string{"a", "b", "c", "d"}},
		{"neighbors of leaf", g.Neighbors("c"), []string{"b", "c"}},
		{"neighbors of several", g.Neighbors("a", "d"), []string{"a", "b", "d"}},
		{"neighbors keep unknown", g.Neighbors("zzz"), []string{"zzz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !slices.Equal(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestGraph_Cycle(t *testing.T) {
	g := chain(t)
	if c := g.Cycle(); c != nil {
		t.Fatalf("expected no cycle, got %v", c)
	}

	if err := g.AddEdge("c", "a"); err != nil {
		t.Fatal(err)
	}
	c := g.Cycle()
	if want := []string{"a", "b", "c", "a"}; !slices.Equal(c, want) {
		t.Errorf("Cycle() = %v, want %v", c, want)
	}

	if got := g.Neighbors("c"); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Neighbors(c) with cycle = %v", got)
	}
}
