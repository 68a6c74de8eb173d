package graph

import (
	"errors"
	"testing"
)

func buildGraph(t *testing.T, names []string, add func(g *Graph)) *Graph {
	t.Helper()
	nodes := make([]*Node, len(names))
	for i, n := range names {
		nodes[i] = NewNode(n)
	}
	g := New(nodes...)
	if add != nil {
		add(g)
	}
	return g
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		prep    func(g *Graph)
		wantErr error
	}{
		{name: "Valid", node: NewNode("a")},
		{name: "EmptyName", node: &Node{}, wantErr: ErrInvalidNodeName},
		{name: "Nil", node: nil, wantErr: ErrInvalidNodeName},
		{
			name:    "Duplicate",
			node:    NewNode("a"),
			prep:    func(g *Graph) { g.AddNode(NewNode("a")) },
			wantErr: ErrDuplicateNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New()
			if tt.prep != nil {
				tt.prep(g)
			}
			err := g.AddNode(tt.node)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetEdge(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		wantErr error
	}{
		{name: "Valid", a: "a", b: "b"},
		{name: "SelfLoop", a: "a", b: "a", wantErr: ErrSelfLoop},
		{name: "UnknownSource", a: "zz", b: "b", wantErr: ErrUnknownNode},
		{name: "UnknownTarget", a: "a", b: "zz", wantErr: ErrUnknownNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []string{"a", "b"}, nil)
			err := g.SetEdge(tt.a, Tail, tt.b, Arrow)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetEdge() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && !g.IsAdjacent(tt.a, tt.b) {
				t.Error("edge not indexed after SetEdge")
			}
		})
	}
}

func TestSingleEdgePerPair(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, nil)
	g.AddDirected("a", "b")
	g.AddDirected("b", "a") // replaces, does not duplicate

	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	e, _ := g.EdgeBetween("a", "b")
	if !e.PointsTo("b", "a") {
		t.Errorf("edge = %v, want b --> a", e)
	}
}

func TestEndpointQueries(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, func(g *Graph) {
		g.AddDirected("a", "b")
		g.AddUndirected("b", "c")
		g.AddBidirected("c", "d")
	})

	tests := []struct {
		name     string
		from, at string
		want     Endpoint
	}{
		{name: "ArrowAtB", from: "a", at: "b", want: Arrow},
		{name: "TailAtA", from: "b", at: "a", want: Tail},
		{name: "UndirectedTail", from: "b", at: "c", want: Tail},
		{name: "BidirectedArrow", from: "c", at: "d", want: Arrow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, ok := g.Endpoint(tt.from, tt.at)
			if !ok {
				t.Fatal("Endpoint() reported missing edge")
			}
			if ep != tt.want {
				t.Errorf("Endpoint(%s, %s) = %v, want %v", tt.from, tt.at, ep, tt.want)
			}
		})
	}

	if _, ok := g.Endpoint("a", "d"); ok {
		t.Error("Endpoint() found edge for non-adjacent pair")
	}
}

func TestParentsChildren(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, func(g *Graph) {
		g.AddDirected("a", "c")
		g.AddDirected("b", "c")
		g.AddDirected("c", "d")
		g.AddUndirected("a", "b")
	})

	if got := g.ParentsOf("c"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("ParentsOf(c) = %v, want [a b]", got)
	}
	if got := g.ChildrenOf("c"); len(got) != 1 || got[0] != "d" {
		t.Errorf("ChildrenOf(c) = %v, want [d]", got)
	}
	if got := g.UndirectedNeighbors("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("UndirectedNeighbors(a) = %v, want [b]", got)
	}
}

func TestColliderQueries(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, func(g *Graph) {
		g.AddDirected("a", "b")
		g.AddDirected("c", "b")
		g.AddDirected("a", "d")
		g.AddDirected("c", "d")
		g.AddUndirected("a", "c") // shields d but we only connect one pair
	})

	if !g.IsDefCollider("a", "b", "c") {
		t.Error("IsDefCollider(a,b,c) = false, want true")
	}
	if g.IsUnshieldedCollider("a", "b", "c") {
		t.Error("IsUnshieldedCollider(a,b,c) = true, want false (a-c shielded)")
	}
	g.RemoveEdge("a", "c")
	if !g.IsUnshieldedCollider("a", "b", "c") {
		t.Error("IsUnshieldedCollider(a,b,c) = false after unshielding")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := buildGraph(t, []string{"a", "b"}, func(g *Graph) {
		g.AddDirected("a", "b")
	})
	g.RemoveEdge("b", "a") // order-insensitive
	if g.IsAdjacent("a", "b") || g.EdgeCount() != 0 {
		t.Error("edge survived RemoveEdge")
	}
	g.RemoveEdge("a", "b") // removing again is a no-op
}

func TestCopyIsIndependent(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c"}, func(g *Graph) {
		g.AddDirected("a", "b")
		g.MarkAmbiguous("a", "b", "c")
	})
	cp := g.Copy()
	if !g.Equal(cp) {
		t.Fatal("copy not equal to original")
	}
	cp.SetEndpoint("b", "a", Arrow)
	if ep, _ := g.Endpoint("b", "a"); ep != Tail {
		t.Error("mutating copy affected original")
	}
	if !cp.IsAmbiguous("c", "b", "a") {
		t.Error("ambiguous triple not carried to copy (canonical form)")
	}
}

func TestCausalOrder(t *testing.T) {
	tests := []struct {
		name    string
		build   func(g *Graph)
		prefer  []string
		want    []string
		wantErr error
	}{
		{
			name:   "Chain",
			build:  func(g *Graph) { g.AddDirected("c", "b"); g.AddDirected("b", "a") },
			prefer: []string{"a", "b", "c"},
			want:   []string{"c", "b", "a"},
		},
		{
			name:   "StableAmongFree",
			build:  func(g *Graph) { g.AddUndirected("a", "b") },
			prefer: []string{"b", "a", "c"},
			want:   []string{"b", "a", "c"},
		},
		{
			name: "Cycle",
			build: func(g *Graph) {
				g.AddDirected("a", "b")
				g.AddDirected("b", "c")
				g.AddDirected("c", "a")
			},
			prefer:  []string{"a", "b", "c"},
			wantErr: ErrNotAcyclic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, []string{"a", "b", "c"}, tt.build)
			got, err := g.Paths().CausalOrder(tt.prefer)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CausalOrder() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("CausalOrder() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPathsReachability(t *testing.T) {
	g := buildGraph(t, []string{"a", "b", "c", "d"}, func(g *Graph) {
		g.AddDirected("a", "b")
		g.AddDirected("b", "c")
		g.AddUndirected("c", "d")
	})
	p := g.Paths()

	if !p.ExistsDirectedPath("a", "c") {
		t.Error("ExistsDirectedPath(a, c) = false")
	}
	if p.ExistsDirectedPath("a", "d") {
		t.Error("ExistsDirectedPath(a, d) = true; undirected edges must not count")
	}
	if !p.IsAncestorOf("a", "a") {
		t.Error("IsAncestorOf(a, a) = false; a node is its own ancestor")
	}
	anc := p.AncestorsOf("c")
	if !anc["a"] || !anc["b"] || len(anc) != 2 {
		t.Errorf("AncestorsOf(c) = %v, want {a, b}", anc)
	}
	desc := p.DescendantsOf("a")
	if !desc["b"] || !desc["c"] || len(desc) != 2 {
		t.Errorf("DescendantsOf(a) = %v, want {b, c}", desc)
	}
}
