// Package graph provides the mutable causal graph model shared by every
// search phase: nodes, endpoint-typed edges, O(1) adjacency queries, triple
// bookkeeping, and reachability helpers.
//
// A Graph can represent DAGs, CPDAGs, and PAGs uniformly because each edge
// carries an independent [Endpoint] mark at both ends. At most one edge may
// exist between any pair of nodes, and self-loops are rejected.
//
// Graph is not safe for concurrent use. A graph is owned by exactly one
// search phase at a time; once a search returns it, downstream consumers
// must treat it as a snapshot and copy before mutating.
package graph

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

var (
	// ErrInvalidNodeName is returned by [Graph.AddNode] when the node name
	// is empty. All variables must have non-empty identifiers.
	ErrInvalidNodeName = errors.New("node name must not be empty")

	// ErrDuplicateNode is returned by [Graph.AddNode] when a node with the
	// same name already exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrUnknownNode is returned by edge operations referencing a node that
	// is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrSelfLoop is returned by [Graph.SetEdge] when both endpoints name
	// the same node.
	ErrSelfLoop = errors.New("self-loops are not allowed")

	// ErrNoEdge is returned by [Graph.SetEndpoint] when no edge exists
	// between the named nodes.
	ErrNoEdge = errors.New("no edge between nodes")
)

// pairKey is the canonical unordered key for an edge between two nodes.
type pairKey struct{ lo, hi string }

func keyOf(a, b string) pairKey {
	if a < b {
		return pairKey{a, b}
	}
	return pairKey{b, a}
}

// Graph is a mutable collection of nodes and endpoint-typed edges with an
// adjacency index maintained alongside the edge set.
//
// The zero value is not usable - use New to create a Graph.
type Graph struct {
	nodes map[string]*Node
	names []string // insertion order, for deterministic iteration
	edges map[pairKey]*Edge
	adj   map[string]map[string]*Edge // node -> neighbor -> edge

	ambiguous map[Triple]bool // triples with undecidable collider status
	underline map[Triple]bool // triples marked definitely noncollider
}

// New creates an empty graph. Nodes from the optional list are added in
// order; the list must not contain duplicates or unnamed nodes.
func New(nodes ...*Node) *Graph {
	g := &Graph{
		nodes:     make(map[string]*Node, len(nodes)),
		edges:     make(map[pairKey]*Edge),
		adj:       make(map[string]map[string]*Edge, len(nodes)),
		ambiguous: make(map[Triple]bool),
		underline: make(map[Triple]bool),
	}
	for _, n := range nodes {
		// Construction from a known-good node list must not fail silently.
		if err := g.AddNode(n); err != nil {
			panic("graph: " + err.Error())
		}
	}
	return g
}

// AddNode adds a variable to the graph.
// Returns ErrInvalidNodeName for empty names or ErrDuplicateNode when the
// name is already present.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.Name == "" {
		return ErrInvalidNodeName
	}
	if _, exists := g.nodes[n.Name]; exists {
		return ErrDuplicateNode
	}
	g.nodes[n.Name] = n
	g.names = append(g.names, n.Name)
	g.adj[n.Name] = make(map[string]*Edge)
	return nil
}

// Node returns the node with the given name and true, or nil and false.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.names))
	for i, name := range g.names {
		nodes[i] = g.nodes[name]
	}
	return nodes
}

// NodeNames returns all node names in insertion order.
func (g *Graph) NodeNames() []string { return slices.Clone(g.names) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// SetEdge installs an edge between a and b with the given marks, replacing
// any existing edge between the pair. Returns ErrUnknownNode if either node
// is missing or ErrSelfLoop if a == b.
func (g *Graph) SetEdge(a string, endA Endpoint, b string, endB Endpoint) error {
	if a == b {
		return ErrSelfLoop
	}
	if _, ok := g.nodes[a]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.nodes[b]; !ok {
		return ErrUnknownNode
	}
	e := &Edge{A: a, B: b, EndA: endA, EndB: endB}
	g.edges[keyOf(a, b)] = e
	g.adj[a][b] = e
	g.adj[b][a] = e
	return nil
}

// AddDirected adds the directed edge from --> to.
func (g *Graph) AddDirected(from, to string) error {
	return g.SetEdge(from, Tail, to, Arrow)
}

// AddUndirected adds the undirected edge a --- b.
func (g *Graph) AddUndirected(a, b string) error {
	return g.SetEdge(a, Tail, b, Tail)
}

// AddBidirected adds the bidirected edge a <-> b.
func (g *Graph) AddBidirected(a, b string) error {
	return g.SetEdge(a, Arrow, b, Arrow)
}

// AddNondirected adds the fully unresolved edge a o-o b.
func (g *Graph) AddNondirected(a, b string) error {
	return g.SetEdge(a, Circle, b, Circle)
}

// RemoveEdge removes the edge between a and b if present.
func (g *Graph) RemoveEdge(a, b string) {
	if _, ok := g.edges[keyOf(a, b)]; !ok {
		return
	}
	delete(g.edges, keyOf(a, b))
	delete(g.adj[a], b)
	delete(g.adj[b], a)
}

// EdgeBetween returns the edge between a and b, if any.
func (g *Graph) EdgeBetween(a, b string) (*Edge, bool) {
	e, ok := g.edges[keyOf(a, b)]
	return e, ok
}

// Edges returns all edges sorted by canonical pair for deterministic
// iteration.
func (g *Graph) Edges() []*Edge {
	keys := slices.SortedFunc(maps.Keys(g.edges), func(p, q pairKey) int {
		if c := strings.Compare(p.lo, q.lo); c != 0 {
			return c
		}
		return strings.Compare(p.hi, q.hi)
	})
	edges := make([]*Edge, len(keys))
	for i, k := range keys {
		edges[i] = g.edges[k]
	}
	return edges
}

// IsAdjacent reports whether an edge exists between a and b.
func (g *Graph) IsAdjacent(a, b string) bool {
	_, ok := g.edges[keyOf(a, b)]
	return ok
}

// Endpoint returns the mark the a–b edge carries at b, and whether the edge
// exists. Endpoint(x, y) == Arrow means the edge rules out y causing x
// along this edge reading.
func (g *Graph) Endpoint(a, b string) (Endpoint, bool) {
	e, ok := g.edges[keyOf(a, b)]
	if !ok {
		return Tail, false
	}
	return e.Mark(b), true
}

// SetEndpoint sets the mark the a–b edge carries at b.
// Returns ErrNoEdge if the nodes are not adjacent.
func (g *Graph) SetEndpoint(a, b string, ep Endpoint) error {
	e, ok := g.edges[keyOf(a, b)]
	if !ok {
		return ErrNoEdge
	}
	if e.B == b {
		e.EndB = ep
	} else {
		e.EndA = ep
	}
	return nil
}

// AdjacentTo returns the names of all neighbors of name, sorted.
func (g *Graph) AdjacentTo(name string) []string {
	return slices.Sorted(maps.Keys(g.adj[name]))
}

// Degree returns the number of edges incident to name.
func (g *Graph) Degree(name string) int { return len(g.adj[name]) }

// ParentsOf returns all x with x --> name, sorted.
func (g *Graph) ParentsOf(name string) []string {
	var out []string
	for nb, e := range g.adj[name] {
		if e.PointsTo(nb, name) {
			out = append(out, nb)
		}
	}
	slices.Sort(out)
	return out
}

// ChildrenOf returns all y with name --> y, sorted.
func (g *Graph) ChildrenOf(name string) []string {
	var out []string
	for nb, e := range g.adj[name] {
		if e.PointsTo(name, nb) {
			out = append(out, nb)
		}
	}
	slices.Sort(out)
	return out
}

// UndirectedNeighbors returns all y with name --- y, sorted.
func (g *Graph) UndirectedNeighbors(name string) []string {
	var out []string
	for nb, e := range g.adj[name] {
		if e.IsUndirected() {
			out = append(out, nb)
		}
	}
	slices.Sort(out)
	return out
}

// IsDefCollider reports whether b is a collider on the path a *-> b <-* c,
// i.e. both edges exist and carry arrowheads at b.
func (g *Graph) IsDefCollider(a, b, c string) bool {
	ep1, ok1 := g.Endpoint(a, b)
	ep2, ok2 := g.Endpoint(c, b)
	return ok1 && ok2 && ep1 == Arrow && ep2 == Arrow
}

// IsUnshieldedCollider reports whether a *-> b <-* c with a and c not
// adjacent.
func (g *Graph) IsUnshieldedCollider(a, b, c string) bool {
	return g.IsDefCollider(a, b, c) && !g.IsAdjacent(a, c)
}

// Copy returns a deep copy of the graph. Node pointers are shared (nodes
// are immutable); edges and triple marks are duplicated.
func (g *Graph) Copy() *Graph {
	out := New(g.Nodes()...)
	for k, e := range g.edges {
		dup := *e
		dup.Properties = slices.Clone(e.Properties)
		out.edges[k] = &dup
		out.adj[dup.A][dup.B] = &dup
		out.adj[dup.B][dup.A] = &dup
	}
	maps.Copy(out.ambiguous, g.ambiguous)
	maps.Copy(out.underline, g.underline)
	return out
}

// Equal reports whether two graphs have the same nodes and identically
// marked edges. Triple bookkeeping is not compared.
func (g *Graph) Equal(h *Graph) bool {
	if g.NodeCount() != h.NodeCount() || g.EdgeCount() != h.EdgeCount() {
		return false
	}
	for name := range g.nodes {
		if _, ok := h.nodes[name]; !ok {
			return false
		}
	}
	for k, e := range g.edges {
		o, ok := h.edges[k]
		if !ok {
			return false
		}
		if e.Mark(k.lo) != o.Mark(k.lo) || e.Mark(k.hi) != o.Mark(k.hi) {
			return false
		}
	}
	return true
}
