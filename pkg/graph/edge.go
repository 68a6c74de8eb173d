package graph

import "fmt"

// Endpoint is the mark an edge carries at one of its two nodes. The pair of
// endpoints determines the edge's meaning: TAIL→ARROW is a directed edge,
// TAIL—TAIL undirected, CIRCLE marks unresolved orientation in PAGs, and
// ARROW↔ARROW a bidirected edge (latent confounding).
type Endpoint int

const (
	// Tail is a plain line end: the node may be a cause of the other end.
	Tail Endpoint = iota
	// Arrow is an arrowhead: the node is not a cause of the other end.
	Arrow
	// Circle is an unresolved mark used by latent-variable output graphs.
	Circle
)

// String returns a single-character representation ("-", ">", "o").
func (e Endpoint) String() string {
	switch e {
	case Tail:
		return "-"
	case Arrow:
		return ">"
	case Circle:
		return "o"
	default:
		return "?"
	}
}

// Property annotates an edge with provenance information carried through to
// output. Properties do not affect search semantics.
type Property string

const (
	// PropDirect marks an edge judged definitely direct (no intermediate).
	PropDirect Property = "dd"
	// PropNoConfounder marks an edge judged free of latent confounding.
	PropNoConfounder Property = "nl"
)

// Edge connects two nodes with an independently typed endpoint at each.
// The endpoint stored in EndA is the mark at node A, and likewise for B.
// Edges are owned by their Graph; callers should treat returned edges as
// read-only and mutate marks through Graph.SetEndpoint.
type Edge struct {
	A, B       string     // Node names, A and B always distinct
	EndA, EndB Endpoint   // Mark at A and at B respectively
	Properties []Property // Optional annotations (nil for most edges)
}

// String renders the edge in conventional notation, e.g. "X --> Y",
// "X o-> Y", "X --- Y", "X <-> Y".
func (e Edge) String() string {
	return fmt.Sprintf("%s %s-%s %s", e.A, leftMark(e.EndA), rightMark(e.EndB), e.B)
}

func leftMark(ep Endpoint) string {
	switch ep {
	case Arrow:
		return "<"
	case Circle:
		return "o"
	default:
		return "-"
	}
}

func rightMark(ep Endpoint) string {
	switch ep {
	case Arrow:
		return ">"
	case Circle:
		return "o"
	default:
		return "-"
	}
}

// PointsTo reports whether the edge is directed from tail at `from` to
// arrow at `to` (i.e. from --> to).
func (e Edge) PointsTo(from, to string) bool {
	if e.A == from && e.B == to {
		return e.EndA == Tail && e.EndB == Arrow
	}
	if e.B == from && e.A == to {
		return e.EndB == Tail && e.EndA == Arrow
	}
	return false
}

// IsDirected reports whether the edge has exactly one arrow and one tail.
func (e Edge) IsDirected() bool {
	return (e.EndA == Tail && e.EndB == Arrow) || (e.EndA == Arrow && e.EndB == Tail)
}

// IsUndirected reports whether both endpoints are tails.
func (e Edge) IsUndirected() bool {
	return e.EndA == Tail && e.EndB == Tail
}

// IsBidirected reports whether both endpoints are arrows.
func (e Edge) IsBidirected() bool {
	return e.EndA == Arrow && e.EndB == Arrow
}

// Mark returns the endpoint the edge carries at the given node.
// It panics if name is neither endpoint; callers obtain edges from a Graph
// where both endpoints are known.
func (e Edge) Mark(name string) Endpoint {
	switch name {
	case e.A:
		return e.EndA
	case e.B:
		return e.EndB
	}
	panic("graph: node " + name + " is not an endpoint of " + e.String())
}

// Other returns the node on the opposite side of the edge from name.
func (e Edge) Other(name string) string {
	if name == e.A {
		return e.B
	}
	return e.A
}
