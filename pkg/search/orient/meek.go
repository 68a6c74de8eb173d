// Package orient finalizes search output: it converts learned structure
// into a partially oriented causal graph by forcing background-knowledge
// orientations, propagating Meek's rules, and optionally applying the
// FCI-style latent-variable rules.
//
// All functions mutate the caller's graph in place under a single-writer
// discipline; none of them keeps state between calls, and running any of
// them twice in a row leaves the graph unchanged after the first call.
package orient

import (
	"slices"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
)

// Meek applies Meek's four orientation rules until none fires: implied
// orientations are propagated without creating new unshielded colliders or
// directed cycles. Knowledge-forbidden orientations are never introduced.
// Deterministic: nodes and neighbors are visited in sorted order.
func Meek(g *graph.Graph, kn *knowledge.Knowledge) {
	if kn == nil {
		kn = knowledge.New()
	}
	for {
		changed := false
		for _, b := range sortedNames(g) {
			for _, a := range g.AdjacentTo(b) {
				e, _ := g.EdgeBetween(a, b)
				if !e.IsUndirected() {
					continue
				}
				if meekR1(g, kn, a, b) || meekR2(g, kn, a, b) ||
					meekR3(g, kn, a, b) || meekR4(g, kn, a, b) {
					changed = true
				}
			}
		}
		if !changed {
			return
		}
	}
}

// direct orients a --> b if knowledge allows it and the edge is currently
// undirected. Reports whether the graph changed.
func direct(g *graph.Graph, kn *knowledge.Knowledge, a, b string) bool {
	if kn.IsForbidden(a, b) {
		return false
	}
	e, ok := g.EdgeBetween(a, b)
	if !ok || !e.IsUndirected() {
		return false
	}
	g.SetEdge(a, graph.Tail, b, graph.Arrow)
	return true
}

// meekR1: c --> a with c not adjacent to b forces a --> b (else a new
// unshielded collider c --> a <-- b would appear).
func meekR1(g *graph.Graph, kn *knowledge.Knowledge, a, b string) bool {
	for _, c := range g.ParentsOf(a) {
		if c == b || g.IsAdjacent(c, b) {
			continue
		}
		if g.IsAmbiguous(c, a, b) {
			continue
		}
		if direct(g, kn, a, b) {
			return true
		}
	}
	return false
}

// meekR2: a --> c --> b forces a --> b (else a cycle a - b, b --> ... is
// closed the wrong way).
func meekR2(g *graph.Graph, kn *knowledge.Knowledge, a, b string) bool {
	for _, c := range g.ChildrenOf(a) {
		if c == b {
			continue
		}
		if slices.Contains(g.ParentsOf(b), c) {
			if direct(g, kn, a, b) {
				return true
			}
		}
	}
	return false
}

// meekR3: a --- c, a --- d, c --> b, d --> b with c, d non-adjacent forces
// a --> b.
func meekR3(g *graph.Graph, kn *knowledge.Knowledge, a, b string) bool {
	parents := g.ParentsOf(b)
	for i, c := range parents {
		for _, d := range parents[i+1:] {
			if g.IsAdjacent(c, d) {
				continue
			}
			if !isUndirectedBetween(g, a, c) || !isUndirectedBetween(g, a, d) {
				continue
			}
			if direct(g, kn, a, b) {
				return true
			}
		}
	}
	return false
}

// meekR4: d --> c --> b, a --- d, a --- c (or a adjacent to d), with b, d
// non-adjacent forces a --> b.
func meekR4(g *graph.Graph, kn *knowledge.Knowledge, a, b string) bool {
	for _, c := range g.ParentsOf(b) {
		if !g.IsAdjacent(a, c) {
			continue
		}
		for _, d := range g.ParentsOf(c) {
			if d == b || d == a || g.IsAdjacent(d, b) {
				continue
			}
			if !isUndirectedBetween(g, a, d) {
				continue
			}
			if direct(g, kn, a, b) {
				return true
			}
		}
	}
	return false
}

func isUndirectedBetween(g *graph.Graph, a, b string) bool {
	e, ok := g.EdgeBetween(a, b)
	return ok && e.IsUndirected()
}

func sortedNames(g *graph.Graph) []string {
	names := g.NodeNames()
	slices.Sort(names)
	return names
}
