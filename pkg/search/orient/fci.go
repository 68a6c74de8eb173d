package orient

import (
	"slices"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/score"
)

// PAGOptions configures the latent-variable finalization.
type PAGOptions struct {
	Test          score.IndependenceTest // conditional-independence oracle
	Knowledge     *knowledge.Knowledge   // may be nil
	Depth         int                    // max conditioning set size; <=0 means unbounded
	MaxPathLength int                    // discriminating path bound; <=0 means unbounded
}

// FinalizePAG converts a search result into a partial ancestral graph:
// every edge is reset to circle marks, edges separable by conditioning sets
// drawn from adjacencies and possible-d-sep sets are removed, unshielded
// colliders are oriented from the recorded separating sets, and the
// FCI orientation rules (including the bounded discriminating-path rule)
// are closed over the result.
//
// Only unshielded colliders are retained; shielded collider evidence from
// the score-based phase is deliberately discarded.
func FinalizePAG(g *graph.Graph, opts PAGOptions) {
	kn := opts.Knowledge
	if kn == nil {
		kn = knowledge.New()
	}
	pos := graph.PosMap(graph.Names(opts.Test.Variables()))

	// Reset every adjacency to a fully unresolved edge.
	for _, e := range g.Edges() {
		g.AddNondirected(e.A, e.B)
	}

	sep := removeSeparable(g, opts, pos)
	orientUnshieldedColliders(g, kn, sep, opts, pos)
	applyPAGKnowledge(g, kn)
	closeFCIRules(g, kn, sep, opts.MaxPathLength)
}

// sepsets records, per non-adjacent pair, the conditioning set that
// separated it.
type sepsets map[[2]string][]string

func (s sepsets) key(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

func (s sepsets) set(a, b string, cond []string) { s[s.key(a, b)] = cond }

func (s sepsets) get(a, b string) ([]string, bool) {
	v, ok := s[s.key(a, b)]
	return v, ok
}

// removeSeparable deletes every edge whose endpoints can be separated by a
// subset of either endpoint's adjacency or possible-d-sep set, up to the
// depth bound. Each deletion records its separating set.
func removeSeparable(g *graph.Graph, opts PAGOptions, pos map[string]int) sepsets {
	sep := sepsets{}

	// Adjacency-based pass first (cheap), then possible-d-sep (thorough).
	for _, source := range []func(*graph.Graph, string, string) []string{
		func(g *graph.Graph, x, y string) []string {
			adj := g.AdjacentTo(x)
			return slices.DeleteFunc(adj, func(s string) bool { return s == y })
		},
		func(g *graph.Graph, x, y string) []string {
			pds := possibleDSep(g, x)
			return slices.DeleteFunc(pds, func(s string) bool { return s == y })
		},
	} {
		for _, e := range g.Edges() {
			x, y := e.A, e.B
			if cond, ok := findSepset(opts, pos, source(g, x, y), x, y); ok {
				g.RemoveEdge(x, y)
				sep.set(x, y, cond)
				continue
			}
			if cond, ok := findSepset(opts, pos, source(g, y, x), y, x); ok {
				g.RemoveEdge(x, y)
				sep.set(x, y, cond)
			}
		}
	}
	return sep
}

func findSepset(opts PAGOptions, pos map[string]int, candidates []string, x, y string) ([]string, bool) {
	maxDepth := opts.Depth
	if maxDepth <= 0 || maxDepth > len(candidates) {
		maxDepth = len(candidates)
	}
	xi, yi := pos[x], pos[y]
	for size := 0; size <= maxDepth; size++ {
		found := false
		var result []string
		forEachSubset(candidates, size, func(sub []string) bool {
			cond := make([]int, len(sub))
			for i, s := range sub {
				cond[i] = pos[s]
			}
			if indep, _ := opts.Test.IsIndependent(xi, yi, cond); indep {
				result = slices.Clone(sub)
				found = true
				return false
			}
			return true
		})
		if found {
			return result, true
		}
	}
	return nil, false
}

// forEachSubset visits all size-k subsets of items in lexicographic index
// order, stopping early when fn returns false.
func forEachSubset(items []string, k int, fn func([]string) bool) {
	if k > len(items) {
		return
	}
	idx := make([]int, k)
	sub := make([]string, k)
	var rec func(start, pos int) bool
	rec = func(start, pos int) bool {
		if pos == k {
			for i, j := range idx[:k] {
				sub[i] = items[j]
			}
			return fn(sub)
		}
		for i := start; i < len(items); i++ {
			idx[pos] = i
			if !rec(i+1, pos+1) {
				return false
			}
		}
		return true
	}
	rec(0, 0)
}

// possibleDSep returns nodes reachable from x along paths whose every
// interior node is either a collider on the path or part of a triangle
// with its path neighbors, sorted.
func possibleDSep(g *graph.Graph, x string) []string {
	type step struct{ prev, cur string }
	seen := map[step]bool{}
	found := map[string]bool{}
	var queue []step

	for _, nb := range g.AdjacentTo(x) {
		s := step{x, nb}
		seen[s] = true
		queue = append(queue, s)
		found[nb] = true
	}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, next := range g.AdjacentTo(s.cur) {
			if next == s.prev || next == x {
				continue
			}
			collider := g.IsDefCollider(s.prev, s.cur, next)
			triangle := g.IsAdjacent(s.prev, next)
			if !collider && !triangle {
				continue
			}
			ns := step{s.cur, next}
			if seen[ns] {
				continue
			}
			seen[ns] = true
			queue = append(queue, ns)
			found[next] = true
		}
	}

	out := make([]string, 0, len(found))
	for n := range found {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// orientUnshieldedColliders puts arrowheads at z for every unshielded
// triple <x, z, y> where z is absent from the separating set of (x, y).
// Triples whose separating set contains z are definite noncolliders and
// are underlined so no later rule places both arrowheads at z.
func orientUnshieldedColliders(g *graph.Graph, kn *knowledge.Knowledge, sep sepsets, opts PAGOptions, pos map[string]int) {
	for _, z := range sortedNames(g) {
		adj := g.AdjacentTo(z)
		for i, x := range adj {
			for _, y := range adj[i+1:] {
				if g.IsAdjacent(x, y) {
					continue
				}
				cond, ok := sepsetFor(g, opts, pos, sep, x, y)
				if !ok {
					continue
				}
				if slices.Contains(cond, z) {
					g.MarkUnderline(x, z, y)
					continue
				}
				if g.IsUnderline(x, z, y) {
					continue
				}
				if kn.IsRequired(z, x) || kn.IsRequired(z, y) {
					continue
				}
				g.SetEndpoint(x, z, graph.Arrow)
				g.SetEndpoint(y, z, graph.Arrow)
			}
		}
	}
}

// sepsetFor returns the separating set recorded for a non-adjacent pair.
// Pairs that were never adjacent in the input graph have no recorded entry,
// so one is computed from either endpoint's adjacency and memoized for the
// later orientation rules.
func sepsetFor(g *graph.Graph, opts PAGOptions, pos map[string]int, sep sepsets, x, y string) ([]string, bool) {
	if cond, ok := sep.get(x, y); ok {
		return cond, true
	}
	adjX := slices.DeleteFunc(g.AdjacentTo(x), func(s string) bool { return s == y })
	if cond, ok := findSepset(opts, pos, adjX, x, y); ok {
		sep.set(x, y, cond)
		return cond, true
	}
	adjY := slices.DeleteFunc(g.AdjacentTo(y), func(s string) bool { return s == x })
	if cond, ok := findSepset(opts, pos, adjY, y, x); ok {
		sep.set(x, y, cond)
		return cond, true
	}
	return nil, false
}

// applyPAGKnowledge forces knowledge marks onto circle endpoints.
func applyPAGKnowledge(g *graph.Graph, kn *knowledge.Knowledge) {
	if kn.IsEmpty() {
		return
	}
	for _, e := range g.Edges() {
		if kn.IsForbidden(e.A, e.B) && !kn.IsForbidden(e.B, e.A) {
			g.SetEndpoint(e.B, e.A, graph.Arrow)
		}
		if kn.IsForbidden(e.B, e.A) && !kn.IsForbidden(e.A, e.B) {
			g.SetEndpoint(e.A, e.B, graph.Arrow)
		}
		if kn.IsRequired(e.A, e.B) {
			g.SetEdge(e.A, graph.Tail, e.B, graph.Arrow)
		} else if kn.IsRequired(e.B, e.A) {
			g.SetEdge(e.B, graph.Tail, e.A, graph.Arrow)
		}
	}
}

// closeFCIRules iterates the FCI orientation rules to a fixed point:
// R1 (away from collider), R2 (away from cycle), and the bounded
// discriminating-path rule.
func closeFCIRules(g *graph.Graph, kn *knowledge.Knowledge, sep sepsets, maxPathLength int) {
	for {
		changed := false
		for _, b := range sortedNames(g) {
			adj := g.AdjacentTo(b)
			for i, a := range adj {
				for _, c := range adj[i+1:] {
					if fciR1(g, kn, a, b, c) || fciR1(g, kn, c, b, a) {
						changed = true
					}
					if fciR2(g, a, b, c) || fciR2(g, c, b, a) {
						changed = true
					}
				}
			}
		}
		if discriminatingPaths(g, kn, sep, maxPathLength) {
			changed = true
		}
		if !changed {
			return
		}
	}
}

// fciR1: a *-> b o-* c with a, c non-adjacent orients b --> c.
func fciR1(g *graph.Graph, kn *knowledge.Knowledge, a, b, c string) bool {
	if g.IsAdjacent(a, c) {
		return false
	}
	epAB, _ := g.Endpoint(a, b)
	epCB, _ := g.Endpoint(c, b)
	if epAB != graph.Arrow || epCB != graph.Circle {
		return false
	}
	if kn.IsForbidden(b, c) {
		return false
	}
	g.SetEdge(b, graph.Tail, c, graph.Arrow)
	return true
}

// fciR2: a --> b *-> c (or a *-> b --> c) with a *-o c orients the circle
// at c on the a–c edge into an arrow.
func fciR2(g *graph.Graph, a, b, c string) bool {
	epAC, ok := g.Endpoint(a, c)
	if !ok || epAC != graph.Circle {
		return false
	}
	epBA, _ := g.Endpoint(b, a) // mark at a on a–b edge
	epAB, _ := g.Endpoint(a, b) // mark at b on a–b edge
	epCB, _ := g.Endpoint(c, b) // mark at b on b–c edge
	epBC, _ := g.Endpoint(b, c) // mark at c on b–c edge

	chainOne := epBA == graph.Tail && epAB == graph.Arrow && epBC == graph.Arrow
	chainTwo := epAB == graph.Arrow && epCB == graph.Tail && epBC == graph.Arrow
	if !chainOne && !chainTwo {
		return false
	}
	g.SetEndpoint(a, c, graph.Arrow)
	return true
}

// discriminatingPaths applies the R4 rule: for each b o-* c with a
// candidate collider path behind it, either orient b --> c (b separates
// the path origin from c) or complete the colliders. The search walks
// backwards from b through parents of c and is bounded by maxPathLength.
func discriminatingPaths(g *graph.Graph, kn *knowledge.Knowledge, sep sepsets, maxPathLength int) bool {
	changed := false
	for _, b := range sortedNames(g) {
		for _, c := range g.AdjacentTo(b) {
			epCB, _ := g.Endpoint(c, b) // mark at b
			if epCB != graph.Circle {
				continue
			}
			for _, a := range g.AdjacentTo(b) {
				if a == c || !g.IsAdjacent(a, c) {
					continue
				}
				epAB, _ := g.Endpoint(a, b)
				if epAB != graph.Arrow {
					continue
				}
				// a must be a parent of c for the path to discriminate.
				e, _ := g.EdgeBetween(a, c)
				if !e.PointsTo(a, c) {
					continue
				}
				if ddpWalk(g, kn, sep, a, b, c, maxPathLength) {
					changed = true
				}
			}
		}
	}
	return changed
}

// ddpWalk searches backwards from a for a discriminating-path origin d not
// adjacent to c, with every interior node a collider and a parent of c.
func ddpWalk(g *graph.Graph, kn *knowledge.Knowledge, sep sepsets, a, b, c string, maxPathLength int) bool {
	type step struct {
		node string
		prev string
		len  int
	}
	seen := map[[2]string]bool{{a, b}: true}
	queue := []step{{node: a, prev: b, len: 2}}

	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if maxPathLength > 0 && s.len > maxPathLength {
			continue
		}
		for _, d := range g.AdjacentTo(s.node) {
			if d == s.prev || d == b || d == c {
				continue
			}
			epDN, _ := g.Endpoint(d, s.node) // mark at s.node
			if epDN != graph.Arrow {
				continue
			}
			if !g.IsAdjacent(d, c) {
				// Found the discriminating origin.
				applyDDP(g, kn, sep, d, b, c)
				return true
			}
			// d must itself be a collider and a parent of c to extend.
			e, ok := g.EdgeBetween(d, c)
			if !ok || !e.PointsTo(d, c) {
				continue
			}
			key := [2]string{d, s.node}
			if seen[key] {
				continue
			}
			seen[key] = true
			queue = append(queue, step{node: d, prev: s.node, len: s.len + 1})
		}
	}
	return false
}

func applyDDP(g *graph.Graph, kn *knowledge.Knowledge, sep sepsets, d, b, c string) {
	cond, ok := sep.get(d, c)
	if ok && slices.Contains(cond, b) {
		if !kn.IsForbidden(b, c) {
			g.SetEdge(b, graph.Tail, c, graph.Arrow)
			return
		}
	}
	g.SetEndpoint(c, b, graph.Arrow)
	g.SetEndpoint(b, c, graph.Arrow)
}
