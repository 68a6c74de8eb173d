// Package bes implements the backward equivalence search phase: starting
// from the equivalence class of a learned DAG, it greedily deletes edges
// whose removal does not lower the total score, re-orienting the class
// after every deletion.
//
// Candidate deletions are evaluated in parallel per adjacent pair; each
// evaluation returns an immutable arrow record that a single consumer
// merges into a priority queue ordered by (bump desc, insertion index
// asc). The graph itself is only ever mutated by that consumer.
package bes

import (
	"container/heap"
	"context"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/score"
	"github.com/causalite/causalite/pkg/search/orient"
)

// Options configures a backward search pass.
type Options struct {
	Knowledge *knowledge.Knowledge // may be nil
	Workers   int                  // parallel pair evaluators; <=0 means GOMAXPROCS
}

// arrow is one candidate deletion: remove the x–y edge and orient the
// chosen neighbor subset h away from y. naYX records the neighborhood the
// bump was computed against; if it has changed by the time the arrow is
// popped, the arrow is stale and discarded.
type arrow struct {
	x, y  string
	naYX  []string
	h     []string
	bump  float64
	index int
}

// arrowQueue is a max-heap by bump, breaking ties toward lower insertion
// index so equal-bump deletions apply in a reproducible order.
type arrowQueue []*arrow

func (q arrowQueue) Len() int { return len(q) }
func (q arrowQueue) Less(i, j int) bool {
	if q[i].bump != q[j].bump {
		return q[i].bump > q[j].bump
	}
	return q[i].index < q[j].index
}
func (q arrowQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *arrowQueue) Push(x any) { *q = append(*q, x.(*arrow)) }
func (q *arrowQueue) Pop() any {
	old := *q
	n := len(old)
	a := old[n-1]
	*q = old[:n-1]
	return a
}

// Run converts g to its equivalence class and applies score-improving
// deletions until none remains, leaving g as the reduced CPDAG. Every
// applied deletion has a non-negative bump, so the total score never
// decreases. Returns the number of deletions applied; a cancelled context
// stops the loop early with ctx.Err() and a valid intermediate graph.
func Run(ctx context.Context, g *graph.Graph, sc score.Score, opts Options) (int, error) {
	kn := opts.Knowledge
	if kn == nil {
		kn = knowledge.New()
	}
	pos := graph.PosMap(graph.Names(sc.Variables()))

	if !g.Paths().HasDirectedCycle() && isAllDirected(g) {
		orient.DAGToCPDAG(g, kn)
	} else {
		reorient(g, kn)
	}

	queue := &arrowQueue{}
	nextIndex := 0
	evaluatePairs(ctx, g, sc, kn, pos, opts.Workers, g.Edges(), queue, &nextIndex)

	deletions := 0
	for queue.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return deletions, err
		}
		a := heap.Pop(queue).(*arrow)
		if a.bump < 0 {
			break
		}
		if !stillValid(g, kn, a) {
			continue
		}

		applyDelete(g, a)
		reorient(g, kn)
		deletions++

		// Re-evaluate every pair whose neighborhood the deletion touched.
		touched := map[string]bool{a.x: true, a.y: true}
		for _, h := range a.h {
			touched[h] = true
		}
		var stale []*graph.Edge
		for _, e := range g.Edges() {
			if touched[e.A] || touched[e.B] {
				stale = append(stale, e)
			}
		}
		evaluatePairs(ctx, g, sc, kn, pos, opts.Workers, stale, queue, &nextIndex)
	}
	return deletions, nil
}

func isAllDirected(g *graph.Graph) bool {
	for _, e := range g.Edges() {
		if !e.IsDirected() {
			return false
		}
	}
	return true
}

// reorient restores the equivalence-class orientation after a mutation.
func reorient(g *graph.Graph, kn *knowledge.Knowledge) {
	orient.ApplyBackgroundKnowledge(g, kn)
	orient.Meek(g, kn)
}

// evaluatePairs scores candidate deletions for both readings of each edge
// concurrently and pushes the winning arrows into the queue. Arrows are
// indexed in sorted pair order so reruns enqueue identically.
func evaluatePairs(ctx context.Context, g *graph.Graph, sc score.Score, kn *knowledge.Knowledge,
	pos map[string]int, workers int, edges []*graph.Edge, queue *arrowQueue, nextIndex *int) {

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type pairResult struct {
		key    string
		arrows []*arrow
	}
	results := make([]pairResult, len(edges)*2)

	grp, _ := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for i, e := range edges {
		for j, dir := range [2][2]string{{e.A, e.B}, {e.B, e.A}} {
			slot := i*2 + j
			x, y := dir[0], dir[1]
			grp.Go(func() error {
				results[slot] = pairResult{
					key:    x + "\x00" + y,
					arrows: candidateArrows(g, sc, kn, pos, x, y),
				}
				return nil
			})
		}
	}
	grp.Wait()

	slices.SortFunc(results, func(a, b pairResult) int {
		return strings.Compare(a.key, b.key)
	})
	for _, r := range results {
		for _, a := range r.arrows {
			a.index = *nextIndex
			*nextIndex++
			heap.Push(queue, a)
		}
	}
}

// candidateArrows evaluates deleting the x–y edge read as x toward y: for
// each subset h of the shared neighborhood whose complement is a clique,
// the bump is the score change from removing x as a parent of y. Only the
// best non-negative candidate per pair survives.
func candidateArrows(g *graph.Graph, sc score.Score, kn *knowledge.Knowledge,
	pos map[string]int, x, y string) []*arrow {

	if !g.IsAdjacent(x, y) {
		return nil
	}
	if kn.IsRequired(x, y) || kn.IsRequired(y, x) {
		return nil
	}
	na := naYX(g, x, y)

	var best *arrow
	forEachSubset(na, func(h []string) {
		keep := diff(na, h)
		if !isClique(g, keep) {
			return
		}
		bump := deleteBump(g, sc, pos, x, y, keep)
		if bump < 0 {
			return
		}
		if best == nil || bump > best.bump {
			best = &arrow{x: x, y: y, naYX: slices.Clone(na), h: slices.Clone(h), bump: bump}
		}
	})
	if best == nil {
		return nil
	}
	return []*arrow{best}
}

// deleteBump computes score(y | keep ∪ pa(y) \ {x}) − score(y | same ∪ {x}).
func deleteBump(g *graph.Graph, sc score.Score, pos map[string]int, x, y string, keep []string) float64 {
	base := map[string]bool{}
	for _, k := range keep {
		base[k] = true
	}
	for _, p := range g.ParentsOf(y) {
		base[p] = true
	}
	delete(base, x)

	idx := make([]int, 0, len(base))
	for name := range base {
		idx = append(idx, pos[name])
	}
	slices.Sort(idx)
	return -sc.LocalScoreDiff(pos[x], pos[y], idx)
}

// stillValid re-checks an arrow against the current graph before applying.
func stillValid(g *graph.Graph, kn *knowledge.Knowledge, a *arrow) bool {
	if !g.IsAdjacent(a.x, a.y) {
		return false
	}
	if kn.IsRequired(a.x, a.y) || kn.IsRequired(a.y, a.x) {
		return false
	}
	if !slices.Equal(naYX(g, a.x, a.y), a.naYX) {
		return false
	}
	return isClique(g, diff(a.naYX, a.h))
}

// applyDelete removes the x–y edge and orients each chosen neighbor in h
// away from both former endpoints where those links are still undirected.
func applyDelete(g *graph.Graph, a *arrow) {
	g.RemoveEdge(a.x, a.y)
	for _, h := range a.h {
		if e, ok := g.EdgeBetween(a.y, h); ok && e.IsUndirected() {
			g.SetEdge(a.y, graph.Tail, h, graph.Arrow)
		}
		if e, ok := g.EdgeBetween(a.x, h); ok && e.IsUndirected() {
			g.SetEdge(a.x, graph.Tail, h, graph.Arrow)
		}
	}
}

// naYX returns the undirected neighbors of y that are adjacent to x,
// sorted.
func naYX(g *graph.Graph, x, y string) []string {
	var out []string
	for _, nb := range g.UndirectedNeighbors(y) {
		if nb != x && g.IsAdjacent(nb, x) {
			out = append(out, nb)
		}
	}
	return out
}

// isClique reports whether every pair in the set is adjacent.
func isClique(g *graph.Graph, set []string) bool {
	for i, a := range set {
		for _, b := range set[i+1:] {
			if !g.IsAdjacent(a, b) {
				return false
			}
		}
	}
	return true
}

func diff(set, minus []string) []string {
	var out []string
	for _, s := range set {
		if !slices.Contains(minus, s) {
			out = append(out, s)
		}
	}
	return out
}

// forEachSubset visits every subset of items, empty set first.
func forEachSubset(items []string, fn func([]string)) {
	n := len(items)
	for mask := 0; mask < 1<<n; mask++ {
		var sub []string
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				sub = append(sub, items[i])
			}
		}
		fn(sub)
	}
}
