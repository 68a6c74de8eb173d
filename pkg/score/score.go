// Package score defines the pluggable numeric oracles the search consumes:
// a local fit score over (target, parent set) pairs and an independence
// test over (x, y | conditioning set) triples. One representative
// implementation of each ships here: the linear-Gaussian SEM-BIC score and
// the Fisher-Z partial-correlation test.
//
// Implementations must be deterministic for fixed inputs; the search's
// termination guarantees depend on it. Implementations shared across
// parallel restarts must be safe for concurrent readers.
package score

import (
	"errors"
	"math"

	"github.com/causalite/causalite/pkg/graph"
)

// ErrUnscorable is returned by score internals when a parent set cannot be
// evaluated (singular submodel). Callers translate it to math.Inf(-1) so
// the subset is simply never selected; it must not abort a search.
var ErrUnscorable = errors.New("parent set is not scoreable")

// Score is the local scoring oracle. Variable identity is by integer index
// into Variables(); parent slices are never mutated by implementations.
type Score interface {
	// LocalScore returns the local fit of target given the parent set.
	// Unscoreable states return math.Inf(-1), never an error or NaN.
	LocalScore(target int, parents []int) float64

	// LocalScoreDiff returns the score change from adding extra to the
	// parent set of target: score(target, parents+extra) - score(target, parents).
	LocalScoreDiff(extra, target int, parents []int) float64

	// Variables returns the variable nodes, index-aligned with the scores.
	Variables() []*graph.Node
}

// IndependenceTest is the conditional-independence oracle used by
// constraint-based finalization (possible-d-sep pruning).
type IndependenceTest interface {
	// IsIndependent reports whether x ⫫ y | cond at the test's alpha
	// level, along with the p-value.
	IsIndependent(x, y int, cond []int) (bool, float64)

	// Variables returns the variable nodes, index-aligned with the test.
	Variables() []*graph.Node

	// Alpha returns the significance cutoff.
	Alpha() float64
}

// TotalScore sums local scores of a DAG under the given score, using each
// node's parents in the graph. Variables absent from the score are an
// error in the caller's setup and score as -Inf.
func TotalScore(s Score, g *graph.Graph) float64 {
	pos := graph.PosMap(graph.Names(s.Variables()))
	total := 0.0
	for _, node := range g.Nodes() {
		t, ok := pos[node.Name]
		if !ok {
			return math.Inf(-1)
		}
		parents := g.ParentsOf(node.Name)
		idx := make([]int, 0, len(parents))
		for _, p := range parents {
			pi, ok := pos[p]
			if !ok {
				return math.Inf(-1)
			}
			idx = append(idx, pi)
		}
		total += s.LocalScore(t, idx)
	}
	return total
}
