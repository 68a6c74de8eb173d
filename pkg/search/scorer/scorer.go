// Package scorer maintains the scored-permutation cache at the core of the
// permutation search: a total order over all variables plus, per variable,
// the best-scoring parent subset of its predecessors. Because parents are
// always drawn from predecessors, the implied graph is acyclic by
// construction.
//
// Local-search moves run through [Scorer.MoveTo], which recomputes only the
// variables whose predecessor set actually changed, and through the bookmark
// arena, which snapshots and restores full (order, cache) states by integer
// id so trial moves can be undone without rescoring.
//
// A Scorer is owned by a single search goroutine and is not safe for
// concurrent use; parallel restarts each construct their own.
package scorer

import (
	"errors"
	"fmt"
	"slices"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/score"
	"github.com/causalite/causalite/pkg/search/orient"
)

var (
	// ErrBadOrder is returned by [Scorer.Score] when the given order is not
	// a permutation of the score's variables.
	ErrBadOrder = errors.New("order is not a permutation of the variables")

	// ErrNoBookmark is returned by [Scorer.GoToBookmark] for an id that was
	// never bookmarked.
	ErrNoBookmark = errors.New("unknown bookmark id")
)

// row caches the chosen parents and local score for one variable under the
// current order. Parents are score indices, sorted ascending.
type row struct {
	parents []int
	score   float64
}

func (r row) clone() row {
	return row{parents: slices.Clone(r.parents), score: r.score}
}

// snapshot is one immutable entry in the bookmark arena.
type snapshot struct {
	order []int
	rows  []row
	total float64
}

// Scorer is the scored-permutation cache. Construct with New, initialize
// with Score, then mutate through MoveTo and the bookmark operations.
type Scorer struct {
	sc         score.Score
	kn         *knowledge.Knowledge
	maxParents int // <=0 means unbounded

	names []string       // score index -> variable name
	pos   map[string]int // variable name -> score index

	order []int // position -> score index
	place []int // score index -> position
	rows  []row // score index -> cached parent choice
	total float64

	bookmarks map[int]snapshot
}

// New creates a scorer over sc's variables. A nil knowledge means no
// constraints; maxParents <= 0 leaves parent sets unbounded.
func New(sc score.Score, kn *knowledge.Knowledge, maxParents int) *Scorer {
	if kn == nil {
		kn = knowledge.New()
	}
	names := graph.Names(sc.Variables())
	return &Scorer{
		sc:         sc,
		kn:         kn,
		maxParents: maxParents,
		names:      names,
		pos:        graph.PosMap(names),
		place:      make([]int, len(names)),
		rows:       make([]row, len(names)),
		bookmarks:  make(map[int]snapshot),
	}
}

// Score resets the scorer to the given order and rescores every variable
// from scratch. The order must contain each variable name exactly once.
// Returns the total score (0 for zero variables).
func (s *Scorer) Score(order []string) (float64, error) {
	if len(order) != len(s.names) {
		return 0, fmt.Errorf("%w: got %d names, want %d", ErrBadOrder, len(order), len(s.names))
	}
	perm := make([]int, len(order))
	seen := make([]bool, len(order))
	for i, name := range order {
		idx, ok := s.pos[name]
		if !ok {
			return 0, fmt.Errorf("%w: unknown variable %q", ErrBadOrder, name)
		}
		if seen[idx] {
			return 0, fmt.Errorf("%w: duplicate variable %q", ErrBadOrder, name)
		}
		seen[idx] = true
		perm[i] = idx
	}

	s.order = perm
	for pos, idx := range s.order {
		s.place[idx] = pos
	}
	s.rows = make([]row, len(s.names))
	s.total = 0
	for pos := range s.order {
		s.recompute(pos)
	}
	return s.total, nil
}

// MoveTo removes the named variable from its position and reinserts it at
// newIndex, rescoring only the window of positions between the old and new
// slots. Returns the updated total score. Panics on unknown names or
// out-of-range indices; callers validate moves before proposing them.
func (s *Scorer) MoveTo(name string, newIndex int) float64 {
	idx, ok := s.pos[name]
	if !ok {
		panic("scorer: unknown variable " + name)
	}
	if newIndex < 0 || newIndex >= len(s.order) {
		panic(fmt.Sprintf("scorer: index %d out of range [0,%d)", newIndex, len(s.order)))
	}
	oldIndex := s.place[idx]
	if oldIndex == newIndex {
		return s.total
	}

	if oldIndex < newIndex {
		copy(s.order[oldIndex:newIndex], s.order[oldIndex+1:newIndex+1])
	} else {
		copy(s.order[newIndex+1:oldIndex+1], s.order[newIndex:oldIndex])
	}
	s.order[newIndex] = idx

	lo, hi := min(oldIndex, newIndex), max(oldIndex, newIndex)
	for pos := lo; pos <= hi; pos++ {
		s.place[s.order[pos]] = pos
	}
	// Only variables inside the window gained or lost a predecessor.
	for pos := lo; pos <= hi; pos++ {
		s.recompute(pos)
	}
	return s.total
}

// Bookmark snapshots the current (order, cache) state under id, replacing
// any previous snapshot with the same id.
func (s *Scorer) Bookmark(id int) {
	rows := make([]row, len(s.rows))
	for i, r := range s.rows {
		rows[i] = r.clone()
	}
	s.bookmarks[id] = snapshot{
		order: slices.Clone(s.order),
		rows:  rows,
		total: s.total,
	}
}

// GoToBookmark restores the snapshot stored under id. The snapshot stays
// in the arena and can be restored again.
func (s *Scorer) GoToBookmark(id int) error {
	snap, ok := s.bookmarks[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoBookmark, id)
	}
	s.order = slices.Clone(snap.order)
	for pos, idx := range s.order {
		s.place[idx] = pos
	}
	for i, r := range snap.rows {
		s.rows[i] = r.clone()
	}
	s.total = snap.total
	return nil
}

// TotalScore returns the cached sum of local scores.
func (s *Scorer) TotalScore() float64 { return s.total }

// Size returns the number of variables.
func (s *Scorer) Size() int { return len(s.names) }

// Order returns the current permutation as variable names.
func (s *Scorer) Order() []string {
	out := make([]string, len(s.order))
	for pos, idx := range s.order {
		out[pos] = s.names[idx]
	}
	return out
}

// Position returns the current index of the named variable.
func (s *Scorer) Position(name string) int { return s.place[s.pos[name]] }

// Parents returns the cached parent choice for the named variable, sorted.
func (s *Scorer) Parents(name string) []string {
	r := s.rows[s.pos[name]]
	out := make([]string, len(r.parents))
	for i, p := range r.parents {
		out[i] = s.names[p]
	}
	slices.Sort(out)
	return out
}

// LocalScore returns the cached local score for the named variable.
func (s *Scorer) LocalScore(name string) float64 { return s.rows[s.pos[name]].score }

// Graph materializes the implied graph from the cached parent choices. With
// cpdag set, the DAG is collapsed to its Markov equivalence class under the
// scorer's background knowledge.
func (s *Scorer) Graph(cpdag bool) *graph.Graph {
	g := graph.New(s.sc.Variables()...)
	for idx, r := range s.rows {
		for _, p := range r.parents {
			g.AddDirected(s.names[p], s.names[idx])
		}
	}
	if cpdag {
		orient.DAGToCPDAG(g, s.kn)
	}
	return g
}

// recompute rescores the variable at the given position against its current
// predecessors and folds the delta into the total.
func (s *Scorer) recompute(pos int) {
	idx := s.order[pos]
	old := s.rows[idx]
	s.rows[idx] = s.chooseParents(idx, s.order[:pos])
	s.total += s.rows[idx].score - old.score
}

// chooseParents greedily selects the best-scoring parent subset of the
// predecessors for target, honoring knowledge and the parent bound.
//
// Required predecessor parents are seeded first. The forward pass adds the
// candidate with the strictly largest improvement until none improves; the
// backward pass removes any optional parent whose removal does not lower
// the score, preferring sparser sets on ties. Candidates are visited in
// ascending index order, making every tie-break deterministic.
func (s *Scorer) chooseParents(target int, predecessors []int) row {
	targetName := s.names[target]

	var parents []int
	var candidates []int
	for _, p := range predecessors {
		switch {
		case s.kn.IsRequired(s.names[p], targetName):
			parents = append(parents, p)
		case s.kn.IsForbidden(s.names[p], targetName):
			// Not a legal parent.
		default:
			candidates = append(candidates, p)
		}
	}
	slices.Sort(parents)
	slices.Sort(candidates)

	best := s.sc.LocalScore(target, parents)

	// Forward: grow while a candidate strictly improves the score.
	for s.maxParents <= 0 || len(parents) < s.maxParents {
		bestCand := -1
		bestScore := best
		for _, c := range candidates {
			if slices.Contains(parents, c) {
				continue
			}
			if sc := s.sc.LocalScore(target, withParent(parents, c)); sc > bestScore {
				bestCand, bestScore = c, sc
			}
		}
		if bestCand < 0 {
			break
		}
		parents = withParent(parents, bestCand)
		best = bestScore
	}

	// Backward: drop optional parents whose removal does not hurt.
	for {
		dropped := false
		for i := 0; i < len(parents); i++ {
			p := parents[i]
			if s.kn.IsRequired(s.names[p], targetName) {
				continue
			}
			trial := slices.Delete(slices.Clone(parents), i, i+1)
			if sc := s.sc.LocalScore(target, trial); sc >= best {
				parents, best = trial, sc
				dropped = true
				break
			}
		}
		if !dropped {
			break
		}
	}

	return row{parents: parents, score: best}
}

// withParent returns a new sorted slice with p inserted.
func withParent(parents []int, p int) []int {
	out := make([]int, 0, len(parents)+1)
	out = append(out, parents...)
	i, _ := slices.BinarySearch(out, p)
	return slices.Insert(out, i, p)
}
