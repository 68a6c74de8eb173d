// Package boss drives the permutation search: it relocates and tucks
// variables within a scored total order to locally maximize the total
// score, alternates with the backward equivalence search, and repeats the
// whole procedure across independent random restarts.
//
// Restarts share nothing but the final max-by-score reduction, so they run
// on separate goroutines, each with its own order scorer.
package boss

import (
	"context"
	"math/rand"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/score"
	"github.com/causalite/causalite/pkg/search/bes"
	"github.com/causalite/causalite/pkg/search/scorer"
)

// epsilon below which score differences count as ties.
const eps = 1e-10

// Status reports how a search run ended.
type Status int

const (
	// StatusCompleted means the search reached a local optimum.
	StatusCompleted Status = iota
	// StatusCapped means the iteration cap stopped the search first.
	StatusCapped
	// StatusCancelled means the context was cancelled mid-search.
	StatusCancelled
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCapped:
		return "capped"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Phase identifies which move family produced a progress event.
type Phase string

const (
	PhaseRelocate Phase = "relocate"
	PhaseTuck     Phase = "tuck"
	PhaseBackward Phase = "backward"
)

// Event is one progress report emitted during the search.
type Event struct {
	Restart   int
	Iteration int
	Phase     Phase
	Score     float64
}

// Options configures a permutation search.
type Options struct {
	Knowledge     *knowledge.Knowledge // may be nil
	MaxParents    int                  // per-variable parent bound; <=0 unbounded
	NumStarts     int                  // random restarts; <=0 means 1
	Seed          int64                // restart shuffle seed
	UseTuck       bool                 // enable tuck moves (the GRaSP variant)
	SkipBackward  bool                 // disable the BES alternation
	MaxIterations int                  // relocate/BES round cap per restart; <=0 unbounded
	Workers       int                  // parallel restarts; <=0 means NumStarts
	Progress      func(Event)          // optional sink; called from one goroutine at a time
}

// Result is the best order found across all restarts.
type Result struct {
	Order      []string
	Score      float64
	Status     Status
	Iterations int // rounds used by the winning restart
	Restart    int // index of the winning restart
}

// Search runs the permutation search and returns the best-scoring order.
// The first restart starts from the variables' natural order; later
// restarts shuffle it. Every starting order is stably sorted to satisfy
// knowledge precedence before scoring. Zero variables yield an empty
// completed result with score 0.
func Search(ctx context.Context, sc score.Score, opts Options) (Result, error) {
	kn := opts.Knowledge
	if kn == nil {
		kn = knowledge.New()
	}
	names := graph.Names(sc.Variables())
	if len(names) == 0 {
		return Result{Status: StatusCompleted}, nil
	}

	starts := opts.NumStarts
	if starts <= 0 {
		starts = 1
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = starts
	}

	var mu sync.Mutex
	emit := func(ev Event) {
		if opts.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		opts.Progress(ev)
	}

	results := make([]Result, starts)
	errs := make([]error, starts)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for restart := 0; restart < starts; restart++ {
		grp.Go(func() error {
			order := slices.Clone(names)
			if restart > 0 {
				rng := rand.New(rand.NewSource(opts.Seed + int64(restart)))
				rng.Shuffle(len(order), func(i, j int) {
					order[i], order[j] = order[j], order[i]
				})
			}
			order = kn.SortOrder(order)

			r := &runner{
				sc:      sc,
				kn:      kn,
				opts:    opts,
				restart: restart,
				emit:    emit,
			}
			results[restart], errs[restart] = r.run(gctx, order)
			return nil
		})
	}
	grp.Wait()

	var best Result
	haveBest := false
	var firstErr error
	for i, r := range results {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		if !haveBest || r.Score > best.Score+eps {
			best, haveBest = r, true
		}
	}
	if !haveBest {
		return Result{}, firstErr
	}
	return best, nil
}

// Bookmark slots: 0 holds the pre-move state inside a sweep, 1 the best
// state seen so far in the run.
const (
	bmTrial = 0
	bmBest  = 1
)

type runner struct {
	sc      score.Score
	kn      *knowledge.Knowledge
	opts    Options
	restart int
	emit    func(Event)
}

func (r *runner) run(ctx context.Context, order []string) (Result, error) {
	s := scorer.New(r.sc, r.kn, r.opts.MaxParents)
	total, err := s.Score(order)
	if err != nil {
		return Result{}, err
	}
	s.Bookmark(bmBest)

	res := Result{Restart: r.restart, Status: StatusCompleted}
	for {
		if ctx.Err() != nil {
			res.Status = StatusCancelled
			break
		}
		if r.opts.MaxIterations > 0 && res.Iterations >= r.opts.MaxIterations {
			res.Status = StatusCapped
			break
		}
		res.Iterations++

		improved := r.relocateSweep(ctx, s, &total)
		if r.opts.UseTuck && r.tuckSweep(ctx, s, &total) {
			improved = true
		}
		if !r.opts.SkipBackward && r.backwardPass(ctx, s, &total) {
			improved = true
		}
		if !improved {
			break
		}
	}

	if err := s.GoToBookmark(bmBest); err != nil {
		return Result{}, err
	}
	res.Order = s.Order()
	res.Score = s.TotalScore()
	return res, nil
}

// relocateSweep tries every insertion index for every variable, keeping
// the best legal strictly-improving placement per variable.
func (r *runner) relocateSweep(ctx context.Context, s *scorer.Scorer, total *float64) bool {
	improved := false
	for _, name := range s.Order() {
		if ctx.Err() != nil {
			return improved
		}
		s.Bookmark(bmTrial)
		origin := s.Position(name)
		bestScore, bestIndex := *total, origin

		for j := 0; j < s.Size(); j++ {
			if j == origin {
				continue
			}
			trial := s.MoveTo(name, j)
			if trial > bestScore+eps && !r.kn.IsViolatedBy(s.Order()) {
				bestScore, bestIndex = trial, j
			}
			s.GoToBookmark(bmTrial)
		}

		if bestIndex != origin {
			*total = s.MoveTo(name, bestIndex)
			s.Bookmark(bmBest)
			improved = true
			r.emit(Event{Restart: r.restart, Phase: PhaseRelocate, Score: *total})
		}
	}
	return improved
}

// tuckSweep tries, for each variable x and each earlier position j with an
// adjacent occupant, moving x and its in-between ancestors to j. Moves
// that keep the score are accepted so the search can walk across an
// equivalence class; only strict gains count as improvement.
func (r *runner) tuckSweep(ctx context.Context, s *scorer.Scorer, total *float64) bool {
	improved := false
	for _, x := range s.Order() {
		if ctx.Err() != nil {
			return improved
		}
		g := s.Graph(false)
		anc := g.Paths().AncestorsOf(x)
		i := s.Position(x)

		for j := 0; j < i; j++ {
			order := s.Order()
			if !g.IsAdjacent(x, order[j]) {
				continue
			}
			next := tuckedOrder(order, anc, i, j)
			if r.kn.IsViolatedBy(next) {
				continue
			}

			s.Bookmark(bmTrial)
			trial, err := s.Score(next)
			if err != nil || trial < *total-eps {
				s.GoToBookmark(bmTrial)
				continue
			}
			if trial > *total+eps {
				improved = true
				s.Bookmark(bmBest)
				r.emit(Event{Restart: r.restart, Phase: PhaseTuck, Score: trial})
			}
			*total = trial
			g = s.Graph(false)
			anc = g.Paths().AncestorsOf(x)
			i = s.Position(x)
		}
	}
	return improved
}

// tuckedOrder builds the order produced by tucking x (at position i) to
// position j: ancestors of x strictly between j and i move just before j
// in their current relative order, then x, then everything else.
func tuckedOrder(order []string, ancestors map[string]bool, i, j int) []string {
	out := make([]string, 0, len(order))
	out = append(out, order[:j]...)

	var movers, rest []string
	for _, name := range order[j:i] {
		if ancestors[name] {
			movers = append(movers, name)
		} else {
			rest = append(rest, name)
		}
	}
	out = append(out, movers...)
	out = append(out, order[i])
	out = append(out, rest...)
	return append(out, order[i+1:]...)
}

// backwardPass runs BES on the implied equivalence class, re-derives a
// causal order from the reduced graph, and keeps it when it scores at
// least as well.
func (r *runner) backwardPass(ctx context.Context, s *scorer.Scorer, total *float64) bool {
	g := s.Graph(true)
	deletions, err := bes.Run(ctx, g, r.sc, bes.Options{Knowledge: r.kn})
	if err != nil || deletions == 0 {
		return false
	}

	order, err := g.Paths().CausalOrder(s.Order())
	if err != nil {
		return false
	}

	s.Bookmark(bmTrial)
	trial, err := s.Score(order)
	if err != nil || trial < *total-eps {
		s.GoToBookmark(bmTrial)
		return false
	}

	improved := trial > *total+eps
	*total = trial
	s.Bookmark(bmBest)
	if improved {
		r.emit(Event{Restart: r.restart, Phase: PhaseBackward, Score: trial})
	}
	return improved
}
