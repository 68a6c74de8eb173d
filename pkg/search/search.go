// Package search is the high-level entry point for causal discovery: it
// wires a dataset, a score, and background knowledge into the permutation
// search, materializes the resulting graph, and reports the run outcome.
package search

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/errors"
	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/observability"
	"github.com/causalite/causalite/pkg/score"
	"github.com/causalite/causalite/pkg/search/boss"
	"github.com/causalite/causalite/pkg/search/orient"
	"github.com/causalite/causalite/pkg/search/scorer"
)

// Algorithm selects the permutation-search move family.
type Algorithm string

const (
	// AlgorithmBOSS relocates single variables to their best position.
	AlgorithmBOSS Algorithm = "boss"
	// AlgorithmGRaSP additionally tucks ancestor blocks across the order.
	AlgorithmGRaSP Algorithm = "grasp"
)

// ParseAlgorithm converts a user-supplied name into an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	if err := errors.ValidateAlgorithm(name); err != nil {
		return "", err
	}
	return Algorithm(strings.ToLower(name)), nil
}

// Options configures a search run. The zero value runs BOSS with default
// penalty, a single start, and CPDAG output.
type Options struct {
	Algorithm       Algorithm            // defaults to AlgorithmBOSS
	Knowledge       *knowledge.Knowledge // may be nil
	PenaltyDiscount float64              // SEM-BIC penalty; <=0 uses the default
	MaxParents      int                  // per-variable parent bound; 0 unbounded, negative rejected
	NumStarts       int                  // random restarts; <=0 means 1
	Seed            int64                // restart shuffle seed
	MaxIterations   int                  // per-restart round cap; <=0 unbounded
	SkipBackward    bool                 // disable the BES alternation
	OutputDAG       bool                 // emit the raw DAG instead of its CPDAG
	Latent          bool                 // finalize as a PAG with the FCI rules
	Alpha           float64              // independence level for Latent; <=0 uses the default
	Depth           int                  // conditioning bound for Latent; 0 unbounded, negative rejected
	MaxPathLength   int                  // discriminating path bound for Latent
	Progress        func(boss.Event)     // optional progress sink
}

// Result is the outcome of one search run.
type Result struct {
	ID         string        // unique run identifier
	Algorithm  Algorithm     // move family used
	Status     boss.Status   // completed, capped, or cancelled
	Order      []string      // best causal order found
	Score      float64       // total score of the best order
	Graph      *graph.Graph  // materialized output graph
	Elapsed    time.Duration // wall-clock search time
	Iterations int           // rounds used by the winning restart
}

// Run executes a causal search over the dataset. Configuration errors are
// reported before any computation starts; cancellation and iteration caps
// surface as a status on a valid partial result, never as an error.
func Run(ctx context.Context, d *data.Dataset, opts Options) (*Result, error) {
	if opts.Algorithm == "" {
		opts.Algorithm = AlgorithmBOSS
	}
	if err := errors.ValidateAlgorithm(string(opts.Algorithm)); err != nil {
		return nil, err
	}
	if opts.MaxParents < 0 {
		return nil, errors.New(errors.ErrCodeInvalidDepth, "max parents bound %d is negative; use 0 for unbounded", opts.MaxParents)
	}
	if opts.Depth < 0 {
		return nil, errors.New(errors.ErrCodeInvalidDepth, "depth bound %d is negative; use 0 for unbounded", opts.Depth)
	}
	if opts.Knowledge != nil {
		if err := opts.Knowledge.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidKnowledge, err, "background knowledge rejected")
		}
	}

	result := &Result{ID: uuid.NewString(), Algorithm: opts.Algorithm}
	if d == nil || d.ColumnCount() == 0 {
		result.Graph = graph.New()
		result.Status = boss.StatusCompleted
		return result, nil
	}
	for _, name := range d.VariableNames() {
		if err := errors.ValidateVariableName(name); err != nil {
			return nil, err
		}
	}

	penalty := opts.PenaltyDiscount
	if penalty <= 0 {
		penalty = score.DefaultPenaltyDiscount
	}
	cov := d.Covariance()
	sc := score.NewSemBIC(cov, penalty)

	hooks := observability.Search()
	hooks.OnSearchStart(ctx, string(opts.Algorithm), d.ColumnCount())
	start := time.Now()

	progress := func(ev boss.Event) {
		hooks.OnImprovement(ctx, string(ev.Phase), ev.Score)
		if opts.Progress != nil {
			opts.Progress(ev)
		}
	}

	best, err := boss.Search(ctx, sc, boss.Options{
		Knowledge:     opts.Knowledge,
		MaxParents:    opts.MaxParents,
		NumStarts:     opts.NumStarts,
		Seed:          opts.Seed,
		UseTuck:       opts.Algorithm == AlgorithmGRaSP,
		SkipBackward:  opts.SkipBackward,
		MaxIterations: opts.MaxIterations,
		Progress:      progress,
	})
	result.Elapsed = time.Since(start)
	if err != nil {
		hooks.OnSearchComplete(ctx, string(opts.Algorithm), 0, result.Elapsed, err)
		return nil, errors.Wrap(errors.ErrCodeSearchFailed, err, "permutation search failed")
	}

	result.Status = best.Status
	result.Order = best.Order
	result.Score = best.Score
	result.Iterations = best.Iterations

	s := scorer.New(sc, opts.Knowledge, opts.MaxParents)
	if _, err := s.Score(best.Order); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "rescoring best order")
	}
	result.Graph = s.Graph(!opts.OutputDAG && !opts.Latent)

	if opts.Latent {
		alpha := opts.Alpha
		if alpha <= 0 {
			alpha = score.DefaultAlpha
		}
		orient.FinalizePAG(result.Graph, orient.PAGOptions{
			Test:          score.NewFisherZ(cov, alpha),
			Knowledge:     opts.Knowledge,
			Depth:         opts.Depth,
			MaxPathLength: opts.MaxPathLength,
		})
	}

	hooks.OnSearchComplete(ctx, string(opts.Algorithm), result.Score, result.Elapsed, nil)
	return result, nil
}
