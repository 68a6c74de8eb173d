package score

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/graph"
)

// DefaultPenaltyDiscount is the BIC penalty multiplier applied when none is
// configured. Values above 1 favor sparser graphs.
const DefaultPenaltyDiscount = 2.0

// SemBIC scores linear-Gaussian structural models against a covariance
// matrix: higher is better fit, penalized by model size.
//
//	score(t | P) = -n·ln(σ²_{t|P}) - c·(|P|+1)·ln(n)
//
// where σ² is the residual variance of regressing t on P and c is the
// penalty discount. Singular parent submatrices score -Inf and are never
// selected.
//
// SemBIC memoizes local scores under a mutex and is safe to share across
// parallel restarts.
type SemBIC struct {
	cov     *data.Covariance
	penalty float64

	mu    sync.RWMutex
	cache map[string]float64
}

// NewSemBIC creates a SEM-BIC score over the covariance matrix with the
// given penalty discount. A non-positive penalty selects
// DefaultPenaltyDiscount.
func NewSemBIC(cov *data.Covariance, penalty float64) *SemBIC {
	if penalty <= 0 {
		penalty = DefaultPenaltyDiscount
	}
	return &SemBIC{
		cov:     cov,
		penalty: penalty,
		cache:   make(map[string]float64),
	}
}

// Variables returns the covariance matrix's variable nodes.
func (s *SemBIC) Variables() []*graph.Node { return s.cov.Variables() }

// LocalScore returns the penalized local likelihood of target given parents.
func (s *SemBIC) LocalScore(target int, parents []int) float64 {
	key := cacheKey(target, parents)

	s.mu.RLock()
	v, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return v
	}

	v = s.compute(target, parents)

	s.mu.Lock()
	s.cache[key] = v
	s.mu.Unlock()
	return v
}

// LocalScoreDiff returns the change in local score from adding extra to the
// parent set of target.
func (s *SemBIC) LocalScoreDiff(extra, target int, parents []int) float64 {
	with := make([]int, len(parents)+1)
	copy(with, parents)
	with[len(parents)] = extra
	return s.LocalScore(target, with) - s.LocalScore(target, parents)
}

func (s *SemBIC) compute(target int, parents []int) float64 {
	n := float64(s.cov.SampleSize())
	variance := s.cov.Value(target, target)

	sigma2 := variance
	if len(parents) > 0 {
		spp := s.cov.Sub(parents)
		b := s.cov.Vec(target, parents)

		var chol mat.Cholesky
		if !chol.Factorize(spp) {
			return math.Inf(-1)
		}
		var x mat.VecDense
		if err := chol.SolveVecTo(&x, b); err != nil {
			return math.Inf(-1)
		}
		sigma2 = variance - mat.Dot(b, &x)
	}
	if sigma2 <= 0 || math.IsNaN(sigma2) {
		return math.Inf(-1)
	}

	k := float64(len(parents) + 1)
	return -n*math.Log(sigma2) - s.penalty*k*math.Log(n)
}

// cacheKey builds a canonical key for (target, parent set). Parents are
// order-insensitive.
func cacheKey(target int, parents []int) string {
	sorted := slices.Clone(parents)
	slices.Sort(sorted)
	var b strings.Builder
	b.WriteString(strconv.Itoa(target))
	for _, p := range sorted {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(p))
	}
	return b.String()
}
