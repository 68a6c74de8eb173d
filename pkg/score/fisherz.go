package score

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/graph"
)

// DefaultAlpha is the significance level used when none is configured.
const DefaultAlpha = 0.01

// FisherZ tests conditional independence of Gaussian variables via the
// Fisher z-transform of the partial correlation. Safe for concurrent use;
// it reads only the covariance matrix.
type FisherZ struct {
	cov   *data.Covariance
	alpha float64
}

// NewFisherZ creates a Fisher-Z test at the given alpha level. A
// non-positive alpha selects DefaultAlpha.
func NewFisherZ(cov *data.Covariance, alpha float64) *FisherZ {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	return &FisherZ{cov: cov, alpha: alpha}
}

// Variables returns the covariance matrix's variable nodes.
func (t *FisherZ) Variables() []*graph.Node { return t.cov.Variables() }

// Alpha returns the significance cutoff.
func (t *FisherZ) Alpha() float64 { return t.alpha }

// IsIndependent reports whether x ⫫ y | cond, with the p-value. Samples
// too small for the given conditioning set, and singular submatrices, are
// reported as dependent with p-value 0: the test cannot license removal.
func (t *FisherZ) IsIndependent(x, y int, cond []int) (bool, float64) {
	r, ok := t.partialCorrelation(x, y, cond)
	if !ok {
		return false, 0
	}

	df := float64(t.cov.SampleSize() - len(cond) - 3)
	if df < 1 {
		return false, 0
	}

	// Clamp away from ±1 so the transform stays finite.
	r = math.Max(-0.9999999, math.Min(0.9999999, r))
	z := 0.5 * math.Log((1+r)/(1-r))
	stat := math.Sqrt(df) * math.Abs(z)
	p := 2 * (1 - distuv.UnitNormal.CDF(stat))
	return p > t.alpha, p
}

// partialCorrelation computes corr(x, y | cond) from the precision matrix
// of the covariance submatrix over {x, y} ∪ cond.
func (t *FisherZ) partialCorrelation(x, y int, cond []int) (float64, bool) {
	idx := make([]int, 0, len(cond)+2)
	idx = append(idx, x, y)
	idx = append(idx, cond...)

	sub := t.cov.Sub(idx)
	var prec mat.Dense
	if err := prec.Inverse(sub); err != nil {
		return 0, false
	}

	d := prec.At(0, 0) * prec.At(1, 1)
	if d <= 0 {
		return 0, false
	}
	return -prec.At(0, 1) / math.Sqrt(d), true
}
