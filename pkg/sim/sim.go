// Package sim generates synthetic causal models and linear-Gaussian data
// from them. It backs the `simulate` CLI command and the end-to-end search
// tests, which need datasets with a known true structure.
package sim

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/graph"
)

// Options controls model generation and simulation.
type Options struct {
	Seed      int64   // RNG seed; equal seeds give identical output
	AvgDegree float64 // Expected edges per node in the random DAG
	CoefLow   float64 // Minimum absolute edge coefficient
	CoefHigh  float64 // Maximum absolute edge coefficient
	NoiseStd  float64 // Standard deviation of the exogenous noise
}

// SetDefaults fills unset fields with usable values.
func (o *Options) SetDefaults() {
	if o.AvgDegree <= 0 {
		o.AvgDegree = 2
	}
	if o.CoefLow <= 0 {
		o.CoefLow = 0.5
	}
	if o.CoefHigh <= o.CoefLow {
		o.CoefHigh = 1.5
	}
	if o.NoiseStd <= 0 {
		o.NoiseStd = 1
	}
}

// RandomDAG generates a random DAG over the named variables. Edges always
// point from earlier to later names in the given order, so the input order
// is a valid causal order of the result.
func RandomDAG(names []string, opts Options) *graph.Graph {
	opts.SetDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	nodes := make([]*graph.Node, len(names))
	for i, n := range names {
		nodes[i] = graph.NewNode(n)
	}
	g := graph.New(nodes...)

	if len(names) < 2 {
		return g
	}
	p := opts.AvgDegree / float64(len(names)-1)
	for i := range names {
		for j := i + 1; j < len(names); j++ {
			if rng.Float64() < p {
				g.AddDirected(names[i], names[j])
			}
		}
	}
	return g
}

// Simulate draws n samples from a linear-Gaussian structural model over the
// DAG: each variable is a random-coefficient linear combination of its
// parents plus Gaussian noise. Coefficient magnitudes are uniform in
// [CoefLow, CoefHigh] with random sign.
//
// Returns an error if the graph's directed part is cyclic.
func Simulate(g *graph.Graph, n int, opts Options) (*data.Dataset, error) {
	opts.SetDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	names := g.NodeNames()
	order, err := g.Paths().CausalOrder(names)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	pos := graph.PosMap(names)

	// Fixed coefficients per edge, drawn once.
	type edgeKey struct{ from, to string }
	coef := make(map[edgeKey]float64)
	for _, e := range g.Edges() {
		if !e.IsDirected() {
			return nil, fmt.Errorf("simulate: edge %v is not directed", e)
		}
		from, to := e.A, e.B
		if e.PointsTo(e.B, e.A) {
			from, to = e.B, e.A
		}
		c := opts.CoefLow + rng.Float64()*(opts.CoefHigh-opts.CoefLow)
		if rng.Intn(2) == 0 {
			c = -c
		}
		coef[edgeKey{from, to}] = c
	}

	m := mat.NewDense(n, len(names), nil)
	for row := 0; row < n; row++ {
		for _, name := range order {
			v := rng.NormFloat64() * opts.NoiseStd
			for _, par := range g.ParentsOf(name) {
				v += coef[edgeKey{par, name}] * m.At(row, pos[par])
			}
			m.Set(row, pos[name], v)
		}
	}

	return data.New(g.Nodes(), m)
}
