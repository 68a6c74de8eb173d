// Package data provides tabular datasets for causal search: named
// continuous variables backed by a gonum matrix, CSV loading, covariance
// computation, and descriptive column profiles.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/causalite/causalite/pkg/graph"
)

var (
	// ErrNoVariables is returned when a dataset has no columns.
	ErrNoVariables = errors.New("dataset has no variables")

	// ErrNoRows is returned when a dataset has a header but no data rows.
	ErrNoRows = errors.New("dataset has no rows")
)

// Dataset is an immutable table of continuous measurements: one column per
// variable, one row per sample. Construct with New or ReadCSV.
type Dataset struct {
	vars []*graph.Node
	m    *mat.Dense // rows x cols
}

// New creates a dataset from variable nodes and a backing matrix whose
// column count must match the variable count.
func New(vars []*graph.Node, m *mat.Dense) (*Dataset, error) {
	if len(vars) == 0 {
		return nil, ErrNoVariables
	}
	r, c := m.Dims()
	if c != len(vars) {
		return nil, fmt.Errorf("matrix has %d columns for %d variables", c, len(vars))
	}
	if r == 0 {
		return nil, ErrNoRows
	}
	return &Dataset{vars: vars, m: m}, nil
}

// ReadCSVFile reads a comma-separated file with a header row of variable
// names and numeric data rows.
func ReadCSVFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	d, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return d, nil
}

// ReadCSV reads CSV data with a header row of variable names.
// All columns are treated as continuous; non-numeric cells are an error.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoVariables
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return nil, ErrNoVariables
	}

	vars := make([]*graph.Node, len(header))
	for i, name := range header {
		vars[i] = graph.NewNode(name)
	}

	var values []float64
	rows := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", rows+2, err)
		}
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", rows+2, header[i], err)
			}
			values = append(values, v)
		}
		rows++
	}
	if rows == 0 {
		return nil, ErrNoRows
	}

	return New(vars, mat.NewDense(rows, len(header), values))
}

// Variables returns the dataset's variable nodes in column order.
func (d *Dataset) Variables() []*graph.Node { return d.vars }

// VariableNames returns the column names in order.
func (d *Dataset) VariableNames() []string { return graph.Names(d.vars) }

// SampleSize returns the number of rows.
func (d *Dataset) SampleSize() int {
	r, _ := d.m.Dims()
	return r
}

// ColumnCount returns the number of variables.
func (d *Dataset) ColumnCount() int { return len(d.vars) }

// Column returns a copy of the values in the given column.
func (d *Dataset) Column(i int) []float64 {
	r, _ := d.m.Dims()
	out := make([]float64, r)
	mat.Col(out, i, d.m)
	return out
}

// Covariance computes the sample covariance matrix of the dataset.
// The result shares the dataset's variable nodes.
func (d *Dataset) Covariance() *Covariance {
	_, c := d.m.Dims()
	s := mat.NewSymDense(c, nil)
	stat.CovarianceMatrix(s, d.m, nil)
	return &Covariance{vars: d.vars, n: d.SampleSize(), s: s}
}

// Covariance is a sample covariance matrix with its variable list and the
// sample size it was computed from. It is the read-only input shared by
// score oracles across parallel restarts.
type Covariance struct {
	vars []*graph.Node
	n    int
	s    *mat.SymDense
}

// NewCovariance wraps a precomputed covariance matrix.
func NewCovariance(vars []*graph.Node, n int, s *mat.SymDense) *Covariance {
	return &Covariance{vars: vars, n: n, s: s}
}

// Variables returns the variable nodes in matrix order.
func (c *Covariance) Variables() []*graph.Node { return c.vars }

// SampleSize returns the number of samples the matrix was computed from.
func (c *Covariance) SampleSize() int { return c.n }

// Value returns the covariance between variables i and j.
func (c *Covariance) Value(i, j int) float64 { return c.s.At(i, j) }

// Sub extracts the submatrix over the given variable indices.
func (c *Covariance) Sub(idx []int) *mat.SymDense {
	out := mat.NewSymDense(len(idx), nil)
	for i, vi := range idx {
		for j := i; j < len(idx); j++ {
			out.SetSym(i, j, c.s.At(vi, idx[j]))
		}
	}
	return out
}

// Vec extracts the covariance vector between target and each index in idx.
func (c *Covariance) Vec(target int, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, vi := range idx {
		out.SetVec(i, c.s.At(target, vi))
	}
	return out
}
