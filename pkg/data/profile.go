package data

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Profile summarizes one column of a dataset.
type Profile struct {
	Name     string
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
	Median   float64
	Skewness float64
}

// Profiles computes descriptive statistics for every column. Used by the
// CLI to sanity-check a dataset before searching; statistics that cannot be
// computed (constant columns, single rows) are left at zero.
func (d *Dataset) Profiles() []Profile {
	out := make([]Profile, d.ColumnCount())
	for i := range out {
		col := stats.Float64Data(d.Column(i))
		p := Profile{Name: d.vars[i].Name}
		p.Mean, _ = col.Mean()
		p.StdDev, _ = col.StandardDeviationSample()
		p.Min, _ = col.Min()
		p.Max, _ = col.Max()
		p.Median, _ = col.Median()
		if p.StdDev > 0 {
			p.Skewness = stat.Skew(d.Column(i), nil)
		}
		out[i] = p
	}
	return out
}
