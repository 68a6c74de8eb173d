package cli

import (
	"path/filepath"
	"testing"

	"github.com/causalite/causalite/pkg/data"
	"github.com/causalite/causalite/pkg/sim"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	opts := sim.Options{Seed: 11, AvgDegree: 2}
	g := sim.RandomDAG([]string{"x1", "x2", "x3", "x4"}, opts)
	d, err := sim.Simulate(g, 50, opts)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "data.csv")
	if err := writeCSV(d, path); err != nil {
		t.Fatalf("writeCSV() error = %v", err)
	}

	back, err := data.ReadCSVFile(path)
	if err != nil {
		t.Fatalf("ReadCSVFile() error = %v", err)
	}
	if back.ColumnCount() != 4 || back.SampleSize() != 50 {
		t.Errorf("round trip = %d columns, %d rows; want 4, 50", back.ColumnCount(), back.SampleSize())
	}

	names := back.VariableNames()
	for i, want := range []string{"x1", "x2", "x3", "x4"} {
		if names[i] != want {
			t.Errorf("column %d = %q, want %q", i, names[i], want)
		}
	}

	// Values survive the float round trip exactly (FormatFloat 'g', -1).
	orig := d.Column(2)
	got := back.Column(2)
	for i := range orig {
		if orig[i] != got[i] {
			t.Fatalf("row %d column x3: %v != %v", i, got[i], orig[i])
		}
	}
}
