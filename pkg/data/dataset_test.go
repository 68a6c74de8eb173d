package data

import (
	"errors"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/causalite/causalite/pkg/graph"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantVars []string
		wantRows int
		wantErr  error
	}{
		{
			name:     "Simple",
			input:    "a,b\n1,2\n3,4\n",
			wantVars: []string{"a", "b"},
			wantRows: 2,
		},
		{
			name:    "Empty",
			input:   "",
			wantErr: ErrNoVariables,
		},
		{
			name:    "HeaderOnly",
			input:   "a,b\n",
			wantErr: ErrNoRows,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ReadCSV(strings.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadCSV() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if got := d.VariableNames(); len(got) != len(tt.wantVars) {
				t.Errorf("variables = %v, want %v", got, tt.wantVars)
			}
			if d.SampleSize() != tt.wantRows {
				t.Errorf("SampleSize() = %d, want %d", d.SampleSize(), tt.wantRows)
			}
		})
	}
}

func TestReadCSVRejectsNonNumeric(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("a,b\n1,x\n"))
	if err == nil {
		t.Fatal("ReadCSV() accepted non-numeric cell")
	}
}

func TestCovariance(t *testing.T) {
	// Two perfectly correlated columns.
	vars := []*graph.Node{graph.NewNode("x"), graph.NewNode("y")}
	m := mat.NewDense(4, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		4, 8,
	})
	d, err := New(vars, m)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	cov := d.Covariance()
	if cov.SampleSize() != 4 {
		t.Errorf("SampleSize() = %d, want 4", cov.SampleSize())
	}
	// var(x) = 5/3 sample variance, cov(x,y) = 2*var(x)
	if got, want := cov.Value(0, 1), 2*cov.Value(0, 0); math.Abs(got-want) > 1e-12 {
		t.Errorf("cov(x, y) = %v, want %v", got, want)
	}
	sub := cov.Sub([]int{1})
	if got := sub.At(0, 0); math.Abs(got-cov.Value(1, 1)) > 1e-12 {
		t.Errorf("Sub([1]) = %v, want %v", got, cov.Value(1, 1))
	}
}

func TestProfiles(t *testing.T) {
	d, err := ReadCSV(strings.NewReader("a\n1\n2\n3\n4\n5\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	p := d.Profiles()
	if len(p) != 1 {
		t.Fatalf("len(Profiles()) = %d, want 1", len(p))
	}
	if p[0].Mean != 3 || p[0].Median != 3 || p[0].Min != 1 || p[0].Max != 5 {
		t.Errorf("profile = %+v, want mean/median 3, min 1, max 5", p[0])
	}
	if p[0].Skewness != 0 {
		t.Errorf("Skewness of a symmetric column = %v, want 0", p[0].Skewness)
	}

	skewed, err := ReadCSV(strings.NewReader("a\n1\n1\n1\n1\n10\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if s := skewed.Profiles()[0].Skewness; s <= 0 {
		t.Errorf("Skewness of a right-tailed column = %v, want > 0", s)
	}

	constant, err := ReadCSV(strings.NewReader("a\n2\n2\n2\n"))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if s := constant.Profiles()[0].Skewness; s != 0 {
		t.Errorf("Skewness of a constant column = %v, want 0", s)
	}
}
