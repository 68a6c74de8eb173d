package scorer

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/knowledge"
	"github.com/causalite/causalite/pkg/score"
	"github.com/causalite/causalite/pkg/sim"
)

// chainScore builds a SEM-BIC score over 1000 samples from a --> b --> c.
func chainScore(t *testing.T) score.Score {
	t.Helper()
	g := graph.New(graph.NewNode("a"), graph.NewNode("b"), graph.NewNode("c"))
	g.AddDirected("a", "b")
	g.AddDirected("b", "c")
	d, err := sim.Simulate(g, 1000, sim.Options{Seed: 7})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	return score.NewSemBIC(d.Covariance(), 2)
}

func TestScoreRejectsBadOrders(t *testing.T) {
	s := New(chainScore(t), nil, 0)

	tests := []struct {
		name  string
		order []string
	}{
		{name: "TooShort", order: []string{"a", "b"}},
		{name: "UnknownName", order: []string{"a", "b", "x"}},
		{name: "Duplicate", order: []string{"a", "b", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Score(tt.order); !errors.Is(err, ErrBadOrder) {
				t.Errorf("Score(%v) error = %v, want ErrBadOrder", tt.order, err)
			}
		})
	}
}

func TestScoreRecoversChainParents(t *testing.T) {
	s := New(chainScore(t), nil, 0)
	if _, err := s.Score([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if got := s.Parents("a"); len(got) != 0 {
		t.Errorf("Parents(a) = %v, want none", got)
	}
	if got := s.Parents("b"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Parents(b) = %v, want [a]", got)
	}
	if got := s.Parents("c"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Parents(c) = %v, want [b]", got)
	}
}

func TestMoveToMatchesFullRescore(t *testing.T) {
	s := New(chainScore(t), nil, 0)
	if _, err := s.Score([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	moved := s.MoveTo("c", 0)

	fresh := New(chainScore(t), nil, 0)
	want, err := fresh.Score([]string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(moved-want) > 1e-9 {
		t.Errorf("MoveTo total = %v, full rescore = %v", moved, want)
	}
	if got := s.Order(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("Order() = %v, want [c a b]", got)
	}
}

func TestBookmarkRoundTrip(t *testing.T) {
	s := New(chainScore(t), nil, 0)
	if _, err := s.Score([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	order := s.Order()
	total := s.TotalScore()
	locals := map[string]float64{}
	parents := map[string][]string{}
	for _, name := range order {
		locals[name] = s.LocalScore(name)
		parents[name] = s.Parents(name)
	}

	s.Bookmark(1)
	s.MoveTo("c", 0)
	s.MoveTo("a", 2)
	if err := s.GoToBookmark(1); err != nil {
		t.Fatalf("GoToBookmark() error = %v", err)
	}

	if got := s.Order(); !slices.Equal(got, order) {
		t.Errorf("restored order = %v, want %v", got, order)
	}
	if got := s.TotalScore(); got != total {
		t.Errorf("restored total = %v, want %v bit-for-bit", got, total)
	}
	for _, name := range order {
		if got := s.LocalScore(name); got != locals[name] {
			t.Errorf("restored LocalScore(%s) = %v, want %v bit-for-bit", name, got, locals[name])
		}
		if got := s.Parents(name); !slices.Equal(got, parents[name]) {
			t.Errorf("restored Parents(%s) = %v, want %v", name, got, parents[name])
		}
	}
}

func TestBookmarkSlotsAreIndependent(t *testing.T) {
	s := New(chainScore(t), nil, 0)
	if _, err := s.Score([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	s.Bookmark(1)
	s.MoveTo("c", 0)
	s.Bookmark(2)

	if err := s.GoToBookmark(1); err != nil {
		t.Fatalf("GoToBookmark(1) error = %v", err)
	}
	if got := s.Order(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("slot 1 order = %v, want [a b c]", got)
	}
	if err := s.GoToBookmark(2); err != nil {
		t.Fatalf("GoToBookmark(2) error = %v", err)
	}
	if got := s.Order(); !slices.Equal(got, []string{"c", "a", "b"}) {
		t.Errorf("slot 2 order = %v, want [c a b]", got)
	}

	if err := s.GoToBookmark(9); !errors.Is(err, ErrNoBookmark) {
		t.Errorf("GoToBookmark(9) error = %v, want ErrNoBookmark", err)
	}
}

func TestGraphIsAcyclicAfterMoves(t *testing.T) {
	s := New(chainScore(t), nil, 0)
	if _, err := s.Score([]string{"c", "b", "a"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	s.MoveTo("a", 0)
	s.MoveTo("c", 2)

	g := s.Graph(false)
	if g.Paths().HasDirectedCycle() {
		t.Error("implied graph has a directed cycle")
	}
	order := s.Order()
	pos := graph.PosMap(order)
	for _, name := range order {
		for _, p := range s.Parents(name) {
			if pos[p] >= pos[name] {
				t.Errorf("parent %s of %s does not precede it in %v", p, name, order)
			}
		}
	}
}

func TestKnowledgeConstrainsParents(t *testing.T) {
	kn := knowledge.New()
	kn.SetForbidden("a", "b")
	s := New(chainScore(t), kn, 0)
	if _, err := s.Score([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if slices.Contains(s.Parents("b"), "a") {
		t.Error("forbidden parent a selected for b")
	}

	kn = knowledge.New()
	kn.SetRequired("c", "a")
	s = New(chainScore(t), kn, 0)
	if _, err := s.Score([]string{"c", "a", "b"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if !slices.Contains(s.Parents("a"), "c") {
		t.Error("required parent c missing from a")
	}
}

func TestMaxParentsBound(t *testing.T) {
	s := New(chainScore(t), nil, 1)
	if _, err := s.Score([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if got := len(s.Parents(name)); got > 1 {
			t.Errorf("Parents(%s) has %d entries, want at most 1", name, got)
		}
	}
}

// emptyScore is a score over zero variables.
type emptyScore struct{}

func (emptyScore) LocalScore(int, []int) float64          { return 0 }
func (emptyScore) LocalScoreDiff(int, int, []int) float64 { return 0 }
func (emptyScore) Variables() []*graph.Node               { return nil }

func TestZeroVariables(t *testing.T) {
	s := New(emptyScore{}, nil, 0)
	total, err := s.Score(nil)
	if err != nil {
		t.Fatalf("Score(nil) error = %v", err)
	}
	if total != 0 {
		t.Errorf("total = %v, want 0", total)
	}
	if g := s.Graph(true); g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("graph has %d nodes, %d edges, want empty", g.NodeCount(), g.EdgeCount())
	}
}
