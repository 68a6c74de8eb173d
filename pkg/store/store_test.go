package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/causalite/causalite/pkg/graph"
	"github.com/causalite/causalite/pkg/graphio"
	"github.com/causalite/causalite/pkg/search"
	"github.com/causalite/causalite/pkg/search/boss"
)

func sampleRecord(id string, created time.Time) *Record {
	g := graph.New(graph.NewNode("a"), graph.NewNode("b"))
	g.AddDirected("a", "b")
	return &Record{
		ID:        id,
		Algorithm: "boss",
		Status:    "completed",
		Score:     -42.5,
		Order:     []string{"a", "b"},
		Graph:     graphio.ToDocument(g),
		CreatedAt: created,
	}
}

// storeContract exercises the Store interface behavior shared by backends.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	first := sampleRecord("7c9e6679-7425-40de-944b-e07fc1f90ae7", base)
	second := sampleRecord("9b2d7b52-1111-4222-8333-444455556666", base.Add(time.Hour))
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Score != first.Score || got.Algorithm != first.Algorithm {
		t.Errorf("Get() = %+v, want %+v", got, first)
	}
	if rebuilt, err := graphio.FromDocument(got.Graph); err != nil || !rebuilt.IsAdjacent("a", "b") {
		t.Errorf("stored graph lost its edge: %v (err %v)", rebuilt, err)
	}

	runs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != second.ID {
		ids := make([]string, len(runs))
		for i, r := range runs {
			ids[i] = r.ID
		}
		t.Errorf("List() = %v, want newest first [%s %s]", ids, second.ID, first.ID)
	}

	if err := s.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, first.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, first.ID); err != nil {
		t.Errorf("repeated Delete error = %v, want nil", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	storeContract(t, s)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer s.Close()
	storeContract(t, s)
}

func TestMemoryStoreCopiesRecords(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := sampleRecord("7c9e6679-7425-40de-944b-e07fc1f90ae7", time.Now())
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rec.Score = 0

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Score != -42.5 {
		t.Error("store shares memory with the caller's record")
	}
}

func TestNewRecord(t *testing.T) {
	g := graph.New(graph.NewNode("x"), graph.NewNode("y"))
	g.AddDirected("x", "y")
	res := &search.Result{
		ID:        "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Algorithm: search.AlgorithmGRaSP,
		Status:    boss.StatusCompleted,
		Order:     []string{"x", "y"},
		Score:     -10,
		Graph:     g,
		Elapsed:   1500 * time.Millisecond,
	}

	rec := NewRecord(res)
	if rec.ID != res.ID || rec.Algorithm != "grasp" || rec.Status != "completed" {
		t.Errorf("NewRecord() = %+v", rec)
	}
	if rec.ElapsedMS != 1500 {
		t.Errorf("ElapsedMS = %d, want 1500", rec.ElapsedMS)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}
