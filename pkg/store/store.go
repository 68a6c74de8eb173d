// Package store persists finished search runs so they can be listed,
// re-rendered, and served later without repeating the search.
//
// Implementations exist for different deployment shapes:
//   - memory: in-process storage for development and the test suite
//   - file: JSON files in a config directory for CLI usage
//   - redis: shared storage for multi-instance server deployments
//   - mongo: durable storage with queryable run documents
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/causalite/causalite/pkg/graphio"
	"github.com/causalite/causalite/pkg/search"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a run does not exist.
	ErrNotFound = errors.New("run not found")
)

// Record is a finished search run in storable form.
type Record struct {
	ID         string           `json:"id" bson:"_id"`
	Algorithm  string           `json:"algorithm" bson:"algorithm"`
	Status     string           `json:"status" bson:"status"`
	Score      float64          `json:"score" bson:"score"`
	Order      []string         `json:"order" bson:"order"`
	Graph      graphio.Document `json:"graph" bson:"graph"`
	ElapsedMS  int64            `json:"elapsed_ms" bson:"elapsed_ms"`
	Iterations int              `json:"iterations" bson:"iterations"`
	CreatedAt  time.Time        `json:"created_at" bson:"created_at"`
}

// NewRecord converts a search result into its storable form.
func NewRecord(res *search.Result) *Record {
	return &Record{
		ID:         res.ID,
		Algorithm:  string(res.Algorithm),
		Status:     res.Status.String(),
		Score:      res.Score,
		Order:      res.Order,
		Graph:      graphio.ToDocument(res.Graph),
		ElapsedMS:  res.Elapsed.Milliseconds(),
		Iterations: res.Iterations,
		CreatedAt:  time.Now().UTC(),
	}
}

// Store is the interface for run storage backends.
type Store interface {
	// Save stores a run, replacing any run with the same ID.
	Save(ctx context.Context, rec *Record) error

	// Get retrieves a run by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns all stored runs, newest first.
	List(ctx context.Context) ([]*Record, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// sortNewestFirst orders records by creation time descending, breaking
// ties by ID for stable listings.
func sortNewestFirst(recs []*Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
