// Package repository persists memories and serves nearest-neighbor queries.
// It is a facade over a vector-store backend; the distance metric is cosine
// distance throughout (0 = identical direction), matching the geometry of
// the embedding provider.
package repository

import (
	"context"

	"github.com/m-mizutani/burrow/pkg/model"
)

// Repository defines the interface for memory persistence and similarity search
type Repository interface {
	// PutMemory inserts or fully replaces the memory at its ID. Idempotent.
	PutMemory(ctx context.Context, memory *model.Memory) error

	// GetMemory retrieves a memory by ID. Returns model.ErrNotFound on miss.
	GetMemory(ctx context.Context, id model.MemoryID) (*model.Memory, error)

	// Query returns up to k nearest memories by cosine distance, ascending.
	// Ties are broken by insertion order: the earliest-inserted record wins.
	// An empty store yields an empty result, never an error.
	Query(ctx context.Context, vector []float32, k int) ([]*model.RetrievalResult, error)

	// DeleteMemory removes a memory. Deleting a missing ID is a no-op.
	DeleteMemory(ctx context.Context, id model.MemoryID) error

	// DeleteAll clears the entire store.
	DeleteAll(ctx context.Context) error

	// ListMemories enumerates all memories. Ordering is unspecified but
	// stable within a single call.
	ListMemories(ctx context.Context) ([]*model.Memory, error)
}
