// Package vectorstore persists chunk embeddings for a knowledge-base snapshot
// and answers nearest-neighbour queries. Backends are chosen by the scheme of
// a locator string, e.g. "qdrant://localhost:6334?collection=kb_x_v1".
package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Record is one embedded chunk
type Record struct {
	ID         string
	Seq        int
	DocumentID uuid.UUID
	Title      string
	ChunkIndex int
	Text       string
	Vector     []float32
}

// Match is a search hit. Score is cosine similarity, higher is closer.
type Match struct {
	Seq        int
	DocumentID uuid.UUID
	Title      string
	ChunkIndex int
	Text       string
	Score      float32
}

// Store defines the interface for vector store backends
type Store interface {
	// Backend returns the locator scheme this store serves
	Backend() string

	// Connect opens the collection named by the locator, creating it if needed
	Connect(ctx context.Context, loc Locator) error

	// Close releases the connection
	Close() error

	// HealthCheck verifies the backend is reachable
	HealthCheck(ctx context.Context) error

	// Index appends records to the collection
	Index(ctx context.Context, records []Record) error

	// Search returns up to k matches ordered by descending score, ties by
	// ascending Seq
	Search(ctx context.Context, query []float32, k int) ([]Match, error)

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)

	// Drop removes the collection and everything in it
	Drop(ctx context.Context) error
}

// Handle is a connected store as handed out by the Registry
type Handle interface {
	Store

	// Describe returns the locator the handle was opened with. Snapshots
	// persist it; reopening it selects the same backend and collection.
	Describe() string
}

// StoreFactory creates a new, unconnected store
type StoreFactory func() Store
