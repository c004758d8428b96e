// Package chromem is the embedded, disk-persisted vector store. Each locator
// path is a chromem database directory; each collection is one snapshot.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	cg "github.com/philippgille/chromem-go"
)

var errNoEmbedding = errors.New("chromem store only accepts precomputed embeddings")

// Databases shares one chromem database per directory between the stores it
// creates, so two collections of one path do not load the directory twice.
type Databases struct {
	mu  sync.Mutex
	dbs map[string]*cg.DB
}

// NewDatabases creates an empty database set
func NewDatabases() *Databases {
	return &Databases{dbs: make(map[string]*cg.DB)}
}

// NewStore creates a new chromem store backed by d. It is a
// vectorstore.StoreFactory.
func (d *Databases) NewStore() vectorstore.Store {
	return &Store{databases: d}
}

func (d *Databases) open(path string) (*cg.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if db, ok := d.dbs[path]; ok {
		return db, nil
	}
	db, err := cg.NewPersistentDB(path, false)
	if err != nil {
		return nil, err
	}
	d.dbs[path] = db
	return db, nil
}

// Store implements vectorstore.Store on chromem-go
type Store struct {
	databases *Databases
	db        *cg.DB
	col       *cg.Collection
	name      string
}

// Backend returns the locator scheme
func (s *Store) Backend() string {
	return "chromem"
}

// noEmbed keeps chromem from falling back to its default remote embedder.
func noEmbed(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

// Connect opens or creates the collection on disk
func (s *Store) Connect(ctx context.Context, loc vectorstore.Locator) error {
	path := loc.FilePath()
	if path == "" {
		return fmt.Errorf("database directory is required")
	}

	db, err := s.databases.open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	col, err := db.GetOrCreateCollection(loc.Collection, nil, noEmbed)
	if err != nil {
		return fmt.Errorf("failed to open collection: %w", err)
	}

	s.db = db
	s.col = col
	s.name = loc.Collection
	return nil
}

// Close is a no-op; chromem writes through on every add.
func (s *Store) Close() error {
	return nil
}

// HealthCheck verifies the collection is open
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.col == nil {
		return fmt.Errorf("not connected")
	}
	return nil
}

// Index persists records as chromem documents
func (s *Store) Index(ctx context.Context, records []vectorstore.Record) error {
	if s.col == nil {
		return fmt.Errorf("not connected")
	}
	docs := make([]cg.Document, len(records))
	for i, rec := range records {
		docs[i] = cg.Document{
			ID:        rec.ID,
			Content:   rec.Text,
			Embedding: rec.Vector,
			Metadata: map[string]string{
				"seq":         strconv.Itoa(rec.Seq),
				"document_id": rec.DocumentID.String(),
				"title":       rec.Title,
				"chunk_index": strconv.Itoa(rec.ChunkIndex),
			},
		}
	}
	return s.col.AddDocuments(ctx, docs, 4)
}

// Search runs chromem's exhaustive cosine query
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	if s.col == nil {
		return nil, fmt.Errorf("not connected")
	}
	n := s.col.Count()
	if n == 0 {
		return nil, nil
	}

	// chromem's heap breaks ties arbitrarily, so rank everything and cut.
	results, err := s.col.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, err
	}

	matches := make([]vectorstore.Match, 0, len(results))
	for _, r := range results {
		seq, _ := strconv.Atoi(r.Metadata["seq"])
		chunkIndex, _ := strconv.Atoi(r.Metadata["chunk_index"])
		docID, _ := uuid.Parse(r.Metadata["document_id"])
		matches = append(matches, vectorstore.Match{
			Seq:        seq,
			DocumentID: docID,
			Title:      r.Metadata["title"],
			ChunkIndex: chunkIndex,
			Text:       r.Content,
			Score:      r.Similarity,
		})
	}
	vectorstore.SortMatches(matches)
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Count returns the number of documents in the collection
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.col == nil {
		return 0, fmt.Errorf("not connected")
	}
	return s.col.Count(), nil
}

// Drop deletes the collection and its files
func (s *Store) Drop(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	s.col = nil
	return s.db.DeleteCollection(s.name)
}
