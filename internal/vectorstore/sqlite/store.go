package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store implements vectorstore.Store on a SQLite file. Each collection is a
// table; vectors are float32 BLOBs ranked in Go.
type Store struct {
	db    *sql.DB
	table string
}

// NewStore creates a new SQLite store
func NewStore() vectorstore.Store {
	return &Store{}
}

// Backend returns the locator scheme
func (s *Store) Backend() string {
	return "sqlite"
}

// Connect opens the database file and ensures the collection table exists
func (s *Store) Connect(ctx context.Context, loc vectorstore.Locator) error {
	dbPath := loc.FilePath()
	if dbPath == "" {
		return fmt.Errorf("database file path is required")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	table := "vectors_" + loc.Collection
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		document_id TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return fmt.Errorf("failed to create table: %w", err)
	}

	s.db = db
	s.table = table
	return nil
}

// Close closes the connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies connection is alive
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("not connected")
	}
	return s.db.PingContext(ctx)
}

// Index inserts records in one transaction
func (s *Store) Index(ctx context.Context, records []vectorstore.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %q (id, seq, document_id, title, chunk_index, content, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.table))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Seq, rec.DocumentID.String(), rec.Title,
			rec.ChunkIndex, rec.Text, vectorstore.EncodeVector(rec.Vector)); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", rec.ID, err)
		}
	}

	return tx.Commit()
}

// Search scans the table and ranks every row by cosine similarity
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT seq, document_id, title, chunk_index, content, embedding FROM %q`, s.table))
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	ranker := vectorstore.NewRanker(query)
	for rows.Next() {
		var (
			rec   vectorstore.Record
			docID string
			blob  []byte
		)
		if err := rows.Scan(&rec.Seq, &docID, &rec.Title, &rec.ChunkIndex, &rec.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec.DocumentID, _ = uuid.Parse(docID)
		if rec.Vector, err = vectorstore.DecodeVector(blob); err != nil {
			return nil, err
		}
		ranker.Add(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ranker.Top(k), nil
}

// Count returns the number of rows in the collection
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, s.table)).Scan(&n)
	return n, err
}

// Drop removes the collection table
func (s *Store) Drop(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, s.table))
	return err
}
