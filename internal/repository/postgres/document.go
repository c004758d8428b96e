package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DocumentRepository handles document data access
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO documents (id, chatbot_id, title, file_path, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		doc.ID,
		doc.ChatbotID,
		doc.Title,
		doc.FilePath,
		doc.Status,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `
		SELECT id, chatbot_id, title, file_path, status, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	var d domain.Document
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.ChatbotID,
		&d.Title,
		&d.FilePath,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &d, nil
}

// ListByChatbot retrieves a chatbot's documents oldest first, which is
// the order builds index them in
func (r *DocumentRepository) ListByChatbot(ctx context.Context, chatbotID uuid.UUID) ([]domain.Document, error) {
	query := `
		SELECT id, chatbot_id, title, file_path, status, created_at, updated_at
		FROM documents
		WHERE chatbot_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Pool.Query(ctx, query, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(
			&d.ID,
			&d.ChatbotID,
			&d.Title,
			&d.FilePath,
			&d.Status,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// UpdateStatus moves the listed documents from update.From to update.To.
// Documents in any other state are left alone.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, update *domain.DocumentStatusUpdate) (int, error) {
	if !update.From.CanTransition(update.To) {
		return 0, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, update.From, update.To)
	}

	ids := make([]string, len(update.DocumentIDs))
	for i, id := range update.DocumentIDs {
		ids[i] = id.String()
	}

	query := `
		UPDATE documents
		SET status = $3, updated_at = NOW()
		WHERE chatbot_id = $1 AND id = ANY($2::uuid[]) AND status = $4
	`

	tag, err := r.db.Pool.Exec(ctx, query, update.ChatbotID, ids, update.To, update.From)
	if err != nil {
		return 0, fmt.Errorf("failed to update document status: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// Delete deletes a document
func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM documents WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
