package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ModelRepository handles language and embedding model data access
type ModelRepository struct {
	db *DB
}

// NewModelRepository creates a new model repository
func NewModelRepository(db *DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// CreateLanguageModel registers a language model
func (r *ModelRepository) CreateLanguageModel(ctx context.Context, m *domain.LanguageModel) error {
	query := `
		INSERT INTO language_models (
			id, name, provider, embedding_model_id,
			default_token_limit, default_context_limit, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		m.ID,
		m.Name,
		m.Provider,
		m.EmbeddingModelID,
		m.DefaultTokenLimit,
		m.DefaultContextLimit,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create language model: %w", err)
	}

	return nil
}

// CreateEmbeddingModel registers an embedding model
func (r *ModelRepository) CreateEmbeddingModel(ctx context.Context, m *domain.EmbeddingModel) error {
	query := `
		INSERT INTO embedding_models (id, provider, model_name, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := r.db.Pool.Exec(ctx, query, m.ID, m.Provider, m.ModelName, m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create embedding model: %w", err)
	}

	return nil
}

// GetLanguageModel retrieves a language model by ID
func (r *ModelRepository) GetLanguageModel(ctx context.Context, id uuid.UUID) (*domain.LanguageModel, error) {
	query := `
		SELECT id, name, provider, embedding_model_id,
		       default_token_limit, default_context_limit, created_at
		FROM language_models
		WHERE id = $1
	`

	var m domain.LanguageModel
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&m.ID,
		&m.Name,
		&m.Provider,
		&m.EmbeddingModelID,
		&m.DefaultTokenLimit,
		&m.DefaultContextLimit,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get language model: %w", err)
	}

	return &m, nil
}

// GetEmbeddingModel retrieves an embedding model by ID
func (r *ModelRepository) GetEmbeddingModel(ctx context.Context, id uuid.UUID) (*domain.EmbeddingModel, error) {
	query := `
		SELECT id, provider, model_name, created_at
		FROM embedding_models
		WHERE id = $1
	`

	var m domain.EmbeddingModel
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Provider, &m.ModelName, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get embedding model: %w", err)
	}

	return &m, nil
}
