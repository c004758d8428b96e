package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ChatbotRepository handles chatbot data access
type ChatbotRepository struct {
	db *DB
}

// NewChatbotRepository creates a new chatbot repository
func NewChatbotRepository(db *DB) *ChatbotRepository {
	return &ChatbotRepository{db: db}
}

const chatbotColumns = `
	id, vendor_id, name, description, system_prompt, llm_id,
	vector_backend, mode, is_active, token_limit, context_limit,
	created_at, updated_at
`

func scanChatbot(row pgx.Row, c *domain.Chatbot) error {
	return row.Scan(
		&c.ID,
		&c.VendorID,
		&c.Name,
		&c.Description,
		&c.SystemPrompt,
		&c.LLMID,
		&c.VectorBackend,
		&c.Mode,
		&c.IsActive,
		&c.TokenLimit,
		&c.ContextLimit,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

// Create creates a new chatbot
func (r *ChatbotRepository) Create(ctx context.Context, chatbot *domain.Chatbot) error {
	query := `
		INSERT INTO chatbots (` + chatbotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		chatbot.ID,
		chatbot.VendorID,
		chatbot.Name,
		chatbot.Description,
		chatbot.SystemPrompt,
		chatbot.LLMID,
		chatbot.VectorBackend,
		chatbot.Mode,
		chatbot.IsActive,
		chatbot.TokenLimit,
		chatbot.ContextLimit,
		chatbot.CreatedAt,
		chatbot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chatbot: %w", err)
	}

	return nil
}

// GetByID retrieves a chatbot by ID, active or not
func (r *ChatbotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chatbot, error) {
	query := `SELECT ` + chatbotColumns + ` FROM chatbots WHERE id = $1`

	var c domain.Chatbot
	if err := scanChatbot(r.db.Pool.QueryRow(ctx, query, id), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}

	return &c, nil
}

// ListByVendor retrieves all chatbots owned by a vendor
func (r *ChatbotRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Chatbot, error) {
	query := `
		SELECT ` + chatbotColumns + `
		FROM chatbots
		WHERE vendor_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chatbots: %w", err)
	}
	defer rows.Close()

	var chatbots []domain.Chatbot
	for rows.Next() {
		var c domain.Chatbot
		if err := scanChatbot(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan chatbot: %w", err)
		}
		chatbots = append(chatbots, c)
	}

	return chatbots, rows.Err()
}

// Update writes every mutable field of a chatbot
func (r *ChatbotRepository) Update(ctx context.Context, chatbot *domain.Chatbot) error {
	query := `
		UPDATE chatbots
		SET name = $2,
		    description = $3,
		    system_prompt = $4,
		    llm_id = $5,
		    vector_backend = $6,
		    mode = $7,
		    is_active = $8,
		    token_limit = $9,
		    context_limit = $10,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		chatbot.ID,
		chatbot.Name,
		chatbot.Description,
		chatbot.SystemPrompt,
		chatbot.LLMID,
		chatbot.VectorBackend,
		chatbot.Mode,
		chatbot.IsActive,
		chatbot.TokenLimit,
		chatbot.ContextLimit,
	)
	if err != nil {
		return fmt.Errorf("failed to update chatbot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("chatbot %s: %w", chatbot.ID, domain.ErrNotFound)
	}

	return nil
}
