package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CredentialRepository handles access credential data access
type CredentialRepository struct {
	db *DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create stores a credential. Issuing a new credential for a triple that
// already has an active one revokes the old one first.
func (r *CredentialRepository) Create(ctx context.Context, cred *domain.AccessCredential) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	revoke := `
		UPDATE access_credentials
		SET status = 'revoked', updated_at = NOW()
		WHERE user_id = $1 AND chatbot_id = $2 AND vendor_id = $3 AND status = 'active'
	`
	if _, err := tx.Exec(ctx, revoke, cred.UserID, cred.ChatbotID, cred.VendorID); err != nil {
		return fmt.Errorf("failed to revoke previous credential: %w", err)
	}

	insert := `
		INSERT INTO access_credentials (
			id, vendor_id, user_id, chatbot_id, key_prefix, key_hash,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, insert,
		cred.ID,
		cred.VendorID,
		cred.UserID,
		cred.ChatbotID,
		cred.KeyPrefix,
		cred.KeyHash,
		cred.Status,
		cred.CreatedAt,
		cred.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit credential: %w", err)
	}
	return nil
}

const credentialColumns = `
	id, vendor_id, user_id, chatbot_id, key_prefix, key_hash,
	status, created_at, updated_at
`

func (r *CredentialRepository) getOne(ctx context.Context, query string, args ...any) (*domain.AccessCredential, error) {
	var c domain.AccessCredential
	err := r.db.Pool.QueryRow(ctx, query, args...).Scan(
		&c.ID,
		&c.VendorID,
		&c.UserID,
		&c.ChatbotID,
		&c.KeyPrefix,
		&c.KeyHash,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return &c, nil
}

// GetByID retrieves a credential by ID
func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM access_credentials WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// FindActive returns the active credential for a user, chatbot and vendor
func (r *CredentialRepository) FindActive(ctx context.Context, userID, chatbotID, vendorID uuid.UUID) (*domain.AccessCredential, error) {
	query := `
		SELECT ` + credentialColumns + `
		FROM access_credentials
		WHERE user_id = $1 AND chatbot_id = $2 AND vendor_id = $3 AND status = 'active'
	`
	return r.getOne(ctx, query, userID, chatbotID, vendorID)
}

// Revoke marks a credential revoked
func (r *CredentialRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE access_credentials
		SET status = 'revoked', updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("credential %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
