package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LocatorCipher seals snapshot locators at rest. Remote locators may carry
// credentials.
type LocatorCipher interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// SnapshotRepository handles knowledge-base snapshot data access
type SnapshotRepository struct {
	db     *DB
	cipher LocatorCipher
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *DB, cipher LocatorCipher) *SnapshotRepository {
	return &SnapshotRepository{db: db, cipher: cipher}
}

const snapshotColumns = `
	id, chatbot_id, name, version, locator, document_count,
	chunk_count, is_active, created_at, updated_at
`

func (r *SnapshotRepository) scan(row pgx.Row) (*domain.Snapshot, error) {
	var s domain.Snapshot
	var sealed string
	if err := row.Scan(
		&s.ID,
		&s.ChatbotID,
		&s.Name,
		&s.Version,
		&sealed,
		&s.DocumentCount,
		&s.ChunkCount,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	locator, err := r.cipher.DecryptString(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt locator of snapshot %s: %w", s.ID, err)
	}
	s.Locator = locator
	return &s, nil
}

// CreateActive inserts the snapshot as the chatbot's only active one
func (r *SnapshotRepository) CreateActive(ctx context.Context, s *domain.Snapshot) error {
	sealed, err := r.cipher.EncryptString(s.Locator)
	if err != nil {
		return fmt.Errorf("failed to encrypt locator: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	deactivate := `
		UPDATE knowledge_base_snapshots
		SET is_active = FALSE, updated_at = NOW()
		WHERE chatbot_id = $1 AND is_active
	`
	if _, err := tx.Exec(ctx, deactivate, s.ChatbotID); err != nil {
		return fmt.Errorf("failed to deactivate snapshots: %w", err)
	}

	insert := `
		INSERT INTO knowledge_base_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9)
	`
	_, err = tx.Exec(ctx, insert,
		s.ID,
		s.ChatbotID,
		s.Name,
		s.Version,
		sealed,
		s.DocumentCount,
		s.ChunkCount,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.IsActive = true
	return nil
}

// GetByID retrieves a snapshot by ID
func (r *SnapshotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM knowledge_base_snapshots WHERE id = $1`

	s, err := r.scan(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return s, nil
}

// GetActive retrieves the chatbot's active snapshot
func (r *SnapshotRepository) GetActive(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM knowledge_base_snapshots
		WHERE chatbot_id = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`

	s, err := r.scan(r.db.Pool.QueryRow(ctx, query, chatbotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active snapshot: %w", err)
	}
	return s, nil
}

// ListByChatbot retrieves every snapshot of a chatbot, newest version first
func (r *SnapshotRepository) ListByChatbot(ctx context.Context, chatbotID uuid.UUID) ([]domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM knowledge_base_snapshots
		WHERE chatbot_id = $1
		ORDER BY version DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, *s)
	}

	return snapshots, rows.Err()
}

// ReserveVersion bumps the chatbot's version counter and returns the new value
func (r *SnapshotRepository) ReserveVersion(ctx context.Context, chatbotID uuid.UUID) (int, error) {
	query := `
		INSERT INTO snapshot_versions (chatbot_id, last_version)
		VALUES ($1, (
			SELECT COALESCE(MAX(version), 0) + 1
			FROM knowledge_base_snapshots
			WHERE chatbot_id = $1
		))
		ON CONFLICT (chatbot_id) DO UPDATE
		SET last_version = snapshot_versions.last_version + 1
		RETURNING last_version
	`

	var version int
	if err := r.db.Pool.QueryRow(ctx, query, chatbotID).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to reserve snapshot version: %w", err)
	}
	return version, nil
}

// Activate rolls the chatbot back or forward to an existing snapshot
func (r *SnapshotRepository) Activate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var chatbotID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT chatbot_id FROM knowledge_base_snapshots WHERE id = $1 FOR UPDATE`, id).Scan(&chatbotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to lock snapshot: %w", err)
	}

	deactivate := `
		UPDATE knowledge_base_snapshots
		SET is_active = FALSE, updated_at = NOW()
		WHERE chatbot_id = $1 AND is_active AND id <> $2
	`
	if _, err := tx.Exec(ctx, deactivate, chatbotID, id); err != nil {
		return fmt.Errorf("failed to deactivate snapshots: %w", err)
	}

	activate := `
		UPDATE knowledge_base_snapshots
		SET is_active = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, activate, id); err != nil {
		return fmt.Errorf("failed to activate snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}
