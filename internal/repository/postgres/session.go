package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionRepository handles conversation session and message data access
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, chatbot_id, session_key, user_id, is_active, created_at, updated_at`

func scanSession(row pgx.Row, s *domain.ChatSession) error {
	return row.Scan(
		&s.ID,
		&s.ChatbotID,
		&s.Key,
		&s.UserID,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// GetOrCreate returns the session for ref, inserting it on first use.
// Concurrent first messages for the same key converge on one row.
func (r *SessionRepository) GetOrCreate(ctx context.Context, ref domain.SessionRef, userID *uuid.UUID) (*domain.ChatSession, error) {
	now := time.Now()
	insert := `
		INSERT INTO conversation_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (chatbot_id, session_key) DO NOTHING
	`
	if _, err := r.db.Pool.Exec(ctx, insert, uuid.New(), ref.ChatbotID, ref.Key, userID, now); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s, err := r.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("session %s vanished after insert: %w", ref, domain.ErrNotFound)
	}
	return s, nil
}

// Get retrieves a session by chatbot and key
func (r *SessionRepository) Get(ctx context.Context, ref domain.SessionRef) (*domain.ChatSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM conversation_sessions
		WHERE chatbot_id = $1 AND session_key = $2
	`

	var s domain.ChatSession
	if err := scanSession(r.db.Pool.QueryRow(ctx, query, ref.ChatbotID, ref.Key), &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// ListByUser retrieves a user's sessions with a chatbot, most recent first
func (r *SessionRepository) ListByUser(ctx context.Context, chatbotID, userID uuid.UUID, limit int) ([]domain.ChatSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM conversation_sessions
		WHERE chatbot_id = $1 AND user_id = $2
		ORDER BY updated_at DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, chatbotID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		if err := scanSession(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// AppendMessage stores msg as the session's next message. The session row
// lock serializes appends across processes.
func (r *SessionRepository) AppendMessage(ctx context.Context, sessionID uuid.UUID, msg *domain.Message) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx, `SELECT is_active FROM conversation_sessions WHERE id = $1 FOR UPDATE`, sessionID).Scan(&active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return fmt.Errorf("failed to lock session: %w", err)
	}
	if !active {
		return fmt.Errorf("session %s is inactive: %w", sessionID, domain.ErrNotFound)
	}

	var seq int64
	err = tx.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM conversation_messages WHERE session_id = $1`, sessionID).Scan(&seq)
	if err != nil {
		return fmt.Errorf("failed to get next message seq: %w", err)
	}

	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.SessionID = sessionID
	msg.Seq = seq

	insert := `
		INSERT INTO conversation_messages (id, session_id, seq, sender_role, content, token_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, insert,
		msg.ID,
		msg.SessionID,
		msg.Seq,
		msg.SenderRole,
		msg.Content,
		msg.TokenCount,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE conversation_sessions SET updated_at = $2 WHERE id = $1`, sessionID, msg.CreatedAt); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}
	return nil
}

// ListMessages returns the latest limit messages, oldest first. A
// non-positive limit returns the whole session.
func (r *SessionRepository) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, session_id, seq, sender_role, content, token_count, created_at
		FROM (
			SELECT id, session_id, seq, sender_role, content, token_count, created_at
			FROM conversation_messages
			WHERE session_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`
	args := []any{sessionID, limit}
	if limit <= 0 {
		query = `
			SELECT id, session_id, seq, sender_role, content, token_count, created_at
			FROM conversation_messages
			WHERE session_id = $1
			ORDER BY seq ASC
		`
		args = args[:1]
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(
			&m.ID,
			&m.SessionID,
			&m.Seq,
			&m.SenderRole,
			&m.Content,
			&m.TokenCount,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// Deactivate closes a session to further messages
func (r *SessionRepository) Deactivate(ctx context.Context, sessionID uuid.UUID) error {
	query := `
		UPDATE conversation_sessions
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.Pool.Exec(ctx, query, sessionID)
	if err != nil {
		return fmt.Errorf("failed to deactivate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return nil
}
