package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRef identifies a conversation by chatbot and client-visible session key
type SessionRef struct {
	ChatbotID uuid.UUID
	Key       string
}

func (r SessionRef) String() string {
	return r.ChatbotID.String() + "/" + r.Key
}

// ChatSession is a multi-turn conversation thread, created lazily on first message
type ChatSession struct {
	ID        uuid.UUID  `json:"id"`
	ChatbotID uuid.UUID  `json:"chatbot_id"`
	Key       string     `json:"session_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SessionRepository defines the interface for session and message storage.
// Messages are append-only.
type SessionRepository interface {
	// GetOrCreate returns the session for ref, creating it for userID if absent.
	GetOrCreate(ctx context.Context, ref SessionRef, userID *uuid.UUID) (*ChatSession, error)
	Get(ctx context.Context, ref SessionRef) (*ChatSession, error)
	ListByUser(ctx context.Context, chatbotID, userID uuid.UUID, limit int) ([]ChatSession, error)
	// AppendMessage assigns msg.Seq after the session's last message. It fails
	// with ErrNotFound when the session is missing or deactivated.
	AppendMessage(ctx context.Context, sessionID uuid.UUID, msg *Message) error
	// ListMessages returns up to limit most recent messages in chronological order.
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]Message, error)
	Deactivate(ctx context.Context, sessionID uuid.UUID) error
}
