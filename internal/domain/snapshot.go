package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Snapshot is a versioned knowledge-base build for one chatbot. Its locator is
// self-describing: the scheme selects the vector store backend.
type Snapshot struct {
	ID            uuid.UUID `json:"id"`
	ChatbotID     uuid.UUID `json:"chatbot_id"`
	Name          string    `json:"name"`
	Version       int       `json:"version"`
	Locator       string    `json:"-"`
	DocumentCount int       `json:"document_count"`
	ChunkCount    int       `json:"chunk_count"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SnapshotInfo is the monitoring view of a snapshot with credentials removed
type SnapshotInfo struct {
	ID            uuid.UUID `json:"id"`
	ChatbotID     uuid.UUID `json:"chatbot_id"`
	Name          string    `json:"name"`
	Version       int       `json:"version"`
	Locator       string    `json:"locator"`
	DocumentCount int       `json:"document_count"`
	ChunkCount    int       `json:"chunk_count"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ToInfo converts Snapshot to SnapshotInfo using a redacted locator
func (s *Snapshot) ToInfo(redactedLocator string) SnapshotInfo {
	return SnapshotInfo{
		ID:            s.ID,
		ChatbotID:     s.ChatbotID,
		Name:          s.Name,
		Version:       s.Version,
		Locator:       redactedLocator,
		DocumentCount: s.DocumentCount,
		ChunkCount:    s.ChunkCount,
		IsActive:      s.IsActive,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

// SnapshotRepository defines the interface for snapshot storage. Snapshots are
// never deleted; superseded ones are deactivated.
type SnapshotRepository interface {
	// CreateActive inserts s as the chatbot's active snapshot and deactivates
	// the others in one transaction.
	CreateActive(ctx context.Context, s *Snapshot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	// GetActive returns the most recently updated active snapshot, or nil.
	GetActive(ctx context.Context, chatbotID uuid.UUID) (*Snapshot, error)
	ListByChatbot(ctx context.Context, chatbotID uuid.UUID) ([]Snapshot, error)
	// ReserveVersion hands out the chatbot's next snapshot version. Reserved
	// versions are never handed out again, even when the build that took one
	// fails.
	ReserveVersion(ctx context.Context, chatbotID uuid.UUID) (int, error)
	// Activate makes an existing snapshot the active one.
	Activate(ctx context.Context, id uuid.UUID) error
}

// SnapshotCache caches the active snapshot per chatbot
type SnapshotCache interface {
	Get(ctx context.Context, chatbotID uuid.UUID) (*Snapshot, error)
	Set(ctx context.Context, s *Snapshot) error
	Invalidate(ctx context.Context, chatbotID uuid.UUID) error
}
