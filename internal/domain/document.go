package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus is the lifecycle state of an uploaded document
type DocumentStatus string

const (
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusEmbedded   DocumentStatus = "embedded"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// CanTransition reports whether a document may move from s to next.
// processing -> embedded | failed is the build path; embedded | failed ->
// processing is an explicit reprocess. Nothing else is allowed.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	switch s {
	case DocumentStatusProcessing:
		return next == DocumentStatusEmbedded || next == DocumentStatusFailed
	case DocumentStatusEmbedded, DocumentStatusFailed:
		return next == DocumentStatusProcessing
	default:
		return false
	}
}

// Document is one uploaded source file belonging to exactly one chatbot
type Document struct {
	ID        uuid.UUID      `json:"id"`
	ChatbotID uuid.UUID      `json:"chatbot_id"`
	Title     string         `json:"title"`
	FilePath  string         `json:"-"`
	Status    DocumentStatus `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Transition moves the document to next or returns ErrInvalidTransition.
func (d *Document) Transition(next DocumentStatus) error {
	if !d.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, d.Status, next)
	}
	d.Status = next
	return nil
}

// DocumentStatusUpdate moves a set of documents of one chatbot to a new status
type DocumentStatusUpdate struct {
	ChatbotID   uuid.UUID      `validate:"required"`
	DocumentIDs []uuid.UUID    `validate:"required,min=1"`
	From        DocumentStatus `validate:"required,oneof=processing embedded failed"`
	To          DocumentStatus `validate:"required,oneof=processing embedded failed"`
}

// DocumentRepository defines the interface for document storage
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	ListByChatbot(ctx context.Context, chatbotID uuid.UUID) ([]Document, error)
	// UpdateStatus applies the update to documents currently in update.From and
	// returns how many rows changed.
	UpdateStatus(ctx context.Context, update *DocumentStatusUpdate) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
