package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ChatbotMode controls whether conversations need an access credential
type ChatbotMode string

const (
	ChatbotModePrivate ChatbotMode = "private"
	ChatbotModePublic  ChatbotMode = "public"
)

// Chatbot is a vendor-owned assistant with its own document corpus
type Chatbot struct {
	ID            uuid.UUID   `json:"id"`
	VendorID      uuid.UUID   `json:"vendor_id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	SystemPrompt  string      `json:"system_prompt,omitempty"`
	LLMID         uuid.UUID   `json:"llm_id"`
	VectorBackend string      `json:"vector_backend"`
	Mode          ChatbotMode `json:"mode"`
	IsActive      bool        `json:"is_active"`
	TokenLimit    int         `json:"token_limit"`
	ContextLimit  int         `json:"context_limit"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ChatbotCreate represents chatbot creation data
type ChatbotCreate struct {
	VendorID      uuid.UUID   `json:"vendor_id" validate:"required"`
	Name          string      `json:"name" validate:"required,max=255"`
	Description   string      `json:"description" validate:"omitempty,max=2000"`
	SystemPrompt  string      `json:"system_prompt" validate:"omitempty,max=8000"`
	LLMID         uuid.UUID   `json:"llm_id" validate:"required"`
	VectorBackend string      `json:"vector_backend" validate:"omitempty,oneof=chromem sqlite qdrant pgvector mongodb mysql"`
	Mode          ChatbotMode `json:"mode" validate:"omitempty,oneof=private public"`
	TokenLimit    int         `json:"token_limit" validate:"omitempty,min=1,max=32768"`
	ContextLimit  int         `json:"context_limit" validate:"omitempty,min=1,max=200000"`
}

// ChatbotUpdate names every mutable chatbot field; nil means unchanged
type ChatbotUpdate struct {
	Name          *string      `json:"name,omitempty" validate:"omitempty,max=255"`
	Description   *string      `json:"description,omitempty" validate:"omitempty,max=2000"`
	SystemPrompt  *string      `json:"system_prompt,omitempty" validate:"omitempty,max=8000"`
	LLMID         *uuid.UUID   `json:"llm_id,omitempty"`
	VectorBackend *string      `json:"vector_backend,omitempty" validate:"omitempty,oneof=chromem sqlite qdrant pgvector mongodb mysql"`
	Mode          *ChatbotMode `json:"mode,omitempty" validate:"omitempty,oneof=private public"`
	IsActive      *bool        `json:"is_active,omitempty"`
	TokenLimit    *int         `json:"token_limit,omitempty" validate:"omitempty,min=1,max=32768"`
	ContextLimit  *int         `json:"context_limit,omitempty" validate:"omitempty,min=1,max=200000"`
}

// Apply copies the set fields of u onto c.
func (u *ChatbotUpdate) Apply(c *Chatbot) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.SystemPrompt != nil {
		c.SystemPrompt = *u.SystemPrompt
	}
	if u.LLMID != nil {
		c.LLMID = *u.LLMID
	}
	if u.VectorBackend != nil {
		c.VectorBackend = *u.VectorBackend
	}
	if u.Mode != nil {
		c.Mode = *u.Mode
	}
	if u.IsActive != nil {
		c.IsActive = *u.IsActive
	}
	if u.TokenLimit != nil {
		c.TokenLimit = *u.TokenLimit
	}
	if u.ContextLimit != nil {
		c.ContextLimit = *u.ContextLimit
	}
}

// ChatbotRepository defines the interface for chatbot storage
type ChatbotRepository interface {
	Create(ctx context.Context, chatbot *Chatbot) error
	GetByID(ctx context.Context, id uuid.UUID) (*Chatbot, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]Chatbot, error)
	Update(ctx context.Context, chatbot *Chatbot) error
}
