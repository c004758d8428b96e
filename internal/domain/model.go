package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LanguageModel is a generation model a chatbot answers with
type LanguageModel struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Provider            string    `json:"provider"`
	EmbeddingModelID    uuid.UUID `json:"embedding_model_id"`
	DefaultTokenLimit   int       `json:"default_token_limit"`
	DefaultContextLimit int       `json:"default_context_limit"`
	CreatedAt           time.Time `json:"created_at"`
}

// EmbeddingModel is the embedding configuration shared by a build and its retrievals
type EmbeddingModel struct {
	ID        uuid.UUID `json:"id"`
	Provider  string    `json:"provider"`
	ModelName string    `json:"model_name"`
	CreatedAt time.Time `json:"created_at"`
}

// LanguageModelCreate represents language model registration data
type LanguageModelCreate struct {
	Name                string    `json:"name" validate:"required,max=255"`
	Provider            string    `json:"provider" validate:"required,oneof=openai anthropic ollama deepseek gemini"`
	EmbeddingModelID    uuid.UUID `json:"embedding_model_id" validate:"required"`
	DefaultTokenLimit   int       `json:"default_token_limit" validate:"required,min=1,max=32768"`
	DefaultContextLimit int       `json:"default_context_limit" validate:"required,min=1,max=200000"`
}

// EmbeddingModelCreate represents embedding model registration data
type EmbeddingModelCreate struct {
	Provider  string `json:"provider" validate:"required,oneof=openai ollama gemini fastembed local"`
	ModelName string `json:"model_name" validate:"required,max=255"`
}

// ModelRepository defines the interface for language and embedding model storage
type ModelRepository interface {
	CreateLanguageModel(ctx context.Context, m *LanguageModel) error
	CreateEmbeddingModel(ctx context.Context, m *EmbeddingModel) error
	GetLanguageModel(ctx context.Context, id uuid.UUID) (*LanguageModel, error)
	GetEmbeddingModel(ctx context.Context, id uuid.UUID) (*EmbeddingModel, error)
}
