// Package embedding turns text into fixed-length vectors through a
// configured provider.
package embedding

import (
	"context"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the model used when none is configured
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Embed returns one vector per input text, in input order
	Embed(ctx context.Context, texts []string, model string) ([][]float32, error)
}

// Embedder is the part of an Adapter that builds and retrievals use
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Source resolves the embedder for an embedding configuration
type Source interface {
	Embedder(cfg *domain.EmbeddingModel) (Embedder, error)
}
