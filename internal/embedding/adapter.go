package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"golang.org/x/time/rate"
)

// Adapter embeds text with one provider and model. Every failure, including
// timeouts and malformed output, wraps domain.ErrEmbeddingProvider.
type Adapter struct {
	provider  Provider
	model     string
	timeout   time.Duration
	batchSize int
	limiter   *rate.Limiter
}

// NewAdapter creates an adapter without throttling, mainly for tests.
func NewAdapter(provider Provider, model string, timeout time.Duration) *Adapter {
	return &Adapter{provider: provider, model: model, timeout: timeout, batchSize: 64}
}

// Provider returns the provider name
func (a *Adapter) Provider() string {
	return a.provider.Name()
}

// Model returns the model name
func (a *Adapter) Model() string {
	return a.model
}

// Embed returns one vector per text in input order. All vectors share one
// dimension.
func (a *Adapter) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += a.batchSize {
		end := start + a.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := a.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}

	if err := validate(out, len(texts)); err != nil {
		return nil, err
	}
	return out, nil
}

// EmbedQuery embeds a single text.
func (a *Adapter) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (a *Adapter) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: rate limiter: %v", domain.ErrEmbeddingProvider, a.provider.Name(), err)
		}
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	vectors, err := a.provider.Embed(ctx, texts, a.model)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s/%s: %v", domain.ErrEmbeddingProvider, a.provider.Name(), a.model, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: %s returned %d vectors for %d inputs",
			domain.ErrEmbeddingProvider, a.provider.Name(), len(vectors), len(texts))
	}
	return vectors, nil
}

func validate(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: got %d vectors for %d inputs", domain.ErrEmbeddingProvider, len(vectors), want)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector at index %d", domain.ErrEmbeddingProvider, i)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", domain.ErrEmbeddingProvider, i, len(v), dim)
		}
		for _, x := range v {
			if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
				return fmt.Errorf("%w: non-finite value in vector %d", domain.ErrEmbeddingProvider, i)
			}
		}
	}
	return nil
}
