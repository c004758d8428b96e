package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	name       string
	configured bool
	calls      [][]string
	embed      func(ctx context.Context, texts []string) ([][]float32, error)
}

func (f *fakeProvider) Name() string         { return f.name }
func (f *fakeProvider) DefaultModel() string { return "fake-default" }
func (f *fakeProvider) IsConfigured() bool   { return f.configured }

func (f *fakeProvider) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.embed != nil {
		return f.embed(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func TestRouter_Adapter(t *testing.T) {
	r := NewRouter(Options{BatchSize: 2})
	r.RegisterProvider(&fakeProvider{name: "fake", configured: true})
	r.RegisterProvider(&fakeProvider{name: "idle"})

	tests := []struct {
		name    string
		cfg     *domain.EmbeddingModel
		wantErr error
		model   string
	}{
		{name: "nil config", cfg: nil, wantErr: domain.ErrNotFound},
		{name: "unknown provider", cfg: &domain.EmbeddingModel{Provider: "nope"}, wantErr: domain.ErrEmbeddingProvider},
		{name: "unconfigured provider", cfg: &domain.EmbeddingModel{Provider: "idle"}, wantErr: domain.ErrEmbeddingProvider},
		{name: "default model", cfg: &domain.EmbeddingModel{Provider: "fake"}, model: "fake-default"},
		{name: "explicit model", cfg: &domain.EmbeddingModel{Provider: "fake", ModelName: "m1"}, model: "m1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := r.Adapter(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.model, a.Model())
			assert.Equal(t, "fake", a.Provider())
		})
	}

	assert.Equal(t, []string{"fake"}, r.ListProviders())
}

func TestAdapter_EmbedBatchesInOrder(t *testing.T) {
	fake := &fakeProvider{name: "fake", configured: true}
	r := NewRouter(Options{BatchSize: 2})
	r.RegisterProvider(fake)
	a, err := r.Adapter(&domain.EmbeddingModel{Provider: "fake"})
	require.NoError(t, err)

	vecs, err := a.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)

	require.Len(t, vecs, 5)
	for i, v := range vecs {
		assert.Equal(t, float32(i+1), v[0])
	}
	assert.Len(t, fake.calls, 3)
}

func TestAdapter_EmbedEmpty(t *testing.T) {
	a := NewAdapter(&fakeProvider{name: "fake", configured: true}, "m", 0)
	vecs, err := a.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestAdapter_EmbedFailures(t *testing.T) {
	tests := []struct {
		name  string
		embed func(ctx context.Context, texts []string) ([][]float32, error)
	}{
		{
			name: "provider error",
			embed: func(context.Context, []string) ([][]float32, error) {
				return nil, errors.New("connection refused")
			},
		},
		{
			name: "short response",
			embed: func(context.Context, []string) ([][]float32, error) {
				return [][]float32{{1}}, nil
			},
		},
		{
			name: "mixed dimensions",
			embed: func(context.Context, []string) ([][]float32, error) {
				return [][]float32{{1, 2}, {1}}, nil
			},
		},
		{
			name: "empty vector",
			embed: func(context.Context, []string) ([][]float32, error) {
				return [][]float32{{}, {}}, nil
			},
		},
		{
			name: "nan value",
			embed: func(context.Context, []string) ([][]float32, error) {
				return [][]float32{{1}, {float32(math.NaN())}}, nil
			},
		},
		{
			name: "timeout",
			embed: func(ctx context.Context, _ []string) ([][]float32, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(&fakeProvider{name: "fake", configured: true, embed: tt.embed}, "m", 20*time.Millisecond)
			_, err := a.Embed(context.Background(), []string{"a", "b"})
			assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
		})
	}
}

func TestAdapter_EmbedQuery(t *testing.T) {
	a := NewAdapter(&fakeProvider{name: "fake", configured: true}, "m", time.Second)
	v, err := a.EmbedQuery(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 1}, v)
}

func TestAdapter_RateLimitedCancelled(t *testing.T) {
	r := NewRouter(Options{BatchSize: 1, RateLimit: 0.001, RateBurst: 1})
	r.RegisterProvider(&fakeProvider{name: "fake", configured: true})
	a, err := r.Adapter(&domain.EmbeddingModel{Provider: "fake"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// The first batch consumes the burst; the second cannot get a token in time.
	_, err = a.Embed(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
}
