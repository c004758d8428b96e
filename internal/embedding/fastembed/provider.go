//go:build cgo

// Package fastembed runs ONNX embedding models in-process.
package fastembed

import (
	"context"
	"fmt"
	"sync"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/config"
	fe "github.com/anush008/fastembed-go"
)

var models = map[string]fe.EmbeddingModel{
	"bge-small-en-v1.5": fe.BGESmallENV15,
	"bge-base-en-v1.5":  fe.BGEBaseENV15,
	"all-minilm-l6-v2":  fe.AllMiniLML6V2,
	"bge-small-zh-v1.5": fe.BGESmallZH,
}

// Provider implements embedding.Provider on top of fastembed-go. Models are
// loaded lazily and kept for the life of the process.
type Provider struct {
	cfg    config.FastEmbedConfig
	mu     sync.Mutex
	loaded map[string]*fe.FlagEmbedding
}

// NewProvider creates a fastembed provider
func NewProvider(cfg config.FastEmbedConfig) *Provider {
	return &Provider{cfg: cfg, loaded: make(map[string]*fe.FlagEmbedding)}
}

func (p *Provider) Name() string {
	return "fastembed"
}

func (p *Provider) DefaultModel() string {
	return "bge-small-en-v1.5"
}

func (p *Provider) IsConfigured() bool {
	return p.cfg.Enabled
}

func (p *Provider) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if model == "" {
		model = p.DefaultModel()
	}

	m, err := p.model(model)
	if err != nil {
		return nil, err
	}

	type result struct {
		vecs [][]float32
		err  error
	}
	done := make(chan result, 1)
	go func() {
		// Inference is not cancellable; the caller stops waiting on ctx.
		p.mu.Lock()
		defer p.mu.Unlock()
		vecs, err := m.PassageEmbed(texts, 256)
		done <- result{vecs, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, fmt.Errorf("fastembed inference failed: %w", r.err)
		}
		return r.vecs, nil
	}
}

func (p *Provider) model(name string) (*fe.FlagEmbedding, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if m, ok := p.loaded[name]; ok {
		return m, nil
	}

	id, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown fastembed model: %s", name)
	}

	showProgress := false
	opts := &fe.InitOptions{
		Model:                id,
		CacheDir:             p.cfg.CacheDir,
		ShowDownloadProgress: &showProgress,
	}
	if p.cfg.MaxLength > 0 {
		opts.MaxLength = p.cfg.MaxLength
	}

	m, err := fe.NewFlagEmbedding(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load fastembed model %s: %w", name, err)
	}
	p.loaded[name] = m
	return m, nil
}

// Close releases every loaded model
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for name, m := range p.loaded {
		if err := m.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.loaded, name)
	}
	return firstErr
}
