//go:build !cgo

// Package fastembed runs ONNX embedding models in-process. Without cgo the
// provider registers but reports itself unconfigured.
package fastembed

import (
	"context"
	"errors"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/config"
)

var errNoCgo = errors.New("fastembed requires a cgo build")

type Provider struct{}

func NewProvider(config.FastEmbedConfig) *Provider {
	return &Provider{}
}

func (p *Provider) Name() string         { return "fastembed" }
func (p *Provider) DefaultModel() string { return "bge-small-en-v1.5" }
func (p *Provider) IsConfigured() bool   { return false }
func (p *Provider) Close() error         { return nil }

func (p *Provider) Embed(context.Context, []string, string) ([][]float32, error) {
	return nil, errNoCgo
}
