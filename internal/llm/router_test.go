package llm_test

import (
	"context"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name       string
	configured bool
}

func (s *stubProvider) Name() string              { return s.name }
func (s *stubProvider) AvailableModels() []string { return []string{"m"} }
func (s *stubProvider) DefaultModel() string      { return "m" }
func (s *stubProvider) IsConfigured() bool        { return s.configured }

func (s *stubProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: "ok"}, nil
}

func TestRouter_GetProvider(t *testing.T) {
	r := llm.NewRouter("openai")
	r.RegisterProvider(&stubProvider{name: "openai", configured: true})
	r.RegisterProvider(&stubProvider{name: "anthropic"})

	p, err := r.GetProvider("")
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = r.GetProvider("anthropic")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.GetProvider("mistral")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Equal(t, []string{"openai"}, r.ListProviders())

	infos := r.GetProvidersInfo()
	require.Len(t, infos, 2)
	assert.Equal(t, "anthropic", infos[0].Name)
	assert.True(t, infos[1].Default)
}
