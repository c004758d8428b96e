package service

import (
	"context"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatbotService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewChatbotService(f.chatbots, f.models, "chromem")
	ctx := context.Background()

	t.Run("vendor creates for itself", func(t *testing.T) {
		chatbot, err := svc.Create(ctx, f.vendor.Requester(), domain.ChatbotCreate{
			VendorID: uuid.New(),
			Name:     "sales",
			LLMID:    f.language.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, f.vendor.ID, chatbot.VendorID)
		assert.Equal(t, "chromem", chatbot.VectorBackend)
		assert.Equal(t, domain.ChatbotModePrivate, chatbot.Mode)
		assert.Equal(t, 512, chatbot.TokenLimit)
		assert.Equal(t, 2000, chatbot.ContextLimit)
		assert.True(t, chatbot.IsActive)
	})

	tests := []struct {
		name      string
		requester *domain.Requester
		input     domain.ChatbotCreate
		wantErr   error
	}{
		{
			name:    "anonymous",
			input:   domain.ChatbotCreate{Name: "x", LLMID: f.language.ID},
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:      "external user",
			requester: f.external.Requester(),
			input:     domain.ChatbotCreate{Name: "x", LLMID: f.language.ID},
			wantErr:   domain.ErrUnauthorized,
		},
		{
			name:      "admin must name vendor",
			requester: f.admin.Requester(),
			input:     domain.ChatbotCreate{Name: "x", LLMID: f.language.ID},
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "unknown backend",
			requester: f.vendor.Requester(),
			input:     domain.ChatbotCreate{Name: "x", LLMID: f.language.ID, VectorBackend: "faiss"},
			wantErr:   domain.ErrInvalidInput,
		},
		{
			name:      "unknown language model",
			requester: f.vendor.Requester(),
			input:     domain.ChatbotCreate{Name: "x", LLMID: uuid.New()},
			wantErr:   domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.requester, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestChatbotService_Update(t *testing.T) {
	f := newFixture(t)
	svc := NewChatbotService(f.chatbots, f.models, "chromem")
	ctx := context.Background()

	name := "renamed"
	mode := domain.ChatbotModePublic
	updated, err := svc.Update(ctx, f.vendor.Requester(), f.chatbot.ID, domain.ChatbotUpdate{Name: &name, Mode: &mode})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.Equal(t, domain.ChatbotModePublic, updated.Mode)
	assert.Equal(t, 256, updated.TokenLimit)

	stored, err := svc.GetByID(ctx, f.admin.Requester(), f.chatbot.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name)

	other := &domain.User{ID: uuid.New(), Role: domain.RequesterVendor}
	_, err = svc.Update(ctx, other.Requester(), f.chatbot.ID, domain.ChatbotUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	tooBig := 1 << 20
	_, err = svc.Update(ctx, f.vendor.Requester(), f.chatbot.ID, domain.ChatbotUpdate{TokenLimit: &tooBig})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing := uuid.New()
	_, err = svc.Update(ctx, f.vendor.Requester(), f.chatbot.ID, domain.ChatbotUpdate{LLMID: &missing})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := svc.ListByVendor(ctx, f.vendor.Requester(), f.vendor.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListByVendor(ctx, f.external.Requester(), f.vendor.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestChatbotService_RegisterModels(t *testing.T) {
	f := newFixture(t)
	svc := NewChatbotService(f.chatbots, f.models, "chromem")
	ctx := context.Background()

	_, err := svc.RegisterEmbeddingModel(ctx, f.vendor.Requester(), domain.EmbeddingModelCreate{Provider: "openai", ModelName: "text-embedding-3-small"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	em, err := svc.RegisterEmbeddingModel(ctx, f.admin.Requester(), domain.EmbeddingModelCreate{Provider: "openai", ModelName: "text-embedding-3-small"})
	require.NoError(t, err)

	lm, err := svc.RegisterLanguageModel(ctx, f.admin.Requester(), domain.LanguageModelCreate{
		Name:                "gpt-4o",
		Provider:            "openai",
		EmbeddingModelID:    em.ID,
		DefaultTokenLimit:   1024,
		DefaultContextLimit: 8000,
	})
	require.NoError(t, err)
	assert.Equal(t, em.ID, lm.EmbeddingModelID)

	_, err = svc.RegisterLanguageModel(ctx, f.admin.Requester(), domain.LanguageModelCreate{
		Name:                "gpt-4o",
		Provider:            "openai",
		EmbeddingModelID:    uuid.New(),
		DefaultTokenLimit:   1024,
		DefaultContextLimit: 8000,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.RegisterEmbeddingModel(ctx, f.admin.Requester(), domain.EmbeddingModelCreate{Provider: "word2vec", ModelName: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
