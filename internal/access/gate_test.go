package access

import (
	"context"
	"errors"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/security"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_Authorize(t *testing.T) {
	ctx := context.Background()
	vendorID := uuid.New()
	user := &domain.Requester{UserID: uuid.New(), Role: domain.RequesterExternal}

	key, err := security.GenerateAPIKey()
	require.NoError(t, err)
	other, err := security.GenerateAPIKey()
	require.NoError(t, err)

	newChatbot := func(mode domain.ChatbotMode, active bool) *domain.Chatbot {
		return &domain.Chatbot{ID: uuid.New(), VendorID: vendorID, Mode: mode, IsActive: active}
	}
	credential := &domain.AccessCredential{
		ID:       uuid.New(),
		VendorID: vendorID,
		UserID:   user.UserID,
		KeyHash:  key.Hash,
		Status:   domain.CredentialActive,
	}

	tests := []struct {
		name       string
		chatbot    *domain.Chatbot
		kind       Kind
		requester  *domain.Requester
		credential *domain.AccessCredential
		lookup     bool
		wantErr    error
	}{
		{
			name:    "ask on private chatbot needs nothing",
			chatbot: newChatbot(domain.ChatbotModePrivate, true),
			kind:    KindAsk,
		},
		{
			name:    "ask on inactive chatbot",
			chatbot: newChatbot(domain.ChatbotModePublic, false),
			kind:    KindAsk,
			wantErr: domain.ErrNotFound,
		},
		{
			name:    "anonymous chat on private chatbot",
			chatbot: newChatbot(domain.ChatbotModePrivate, true),
			kind:    KindChat,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:    "anonymous chat on public chatbot",
			chatbot: newChatbot(domain.ChatbotModePublic, true),
			kind:    KindChat,
			wantErr: domain.ErrUnauthorized,
		},
		{
			name:      "chat on public chatbot",
			chatbot:   newChatbot(domain.ChatbotModePublic, true),
			kind:      KindChat,
			requester: user,
		},
		{
			name:      "chat on private chatbot without credential",
			chatbot:   newChatbot(domain.ChatbotModePrivate, true),
			kind:      KindChat,
			requester: user,
			lookup:    true,
			wantErr:   domain.ErrUnauthorized,
		},
		{
			name:       "chat on private chatbot with credential",
			chatbot:    newChatbot(domain.ChatbotModePrivate, true),
			kind:       KindChat,
			requester:  user,
			credential: credential,
			lookup:     true,
		},
		{
			name:       "presented key matches",
			chatbot:    newChatbot(domain.ChatbotModePrivate, true),
			kind:       KindChat,
			requester:  &domain.Requester{UserID: user.UserID, Role: user.Role, APIKey: key.Raw},
			credential: credential,
			lookup:     true,
		},
		{
			name:       "presented key belongs to someone else",
			chatbot:    newChatbot(domain.ChatbotModePrivate, true),
			kind:       KindChat,
			requester:  &domain.Requester{UserID: user.UserID, Role: user.Role, APIKey: other.Raw},
			credential: credential,
			lookup:     true,
			wantErr:    domain.ErrUnauthorized,
		},
		{
			name:      "owning vendor still needs a credential",
			chatbot:   newChatbot(domain.ChatbotModePrivate, true),
			kind:      KindChat,
			requester: &domain.Requester{UserID: vendorID, Role: domain.RequesterVendor, VendorID: &vendorID},
			lookup:    true,
			wantErr:   domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chatbots := new(MockChatbotRepository)
			creds := new(MockCredentialRepository)
			chatbots.On("GetByID", ctx, tt.chatbot.ID).Return(tt.chatbot, nil)
			if tt.lookup {
				if tt.credential != nil {
					creds.On("FindActive", ctx, tt.requester.UserID, tt.chatbot.ID, vendorID).Return(tt.credential, nil)
				} else {
					creds.On("FindActive", ctx, tt.requester.UserID, tt.chatbot.ID, vendorID).Return(nil, nil)
				}
			}

			gate := NewGate(chatbots, creds)
			got, err := gate.Authorize(ctx, tt.chatbot.ID, tt.kind, tt.requester)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.chatbot.ID, got.ID)
			}
			chatbots.AssertExpectations(t)
			creds.AssertExpectations(t)
		})
	}
}

func TestGate_UnknownChatbot(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	chatbots := new(MockChatbotRepository)
	chatbots.On("GetByID", ctx, id).Return(nil, nil)

	_, err := NewGate(chatbots, new(MockCredentialRepository)).Authorize(ctx, id, KindAsk, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGate_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	chatbot := &domain.Chatbot{ID: uuid.New(), VendorID: uuid.New(), Mode: domain.ChatbotModePrivate, IsActive: true}
	requester := &domain.Requester{UserID: uuid.New()}

	chatbots := new(MockChatbotRepository)
	chatbots.On("GetByID", ctx, chatbot.ID).Return(chatbot, nil)
	creds := new(MockCredentialRepository)
	creds.On("FindActive", ctx, requester.UserID, chatbot.ID, chatbot.VendorID).Return(nil, errors.New("db down"))

	_, err := NewGate(chatbots, creds).Authorize(ctx, chatbot.ID, KindChat, requester)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrUnauthorized)
}
