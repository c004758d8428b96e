package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/security"
	"github.com/google/uuid"
)

// CredentialService issues and revokes access credentials for private chatbots
type CredentialService struct {
	chatbots    domain.ChatbotRepository
	users       domain.UserRepository
	credentials domain.CredentialRepository
}

// NewCredentialService creates a new credential service
func NewCredentialService(chatbots domain.ChatbotRepository, users domain.UserRepository, credentials domain.CredentialRepository) *CredentialService {
	return &CredentialService{chatbots: chatbots, users: users, credentials: credentials}
}

// Issue grants a user access to the chatbot. The raw key is returned once;
// any earlier active credential for the same user and chatbot is revoked.
func (s *CredentialService) Issue(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, input domain.CredentialCreate) (*domain.IssuedCredential, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	chatbot, err := managedChatbot(ctx, s.chatbots, chatbotID, requester)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", input.UserID, domain.ErrNotFound)
	}

	key, err := security.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cred := &domain.AccessCredential{
		ID:        uuid.New(),
		VendorID:  chatbot.VendorID,
		UserID:    user.ID,
		ChatbotID: chatbot.ID,
		KeyPrefix: key.Prefix,
		KeyHash:   key.Hash,
		Status:    domain.CredentialActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	return &domain.IssuedCredential{Credential: *cred, Key: key.Raw}, nil
}

// Revoke disables a credential
func (s *CredentialService) Revoke(ctx context.Context, requester *domain.Requester, credentialID uuid.UUID) error {
	if requester == nil {
		return fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}

	cred, err := s.credentials.GetByID(ctx, credentialID)
	if err != nil {
		return fmt.Errorf("failed to get credential: %w", err)
	}
	if cred == nil {
		return fmt.Errorf("credential %s: %w", credentialID, domain.ErrNotFound)
	}
	if _, err := managedChatbot(ctx, s.chatbots, cred.ChatbotID, requester); err != nil {
		return err
	}

	if err := s.credentials.Revoke(ctx, credentialID); err != nil {
		return fmt.Errorf("failed to revoke credential: %w", err)
	}
	return nil
}
