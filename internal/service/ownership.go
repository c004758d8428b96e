package service

import (
	"context"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// validateInput runs struct validation and maps failures to ErrInvalidInput
func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	return nil
}

// canManage reports whether the requester administers the chatbot's vendor
func canManage(requester *domain.Requester, chatbot *domain.Chatbot) bool {
	if requester == nil {
		return false
	}
	switch requester.Role {
	case domain.RequesterAdmin:
		return true
	case domain.RequesterVendor:
		return requester.VendorID != nil && *requester.VendorID == chatbot.VendorID
	default:
		return false
	}
}

// managedChatbot loads a chatbot the requester may manage. Inactive
// chatbots are returned; management works on them too.
func managedChatbot(ctx context.Context, chatbots domain.ChatbotRepository, chatbotID uuid.UUID, requester *domain.Requester) (*domain.Chatbot, error) {
	if requester == nil {
		return nil, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	}

	chatbot, err := chatbots.GetByID(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chatbot: %w", err)
	}
	if chatbot == nil {
		return nil, fmt.Errorf("chatbot %s: %w", chatbotID, domain.ErrNotFound)
	}
	if !canManage(requester, chatbot) {
		return nil, fmt.Errorf("%w: chatbot %s belongs to another vendor", domain.ErrUnauthorized, chatbotID)
	}
	return chatbot, nil
}
