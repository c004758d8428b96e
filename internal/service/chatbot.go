package service

import (
	"context"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
)

// ChatbotService handles chatbot and model configuration
type ChatbotService struct {
	chatbots       domain.ChatbotRepository
	models         domain.ModelRepository
	defaultBackend string
}

// NewChatbotService creates a new chatbot service
func NewChatbotService(chatbots domain.ChatbotRepository, models domain.ModelRepository, defaultBackend string) *ChatbotService {
	return &ChatbotService{chatbots: chatbots, models: models, defaultBackend: defaultBackend}
}

// Create creates a chatbot. Vendors always create for themselves; admins
// name the vendor. Limits default to the language model's.
func (s *ChatbotService) Create(ctx context.Context, requester *domain.Requester, input domain.ChatbotCreate) (*domain.Chatbot, error) {
	switch {
	case requester == nil:
		return nil, fmt.Errorf("%w: authentication required", domain.ErrUnauthorized)
	case requester.Role == domain.RequesterVendor && requester.VendorID != nil:
		input.VendorID = *requester.VendorID
	case requester.Role != domain.RequesterAdmin:
		return nil, fmt.Errorf("%w: only vendors and admins create chatbots", domain.ErrUnauthorized)
	}

	if err := validateInput(input); err != nil {
		return nil, err
	}

	lm, err := s.languageModel(ctx, input.LLMID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chatbot := &domain.Chatbot{
		ID:            uuid.New(),
		VendorID:      input.VendorID,
		Name:          input.Name,
		Description:   input.Description,
		SystemPrompt:  input.SystemPrompt,
		LLMID:         input.LLMID,
		VectorBackend: input.VectorBackend,
		Mode:          input.Mode,
		IsActive:      true,
		TokenLimit:    input.TokenLimit,
		ContextLimit:  input.ContextLimit,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if chatbot.VectorBackend == "" {
		chatbot.VectorBackend = s.defaultBackend
	}
	if chatbot.Mode == "" {
		chatbot.Mode = domain.ChatbotModePrivate
	}
	if chatbot.TokenLimit == 0 {
		chatbot.TokenLimit = lm.DefaultTokenLimit
	}
	if chatbot.ContextLimit == 0 {
		chatbot.ContextLimit = lm.DefaultContextLimit
	}

	if err := s.chatbots.Create(ctx, chatbot); err != nil {
		return nil, fmt.Errorf("failed to create chatbot: %w", err)
	}
	return chatbot, nil
}

// GetByID returns a chatbot the requester manages
func (s *ChatbotService) GetByID(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID) (*domain.Chatbot, error) {
	return managedChatbot(ctx, s.chatbots, chatbotID, requester)
}

// ListByVendor returns a vendor's chatbots
func (s *ChatbotService) ListByVendor(ctx context.Context, requester *domain.Requester, vendorID uuid.UUID) ([]domain.Chatbot, error) {
	if !canManage(requester, &domain.Chatbot{VendorID: vendorID}) {
		return nil, fmt.Errorf("%w: vendor %s", domain.ErrUnauthorized, vendorID)
	}
	chatbots, err := s.chatbots.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chatbots: %w", err)
	}
	return chatbots, nil
}

// Update applies a validated update to a chatbot
func (s *ChatbotService) Update(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID, input domain.ChatbotUpdate) (*domain.Chatbot, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	chatbot, err := managedChatbot(ctx, s.chatbots, chatbotID, requester)
	if err != nil {
		return nil, err
	}

	if input.LLMID != nil {
		if _, err := s.languageModel(ctx, *input.LLMID); err != nil {
			return nil, err
		}
	}

	input.Apply(chatbot)
	if err := s.chatbots.Update(ctx, chatbot); err != nil {
		return nil, fmt.Errorf("failed to update chatbot: %w", err)
	}
	return chatbot, nil
}

// RegisterEmbeddingModel records an embedding provider and model. Admin only.
func (s *ChatbotService) RegisterEmbeddingModel(ctx context.Context, requester *domain.Requester, input domain.EmbeddingModelCreate) (*domain.EmbeddingModel, error) {
	if requester == nil || requester.Role != domain.RequesterAdmin {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrUnauthorized)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	m := &domain.EmbeddingModel{
		ID:        uuid.New(),
		Provider:  input.Provider,
		ModelName: input.ModelName,
		CreatedAt: time.Now(),
	}
	if err := s.models.CreateEmbeddingModel(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create embedding model: %w", err)
	}
	return m, nil
}

// RegisterLanguageModel records a generation model bound to an embedding
// model. Admin only.
func (s *ChatbotService) RegisterLanguageModel(ctx context.Context, requester *domain.Requester, input domain.LanguageModelCreate) (*domain.LanguageModel, error) {
	if requester == nil || requester.Role != domain.RequesterAdmin {
		return nil, fmt.Errorf("%w: admin access required", domain.ErrUnauthorized)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	em, err := s.models.GetEmbeddingModel(ctx, input.EmbeddingModelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding model: %w", err)
	}
	if em == nil {
		return nil, fmt.Errorf("embedding model %s: %w", input.EmbeddingModelID, domain.ErrNotFound)
	}

	m := &domain.LanguageModel{
		ID:                  uuid.New(),
		Name:                input.Name,
		Provider:            input.Provider,
		EmbeddingModelID:    input.EmbeddingModelID,
		DefaultTokenLimit:   input.DefaultTokenLimit,
		DefaultContextLimit: input.DefaultContextLimit,
		CreatedAt:           time.Now(),
	}
	if err := s.models.CreateLanguageModel(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create language model: %w", err)
	}
	return m, nil
}

func (s *ChatbotService) languageModel(ctx context.Context, id uuid.UUID) (*domain.LanguageModel, error) {
	lm, err := s.models.GetLanguageModel(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get language model: %w", err)
	}
	if lm == nil {
		return nil, fmt.Errorf("language model %s: %w", id, domain.ErrNotFound)
	}
	return lm, nil
}
