package access

import (
	"context"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChatbotRepository mocks the ChatbotRepository interface
type MockChatbotRepository struct {
	mock.Mock
}

func (m *MockChatbotRepository) Create(ctx context.Context, chatbot *domain.Chatbot) error {
	args := m.Called(ctx, chatbot)
	return args.Error(0)
}

func (m *MockChatbotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Chatbot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chatbot), args.Error(1)
}

func (m *MockChatbotRepository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]domain.Chatbot, error) {
	args := m.Called(ctx, vendorID)
	return args.Get(0).([]domain.Chatbot), args.Error(1)
}

func (m *MockChatbotRepository) Update(ctx context.Context, chatbot *domain.Chatbot) error {
	args := m.Called(ctx, chatbot)
	return args.Error(0)
}

// MockCredentialRepository mocks the CredentialRepository interface
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, cred *domain.AccessCredential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessCredential, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessCredential), args.Error(1)
}

func (m *MockCredentialRepository) FindActive(ctx context.Context, userID, chatbotID, vendorID uuid.UUID) (*domain.AccessCredential, error) {
	args := m.Called(ctx, userID, chatbotID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccessCredential), args.Error(1)
}

func (m *MockCredentialRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
