package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/memory"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/retrieval"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLLMProvider mocks llm.Provider
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) AvailableModels() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockLLMProvider) DefaultModel() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLLMProvider) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLLMProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockProviderSource mocks ProviderSource
type MockProviderSource struct {
	mock.Mock
}

func (m *MockProviderSource) GetProvider(name string) (llm.Provider, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Provider), args.Error(1)
}

// MockSnapshotResolver mocks SnapshotResolver
type MockSnapshotResolver struct {
	mock.Mock
}

func (m *MockSnapshotResolver) Active(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	args := m.Called(ctx, chatbotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotResolver) Invalidate(ctx context.Context, chatbotID uuid.UUID) {
	m.Called(ctx, chatbotID)
}

// MockRetriever mocks ContextRetriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, question string, snap *domain.Snapshot, cfg *domain.EmbeddingModel, k int) (*retrieval.Result, error) {
	args := m.Called(ctx, question, snap, cfg, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Result), args.Error(1)
}

// MockBuildQueue mocks BuildQueue
type MockBuildQueue struct {
	mock.Mock
}

func (m *MockBuildQueue) Submit(ctx context.Context, chatbotID uuid.UUID) (*domain.BuildJob, error) {
	args := m.Called(ctx, chatbotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BuildJob), args.Error(1)
}

func (m *MockBuildQueue) Status(ctx context.Context, jobID uuid.UUID) (*domain.BuildJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BuildJob), args.Error(1)
}

// MockKnowledgeBuilder mocks KnowledgeBuilder
type MockKnowledgeBuilder struct {
	mock.Mock
}

func (m *MockKnowledgeBuilder) Build(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	args := m.Called(ctx, chatbotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

// extFormats accepts files by extension
type extFormats map[string]bool

func (f extFormats) Supported(path string) bool {
	for ext := range f {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// fixture is a vendor with one private chatbot, an external user and the
// models the chatbot answers with
type fixture struct {
	users       *memory.UserRepository
	chatbots    *memory.ChatbotRepository
	models      *memory.ModelRepository
	credentials *memory.CredentialRepository
	documents   *memory.DocumentRepository
	snapshots   *memory.SnapshotRepository
	sessions    *memory.SessionRepository

	vendor    *domain.User
	external  *domain.User
	admin     *domain.User
	embedding *domain.EmbeddingModel
	language  *domain.LanguageModel
	chatbot   *domain.Chatbot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	f := &fixture{
		users:       memory.NewUserRepository(),
		chatbots:    memory.NewChatbotRepository(),
		models:      memory.NewModelRepository(),
		credentials: memory.NewCredentialRepository(),
		documents:   memory.NewDocumentRepository(),
		snapshots:   memory.NewSnapshotRepository(),
		sessions:    memory.NewSessionRepository(),
	}

	newUser := func(email string, role domain.RequesterRole) *domain.User {
		u := &domain.User{ID: uuid.New(), Email: email, Role: role, IsActive: true, CreatedAt: now, UpdatedAt: now}
		require.NoError(t, f.users.Create(ctx, u))
		return u
	}
	f.vendor = newUser("vendor@example.com", domain.RequesterVendor)
	f.external = newUser("user@example.com", domain.RequesterExternal)
	f.admin = newUser("admin@example.com", domain.RequesterAdmin)

	f.embedding = &domain.EmbeddingModel{ID: uuid.New(), Provider: "local", ModelName: "hash-64", CreatedAt: now}
	require.NoError(t, f.models.CreateEmbeddingModel(ctx, f.embedding))
	f.language = &domain.LanguageModel{
		ID:                  uuid.New(),
		Name:                "gpt-4o-mini",
		Provider:            "openai",
		EmbeddingModelID:    f.embedding.ID,
		DefaultTokenLimit:   512,
		DefaultContextLimit: 2000,
		CreatedAt:           now,
	}
	require.NoError(t, f.models.CreateLanguageModel(ctx, f.language))

	f.chatbot = &domain.Chatbot{
		ID:            uuid.New(),
		VendorID:      f.vendor.ID,
		Name:          "support",
		LLMID:         f.language.ID,
		VectorBackend: "chromem",
		Mode:          domain.ChatbotModePrivate,
		IsActive:      true,
		TokenLimit:    256,
		ContextLimit:  1000,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, f.chatbots.Create(ctx, f.chatbot))
	return f
}
