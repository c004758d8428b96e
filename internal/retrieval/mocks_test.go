package retrieval

import (
	"context"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/repository/memory"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotCache mocks the SnapshotCache interface
type MockSnapshotCache struct {
	mock.Mock
}

func (m *MockSnapshotCache) Get(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	args := m.Called(ctx, chatbotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

func (m *MockSnapshotCache) Set(ctx context.Context, s *domain.Snapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotCache) Invalidate(ctx context.Context, chatbotID uuid.UUID) error {
	args := m.Called(ctx, chatbotID)
	return args.Error(0)
}

// MockHandle mocks an opened vector store
type MockHandle struct {
	mock.Mock
}

func (m *MockHandle) Backend() string { return "mock" }

func (m *MockHandle) Describe() string { return "mock://test?collection=kb" }

func (m *MockHandle) Connect(ctx context.Context, loc vectorstore.Locator) error {
	return m.Called(ctx, loc).Error(0)
}

func (m *MockHandle) Close() error { return nil }

func (m *MockHandle) HealthCheck(ctx context.Context) error { return nil }

func (m *MockHandle) Index(ctx context.Context, records []vectorstore.Record) error {
	return m.Called(ctx, records).Error(0)
}

func (m *MockHandle) Search(ctx context.Context, query []float32, k int) ([]vectorstore.Match, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]vectorstore.Match), args.Error(1)
}

func (m *MockHandle) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockHandle) Drop(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// handleOpener always returns the same handle
type handleOpener struct {
	handle vectorstore.Handle
}

func (o handleOpener) Open(context.Context, string) (vectorstore.Handle, error) {
	return o.handle, nil
}

func newSnapshotRepo(snaps ...*domain.Snapshot) domain.SnapshotRepository {
	repo := memory.NewSnapshotRepository()
	for _, s := range snaps {
		if err := repo.CreateActive(context.Background(), s); err != nil {
			panic(err)
		}
	}
	return repo
}
