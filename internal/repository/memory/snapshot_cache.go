package memory

import (
	"context"
	"sync"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
)

// SnapshotCache holds active snapshots per chatbot without expiry.
// Invalidation on build and activation keeps it current.
type SnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]domain.Snapshot
}

func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{snapshots: make(map[uuid.UUID]domain.Snapshot)}
}

func (c *SnapshotCache) Get(_ context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.snapshots[chatbotID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *SnapshotCache) Set(_ context.Context, s *domain.Snapshot) error {
	c.mu.Lock()
	c.snapshots[s.ChatbotID] = *s
	c.mu.Unlock()
	return nil
}

func (c *SnapshotCache) Invalidate(_ context.Context, chatbotID uuid.UUID) error {
	c.mu.Lock()
	delete(c.snapshots, chatbotID)
	c.mu.Unlock()
	return nil
}
