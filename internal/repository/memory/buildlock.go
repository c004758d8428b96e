// Package memory holds single-process implementations of the coordination
// stores, used when Redis is not configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
)

// BuildLocker is an in-process per-chatbot build lock
type BuildLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

// NewBuildLocker creates an empty lock table
func NewBuildLocker() *BuildLocker {
	return &BuildLocker{held: make(map[uuid.UUID]struct{})}
}

// TryLock acquires the chatbot's lock or fails with ErrBuildInProgress.
// The returned unlock is idempotent.
func (l *BuildLocker) TryLock(_ context.Context, chatbotID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[chatbotID]; ok {
		return nil, fmt.Errorf("chatbot %s: %w", chatbotID, domain.ErrBuildInProgress)
	}
	l.held[chatbotID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, chatbotID)
			l.mu.Unlock()
		})
	}, nil
}
