package memory

import (
	"context"
	"sync"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
)

// BuildJobStore keeps build jobs in a map. Jobs are copied in and out.
type BuildJobStore struct {
	mu     sync.RWMutex
	jobs   map[uuid.UUID]domain.BuildJob
	queued map[uuid.UUID]uuid.UUID
}

// NewBuildJobStore creates an empty job store
func NewBuildJobStore() *BuildJobStore {
	return &BuildJobStore{
		jobs:   make(map[uuid.UUID]domain.BuildJob),
		queued: make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *BuildJobStore) Save(_ context.Context, job *domain.BuildJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = *job
	if job.Status == domain.BuildJobQueued {
		s.queued[job.ChatbotID] = job.ID
	} else if s.queued[job.ChatbotID] == job.ID {
		delete(s.queued, job.ChatbotID)
	}
	return nil
}

func (s *BuildJobStore) Get(_ context.Context, id uuid.UUID) (*domain.BuildJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}
	return &job, nil
}

func (s *BuildJobStore) Queued(_ context.Context, chatbotID uuid.UUID) (*domain.BuildJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.queued[chatbotID]
	if !ok {
		return nil, nil
	}
	job := s.jobs[id]
	return &job, nil
}
