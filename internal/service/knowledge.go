package service

import (
	"context"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
)

// KnowledgeBuilder runs a knowledge-base build synchronously
type KnowledgeBuilder interface {
	Build(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error)
}

// BuildQueue schedules background builds
type BuildQueue interface {
	Submit(ctx context.Context, chatbotID uuid.UUID) (*domain.BuildJob, error)
	Status(ctx context.Context, jobID uuid.UUID) (*domain.BuildJob, error)
}

// SnapshotInvalidator drops cached active snapshots
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, chatbotID uuid.UUID)
}

// BuildResult is a finished snapshot for synchronous builds or the queued
// job for asynchronous ones
type BuildResult struct {
	Snapshot *domain.SnapshotInfo `json:"snapshot,omitempty"`
	Job      *domain.BuildJob     `json:"job,omitempty"`
}

// KnowledgeService manages knowledge-base builds and snapshots
type KnowledgeService struct {
	chatbots  domain.ChatbotRepository
	snapshots domain.SnapshotRepository
	builder   KnowledgeBuilder
	queue     BuildQueue
	cache     SnapshotInvalidator
	async     bool
}

// NewKnowledgeService creates a new knowledge service. With async set,
// Build queues a job instead of building inline.
func NewKnowledgeService(
	chatbots domain.ChatbotRepository,
	snapshots domain.SnapshotRepository,
	builder KnowledgeBuilder,
	queue BuildQueue,
	cache SnapshotInvalidator,
	async bool,
) *KnowledgeService {
	return &KnowledgeService{
		chatbots:  chatbots,
		snapshots: snapshots,
		builder:   builder,
		queue:     queue,
		cache:     cache,
		async:     async,
	}
}

// Async reports whether builds are queued
func (s *KnowledgeService) Async() bool {
	return s.async
}

// Build creates a new snapshot from the chatbot's documents
func (s *KnowledgeService) Build(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID) (*BuildResult, error) {
	if _, err := managedChatbot(ctx, s.chatbots, chatbotID, requester); err != nil {
		return nil, err
	}

	if s.async {
		job, err := s.queue.Submit(ctx, chatbotID)
		if err != nil {
			return nil, err
		}
		return &BuildResult{Job: job}, nil
	}

	snap, err := s.builder.Build(ctx, chatbotID)
	if err != nil {
		return nil, err
	}
	info := snapshotInfo(snap)
	return &BuildResult{Snapshot: &info}, nil
}

// JobStatus returns a queued build's state
func (s *KnowledgeService) JobStatus(ctx context.Context, requester *domain.Requester, jobID uuid.UUID) (*domain.BuildJob, error) {
	job, err := s.queue.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if _, err := managedChatbot(ctx, s.chatbots, job.ChatbotID, requester); err != nil {
		return nil, err
	}
	return job, nil
}

// ListSnapshots returns the chatbot's snapshots, newest version first
func (s *KnowledgeService) ListSnapshots(ctx context.Context, requester *domain.Requester, chatbotID uuid.UUID) ([]domain.SnapshotInfo, error) {
	if _, err := managedChatbot(ctx, s.chatbots, chatbotID, requester); err != nil {
		return nil, err
	}

	snaps, err := s.snapshots.ListByChatbot(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	infos := make([]domain.SnapshotInfo, len(snaps))
	for i := range snaps {
		infos[i] = snapshotInfo(&snaps[i])
	}
	return infos, nil
}

// Activate makes an earlier snapshot the one conversations retrieve from
func (s *KnowledgeService) Activate(ctx context.Context, requester *domain.Requester, snapshotID uuid.UUID) (*domain.SnapshotInfo, error) {
	snap, err := s.snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("snapshot %s: %w", snapshotID, domain.ErrNotFound)
	}
	if _, err := managedChatbot(ctx, s.chatbots, snap.ChatbotID, requester); err != nil {
		return nil, err
	}

	if err := s.snapshots.Activate(ctx, snapshotID); err != nil {
		return nil, fmt.Errorf("failed to activate snapshot: %w", err)
	}
	s.cache.Invalidate(ctx, snap.ChatbotID)

	snap.IsActive = true
	info := snapshotInfo(snap)
	return &info, nil
}

func snapshotInfo(s *domain.Snapshot) domain.SnapshotInfo {
	redacted := "invalid"
	if loc, err := vectorstore.ParseLocator(s.Locator); err == nil {
		redacted = loc.Redacted()
	}
	return s.ToInfo(redacted)
}
