package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BuildJobStatus is the state of a background knowledge-base build
type BuildJobStatus string

const (
	BuildJobQueued    BuildJobStatus = "queued"
	BuildJobRunning   BuildJobStatus = "running"
	BuildJobSucceeded BuildJobStatus = "succeeded"
	BuildJobFailed    BuildJobStatus = "failed"
)

// Done reports whether the job reached a terminal state.
func (s BuildJobStatus) Done() bool {
	return s == BuildJobSucceeded || s == BuildJobFailed
}

// BuildJob tracks one queued build for status polling
type BuildJob struct {
	ID         uuid.UUID      `json:"id"`
	ChatbotID  uuid.UUID      `json:"chatbot_id"`
	Status     BuildJobStatus `json:"status"`
	SnapshotID *uuid.UUID     `json:"snapshot_id,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// BuildJobStore persists build job status
type BuildJobStore interface {
	Save(ctx context.Context, job *BuildJob) error
	Get(ctx context.Context, id uuid.UUID) (*BuildJob, error)
	// Queued returns the chatbot's job that has not started yet, or nil. A
	// running job is not returned: it listed its documents already.
	Queued(ctx context.Context, chatbotID uuid.UUID) (*BuildJob, error)
}

// BuildLocker grants the exclusive per-chatbot build lock. TryLock returns
// ErrBuildInProgress when the lock is held elsewhere.
type BuildLocker interface {
	TryLock(ctx context.Context, chatbotID uuid.UUID) (unlock func(), err error)
}
