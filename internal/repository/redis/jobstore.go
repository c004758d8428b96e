package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	buildJobPrefix    = "kb:job:"
	buildQueuedPrefix = "kb:queued:"
)

// clearQueued drops the queued pointer only if it still names the job. It
// runs inside the save transaction, so it is sent with EVAL.
const clearQueued = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// BuildJobStore keeps build job status in Redis so any instance can answer
// status polls
type BuildJobStore struct {
	client *Client
	ttl    time.Duration
}

// NewBuildJobStore creates a new Redis job store. Finished jobs expire after ttl.
func NewBuildJobStore(client *Client, ttl time.Duration) *BuildJobStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BuildJobStore{client: client, ttl: ttl}
}

// Save writes the job and maintains the chatbot's queued pointer
func (s *BuildJobStore) Save(ctx context.Context, job *domain.BuildJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal build job: %w", err)
	}

	queuedKey := buildQueuedPrefix + job.ChatbotID.String()
	pipe := s.client.rdb.TxPipeline()
	pipe.Set(ctx, buildJobPrefix+job.ID.String(), data, s.ttl)
	if job.Status == domain.BuildJobQueued {
		pipe.Set(ctx, queuedKey, job.ID.String(), s.ttl)
	} else {
		pipe.Eval(ctx, clearQueued, []string{queuedKey}, job.ID.String())
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save build job: %w", err)
	}
	return nil
}

// Get retrieves a job by ID; an unknown or expired job returns nil, nil
func (s *BuildJobStore) Get(ctx context.Context, id uuid.UUID) (*domain.BuildJob, error) {
	data, err := s.client.rdb.Get(ctx, buildJobPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get build job: %w", err)
	}

	var job domain.BuildJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal build job: %w", err)
	}
	return &job, nil
}

// Queued returns the chatbot's job that has not started yet, or nil
func (s *BuildJobStore) Queued(ctx context.Context, chatbotID uuid.UUID) (*domain.BuildJob, error) {
	raw, err := s.client.rdb.Get(ctx, buildQueuedPrefix+chatbotID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get queued build: %w", err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}

	job, err := s.Get(ctx, id)
	if err != nil || job == nil || job.Status != domain.BuildJobQueued {
		return nil, err
	}
	return job, nil
}
