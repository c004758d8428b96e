package knowledgebase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/metrics"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrQueueFull is returned by Submit when no queue slot is free. It matches
// domain.ErrBuildInProgress.
var ErrQueueFull = fmt.Errorf("%w: build queue is full", domain.ErrBuildInProgress)

// errWorkerStopped is recorded on jobs still queued at shutdown.
var errWorkerStopped = errors.New("worker stopped before the build started")

// Runner runs one build
type Runner interface {
	Build(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error)
}

// Worker runs builds in the background. A chatbot has at most one running
// and one queued job; submitting while a job is queued returns that job, and
// submitting while one only runs queues a follow-up that starts after it.
type Worker struct {
	runner  Runner
	jobs    domain.BuildJobStore
	workers int
	queue   chan uuid.UUID
	// retryDelay spaces attempts while another process holds the build lock
	retryDelay time.Duration

	submitMu sync.Mutex
	chatbots *chatbotLocks

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWorker creates a worker with the given concurrency and queue size
func NewWorker(runner Runner, jobs domain.BuildJobStore, workers, queueSize int) *Worker {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		runner:     runner,
		jobs:       jobs,
		workers:    workers,
		queue:      make(chan uuid.UUID, queueSize),
		retryDelay: 2 * time.Second,
		chatbots:   &chatbotLocks{locks: make(map[uuid.UUID]*chatbotLock)},
	}
}

// Start launches the worker goroutines. Builds run under ctx.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})

	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx, w.stopCh)
	}
	log.Info().Int("workers", w.workers).Int("queue", cap(w.queue)).Msg("build worker started")
}

// Stop waits for running builds and fails the jobs still queued.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	w.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		select {
		case id := <-w.queue:
			w.finish(ctx, id, nil, errWorkerStopped)
		default:
			metrics.QueueDepth.Set(0)
			log.Info().Msg("build worker stopped")
			return
		}
	}
}

// Submit queues a build for the chatbot and returns its job.
func (w *Worker) Submit(ctx context.Context, chatbotID uuid.UUID) (*domain.BuildJob, error) {
	w.submitMu.Lock()
	defer w.submitMu.Unlock()

	queued, err := w.jobs.Queued(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to check queued build: %w", err)
	}
	if queued != nil {
		return queued, nil
	}

	now := time.Now()
	job := &domain.BuildJob{
		ID:        uuid.New(),
		ChatbotID: chatbotID,
		Status:    domain.BuildJobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := w.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to save build job: %w", err)
	}

	select {
	case w.queue <- job.ID:
		metrics.QueueDepth.Set(float64(len(w.queue)))
		return job, nil
	default:
		job.Status = domain.BuildJobFailed
		job.Error = ErrQueueFull.Error()
		job.UpdatedAt = time.Now()
		if err := w.jobs.Save(ctx, job); err != nil {
			log.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to save rejected build job")
		}
		return nil, ErrQueueFull
	}
}

// Status returns a job by ID
func (w *Worker) Status(ctx context.Context, jobID uuid.UUID) (*domain.BuildJob, error) {
	job, err := w.jobs.Get(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get build job: %w", err)
	}
	if job == nil {
		return nil, fmt.Errorf("build job %s: %w", jobID, domain.ErrNotFound)
	}
	return job, nil
}

func (w *Worker) loop(ctx context.Context, stop <-chan struct{}) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case id := <-w.queue:
			metrics.QueueDepth.Set(float64(len(w.queue)))
			w.run(ctx, stop, id)
		}
	}
}

func (w *Worker) run(ctx context.Context, stop <-chan struct{}, jobID uuid.UUID) {
	job, err := w.jobs.Get(ctx, jobID)
	if err != nil || job == nil {
		log.Error().Err(err).Str("job_id", jobID.String()).Msg("build job vanished from the store")
		return
	}

	// A follow-up waits here for the chatbot's running job.
	unlock := w.chatbots.lock(job.ChatbotID)
	defer unlock()

	job.Status = domain.BuildJobRunning
	job.UpdatedAt = time.Now()
	if err := w.jobs.Save(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", jobID.String()).Msg("failed to mark build job running")
	}

	snap, err := w.build(ctx, stop, job.ChatbotID)
	w.finish(context.WithoutCancel(ctx), jobID, snap, err)
}

// build retries while the build lock is held elsewhere, such as by another
// instance or a synchronous build.
func (w *Worker) build(ctx context.Context, stop <-chan struct{}, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	for {
		snap, err := w.runner.Build(ctx, chatbotID)
		if !errors.Is(err, domain.ErrBuildInProgress) {
			return snap, err
		}

		log.Debug().Str("chatbot_id", chatbotID.String()).Msg("build lock busy, retrying")
		select {
		case <-ctx.Done():
			return nil, err
		case <-stop:
			return nil, err
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *Worker) finish(ctx context.Context, jobID uuid.UUID, snap *domain.Snapshot, buildErr error) {
	job, err := w.jobs.Get(ctx, jobID)
	if err != nil || job == nil {
		log.Error().Err(err).Str("job_id", jobID.String()).Msg("failed to load build job")
		return
	}

	job.UpdatedAt = time.Now()
	if buildErr != nil {
		job.Status = domain.BuildJobFailed
		job.Error = buildErr.Error()
	} else {
		job.Status = domain.BuildJobSucceeded
		job.SnapshotID = &snap.ID
	}

	if err := w.jobs.Save(ctx, job); err != nil {
		log.Error().Err(err).Str("job_id", jobID.String()).Msg("failed to save build job result")
	}
}

// chatbotLocks serializes the jobs of one chatbot inside this process
type chatbotLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*chatbotLock
}

type chatbotLock struct {
	mu   sync.Mutex
	refs int
}

func (c *chatbotLocks) lock(id uuid.UUID) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &chatbotLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
