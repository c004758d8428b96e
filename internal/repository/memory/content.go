package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
)

// DocumentRepository keeps documents in a map
type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[uuid.UUID]domain.Document
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{docs: make(map[uuid.UUID]domain.Document)}
}

func (r *DocumentRepository) Create(_ context.Context, doc *domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// ListByChatbot returns the chatbot's documents in upload order
func (r *DocumentRepository) ListByChatbot(_ context.Context, chatbotID uuid.UUID) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Document
	for _, d := range r.docs {
		if d.ChatbotID == chatbotID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, update *domain.DocumentStatusUpdate) (int, error) {
	if !update.From.CanTransition(update.To) {
		return 0, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, update.From, update.To)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	n := 0
	for _, id := range update.DocumentIDs {
		d, ok := r.docs[id]
		if !ok || d.ChatbotID != update.ChatbotID || d.Status != update.From {
			continue
		}
		d.Status = update.To
		d.UpdatedAt = now
		r.docs[id] = d
		n++
	}
	return n, nil
}

func (r *DocumentRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}

// SnapshotRepository keeps snapshots in a map. Locators are held in the
// clear; nothing leaves the process.
type SnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]domain.Snapshot
	reserved  map[uuid.UUID]int
}

func NewSnapshotRepository() *SnapshotRepository {
	return &SnapshotRepository{
		snapshots: make(map[uuid.UUID]domain.Snapshot),
		reserved:  make(map[uuid.UUID]int),
	}
}

func (r *SnapshotRepository) CreateActive(_ context.Context, s *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.snapshots {
		if other.ChatbotID == s.ChatbotID && other.Version == s.Version {
			return fmt.Errorf("failed to create snapshot: version %d already exists", s.Version)
		}
		if other.ChatbotID == s.ChatbotID && other.IsActive {
			other.IsActive = false
			other.UpdatedAt = time.Now()
			r.snapshots[id] = other
		}
	}
	s.IsActive = true
	r.snapshots[s.ID] = *s
	return nil
}

func (r *SnapshotRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.snapshots[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SnapshotRepository) GetActive(_ context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active *domain.Snapshot
	for _, s := range r.snapshots {
		if s.ChatbotID != chatbotID || !s.IsActive {
			continue
		}
		if active == nil || s.UpdatedAt.After(active.UpdatedAt) {
			s := s
			active = &s
		}
	}
	return active, nil
}

// ListByChatbot returns the chatbot's snapshots, newest version first
func (r *SnapshotRepository) ListByChatbot(_ context.Context, chatbotID uuid.UUID) ([]domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Snapshot
	for _, s := range r.snapshots {
		if s.ChatbotID == chatbotID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (r *SnapshotRepository) ReserveVersion(_ context.Context, chatbotID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	latest := r.reserved[chatbotID]
	for _, s := range r.snapshots {
		if s.ChatbotID == chatbotID && s.Version > latest {
			latest = s.Version
		}
	}
	r.reserved[chatbotID] = latest + 1
	return latest + 1, nil
}

func (r *SnapshotRepository) Activate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.snapshots[id]
	if !ok {
		return fmt.Errorf("snapshot %s: %w", id, domain.ErrNotFound)
	}

	now := time.Now()
	for sid, s := range r.snapshots {
		if s.ChatbotID != target.ChatbotID {
			continue
		}
		active := sid == id
		if s.IsActive != active {
			s.IsActive = active
			s.UpdatedAt = now
			r.snapshots[sid] = s
		}
	}
	return nil
}

// SessionRepository keeps sessions and their messages in maps
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[domain.SessionRef]domain.ChatSession
	byID     map[uuid.UUID]domain.SessionRef
	messages map[uuid.UUID][]domain.Message
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[domain.SessionRef]domain.ChatSession),
		byID:     make(map[uuid.UUID]domain.SessionRef),
		messages: make(map[uuid.UUID][]domain.Message),
	}
}

func (r *SessionRepository) GetOrCreate(_ context.Context, ref domain.SessionRef, userID *uuid.UUID) (*domain.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[ref]; ok {
		return &s, nil
	}

	now := time.Now()
	s := domain.ChatSession{
		ID:        uuid.New(),
		ChatbotID: ref.ChatbotID,
		Key:       ref.Key,
		UserID:    userID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sessions[ref] = s
	r.byID[s.ID] = ref
	return &s, nil
}

func (r *SessionRepository) Get(_ context.Context, ref domain.SessionRef) (*domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[ref]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// ListByUser returns the user's sessions with a chatbot, most recent first
func (r *SessionRepository) ListByUser(_ context.Context, chatbotID, userID uuid.UUID, limit int) ([]domain.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.ChatSession
	for _, s := range r.sessions {
		if s.ChatbotID == chatbotID && s.UserID != nil && *s.UserID == userID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepository) AppendMessage(_ context.Context, sessionID uuid.UUID, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.byID[sessionID]
	if !ok || !r.sessions[ref].IsActive {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	now := time.Now()
	msgs := r.messages[sessionID]
	msg.ID = uuid.New()
	msg.SessionID = sessionID
	msg.Seq = int64(len(msgs)) + 1
	msg.CreatedAt = now
	r.messages[sessionID] = append(msgs, *msg)

	s := r.sessions[ref]
	s.UpdatedAt = now
	r.sessions[ref] = s
	return nil
}

func (r *SessionRepository) ListMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.messages[sessionID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (r *SessionRepository) Deactivate(_ context.Context, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ref, ok := r.byID[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	s := r.sessions[ref]
	s.IsActive = false
	s.UpdatedAt = time.Now()
	r.sessions[ref] = s
	return nil
}
