package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
)

// UserRepository keeps accounts in a map
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]domain.User)}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("failed to create user: email %s already registered", user.Email)
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) Ensure(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return nil
	}
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil
		}
	}
	r.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

// ChatbotRepository keeps chatbots in a map
type ChatbotRepository struct {
	mu       sync.RWMutex
	chatbots map[uuid.UUID]domain.Chatbot
}

func NewChatbotRepository() *ChatbotRepository {
	return &ChatbotRepository{chatbots: make(map[uuid.UUID]domain.Chatbot)}
}

func (r *ChatbotRepository) Create(_ context.Context, chatbot *domain.Chatbot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chatbots[chatbot.ID] = *chatbot
	return nil
}

func (r *ChatbotRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Chatbot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.chatbots[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// ListByVendor returns the vendor's chatbots, newest first
func (r *ChatbotRepository) ListByVendor(_ context.Context, vendorID uuid.UUID) ([]domain.Chatbot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Chatbot
	for _, c := range r.chatbots {
		if c.VendorID == vendorID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ChatbotRepository) Update(_ context.Context, chatbot *domain.Chatbot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chatbots[chatbot.ID]; !ok {
		return fmt.Errorf("chatbot %s: %w", chatbot.ID, domain.ErrNotFound)
	}
	chatbot.UpdatedAt = time.Now()
	r.chatbots[chatbot.ID] = *chatbot
	return nil
}

// ModelRepository keeps language and embedding models in maps
type ModelRepository struct {
	mu        sync.RWMutex
	languages map[uuid.UUID]domain.LanguageModel
	embedding map[uuid.UUID]domain.EmbeddingModel
}

func NewModelRepository() *ModelRepository {
	return &ModelRepository{
		languages: make(map[uuid.UUID]domain.LanguageModel),
		embedding: make(map[uuid.UUID]domain.EmbeddingModel),
	}
}

func (r *ModelRepository) CreateLanguageModel(_ context.Context, m *domain.LanguageModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.embedding[m.EmbeddingModelID]; !ok {
		return fmt.Errorf("embedding model %s: %w", m.EmbeddingModelID, domain.ErrNotFound)
	}
	r.languages[m.ID] = *m
	return nil
}

func (r *ModelRepository) CreateEmbeddingModel(_ context.Context, m *domain.EmbeddingModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedding[m.ID] = *m
	return nil
}

func (r *ModelRepository) GetLanguageModel(_ context.Context, id uuid.UUID) (*domain.LanguageModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.languages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r *ModelRepository) GetEmbeddingModel(_ context.Context, id uuid.UUID) (*domain.EmbeddingModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.embedding[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// CredentialRepository keeps access credentials in a map
type CredentialRepository struct {
	mu    sync.RWMutex
	creds map[uuid.UUID]domain.AccessCredential
}

func NewCredentialRepository() *CredentialRepository {
	return &CredentialRepository{creds: make(map[uuid.UUID]domain.AccessCredential)}
}

// Create revokes any active credential for the same triple and stores cred.
func (r *CredentialRepository) Create(_ context.Context, cred *domain.AccessCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for id, c := range r.creds {
		if c.Status == domain.CredentialActive && sameTriple(c, cred) {
			c.Status = domain.CredentialRevoked
			c.UpdatedAt = now
			r.creds[id] = c
		}
	}
	r.creds[cred.ID] = *cred
	return nil
}

func sameTriple(a domain.AccessCredential, b *domain.AccessCredential) bool {
	return a.UserID == b.UserID && a.ChatbotID == b.ChatbotID && a.VendorID == b.VendorID
}

func (r *CredentialRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.AccessCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.creds[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CredentialRepository) FindActive(_ context.Context, userID, chatbotID, vendorID uuid.UUID) (*domain.AccessCredential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := &domain.AccessCredential{UserID: userID, ChatbotID: chatbotID, VendorID: vendorID}
	for _, c := range r.creds {
		if c.Status == domain.CredentialActive && sameTriple(c, want) {
			return &c, nil
		}
	}
	return nil, nil
}

func (r *CredentialRepository) Revoke(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.creds[id]
	if !ok {
		return fmt.Errorf("credential %s: %w", id, domain.ErrNotFound)
	}
	c.Status = domain.CredentialRevoked
	c.UpdatedAt = time.Now()
	r.creds[id] = c
	return nil
}
