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
	snapshotCachePrefix = "snapshot:active:"
	snapshotCacheTTL    = 5 * time.Minute
)

// LocatorCipher seals locators before they leave the process
type LocatorCipher interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// cachedSnapshot mirrors domain.Snapshot with the locator kept sealed
type cachedSnapshot struct {
	ID            uuid.UUID `json:"id"`
	ChatbotID     uuid.UUID `json:"chatbot_id"`
	Name          string    `json:"name"`
	Version       int       `json:"version"`
	Locator       string    `json:"locator"`
	DocumentCount int       `json:"document_count"`
	ChunkCount    int       `json:"chunk_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SnapshotCache caches each chatbot's active snapshot in Redis
type SnapshotCache struct {
	client *Client
	cipher LocatorCipher
}

// NewSnapshotCache creates a new snapshot cache
func NewSnapshotCache(client *Client, cipher LocatorCipher) *SnapshotCache {
	return &SnapshotCache{client: client, cipher: cipher}
}

func snapshotKey(chatbotID uuid.UUID) string {
	return fmt.Sprintf("%s%s", snapshotCachePrefix, chatbotID.String())
}

// Get retrieves the cached active snapshot; a miss returns nil, nil
func (c *SnapshotCache) Get(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	data, err := c.client.rdb.Get(ctx, snapshotKey(chatbotID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot cache: %w", err)
	}

	var cached cachedSnapshot
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	locator, err := c.cipher.DecryptString(cached.Locator)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt cached locator: %w", err)
	}

	return &domain.Snapshot{
		ID:            cached.ID,
		ChatbotID:     cached.ChatbotID,
		Name:          cached.Name,
		Version:       cached.Version,
		Locator:       locator,
		DocumentCount: cached.DocumentCount,
		ChunkCount:    cached.ChunkCount,
		IsActive:      true,
		CreatedAt:     cached.CreatedAt,
		UpdatedAt:     cached.UpdatedAt,
	}, nil
}

// Set caches s as its chatbot's active snapshot
func (c *SnapshotCache) Set(ctx context.Context, s *domain.Snapshot) error {
	sealed, err := c.cipher.EncryptString(s.Locator)
	if err != nil {
		return fmt.Errorf("failed to encrypt locator: %w", err)
	}

	data, err := json.Marshal(cachedSnapshot{
		ID:            s.ID,
		ChatbotID:     s.ChatbotID,
		Name:          s.Name,
		Version:       s.Version,
		Locator:       sealed,
		DocumentCount: s.DocumentCount,
		ChunkCount:    s.ChunkCount,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return c.client.rdb.Set(ctx, snapshotKey(s.ChatbotID), data, snapshotCacheTTL).Err()
}

// Invalidate removes the cached snapshot for a chatbot
func (c *SnapshotCache) Invalidate(ctx context.Context, chatbotID uuid.UUID) error {
	return c.client.rdb.Del(ctx, snapshotKey(chatbotID)).Err()
}
