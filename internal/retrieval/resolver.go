package retrieval

import (
	"context"
	"fmt"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Resolver finds a chatbot's active snapshot, reading through the cache
type Resolver struct {
	snapshots domain.SnapshotRepository
	cache     domain.SnapshotCache
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(snapshots domain.SnapshotRepository, cache domain.SnapshotCache) *Resolver {
	return &Resolver{snapshots: snapshots, cache: cache}
}

// Active returns the serving snapshot, or nil when the chatbot has none.
// Cache failures fall back to the repository.
func (r *Resolver) Active(ctx context.Context, chatbotID uuid.UUID) (*domain.Snapshot, error) {
	if r.cache != nil {
		snap, err := r.cache.Get(ctx, chatbotID)
		if err != nil {
			log.Warn().Err(err).Str("chatbot_id", chatbotID.String()).Msg("snapshot cache read failed")
		} else if snap != nil {
			return snap, nil
		}
	}

	snap, err := r.snapshots.GetActive(ctx, chatbotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active snapshot: %w", err)
	}
	if snap == nil {
		return nil, nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, snap); err != nil {
			log.Warn().Err(err).Str("chatbot_id", chatbotID.String()).Msg("snapshot cache write failed")
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot of a chatbot
func (r *Resolver) Invalidate(ctx context.Context, chatbotID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, chatbotID); err != nil {
		log.Warn().Err(err).Str("chatbot_id", chatbotID.String()).Msg("snapshot cache invalidation failed")
	}
}
