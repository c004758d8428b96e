package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const buildLockPrefix = "kb:buildlock:"

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// BuildLocker is the cross-process per-chatbot build lock. The TTL bounds
// how long a crashed builder can hold it.
type BuildLocker struct {
	client *Client
	ttl    time.Duration
}

// NewBuildLocker creates a new Redis build lock
func NewBuildLocker(client *Client, ttl time.Duration) *BuildLocker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &BuildLocker{client: client, ttl: ttl}
}

// TryLock acquires the chatbot's build lock or fails with ErrBuildInProgress
func (l *BuildLocker) TryLock(ctx context.Context, chatbotID uuid.UUID) (func(), error) {
	key := buildLockPrefix + chatbotID.String()
	token := uuid.NewString()

	ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire build lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("chatbot %s: %w", chatbotID, domain.ErrBuildInProgress)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client.rdb, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("chatbot_id", chatbotID.String()).Msg("failed to release build lock")
		}
	}, nil
}
