package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupRepository backs the in-memory duplicate detector so that a
// restarted instance does not re-emit events inside the window.
type DedupRepository struct {
	client *redis.Client
}

func NewDedupRepository(client *redis.Client) *DedupRepository {
	return &DedupRepository{
		client: client,
	}
}

// MarkOnce sets the key if absent and reports whether this caller won.
// Returns false when another instance already emitted for the same pair.
func (r *DedupRepository) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	redisKey := fmt.Sprintf("match:dedup:%s", key)

	ok, err := r.client.SetNX(ctx, redisKey, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark dedup key in Redis: %w", err)
	}

	return ok, nil
}
