package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const summaryTTL = 30 * time.Second

// SummaryCache keeps collection summaries in redis so the hot read path
// stays off the database. All methods are no-ops when constructed with a
// nil client, so redis stays optional.
type SummaryCache struct {
	redis *redis.Client
}

func NewSummaryCache(client *redis.Client) *SummaryCache {
	return &SummaryCache{redis: client}
}

func summaryKey(collectionID uuid.UUID) string {
	return fmt.Sprintf("collection:summary:%s", collectionID)
}

// Get unmarshals a cached summary into dest. The bool reports a cache hit.
func (c *SummaryCache) Get(ctx context.Context, collectionID uuid.UUID, dest any) (bool, error) {
	if c == nil || c.redis == nil {
		return false, nil
	}
	data, err := c.redis.Get(ctx, summaryKey(collectionID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *SummaryCache) Set(ctx context.Context, collectionID uuid.UUID, summary any) error {
	if c == nil || c.redis == nil {
		return nil
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, summaryKey(collectionID), data, summaryTTL).Err()
}

// Invalidate drops the cached summary after any mutating operation.
func (c *SummaryCache) Invalidate(ctx context.Context, collectionID uuid.UUID) error {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.Del(ctx, summaryKey(collectionID)).Err()
}
