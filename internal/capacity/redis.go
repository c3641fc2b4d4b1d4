package capacity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/worldskandi/call-companion-ai/pkg/utils"
)

const keyPrefix = "callagent:"

// RedisStore shares claims and the outbound cap across every agent process.
type RedisStore struct {
	rdb     redis.UniversalClient
	limit   int
	slotTTL time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, limit int, slotTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, limit: limit, slotTTL: slotTTL}
}

func (s *RedisStore) ClaimJob(ctx context.Context, jobID string, ttl time.Duration) (bool, error) {
	if jobID == "" {
		return false, errors.New("capacity: job id is required")
	}
	ok, err := s.rdb.SetNX(ctx, jobKey(jobID), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("capacity: claim job: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) AcquireOutbound(ctx context.Context) (bool, error) {
	ok, err := utils.AcquireSlot(ctx, s.rdb, outboundKey, s.limit, s.slotTTL)
	if err != nil {
		return false, fmt.Errorf("capacity: acquire outbound slot: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseOutbound(ctx context.Context) error {
	if err := utils.ReleaseSlot(ctx, s.rdb, outboundKey); err != nil {
		return fmt.Errorf("capacity: release outbound slot: %w", err)
	}
	return nil
}

const outboundKey = keyPrefix + "outbound:slots"

func jobKey(id string) string { return keyPrefix + "job:" + id }
