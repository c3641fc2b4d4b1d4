package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig sizes the client shared by job claims and the outbound slot
// counter. Every command is a single SETNX or a short script, so the pool is
// small and the read/write deadlines are tight.
type RedisConfig struct {
	Addr string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration

	PingTimeout time.Duration
}

const (
	defaultRedisDial        = 2 * time.Second
	defaultRedisIO          = time.Second
	defaultRedisPool        = 8
	defaultRedisPoolTimeout = 2 * time.Second
	defaultRedisIdleTime    = 5 * time.Minute
	defaultRedisLifetime    = 30 * time.Minute
	defaultRedisPing        = 2 * time.Second
)

func (c RedisConfig) withDefaults() RedisConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultRedisDial
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultRedisIO
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultRedisIO
	}
	if c.PoolSize <= 0 {
		c.PoolSize = defaultRedisPool
	}
	c.MinIdleConns = max(c.MinIdleConns, 0)
	if c.PoolTimeout <= 0 {
		c.PoolTimeout = defaultRedisPoolTimeout
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = defaultRedisIdleTime
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = defaultRedisLifetime
	}
	if c.PingTimeout <= 0 {
		c.PingTimeout = defaultRedisPing
	}
	return c
}

// OpenRedis connects and fails unless the first PING answers.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	cfg = cfg.withDefaults()

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addr,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		PoolSize:        cfg.PoolSize,
		MinIdleConns:    cfg.MinIdleConns,
		PoolTimeout:     cfg.PoolTimeout,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// KEYS[1] slot counter, ARGV[1] limit, ARGV[2] ttl in ms.
// The counter is only incremented below the limit; each grant refreshes the
// TTL so a crashed process can strand slots for at most one TTL.
var slotAcquireScript = redis.NewScript(`
local held = tonumber(redis.call('GET', KEYS[1]) or '0')
if held >= tonumber(ARGV[1]) then
  return 0
end
redis.call('INCR', KEYS[1])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return 1
`)

// KEYS[1] slot counter. Never goes below zero.
var slotReleaseScript = redis.NewScript(`
local held = tonumber(redis.call('GET', KEYS[1]) or '0')
if held <= 1 then
  redis.call('DEL', KEYS[1])
  return 0
end
return redis.call('DECR', KEYS[1])
`)

// AcquireSlot takes one of limit slots counted under key.
func AcquireSlot(ctx context.Context, rdb redis.Scripter, key string, limit int, ttl time.Duration) (bool, error) {
	switch {
	case rdb == nil:
		return false, errors.New("redis: client is nil")
	case key == "":
		return false, errors.New("redis: slot key is required")
	case limit <= 0:
		return false, fmt.Errorf("redis: slot limit must be positive, got %d", limit)
	case ttl <= 0:
		return false, fmt.Errorf("redis: slot ttl must be positive, got %s", ttl)
	}

	granted, err := slotAcquireScript.Run(ctx, rdb, []string{key}, limit, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return granted == 1, nil
}

// ReleaseSlot gives back a slot taken with AcquireSlot.
func ReleaseSlot(ctx context.Context, rdb redis.Scripter, key string) error {
	if rdb == nil {
		return errors.New("redis: client is nil")
	}
	if key == "" {
		return errors.New("redis: slot key is required")
	}
	return slotReleaseScript.Run(ctx, rdb, []string{key}).Err()
}
