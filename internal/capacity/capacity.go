// Package capacity guards job dispatch: each job is claimed once, and outbound
// dial-outs share a fleet-wide concurrency cap.
package capacity

import (
	"context"
	"sync"
	"time"
)

// Store is implemented by RedisStore in production and MemoryStore in tests.
type Store interface {
	// ClaimJob returns false when the job was already claimed within ttl.
	ClaimJob(ctx context.Context, jobID string, ttl time.Duration) (bool, error)

	// AcquireOutbound returns false when the cap is reached.
	AcquireOutbound(ctx context.Context) (bool, error)
	ReleaseOutbound(ctx context.Context) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.Mutex
	limit  int
	inUse  int
	claims map[string]time.Time
	clock  func() time.Time
}

func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit, claims: map[string]time.Time{}, clock: time.Now}
}

func (s *MemoryStore) ClaimJob(_ context.Context, jobID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	if exp, ok := s.claims[jobID]; ok && now.Before(exp) {
		return false, nil
	}
	s.claims[jobID] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) AcquireOutbound(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse >= s.limit {
		return false, nil
	}
	s.inUse++
	return true, nil
}

func (s *MemoryStore) ReleaseOutbound(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inUse > 0 {
		s.inUse--
	}
	return nil
}

func (s *MemoryStore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inUse
}
