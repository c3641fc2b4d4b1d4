package audit

import (
	"context"
	"slices"
	"sync"
)

// MemoryRepo keeps call events in process. Used by tests and by local runs
// without a database.
type MemoryRepo struct {
	mu     sync.Mutex
	events []Event
	byRoom map[string][]int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byRoom: make(map[string][]int)}
}

func (r *MemoryRepo) Append(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRoom[e.Room] = append(r.byRoom[e.Room], len(r.events))
	r.events = append(r.events, e)
	return nil
}

// Events returns every stored event in append order.
func (r *MemoryRepo) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// ForRoom returns the events of one call in append order.
func (r *MemoryRepo) ForRoom(room string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.byRoom[room]
	out := make([]Event, 0, len(idx))
	for _, i := range idx {
		out = append(out, r.events[i])
	}
	return out
}
