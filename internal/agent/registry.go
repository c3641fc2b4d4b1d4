package agent

import (
	"context"
	"sync"

	"github.com/worldskandi/call-companion-ai/internal/audit"
	"github.com/worldskandi/call-companion-ai/internal/calls"
	"github.com/worldskandi/call-companion-ai/pkg/logger"
)

// Active is one running call plus the identifiers its callbacks are logged and audited under.
type Active struct {
	Call *calls.Call

	attrs logger.CallAttrs
	ref   audit.CallRef
}

// Context decorates a callback's context with the call logger and audit ref.
func (a *Active) Context(ctx context.Context) context.Context {
	ctx, _ = logger.WithCall(ctx, a.attrs)
	return audit.WithRef(ctx, a.ref)
}

// Registry holds the calls of this process keyed by room.
type Registry struct {
	mu    sync.RWMutex
	calls map[string]*Active
}

func NewRegistry() *Registry {
	return &Registry{calls: map[string]*Active{}}
}

// Add reports false when the room already has a running call.
func (r *Registry) Add(room string, a *Active) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.calls[room]; ok {
		return false
	}
	r.calls[room] = a
	return true
}

func (r *Registry) Get(room string) (*Active, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.calls[room]
	return a, ok
}

// Remove only deletes the entry if it still belongs to a.
func (r *Registry) Remove(room string, a *Active) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.calls[room]; ok && cur == a {
		delete(r.calls, room)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

// Wait blocks until background persistence of every registered call finished.
func (r *Registry) Wait() {
	r.mu.RLock()
	list := make([]*Active, 0, len(r.calls))
	for _, a := range r.calls {
		list = append(list, a)
	}
	r.mu.RUnlock()
	for _, a := range list {
		a.Call.Wait()
	}
}
