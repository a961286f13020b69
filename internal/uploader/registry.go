package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fieldsync/internal/queue"
)

// ErrUnknownCaptureType indicates no uploader is registered for an item's type.
var ErrUnknownCaptureType = errors.New("no uploader registered for capture type")

// Func performs the actual remote submission of one queue item's payload.
// Invocation is at-least-once: a retry after a partial failure may resubmit,
// so the item's ID travels with the payload as the idempotency key the remote
// side de-duplicates on. A Func must resolve to success or failure within a
// bounded time; the scheduler treats any returned error uniformly as item
// failure and never retries inside a single run beyond its own policy.
type Func func(ctx context.Context, item *queue.Item) error

// Registry maps each capture type to its uploader. The host application
// registers one Func per type at startup; the sync scheduler only looks up.
type Registry struct {
	mu    sync.RWMutex
	funcs map[queue.CaptureType]Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[queue.CaptureType]Func)}
}

// Register binds an uploader to a capture type. Registering the same type
// twice is a wiring bug and is rejected.
func (r *Registry) Register(captureType queue.CaptureType, fn Func) error {
	if fn == nil {
		return fmt.Errorf("uploader for %q is nil", captureType)
	}
	if _, ok := queue.ParseCaptureType(string(captureType)); !ok {
		return fmt.Errorf("unknown capture type %q", captureType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[captureType]; exists {
		return fmt.Errorf("uploader for %q already registered", captureType)
	}
	r.funcs[captureType] = fn
	return nil
}

// Lookup returns the uploader for a capture type.
func (r *Registry) Lookup(captureType queue.CaptureType) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[captureType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCaptureType, captureType)
	}
	return fn, nil
}

// Types returns the capture types with a registered uploader.
func (r *Registry) Types() []queue.CaptureType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]queue.CaptureType, 0, len(r.funcs))
	for _, ct := range queue.AllCaptureTypes() {
		if _, ok := r.funcs[ct]; ok {
			types = append(types, ct)
		}
	}
	return types
}
