package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/logging"
)

// Manager is the single authority for queue contents and status transitions.
// Every mutation is serialized behind one mutex, written to the Store before
// it is acknowledged, and announced to subscribers so the UI layer can
// recompute its projection.
//
// A persistence failure after an accepted mutation is non-fatal: the
// in-memory list stays authoritative for the process lifetime and the next
// successful save rewrites storage to match (ReplaceAll).
type Manager struct {
	store  *Store
	logger *slog.Logger

	mu      sync.Mutex
	items   []*Item
	byID    map[string]*Item
	dirty   bool
	syncing bool

	subs    map[int]chan struct{}
	nextSub int
}

// NewManager constructs a manager seeded with the store's persisted items.
// A load failure is treated as "no data" per the durable-store contract: the
// manager starts empty and logs the condition.
func NewManager(ctx context.Context, store *Store, logger *slog.Logger) *Manager {
	logger = logging.NewComponentLogger(logger, "queue-manager")

	var items []*Item
	if store != nil {
		loaded, err := store.Load(ctx)
		if err != nil {
			logger.Warn("failed to load persisted queue; starting empty",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_load_failed"),
				logging.String(logging.FieldErrorHint, "check the queue database file"),
			)
		} else {
			items = loaded
		}
	}

	byID := make(map[string]*Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	return &Manager{
		store:  store,
		logger: logger,
		items:  items,
		byID:   byID,
		subs:   make(map[int]chan struct{}),
	}
}

// Enqueue accepts a captured payload and returns the new item's id. The
// payload is never inspected; validation is the capture collaborator's
// responsibility. Enqueue rejects only when the store is unavailable.
func (m *Manager) Enqueue(ctx context.Context, captureType CaptureType, payload json.RawMessage) (string, error) {
	if _, ok := ParseCaptureType(string(captureType)); !ok {
		return "", fmt.Errorf("unknown capture type %q", captureType)
	}
	if m.store == nil {
		return "", ErrStoreUnavailable
	}

	now := time.Now().UTC()
	item := &Item{
		ID:        uuid.NewString(),
		Type:      captureType,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = append(m.items, item)
	m.byID[item.ID] = item
	m.persistLocked(ctx, func() error { return m.store.Insert(ctx, item) })
	m.notifyLocked()

	m.logger.Info("item enqueued",
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldCaptureType, string(item.Type)),
		logging.String(logging.FieldEventType, "item_enqueued"),
	)
	return item.ID, nil
}

// Transition is the only path that changes an item's status, retry count, and
// last error. Invalid transitions are rejected and logged, never applied.
// cause carries the upload failure for transitions into failed.
func (m *Manager) Transition(ctx context.Context, id string, to Status, cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if !CanTransition(item.Status, to) {
		m.logger.Error("rejected invalid status transition",
			logging.String(logging.FieldItemID, id),
			logging.String("from", string(item.Status)),
			logging.String("to", string(to)),
			logging.String(logging.FieldEventType, "invalid_transition"),
			logging.String(logging.FieldErrorHint, "caller bug; item state is unchanged"),
		)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, to)
	}

	item.Status = to
	item.UpdatedAt = time.Now().UTC()
	switch to {
	case StatusFailed:
		item.RetryCount++
		if cause != nil {
			item.LastError = cause.Error()
		} else {
			item.LastError = "upload failed"
		}
	default:
		// LastError is only meaningful while failed.
		item.LastError = ""
	}

	m.persistLocked(ctx, func() error { return m.store.Update(ctx, item) })
	m.notifyLocked()
	return nil
}

// Remove deletes the item with the given id. Absent ids are a no-op. Removal
// is rejected while the item's upload attempt is in flight so the uploader's
// eventual result never dangles.
func (m *Manager) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.byID[id]
	if !ok {
		return nil
	}
	if item.Status == StatusUploading {
		return fmt.Errorf("%w: %s", ErrItemUploading, id)
	}

	delete(m.byID, id)
	for i, candidate := range m.items {
		if candidate.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	m.persistLocked(ctx, func() error {
		_, err := m.store.Delete(ctx, id)
		return err
	})
	m.notifyLocked()

	m.logger.Info("item removed",
		logging.String(logging.FieldItemID, id),
		logging.String(logging.FieldEventType, "item_removed"),
	)
	return nil
}

// ClearCompleted removes every completed item and reports how many went away.
// Calling it again immediately is a harmless no-op.
func (m *Manager) ClearCompleted(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if item.Status == StatusCompleted {
			delete(m.byID, item.ID)
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	if removed == 0 {
		return 0, nil
	}

	m.persistLocked(ctx, func() error {
		_, err := m.store.DeleteCompleted(ctx)
		return err
	})
	m.notifyLocked()

	m.logger.Info("completed items cleared",
		logging.Int("removed_count", removed),
		logging.String(logging.FieldEventType, "queue_clear_completed"),
	)
	return removed, nil
}

// Items returns a snapshot of the queue in insertion order.
func (m *Manager) Items() []*Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item.Clone())
	}
	return out
}

// Get returns a snapshot of a single item.
func (m *Manager) Get(id string) (*Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// PendingCount reports the number of outstanding items: pending, uploading,
// and failed all count until they complete or are removed.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, item := range m.items {
		if item.Outstanding() {
			count++
		}
	}
	return count
}

// SetSyncing flips the scheduler-owned "a sync run is in flight" flag.
func (m *Manager) SetSyncing(active bool) {
	m.mu.Lock()
	if m.syncing == active {
		m.mu.Unlock()
		return
	}
	m.syncing = active
	m.notifyLocked()
	m.mu.Unlock()
}

// IsSyncing reports whether a sync run is in flight.
func (m *Manager) IsSyncing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncing
}

// Subscribe returns a coalesced change-notification channel. Every accepted
// mutation and syncing-flag flip makes the channel readable; slow consumers
// see at most one pending signal.
func (m *Manager) Subscribe() (<-chan struct{}, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan struct{}, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}

// Dirty reports whether the store is known to be behind the in-memory state.
func (m *Manager) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

func (m *Manager) notifyLocked() {
	for _, ch := range m.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// persistLocked runs the row-level save for the current mutation, falling back
// to a full rewrite when an earlier save failed and storage is stale. Save
// errors never roll back memory; they mark the manager dirty and warn.
func (m *Manager) persistLocked(ctx context.Context, op func() error) {
	if m.store == nil {
		return
	}

	var err error
	if m.dirty {
		err = m.store.ReplaceAll(ctx, m.items)
	} else {
		err = op()
	}
	if err != nil {
		m.dirty = true
		m.logger.Warn("queue persistence failed; memory remains authoritative",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_persist_failed"),
			logging.String(logging.FieldErrorHint, "check disk space and database file permissions"),
		)
		return
	}
	m.dirty = false
}
