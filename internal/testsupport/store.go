package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewManager builds a queue manager over a fresh store for tests.
func NewManager(t testing.TB, cfg *config.Config) *queue.Manager {
	t.Helper()

	store := MustOpenStore(t, cfg)
	return queue.NewManager(context.Background(), store, logging.NewNop())
}

// Enqueue adds a capture for tests using the provided manager.
func Enqueue(t testing.TB, manager *queue.Manager, captureType queue.CaptureType, note string) string {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"note": note})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	id, err := manager.Enqueue(context.Background(), captureType, payload)
	if err != nil {
		t.Fatalf("manager.Enqueue: %v", err)
	}
	return id
}

// EnqueueN adds n photo captures and returns their ids in capture order.
func EnqueueN(t testing.TB, manager *queue.Manager, n int) []string {
	t.Helper()

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, Enqueue(t, manager, queue.CapturePhoto, fmt.Sprintf("capture %d", i)))
	}
	return ids
}
