package queue_test

import (
	"context"
	"errors"
	"testing"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestEnqueueIsDurableAcrossRestart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	manager := queue.NewManager(ctx, store, logging.NewNop())
	id := testsupport.Enqueue(t, manager, queue.CapturePhoto, "hydrant 12")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Simulated restart: a fresh manager over the same database.
	reloaded := testsupport.NewManager(t, cfg)
	item, ok := reloaded.Get(id)
	if !ok {
		t.Fatal("expected enqueued item to survive restart")
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected pending status after restart, got %s", item.Status)
	}
	if item.RetryCount != 0 {
		t.Fatalf("expected zero retries, got %d", item.RetryCount)
	}
}

func TestEnqueueRejectsUnknownCaptureType(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	if _, err := manager.Enqueue(context.Background(), queue.CaptureType("hologram"), []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown capture type")
	}
}

func TestTransitionLifecycle(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	ctx := context.Background()
	id := testsupport.Enqueue(t, manager, queue.CapturePhoto, "pump room")

	// pending -> completed is not a legal shortcut
	if err := manager.Transition(ctx, id, queue.StatusCompleted, nil); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if err := manager.Transition(ctx, id, queue.StatusUploading, nil); err != nil {
		t.Fatalf("pending -> uploading: %v", err)
	}
	if err := manager.Transition(ctx, id, queue.StatusFailed, errors.New("remote returned 500")); err != nil {
		t.Fatalf("uploading -> failed: %v", err)
	}

	item, _ := manager.Get(id)
	if item.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", item.RetryCount)
	}
	if item.LastError != "remote returned 500" {
		t.Fatalf("expected last error recorded, got %q", item.LastError)
	}

	// Failed items retry through uploading, and the error clears on the way.
	if err := manager.Transition(ctx, id, queue.StatusUploading, nil); err != nil {
		t.Fatalf("failed -> uploading: %v", err)
	}
	item, _ = manager.Get(id)
	if item.LastError != "" {
		t.Fatalf("expected last error cleared, got %q", item.LastError)
	}

	if err := manager.Transition(ctx, id, queue.StatusCompleted, nil); err != nil {
		t.Fatalf("uploading -> completed: %v", err)
	}

	// Completed is terminal.
	if err := manager.Transition(ctx, id, queue.StatusUploading, nil); !errors.Is(err, queue.ErrInvalidTransition) {
		t.Fatalf("expected terminal completed state, got %v", err)
	}
}

func TestRetryCountGrowsMonotonically(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	ctx := context.Background()
	id := testsupport.Enqueue(t, manager, queue.CaptureTranscript, "walkdown notes")

	for attempt := 1; attempt <= 3; attempt++ {
		if err := manager.Transition(ctx, id, queue.StatusUploading, nil); err != nil {
			t.Fatalf("attempt %d uploading: %v", attempt, err)
		}
		if err := manager.Transition(ctx, id, queue.StatusFailed, errors.New("timeout")); err != nil {
			t.Fatalf("attempt %d failed: %v", attempt, err)
		}
		item, _ := manager.Get(id)
		if item.RetryCount != attempt {
			t.Fatalf("expected retry count %d, got %d", attempt, item.RetryCount)
		}
	}
}

func TestTransitionUnknownItem(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	err := manager.Transition(context.Background(), "no-such-id", queue.StatusUploading, nil)
	if !errors.Is(err, queue.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveRejectsMidUpload(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	ctx := context.Background()
	id := testsupport.Enqueue(t, manager, queue.CapturePhoto, "transformer")

	if err := manager.Transition(ctx, id, queue.StatusUploading, nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if err := manager.Remove(ctx, id); !errors.Is(err, queue.ErrItemUploading) {
		t.Fatalf("expected ErrItemUploading, got %v", err)
	}

	// The attempt resolves, then removal goes through.
	if err := manager.Transition(ctx, id, queue.StatusFailed, errors.New("timeout")); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if err := manager.Remove(ctx, id); err != nil {
		t.Fatalf("Remove after attempt resolved: %v", err)
	}
	if _, ok := manager.Get(id); ok {
		t.Fatal("expected item gone after removal")
	}

	// Removing an absent id is a no-op.
	if err := manager.Remove(ctx, id); err != nil {
		t.Fatalf("expected no-op removal, got %v", err)
	}
}

func TestClearCompletedIsIdempotent(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	ctx := context.Background()

	ids := testsupport.EnqueueN(t, manager, 3)
	for _, id := range ids[:2] {
		if err := manager.Transition(ctx, id, queue.StatusUploading, nil); err != nil {
			t.Fatalf("Transition: %v", err)
		}
		if err := manager.Transition(ctx, id, queue.StatusCompleted, nil); err != nil {
			t.Fatalf("Transition: %v", err)
		}
	}

	removed, err := manager.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	removed, err = manager.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted again: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected idempotent second clear, got %d", removed)
	}

	if count := manager.PendingCount(); count != 1 {
		t.Fatalf("expected the pending item to survive, got %d outstanding", count)
	}
}

func TestSubscribeSignalsOnMutation(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	updates, cancel := manager.Subscribe()
	defer cancel()

	testsupport.Enqueue(t, manager, queue.CapturePhoto, "gate latch")

	select {
	case <-updates:
	default:
		t.Fatal("expected a change signal after enqueue")
	}

	// Signals coalesce: many mutations, at most one pending notification.
	testsupport.EnqueueN(t, manager, 3)
	select {
	case <-updates:
	default:
		t.Fatal("expected a coalesced change signal")
	}
	select {
	case <-updates:
		t.Fatal("expected signals to coalesce into one")
	default:
	}
}

func TestItemsReturnsClones(t *testing.T) {
	manager := testsupport.NewManager(t, testsupport.NewConfig(t))
	id := testsupport.Enqueue(t, manager, queue.CapturePhoto, "ladder")

	items := manager.Items()
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	items[0].Status = queue.StatusCompleted

	item, _ := manager.Get(id)
	if item.Status != queue.StatusPending {
		t.Fatal("snapshot mutation leaked into manager state")
	}
}
