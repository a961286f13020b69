package status_test

import (
	"testing"
	"time"

	"fieldsync/internal/queue"
	"fieldsync/internal/status"
)

func TestModeForPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		outstanding int
		online      bool
		syncing     bool
		expect      status.Mode
	}{
		{name: "syncing beats everything", outstanding: 3, online: true, syncing: true, expect: status.ModeSyncing},
		{name: "syncing even while probe lags", outstanding: 3, online: false, syncing: true, expect: status.ModeSyncing},
		{name: "offline beats pending", outstanding: 3, online: false, syncing: false, expect: status.ModeOffline},
		{name: "offline with empty queue", outstanding: 0, online: false, syncing: false, expect: status.ModeOffline},
		{name: "pending while online", outstanding: 1, online: true, syncing: false, expect: status.ModePending},
		{name: "synced when drained", outstanding: 0, online: true, syncing: false, expect: status.ModeSynced},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := status.ModeFor(tc.outstanding, tc.online, tc.syncing); got != tc.expect {
				t.Fatalf("expected %s, got %s", tc.expect, got)
			}
		})
	}
}

func TestComputeGroupsAndCounts(t *testing.T) {
	now := time.Now().UTC()
	item := func(id string, st queue.Status) *queue.Item {
		return &queue.Item{
			ID:        id,
			Type:      queue.CapturePhoto,
			Status:    st,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	items := []*queue.Item{
		item("a", queue.StatusPending),
		item("b", queue.StatusUploading),
		item("c", queue.StatusFailed),
		item("d", queue.StatusCompleted),
	}

	snapshot := status.Compute(items, true, false)
	if snapshot.Mode != status.ModePending {
		t.Fatalf("expected pending mode, got %s", snapshot.Mode)
	}
	if snapshot.PendingCount != 3 {
		t.Fatalf("expected 3 outstanding, got %d", snapshot.PendingCount)
	}
	if len(snapshot.Groups.Active) != 2 {
		t.Fatalf("expected 2 active items, got %d", len(snapshot.Groups.Active))
	}
	if len(snapshot.Groups.Failed) != 1 || snapshot.Groups.Failed[0].ID != "c" {
		t.Fatalf("unexpected failed group: %+v", snapshot.Groups.Failed)
	}
	if len(snapshot.Groups.Completed) != 1 || snapshot.Groups.Completed[0].ID != "d" {
		t.Fatalf("unexpected completed group: %+v", snapshot.Groups.Completed)
	}
}

func TestComputeEmptyQueue(t *testing.T) {
	snapshot := status.Compute(nil, true, false)
	if snapshot.Mode != status.ModeSynced {
		t.Fatalf("expected synced mode, got %s", snapshot.Mode)
	}
	if snapshot.PendingCount != 0 {
		t.Fatalf("expected no outstanding items, got %d", snapshot.PendingCount)
	}
}
