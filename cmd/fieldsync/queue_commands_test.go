package main

import (
	"strings"
	"testing"
)

func TestEnqueueAndQueueLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"enqueue", "photo", "--payload", `{"note":"pump house"}`}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	requireContains(t, out, "Enqueued Photo capture")

	fields := strings.Fields(strings.TrimSpace(out))
	itemID := fields[len(fields)-1]
	if itemID == "" {
		t.Fatalf("expected item id in output %q", out)
	}

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Photo")
	requireContains(t, out, "Pending")

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "completed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	out, _, err = runCLI(t, []string{"queue", "describe", itemID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue describe: %v", err)
	}
	requireContains(t, out, itemID)
	requireContains(t, out, "Photo")
	requireContains(t, out, "pump house")

	out, _, err = runCLI(t, []string{"queue", "remove", itemID}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed item")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list after remove: %v", err)
	}
	requireContains(t, out, "Queue is empty")

	out, _, err = runCLI(t, []string{"queue", "clear-completed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear-completed: %v", err)
	}
	requireContains(t, out, "Cleared 0 completed items")
}

func TestEnqueueRejectsUnknownType(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"enqueue", "hologram", "--payload", "{}"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected unknown capture type to be rejected")
	}
	requireContains(t, err.Error(), "unknown capture type")
}

func TestEnqueueRejectsInvalidJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"enqueue", "photo", "--payload", "not json"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected invalid payload to be rejected")
	}
	requireContains(t, err.Error(), "not valid JSON")
}

func TestSyncRefusesWhileOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"sync"}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected sync to fail while offline")
	}
}

func TestTestNotifyReportsUnconfiguredTopic(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notification not sent: ntfy topic not configured")
}

func TestStatusReportsOfflineMode(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon")
	requireContains(t, out, "offline")
}
