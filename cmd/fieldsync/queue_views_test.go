package main

import (
	"strings"
	"testing"
	"time"

	"fieldsync/internal/ipc"
)

func TestFormatLabels(t *testing.T) {
	if got := formatStatusLabel("pending"); got != "Pending" {
		t.Fatalf("formatStatusLabel = %q", got)
	}
	if got := formatCaptureLabel("voice_transcript"); got != "Voice Transcript" {
		t.Fatalf("formatCaptureLabel = %q", got)
	}
	if got := formatCaptureLabel("configurator_submission"); got != "Configurator Submission" {
		t.Fatalf("formatCaptureLabel = %q", got)
	}
}

func TestRenderItemsTableNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	items := []ipc.QueueItem{
		{ID: "aaaaaaaa-1111", Type: "photo", Status: "pending", CreatedAt: base},
		{ID: "bbbbbbbb-2222", Type: "voice_transcript", Status: "failed", CreatedAt: base.Add(time.Minute), RetryCount: 2, LastError: "upload failed"},
	}

	rendered := renderItemsTable(items)
	newest := strings.Index(rendered, "bbbbbbbb")
	oldest := strings.Index(rendered, "aaaaaaaa")
	if newest < 0 || oldest < 0 || newest > oldest {
		t.Fatalf("expected newest item first:\n%s", rendered)
	}
	if !strings.Contains(rendered, "Voice Transcript") {
		t.Fatalf("expected capture label in table:\n%s", rendered)
	}
	if !strings.Contains(rendered, "upload failed") {
		t.Fatalf("expected last error in table:\n%s", rendered)
	}
}

func TestRenderCountsTableTotalsRows(t *testing.T) {
	rendered := renderCountsTable(map[string]int{"pending": 2, "failed": 1})
	if !strings.Contains(rendered, "Pending") || !strings.Contains(rendered, "Failed") {
		t.Fatalf("expected status labels:\n%s", rendered)
	}
	if !strings.Contains(rendered, "Total") || !strings.Contains(rendered, "3") {
		t.Fatalf("expected footer total:\n%s", rendered)
	}
}

func TestFormatLastErrorTruncates(t *testing.T) {
	long := strings.Repeat("x", 80)
	got := formatLastError(long)
	if len(got) != 51 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation %q (len %d)", got, len(got))
	}
	if formatLastError("  ") != "-" {
		t.Fatal("expected dash for empty last error")
	}
}
