package queue

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusUploading},
		{StatusUploading, StatusCompleted},
		{StatusUploading, StatusFailed},
		{StatusFailed, StatusUploading},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusPending, StatusCompleted},
		{StatusPending, StatusFailed},
		{StatusCompleted, StatusUploading},
		{StatusCompleted, StatusPending},
		{StatusFailed, StatusCompleted},
		{StatusFailed, StatusPending},
		{StatusUploading, StatusPending},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("uploading"); !ok || status != StatusUploading {
		t.Fatalf("ParseStatus(uploading) = %s, %v", status, ok)
	}
	if _, ok := ParseStatus("exploded"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestParseCaptureType(t *testing.T) {
	if captureType, ok := ParseCaptureType("voice_transcript"); !ok || captureType != CaptureTranscript {
		t.Fatalf("ParseCaptureType(voice_transcript) = %s, %v", captureType, ok)
	}
	if _, ok := ParseCaptureType("video"); ok {
		t.Fatal("expected unknown capture type to be rejected")
	}
}

func TestOutstandingAndUploadable(t *testing.T) {
	cases := []struct {
		status      Status
		outstanding bool
		uploadable  bool
	}{
		{StatusPending, true, true},
		{StatusUploading, true, false},
		{StatusFailed, true, true},
		{StatusCompleted, false, false},
	}
	for _, tc := range cases {
		item := &Item{Status: tc.status}
		if item.Outstanding() != tc.outstanding {
			t.Errorf("%s: Outstanding() = %v", tc.status, item.Outstanding())
		}
		if item.Uploadable() != tc.uploadable {
			t.Errorf("%s: Uploadable() = %v", tc.status, item.Uploadable())
		}
	}
}
