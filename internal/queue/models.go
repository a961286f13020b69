package queue

import (
	"encoding/json"
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusUploading,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether the state machine permits moving from one
// status to another. Completed is terminal; failed is only left by an explicit
// retry; a new upload attempt may start only from pending or failed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusUploading
	case StatusUploading:
		return to == StatusCompleted || to == StatusFailed
	case StatusFailed:
		return to == StatusUploading
	default:
		return false
	}
}

// CaptureType identifies which uploader handles an item's payload.
type CaptureType string

const (
	CapturePhoto         CaptureType = "photo"
	CaptureTranscript    CaptureType = "voice_transcript"
	CaptureConfiguration CaptureType = "configurator_submission"
)

var allCaptureTypes = []CaptureType{
	CapturePhoto,
	CaptureTranscript,
	CaptureConfiguration,
}

var captureTypeSet = func() map[CaptureType]struct{} {
	set := make(map[CaptureType]struct{}, len(allCaptureTypes))
	for _, ct := range allCaptureTypes {
		set[ct] = struct{}{}
	}
	return set
}()

// AllCaptureTypes returns the ordered list of known capture types.
func AllCaptureTypes() []CaptureType {
	cp := make([]CaptureType, len(allCaptureTypes))
	copy(cp, allCaptureTypes)
	return cp
}

// ParseCaptureType converts a string into a known CaptureType.
func ParseCaptureType(value string) (CaptureType, bool) {
	normalized := CaptureType(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := captureTypeSet[normalized]
	return normalized, ok
}

// Item represents one captured-but-not-yet-confirmed unit of work.
//
// The ID is assigned at enqueue time, never changes, and doubles as the
// idempotency key the remote side uses to de-duplicate re-submissions.
// The payload is opaque to the queue; only the registered uploader for the
// item's capture type interprets it.
type Item struct {
	ID         string
	Type       CaptureType
	Payload    json.RawMessage
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	RetryCount int
	LastError  string
}

// Clone returns a deep copy so callers can hand items across goroutines
// without sharing mutable state.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	if i.Payload != nil {
		cp.Payload = make(json.RawMessage, len(i.Payload))
		copy(cp.Payload, i.Payload)
	}
	return &cp
}

// Outstanding reports whether the item still needs delivery. Pending,
// uploading, and failed items all count toward the pending total the UI shows.
func (i *Item) Outstanding() bool {
	return i != nil && i.Status != StatusCompleted
}

// Uploadable reports whether a new upload attempt may start for the item.
func (i *Item) Uploadable() bool {
	return i != nil && (i.Status == StatusPending || i.Status == StatusFailed)
}
