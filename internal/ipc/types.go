package ipc

import (
	"encoding/json"
	"time"

	"fieldsync/internal/queue"
)

// QueueItem is the wire representation of a stored capture.
type QueueItem struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	RetryCount int             `json:"retry_count"`
	LastError  string          `json:"last_error,omitempty"`
}

// FromQueueItem converts a queue model into its wire representation.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:         item.ID,
		Type:       string(item.Type),
		Status:     string(item.Status),
		Payload:    item.Payload,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
		RetryCount: item.RetryCount,
		LastError:  item.LastError,
	}
}

// PingRequest checks daemon liveness.
type PingRequest struct{}

// PingResponse reports daemon liveness.
type PingResponse struct {
	PID int `json:"pid"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and queue status information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	Mode         string         `json:"mode"`
	Online       bool           `json:"online"`
	Syncing      bool           `json:"syncing"`
	PendingCount int            `json:"pending_count"`
	QueueStats   map[string]int `json:"queue_stats"`
	QueueDBPath  string         `json:"queue_db_path"`
	LockPath     string         `json:"lock_path"`
	PID          int            `json:"pid"`
}

// EnqueueRequest records a new capture.
type EnqueueRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EnqueueResponse returns the stored capture.
type EnqueueResponse struct {
	Item QueueItem `json:"item"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID string `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRemoveRequest removes a specific item by ID.
type QueueRemoveRequest struct {
	ID string `json:"id"`
}

// QueueRemoveResponse reports whether the item was removed.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int `json:"removed"`
}

// SyncNowRequest runs a sync immediately.
type SyncNowRequest struct{}

// SyncNowResponse summarizes the completed run.
type SyncNowResponse struct {
	RunID          string `json:"run_id"`
	Attempted      int    `json:"attempted"`
	Completed      int    `json:"completed"`
	Failed         int    `json:"failed"`
	Skipped        int    `json:"skipped"`
	DurationMillis int64  `json:"duration_millis"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
