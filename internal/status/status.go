package status

import (
	"time"

	"fieldsync/internal/queue"
)

// Mode is the single word a status surface shows for the whole queue.
type Mode string

const (
	ModeSyncing Mode = "syncing"
	ModeOffline Mode = "offline"
	ModePending Mode = "pending"
	ModeSynced  Mode = "synced"
)

// Groups buckets a queue snapshot for display. Active holds pending and
// uploading items, Failed the items awaiting a retry, Completed the uploaded
// items not yet cleared.
type Groups struct {
	Active    []*queue.Item `json:"active"`
	Failed    []*queue.Item `json:"failed"`
	Completed []*queue.Item `json:"completed"`
}

// Snapshot is a point-in-time projection of queue and connectivity state.
type Snapshot struct {
	Mode         Mode      `json:"mode"`
	Online       bool      `json:"online"`
	Syncing      bool      `json:"syncing"`
	PendingCount int       `json:"pendingCount"`
	Groups       Groups    `json:"groups"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// ModeFor collapses the inputs into one mode. Precedence, highest first:
// syncing, offline, pending, synced. Offline with an empty queue still shows
// offline so the user knows new captures will wait.
func ModeFor(outstanding int, online, syncing bool) Mode {
	switch {
	case syncing:
		return ModeSyncing
	case !online:
		return ModeOffline
	case outstanding > 0:
		return ModePending
	default:
		return ModeSynced
	}
}

// Compute builds a snapshot from a queue item snapshot and the current
// connectivity and sync flags. Item order within each group follows the
// input, which the queue manager keeps in capture order.
func Compute(items []*queue.Item, online, syncing bool) Snapshot {
	snapshot := Snapshot{
		Online:      online,
		Syncing:     syncing,
		GeneratedAt: time.Now().UTC(),
	}
	for _, item := range items {
		switch item.Status {
		case queue.StatusCompleted:
			snapshot.Groups.Completed = append(snapshot.Groups.Completed, item)
		case queue.StatusFailed:
			snapshot.Groups.Failed = append(snapshot.Groups.Failed, item)
			snapshot.PendingCount++
		default:
			snapshot.Groups.Active = append(snapshot.Groups.Active, item)
			snapshot.PendingCount++
		}
	}
	snapshot.Mode = ModeFor(snapshot.PendingCount, online, syncing)
	return snapshot
}
