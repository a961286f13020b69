// Package queue owns the offline mutation queue: the item model, the SQLite
// durable store, and the Manager that mediates every mutation.
//
// Capture collaborators enqueue opaque payloads; the sync scheduler drives
// items through the pending -> uploading -> completed/failed state machine;
// the UI layer observes snapshots and removes items explicitly. Nothing in
// this package ever drops an item on its own initiative.
//
// The database is transient operational state for in-flight captures rather
// than a long-term archive. Schema changes bump the version in schema.go; an
// unreadable database is set aside and recreated empty.
package queue
