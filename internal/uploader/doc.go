// Package uploader holds the per-capture-type delivery functions the sync
// scheduler invokes, plus the HTTP implementations that post payloads to the
// hosted API with the item ID as idempotency key.
package uploader
