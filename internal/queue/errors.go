package queue

import "errors"

// ErrInvalidTransition indicates a status change the state machine forbids.
// It is a programming error in the caller, not a queue failure.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrNotFound indicates the referenced item is not in the queue.
var ErrNotFound = errors.New("queue item not found")

// ErrItemUploading indicates a removal was rejected because the item's upload
// attempt is still in flight. Retry after the attempt resolves.
var ErrItemUploading = errors.New("queue item is uploading")

// ErrStoreUnavailable indicates the durable store cannot accept writes.
var ErrStoreUnavailable = errors.New("queue store unavailable")
