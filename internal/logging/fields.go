package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for queue item identifiers.
	FieldItemID = "item_id"
	// FieldCaptureType is the standardized structured logging key for capture kinds.
	FieldCaptureType = "capture_type"
	// FieldStatus is the standardized structured logging key for item statuses.
	FieldStatus = "status"
	// FieldSyncRunID is the standardized structured logging key for sync-run correlation identifiers.
	FieldSyncRunID = "sync_run_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldRetryCount is the standardized structured logging key for upload attempt counts.
	FieldRetryCount = "retry_count"
)
