// Package logging assembles the structured slog loggers used across FieldSync.
//
// It owns the console/JSON handler construction, centralizes level and output
// plumbing, and standardizes the field keys components attach to log lines
// (item IDs, capture types, sync-run correlation IDs). A no-op logger is
// provided for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
