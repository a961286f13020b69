package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fieldsync/internal/config"
)

// Store persists queue items in SQLite. It is the only component that touches
// durable storage; the Manager calls it after every accepted mutation, before
// the mutation is acknowledged to the caller.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the queue database. A database that cannot
// be read (corrupt file, schema from another era) is treated as "no data":
// the file is moved aside and a fresh store is created, never a fatal error.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.QueueDatabasePath()
	store, err := openAt(dbPath)
	if err == nil {
		return store, nil
	}

	// Corrupt or incompatible database: set it aside and start empty.
	backup := fmt.Sprintf("%s.corrupt-%s", dbPath, time.Now().UTC().Format("20060102T150405"))
	if renameErr := os.Rename(dbPath, backup); renameErr != nil && !errors.Is(renameErr, os.ErrNotExist) {
		return nil, fmt.Errorf("set aside unreadable queue database: %w (open failed: %v)", renameErr, err)
	}

	store, retryErr := openAt(dbPath)
	if retryErr != nil {
		return nil, fmt.Errorf("recreate queue database: %w", retryErr)
	}
	return store, nil
}

func openAt(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

const itemColumns = "id, capture_type, payload, status, created_at, updated_at, retry_count, last_error"

// Load returns the persisted item list in creation order. Used once at daemon
// startup to seed the Manager's in-memory state.
func (s *Store) Load(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM queue_items ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("load queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Insert persists a newly enqueued item.
func (s *Store) Insert(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO queue_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		string(item.Type),
		string(item.Payload),
		string(item.Status),
		item.CreatedAt.UTC().Format(time.RFC3339Nano),
		item.UpdatedAt.UTC().Format(time.RFC3339Nano),
		item.RetryCount,
		nullableString(item.LastError),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	_, err := s.execWithRetry(
		ctx,
		`UPDATE queue_items
         SET capture_type = ?, payload = ?, status = ?, created_at = ?,
             updated_at = ?, retry_count = ?, last_error = ?
         WHERE id = ?`,
		string(item.Type),
		string(item.Payload),
		string(item.Status),
		item.CreatedAt.UTC().Format(time.RFC3339Nano),
		item.UpdatedAt.UTC().Format(time.RFC3339Nano),
		item.RetryCount,
		nullableString(item.LastError),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes an item by identifier. Reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteCompleted removes only completed items.
func (s *Store) DeleteCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM queue_items WHERE status = ?`, string(StatusCompleted))
	if err != nil {
		return 0, fmt.Errorf("delete completed: %w", err)
	}
	return res.RowsAffected()
}

// ReplaceAll rewrites the full persisted list in one transaction. The Manager
// uses it to reconcile storage after an earlier save failure left the database
// behind the in-memory state.
func (s *Store) ReplaceAll(ctx context.Context, items []*Item) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin replace tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM queue_items`); err != nil {
			return fmt.Errorf("clear queue items: %w", err)
		}
		for _, item := range items {
			if item == nil {
				continue
			}
			if _, err := tx.ExecContext(
				ctx,
				`INSERT INTO queue_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID,
				string(item.Type),
				string(item.Payload),
				string(item.Status),
				item.CreatedAt.UTC().Format(time.RFC3339Nano),
				item.UpdatedAt.UTC().Format(time.RFC3339Nano),
				item.RetryCount,
				nullableString(item.LastError),
			); err != nil {
				return fmt.Errorf("insert item %s: %w", item.ID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit replace: %w", err)
		}
		return nil
	})
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id         string
		captureRaw string
		payload    sql.NullString
		statusRaw  string
		createdRaw sql.NullString
		updatedRaw sql.NullString
		retryCount int
		lastError  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&captureRaw,
		&payload,
		&statusRaw,
		&createdRaw,
		&updatedRaw,
		&retryCount,
		&lastError,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:         id,
		Type:       CaptureType(captureRaw),
		Payload:    []byte(payload.String),
		Status:     Status(statusRaw),
		RetryCount: retryCount,
		LastError:  lastError.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
