package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/notifications"
	"fieldsync/internal/queue"
	"fieldsync/internal/status"
	"fieldsync/internal/syncer"
)

// Daemon coordinates the background sync services and enforces single-instance execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *queue.Store
	manager   *queue.Manager
	monitor   *netmon.Monitor
	scheduler *syncer.Scheduler
	logPath   string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Snapshot     status.Snapshot
	QueueDBPath  string
	LockFilePath string
	PID          int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, manager *queue.Manager, monitor *netmon.Monitor, scheduler *syncer.Scheduler, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || monitor == nil || scheduler == nil {
		return nil, errors.New("daemon requires config, store, manager, monitor, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "fieldsyncd.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		manager:   manager,
		monitor:   monitor,
		scheduler: scheduler,
		logPath:   filepath.Join(cfg.Paths.LogDir, "fieldsync.log"),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start launches the network monitor and sync scheduler and acquires the daemon lock.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fieldsync daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.monitor.Start(d.ctx); err != nil {
		d.teardownFailedStart()
		return fmt.Errorf("start network monitor: %w", err)
	}
	if err := d.scheduler.Start(d.ctx); err != nil {
		d.monitor.Stop()
		d.teardownFailedStart()
		return fmt.Errorf("start sync scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("fieldsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

func (d *Daemon) teardownFailedStart() {
	_ = d.lock.Unlock()
	d.cancel()
	d.ctx = nil
	d.cancel = nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.Stop()
	d.monitor.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("fieldsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Enqueue records a new capture and returns the stored item.
func (d *Daemon) Enqueue(ctx context.Context, captureType queue.CaptureType, payload json.RawMessage) (*queue.Item, error) {
	id, err := d.manager.Enqueue(ctx, captureType, payload)
	if err != nil {
		return nil, err
	}
	item, ok := d.manager.Get(id)
	if !ok {
		return nil, fmt.Errorf("enqueued item %s not found", id)
	}
	// A capture taken while online should not wait for the next timer tick.
	if d.monitor.Online() {
		d.scheduler.TriggerSync()
	}
	return item, nil
}

// ListQueue returns queue items filtered by optional statuses.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	items := d.manager.Items()
	if len(statuses) == 0 {
		return items, nil
	}
	wanted := make(map[queue.Status]struct{}, len(statuses))
	for _, st := range statuses {
		wanted[st] = struct{}{}
	}
	filtered := items[:0]
	for _, item := range items {
		if _, ok := wanted[item.Status]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// GetQueueItem returns a single queue item by id.
func (d *Daemon) GetQueueItem(ctx context.Context, id string) (*queue.Item, error) {
	item, ok := d.manager.Get(id)
	if !ok {
		return nil, queue.ErrNotFound
	}
	return item, nil
}

// RemoveItem deletes a capture unless it is mid-upload.
func (d *Daemon) RemoveItem(ctx context.Context, id string) error {
	return d.manager.Remove(ctx, id)
}

// ClearCompleted removes uploaded items that are still held for display.
func (d *Daemon) ClearCompleted(ctx context.Context) (int, error) {
	return d.manager.ClearCompleted(ctx)
}

// SyncNow runs a full sync immediately and returns its result.
func (d *Daemon) SyncNow(ctx context.Context) (syncer.Result, error) {
	runCtx := ctx
	if d.ctx != nil {
		runCtx = d.ctx
	}
	return d.scheduler.SyncAll(runCtx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	snapshot := status.Compute(d.manager.Items(), d.monitor.Online(), d.scheduler.Busy())
	return Status{
		Running:      d.running.Load(),
		Snapshot:     snapshot,
		QueueDBPath:  d.cfg.QueueDatabasePath(),
		LockFilePath: d.lockPath,
		PID:          os.Getpid(),
	}
}
