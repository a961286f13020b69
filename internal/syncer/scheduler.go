package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/notifications"
	"fieldsync/internal/queue"
	"fieldsync/internal/uploader"
)

// ErrSyncInFlight indicates a sync run is already active; concurrent calls
// are rejected rather than interleaved so no item uploads twice concurrently.
var ErrSyncInFlight = errors.New("sync already in progress")

// ErrOffline indicates the network monitor reports no reachability.
var ErrOffline = errors.New("device is offline")

// Connectivity is the slice of the network monitor the scheduler needs.
type Connectivity interface {
	Online() bool
	Subscribe() (<-chan netmon.Transition, func())
}

// Result summarizes one sync run.
type Result struct {
	RunID     string
	Attempted int
	Completed int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// Scheduler decides when to flush the queue and drives each outstanding item
// through its registered uploader. Triggers: the offline-to-online edge, an
// explicit sync-now request, and an optional periodic timer while online.
type Scheduler struct {
	manager  *queue.Manager
	registry *uploader.Registry
	monitor  Connectivity
	notifier notifications.Service
	logger   *slog.Logger

	maxAttempts int
	retryDelay  time.Duration
	interval    time.Duration

	busy     atomic.Bool
	requests chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a scheduler from the [sync] config section.
func New(cfg *config.Config, manager *queue.Manager, registry *uploader.Registry, monitor Connectivity, notifier notifications.Service, logger *slog.Logger) *Scheduler {
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	return &Scheduler{
		manager:     manager,
		registry:    registry,
		monitor:     monitor,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(logger, "sync-scheduler"),
		maxAttempts: cfg.Sync.MaxAttempts,
		retryDelay:  time.Duration(cfg.Sync.RetryDelay) * time.Second,
		interval:    time.Duration(cfg.Sync.Interval) * time.Second,
		requests:    make(chan struct{}, 1),
	}
}

// Start launches the trigger loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	go s.run(runCtx)
	return nil
}

// Stop terminates the trigger loop and waits for it. An in-flight item upload
// still runs to completion; only future runs are prevented.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}

// TriggerSync requests an asynchronous flush from the trigger loop. Requests
// while a run is pending coalesce.
func (s *Scheduler) TriggerSync() {
	select {
	case s.requests <- struct{}{}:
	default:
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	transitions, unsubscribe := s.monitor.Subscribe()
	defer unsubscribe()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case transition := <-transitions:
			if !transition.Online {
				continue
			}
			s.logger.Info("connectivity restored; flushing queue",
				logging.String(logging.FieldEventType, "sync_reconnect_trigger"),
			)
			s.syncAndLog(ctx)
		case <-tick:
			if s.manager.PendingCount() == 0 {
				continue
			}
			s.syncAndLog(ctx)
		case <-s.requests:
			s.syncAndLog(ctx)
		}
	}
}

func (s *Scheduler) syncAndLog(ctx context.Context) {
	result, err := s.SyncAll(ctx)
	switch {
	case errors.Is(err, ErrOffline), errors.Is(err, ErrSyncInFlight):
		s.logger.Debug("sync skipped", logging.Error(err))
	case err != nil:
		s.logger.Warn("sync run ended early",
			logging.Error(err),
			logging.String(logging.FieldSyncRunID, result.RunID),
			logging.String(logging.FieldEventType, "sync_interrupted"),
			logging.String(logging.FieldErrorHint, "remaining items flush on the next trigger"),
		)
	}
}

// SyncAll attempts every pending and failed item in capture order. At most
// one run is active at a time; a concurrent call gets ErrSyncInFlight. The
// run refuses to start while offline. One item's failure never aborts the
// batch, and there is no mid-item cancellation: a started upload resolves
// before the run moves on or winds down.
func (s *Scheduler) SyncAll(ctx context.Context) (Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{}, ErrSyncInFlight
	}
	defer s.busy.Store(false)

	if !s.monitor.Online() {
		return Result{}, ErrOffline
	}

	result := Result{RunID: uuid.NewString()}
	start := time.Now()

	s.manager.SetSyncing(true)
	defer s.manager.SetSyncing(false)

	items := s.uploadableItems()
	if len(items) == 0 {
		return result, nil
	}

	runLogger := s.logger.With(logging.String(logging.FieldSyncRunID, result.RunID))
	runLogger.Info("sync run started",
		logging.Int("outstanding_count", len(items)),
		logging.String(logging.FieldEventType, "sync_start"),
	)
	if err := s.notifier.NotifySyncStarted(ctx, len(items)); err != nil {
		runLogger.Debug("sync started notification failed", logging.Error(err))
	}

	var runErr error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		s.attemptItem(ctx, runLogger, item, &result)
	}

	result.Duration = time.Since(start)
	runLogger.Info("sync run finished",
		logging.Int("attempted", result.Attempted),
		logging.Int("completed", result.Completed),
		logging.Int("failed", result.Failed),
		logging.Int("skipped", result.Skipped),
		logging.Duration("sync_duration", result.Duration),
		logging.String(logging.FieldEventType, "sync_complete"),
	)
	if result.Attempted > 0 {
		if err := s.notifier.NotifySyncCompleted(ctx, result.Completed, result.Failed, result.Duration); err != nil {
			runLogger.Debug("sync completed notification failed", logging.Error(err))
		}
	}
	return result, runErr
}

// uploadableItems returns the pending and failed items in CreatedAt order.
func (s *Scheduler) uploadableItems() []*queue.Item {
	all := s.manager.Items()
	items := all[:0]
	for _, item := range all {
		if item.Uploadable() {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items
}

func (s *Scheduler) attemptItem(ctx context.Context, runLogger *slog.Logger, item *queue.Item, result *Result) {
	itemLogger := runLogger.With(
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldCaptureType, string(item.Type)),
	)

	if s.maxAttempts > 0 && item.RetryCount >= s.maxAttempts {
		result.Skipped++
		itemLogger.Debug("skipping item past retry ceiling",
			logging.Int(logging.FieldRetryCount, item.RetryCount),
			logging.Int("max_attempts", s.maxAttempts),
		)
		return
	}

	if item.Status == queue.StatusFailed && s.retryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.retryDelay):
		}
	}

	if err := s.manager.Transition(ctx, item.ID, queue.StatusUploading, nil); err != nil {
		// Removed or already moved on since the snapshot was taken.
		itemLogger.Debug("item no longer uploadable", logging.Error(err))
		return
	}
	result.Attempted++

	uploadErr := s.upload(ctx, item)
	if uploadErr == nil {
		result.Completed++
		if err := s.manager.Transition(ctx, item.ID, queue.StatusCompleted, nil); err != nil {
			itemLogger.Error("failed to record completion", logging.Error(err))
		}
		itemLogger.Info("item uploaded",
			logging.String(logging.FieldEventType, "item_uploaded"),
		)
		return
	}

	result.Failed++
	if err := s.manager.Transition(ctx, item.ID, queue.StatusFailed, uploadErr); err != nil {
		itemLogger.Error("failed to record upload failure", logging.Error(err))
	}
	attempts := item.RetryCount + 1
	itemLogger.Warn("item upload failed",
		logging.Error(uploadErr),
		logging.Int(logging.FieldRetryCount, attempts),
		logging.String(logging.FieldEventType, "item_upload_failed"),
		logging.String(logging.FieldErrorHint, "retried on the next sync; remove the item to give up"),
	)
	if s.maxAttempts > 0 && attempts >= s.maxAttempts {
		itemLogger.Warn("item reached retry ceiling; manual removal required",
			logging.Int("max_attempts", s.maxAttempts),
			logging.String(logging.FieldEventType, "item_permanently_failed"),
			logging.String(logging.FieldErrorHint, "inspect the payload and remove the item"),
		)
		if err := s.notifier.NotifyItemFailed(ctx, string(item.Type), item.ID, uploadErr); err != nil {
			itemLogger.Debug("item failed notification failed", logging.Error(err))
		}
	}
}

func (s *Scheduler) upload(ctx context.Context, item *queue.Item) error {
	fn, err := s.registry.Lookup(item.Type)
	if err != nil {
		return err
	}
	return fn(ctx, item)
}

// Busy reports whether a sync run is in flight.
func (s *Scheduler) Busy() bool {
	return s.busy.Load()
}
