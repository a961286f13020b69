package syncer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fieldsync/internal/logging"
	"fieldsync/internal/netmon"
	"fieldsync/internal/queue"
	"fieldsync/internal/syncer"
	"fieldsync/internal/testsupport"
	"fieldsync/internal/uploader"
)

type fakeNet struct {
	mu     sync.Mutex
	online bool
	subs   []chan netmon.Transition
}

func (f *fakeNet) Online() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online
}

func (f *fakeNet) Subscribe() (<-chan netmon.Transition, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan netmon.Transition, 4)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

func (f *fakeNet) setOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.online == online {
		return
	}
	f.online = online
	for _, ch := range f.subs {
		ch <- netmon.Transition{Online: online, At: time.Now()}
	}
}

type notifyRecorder struct {
	mu        sync.Mutex
	completed int
	failures  []string
}

func (n *notifyRecorder) NotifySyncStarted(context.Context, int) error { return nil }

func (n *notifyRecorder) NotifySyncCompleted(context.Context, int, int, time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed++
	return nil
}

func (n *notifyRecorder) NotifyItemFailed(_ context.Context, _ string, itemID string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, itemID)
	return nil
}

func (n *notifyRecorder) TestNotification(context.Context) error { return nil }

func TestSyncAllHappyPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t, cfg)
	ids := testsupport.EnqueueN(t, manager, 3)

	var mu sync.Mutex
	var uploaded []string
	registry := uploader.NewRegistry()
	if err := registry.Register(queue.CapturePhoto, func(_ context.Context, item *queue.Item) error {
		mu.Lock()
		uploaded = append(uploaded, item.ID)
		mu.Unlock()
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	scheduler := syncer.New(cfg, manager, registry, &fakeNet{online: true}, nil, logging.NewNop())
	result, err := scheduler.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if result.Completed != 3 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.RunID == "" {
		t.Fatal("expected a run id")
	}

	// Items upload oldest first.
	if len(uploaded) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(uploaded))
	}
	for i, id := range ids {
		if uploaded[i] != id {
			t.Fatalf("expected capture order, got %v", uploaded)
		}
	}
	for _, id := range ids {
		item, _ := manager.Get(id)
		if item.Status != queue.StatusCompleted {
			t.Fatalf("expected completed item, got %s", item.Status)
		}
	}
	if manager.PendingCount() != 0 {
		t.Fatalf("expected drained queue, got %d outstanding", manager.PendingCount())
	}
}

func TestSyncAllRefusesOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t, cfg)
	testsupport.EnqueueN(t, manager, 1)

	scheduler := syncer.New(cfg, manager, uploader.NewRegistry(), &fakeNet{online: false}, nil, logging.NewNop())
	if _, err := scheduler.SyncAll(context.Background()); !errors.Is(err, syncer.ErrOffline) {
		t.Fatalf("expected ErrOffline, got %v", err)
	}
	if manager.PendingCount() != 1 {
		t.Fatal("offline run must not touch the queue")
	}
}

func TestSyncAllPartialFailureContinues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t, cfg)
	ids := testsupport.EnqueueN(t, manager, 2)

	var attempted []string
	failNext := true
	registry := uploader.NewRegistry()
	if err := registry.Register(queue.CapturePhoto, func(_ context.Context, item *queue.Item) error {
		attempted = append(attempted, item.ID)
		if item.ID == ids[0] && failNext {
			return errors.New("remote returned 503")
		}
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	scheduler := syncer.New(cfg, manager, registry, &fakeNet{online: true}, nil, logging.NewNop())
	result, err := scheduler.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if result.Completed != 1 || result.Failed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	failed, _ := manager.Get(ids[0])
	if failed.Status != queue.StatusFailed || failed.RetryCount != 1 {
		t.Fatalf("expected failed item with one retry, got %s/%d", failed.Status, failed.RetryCount)
	}
	if failed.LastError == "" {
		t.Fatal("expected last error recorded")
	}
	succeeded, _ := manager.Get(ids[1])
	if succeeded.Status != queue.StatusCompleted {
		t.Fatalf("one failure must not block the rest, got %s", succeeded.Status)
	}

	// A second run over the mixed queue re-attempts only the failed capture.
	attempted = attempted[:0]
	failNext = false
	result, err = scheduler.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("second SyncAll: %v", err)
	}
	if result.Attempted != 1 || result.Completed != 1 {
		t.Fatalf("unexpected second result: %+v", result)
	}
	if len(attempted) != 1 || attempted[0] != ids[0] {
		t.Fatalf("expected only the failed capture re-attempted, got %v", attempted)
	}
	recovered, _ := manager.Get(ids[0])
	if recovered.Status != queue.StatusCompleted || recovered.LastError != "" {
		t.Fatalf("expected recovered item, got %s/%q", recovered.Status, recovered.LastError)
	}
	untouched, _ := manager.Get(ids[1])
	if untouched.Status != queue.StatusCompleted || untouched.RetryCount != 0 {
		t.Fatalf("completed item must not be re-passed to the uploader, got %s/%d", untouched.Status, untouched.RetryCount)
	}
	if manager.PendingCount() != 0 {
		t.Fatalf("expected drained queue, got %d outstanding", manager.PendingCount())
	}
}

func TestSyncAllRejectsConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t, cfg)
	testsupport.EnqueueN(t, manager, 1)

	started := make(chan struct{})
	release := make(chan struct{})
	registry := uploader.NewRegistry()
	if err := registry.Register(queue.CapturePhoto, func(context.Context, *queue.Item) error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	scheduler := syncer.New(cfg, manager, registry, &fakeNet{online: true}, nil, logging.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := scheduler.SyncAll(context.Background())
		done <- err
	}()

	<-started
	if !scheduler.Busy() {
		t.Fatal("expected scheduler to report busy mid-run")
	}
	if _, err := scheduler.SyncAll(context.Background()); !errors.Is(err, syncer.ErrSyncInFlight) {
		t.Fatalf("expected ErrSyncInFlight, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if scheduler.Busy() {
		t.Fatal("expected busy flag cleared after run")
	}
}

func TestSyncAllSkipsItemsPastRetryCeiling(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMaxAttempts(2))
	manager := testsupport.NewManager(t, cfg)
	id := testsupport.Enqueue(t, manager, queue.CapturePhoto, "stuck capture")

	notifier := &notifyRecorder{}
	registry := uploader.NewRegistry()
	if err := registry.Register(queue.CapturePhoto, func(context.Context, *queue.Item) error {
		return errors.New("remote rejects this payload")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	scheduler := syncer.New(cfg, manager, registry, &fakeNet{online: true}, notifier, logging.NewNop())
	ctx := context.Background()

	for run := 0; run < 2; run++ {
		result, err := scheduler.SyncAll(ctx)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if result.Failed != 1 {
			t.Fatalf("run %d: expected one failure, got %+v", run, result)
		}
	}

	item, _ := manager.Get(id)
	if item.RetryCount != 2 {
		t.Fatalf("expected 2 attempts, got %d", item.RetryCount)
	}
	if len(notifier.failures) != 1 || notifier.failures[0] != id {
		t.Fatalf("expected one permanent-failure notification, got %v", notifier.failures)
	}

	// The ceiling is reached: further runs skip the item entirely.
	result, err := scheduler.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if result.Attempted != 0 || result.Skipped != 1 {
		t.Fatalf("expected item to be skipped, got %+v", result)
	}
	item, _ = manager.Get(id)
	if item.RetryCount != 2 {
		t.Fatalf("skip must not grow the retry count, got %d", item.RetryCount)
	}
}

func TestRunFlushesOnReconnect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t, cfg)
	testsupport.EnqueueN(t, manager, 2)

	uploads := make(chan string, 4)
	registry := uploader.NewRegistry()
	if err := registry.Register(queue.CapturePhoto, func(_ context.Context, item *queue.Item) error {
		uploads <- item.ID
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	network := &fakeNet{}
	scheduler := syncer.New(cfg, manager, registry, network, nil, logging.NewNop())
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer scheduler.Stop()

	network.setOnline(true)

	for i := 0; i < 2; i++ {
		select {
		case <-uploads:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for reconnect-triggered uploads")
		}
	}
}

func TestTriggerSyncRunsManually(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	manager := testsupport.NewManager(t, cfg)
	testsupport.EnqueueN(t, manager, 1)

	uploads := make(chan string, 1)
	registry := uploader.NewRegistry()
	if err := registry.Register(queue.CapturePhoto, func(_ context.Context, item *queue.Item) error {
		uploads <- item.ID
		return nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	scheduler := syncer.New(cfg, manager, registry, &fakeNet{online: true}, nil, logging.NewNop())
	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer scheduler.Stop()

	scheduler.TriggerSync()

	select {
	case <-uploads:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for manual sync")
	}
}
