package netmon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

// Transition is emitted on every online/offline edge.
type Transition struct {
	Online bool
	At     time.Time
}

// ProbeFunc checks remote reachability. A nil error means online.
type ProbeFunc func(ctx context.Context) error

// Option configures optional Monitor behavior.
type Option func(*Monitor)

// WithProbe overrides the reachability probe (used in tests).
func WithProbe(probe ProbeFunc) Option {
	return func(m *Monitor) {
		m.probe = probe
	}
}

// Monitor exposes a single online/offline signal derived from an HTTP
// reachability probe. Link presence alone never flips the state: a connection
// with no internet reachability counts as offline, so every state change is
// confirmed by a probe. A netlink watcher nudges an immediate re-probe when a
// network interface appears or changes; a periodic ticker is the fallback.
type Monitor struct {
	logger   *slog.Logger
	probe    ProbeFunc
	interval time.Duration
	kick     chan struct{}
	netlink  *netlinkWatcher

	mu      sync.Mutex
	online  bool
	known   bool
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	subs    map[int]chan Transition
	nextSub int
}

// New constructs a monitor from the [network] config section.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Monitor {
	interval := time.Duration(cfg.Network.ProbeInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}

	m := &Monitor{
		logger:   logging.NewComponentLogger(logger, "network-monitor"),
		probe:    defaultProbe(cfg),
		interval: interval,
		kick:     make(chan struct{}, 1),
		subs:     make(map[int]chan Transition),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.netlink = newNetlinkWatcher(m.logger, m.Kick)
	return m
}

func defaultProbe(cfg *config.Config) ProbeFunc {
	target := cfg.Network.ProbeURL
	if target == "" {
		target = cfg.Remote.BaseURL + cfg.Remote.HealthPath
	}
	timeout := time.Duration(cfg.Network.ProbeTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("build probe request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("probe %s: %w", target, err)
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		// Any HTTP response proves reachability; the endpoint's own health
		// semantics are not the monitor's concern.
		return nil
	}
}

// Start probes once immediately, then keeps the state fresh until Stop.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.netlink.Start(runCtx)
	go m.loop(runCtx)
	return nil
}

// Stop tears down the probe loop and the netlink watcher.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.netlink.Stop()
	m.wg.Wait()
}

// Online reports the last confirmed reachability state. Before the first
// probe resolves the monitor reports offline.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.known && m.online
}

// Kick requests an immediate re-probe without waiting for the ticker.
func (m *Monitor) Kick() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Subscribe returns a channel that receives every online/offline transition.
func (m *Monitor) Subscribe() (<-chan Transition, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Transition, 4)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}

func (m *Monitor) loop(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeOnce(ctx)
		case <-m.kick:
			m.probeOnce(ctx)
		}
	}
}

func (m *Monitor) probeOnce(ctx context.Context) {
	err := m.probe(ctx)
	if ctx.Err() != nil {
		return
	}
	online := err == nil
	if !online {
		m.logger.Debug("reachability probe failed", logging.Error(err))
	}
	m.setState(online)
}

func (m *Monitor) setState(online bool) {
	m.mu.Lock()
	changed := !m.known || m.online != online
	m.known = true
	m.online = online
	var targets []chan Transition
	if changed {
		targets = make([]chan Transition, 0, len(m.subs))
		for _, ch := range m.subs {
			targets = append(targets, ch)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Info("connectivity changed",
		logging.Bool("online", online),
		logging.String(logging.FieldEventType, "connectivity_changed"),
	)
	event := Transition{Online: online, At: time.Now().UTC()}
	for _, ch := range targets {
		select {
		case ch <- event:
		default:
		}
	}
}
