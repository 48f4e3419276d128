package sync

import (
	"context"
	"sync"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/outbox"
	"github.com/daystreak/habitsync/internal/remote"
)

// DefaultPollInterval is how often the monitor probes the server and
// drains pending actions while online.
const DefaultPollInterval = 30 * time.Second

// Status is a point-in-time snapshot of the sync state.
type Status struct {
	IsOnline     bool
	PendingCount int
	LastSyncAt   time.Time
	Error        string
}

// Monitor tracks connectivity and runs drains: immediately on an
// offline-to-online transition, periodically while online, and on
// demand via ForceSync. At most one drain runs at a time; overlapping
// triggers are no-ops.
type Monitor struct {
	reconciler   *Reconciler
	outbox       *outbox.Outbox
	db           *db.DB
	gateway      remote.Gateway
	pollInterval time.Duration

	mu         sync.Mutex
	online     bool
	inFlight   bool
	lastSyncAt time.Time
	lastError  string

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMonitor creates a Monitor. It starts offline until the first
// probe or SetOnline call; the last sync time is restored from the
// local database.
func NewMonitor(r *Reconciler, ob *outbox.Outbox, database *db.DB, gw remote.Gateway, pollInterval time.Duration) *Monitor {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	m := &Monitor{
		reconciler:   r,
		outbox:       ob,
		db:           database,
		gateway:      gw,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
	}
	if last, err := database.LastSyncAt(); err == nil {
		m.lastSyncAt = last
	}
	return m
}

// Start launches the background poll loop.
func (m *Monitor) Start(ctx context.Context) {
	go m.pollLoop(ctx)
}

// Stop halts the background loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	m.probe(ctx)

	for {
		select {
		case <-ticker.C:
			m.probe(ctx)
			if m.Online() {
				m.drain(ctx)
			}
		case <-m.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// probe pings the server and updates the online flag, draining once
// when connectivity comes back.
func (m *Monitor) probe(ctx context.Context) {
	err := m.gateway.Ping(ctx)
	m.SetOnline(err == nil)
}

// Online reports the current connectivity flag.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity change. An offline-to-online
// transition triggers an immediate drain; going offline only flips
// the flag, pending actions stay queued.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	m.mu.Unlock()

	if online && !wasOnline {
		logger.Info("connectivity restored, draining outbox")
		m.drain(context.Background())
	}
}

// ForceSync drains the outbox immediately. While offline it returns
// the current status without touching the network.
func (m *Monitor) ForceSync(ctx context.Context) Status {
	if !m.Online() {
		return m.Status(ctx)
	}
	m.drain(ctx)
	return m.Status(ctx)
}

// drain runs one reconciler pass. A second caller while a pass is in
// flight returns immediately; the queued actions are picked up by the
// running pass or the next trigger.
func (m *Monitor) drain(ctx context.Context) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return
	}
	m.inFlight = true
	m.lastError = ""
	m.mu.Unlock()

	result := m.reconciler.Drain(ctx)

	m.mu.Lock()
	m.inFlight = false
	m.lastError = result.LastError
	if result.Succeeded > 0 {
		if last, err := m.db.LastSyncAt(); err == nil {
			m.lastSyncAt = last
		}
	}
	m.mu.Unlock()
}

// Status returns the current sync snapshot, counting pending actions
// from the outbox.
func (m *Monitor) Status(ctx context.Context) Status {
	pending, err := m.outbox.Count(ctx)
	if err != nil {
		logger.Error("failed to count pending actions", logger.F("error", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		IsOnline:     m.online,
		PendingCount: pending,
		LastSyncAt:   m.lastSyncAt,
		Error:        m.lastError,
	}
}
