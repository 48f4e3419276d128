package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/outbox"
)

func newTestMonitor(t *testing.T) (*Monitor, *outbox.Outbox, *fakeGateway) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	ob := outbox.New(database)
	gw := newFakeGateway()
	r := NewReconciler(ob, gw, database)
	r.sleep = func(context.Context, time.Duration) {}
	m := NewMonitor(r, ob, database, gw, time.Minute)
	t.Cleanup(m.Stop)
	return m, ob, gw
}

func TestSetOnline_transitionDrains(t *testing.T) {
	m, ob, gw := newTestMonitor(t)

	enqueueEntry(t, ob, "task-1", "2026-08-27")

	m.SetOnline(true)
	if gw.callCount() != 1 {
		t.Errorf("gateway calls after offline-to-online = %d, want 1", gw.callCount())
	}

	// Already online: no transition, no extra drain.
	m.SetOnline(true)
	if gw.callCount() != 1 {
		t.Errorf("gateway calls after repeated SetOnline(true) = %d, want 1", gw.callCount())
	}
}

func TestSetOnline_goingOfflineKeepsQueue(t *testing.T) {
	m, ob, gw := newTestMonitor(t)
	ctx := context.Background()

	m.SetOnline(true)
	enqueueEntry(t, ob, "task-1", "2026-08-27")

	m.SetOnline(false)
	if gw.callCount() != 0 {
		t.Errorf("gateway calls after going offline = %d, want 0", gw.callCount())
	}

	n, err := ob.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("pending = %d, want 1", n)
	}
}

func TestForceSync_offlineShortCircuits(t *testing.T) {
	m, ob, gw := newTestMonitor(t)
	ctx := context.Background()

	enqueueEntry(t, ob, "task-1", "2026-08-27")

	status := m.ForceSync(ctx)
	if gw.callCount() != 0 {
		t.Errorf("gateway calls while offline = %d, want 0", gw.callCount())
	}
	if status.IsOnline {
		t.Error("IsOnline = true, want false")
	}
	if status.PendingCount != 1 {
		t.Errorf("PendingCount = %d, want 1", status.PendingCount)
	}
}

func TestForceSync_drainsAndReports(t *testing.T) {
	m, ob, gw := newTestMonitor(t)
	ctx := context.Background()

	m.SetOnline(true)
	enqueueEntry(t, ob, "task-1", "2026-08-27")

	status := m.ForceSync(ctx)
	if gw.callCount() != 1 {
		t.Errorf("gateway calls = %d, want 1", gw.callCount())
	}
	if status.PendingCount != 0 {
		t.Errorf("PendingCount = %d, want 0", status.PendingCount)
	}
	if status.Error != "" {
		t.Errorf("Error = %q, want empty", status.Error)
	}
	if status.LastSyncAt.IsZero() {
		t.Error("LastSyncAt zero after successful sync")
	}
}

func TestForceSync_recordsLastError(t *testing.T) {
	m, ob, gw := newTestMonitor(t)
	ctx := context.Background()

	m.SetOnline(true)
	enqueueEntry(t, ob, "task-1", "2026-08-27")
	gw.setErr(transientErr())

	status := m.ForceSync(ctx)
	if status.Error == "" {
		t.Error("Error empty after failing drain")
	}

	// A later clean drain clears the error.
	gw.setErr(nil)
	status = m.ForceSync(ctx)
	if status.Error != "" {
		t.Errorf("Error = %q after clean drain, want empty", status.Error)
	}
}

func TestDrain_overlappingCallIsNoOp(t *testing.T) {
	m, ob, gw := newTestMonitor(t)
	ctx := context.Background()

	m.SetOnline(true)
	enqueueEntry(t, ob, "task-1", "2026-08-27")

	gw.blockStart = make(chan struct{})
	gw.blockRelease = make(chan struct{})

	done := make(chan struct{})
	go func() {
		m.ForceSync(ctx)
		close(done)
	}()

	// Wait for the first drain to be mid-write, then trigger a second.
	<-gw.blockStart
	m.drain(ctx)
	if gw.callCount() != 1 {
		t.Errorf("gateway calls with drain in flight = %d, want 1", gw.callCount())
	}

	close(gw.blockRelease)
	<-done
}
