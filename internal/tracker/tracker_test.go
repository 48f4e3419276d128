package tracker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/mirror"
	"github.com/daystreak/habitsync/internal/model"
	"github.com/daystreak/habitsync/internal/outbox"
	syncpkg "github.com/daystreak/habitsync/internal/sync"
)

// stubGateway counts writes and fails on demand.
type stubGateway struct {
	mu      sync.Mutex
	err     error
	upserts int
	deletes int
	entries int
	notes   int
	updates int
}

func (g *stubGateway) fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

func (g *stubGateway) touch(counter *int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	*counter++
	return nil
}

func (g *stubGateway) Ping(context.Context) error { return nil }
func (g *stubGateway) UpsertTask(context.Context, model.Task) error {
	return g.touch(&g.upserts)
}
func (g *stubGateway) DeleteTask(context.Context, string, string) error {
	return g.touch(&g.deletes)
}
func (g *stubGateway) UpsertEntry(context.Context, model.Entry) error {
	return g.touch(&g.entries)
}
func (g *stubGateway) UpsertDayNote(context.Context, model.DayNote) error {
	return g.touch(&g.notes)
}
func (g *stubGateway) UpdateSettings(context.Context, model.UserSettings) error {
	return g.touch(&g.updates)
}
func (g *stubGateway) ListTasks(context.Context) ([]model.Task, error)    { return nil, nil }
func (g *stubGateway) ListEntries(context.Context, string, string) ([]model.Entry, error) {
	return nil, nil
}
func (g *stubGateway) ListDayNotes(context.Context, string, string) ([]model.DayNote, error) {
	return nil, nil
}
func (g *stubGateway) GetSettings(context.Context) (*model.UserSettings, error) { return nil, nil }

type fixture struct {
	tracker *Tracker
	mirror  *mirror.Store
	outbox  *outbox.Outbox
	monitor *syncpkg.Monitor
	gateway *stubGateway
}

func newFixture(t *testing.T, online bool) *fixture {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	gw := &stubGateway{}
	ob := outbox.New(database)
	store := mirror.New(database)
	rec := syncpkg.NewReconciler(ob, gw, database)
	mon := syncpkg.NewMonitor(rec, ob, database, gw, time.Minute)
	t.Cleanup(mon.Stop)
	mon.SetOnline(online)

	return &fixture{
		tracker: New("user-1", store, ob, gw, mon),
		mirror:  store,
		outbox:  ob,
		monitor: mon,
		gateway: gw,
	}
}

func pendingTypes(t *testing.T, ob *outbox.Outbox) []outbox.ActionType {
	t.Helper()
	actions, err := ob.PeekAll(context.Background())
	if err != nil {
		t.Fatalf("PeekAll() error = %v", err)
	}
	types := make([]outbox.ActionType, len(actions))
	for i, a := range actions {
		types[i] = a.Type
	}
	return types
}

func TestSetEntry_offlineQueuesAndMirrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	v := model.ValuePartial
	if err := f.tracker.SetEntry(ctx, "task-1", "2026-08-27", &v); err != nil {
		t.Fatalf("SetEntry() error = %v", err)
	}

	// Mirror reflects the write immediately.
	got, err := f.mirror.GetEntry(ctx, "user-1", "task-1", "2026-08-27")
	if err != nil {
		t.Fatalf("GetEntry() error = %v", err)
	}
	if got == nil || got.Value == nil || *got.Value != model.ValuePartial {
		t.Errorf("mirror entry = %+v, want partial value", got)
	}

	// Exactly one action queued; no network attempt.
	types := pendingTypes(t, f.outbox)
	if len(types) != 1 || types[0] != outbox.ActionUpsertEntry {
		t.Errorf("pending = %v, want [upsert_entry]", types)
	}
	if f.gateway.entries != 0 {
		t.Errorf("gateway entry writes = %d, want 0", f.gateway.entries)
	}
}

func TestSetEntry_onlineWritesThrough(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	v := model.ValueDone
	if err := f.tracker.SetEntry(ctx, "task-1", "2026-08-27", &v); err != nil {
		t.Fatalf("SetEntry() error = %v", err)
	}

	if f.gateway.entries != 1 {
		t.Errorf("gateway entry writes = %d, want 1", f.gateway.entries)
	}
	if types := pendingTypes(t, f.outbox); len(types) != 0 {
		t.Errorf("pending = %v, want empty", types)
	}
}

func TestSetEntry_remoteFailureQueuesAndSucceeds(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.gateway.fail(errors.New("boom"))

	v := model.ValueDone
	if err := f.tracker.SetEntry(ctx, "task-1", "2026-08-27", &v); err != nil {
		t.Fatalf("SetEntry() error = %v, want nil (optimistic)", err)
	}

	if types := pendingTypes(t, f.outbox); len(types) != 1 {
		t.Errorf("pending = %v, want one queued action", types)
	}
}

func TestCreateTask_appendsSortIndex(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.tracker.CreateTask(ctx, "Meditation", "")
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	second, err := f.tracker.CreateTask(ctx, "Sport", "health")
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if first.SortIndex != 0 || second.SortIndex != 1 {
		t.Errorf("sort indexes = (%d, %d), want (0, 1)", first.SortIndex, second.SortIndex)
	}
	if second.Category != "health" {
		t.Errorf("Category = %q, want health", second.Category)
	}
	if second.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", second.UserID)
	}
}

func TestDeleteTask_offline(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	task, err := f.tracker.CreateTask(ctx, "Sport", "")
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	v := model.ValueDone
	if err := f.tracker.SetEntry(ctx, task.ID, "2026-08-27", &v); err != nil {
		t.Fatalf("SetEntry() error = %v", err)
	}

	if err := f.tracker.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	got, err := f.mirror.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got != nil {
		t.Error("task still in mirror after delete")
	}

	types := pendingTypes(t, f.outbox)
	want := []outbox.ActionType{outbox.ActionUpsertTask, outbox.ActionUpsertEntry, outbox.ActionDeleteTask}
	if len(types) != len(want) {
		t.Fatalf("pending = %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("pending[%d] = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestQueuedActionsDrainAfterReconnect(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	v := model.ValueDone
	if err := f.tracker.SetEntry(ctx, "task-1", "2026-08-27", &v); err != nil {
		t.Fatalf("SetEntry() error = %v", err)
	}
	if err := f.tracker.SaveDayNote(ctx, "2026-08-27", "learned", "notes"); err != nil {
		t.Fatalf("SaveDayNote() error = %v", err)
	}

	f.monitor.SetOnline(true)

	if f.gateway.entries != 1 || f.gateway.notes != 1 {
		t.Errorf("gateway writes = (%d entries, %d notes), want (1, 1)",
			f.gateway.entries, f.gateway.notes)
	}
	if n := len(pendingTypes(t, f.outbox)); n != 0 {
		t.Errorf("pending after reconnect = %d, want 0", n)
	}
}

func TestSeed_onlyOnEmptyStore(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	if err := f.tracker.Seed(ctx); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	tasks, err := f.mirror.ListTasks(ctx, "user-1", true)
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != len(seedTasks) {
		t.Fatalf("seeded %d tasks, want %d", len(tasks), len(seedTasks))
	}
	for i, task := range tasks {
		if task.SortIndex != i {
			t.Errorf("task[%d].SortIndex = %d, want %d", i, task.SortIndex, i)
		}
	}

	if err := f.tracker.Seed(ctx); err != nil {
		t.Fatalf("Seed() second call error = %v", err)
	}
	tasks, _ = f.mirror.ListTasks(ctx, "user-1", true)
	if len(tasks) != len(seedTasks) {
		t.Errorf("after second Seed() store has %d tasks, want %d", len(tasks), len(seedTasks))
	}
}

func TestSetMotivationImage(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if err := f.tracker.SetMotivationImage(ctx, "https://example.com/img.png"); err != nil {
		t.Fatalf("SetMotivationImage() error = %v", err)
	}

	settings, err := f.tracker.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings == nil || settings.MotivationImageURL != "https://example.com/img.png" {
		t.Errorf("settings = %+v, want stored image url", settings)
	}
	if f.gateway.updates != 1 {
		t.Errorf("gateway settings writes = %d, want 1", f.gateway.updates)
	}
}
