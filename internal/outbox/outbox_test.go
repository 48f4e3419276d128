package outbox

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/model"
)

func newTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return New(database)
}

func testEntry(taskID, date string, value float64) EntryPayload {
	return EntryPayload(model.Entry{
		UserID:    "user-1",
		TaskID:    taskID,
		Date:      date,
		Value:     &value,
		UpdatedAt: time.Now(),
	})
}

func TestEnqueue_countsPending(t *testing.T) {
	ob := newTestOutbox(t)
	ctx := context.Background()

	for i, p := range []Payload{
		testEntry("task-1", "2026-08-27", model.ValueDone),
		TaskDeletePayload{UserID: "user-1", TaskID: "task-2"},
		DayNotePayload(model.DayNote{UserID: "user-1", Date: "2026-08-27", Learned: "x"}),
	} {
		if _, err := ob.Enqueue(ctx, p); err != nil {
			t.Fatalf("Enqueue() #%d error = %v", i, err)
		}
		n, err := ob.Count(ctx)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n != i+1 {
			t.Errorf("Count() after %d enqueues = %d, want %d", i+1, n, i+1)
		}
	}
}

func TestPeekAll_oldestFirst(t *testing.T) {
	ob := newTestOutbox(t)
	ctx := context.Background()

	want := []ActionType{ActionUpsertEntry, ActionDeleteTask, ActionUpsertDayNote}
	payloads := []Payload{
		testEntry("task-1", "2026-08-27", model.ValueDone),
		TaskDeletePayload{UserID: "user-1", TaskID: "task-2"},
		DayNotePayload(model.DayNote{UserID: "user-1", Date: "2026-08-27"}),
	}
	for _, p := range payloads {
		if _, err := ob.Enqueue(ctx, p); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	actions, err := ob.PeekAll(ctx)
	if err != nil {
		t.Fatalf("PeekAll() error = %v", err)
	}
	if len(actions) != len(want) {
		t.Fatalf("PeekAll() returned %d actions, want %d", len(actions), len(want))
	}
	for i, a := range actions {
		if a.Type != want[i] {
			t.Errorf("action[%d].Type = %q, want %q", i, a.Type, want[i])
		}
		if a.RetryCount != 0 {
			t.Errorf("action[%d].RetryCount = %d, want 0", i, a.RetryCount)
		}
	}
}

func TestPeekAll_decodesPayload(t *testing.T) {
	ob := newTestOutbox(t)
	ctx := context.Background()

	if _, err := ob.Enqueue(ctx, testEntry("task-1", "2026-08-27", model.ValuePartial)); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	actions, err := ob.PeekAll(ctx)
	if err != nil {
		t.Fatalf("PeekAll() error = %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("PeekAll() returned %d actions, want 1", len(actions))
	}

	p, ok := actions[0].Payload.(EntryPayload)
	if !ok {
		t.Fatalf("Payload type = %T, want EntryPayload", actions[0].Payload)
	}
	if p.TaskID != "task-1" || p.Date != "2026-08-27" {
		t.Errorf("payload = (%q, %q), want (task-1, 2026-08-27)", p.TaskID, p.Date)
	}
	if p.Value == nil || *p.Value != model.ValuePartial {
		t.Errorf("payload value = %v, want %v", p.Value, model.ValuePartial)
	}
}

func TestRemove_idempotent(t *testing.T) {
	ob := newTestOutbox(t)
	ctx := context.Background()

	id, err := ob.Enqueue(ctx, testEntry("task-1", "2026-08-27", model.ValueDone))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if err := ob.Remove(ctx, id); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := ob.Remove(ctx, id); err != nil {
		t.Errorf("Remove() second call error = %v, want nil", err)
	}

	n, err := ob.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestIncrementRetry(t *testing.T) {
	ob := newTestOutbox(t)
	ctx := context.Background()

	id, err := ob.Enqueue(ctx, testEntry("task-1", "2026-08-27", model.ValueDone))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := ob.IncrementRetry(ctx, id); err != nil {
			t.Fatalf("IncrementRetry() error = %v", err)
		}
	}

	actions, err := ob.PeekAll(ctx)
	if err != nil {
		t.Fatalf("PeekAll() error = %v", err)
	}
	if actions[0].RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", actions[0].RetryCount)
	}
}

func TestClear(t *testing.T) {
	ob := newTestOutbox(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := ob.Enqueue(ctx, testEntry("task-1", "2026-08-27", model.ValueDone)); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	if err := ob.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	n, err := ob.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() after Clear = %d, want 0", n)
	}
}
