// Package tracker is the application write path. Every mutation is
// optimistic: it lands in the local mirror first, then either reaches
// the remote store directly or waits in the outbox until it can.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/mirror"
	"github.com/daystreak/habitsync/internal/model"
	"github.com/daystreak/habitsync/internal/outbox"
	"github.com/daystreak/habitsync/internal/remote"
	syncpkg "github.com/daystreak/habitsync/internal/sync"
)

// seedTasks is the starter list created for a brand-new local store.
var seedTasks = []string{
	"Sleep by 23:00",
	"Wake at 08:00",
	"Meditation",
	"Cold shower",
	"Deep work 4h",
	"Exercise",
	"Learn something",
	"Tracking",
	"Supplements",
	"Eat healthy",
	"Plan the day",
}

// Tracker coordinates the mirror, the outbox and the remote gateway
// for one authenticated user.
type Tracker struct {
	userID  string
	mirror  *mirror.Store
	outbox  *outbox.Outbox
	gateway remote.Gateway
	monitor *syncpkg.Monitor
}

// New creates a Tracker for the given user.
func New(userID string, m *mirror.Store, ob *outbox.Outbox, gw remote.Gateway, mon *syncpkg.Monitor) *Tracker {
	return &Tracker{
		userID:  userID,
		mirror:  m,
		outbox:  ob,
		gateway: gw,
		monitor: mon,
	}
}

// write pushes one mutation to the remote store, falling back to the
// outbox when offline or when the remote call fails. The mirror has
// already been updated by the caller, so this never reports failure
// for a deferrable write.
func (t *Tracker) write(ctx context.Context, p outbox.Payload, push func(context.Context) error) error {
	if !t.monitor.Online() {
		_, err := t.outbox.Enqueue(ctx, p)
		return err
	}

	if err := push(ctx); err != nil {
		logger.Warn("remote write failed, queueing",
			logger.F("type", p.ActionType()),
			logger.F("error", err))
		_, qerr := t.outbox.Enqueue(ctx, p)
		return qerr
	}
	return nil
}

// CreateTask adds a new task at the end of the user's list.
func (t *Tracker) CreateTask(ctx context.Context, name, category string) (*model.Task, error) {
	tasks, err := t.mirror.ListTasks(ctx, t.userID, false)
	if err != nil {
		return nil, err
	}

	task := model.NewTask(uuid.NewString(), t.userID, name)
	task.Category = category
	task.SortIndex = len(tasks)

	if err := t.mirror.UpsertTask(ctx, task); err != nil {
		return nil, err
	}
	if err := t.write(ctx, outbox.TaskPayload(task), func(ctx context.Context) error {
		return t.gateway.UpsertTask(ctx, task)
	}); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask saves an edited task.
func (t *Tracker) UpdateTask(ctx context.Context, task model.Task) error {
	task.UserID = t.userID
	task.UpdatedAt = time.Now()

	if err := t.mirror.UpsertTask(ctx, task); err != nil {
		return err
	}
	return t.write(ctx, outbox.TaskPayload(task), func(ctx context.Context) error {
		return t.gateway.UpsertTask(ctx, task)
	})
}

// DeleteTask removes a task and its entries everywhere.
func (t *Tracker) DeleteTask(ctx context.Context, taskID string) error {
	if err := t.mirror.DeleteTask(ctx, t.userID, taskID); err != nil {
		return err
	}
	p := outbox.TaskDeletePayload{UserID: t.userID, TaskID: taskID}
	return t.write(ctx, p, func(ctx context.Context) error {
		return t.gateway.DeleteTask(ctx, t.userID, taskID)
	})
}

// ReorderTasks applies a new ordering and queues an upsert per moved
// task, since the remote store has no bulk reorder.
func (t *Tracker) ReorderTasks(ctx context.Context, taskIDs []string) error {
	if err := t.mirror.ReorderTasks(ctx, t.userID, taskIDs); err != nil {
		return err
	}
	for i, id := range taskIDs {
		task, err := t.mirror.GetTask(ctx, id)
		if err != nil {
			return err
		}
		if task == nil || task.SortIndex != i {
			continue
		}
		tk := *task
		if err := t.write(ctx, outbox.TaskPayload(tk), func(ctx context.Context) error {
			return t.gateway.UpsertTask(ctx, tk)
		}); err != nil {
			return err
		}
	}
	return nil
}

// SetEntry records a day's value for a task. A nil value clears the
// day back to unset; the cleared state still syncs.
func (t *Tracker) SetEntry(ctx context.Context, taskID, date string, value *float64) error {
	entry := model.Entry{
		UserID:    t.userID,
		TaskID:    taskID,
		Date:      date,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	if err := t.mirror.UpsertEntry(ctx, entry); err != nil {
		return err
	}
	return t.write(ctx, outbox.EntryPayload(entry), func(ctx context.Context) error {
		return t.gateway.UpsertEntry(ctx, entry)
	})
}

// SaveDayNote stores the learned/notes text for a date.
func (t *Tracker) SaveDayNote(ctx context.Context, date, learned, notes string) error {
	note := model.DayNote{
		UserID:    t.userID,
		Date:      date,
		Learned:   learned,
		Notes:     notes,
		UpdatedAt: time.Now(),
	}
	if err := t.mirror.UpsertDayNote(ctx, note); err != nil {
		return err
	}
	return t.write(ctx, outbox.DayNotePayload(note), func(ctx context.Context) error {
		return t.gateway.UpsertDayNote(ctx, note)
	})
}

// SetMotivationImage updates the settings image URL.
func (t *Tracker) SetMotivationImage(ctx context.Context, url string) error {
	settings := model.UserSettings{
		UserID:             t.userID,
		MotivationImageURL: url,
		UpdatedAt:          time.Now(),
	}
	if err := t.mirror.UpsertSettings(ctx, settings); err != nil {
		return err
	}
	return t.write(ctx, outbox.SettingsPayload(settings), func(ctx context.Context) error {
		return t.gateway.UpdateSettings(ctx, settings)
	})
}

// Tasks returns the user's tasks from the mirror.
func (t *Tracker) Tasks(ctx context.Context, activeOnly bool) ([]model.Task, error) {
	return t.mirror.ListTasks(ctx, t.userID, activeOnly)
}

// Entries returns the user's entries in [start, end] from the mirror.
func (t *Tracker) Entries(ctx context.Context, start, end string) ([]model.Entry, error) {
	return t.mirror.ListEntries(ctx, t.userID, start, end)
}

// DayNote returns the note for a date from the mirror.
func (t *Tracker) DayNote(ctx context.Context, date string) (*model.DayNote, error) {
	return t.mirror.GetDayNote(ctx, t.userID, date)
}

// Settings returns the user's settings from the mirror.
func (t *Tracker) Settings(ctx context.Context) (*model.UserSettings, error) {
	return t.mirror.GetSettings(ctx, t.userID)
}

// Hydrate refreshes the mirror from the remote store. Pending local
// writes are drained first so the pull cannot resurrect state the
// outbox was about to overwrite.
func (t *Tracker) Hydrate(ctx context.Context, start, end string) error {
	t.monitor.ForceSync(ctx)

	tasks, err := t.gateway.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull tasks: %w", err)
	}
	for _, task := range tasks {
		if err := t.mirror.UpsertTask(ctx, task); err != nil {
			return err
		}
	}

	entries, err := t.gateway.ListEntries(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to pull entries: %w", err)
	}
	for _, entry := range entries {
		if err := t.mirror.UpsertEntry(ctx, entry); err != nil {
			return err
		}
	}

	notes, err := t.gateway.ListDayNotes(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to pull day notes: %w", err)
	}
	for _, note := range notes {
		if err := t.mirror.UpsertDayNote(ctx, note); err != nil {
			return err
		}
	}

	settings, err := t.gateway.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to pull settings: %w", err)
	}
	if settings != nil {
		if err := t.mirror.UpsertSettings(ctx, *settings); err != nil {
			return err
		}
	}

	logger.Info("mirror hydrated",
		logger.F("tasks", len(tasks)),
		logger.F("entries", len(entries)),
		logger.F("notes", len(notes)))
	return nil
}

// Seed creates the starter task list when the mirror is empty. It is
// a no-op on any store that already has tasks.
func (t *Tracker) Seed(ctx context.Context) error {
	n, err := t.mirror.CountTasks(ctx, t.userID)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	for i, name := range seedTasks {
		task := model.NewTask(uuid.NewString(), t.userID, name)
		task.SortIndex = i
		if err := t.mirror.UpsertTask(ctx, task); err != nil {
			return err
		}
		if err := t.write(ctx, outbox.TaskPayload(task), func(ctx context.Context) error {
			return t.gateway.UpsertTask(ctx, task)
		}); err != nil {
			return err
		}
	}
	logger.Info("seeded starter tasks", logger.F("count", len(seedTasks)))
	return nil
}
