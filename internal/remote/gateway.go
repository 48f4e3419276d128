// Package remote defines the narrow contract to the authoritative
// store of record and an HTTP client implementation of it. All
// operations are scoped to the owning user and keyed by the entity's
// natural key; every write is an idempotent upsert or delete so a
// replay after an ambiguous failure never creates duplicates.
package remote

import (
	"context"

	"github.com/daystreak/habitsync/internal/model"
)

// Gateway is the contract to the remote store. Failures carry no
// built-in retry; retrying is entirely the reconciler's responsibility.
type Gateway interface {
	// Ping reports whether the remote store is reachable. It is the
	// connectivity probe and carries no payload.
	Ping(ctx context.Context) error

	// UpsertTask inserts or updates a task by (owner, task id).
	UpsertTask(ctx context.Context, task model.Task) error

	// DeleteTask removes a task by id and owner. Deleting an
	// already-deleted task is a success, not an error.
	DeleteTask(ctx context.Context, userID, taskID string) error

	// UpsertEntry inserts or updates an entry by (owner, task, date).
	// Last write wins on value.
	UpsertEntry(ctx context.Context, entry model.Entry) error

	// UpsertDayNote inserts or updates a day note by (owner, date).
	UpsertDayNote(ctx context.Context, note model.DayNote) error

	// UpdateSettings inserts or updates the owner's settings row.
	UpdateSettings(ctx context.Context, settings model.UserSettings) error

	// ListTasks returns every task owned by the authenticated user.
	ListTasks(ctx context.Context) ([]model.Task, error)

	// ListEntries returns entries within [start, end] (YYYY-MM-DD,
	// inclusive); empty bounds mean unbounded.
	ListEntries(ctx context.Context, start, end string) ([]model.Entry, error)

	// ListDayNotes returns day notes within [start, end].
	ListDayNotes(ctx context.Context, start, end string) ([]model.DayNote, error)

	// GetSettings returns the owner's settings, or nil when unset.
	GetSettings(ctx context.Context) (*model.UserSettings, error)
}
