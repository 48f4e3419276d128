// Package outbox provides the durable local queue of mutations pending
// remote confirmation. Appends are atomic; an action leaves the queue
// only after a confirmed replay or after exhausting its retries.
package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/logger"
)

// Action is a durable mutation intent waiting to be replayed.
type Action struct {
	ID         int64
	Type       ActionType
	Payload    Payload
	CreatedAt  time.Time
	RetryCount int
}

// Outbox is the durable queue, backed by the local SQLite store.
type Outbox struct {
	db *db.DB
}

// New creates an Outbox over an opened local database.
func New(database *db.DB) *Outbox {
	return &Outbox{db: database}
}

// Enqueue appends a new action with retryCount = 0. A failure here is a
// local durable-store error and is surfaced to the caller, never
// swallowed.
func (o *Outbox) Enqueue(ctx context.Context, p Payload) (int64, error) {
	data, err := encodePayload(p)
	if err != nil {
		return 0, err
	}

	res, err := o.db.ExecContext(ctx, `
		INSERT INTO outbox (type, payload, retry_count, created_at)
		VALUES (?, ?, 0, ?)`,
		string(p.ActionType()), string(data), time.Now().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue %s action: %w", p.ActionType(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read action id: %w", err)
	}

	logger.Debug("Enqueued outbox action",
		logger.F("id", id), logger.F("type", p.ActionType()))

	return id, nil
}

// PeekAll returns all pending actions ordered oldest first. The
// autoincrement id is the enqueue order, so it is the sort key rather
// than the stored timestamp.
func (o *Outbox) PeekAll(ctx context.Context) ([]Action, error) {
	rows, err := o.db.QueryContext(ctx, `
		SELECT id, type, payload, retry_count, created_at
		FROM outbox
		ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to read outbox: %w", err)
	}
	defer rows.Close()

	var actions []Action
	for rows.Next() {
		var (
			a         Action
			typ       string
			payload   string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &typ, &payload, &a.RetryCount, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox row: %w", err)
		}

		a.Type = ActionType(typ)
		a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse action %d timestamp: %w", a.ID, err)
		}
		a.Payload, err = decodePayload(a.Type, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to decode action %d: %w", a.ID, err)
		}

		actions = append(actions, a)
	}

	return actions, rows.Err()
}

// Remove deletes one action. Removing a non-existent id is a no-op.
func (o *Outbox) Remove(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to remove action %d: %w", id, err)
	}
	return nil
}

// IncrementRetry bumps the retry counter for one action.
func (o *Outbox) IncrementRetry(ctx context.Context, id int64) error {
	_, err := o.db.ExecContext(ctx,
		`UPDATE outbox SET retry_count = retry_count + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment retry for action %d: %w", id, err)
	}
	return nil
}

// Count returns the current queue length.
func (o *Outbox) Count(ctx context.Context) (int, error) {
	var n int
	if err := o.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox: %w", err)
	}
	return n, nil
}

// Clear removes every pending action.
func (o *Outbox) Clear(ctx context.Context) error {
	if _, err := o.db.ExecContext(ctx, `DELETE FROM outbox`); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}
