// Package mirror provides the local cache of remote entities for
// offline reads and optimistic writes. The mirror is never
// authoritative; it may be stale or ahead of the remote store while
// writes are pending in the outbox.
package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/daystreak/habitsync/internal/db"
	"github.com/daystreak/habitsync/internal/model"
)

// Store wraps the mirror tables of the local database.
type Store struct {
	db *db.DB
}

// New creates a Store over an opened local database.
func New(database *db.DB) *Store {
	return &Store{db: database}
}

// UpsertTask inserts or updates a task by id.
func (s *Store) UpsertTask(ctx context.Context, task model.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, name, category, active, schedule, sort_index, allow_partial, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			active = excluded.active,
			schedule = excluded.schedule,
			sort_index = excluded.sort_index,
			allow_partial = excluded.allow_partial,
			updated_at = excluded.updated_at`,
		task.ID, task.UserID, task.Name, nullString(task.Category),
		boolInt(task.Active), task.Schedule, task.SortIndex, boolInt(task.AllowPartial),
		task.CreatedAt.Format(time.RFC3339), task.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task %s: %w", task.ID, err)
	}
	return nil
}

// GetTask returns one task by id, or nil when absent.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, COALESCE(category, ''), active, schedule, sort_index, allow_partial, created_at, updated_at
		FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", id, err)
	}
	return task, nil
}

// ListTasks returns a user's tasks ordered by sort index. When
// activeOnly is set, archived tasks are filtered out.
func (s *Store) ListTasks(ctx context.Context, userID string, activeOnly bool) ([]model.Task, error) {
	query := `
		SELECT id, user_id, name, COALESCE(category, ''), active, schedule, sort_index, allow_partial, created_at, updated_at
		FROM tasks WHERE user_id = ?`
	if activeOnly {
		query += ` AND active = 1`
	}
	query += ` ORDER BY sort_index ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// DeleteTask removes a task and all of its entries.
func (s *Store) DeleteTask(ctx context.Context, userID, taskID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID); err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM entries WHERE task_id = ? AND user_id = ?`, taskID, userID); err != nil {
		return fmt.Errorf("failed to delete entries for task %s: %w", taskID, err)
	}

	return tx.Commit()
}

// ReorderTasks rewrites sort indexes to match the given id order.
func (s *Store) ReorderTasks(ctx context.Context, userID string, taskIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer tx.Rollback()

	for i, id := range taskIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE tasks SET sort_index = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
			i, time.Now().Format(time.RFC3339), id, userID); err != nil {
			return fmt.Errorf("failed to reorder task %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// CountTasks returns the number of tasks owned by a user.
func (s *Store) CountTasks(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return n, nil
}

// UpsertEntry inserts or updates the single entry for
// (user, task, date). A nil value clears the day back to unset.
func (s *Store) UpsertEntry(ctx context.Context, entry model.Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (user_id, task_id, date, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, task_id, date) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		entry.UserID, entry.TaskID, entry.Date, nullFloat(entry.Value),
		entry.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry (%s, %s): %w", entry.TaskID, entry.Date, err)
	}
	return nil
}

// GetEntry returns the entry for (user, task, date), or nil when unset.
func (s *Store) GetEntry(ctx context.Context, userID, taskID, date string) (*model.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, task_id, date, value, updated_at
		FROM entries WHERE user_id = ? AND task_id = ? AND date = ?`,
		userID, taskID, date)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry (%s, %s): %w", taskID, date, err)
	}
	return entry, nil
}

// ListEntries returns a user's entries within [start, end] inclusive;
// empty bounds mean unbounded.
func (s *Store) ListEntries(ctx context.Context, userID, start, end string) ([]model.Entry, error) {
	query := `SELECT user_id, task_id, date, value, updated_at FROM entries WHERE user_id = ?`
	args := []interface{}{userID}
	if start != "" {
		query += ` AND date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// UpsertDayNote inserts or updates the note for (user, date).
func (s *Store) UpsertDayNote(ctx context.Context, note model.DayNote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_notes (user_id, date, learned_text, notes_text, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			learned_text = excluded.learned_text,
			notes_text = excluded.notes_text,
			updated_at = excluded.updated_at`,
		note.UserID, note.Date, note.Learned, note.Notes,
		note.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert day note %s: %w", note.Date, err)
	}
	return nil
}

// GetDayNote returns the note for (user, date), or nil when absent.
func (s *Store) GetDayNote(ctx context.Context, userID, date string) (*model.DayNote, error) {
	var (
		note      model.DayNote
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, date, learned_text, notes_text, updated_at
		FROM day_notes WHERE user_id = ? AND date = ?`,
		userID, date,
	).Scan(&note.UserID, &note.Date, &note.Learned, &note.Notes, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get day note %s: %w", date, err)
	}
	note.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &note, nil
}

// ListDayNotes returns a user's notes within [start, end] inclusive.
func (s *Store) ListDayNotes(ctx context.Context, userID, start, end string) ([]model.DayNote, error) {
	query := `SELECT user_id, date, learned_text, notes_text, updated_at FROM day_notes WHERE user_id = ?`
	args := []interface{}{userID}
	if start != "" {
		query += ` AND date >= ?`
		args = append(args, start)
	}
	if end != "" {
		query += ` AND date <= ?`
		args = append(args, end)
	}
	query += ` ORDER BY date ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list day notes: %w", err)
	}
	defer rows.Close()

	var notes []model.DayNote
	for rows.Next() {
		var (
			note      model.DayNote
			updatedAt string
		)
		if err := rows.Scan(&note.UserID, &note.Date, &note.Learned, &note.Notes, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan day note: %w", err)
		}
		note.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// UpsertSettings inserts or updates a user's settings row.
func (s *Store) UpsertSettings(ctx context.Context, settings model.UserSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, motivation_image_url, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			motivation_image_url = excluded.motivation_image_url,
			updated_at = excluded.updated_at`,
		settings.UserID, nullString(settings.MotivationImageURL),
		settings.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

// GetSettings returns a user's settings, or nil when unset.
func (s *Store) GetSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	var (
		settings  model.UserSettings
		imageURL  sql.NullString
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, motivation_image_url, updated_at
		FROM user_settings WHERE user_id = ?`,
		userID,
	).Scan(&settings.UserID, &imageURL, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	settings.MotivationImageURL = imageURL.String
	settings.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &settings, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (*model.Task, error) {
	var (
		task                 model.Task
		active, allowPartial int
		createdAt, updatedAt string
	)
	err := row.Scan(&task.ID, &task.UserID, &task.Name, &task.Category,
		&active, &task.Schedule, &task.SortIndex, &allowPartial, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	task.Active = active != 0
	task.AllowPartial = allowPartial != 0
	task.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	task.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &task, nil
}

func scanEntry(row scanner) (*model.Entry, error) {
	var (
		entry     model.Entry
		value     sql.NullFloat64
		updatedAt string
	)
	err := row.Scan(&entry.UserID, &entry.TaskID, &entry.Date, &value, &updatedAt)
	if err != nil {
		return nil, err
	}
	if value.Valid {
		v := value.Float64
		entry.Value = &v
	}
	entry.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
