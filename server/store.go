package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/daystreak/habitsync/internal/logger"
	"github.com/daystreak/habitsync/internal/model"
)

// Row types carry the db tags for sqlx; the wire format stays on the
// model types.

type taskRow struct {
	ID           string         `db:"id"`
	UserID       string         `db:"user_id"`
	Name         string         `db:"name"`
	Category     sql.NullString `db:"category"`
	Active       bool           `db:"active"`
	Schedule     string         `db:"schedule"`
	SortIndex    int            `db:"sort_index"`
	AllowPartial bool           `db:"allow_partial"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r taskRow) task() model.Task {
	return model.Task{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Category:     r.Category.String,
		Active:       r.Active,
		Schedule:     r.Schedule,
		SortIndex:    r.SortIndex,
		AllowPartial: r.AllowPartial,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type entryRow struct {
	UserID    string          `db:"user_id"`
	TaskID    string          `db:"task_id"`
	Date      string          `db:"date"`
	Value     sql.NullFloat64 `db:"value"`
	UpdatedAt time.Time       `db:"updated_at"`
}

func (r entryRow) entry() model.Entry {
	e := model.Entry{
		UserID:    r.UserID,
		TaskID:    r.TaskID,
		Date:      r.Date,
		UpdatedAt: r.UpdatedAt,
	}
	if r.Value.Valid {
		v := r.Value.Float64
		e.Value = &v
	}
	return e
}

type dayNoteRow struct {
	UserID    string    `db:"user_id"`
	Date      string    `db:"date"`
	Learned   string    `db:"learned_text"`
	Notes     string    `db:"notes_text"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r dayNoteRow) dayNote() model.DayNote {
	return model.DayNote{
		UserID:    r.UserID,
		Date:      r.Date,
		Learned:   r.Learned,
		Notes:     r.Notes,
		UpdatedAt: r.UpdatedAt,
	}
}

// handleListTasks returns every task owned by the caller, in sort order.
func (s *Server) handleListTasks(c echo.Context) error {
	var rows []taskRow
	err := s.db.SelectContext(c.Request().Context(), &rows, `
		SELECT id, user_id, name, category, active, schedule, sort_index, allow_partial, created_at, updated_at
		FROM tasks WHERE user_id = $1 ORDER BY sort_index ASC`,
		currentUserID(c))
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return c.JSON(http.StatusOK, tasks)
}

// handleUpsertTask inserts or updates a task by its client-generated
// id. The owner always comes from the session, never the body.
func (s *Server) handleUpsertTask(c echo.Context) error {
	var task model.Task
	if err := c.Bind(&task); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if task.ID == "" || task.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "id and name required"})
	}
	task.UserID = currentUserID(c)

	_, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO tasks (id, user_id, name, category, active, schedule, sort_index, allow_partial, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			category = EXCLUDED.category,
			active = EXCLUDED.active,
			schedule = EXCLUDED.schedule,
			sort_index = EXCLUDED.sort_index,
			allow_partial = EXCLUDED.allow_partial,
			updated_at = EXCLUDED.updated_at
		WHERE tasks.user_id = EXCLUDED.user_id`,
		task.ID, task.UserID, task.Name, sql.NullString{String: task.Category, Valid: task.Category != ""},
		task.Active, task.Schedule, task.SortIndex, task.AllowPartial,
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, task)
}

// handleDeleteTask removes a task and its entries. Deleting a task
// that is already gone succeeds, so replayed deletes stay idempotent.
func (s *Server) handleDeleteTask(c echo.Context) error {
	taskID := c.Param("id")
	userID := currentUserID(c)

	tx, err := s.db.BeginTxx(c.Request().Context(), nil)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(c.Request().Context(),
		`DELETE FROM entries WHERE user_id = $1 AND task_id = $2`, userID, taskID); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if _, err := tx.ExecContext(c.Request().Context(),
		`DELETE FROM tasks WHERE user_id = $1 AND id = $2`, userID, taskID); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	if err := tx.Commit(); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleListEntries returns the caller's entries, optionally bounded
// by ?start= and ?end= (YYYY-MM-DD, inclusive).
func (s *Server) handleListEntries(c echo.Context) error {
	userID := currentUserID(c)
	start, end := c.QueryParam("start"), c.QueryParam("end")

	query := `SELECT user_id, task_id, date, value, updated_at FROM entries WHERE user_id = $1`
	args := []interface{}{userID}
	if start != "" {
		args = append(args, start)
		query += ` AND date >= $2`
	}
	if end != "" {
		args = append(args, end)
		if start != "" {
			query += ` AND date <= $3`
		} else {
			query += ` AND date <= $2`
		}
	}
	query += ` ORDER BY date ASC`

	var rows []entryRow
	if err := s.db.SelectContext(c.Request().Context(), &rows, query, args...); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	entries := make([]model.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.entry())
	}
	return c.JSON(http.StatusOK, entries)
}

// handleUpsertEntry writes the single entry for (user, task, date).
// Last write wins on value; a null value stores an explicit unset.
func (s *Server) handleUpsertEntry(c echo.Context) error {
	var entry model.Entry
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if entry.TaskID == "" || entry.Date == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "task_id and date required"})
	}
	entry.UserID = currentUserID(c)

	var value sql.NullFloat64
	if entry.Value != nil {
		value = sql.NullFloat64{Float64: *entry.Value, Valid: true}
	}

	_, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO entries (user_id, task_id, date, value, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, task_id, date) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at`,
		entry.UserID, entry.TaskID, entry.Date, value, entry.UpdatedAt,
	)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, entry)
}

// handleListDayNotes returns the caller's day notes within the
// optional ?start=/?end= bounds.
func (s *Server) handleListDayNotes(c echo.Context) error {
	userID := currentUserID(c)
	start, end := c.QueryParam("start"), c.QueryParam("end")

	query := `SELECT user_id, date, learned_text, notes_text, updated_at FROM day_notes WHERE user_id = $1`
	args := []interface{}{userID}
	if start != "" {
		args = append(args, start)
		query += ` AND date >= $2`
	}
	if end != "" {
		args = append(args, end)
		if start != "" {
			query += ` AND date <= $3`
		} else {
			query += ` AND date <= $2`
		}
	}
	query += ` ORDER BY date ASC`

	var rows []dayNoteRow
	if err := s.db.SelectContext(c.Request().Context(), &rows, query, args...); err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	notes := make([]model.DayNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.dayNote())
	}
	return c.JSON(http.StatusOK, notes)
}

// handleUpsertDayNote writes the single note for (user, date).
func (s *Server) handleUpsertDayNote(c echo.Context) error {
	var note model.DayNote
	if err := c.Bind(&note); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if note.Date == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "date required"})
	}
	note.UserID = currentUserID(c)

	_, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO day_notes (user_id, date, learned_text, notes_text, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, date) DO UPDATE SET
			learned_text = EXCLUDED.learned_text,
			notes_text = EXCLUDED.notes_text,
			updated_at = EXCLUDED.updated_at`,
		note.UserID, note.Date, note.Learned, note.Notes, note.UpdatedAt,
	)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, note)
}

// handleGetSettings returns the caller's settings, 404 when unset.
func (s *Server) handleGetSettings(c echo.Context) error {
	userID := currentUserID(c)

	var (
		imageURL  sql.NullString
		updatedAt time.Time
	)
	err := s.db.QueryRowContext(c.Request().Context(), `
		SELECT motivation_image_url, updated_at FROM user_settings WHERE user_id = $1`,
		userID,
	).Scan(&imageURL, &updatedAt)
	if err == sql.ErrNoRows {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "settings not found"})
	}
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, model.UserSettings{
		UserID:             userID,
		MotivationImageURL: imageURL.String,
		UpdatedAt:          updatedAt,
	})
}

// handleUpdateSettings writes the caller's settings row.
func (s *Server) handleUpdateSettings(c echo.Context) error {
	var settings model.UserSettings
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	settings.UserID = currentUserID(c)

	_, err := s.db.ExecContext(c.Request().Context(), `
		INSERT INTO user_settings (user_id, motivation_image_url, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			motivation_image_url = EXCLUDED.motivation_image_url,
			updated_at = EXCLUDED.updated_at`,
		settings.UserID,
		sql.NullString{String: settings.MotivationImageURL, Valid: settings.MotivationImageURL != ""},
		settings.UpdatedAt,
	)
	if err != nil {
		logger.Error("db error", logger.F("error", err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, settings)
}
