package model

import "time"

// Schedule kinds for tasks
const (
	ScheduleDaily    = "daily"
	ScheduleWeekdays = "weekdays"
	ScheduleCustom   = "custom"
)

// Entry values. An entry's Value pointer is nil when the day is unset.
const (
	ValueDone    = 1.0
	ValuePartial = 0.5
	ValueFailed  = 0.0
)

// Task represents a single tracked habit
type Task struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category,omitempty"`
	Active       bool      `json:"active"`
	Schedule     string    `json:"schedule"`
	SortIndex    int       `json:"sort_index"`
	AllowPartial bool      `json:"allow_partial"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewTask creates a task with defaults
func NewTask(id, userID, name string) Task {
	now := time.Now()
	return Task{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Active:    true,
		Schedule:  ScheduleDaily,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Entry records a task's completion value for one day.
// At most one entry exists per (user, task, date); upsert semantics
// everywhere, never duplicate inserts.
type Entry struct {
	UserID    string    `json:"user_id"`
	TaskID    string    `json:"task_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Value     *float64  `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Score maps an entry value to its completion score
// (done = 1, partial = 0.5, failed or unset = 0).
func (e Entry) Score() float64 {
	if e.Value == nil {
		return 0
	}
	switch *e.Value {
	case ValueDone:
		return 1
	case ValuePartial:
		return 0.5
	}
	return 0
}

// Filled reports whether the entry has been set for the day.
func (e Entry) Filled() bool {
	return e.Value != nil
}

// DayNote holds the two free-text fields for one day
type DayNote struct {
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Learned   string    `json:"learned_text"`
	Notes     string    `json:"notes_text"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSettings holds per-user preferences
type UserSettings struct {
	UserID             string    `json:"user_id"`
	MotivationImageURL string    `json:"motivation_image_url,omitempty"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DateFormat is the canonical day key layout
const DateFormat = "2006-01-02"

// FormatDate renders a time as a day key (YYYY-MM-DD)
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}
