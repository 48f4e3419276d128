package outbox

import (
	"encoding/json"
	"fmt"

	"github.com/daystreak/habitsync/internal/model"
)

// ActionType identifies the mutation kind carried by an outbox action.
type ActionType string

const (
	ActionUpsertTask     ActionType = "upsert_task"
	ActionDeleteTask     ActionType = "delete_task"
	ActionUpsertEntry    ActionType = "upsert_entry"
	ActionUpsertDayNote  ActionType = "upsert_day_note"
	ActionUpdateSettings ActionType = "update_settings"
)

// Payload is a self-describing mutation body. Each variant carries the
// owning user id and every field needed to replay the mutation against
// the remote store with no other context.
type Payload interface {
	ActionType() ActionType
}

// TaskPayload replays a full task upsert.
type TaskPayload model.Task

func (TaskPayload) ActionType() ActionType { return ActionUpsertTask }

// TaskDeletePayload replays a task deletion by id and owner.
type TaskDeletePayload struct {
	UserID string `json:"user_id"`
	TaskID string `json:"task_id"`
}

func (TaskDeletePayload) ActionType() ActionType { return ActionDeleteTask }

// EntryPayload replays an entry upsert keyed by (user, task, date).
type EntryPayload model.Entry

func (EntryPayload) ActionType() ActionType { return ActionUpsertEntry }

// DayNotePayload replays a day-note upsert keyed by (user, date).
type DayNotePayload model.DayNote

func (DayNotePayload) ActionType() ActionType { return ActionUpsertDayNote }

// SettingsPayload replays a user-settings update.
type SettingsPayload model.UserSettings

func (SettingsPayload) ActionType() ActionType { return ActionUpdateSettings }

// encodePayload serializes a payload for storage in the outbox row.
func encodePayload(p Payload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", p.ActionType(), err)
	}
	return data, nil
}

// decodePayload restores the typed payload for a stored action.
func decodePayload(t ActionType, data []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)

	switch t {
	case ActionUpsertTask:
		var v TaskPayload
		err = json.Unmarshal(data, &v)
		p = v
	case ActionDeleteTask:
		var v TaskDeletePayload
		err = json.Unmarshal(data, &v)
		p = v
	case ActionUpsertEntry:
		var v EntryPayload
		err = json.Unmarshal(data, &v)
		p = v
	case ActionUpsertDayNote:
		var v DayNotePayload
		err = json.Unmarshal(data, &v)
		p = v
	case ActionUpdateSettings:
		var v SettingsPayload
		err = json.Unmarshal(data, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown action type %q", t)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", t, err)
	}
	return p, nil
}
