// Package stats computes completion statistics from mirror data.
// Everything here is a pure transform; callers pass tasks and entries
// in and get aggregates out, so the math works identically offline.
package stats

import (
	"sort"
	"time"

	"github.com/daystreak/habitsync/internal/model"
)

// DayStats aggregates one day across a user's active tasks.
type DayStats struct {
	Completed int
	Partial   int
	Total     int
	Rate      int
	Filled    int
	FillRate  int
}

// TaskStats aggregates one task over the selected week and over all
// recorded history. Completed counts can be fractional because a
// partial day scores 0.5.
type TaskStats struct {
	TaskID        string
	TaskName      string
	WeekCompleted float64
	WeekTotal     int
	WeekRate      int
	AllCompleted  float64
	AllTotal      int
	AllRate       int
	Streak        int
}

// Range selects the window for RangeStats.
type Range string

const (
	RangeWeek  Range = "7d"
	RangeMonth Range = "30d"
	RangeAll   Range = "all"
)

// RangeStats breaks a task's entries down within a window. A nil
// SuccessRate means the task has no filled entries in the window.
type RangeStats struct {
	TaskID       string
	TaskName     string
	SuccessCount int
	PartialCount int
	FailCount    int
	SuccessRate  *int
}

// Day computes the stats for one day's entries against the active
// task set. Rate weights a partial at half; FillRate measures how
// many active tasks have any value at all.
func Day(entries []model.Entry, tasks []model.Task) DayStats {
	active := activeTaskIDs(tasks)

	var s DayStats
	var score float64
	for _, e := range entries {
		if !active[e.TaskID] || !e.Filled() {
			continue
		}
		s.Filled++
		switch *e.Value {
		case model.ValueDone:
			s.Completed++
		case model.ValuePartial:
			s.Partial++
		}
		score += e.Score()
	}
	s.Total = s.Filled

	if s.Total > 0 {
		s.Rate = roundRate(score, s.Total)
	}
	if len(active) > 0 {
		s.FillRate = roundRate(float64(s.Filled), len(active))
	}
	return s
}

// Period computes completion over an explicit set of dates, such as
// one week or one month.
func Period(taskID string, entries []model.Entry, dates []string) (completed float64, total int, rate int) {
	inPeriod := make(map[string]bool, len(dates))
	for _, d := range dates {
		inPeriod[d] = true
	}

	for _, e := range entries {
		if e.TaskID != taskID || !inPeriod[e.Date] || !e.Filled() {
			continue
		}
		completed += e.Score()
		total++
	}
	if total > 0 {
		rate = roundRate(completed, total)
	}
	return completed, total, rate
}

// AllTime computes completion over every filled entry of a task.
func AllTime(taskID string, entries []model.Entry) (completed float64, total int, rate int) {
	for _, e := range entries {
		if e.TaskID != taskID || !e.Filled() {
			continue
		}
		completed += e.Score()
		total++
	}
	if total > 0 {
		rate = roundRate(completed, total)
	}
	return completed, total, rate
}

// Streak counts consecutive days done or partially done, walking
// backwards from now. An explicit fail breaks the streak; so does a
// gap of more than one day. An unfilled today does not break it.
func Streak(taskID string, entries []model.Entry, now time.Time) int {
	var taskEntries []model.Entry
	for _, e := range entries {
		if e.TaskID == taskID {
			taskEntries = append(taskEntries, e)
		}
	}
	sort.Slice(taskEntries, func(i, j int) bool {
		return taskEntries[i].Date > taskEntries[j].Date
	})

	streak := 0
	current, _ := time.Parse(model.DateFormat, model.FormatDate(now))

	for _, e := range taskEntries {
		date, err := time.Parse(model.DateFormat, e.Date)
		if err != nil {
			continue
		}
		if e.Date != model.FormatDate(current) {
			gap := int(current.Sub(date).Hours() / 24)
			if gap > 1 {
				break
			}
			current = date
		}

		if e.Filled() && *e.Value >= model.ValuePartial {
			streak++
			current = current.AddDate(0, 0, -1)
		} else if e.Filled() && *e.Value == model.ValueFailed {
			break
		}
	}
	return streak
}

// ForTasks builds the full per-task stat rows for the active tasks,
// scoped to the given week dates for the weekly columns.
func ForTasks(tasks []model.Task, entries []model.Entry, weekDates []string, now time.Time) []TaskStats {
	var out []TaskStats
	for _, task := range tasks {
		if !task.Active {
			continue
		}
		s := TaskStats{TaskID: task.ID, TaskName: task.Name}
		s.WeekCompleted, s.WeekTotal, s.WeekRate = Period(task.ID, entries, weekDates)
		s.AllCompleted, s.AllTotal, s.AllRate = AllTime(task.ID, entries)
		s.Streak = Streak(task.ID, entries, now)
		out = append(out, s)
	}
	return out
}

// Hardest returns up to limit tasks with the lowest all-time rate,
// skipping tasks with no data.
func Hardest(stats []TaskStats, limit int) []TaskStats {
	return pickByRate(stats, limit, func(a, b TaskStats) bool {
		return a.AllRate < b.AllRate
	})
}

// Best returns up to limit tasks with the highest all-time rate,
// skipping tasks with no data.
func Best(stats []TaskStats, limit int) []TaskStats {
	return pickByRate(stats, limit, func(a, b TaskStats) bool {
		return a.AllRate > b.AllRate
	})
}

func pickByRate(stats []TaskStats, limit int, less func(a, b TaskStats) bool) []TaskStats {
	var withData []TaskStats
	for _, s := range stats {
		if s.AllTotal > 0 {
			withData = append(withData, s)
		}
	}
	sort.SliceStable(withData, func(i, j int) bool {
		return less(withData[i], withData[j])
	})
	if len(withData) > limit {
		withData = withData[:limit]
	}
	return withData
}

// ByRange breaks each active task down within a trailing window ending
// now, sorted worst rate first with no-data tasks last.
func ByRange(tasks []model.Task, entries []model.Entry, r Range, now time.Time) []RangeStats {
	start := ""
	end := model.FormatDate(now)
	switch r {
	case RangeWeek:
		start = model.FormatDate(now.AddDate(0, 0, -7))
	case RangeMonth:
		start = model.FormatDate(now.AddDate(0, 0, -30))
	}

	var out []RangeStats
	for _, task := range tasks {
		if !task.Active {
			continue
		}
		s := RangeStats{TaskID: task.ID, TaskName: task.Name}
		for _, e := range entries {
			if e.TaskID != task.ID || !e.Filled() {
				continue
			}
			if r != RangeAll && (e.Date < start || e.Date > end) {
				continue
			}
			switch *e.Value {
			case model.ValueDone:
				s.SuccessCount++
			case model.ValuePartial:
				s.PartialCount++
			case model.ValueFailed:
				s.FailCount++
			}
		}

		total := s.SuccessCount + s.PartialCount + s.FailCount
		if total > 0 {
			score := float64(s.SuccessCount) + float64(s.PartialCount)*0.5
			rate := roundRate(score, total)
			s.SuccessRate = &rate
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SuccessRate, out[j].SuccessRate
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return *a < *b
	})
	return out
}

// WeekDates returns the Monday-through-Sunday dates of the week
// containing the given day.
func WeekDates(day time.Time) []string {
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)

	dates := make([]string, 7)
	for i := range dates {
		dates[i] = model.FormatDate(monday.AddDate(0, 0, i))
	}
	return dates
}

// MonthDates returns every date of the month containing the given day.
func MonthDates(day time.Time) []string {
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())

	var dates []string
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		dates = append(dates, model.FormatDate(d))
	}
	return dates
}

func roundRate(score float64, total int) int {
	return int(score/float64(total)*100 + 0.5)
}

func activeTaskIDs(tasks []model.Task) map[string]bool {
	ids := make(map[string]bool)
	for _, t := range tasks {
		if t.Active {
			ids[t.ID] = true
		}
	}
	return ids
}
