package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daystreak/habitsync/internal/model"
)

var trackDate string

var trackCmd = &cobra.Command{
	Use:   "track <habit> <done|partial|fail|clear>",
	Short: "Record a habit's value for a day",
	Long: `Record a value for a habit. The habit can be named by id prefix
or by a unique name fragment.

Examples:
  habitsync track meditation done
  habitsync track "deep work" partial --date 2026-08-27
  habitsync track sport clear`,
	Args: cobra.ExactArgs(2),
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().StringVar(&trackDate, "date", "", "Date to record (YYYY-MM-DD, default today)")
}

func runTrack(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	task, err := findTask(ctx, a, args[0])
	if err != nil {
		return err
	}

	var value *float64
	switch strings.ToLower(args[1]) {
	case "done":
		v := model.ValueDone
		value = &v
	case "partial":
		if !task.AllowPartial {
			return fmt.Errorf("habit %q does not allow partial completion", task.Name)
		}
		v := model.ValuePartial
		value = &v
	case "fail":
		v := model.ValueFailed
		value = &v
	case "clear":
		value = nil
	default:
		return fmt.Errorf("unknown value %q (want done, partial, fail or clear)", args[1])
	}

	date := trackDate
	if date == "" {
		date = model.FormatDate(time.Now())
	}
	if _, err := time.Parse(model.DateFormat, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	if err := a.tracker.SetEntry(ctx, task.ID, date, value); err != nil {
		return fmt.Errorf("failed to record value: %w", err)
	}

	label := args[1]
	fmt.Printf("✅ %s: %s on %s\n", task.Name, label, date)
	printPending(ctx, a)
	return nil
}

// findTask resolves a habit by id prefix first, then by a unique
// case-insensitive name fragment.
func findTask(ctx context.Context, a *app, ref string) (*model.Task, error) {
	tasks, err := a.tracker.Tasks(ctx, false)
	if err != nil {
		return nil, err
	}

	for _, t := range tasks {
		if strings.HasPrefix(t.ID, ref) {
			task := t
			return &task, nil
		}
	}

	needle := strings.ToLower(ref)
	var matches []model.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return &matches[0], nil
	case 0:
		return nil, fmt.Errorf("no habit matches %q", ref)
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", ref, strings.Join(names, ", "))
	}
}
