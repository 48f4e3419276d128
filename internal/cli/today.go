package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daystreak/habitsync/internal/model"
	"github.com/daystreak/habitsync/internal/stats"
)

var todayDate string

var todayCmd = &cobra.Command{
	Use:     "today",
	Aliases: []string{"ls"},
	Short:   "Show the day's checklist",
	Long: `Show the day's habits with their recorded values.

Examples:
  habitsync today
  habitsync today --date 2026-08-27`,
	RunE: runToday,
}

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "Date to show (YYYY-MM-DD, default today)")
}

func runToday(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	date := todayDate
	if date == "" {
		date = model.FormatDate(time.Now())
	}

	tasks, err := a.tracker.Tasks(ctx, true)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No habits yet. Add one with: habitsync add \"Your habit\"")
		return nil
	}

	entries, err := a.tracker.Entries(ctx, date, date)
	if err != nil {
		return err
	}
	byTask := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		byTask[e.TaskID] = e
	}

	day := stats.Day(entries, tasks)
	fmt.Printf("\n📅 %s  (%d%% done, %d/%d filled)\n", date, day.Rate, day.Filled, len(tasks))
	fmt.Println(strings.Repeat("─", 60))

	for i, t := range tasks {
		printTaskLine(i+1, t, byTask)
	}
	fmt.Println()

	printPending(ctx, a)
	return nil
}

func printTaskLine(num int, t model.Task, byTask map[string]model.Entry) {
	icon := "[ ]"
	if e, ok := byTask[t.ID]; ok && e.Filled() {
		switch *e.Value {
		case model.ValueDone:
			icon = "[x]"
		case model.ValuePartial:
			icon = "[~]"
		case model.ValueFailed:
			icon = "[✗]"
		}
	}

	category := ""
	if t.Category != "" {
		category = "#" + t.Category
	}

	fmt.Printf("  %2d. %s  %-8s  %-35s %s\n", num, icon, shortID(t.ID), t.Name, category)
}

func printPending(ctx context.Context, a *app) {
	status := a.monitor.Status(ctx)
	if status.PendingCount > 0 {
		state := "offline"
		if status.IsOnline {
			state = "online"
		}
		fmt.Printf("⏳ %d change(s) pending sync (%s)\n", status.PendingCount, state)
	}
}
