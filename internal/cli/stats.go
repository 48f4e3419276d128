package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/daystreak/habitsync/internal/stats"
)

var statsRange string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show completion statistics",
	Long: `Show per-habit completion statistics, worst first.

Examples:
  habitsync stats
  habitsync stats --range 30d
  habitsync stats --range all`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsRange, "range", "7d", "Window: 7d, 30d or all")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	var r stats.Range
	switch statsRange {
	case "7d":
		r = stats.RangeWeek
	case "30d":
		r = stats.RangeMonth
	case "all":
		r = stats.RangeAll
	default:
		return fmt.Errorf("unknown range %q (want 7d, 30d or all)", statsRange)
	}

	tasks, err := a.tracker.Tasks(ctx, true)
	if err != nil {
		return err
	}

	entries, err := a.tracker.Entries(ctx, "", "")
	if err != nil {
		return err
	}

	now := time.Now()
	rows := stats.ByRange(tasks, entries, r, now)
	if len(rows) == 0 {
		fmt.Println("No habits yet. Add one with: habitsync add \"Your habit\"")
		return nil
	}

	fmt.Printf("\n📊 Stats (%s)\n", statsRange)
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("  %-30s %5s %5s %5s %6s\n", "HABIT", "DONE", "PART", "FAIL", "RATE")

	for _, row := range rows {
		rate := "   —"
		if row.SuccessRate != nil {
			rate = fmt.Sprintf("%4d%%", *row.SuccessRate)
		}
		fmt.Printf("  %-30s %5d %5d %5d %6s\n",
			truncate(row.TaskName, 30), row.SuccessCount, row.PartialCount, row.FailCount, rate)
	}

	perTask := stats.ForTasks(tasks, entries, stats.WeekDates(now), now)
	fmt.Println(strings.Repeat("─", 60))
	for _, s := range perTask {
		if s.Streak > 0 {
			fmt.Printf("  🔥 %s: %d day streak\n", s.TaskName, s.Streak)
		}
	}
	fmt.Println()
	return nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n-3] + "..."
	}
	return s
}
