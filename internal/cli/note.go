package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daystreak/habitsync/internal/model"
)

var (
	noteDate    string
	noteLearned string
	noteText    string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Save or show a day's journal note",
	Long: `Save or show the journal note for a day. Without flags the
current note is printed.

Examples:
  habitsync note --learned "Backoff must cap retries"
  habitsync note --text "Rough day, slept badly" --date 2026-08-27
  habitsync note`,
	RunE: runNote,
}

func init() {
	noteCmd.Flags().StringVar(&noteDate, "date", "", "Date (YYYY-MM-DD, default today)")
	noteCmd.Flags().StringVar(&noteLearned, "learned", "", "What you learned")
	noteCmd.Flags().StringVar(&noteText, "text", "", "Free-form note")
}

func runNote(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	date := noteDate
	if date == "" {
		date = model.FormatDate(time.Now())
	}

	if !cmd.Flags().Changed("learned") && !cmd.Flags().Changed("text") {
		note, err := a.tracker.DayNote(ctx, date)
		if err != nil {
			return err
		}
		if note == nil {
			fmt.Printf("No note for %s.\n", date)
			return nil
		}
		fmt.Printf("\n📓 %s\n", date)
		if note.Learned != "" {
			fmt.Printf("  Learned: %s\n", note.Learned)
		}
		if note.Notes != "" {
			fmt.Printf("  Notes:   %s\n", note.Notes)
		}
		fmt.Println()
		return nil
	}

	learned, text := noteLearned, noteText
	if existing, err := a.tracker.DayNote(ctx, date); err == nil && existing != nil {
		if !cmd.Flags().Changed("learned") {
			learned = existing.Learned
		}
		if !cmd.Flags().Changed("text") {
			text = existing.Notes
		}
	}

	if err := a.tracker.SaveDayNote(ctx, date, learned, text); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	fmt.Printf("📓 Note saved for %s\n", date)
	printPending(ctx, a)
	return nil
}
