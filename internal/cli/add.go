package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCategory string

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a habit",
	Long: `Add a habit to track.

Examples:
  habitsync add "Meditation"
  habitsync add "Deep work 4h" --category focus`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "Category label")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	name := strings.Join(args, " ")
	task, err := a.tracker.CreateTask(cmd.Context(), name, addCategory)
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}

	fmt.Printf("✅ Added %q (%s)\n", task.Name, shortID(task.ID))
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
