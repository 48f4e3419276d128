package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <habit>",
	Aliases: []string{"rm"},
	Short:   "Delete a habit and its history",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	task, err := findTask(cmd.Context(), a, args[0])
	if err != nil {
		return err
	}

	if err := a.tracker.DeleteTask(cmd.Context(), task.ID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	fmt.Printf("🗑️  Deleted %q\n", task.Name)
	return nil
}
