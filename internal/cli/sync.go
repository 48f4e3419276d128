package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync pending changes now",
	Long: `Push pending local changes to the server and show the sync
status. While offline, nothing is attempted and the changes stay
queued.`,
	RunE: runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE:  runStatus,
}

func init() {
	syncCmd.AddCommand(statusCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.requireLogin(); err != nil {
		return err
	}

	status := a.monitor.Status(ctx)
	if !status.IsOnline {
		fmt.Printf("📡 Offline. %d change(s) will sync when the server is reachable.\n", status.PendingCount)
		return nil
	}

	fmt.Println("🔄 Syncing...")
	status = a.monitor.ForceSync(ctx)

	if status.Error != "" {
		fmt.Printf("⚠️  Sync finished with errors: %s\n", status.Error)
	} else {
		fmt.Println("✅ Sync complete.")
	}
	if status.PendingCount > 0 {
		fmt.Printf("⏳ %d change(s) still pending.\n", status.PendingCount)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	status := a.monitor.Status(ctx)

	state := "offline"
	if status.IsOnline {
		state = "online"
	}
	fmt.Printf("Server:    %s (%s)\n", a.cfg.ServerURL, state)
	fmt.Printf("Pending:   %d\n", status.PendingCount)
	if status.LastSyncAt.IsZero() {
		fmt.Println("Last sync: never")
	} else {
		fmt.Printf("Last sync: %s\n", status.LastSyncAt.Format("2006-01-02 15:04:05"))
	}
	if status.Error != "" {
		fmt.Printf("Error:     %s\n", status.Error)
	}
	return nil
}
