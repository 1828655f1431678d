// ABOUTME: CLI commands for the sync queue: status, drain now, failed ops, clear.
// ABOUTME: Clearing the queue is an escape hatch that discards unsynced changes.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var syncClearForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and control the sync queue",
	Long: `Inspect and control the offline mutation queue.

Mutations made offline queue locally and replay against the server in
order whenever a connection is available (checked every 30 seconds). An
operation that fails 5 times is quarantined as failed and kept for
inspection; it is never retried or deleted automatically.`,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connectivity and queue state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st := theApp.engine.Status()
		if st.Online {
			color.Green("online")
		} else {
			color.Yellow("offline")
		}
		fmt.Printf("  pending operations: %d\n", st.PendingCount)
		if st.LastSyncTime != nil {
			fmt.Printf("  last sync: %s\n", st.LastSyncTime.Format(time.RFC3339))
		}
		if st.Error != nil {
			color.Red("  last error: %s", *st.Error)
		}

		failed, err := theApp.db.FailedOps()
		if err != nil {
			return err
		}
		if len(failed) > 0 {
			color.Red("  %d failed operation(s); see 'feelink sync failed'", len(failed))
		}
		return nil
	},
}

var syncNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Drain the queue immediately",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !theApp.engine.Online() {
			return fmt.Errorf("offline: cannot sync now")
		}
		before := theApp.engine.Status().PendingCount
		if err := theApp.engine.ForceSyncNow(cmd.Context()); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		after := theApp.engine.Status().PendingCount
		color.Green("✓ Synced (%d → %d pending)", before, after)
		return nil
	},
}

var syncFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List quarantined operations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		failed, err := theApp.db.FailedOps()
		if err != nil {
			return err
		}
		if len(failed) == 0 {
			fmt.Println("No failed operations.")
			return nil
		}
		for _, op := range failed {
			ts := time.UnixMilli(op.Timestamp).Format(time.RFC3339)
			fmt.Printf("%4d  %s  %-6s %-6s retries=%d\n", op.ID, ts, op.Operation, op.Entity, op.RetryCount)
			if op.Error != nil {
				color.Red("      %s", *op.Error)
			}
		}
		return nil
	},
}

var syncWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the background sync loop",
	Long: `Run the connectivity poller and the interval drain in the foreground
until interrupted.

The poller probes the server health endpoint and the queue drains every
30 seconds while online. Useful alongside other tools writing to the
same local database, or for keeping a long-lived session reconciled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Println("Watching the sync queue. Press Ctrl-C to stop.")
		go theApp.monitor.Start(ctx)
		theApp.engine.Start(ctx)
		fmt.Println("Stopped.")
		return nil
	},
}

var syncClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard every queued operation",
	Long: `Discard every queued operation regardless of status.

This permanently drops unsynced local changes. It exists as an escape
hatch for a wedged queue, not as part of normal operation.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n := theApp.engine.Status().PendingCount
		if !syncClearForce {
			fmt.Printf("Discard all queued operations (%d pending)? [y/N] ", n)
			reader := bufio.NewReader(os.Stdin)
			answer, _ := reader.ReadString('\n')
			if strings.TrimSpace(strings.ToLower(answer)) != "y" {
				fmt.Println("Aborted.")
				return nil
			}
		}
		if err := theApp.engine.ClearQueue(); err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		color.Green("✓ Queue cleared")
		return nil
	},
}

func init() {
	syncClearCmd.Flags().BoolVarP(&syncClearForce, "force", "f", false, "skip confirmation")

	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncNowCmd)
	syncCmd.AddCommand(syncWatchCmd)
	syncCmd.AddCommand(syncFailedCmd)
	syncCmd.AddCommand(syncClearCmd)
}
