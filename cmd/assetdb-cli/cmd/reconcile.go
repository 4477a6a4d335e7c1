package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"assetdb/internal/domain"
)

var reconcileCmd = &cobra.Command{
	Use:     "reconcile",
	Aliases: []string{"patch"},
	Short:   "Apply unhandled events from all clients",
	Long: `Read every client's event log and fold the events this client has
not yet handled into the local cache. Safe to run any number of times.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := res.Update()
		if err != nil {
			return err
		}
		printReconcileStats(stats)
		return nil
	},
}

var recreateCmd = &cobra.Command{
	Use:   "recreate",
	Short: "Rebuild the cache from the full event history",
	Long: `Drop the local cache and replay every event from every client's
log. Use when the cache is suspected stale or after a schema change.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := res.Recreate()
		if err != nil {
			return err
		}
		printReconcileStats(stats)
		return nil
	},
}

func printReconcileStats(stats *domain.ReconcileStats) {
	fmt.Printf("Events: %d seen, %d applied, %d skipped, %d conflicts (%s)\n",
		stats.EventsSeen, stats.Applied, stats.Skipped, stats.Conflicts, stats.Duration)
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(recreateCmd)
}
