package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pluck-sh/pluck/pkg/pluck/config"
	"github.com/pluck-sh/pluck/pkg/pluck/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View bundle history",
	Long: `View the history of delivered bundles.

Each copy or save appends a record of what was bundled, in which
format, and where it went.`,
	RunE: runHistory,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean up old history records",
	Long:  `Remove history records older than the retention period.`,
	RunE:  runHistoryClean,
}

var historyLimit int

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "", 20, "maximum number of records to show")

	historyCmd.AddCommand(historyCleanCmd)
	rootCmd.AddCommand(historyCmd)
}

// getHistory returns a history log over the configured directory.
func getHistory() (*history.Log, error) {
	cfg, err := config.Load()
	if err != nil {
		return history.New(config.DefaultHistoryDir())
	}
	return history.New(cfg.HistoryDir())
}

// runHistory lists recent bundles.
func runHistory(cmd *cobra.Command, args []string) error {
	l, err := getHistory()
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	records, err := l.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(records) == 0 {
		infof("No history records found.")
		infof("Run 'pluck [path]' and copy or save a selection.")
		return nil
	}

	// Print header
	fmt.Printf("\n%-16s  %-9s  %-8s  %6s  %9s  %s\n", "TIME", "DEST", "FORMAT", "FILES", "SIZE", "ROOT")
	fmt.Println(strings.Repeat("-", 80))

	for _, rec := range records {
		fmt.Printf("%-16s  %-9s  %-8s  %6d  %9s  %s\n",
			rec.Time.Local().Format("2006-01-02 15:04"),
			rec.Destination,
			rec.Format,
			rec.Files,
			humanize.IBytes(uint64(rec.Bytes)),
			truncatePath(rec.Root, 30),
		)
	}

	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("\nShowing %d records. Use --limit to see more.\n", len(records))

	return nil
}

// runHistoryClean removes old history records.
func runHistoryClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := history.New(cfg.HistoryDir())
	if err != nil {
		return fmt.Errorf("failed to initialize history: %w", err)
	}

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	infof("Cleaning history records older than %d days...", retentionDays)

	if err := l.Cleanup(retentionDays); err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}

	infof("History cleanup complete.")
	return nil
}

// truncatePath truncates a path to fit within maxLen, preserving the end.
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	if maxLen <= 3 {
		return path[:maxLen]
	}
	return "..." + path[len(path)-(maxLen-3):]
}
