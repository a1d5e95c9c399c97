package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dyfetch/pkg/config"
	"dyfetch/pkg/history"
	"dyfetch/pkg/ui"
)

// historyCmd groups the download history commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the download history ledger",
	Long: `Inspect the append-only ledger of already-downloaded items.

The ledger holds one hash per line. An item whose hash is present is
skipped on future runs; removing the file makes the next run download
everything again.`,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show ledger entry count and location",
	Run:   runHistoryStats,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyStatsCmd)
}

func runHistoryStats(cmd *cobra.Command, args []string) {
	cfg, err := config.Resolve(configFile, buildFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		os.Exit(1)
	}

	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		ui.PrintInfo("Ledger", cfg.History.Path)
		fmt.Println("No downloads recorded yet; the ledger is created on the first run.")
		return
	}

	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		ui.PrintError("Failed to open history ledger", err)
		os.Exit(1)
	}
	defer ledger.Close()

	ui.PrintInfo("Ledger", ledger.Path())
	ui.PrintInfo("Recorded downloads", fmt.Sprintf("%d", ledger.Len()))
}
