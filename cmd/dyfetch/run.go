package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"dyfetch/pkg/config"
	"dyfetch/pkg/douyin"
	"dyfetch/pkg/history"
	"dyfetch/pkg/logger"
	"dyfetch/pkg/pipeline"
	"dyfetch/pkg/ratelimit"
	"dyfetch/pkg/storage"
	"dyfetch/pkg/ui"
)

var (
	// Root command flags
	linksFlag      string
	outputFlag     string
	barWidthFlag   int
	historyFlag    string
	emptyPageLimit int
)

func init() {
	rootCmd.Flags().StringVar(&linksFlag, "links", "", "comma-separated shared profile links (overrides the config file)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output root directory")
	rootCmd.Flags().IntVar(&barWidthFlag, "bar-width", 0, "progress bar width in characters")
	rootCmd.Flags().StringVar(&historyFlag, "history", "", "history ledger file")
	rootCmd.Flags().IntVar(&emptyPageLimit, "empty-page-limit", 0, "give up on a link after this many empty catalog pages (0 retries forever)")
}

func runRoot(cmd *cobra.Command, args []string) error {
	// First run: persist a documented default configuration before
	// anything else, so the operator has a file to fill in.
	created, err := config.EnsureFile(configFile)
	if err != nil {
		ui.PrintError("Failed to create configuration file", err)
		os.Exit(1)
	}
	if created != "" {
		ui.PrintInfo("Created configuration file", created)
	}

	cfg, err := config.Load(configFile, buildFlags(cmd))
	if err != nil {
		// Configuration errors halt the run; the operator fixes the file
		// and reruns. Guessing at paths or links is worse than stopping.
		ui.PrintError("Configuration error", err)
		if created != "" {
			fmt.Printf("\nAdd your shared profile links to %s and run dyfetch again.\n", created)
		}
		os.Exit(1)
	}
	for _, warning := range cfg.Warnings {
		ui.PrintWarning(warning)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logging", err)
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("dyfetch starting")

	links := cfg.LinkList()
	if !quiet {
		ui.PrintInfo("Profile links", strconv.Itoa(len(links)))
		ui.PrintInfo("Output root", cfg.Output.Root)
		ui.PrintInfo("History ledger", cfg.History.Path)
	}

	// The operator affirms before the tool touches the network or disk.
	if !assumeYes {
		prompt := fmt.Sprintf("Download new videos for %d link(s)?", len(links))
		if !ui.Confirm(os.Stdin, prompt) {
			ui.PrintWarning("Aborted")
			return nil
		}
	}

	ledger, err := history.Open(cfg.History.Path)
	if err != nil {
		ui.PrintError("Failed to open history ledger", err)
		os.Exit(1)
	}
	defer ledger.Close()

	store, err := storage.NewManager(cfg.Output.Root)
	if err != nil {
		ui.PrintError("Failed to prepare output directory", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(cfg.RateLimit.Strategy, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
	client := douyin.NewClient(cfg.Download.Timeout(), limiter, log)
	client.SetPageSize(cfg.Download.PageSize)

	session := pipeline.New(cfg, client, ledger, store, log)
	session.SetQuiet(quiet)

	// An interrupt cancels the context; the pipeline unwinds, and the
	// partial file of whatever was mid-download is removed below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, runErr := session.Run(ctx)

	if runErr != nil {
		// Operator cancellation is a clean shutdown, not a failure: drop
		// the in-flight partial and exit zero.
		session.CleanupPartial()
		log.WithError(runErr).Warn("Run canceled")
		ui.PrintWarning("\nCanceled; partial download removed")
		return nil
	}

	if !quiet {
		fmt.Println()
		fmt.Println(ui.RenderSummary(stats))
	}

	log.InfoWithFields("Run finished", map[string]interface{}{
		"downloaded":   stats.Downloaded,
		"skipped":      stats.Skipped,
		"failed":       stats.Failed,
		"failed_links": stats.FailedLinks,
		"bytes":        stats.Bytes,
		"duration":     stats.Duration,
	})

	// --no-notifications is already folded into the config by buildFlags.
	notifier := ui.NewNotifier(cfg.Notifications.Enabled)

	switch {
	case stats.FailedLinks > 0 || stats.Failed > 0:
		if cfg.Notifications.OnError {
			notifier.RunFailed(stats)
		}
	default:
		if cfg.Notifications.OnComplete {
			notifier.RunComplete(stats)
		}
	}

	return nil
}

// buildFlags maps the flags the operator actually set onto config
// overrides.
func buildFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})

	if linksFlag != "" {
		flags["links"] = linksFlag
	}
	if outputFlag != "" {
		flags["output"] = outputFlag
	}
	if barWidthFlag > 0 {
		flags["bar-width"] = barWidthFlag
	}
	if historyFlag != "" {
		flags["history"] = historyFlag
	}
	// 0 means "retry forever" here, so presence matters, not the value.
	if cmd.Flags().Changed("empty-page-limit") {
		flags["empty-page-limit"] = emptyPageLimit
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}
	if noNotify {
		flags["notifications-enabled"] = false
	}

	return flags
}
