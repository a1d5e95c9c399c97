package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"dyfetch/pkg/ui"
)

var (
	// Version information, overridden at build time with -ldflags
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	assumeYes  bool
	noNotify   bool
	quiet      bool
)

// rootCmd is the downloader itself: resolve every configured link, page
// through the catalogs and fetch what the history ledger does not have yet.
var rootCmd = &cobra.Command{
	Use:   "dyfetch",
	Short: "Download creators' short videos into per-creator directories",
	Long: `dyfetch mirrors the published videos of the creators you follow.

Shared profile links go into the configuration file; each run resolves
them, walks the creators' catalogs and downloads everything not yet in
the local history ledger, one video at a time. Already-downloaded items
are skipped, so runs are cheap to repeat.

On the first run a documented configuration file is written for you to
fill in.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch cmd.Name() {
		case "version", "help", "completion", "path":
		default:
			if !quiet {
				ui.PrintLogo()
			}
		}
	},
	RunE: runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./dyfetch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.PersistentFlags().BoolVar(&noNotify, "no-notifications", false, "disable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress console output except errors")

	// Version template
	rootCmd.SetVersionTemplate(`dyfetch {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
