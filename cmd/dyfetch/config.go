package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dyfetch/pkg/config"
	"dyfetch/pkg/ui"
)

// configCmd groups the configuration management commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `Manage the dyfetch configuration file.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (DYFETCH_*)
  - A .env file in the working directory
  - The configuration file
  - Built-in defaults`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a documented default configuration file",
	Long: `Write a configuration file populated with the documented defaults.

The file is created as './dyfetch.yaml' unless --config names another
path. An existing file is never overwritten.`,
	Run: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration the downloader would run with, merged from
all sources, and whether it would pass validation.`,
	Run: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file location",
	Run:   runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = config.DefaultFileName
	}

	if err := config.WriteDefault(path); err != nil {
		ui.PrintError("Failed to create configuration file", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Add your shared profile links to the 'links' key")
	fmt.Println("2. Run 'dyfetch' to start downloading")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Resolve(configFile, buildFlags(cmd))
	if err != nil {
		ui.PrintError("Failed to load configuration", err)
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err)
		os.Exit(1)
	}

	ui.PrintHighlight("Effective configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println()
	for _, warning := range cfg.Warnings {
		ui.PrintWarning(warning)
	}
	if err := cfg.Validate(); err != nil {
		ui.PrintWarning("This configuration would not run", err)
	} else {
		ui.PrintSuccess("Configuration is valid")
	}
}

func runConfigPath(cmd *cobra.Command, args []string) {
	path := configFile
	if path == "" {
		path = config.FindFile()
	}

	if path == "" {
		fmt.Printf("no configuration file found; 'dyfetch' or 'dyfetch config init' will create %s\n", config.DefaultFileName)
		return
	}
	fmt.Println(path)
}
