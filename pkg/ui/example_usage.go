// Package ui provides the terminal surface of the downloader
// This file demonstrates example usage of the UI components
package ui

/*
Example usage of the UI components:

// Terminal colors and output
ui.PrintLogo()                                   // Print ASCII logo
ui.PrintInfo("Output root", cfg.Output.Root)     // Cyan label: yellow value
ui.PrintSuccess("Run complete")                  // Green success message
ui.PrintError("Download failed", err)            // Red error message
ui.PrintWarning("Catalog page empty, retrying")  // Yellow warning message
ui.PrintHighlight("[creator name]")              // Magenta highlight message

// Confirmation prompt (reads stdin, defaults to no)
if !ui.Confirm(os.Stdin, "Proceed with download?") {
    return
}

// Per-file byte progress
bar := ui.NewByteBar(cfg.Output.BarWidth)
bar.Start("video title")
bar.Update(written, total)                       // Redraws in place
bar.Done()                                       // Moves off the line

// End-of-run summary box
fmt.Println(ui.RenderSummary(stats))

// Desktop notifications (cross-platform, gated by config)
notifier := ui.NewNotifier(cfg.Notifications.Enabled)
notifier.RunComplete(stats)                      // "3 new, 12 skipped, 5.0 MB in 1m30s"
notifier.RunFailed(stats)                        // Urgent on platforms that support it

// Direct color usage
fmt.Printf("%s: %s\n", ui.Cyan("Creator"), ui.Yellow(name))
fmt.Println(ui.Green("✓ downloaded"))
fmt.Println(ui.Dim("already in history, skipped"))
*/
