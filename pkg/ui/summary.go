package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"dyfetch/pkg/models"
)

var (
	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(1, 2)

	summaryTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#00FFFF")).
				Bold(true)

	summaryLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0"))

	summaryValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFF00"))

	summaryErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF0000"))
)

// RenderSummary renders the end-of-run statistics box.
func RenderSummary(stats *models.RunStats) string {
	var lines []string

	lines = append(lines, summaryTitleStyle.Render("Run complete"), "")

	row := func(label, value string) {
		lines = append(lines, fmt.Sprintf("%s %s",
			summaryLabelStyle.Render(fmt.Sprintf("%-10s", label)),
			summaryValueStyle.Render(value)))
	}

	row("Links", fmt.Sprintf("%d processed, %d failed", len(stats.Links), stats.FailedLinks))
	row("Videos", fmt.Sprintf("%d downloaded, %d skipped, %d failed", stats.Downloaded, stats.Skipped, stats.Failed))
	row("Pages", fmt.Sprintf("%d", stats.Pages))
	row("Data", FormatBytes(stats.Bytes))
	row("Duration", FormatDuration(stats.Duration))

	// Per-creator breakdown once more than one link was processed.
	if len(stats.Links) > 1 {
		lines = append(lines, "")
		for _, link := range stats.Links {
			name := link.Creator
			if name == "" {
				name = link.Link
			}
			lines = append(lines, summaryLabelStyle.Render(fmt.Sprintf("  %s: %d new, %d skipped", name, link.Downloaded, link.Skipped)))
		}
	}

	// Failed links are worth reading about.
	for _, link := range stats.Links {
		if link.Err != nil {
			lines = append(lines, "", summaryErrorStyle.Render(fmt.Sprintf("  %s: %v", link.Link, link.Err)))
		}
	}

	return summaryBoxStyle.Render(strings.Join(lines, "\n"))
}
