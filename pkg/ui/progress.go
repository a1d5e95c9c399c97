package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"

	// minBarWidth keeps the bar readable when the terminal is cramped
	minBarWidth = 10

	// labelBudget is how many runes of the title are shown next to the bar
	labelBudget = 30
)

// ByteBar is the per-file download progress bar. It tracks received bytes
// against the expected Content-Length and redraws in place with carriage
// returns; call Done to move off the line.
type ByteBar struct {
	width int
	out   io.Writer
	label string
}

// NewByteBar creates a progress bar of the configured width. The width is
// clamped so the whole line fits the terminal.
func NewByteBar(width int) *ByteBar {
	if width < minBarWidth {
		width = minBarWidth
	}

	// Bar + label + percentage and byte counts must fit on one line.
	decorations := labelBudget + 30
	if max := TerminalWidth(width+decorations) - decorations; width > max {
		width = max
		if width < minBarWidth {
			width = minBarWidth
		}
	}

	return &ByteBar{
		width: width,
		out:   os.Stdout,
	}
}

// Start begins a new bar for the named download.
func (b *ByteBar) Start(label string) {
	b.label = truncateLabel(label, labelBudget)
	b.Update(0, -1)
}

// Update redraws the bar. total may be -1 when the server did not send a
// Content-Length; the bar then shows received bytes only.
func (b *ByteBar) Update(written, total int64) {
	if total <= 0 {
		fmt.Fprintf(b.out, "\r  %s %s %s", Cyan(b.label), Dim("..."), Yellow(FormatBytes(written)))
		return
	}

	ratio := float64(written) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * float64(b.width))
	bar := strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, b.width-filled)

	fmt.Fprintf(b.out, "\r  %s [%s] %5.1f%% %s/%s",
		Cyan(b.label),
		bar,
		ratio*100,
		FormatBytes(written),
		FormatBytes(total),
	)
}

// Done finishes the current line.
func (b *ByteBar) Done() {
	fmt.Fprintln(b.out)
}

// truncateLabel shortens a title for single-line display
func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	return string(runes[:max-1]) + "…"
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
