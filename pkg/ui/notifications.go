package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"dyfetch/pkg/models"
)

// notifyApp is the application name desktop notifications are filed under.
const notifyApp = "dyfetch"

// toastTemplate is the PowerShell behind Windows notifications. Slots:
// subject, body, application name.
const toastTemplate = `
[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%[1]s</text>
			<text id="2">%[2]s</text>
		</binding>
	</visual>
</toast>
"@
$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
$doc.LoadXml($xml)
$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%[3]s").Show($toast)
`

// Notifier announces run outcomes on the desktop, for the operator who
// walked away during a long run. The console summary is rendered
// separately and is unaffected.
type Notifier struct {
	enabled bool
	goos    string
	run     func(name string, args ...string) error
}

// NewNotifier builds a notifier for the current platform. A disabled
// notifier swallows every call.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{
		enabled: enabled,
		goos:    runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// RunComplete announces a run that finished clean.
func (n *Notifier) RunComplete(stats *models.RunStats) {
	n.deliver("Run complete", completionBody(stats), false)
}

// RunFailed announces a run that finished with failures.
func (n *Notifier) RunFailed(stats *models.RunStats) {
	n.deliver("Run finished with failures", failureBody(stats), true)
}

// deliver hands the message to the platform's notification tool. Errors are
// ignored as notifications are not critical.
func (n *Notifier) deliver(subject, body string, urgent bool) {
	if !n.enabled {
		return
	}

	name, args := notifyCommand(n.goos, subject, body, urgent)
	if name == "" {
		return
	}
	_ = n.run(name, args...)
}

func completionBody(stats *models.RunStats) string {
	return fmt.Sprintf("%d new, %d skipped, %s in %s",
		stats.Downloaded, stats.Skipped, FormatBytes(stats.Bytes), FormatDuration(stats.Duration))
}

func failureBody(stats *models.RunStats) string {
	return fmt.Sprintf("%d link(s) and %d item(s) failed, %d downloaded",
		stats.FailedLinks, stats.Failed, stats.Downloaded)
}

// notifyCommand maps a message onto the platform's notification tool. An
// empty command name means the platform has none.
func notifyCommand(goos, subject, body string, urgent bool) (string, []string) {
	switch goos {
	case "linux":
		args := []string{"--app-name=" + notifyApp}
		if urgent {
			args = append(args, "--urgency=critical")
		}
		return "notify-send", append(args, subject, body)

	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, notifyApp, subject)
		return "osascript", []string{"-e", script}

	case "windows":
		script := fmt.Sprintf(toastTemplate, subject, body, notifyApp)
		return "powershell", []string{"-NoProfile", "-NonInteractive", "-Command", script}

	default:
		return "", nil
	}
}
