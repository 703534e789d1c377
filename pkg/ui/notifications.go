package ui

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=otwscraper", title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, appleScriptEscape(message), appleScriptEscape(title))
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("otwscraper").Show($toast)
	`, xmlEscape(title), xmlEscape(message))

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

func appleScriptEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}

// Notifier prints run events to the terminal and, for the desktop type,
// raises a platform notification as well.
type Notifier struct {
	sender NotificationSender
	silent bool
}

// NewNotifier builds a Notifier for a notification type: "terminal",
// "desktop" or "none".
func NewNotifier(kind string) *Notifier {
	switch strings.ToLower(kind) {
	case "none":
		return &Notifier{silent: true}
	case "desktop":
		return &Notifier{sender: platformSender()}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender is used by tests and by callers with their own sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

func platformSender() NotificationSender {
	switch runtime.GOOS {
	case "linux":
		return &LinuxNotificationSender{}
	case "darwin":
		return &MacOSNotificationSender{}
	case "windows":
		return &WindowsNotificationSender{}
	default:
		return nil
	}
}

// SendNotification prints an informational event
func (n *Notifier) SendNotification(title, message string) {
	n.send(Cyan(title), Yellow(message), title, message)
}

// SendError prints a failure event
func (n *Notifier) SendError(title, message string) {
	n.send(Red(title), Red(message), title, message)
}

// SendSuccess prints a success event
func (n *Notifier) SendSuccess(title, message string) {
	n.send(Green(title), Green(message), title, message)
}

func (n *Notifier) send(styledTitle, styledMessage, title, message string) {
	if n == nil || n.silent {
		return
	}
	fmt.Fprintf(Out, "\n%s: %s\n", styledTitle, styledMessage)

	if n.sender != nil {
		// desktop delivery is best effort
		_ = n.sender.Send(title, message)
	}
}
