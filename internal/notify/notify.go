// Package notify delivers local desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"

	appLog "portalsync/internal/log"
)

// Desktop delivers reminders through the OS notification channel when one
// is available, falling back to a log line otherwise.
type Desktop struct {
	enabled bool
	icon    string
}

// NewDesktop creates a Desktop notifier. enabled is the permission grant;
// when false, callers are expected to skip scheduling altogether.
func NewDesktop(enabled bool, icon string) *Desktop {
	return &Desktop{enabled: enabled, icon: icon}
}

// Enabled reports whether notification delivery has been permitted.
func (d *Desktop) Enabled() bool {
	return d.enabled
}

// Notify shows one notification with the configured icon. Delivery errors
// are not fatal: the reminder text still surfaces in the log.
func (d *Desktop) Notify(title, body string) {
	if err := beeep.Notify(title, body, d.icon); err != nil {
		appLog.Error("notification delivery failed; logging instead", err,
			"title", title, "body", body)
		return
	}
	appLog.Info("notification delivered", "title", title)
}
