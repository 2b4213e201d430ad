// Package notify sends optional build-completion notifications through
// shoutrrr. A Gentoo image build can compile for a long time; a ping to a
// chat service when it finishes beats watching the terminal.
package notify

import (
	"fmt"
	"time"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"
)

// Notifier sends messages to a shoutrrr service URL. The zero value (and
// any Notifier with Enabled false) is a no-op, so callers never need to
// branch on whether notifications are configured.
type Notifier struct {
	Enabled bool
	URL     string
}

// New creates a Notifier. It is disabled when enabled is false or the URL
// is empty.
func New(enabled bool, url string) *Notifier {
	return &Notifier{Enabled: enabled && url != "", URL: url}
}

// BuildFinished reports a completed image build. Notification failures are
// logged and swallowed: a missed ping must never fail the build itself.
func (n *Notifier) BuildFinished(envName, tag string, duration time.Duration) {
	n.send(fmt.Sprintf("devenv: image %s for environment %q built in %s",
		tag, envName, duration.Round(time.Second)))
}

// BuildFailed reports a failed image build.
func (n *Notifier) BuildFailed(envName string, err error) {
	n.send(fmt.Sprintf("devenv: image build for environment %q failed: %v", envName, err))
}

func (n *Notifier) send(message string) {
	if n == nil || !n.Enabled {
		return
	}
	if err := shoutrrr.Send(n.URL, message); err != nil {
		logrus.Debugf("notification failed: %v", err)
	}
}
