// Package notify delivers operator-facing chat messages. Delivery is best
// effort: callers treat a failed send as a logged event, never as a reason to
// abort a trade or a poll tick.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier sends a human-readable message to the operator channel.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// LogNotifier writes messages to the application log. It is the fallback used
// when no Telegram credentials are configured.
type LogNotifier struct {
	logger *logrus.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, text string) error {
	n.logger.WithField("channel", "log").Info("📣 " + text)
	return nil
}
