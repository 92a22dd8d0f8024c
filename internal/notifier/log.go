package notifier

import (
	"context"

	"github.com/icyeza/bkvc/internal/logger"
)

// LogNotifier writes notifications to the log instead of delivering them.
// Meant for development environments without an SMTP relay
type LogNotifier struct {
	l logger.Logger
}

func NewLog(l logger.Logger) *LogNotifier {
	return &LogNotifier{l: l}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.l.Info("notification", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
