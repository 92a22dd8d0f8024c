package notifier

import (
	"context"
)

// Message is an out-of-band notification to a single recipient
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers messages best-effort. Callers must treat failures as
// non-fatal: delivery never participates in a database transaction
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
