// Package notify delivers alert emails to monitored users.
package notify

import "context"

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Notifier delivers messages to users.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NoOp discards every message. Used in tests and when SMTP is not
// configured.
type NoOp struct{}

// NewNoOp creates a NoOp notifier.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Send does nothing.
func (n *NoOp) Send(ctx context.Context, msg Message) error {
	return nil
}
