// Package email composes and sends transactional mail for order
// lifecycle events.
package email

import "context"

// Message is a fully composed email ready for a transport.
type Message struct {
	To          []string
	From        string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is an inline file carried by a message, rendered before
// the transport sees it.
type Attachment struct {
	Filename string
	Data     []byte
}

// Sender is the delivery transport. Implementations must be safe for
// concurrent use; the worker sends from multiple subscriptions.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
