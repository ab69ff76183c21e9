// Package mail sends email through an SMTP relay.
package mail

import (
	"context"
	"io"
)

type Message struct {
	// From overrides the sender configured on the Mail implementation.
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Mail delivers a Message.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
