// Package channel holds the outbound delivery adapters. Every adapter
// normalizes its transport result into an Outcome; Send never returns an error.
package channel

import "context"

type Outcome int

const (
	// Delivered means the provider accepted the message.
	Delivered Outcome = iota
	// RecipientRejected is terminal for the message; retrying will not help.
	RecipientRejected
	// TransientFailure covers provider 5xx, timeouts and connection errors.
	TransientFailure
	// Unexpected is any other provider answer. The message is left queued.
	Unexpected
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case RecipientRejected:
		return "rejected"
	case TransientFailure:
		return "transient"
	case Unexpected:
		return "unexpected"
	}
	return "unknown"
}

// Terminal reports whether the queued row should be removed after this outcome.
func (o Outcome) Terminal() bool {
	return o == Delivered || o == RecipientRejected
}

type Sender interface {
	Name() string
	Send(ctx context.Context, recipient, body string) Outcome
}

// Credentials is the basic-auth pair presented to a provider.
type Credentials struct {
	Username string
	Password string
}
