package channel

import (
	"context"
)

// Channel is a transport between the scheduler and a chat platform. Inbound
// channels feed messages to the registered handler; every channel can
// deliver text to a conversation address.
type Channel interface {
	// ID returns the unique configured channel identifier.
	ID() string

	Type() Type

	// Start blocks until the context is canceled or a fatal error occurs.
	Start(ctx context.Context) error

	Stop(ctx context.Context) error

	// SendMessage delivers content to address ("platform:type:id" for
	// conversations, a request id for pending HTTP replies).
	SendMessage(ctx context.Context, address string, content string) error

	// RegisterMessageHandler registers the inbound message callback.
	// Outbound-only channels return ErrUnsupportedOperation.
	RegisterMessageHandler(handler func(ctx context.Context, msg *Message) error) error
}

// Deliverer is the narrow sending side used by the dispatcher.
type Deliverer interface {
	SendMessage(ctx context.Context, address string, content string) error
}
