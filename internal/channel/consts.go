package channel

import (
	"errors"
)

var ErrUnsupportedOperation = errors.New("channel operation is not supported")

type Type string

const (
	// Log writes deliveries to the service log.
	Log Type = "log"

	Webhook Type = "webhook"

	// HTTP accepts chat messages on the gateway and answers synchronously.
	HTTP Type = "http"
)

var SupportedChannels = []Type{
	Log,
	Webhook,
	HTTP,
}

// Message is one inbound chat message.
type Message struct {
	ID          string
	ChannelID   string
	ChannelType Type
	// Address is the conversation address "platform:type:id".
	Address  string
	UserID   string
	UserName string
	Content  string
	Metadata map[string]string
}

type Response struct {
	ID      string
	Address string
	Content string
	Error   error
}
