package provider

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Provider is the chat model backend used to phrase reminders and run tasks.
type Provider interface {
	// ID returns the configured provider instance identifier.
	// The value is used as the lookup key in the provider registry.
	ID() string

	Type() Type

	// IsAvailable reports whether the last health check succeeded.
	IsAvailable() bool

	// Close stops background health checks.
	Close() error

	// ListModels returns model metadata currently available from the remote backend.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// Generate performs a single non-streaming chat completion request.
	// An empty modelName selects the configured default model. opts are
	// forwarded to the underlying eino model call.
	Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}
