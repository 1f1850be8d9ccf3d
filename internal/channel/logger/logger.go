package logger

import (
	"context"

	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/utils"
)

var _ channel.Channel = (*Logger)(nil)

// Logger delivers by writing to the service log. It is the fallback when no
// webhook is configured.
type Logger struct {
	id string
}

func NewChannel(id string) *Logger {
	return &Logger{id: id}
}

func (l *Logger) ID() string         { return l.id }
func (l *Logger) Type() channel.Type { return channel.Log }

func (l *Logger) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (l *Logger) Stop(_ context.Context) error { return nil }

func (l *Logger) SendMessage(ctx context.Context, address string, content string) error {
	logs.CtxInfo(ctx, "[channel:log] -> %s: %s", address, utils.Truncate(content, 500))
	return nil
}

func (l *Logger) RegisterMessageHandler(func(ctx context.Context, msg *channel.Message) error) error {
	return channel.ErrUnsupportedOperation
}
