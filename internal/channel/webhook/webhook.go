package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/tgifai/reminder/internal/channel"
	rconsts "github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/utils"
	"github.com/tgifai/reminder/internal/session"
)

var _ channel.Channel = (*Webhook)(nil)

type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("webhook url cannot be empty")
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return nil
}

// payload is the JSON body posted for every delivery.
type payload struct {
	Address  string `json:"address"`
	Platform string `json:"platform"`
	Type     string `json:"type"`
	ChatID   string `json:"chat_id"`
	Content  string `json:"content"`
	ItemID   string `json:"item_id,omitempty"`
	LogID    string `json:"log_id,omitempty"`
}

// Webhook posts deliveries to an HTTP endpoint that bridges to the chat
// platforms.
type Webhook struct {
	id     string
	config Config
	cli    *client.Client
}

func NewChannel(id string, cfg Config) (*Webhook, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook config: %w", err)
	}
	cli, err := client.NewClient(
		client.WithDialTimeout(cfg.Timeout),
		client.WithClientReadTimeout(cfg.Timeout),
		client.WithWriteTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create webhook client: %w", err)
	}
	return &Webhook{id: id, config: cfg, cli: cli}, nil
}

func (w *Webhook) ID() string         { return w.id }
func (w *Webhook) Type() channel.Type { return channel.Webhook }

func (w *Webhook) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (w *Webhook) Stop(_ context.Context) error {
	w.cli.CloseIdleConnections()
	return nil
}

func (w *Webhook) SendMessage(ctx context.Context, address string, content string) error {
	addr := session.ParseAddress(address)
	body := payload{
		Address:  address,
		Platform: addr.Platform,
		Type:     string(addr.Type),
		ChatID:   addr.ID,
		Content:  content,
		LogID:    logs.GetLogID(ctx),
	}
	if id, ok := ctx.Value(rconsts.CtxKeyItemID).(string); ok {
		body.ItemID = id
	}
	data, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(w.config.URL)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	if w.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+w.config.Token)
	}
	req.SetBody(data)

	if err := w.cli.DoTimeout(ctx, req, resp, w.config.Timeout); err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if code := resp.StatusCode(); code < consts.StatusOK || code >= consts.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status %d: %s", code, utils.Truncate(string(resp.Body()), 200))
	}
	logs.CtxDebug(ctx, "[channel:webhook] delivered to %s", address)
	return nil
}

func (w *Webhook) RegisterMessageHandler(func(ctx context.Context, msg *channel.Message) error) error {
	return channel.ErrUnsupportedOperation
}
