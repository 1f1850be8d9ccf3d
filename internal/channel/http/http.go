package http

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"

	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/session"
)

// MessagePath is where chat messages are posted.
const MessagePath = "/api/v1/message"

var _ channel.Channel = (*HTTP)(nil)

// inboundRequest is the JSON body expected on the message endpoint.
type inboundRequest struct {
	Address  string            `json:"address"`
	UserID   string            `json:"user_id"`
	UserName string            `json:"user_name,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type outboundResponse struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Content string `json:"content"`
}

// pendingReply carries the answer back to the waiting handler.
type pendingReply struct {
	ch      chan string
	created time.Time
}

// HTTP receives chat messages on the gateway and answers them in the same
// request. Replies are routed by request id, not by conversation address.
type HTTP struct {
	id      string
	config  Config
	handler func(ctx context.Context, msg *channel.Message) error
	mu      sync.RWMutex

	pendingMu sync.Mutex
	pending   map[string]*pendingReply
}

func NewChannel(id string, cfg Config) (*HTTP, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid http config: %w", err)
	}
	return &HTTP{
		id:      id,
		config:  cfg,
		pending: make(map[string]*pendingReply),
	}, nil
}

func (h *HTTP) Routes() []channel.Route {
	return []channel.Route{
		{Method: consts.MethodPost, Path: MessagePath, Handler: h.handleMessage},
	}
}

func (h *HTTP) ID() string         { return h.id }
func (h *HTTP) Type() channel.Type { return channel.HTTP }

func (h *HTTP) Start(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (h *HTTP) Stop(_ context.Context) error {
	return nil
}

// SendMessage hands content to the request waiting under requestID. Replies
// for requests that already timed out are dropped.
func (h *HTTP) SendMessage(_ context.Context, requestID string, content string) error {
	h.pendingMu.Lock()
	pr, ok := h.pending[requestID]
	if ok {
		delete(h.pending, requestID)
	}
	h.pendingMu.Unlock()

	if !ok {
		return nil
	}
	select {
	case pr.ch <- content:
	default:
	}
	return nil
}

func (h *HTTP) RegisterMessageHandler(handler func(ctx context.Context, msg *channel.Message) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if handler == nil {
		return errors.New("handler cannot be nil")
	}
	h.handler = handler
	return nil
}

// Pending reports requests still waiting for a reply.
func (h *HTTP) Pending() int {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	return len(h.pending)
}

func (h *HTTP) handleMessage(ctx context.Context, c *app.RequestContext) {
	if h.config.APIKey != "" {
		if string(c.GetHeader("Authorization")) != "Bearer "+h.config.APIKey {
			c.JSON(consts.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
	}

	var req inboundRequest
	if err := sonic.Unmarshal(c.GetRequest().Body(), &req); err != nil {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Content == "" {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "content required"})
		return
	}
	if !session.ParseAddress(req.Address).Valid() {
		c.JSON(consts.StatusBadRequest, map[string]string{"error": "address must look like platform:MessageType:id"})
		return
	}

	requestID := uuid.New().String()
	metadata := req.Metadata
	if metadata == nil {
		metadata = make(map[string]string)
	}
	msg := &channel.Message{
		ID:          requestID,
		ChannelID:   h.id,
		ChannelType: channel.HTTP,
		Address:     req.Address,
		UserID:      req.UserID,
		UserName:    req.UserName,
		Content:     req.Content,
		Metadata:    metadata,
	}

	pr := &pendingReply{ch: make(chan string, 1), created: time.Now()}
	h.pendingMu.Lock()
	h.pending[requestID] = pr
	h.pendingMu.Unlock()
	defer func() {
		h.pendingMu.Lock()
		delete(h.pending, requestID)
		h.pendingMu.Unlock()
	}()

	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()
	if handler == nil {
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "no handler registered"})
		return
	}
	if err := handler(ctx, msg); err != nil {
		logs.CtxError(ctx, "[channel:http] error enqueuing message: %v", err)
		c.JSON(consts.StatusInternalServerError, map[string]string{"error": "failed to process message"})
		return
	}

	timer := time.NewTimer(h.config.ResponseTimeout)
	defer timer.Stop()
	select {
	case content := <-pr.ch:
		body, _ := sonic.Marshal(outboundResponse{ID: requestID, Address: req.Address, Content: content})
		c.SetStatusCode(consts.StatusOK)
		c.SetContentType("application/json")
		c.Response.SetBody(body)
	case <-timer.C:
		logs.CtxWarn(ctx, "[channel:http] request %s timed out after %s", requestID, time.Since(pr.created).Truncate(time.Millisecond))
		c.JSON(consts.StatusGatewayTimeout, map[string]string{"error": "response timeout"})
	case <-ctx.Done():
		c.JSON(consts.StatusServiceUnavailable, map[string]string{"error": "server shutting down"})
	}
}
