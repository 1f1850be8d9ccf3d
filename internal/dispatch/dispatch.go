package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/gg/gslice"

	"github.com/tgifai/reminder/internal/agent"
	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/utils"
	"github.com/tgifai/reminder/internal/reminder"
	"github.com/tgifai/reminder/internal/session"
)

// Dispatcher turns a fired item into a chat message and delivers it.
type Dispatcher struct {
	deliver channel.Deliverer
	// agent is optional; without it messages are sent verbatim.
	agent           *agent.Agent
	wechatPlatforms []string
	// resolver reports the current isolation setting; nil means off.
	resolver func() *session.Resolver
}

type Option func(*Dispatcher)

// WithAgent phrases reminders and executes tasks through ag.
func WithAgent(ag *agent.Agent) Option {
	return func(d *Dispatcher) { d.agent = ag }
}

// WithWechatPlatforms names the platforms whose mentions use the nickname.
func WithWechatPlatforms(platforms []string) Option {
	return func(d *Dispatcher) { d.wechatPlatforms = platforms }
}

// WithResolver unwraps isolated keys through the resolver returned by fn.
// A func is taken because a config reload swaps the resolver.
func WithResolver(fn func() *session.Resolver) Option {
	return func(d *Dispatcher) { d.resolver = fn }
}

func New(deliver channel.Deliverer, opts ...Option) (*Dispatcher, error) {
	if deliver == nil {
		return nil, errors.New("dispatcher needs a deliverer")
	}
	d := &Dispatcher{deliver: deliver}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// OnFire has the reminder.FireFunc signature.
func (d *Dispatcher) OnFire(ctx context.Context, key string, item reminder.Item) error {
	address := d.address(key, item)
	ctx = agent.WithRuntime(ctx, address, item.CreatorID, item.CreatorName)

	var body string
	if item.IsTask {
		body = d.runTask(ctx, item)
	} else {
		body = d.remind(ctx, item)
	}

	content := d.mention(address, item) + body
	if err := d.deliver.SendMessage(ctx, address, content); err != nil {
		return fmt.Errorf("deliver %s %s to %s: %w", item.Kind(), item.ID, address, err)
	}
	logs.CtxInfo(ctx, "[dispatch] delivered %s %s to %s: %s", item.Kind(), item.ID, address, utils.Truncate(body, 60))
	return nil
}

// address maps a stored key back to the conversation it was created in.
func (d *Dispatcher) address(key string, item reminder.Item) string {
	var r *session.Resolver
	if d.resolver != nil {
		r = d.resolver()
	}
	return r.Normalize(key, item.CreatorID)
}

func (d *Dispatcher) remind(ctx context.Context, item reminder.Item) string {
	if d.agent == nil {
		return "Reminder: " + item.Text
	}
	prompt := fmt.Sprintf("You are talking to %s. Send them a reminder about %q. "+
		"Phrase it naturally and briefly, and reply with the reminder only.", item.UserName, item.Text)
	reply, err := d.agent.Ask(ctx, prompt)
	if err != nil || reply == "" {
		logs.CtxWarn(ctx, "[dispatch] phrase reminder %s failed, sending raw text: %v", item.ID, err)
		return "Reminder: " + item.Text
	}
	return "[Reminder] " + reply
}

func (d *Dispatcher) runTask(ctx context.Context, item reminder.Item) string {
	if d.agent == nil {
		return "Task: " + item.Text
	}
	result, err := d.agent.RunTask(ctx, item.Text)
	if err != nil {
		logs.CtxError(ctx, "[dispatch] task %s failed: %v", item.ID, err)
		return "Error while executing task: " + err.Error()
	}
	return result
}

// mention addresses the creator in shared conversations. Platforms listed as
// WeChat-like are mentioned by nickname; everything else by user id.
func (d *Dispatcher) mention(address string, item reminder.Item) string {
	if item.CreatorID == "" {
		return ""
	}
	addr := session.ParseAddress(address)
	if addr.IsPrivate() {
		return ""
	}
	who := item.CreatorID
	if gslice.Contains(d.wechatPlatforms, strings.ToLower(addr.Platform)) && item.CreatorName != "" {
		who = item.CreatorName
	}
	return "@" + who + " "
}
