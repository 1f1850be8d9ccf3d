package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tgifai/reminder/internal/agent/tool"
	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/utils"
	"github.com/tgifai/reminder/internal/provider"
)

const defaultMaxIterations = 8

type Config struct {
	ID string
	// Model overrides the provider's default model.
	Model         string
	MaxIterations int
	Location      *time.Location
}

// Agent runs chat completions against one provider with a fixed tool set.
type Agent struct {
	id            string
	model         string
	maxIterations int
	loc           *time.Location

	provider provider.Provider
	tools    *tool.Registry
	now      func() time.Time
}

func NewAgent(p provider.Provider, tools *tool.Registry, cfg Config) (*Agent, error) {
	if p == nil {
		return nil, errors.New("provider cannot be nil")
	}
	if tools == nil {
		tools = tool.NewRegistry()
	}
	if cfg.ID == "" {
		cfg.ID = "default"
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Agent{
		id:            cfg.ID,
		model:         cfg.Model,
		maxIterations: cfg.MaxIterations,
		loc:           cfg.Location,
		provider:      p,
		tools:         tools,
		now:           time.Now,
	}, nil
}

func (ag *Agent) ID() string {
	return ag.id
}

func (ag *Agent) Tools() *tool.Registry {
	return ag.tools
}

// ProcessMessage answers a free-form chat message, letting the model manage
// the sender's reminders through the registered tools.
func (ag *Agent) ProcessMessage(ctx context.Context, msg *channel.Message) (*channel.Response, error) {
	logs.CtxDebug(ctx, "[agent:%s] message from %s#%s: %s", ag.id, msg.Address, msg.UserID, utils.Truncate(msg.Content, 80))

	ctx = WithRuntime(ctx, msg.Address, msg.UserID, msg.UserName)
	msgs := ag.buildMessages(ctx, chatSystemPrompt, msg.Content)

	final, _, err := ag.runLoop(ctx, msgs, true)
	if err != nil {
		return nil, err
	}
	return &channel.Response{
		ID:      msg.ID,
		Address: msg.Address,
		Content: strings.TrimSpace(utils.StripThinking(final.Content)),
	}, nil
}

// Ask sends a single prompt without tools and returns the cleaned reply.
func (ag *Agent) Ask(ctx context.Context, prompt string) (string, error) {
	msgs := ag.buildMessages(ctx, "", prompt)
	resp, err := ag.provider.Generate(ctx, ag.model, msgs)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty model response")
	}
	return strings.TrimSpace(utils.StripThinking(resp.Content)), nil
}

// RunTask executes a stored task instruction. When the model called tools,
// a second tool-free pass turns their results into the final reply.
func (ag *Agent) RunTask(ctx context.Context, instruction string) (string, error) {
	prompt := fmt.Sprintf("Please carry out the following task now: %s. "+
		"The user scheduled it earlier; act on it directly and do not mention that it was scheduled.", instruction)
	msgs := ag.buildMessages(ctx, taskSystemPrompt, prompt)

	final, results, err := ag.runLoop(ctx, msgs, true)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		text := strings.TrimSpace(utils.StripThinking(final.Content))
		if text == "" {
			text = "The task finished but returned no result."
		}
		return text, nil
	}

	summary, err := ag.summarizeResults(ctx, instruction, results)
	if err != nil || summary == "" {
		logs.CtxWarn(ctx, "[agent:%s] summarize task results failed: %v", ag.id, err)
		return formatRawResults(results), nil
	}
	return summary, nil
}

// WithRuntime attaches the conversation the tools act on.
func WithRuntime(ctx context.Context, address, userID, userName string) context.Context {
	ctx = context.WithValue(ctx, consts.CtxKeyAddress, address)
	ctx = context.WithValue(ctx, consts.CtxKeyUserID, userID)
	return context.WithValue(ctx, consts.CtxKeyUserName, userName)
}
