package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/prometheus"
)

// Tool is a function the chat model may call while running for a conversation.
type Tool interface {
	Name() string
	Description() string
	ToolInfo() *schema.ToolInfo
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
}

// Registry holds the tools bound to an agent. Later tools replace earlier
// ones with the same name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil || t.Name() == "" {
			continue
		}
		r.tools[t.Name()] = t
	}
	return r
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Infos returns the tool schemas sorted by name so prompts stay stable.
func (r *Registry) Infos() []*schema.ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]*schema.ToolInfo, 0, len(r.tools))
	for _, t := range r.tools {
		infos = append(infos, t.ToolInfo())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Call decodes the model's arguments, runs the named tool and renders its
// result as text for the next model turn.
func (r *Registry) Call(ctx context.Context, call *schema.ToolCall) (string, error) {
	if call == nil || call.Function.Name == "" {
		return "", fmt.Errorf("tool call without a name")
	}
	name := call.Function.Name

	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		prometheus.ToolCalls.WithLabelValues(name, "unknown").Inc()
		return "", fmt.Errorf("tool not found: %s", name)
	}

	args := make(map[string]interface{})
	if call.Function.Arguments != "" {
		if err := sonic.UnmarshalString(call.Function.Arguments, &args); err != nil {
			prometheus.ToolCalls.WithLabelValues(name, "bad_args").Inc()
			return "", fmt.Errorf("failed to parse arguments of %s: %w", name, err)
		}
	}

	start := time.Now()
	res, err := t.Execute(ctx, args)
	if err != nil {
		prometheus.ToolCalls.WithLabelValues(name, "error").Inc()
		return "", err
	}
	prometheus.ToolCalls.WithLabelValues(name, "ok").Inc()
	logs.CtxDebug(ctx, "[tool:%s] done in %s", name, time.Since(start))
	return stringify(res), nil
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	str, err := sonic.MarshalString(v)
	if err != nil || str == "" {
		return "{}"
	}
	return str
}
