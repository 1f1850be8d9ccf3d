package command

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tgifai/reminder/internal/channel"
)

// HandlerFunc processes a matched command and returns a text reply.
type HandlerFunc func(ctx context.Context, msg *channel.Message, args string) (string, error)

// Command describes a single channel-agnostic command.
type Command struct {
	Name        string // e.g. "/rmd"
	Description string
	Handler     HandlerFunc
}

// Router matches incoming message text against registered command names
// and dispatches the first match.
type Router struct {
	commands map[string]*Command // key: lowercase command name
	mu       sync.RWMutex
}

func NewRouter() *Router {
	return &Router{commands: make(map[string]*Command, 4)}
}

func (r *Router) Register(cmd *Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd.Name)] = cmd
}

// Match checks whether content starts with a known command and returns the
// remaining arguments. A trailing @botname on the command is ignored.
func (r *Router) Match(content string) (*Command, string, bool) {
	content = strings.TrimSpace(content)
	if content == "" || content[0] != '/' {
		return nil, "", false
	}

	name, args, _ := strings.Cut(content, " ")
	name = strings.ToLower(name)
	if idx := strings.Index(name, "@"); idx > 0 {
		name = name[:idx]
	}

	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()
	if !ok {
		return nil, "", false
	}
	return cmd, strings.TrimSpace(args), true
}

// Handle runs the command in msg, if any. handled is false for plain chat.
func (r *Router) Handle(ctx context.Context, msg *channel.Message) (reply string, handled bool, err error) {
	cmd, args, ok := r.Match(msg.Content)
	if !ok {
		return "", false, nil
	}
	reply, err = cmd.Handler(ctx, msg, args)
	return reply, true, err
}

// List returns the registered commands sorted by name.
func (r *Router) List() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
