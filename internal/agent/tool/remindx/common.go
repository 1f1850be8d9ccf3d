package remindx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/gg/gconv"

	"github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/reminder"
)

// scope is the conversation a tool call acts on.
type scope struct {
	sched       *reminder.Scheduler
	address     string
	key         string
	creatorID   string
	creatorName string
}

// binding resolves the scheduler lazily so tools can be built before Init.
type binding struct {
	sched *reminder.Scheduler
}

func (b binding) scheduler() (*reminder.Scheduler, error) {
	if b.sched != nil {
		return b.sched, nil
	}
	if s := reminder.Default(); s != nil {
		return s, nil
	}
	return nil, reminder.ErrNotInitialized
}

func (b binding) resolve(ctx context.Context) (scope, error) {
	s, err := b.scheduler()
	if err != nil {
		return scope{}, err
	}
	address, _ := ctx.Value(consts.CtxKeyAddress).(string)
	if address == "" {
		return scope{}, errors.New("conversation address not found in context")
	}
	userID, _ := ctx.Value(consts.CtxKeyUserID).(string)
	userName, _ := ctx.Value(consts.CtxKeyUserName).(string)
	return scope{
		sched:       s,
		address:     address,
		key:         s.Resolver().Isolate(address, userID),
		creatorID:   userID,
		creatorName: userName,
	}, nil
}

func argString(args map[string]interface{}, name string) string {
	return strings.TrimSpace(gconv.To[string](args[name]))
}

// argBool accepts booleans as well as "yes"/"true" strings.
func argBool(args map[string]interface{}, name string) bool {
	switch v := args[name].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "y", "true", "1":
			return true
		}
		return false
	default:
		return gconv.To[bool](v)
	}
}

// userError reports whether err should be shown to the model as a plain
// message rather than a tool failure.
func userError(err error) bool {
	for _, target := range []error{
		reminder.ErrEmptyText, reminder.ErrInvalidTime, reminder.ErrInvalidRepeat,
		reminder.ErrInvalidGate, reminder.ErrInvalidDay, reminder.ErrOutdated,
		reminder.ErrInvalidIndex, reminder.ErrNoMatch, reminder.ErrEmptyFilter,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func failure(action string, err error) (interface{}, error) {
	if userError(err) {
		return fmt.Sprintf("Failed to %s: %v", action, err), nil
	}
	return nil, fmt.Errorf("%s: %w", action, err)
}
