package remindx

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/reminder"
)

// SetTool registers a reminder or, with isTask, a task for the current
// conversation.
type SetTool struct {
	binding
	isTask bool
}

func NewSetReminderTool(s *reminder.Scheduler) *SetTool {
	return &SetTool{binding: binding{sched: s}}
}

func NewSetTaskTool(s *reminder.Scheduler) *SetTool {
	return &SetTool{binding: binding{sched: s}, isTask: true}
}

func (t *SetTool) Name() string {
	if t.isTask {
		return "set_task"
	}
	return "set_reminder"
}

func (t *SetTool) Description() string {
	if t.isTask {
		return "Schedule a task: at the given time the instruction is executed by the assistant and the result is sent to this conversation"
	}
	return "Set a reminder: at the given time a reminder message is sent to this conversation"
}

func (t *SetTool) ToolInfo() *schema.ToolInfo {
	params := map[string]*schema.ParameterInfo{
		"text": {
			Type:     schema.String,
			Desc:     "What to remind about, or the instruction to execute for a task",
			Required: true,
		},
		"datetime_str": {
			Type:     schema.String,
			Desc:     `Time of the first occurrence, format "YYYY-MM-DD HH:MM"`,
			Required: true,
		},
		"repeat": {
			Type: schema.String,
			Desc: "Repeat type: daily, weekly, monthly, yearly or none (default none)",
			Enum: []string{"none", "daily", "weekly", "monthly", "yearly"},
		},
		"holiday_type": {
			Type: schema.String,
			Desc: "Optional calendar filter for repeating items: workday (only on workdays) or holiday (only on public holidays)",
			Enum: []string{"workday", "holiday"},
		},
	}
	if !t.isTask {
		params["user_name"] = &schema.ParameterInfo{
			Type: schema.String,
			Desc: `Name of the person to remind (default "user")`,
		}
	}
	return &schema.ToolInfo{
		Name:        t.Name(),
		Desc:        t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func (t *SetTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	action := "set " + t.kind()
	sc, err := t.resolve(ctx)
	if err != nil {
		return nil, err
	}

	rule, err := reminder.NewRepeatRule(argString(args, "repeat"), argString(args, "holiday_type"))
	if err != nil {
		return failure(action, err)
	}

	item := reminder.Item{
		Text:        argString(args, "text"),
		DateTime:    argString(args, "datetime_str"),
		UserName:    argString(args, "user_name"),
		Repeat:      rule.String(),
		CreatorID:   sc.creatorID,
		CreatorName: sc.creatorName,
		IsTask:      t.isTask,
	}
	if item.UserName == "" {
		item.UserName = consts.DefaultRecipient
	}

	saved, err := sc.sched.Register(ctx, sc.key, item)
	if err != nil {
		return failure(action, err)
	}
	logs.CtxInfo(ctx, "[tool:%s] %s at %s for %s", t.Name(), saved.ID, saved.DateTime, sc.key)
	return reminder.FormatConfirmation(saved), nil
}

func (t *SetTool) kind() string {
	if t.isTask {
		return "task"
	}
	return "reminder"
}
