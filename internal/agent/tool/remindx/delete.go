package remindx

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/reminder"
)

type DeleteTool struct {
	binding
}

func NewDeleteTool(s *reminder.Scheduler) *DeleteTool {
	return &DeleteTool{binding: binding{sched: s}}
}

func (t *DeleteTool) Name() string {
	return "delete_reminder"
}

func (t *DeleteTool) Description() string {
	return "Delete reminders or tasks of this conversation that match all given conditions"
}

func (t *DeleteTool) ToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: t.Name(),
		Desc: t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"content": {
				Type: schema.String,
				Desc: "Delete items whose content contains this text",
			},
			"time": {
				Type: schema.String,
				Desc: `Delete items scheduled at this time of day, "HH:MM"`,
			},
			"weekday": {
				Type: schema.String,
				Desc: "Delete items falling on this weekday: mon, tue, wed, thu, fri, sat, sun",
			},
			"repeat_type": {
				Type: schema.String,
				Desc: "Delete items with this repeat type: daily, weekly, monthly, yearly or none",
			},
			"date": {
				Type: schema.String,
				Desc: `Delete items on this date, "YYYY-MM-DD"`,
			},
			"all": {
				Type: schema.String,
				Desc: `"yes" deletes every item (combine with task_only or reminder_only to narrow)`,
			},
			"task_only": {
				Type: schema.Boolean,
				Desc: "Only delete tasks",
			},
			"reminder_only": {
				Type: schema.Boolean,
				Desc: "Only delete reminders",
			},
		}),
	}
}

func (t *DeleteTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	sc, err := t.resolve(ctx)
	if err != nil {
		return nil, err
	}
	if len(sc.sched.List(sc.key)) == 0 {
		return "There are no reminders or tasks in this conversation.", nil
	}

	f := reminder.DeleteFilter{
		Content:      argString(args, "content"),
		Time:         argString(args, "time"),
		Weekday:      argString(args, "weekday"),
		Repeat:       argString(args, "repeat_type"),
		Date:         argString(args, "date"),
		All:          argBool(args, "all"),
		TaskOnly:     argBool(args, "task_only"),
		ReminderOnly: argBool(args, "reminder_only"),
	}
	removed, err := sc.sched.DeleteMatching(ctx, sc.key, f)
	if errors.Is(err, reminder.ErrNoMatch) {
		return reminder.FormatNoMatch(f), nil
	}
	if err != nil && len(removed) == 0 {
		return failure("delete", err)
	}
	return reminder.FormatDeleted(removed), nil
}
