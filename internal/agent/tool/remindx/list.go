package remindx

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/reminder"
)

type ListTool struct {
	binding
}

func NewListTool(s *reminder.Scheduler) *ListTool {
	return &ListTool{binding: binding{sched: s}}
}

func (t *ListTool) Name() string {
	return "list_reminders"
}

func (t *ListTool) Description() string {
	return "List the reminders and tasks of this conversation with their numbers, times and repeat types"
}

func (t *ListTool) ToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        t.Name(),
		Desc:        t.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
	}
}

func (t *ListTool) Execute(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
	sc, err := t.resolve(ctx)
	if err != nil {
		return nil, err
	}
	return reminder.FormatList(sc.sched.List(sc.key)), nil
}
