package remindx

import (
	"github.com/tgifai/reminder/internal/agent/tool"
	"github.com/tgifai/reminder/internal/reminder"
)

// Tools returns every reminder tool bound to s. A nil s uses the global
// scheduler at call time.
func Tools(s *reminder.Scheduler) []tool.Tool {
	return []tool.Tool{
		NewSetReminderTool(s),
		NewSetTaskTool(s),
		NewDeleteTool(s),
		NewListTool(s),
	}
}
