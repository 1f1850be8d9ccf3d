package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/consts"
)

const chatSystemPrompt = `You help the user manage reminders and scheduled tasks in this conversation.
Use set_reminder for things the user wants to be reminded of, set_task for instructions you should carry out later,
list_reminders to show what is scheduled and delete_reminder to remove entries.
Times are HH:MM in the user's timezone. Reply briefly and in the user's language.`

const taskSystemPrompt = `You can call the available functions to complete the user's request.
Call them directly when they help; otherwise answer with the result itself, without any background description.`

func (ag *Agent) buildMessages(ctx context.Context, system, user string) []*schema.Message {
	prompt := ag.buildRuntimeInformation(ctx)
	if system != "" {
		prompt = system + "\n\n" + prompt
	}
	return []*schema.Message{
		{Role: schema.System, Content: prompt},
		{Role: schema.User, Content: user},
	}
}

func (ag *Agent) buildRuntimeInformation(ctx context.Context) string {
	value := func(key consts.CtxKey) string {
		if v, _ := ctx.Value(key).(string); strings.TrimSpace(v) != "" {
			return v
		}
		return "N/A"
	}

	now := ag.now().In(ag.loc)
	return fmt.Sprintf(
		"# Runtime Information\n- conversation: %s\n- user id: %s\n- user name: %s\n- current time: %s (%s)\n- timezone: %s",
		value(consts.CtxKeyAddress), value(consts.CtxKeyUserID), value(consts.CtxKeyUserName),
		now.Format("2006-01-02 15:04"), now.Weekday(), ag.loc,
	)
}
