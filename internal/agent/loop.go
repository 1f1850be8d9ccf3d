package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/utils"
)

type toolResult struct {
	name   string
	result string
}

// runLoop calls the model until it stops requesting tools or the iteration
// limit is hit. Successful tool outputs are returned alongside the reply.
func (ag *Agent) runLoop(ctx context.Context, msgs []*schema.Message, withTools bool) (*schema.Message, []toolResult, error) {
	var opts []model.Option
	if withTools && ag.tools.Len() > 0 {
		opts = append(opts,
			model.WithTools(ag.tools.Infos()),
			model.WithToolChoice(schema.ToolChoiceAllowed),
		)
	}

	var results []toolResult
	for iter := 0; iter < ag.maxIterations; iter++ {
		llmResp, err := ag.provider.Generate(ctx, ag.model, msgs, opts...)
		if err != nil || llmResp == nil {
			logs.CtxWarn(ctx, "[agent:%s] generation (nil: %v) failed: %v", ag.id, llmResp == nil, err)
			if err == nil {
				err = fmt.Errorf("empty model response")
			}
			return nil, results, err
		}

		if len(llmResp.ToolCalls) == 0 {
			return llmResp, results, nil
		}

		msgs = append(msgs, llmResp)
		for _, call := range llmResp.ToolCalls {
			logs.CtxDebug(ctx, "[agent:%s:%d] call %s(%s)", ag.id, iter, call.Function.Name, call.Function.Arguments)
			res, callErr := ag.tools.Call(ctx, &call)
			resMsg := &schema.Message{
				Role:       schema.Tool,
				ToolName:   call.Function.Name,
				ToolCallID: call.ID,
			}
			if callErr != nil {
				logs.CtxWarn(ctx, "[agent:%s] tool %s failed: %v", ag.id, call.Function.Name, callErr)
				resMsg.Content = "ERROR: " + callErr.Error()
			} else {
				resMsg.Content = res
				results = append(results, toolResult{name: call.Function.Name, result: resMsg.Content})
			}
			msgs = append(msgs, resMsg)
		}
	}

	logs.CtxWarn(ctx, "[agent:%s] iteration limit (%d) reached, requesting summary", ag.id, ag.maxIterations)
	return ag.runSummary(ctx, msgs), results, nil
}

// runSummary makes one final call without tools once the iteration limit
// is exceeded.
func (ag *Agent) runSummary(ctx context.Context, msgs []*schema.Message) *schema.Message {
	msgs = append(msgs, &schema.Message{
		Role:    schema.User,
		Content: "You have reached the maximum number of steps. Summarize what was done and what remains.",
	})

	resp, err := ag.provider.Generate(ctx, ag.model, msgs)
	if err != nil || resp == nil {
		logs.CtxWarn(ctx, "[agent:%s] summary generation failed: %v", ag.id, err)
		return &schema.Message{
			Role:    schema.Assistant,
			Content: "The request needed more steps than allowed. Part of it may have been applied.",
		}
	}
	return resp
}

func (ag *Agent) summarizeResults(ctx context.Context, instruction string, results []toolResult) (string, error) {
	prompt := fmt.Sprintf("I carried out the user's task %q and got these results:\n\n%s\n"+
		"Present them to the user in natural, friendly language. Do not mention that this was a scheduled task.",
		instruction, formatResultList(results))
	return ag.Ask(ctx, prompt)
}

func formatResultList(results []toolResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: %s\n", r.name, r.result)
	}
	return b.String()
}

func formatRawResults(results []toolResult) string {
	var b strings.Builder
	b.WriteString("Results:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "[%s]: %s\n", r.name, utils.Truncate(r.result, 500))
	}
	return strings.TrimRight(b.String(), "\n")
}
