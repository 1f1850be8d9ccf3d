package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tgifai/reminder/internal/pkg/logs"
)

// Generate runs one chat completion. An answered call marks the backend
// available even when the last model listing failed.
func (p *Provider) Generate(ctx context.Context, modelName string, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if modelName == "" {
		modelName = p.config.DefaultModel
	}

	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	chatModel, err := p.chatModel(ctx, modelName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := chatModel.Generate(ctx, input, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s completion failed: %w", modelName, err)
	}
	if p.setAvailable(true, nil) {
		logs.CtxInfo(ctx, "[provider:%s] backend answered, marking available", p.config.ID)
	}
	logs.CtxDebug(ctx, "[provider:%s] %s answered in %s", p.config.ID, modelName, time.Since(start))
	return resp, nil
}

// chatModel returns the cached eino model for name, creating it on first use.
func (p *Provider) chatModel(ctx context.Context, name string) (*openai.ChatModel, error) {
	p.modelMu.Lock()
	defer p.modelMu.Unlock()

	if m, ok := p.models[name]; ok {
		return m, nil
	}
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  p.config.APIKey,
		Model:   name,
		BaseURL: p.config.BaseURL,
		Timeout: p.config.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model %s: %w", name, err)
	}
	p.models[name] = m
	return m, nil
}
