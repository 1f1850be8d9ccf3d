package openai

import (
	"context"
	"fmt"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/tgifai/reminder/internal/pkg/utils"
	"github.com/tgifai/reminder/internal/provider"
)

var _ provider.Provider = (*Provider)(nil)

type Provider struct {
	config  Config
	httpCli *client.Client

	modelMu sync.Mutex
	models  map[string]*openai.ChatModel

	mu              sync.RWMutex
	checked         bool
	isAvailable     bool
	availableModels []provider.ModelInfo

	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewProvider builds the provider and runs one availability check. A failed
// check is not fatal: the model may still answer completions.
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cli, err := client.NewClient(
		client.WithDialTimeout(config.Timeout),
		client.WithClientReadTimeout(config.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	p := &Provider{
		config:          config,
		httpCli:         cli,
		models:          make(map[string]*openai.ChatModel, 1),
		availableModels: make([]provider.ModelInfo, 0),
		closeCh:         make(chan struct{}),
	}

	p.checkAvailability(ctx)
	if config.HealthInterval > 0 {
		go p.watchHealth()
	}
	return p, nil
}

func (p *Provider) ID() string {
	return p.config.ID
}

func (p *Provider) Type() provider.Type {
	return provider.OpenAI
}

func (p *Provider) GetAvailableModels() []provider.ModelInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]provider.ModelInfo, len(p.availableModels))
	copy(result, p.availableModels)
	return result
}

func (p *Provider) IsAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.isAvailable
}

func (p *Provider) Close() error {
	p.closeOnce.Do(func() { close(p.closeCh) })
	return nil
}

type listModelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
	Object string `json:"object"`
}

func (p *Provider) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer protocol.ReleaseRequest(req)
	defer protocol.ReleaseResponse(resp)

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(p.config.BaseURL + "/models")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)

	if err := p.httpCli.DoTimeout(ctx, req, resp, p.config.Timeout); err != nil {
		return nil, fmt.Errorf("failed to list models from API: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode(), utils.Truncate(string(resp.Body()), 200))
	}

	var modelsResp listModelsResponse
	if err := sonic.Unmarshal(resp.Body(), &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	result := make([]provider.ModelInfo, 0, len(modelsResp.Data))
	for _, m := range modelsResp.Data {
		result = append(result, provider.ModelInfo{ID: m.ID, Name: m.ID, Provider: provider.OpenAI})
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no models returned from API")
	}
	return result, nil
}
