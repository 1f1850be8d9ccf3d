package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/reminder/internal/agent"
	"github.com/tgifai/reminder/internal/agent/tool"
	"github.com/tgifai/reminder/internal/agent/tool/remindx"
	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/channel/logger"
	"github.com/tgifai/reminder/internal/channel/webhook"
	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/holiday"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/provider"
	"github.com/tgifai/reminder/internal/provider/openai"
	"github.com/tgifai/reminder/internal/reminder"
)

const (
	deliveryChannelID = "delivery"
	llmProviderID     = "llm"
)

// loadConfig reads the file named by --config. missing reports an absent
// file so callers can point at "reminder init".
func loadConfig(cmd *cli.Command) (cfg *config.Config, path string, missing bool, err error) {
	path = cmd.String("config")
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		return nil, path, true, nil
	}
	cfg, err = config.Load(path)
	if err != nil {
		return nil, path, false, fmt.Errorf("loading config error: %w", err)
	}
	return cfg, path, false, nil
}

func initLogger(cfg config.LoggingConfig) error {
	return logs.Init(logs.Options{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		File:       cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})
}

func newCalendar(ctx context.Context, cfg config.HolidayConfig) (*holiday.Provider, error) {
	opts := holiday.Options{
		Path:          cfg.Cache,
		StaleAfter:    cfg.StaleAfter(),
		RetryInterval: cfg.RetryInterval(),
	}
	if cfg.IsEnabled() {
		f, err := holiday.NewHTTPFetcher(cfg.Endpoint, cfg.Timeout())
		if err != nil {
			return nil, fmt.Errorf("create holiday fetcher: %w", err)
		}
		opts.Fetcher = f
	}
	return holiday.NewProvider(ctx, opts), nil
}

// newDeliveryChannel posts to the webhook when one is configured and
// otherwise writes deliveries to the log.
func newDeliveryChannel(cfg config.DeliveryConfig) (channel.Channel, error) {
	if cfg.WebhookURL == "" {
		return logger.NewChannel(deliveryChannelID), nil
	}
	return webhook.NewChannel(deliveryChannelID, webhook.Config{
		URL:     cfg.WebhookURL,
		Token:   cfg.Token,
		Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
	})
}

// newAgent returns nil without error when no model is configured.
func newAgent(ctx context.Context, cfg *config.Config, sched *reminder.Scheduler) (*agent.Agent, error) {
	if !cfg.LLM.LLMEnabled() {
		logs.CtxInfo(ctx, "[llm] no model configured, reminders are sent verbatim")
		return nil, nil
	}
	p, err := openai.NewProvider(ctx, openai.ConfigFromLLM(llmProviderID, cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create provider %s: %w", llmProviderID, err)
	}
	if err = provider.Register(p); err != nil {
		return nil, fmt.Errorf("register provider %s: %w", llmProviderID, err)
	}
	ag, err := agent.NewAgent(p, tool.NewRegistry(remindx.Tools(sched)...), agent.Config{
		ID:       "reminder",
		Model:    cfg.LLM.Model,
		Location: cfg.Reminder.Location(),
	})
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	logs.CtxInfo(ctx, "[llm] agent ready with model %s", cfg.LLM.Model)
	return ag, nil
}
