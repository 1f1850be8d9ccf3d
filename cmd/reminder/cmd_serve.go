package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	httpch "github.com/tgifai/reminder/internal/channel/http"
	"github.com/tgifai/reminder/internal/command"
	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/dispatch"
	"github.com/tgifai/reminder/internal/gateway"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/provider"
	"github.com/tgifai/reminder/internal/reminder"
)

var serveHwd = &ServeRunner{}

type ServeRunner struct{}

func (r *ServeRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the scheduler and the HTTP gateway",
		Action: r.run,
	}
}

func (r *ServeRunner) run(ctx context.Context, cmd *cli.Command) error {
	cfg, cfgPath, missing, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if missing {
		fmt.Printf("No config found at %s. Run \"reminder init\" to create one.\n", cfgPath)
		return nil
	}
	if err = initLogger(cfg.Logging); err != nil {
		return fmt.Errorf("init logger error: %w", err)
	}
	defer logs.Flush()

	ctx, cancel := context.WithCancel(logs.WithLogID(ctx))
	defer cancel()
	logs.CtxInfo(ctx, "booting reminder service, using config file: %s...", cfgPath)

	calendar, err := newCalendar(ctx, cfg.Holiday)
	if err != nil {
		return err
	}
	delivery, err := newDeliveryChannel(cfg.Delivery)
	if err != nil {
		return fmt.Errorf("create delivery channel: %w", err)
	}
	defer func() { _ = delivery.Stop(context.Background()) }()

	// The scheduler exists before the dispatcher so the agent's tools can
	// bind to it; the dispatcher is wired in through the fire hook.
	var dispatcher *dispatch.Dispatcher
	sched := reminder.Init(reminder.Options{
		Config:   cfg.Reminder,
		Calendar: calendar,
		Fire: func(ctx context.Context, key string, item reminder.Item) error {
			return dispatcher.OnFire(ctx, key, item)
		},
	})

	ag, err := newAgent(ctx, cfg, sched)
	if err != nil {
		return err
	}
	defer provider.CloseAll()
	dispatcher, err = dispatch.New(delivery,
		dispatch.WithAgent(ag),
		dispatch.WithWechatPlatforms(cfg.Reminder.WechatPlatforms),
		dispatch.WithResolver(sched.Resolver),
	)
	if err != nil {
		return err
	}

	if err = reminder.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	commands := command.NewRouter()
	command.NewReminders(sched).Install(commands)
	gw := gateway.NewGateway(gateway.Options{
		Config:    cfg.Gateway,
		Scheduler: sched,
		Commands:  commands,
		Agent:     ag,
	})
	inbound, err := httpch.NewChannel("http", httpch.ConfigFromGateway(cfg.Gateway))
	if err != nil {
		return fmt.Errorf("create http channel: %w", err)
	}
	if err = gw.Start(ctx, inbound); err != nil {
		cancel()
		_ = gw.Stop(context.Background())
		reminder.Stop(context.Background())
		return fmt.Errorf("start gateway: %w", err)
	}

	go func() {
		err := config.Watch(ctx, func(next *config.Config) {
			if err := reminder.Apply(ctx, next.Reminder); err != nil {
				logs.CtxError(ctx, "[config] apply reminder settings failed: %v", err)
				return
			}
			logs.CtxInfo(ctx, "[config] reminder settings reloaded")
		})
		if err != nil {
			logs.CtxWarn(ctx, "[config] watch stopped: %v", err)
		}
	}()

	logs.CtxInfo(ctx, "ALL IS WELL!!! %d items armed. Press Ctrl+C to stop.", len(sched.Jobs()))

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)

	select {
	case sig := <-signalCh:
		logs.CtxInfo(ctx, "Received shutdown signal (%s). Stopping...", sig.String())
	case <-ctx.Done():
		logs.CtxInfo(ctx, "Context canceled. Stopping...")
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err = gw.Stop(stopCtx); err != nil {
		logs.CtxError(ctx, "stop gateway error: %v", err)
	}
	reminder.Stop(stopCtx)

	logs.CtxInfo(ctx, "all stopped, good bye!")
	return nil
}
