package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	hzServer "github.com/cloudwego/hertz/pkg/app/server"
	hzConfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	hzProm "github.com/hertz-contrib/monitor-prometheus"

	"github.com/tgifai/reminder/internal/agent"
	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/command"
	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/pkg/prometheus"
	"github.com/tgifai/reminder/internal/reminder"
)

const noAgentReply = "I only understand commands right now. Send /rmd help to see them."

type Options struct {
	Config config.GatewayConfig
	// Scheduler defaults to the global one.
	Scheduler *reminder.Scheduler
	Commands  *command.Router
	// Agent answers free-form messages; optional.
	Agent *agent.Agent
}

// Gateway is the HTTP surface: chat messages in, replies out, plus read-only
// views of the schedule.
type Gateway struct {
	cfg        config.GatewayConfig
	sched      *reminder.Scheduler
	commands   *command.Router
	agent      *agent.Agent
	msgQueue   *MessageQueue
	httpServer *hzServer.Hertz

	runCtx    context.Context
	runCancel context.CancelFunc

	stopOnce sync.Once
}

func NewGateway(opts Options) *Gateway {
	cfg := opts.Config
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	hlog.SetLogger(logs.NewHlogLogger(logs.DefaultLogger()))

	svrOpts := []hzConfig.Option{
		hzServer.WithHostPorts(cfg.Bind),
		hzServer.WithReadTimeout(timeout),
		// replies may wait on the model for the whole request timeout
		hzServer.WithWriteTimeout(2 * timeout),
		hzServer.WithExitWaitTime(5 * time.Second),
	}
	if cfg.MetricsAddr != "" {
		svrOpts = append(svrOpts, hzServer.WithTracer(hzProm.NewServerTracer(
			cfg.MetricsAddr, "/metrics",
			hzProm.WithRegistry(prometheus.GetRegistry()),
		)))
	}

	commands := opts.Commands
	if commands == nil {
		commands = command.NewRouter()
		command.NewReminders(opts.Scheduler).Install(commands)
	}

	return &Gateway{
		cfg:        cfg,
		sched:      opts.Scheduler,
		commands:   commands,
		agent:      opts.Agent,
		httpServer: hzServer.Default(svrOpts...),
		msgQueue:   newMessageQueue(QueueOptions{MaxConcurrent: cfg.MaxConcurrent}),
	}
}

func (gw *Gateway) scheduler() *reminder.Scheduler {
	if gw.sched != nil {
		return gw.sched
	}
	return reminder.Default()
}

// Start mounts routes, attaches inbound channels and serves in the
// background.
func (gw *Gateway) Start(ctx context.Context, inbound ...channel.Channel) error {
	gw.runCtx, gw.runCancel = context.WithCancel(ctx)

	if err := gw.msgQueue.Init(gw.runCtx, gw.processMessage); err != nil {
		return fmt.Errorf("init msg queue: %w", err)
	}
	gw.registerRoutes()

	for _, ch := range inbound {
		if err := gw.attach(gw.runCtx, ch); err != nil {
			return fmt.Errorf("attach channel %s: %w", ch.ID(), err)
		}
	}

	go gw.httpServer.Spin()
	logs.CtxInfo(ctx, "[gateway] listening on %s", gw.cfg.Bind)
	return nil
}

func (gw *Gateway) attach(ctx context.Context, ch channel.Channel) error {
	if err := ch.RegisterMessageHandler(gw.enqueueMsg); err != nil {
		return err
	}
	if err := channel.Register(ch); err != nil {
		return err
	}
	if rp, ok := ch.(channel.RouteProvider); ok {
		for _, r := range rp.Routes() {
			gw.httpServer.Handle(r.Method, r.Path, r.Handler)
		}
	}
	go func() {
		logs.CtxInfo(ctx, "[gateway] starting channel #%s (%s)", ch.ID(), ch.Type())
		if err := ch.Start(ctx); err != nil {
			logs.CtxError(ctx, "[gateway] channel #%s stopped with error: %v", ch.ID(), err)
		}
	}()
	return nil
}

func (gw *Gateway) Stop(ctx context.Context) error {
	var err error
	gw.stopOnce.Do(func() {
		if gw.runCancel != nil {
			gw.runCancel()
		}
		for _, ch := range channel.List() {
			if e := ch.Stop(ctx); e != nil {
				logs.CtxWarn(ctx, "[gateway] stop channel %s error: %v", ch.ID(), e)
			}
		}
		if err = gw.httpServer.Shutdown(ctx); err != nil {
			logs.CtxWarn(ctx, "[gateway] shutdown http server error: %v", err)
		}
		logs.CtxInfo(ctx, "[gateway] all resources stopped")
	})
	return err
}

func (gw *Gateway) registerRoutes() {
	gw.httpServer.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := gw.httpServer.Group("/api/v1", gw.authenticate)
	api.GET("/reminders", gw.listReminders)
	api.GET("/jobs", gw.listJobs)
}

func (gw *Gateway) enqueueMsg(ctx context.Context, msg *channel.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}
	return gw.msgQueue.Enqueue(ctx, msg)
}

// processMessage answers one inbound message: commands first, then the
// agent. The reply goes back through the channel the message came from.
func (gw *Gateway) processMessage(ctx context.Context, msg *channel.Message) error {
	if msg == nil {
		return errors.New("message cannot be nil")
	}
	logs.CtxDebug(ctx, "[msg] -> (%s#%s) %s", msg.Address, msg.UserID, msg.Content)

	ch, err := channel.Get(msg.ChannelID)
	if err != nil {
		return fmt.Errorf("channel %s not found: %w", msg.ChannelID, err)
	}

	reply, err := gw.answer(ctx, msg)
	if err != nil {
		logs.CtxError(ctx, "[gateway] handle message from %s failed: %v", msg.Address, err)
		reply = "Something went wrong, please try again later."
	}
	if reply == "" {
		return nil
	}
	if err := ch.SendMessage(ctx, msg.ID, reply); err != nil {
		return fmt.Errorf("send reply via channel %s failed: %w", msg.ChannelID, err)
	}
	return nil
}

func (gw *Gateway) answer(ctx context.Context, msg *channel.Message) (string, error) {
	ctx = agent.WithRuntime(ctx, msg.Address, msg.UserID, msg.UserName)
	if reply, handled, err := gw.commands.Handle(ctx, msg); handled {
		return reply, err
	}
	if gw.agent == nil {
		return noAgentReply, nil
	}
	resp, err := gw.agent.ProcessMessage(ctx, msg)
	if err != nil {
		return "", fmt.Errorf("agent %s process message failed: %w", gw.agent.ID(), err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Content, nil
}
