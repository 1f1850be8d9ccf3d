package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

var msgHwd = &MsgRunner{}

type MsgRunner struct{}

func (r *MsgRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "msg",
		Usage: "Send a one-off message through the configured delivery channel",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "Target conversation (platform:MessageType:id)",
			},
			&cli.StringFlag{
				Name:    "content",
				Aliases: []string{"m"},
				Usage:   "Message body",
			},
		},
		Action: r.run,
	}
}

func (r *MsgRunner) run(ctx context.Context, cmd *cli.Command) error {
	address := strings.TrimSpace(cmd.String("address"))
	if address == "" {
		return errors.New("--address is required")
	}
	content := strings.TrimSpace(cmd.String("content"))
	if content == "" {
		return errors.New("--content cannot be empty")
	}

	cfg, cfgPath, missing, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if missing {
		return fmt.Errorf("no config found at %s, run \"reminder init\" first", cfgPath)
	}

	ch, err := newDeliveryChannel(cfg.Delivery)
	if err != nil {
		return fmt.Errorf("create delivery channel: %w", err)
	}
	defer func() { _ = ch.Stop(ctx) }()

	if err := ch.SendMessage(ctx, address, content); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	fmt.Printf("Sent message via %s channel to %s\n", ch.Type(), address)
	return nil
}
