package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/pkg/logs"
)

func main() {
	cmd := &cli.Command{
		Name:  "reminder",
		Usage: "Holiday-aware reminders and scheduled tasks for chat conversations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the config file",
				Value:   consts.DefaultConfigPath(),
			},
		},
		Commands: []*cli.Command{
			serveHwd.cmd(),
			listHwd.cmd(),
			holidayHwd.cmd(),
			msgHwd.cmd(),
			initHwd.cmd(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logs.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}
