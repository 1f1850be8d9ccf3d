package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"

	"github.com/tgifai/reminder/internal/reminder"
	"github.com/tgifai/reminder/internal/session"
)

var listHwd = &ListRunner{}

type ListRunner struct{}

func (r *ListRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Print the stored reminders and tasks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "Only show this conversation (platform:MessageType:id)",
			},
			&cli.StringFlag{
				Name:  "user",
				Usage: "Member id, for isolated group lists",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the raw store entries as JSON",
			},
		},
		Action: r.run,
	}
}

func (r *ListRunner) run(_ context.Context, cmd *cli.Command) error {
	cfg, cfgPath, missing, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if missing {
		return fmt.Errorf("no config found at %s, run \"reminder init\" first", cfgPath)
	}

	st := reminder.NewStore(afero.NewOsFs(), cfg.Reminder.Store, cfg.Reminder.Location())
	if err := st.Load(); err != nil {
		return fmt.Errorf("load store: %w", err)
	}

	keys := st.Keys()
	if address := strings.TrimSpace(cmd.String("address")); address != "" {
		resolver := session.NewResolver(cfg.Reminder.UniqueSession)
		keys = []string{resolver.Isolate(address, strings.TrimSpace(cmd.String("user")))}
	}

	if cmd.Bool("json") {
		out := make(map[string][]reminder.Item, len(keys))
		for _, k := range keys {
			out[k] = st.List(k)
		}
		raw, err := sonic.ConfigStd.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	if len(keys) == 0 {
		cDim.Printf("Store %s is empty.\n", st.Path())
		return nil
	}
	for _, k := range keys {
		cStep.Println(k)
		fmt.Println(reminder.FormatList(st.List(k)))
		fmt.Println()
	}
	return nil
}
