package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/tgifai/reminder/internal/config"
)

var holidayHwd = &HolidayRunner{}

type HolidayRunner struct{}

func (r *HolidayRunner) cmd() *cli.Command {
	return &cli.Command{
		Name:      "holiday",
		Usage:     "Classify a date with the holiday calendar",
		ArgsUsage: "<YYYY-MM-DD>",
		Action:    r.run,
	}
}

func (r *HolidayRunner) run(ctx context.Context, cmd *cli.Command) error {
	arg := strings.TrimSpace(cmd.Args().First())
	if arg == "" {
		return errors.New("a date is required, e.g. reminder holiday 2026-10-01")
	}

	cfg, _, missing, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if missing {
		cfg = &config.Config{}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	day, err := time.ParseInLocation(time.DateOnly, arg, cfg.Reminder.Location())
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", arg)
	}

	cal, err := newCalendar(ctx, cfg.Holiday)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", day.Format(time.DateOnly), day.Weekday())
	cDim.Printf("  calendar: %s\n", cal.Classify(ctx, day))
	if cal.IsHoliday(ctx, day) {
		cWarn.Println("  public holiday: workday-gated items are skipped")
	} else {
		cSuccess.Println("  workday: holiday-gated items are skipped")
	}
	return nil
}
