package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/tgifai/reminder/internal/holiday"
)

// cronParser is a standard 5-field cron expression parser (minute hour dom month dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Trigger computes fire instants for one item.
type Trigger interface {
	// Next returns the first fire instant strictly after t, or the zero
	// time when there is none.
	Next(t time.Time) time.Time
	Periodic() bool
	Spec() string
}

type onceTrigger struct {
	at time.Time
}

func (o onceTrigger) Next(t time.Time) time.Time {
	if o.at.After(t) {
		return o.at
	}
	return time.Time{}
}

func (o onceTrigger) Periodic() bool { return false }
func (o onceTrigger) Spec() string   { return "at " + FormatDateTime(o.at) }

// cronTrigger fires on a cron cadence evaluated in loc, never before start.
type cronTrigger struct {
	expr  string
	sched cron.Schedule
	start time.Time
	loc   *time.Location
}

func (c cronTrigger) Next(t time.Time) time.Time {
	if c.start.After(t) {
		t = c.start.Add(-time.Second)
	}
	return c.sched.Next(t.In(c.loc))
}

func (c cronTrigger) Periodic() bool { return true }
func (c cronTrigger) Spec() string   { return c.expr }

// cronExpr maps a recurrence anchored at base onto a cron expression. Only
// base's calendar fields matter. A monthly or yearly anchor on a day a
// given month lacks (the 31st, Feb 29) produces no occurrence that month.
func cronExpr(r Recurrence, base time.Time) (string, error) {
	switch r {
	case RepeatDaily:
		return fmt.Sprintf("%d %d * * *", base.Minute(), base.Hour()), nil
	case RepeatWeekly:
		return fmt.Sprintf("%d %d * * %d", base.Minute(), base.Hour(), int(base.Weekday())), nil
	case RepeatMonthly:
		return fmt.Sprintf("%d %d %d * *", base.Minute(), base.Hour(), base.Day()), nil
	case RepeatYearly:
		return fmt.Sprintf("%d %d %d %d *", base.Minute(), base.Hour(), base.Day(), int(base.Month())), nil
	default:
		return "", fmt.Errorf("%w: %q is not periodic", ErrInvalidRepeat, r)
	}
}

// NewTrigger builds the trigger for it, evaluated in loc.
func NewTrigger(it Item, loc *time.Location) (Trigger, RepeatRule, error) {
	if loc == nil {
		loc = time.Local
	}
	rule, err := it.Rule()
	if err != nil {
		return nil, RepeatRule{}, err
	}
	base, err := it.baseTime(loc)
	if err != nil {
		return nil, RepeatRule{}, err
	}
	if !rule.Periodic() {
		return onceTrigger{at: base}, rule, nil
	}

	expr, err := cronExpr(rule.Recurrence, base)
	if err != nil {
		return nil, RepeatRule{}, err
	}
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, RepeatRule{}, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return cronTrigger{expr: expr, sched: sched, start: base, loc: loc}, rule, nil
}

// Allows evaluates the gate for the occurrence on day.
func (g Gate) Allows(ctx context.Context, cal holiday.Calendar, day time.Time) bool {
	switch g {
	case GateWorkday:
		return cal.IsWorkday(ctx, day)
	case GateHoliday:
		return cal.IsHoliday(ctx, day)
	default:
		return true
	}
}
