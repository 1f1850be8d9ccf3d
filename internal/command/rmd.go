package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/consts"
	"github.com/tgifai/reminder/internal/pkg/logs"
	"github.com/tgifai/reminder/internal/reminder"
)

const holidayFlag = "--holiday_type="

// Reminders serves the /rmd command family over one scheduler.
type Reminders struct {
	sched func() *reminder.Scheduler
}

// NewReminders binds the commands to s. A nil s uses the global scheduler.
func NewReminders(s *reminder.Scheduler) *Reminders {
	if s != nil {
		return &Reminders{sched: func() *reminder.Scheduler { return s }}
	}
	return &Reminders{sched: reminder.Default}
}

// Install registers /rmd and /help on r.
func (c *Reminders) Install(r *Router) {
	r.Register(&Command{
		Name:        "/" + consts.DefaultCommandName,
		Description: "Manage reminders and tasks (ls, rm, add, task, help)",
		Handler:     c.handle,
	})
	r.Register(&Command{
		Name:        "/help",
		Description: "Show available commands",
		Handler: func(context.Context, *channel.Message, string) (string, error) {
			var b strings.Builder
			b.WriteString("Available commands:\n")
			for _, cmd := range r.List() {
				fmt.Fprintf(&b, "  %s - %s\n", cmd.Name, cmd.Description)
			}
			return b.String(), nil
		},
	})
}

func (c *Reminders) handle(ctx context.Context, msg *channel.Message, args string) (string, error) {
	s := c.sched()
	if s == nil {
		return "", reminder.ErrNotInitialized
	}
	key := s.Resolver().Isolate(msg.Address, msg.UserID)

	sub, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(sub) {
	case "ls", "list":
		return reminder.FormatList(s.List(key)), nil
	case "rm", "del":
		return c.remove(ctx, s, key, rest)
	case "add":
		return c.add(ctx, s, key, msg, rest, false)
	case "task":
		return c.add(ctx, s, key, msg, rest, true)
	case "", "help":
		return helpText(s.Resolver().Isolation), nil
	default:
		return fmt.Sprintf("Unknown sub-command %q. Use /%s help.", sub, consts.DefaultCommandName), nil
	}
}

func (c *Reminders) remove(ctx context.Context, s *reminder.Scheduler, key, arg string) (string, error) {
	if len(s.List(key)) == 0 {
		return "No reminders or tasks are set.", nil
	}
	pos, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Sprintf("Usage: /%s rm <number>", consts.DefaultCommandName), nil
	}
	it, err := s.Delete(ctx, key, pos)
	if errors.Is(err, reminder.ErrInvalidIndex) {
		return "Invalid number.", nil
	}
	if err != nil {
		return "", err
	}
	return reminder.FormatDeleted([]reminder.Item{it}), nil
}

// addArgs is the positional form "<text> <time> [week] [repeat] [holiday]".
type addArgs struct {
	text, clock, week, repeat, gate string
}

// parseAddArgs accepts a repeat word where the weekday belongs and a
// "--holiday_type=" flag anywhere after the time.
func parseAddArgs(raw string) (addArgs, error) {
	var a addArgs
	var pos []string
	for _, f := range strings.Fields(raw) {
		if v, ok := strings.CutPrefix(strings.ToLower(f), holidayFlag); ok {
			a.gate = v
			continue
		}
		pos = append(pos, f)
	}
	if len(pos) < 2 || len(pos) > 5 {
		return a, fmt.Errorf("usage: /%s add <text> <time> [week] [repeat] [holiday]", consts.DefaultCommandName)
	}
	a.text, a.clock = pos[0], pos[1]
	rest := pos[2:]
	get := func(i int) string {
		if i < len(rest) {
			return strings.ToLower(rest[i])
		}
		return ""
	}
	a.week, a.repeat = get(0), get(1)
	if g := get(2); g != "" {
		a.gate = g
	}

	if a.week != "" {
		if _, err := reminder.ParseWeekday(a.week); err != nil {
			if !isRepeatWord(a.week) {
				return a, fmt.Errorf("invalid weekday %q, use mon, tue, wed, thu, fri, sat or sun", a.week)
			}
			if a.repeat != "" && a.gate == "" {
				a.gate = a.repeat
			}
			a.repeat, a.week = a.week, ""
		}
	}
	return a, nil
}

func isRepeatWord(s string) bool {
	switch reminder.Recurrence(s) {
	case reminder.RepeatDaily, reminder.RepeatWeekly, reminder.RepeatMonthly, reminder.RepeatYearly:
		return true
	}
	switch reminder.Gate(s) {
	case reminder.GateWorkday, reminder.GateHoliday:
		return true
	}
	return false
}

func (c *Reminders) add(ctx context.Context, s *reminder.Scheduler, key string, msg *channel.Message, raw string, isTask bool) (string, error) {
	a, err := parseAddArgs(raw)
	if err != nil {
		return err.Error(), nil
	}
	// A bare gate word in the repeat slot means "daily" on that calendar.
	if a.repeat == string(reminder.GateWorkday) || a.repeat == string(reminder.GateHoliday) {
		a.repeat, a.gate = string(reminder.RepeatDaily), a.repeat
	}
	rule, err := reminder.NewRepeatRule(a.repeat, a.gate)
	if err != nil {
		return err.Error(), nil
	}

	at, err := reminder.ResolveClock(a.clock, s.Now())
	if err != nil {
		return "Invalid time, use HH:MM (e.g. 8:05) or HHMM (e.g. 0805).", nil
	}
	if a.week != "" {
		wd, _ := reminder.ParseWeekday(a.week)
		at = reminder.ResolveWeekday(at, wd)
	}

	item := reminder.Item{
		Text:        a.text,
		DateTime:    reminder.FormatDateTime(at),
		UserName:    msg.UserName,
		Repeat:      rule.String(),
		CreatorID:   msg.UserID,
		CreatorName: msg.UserName,
		IsTask:      isTask,
	}
	saved, err := s.Register(ctx, key, item)
	if err != nil {
		logs.CtxWarn(ctx, "[command] add %s for %s failed: %v", item.Kind(), key, err)
		return "Could not add: " + err.Error(), nil
	}
	return reminder.FormatConfirmation(saved), nil
}

func helpText(isolated bool) string {
	name := consts.DefaultCommandName
	mode := "shared by everyone in a group"
	if isolated {
		mode = "kept separately for each group member"
	}
	return fmt.Sprintf(`Reminder and task commands:

[Reminder] a message is sent at the given time
[Task] the assistant carries out an instruction at the given time

1. Add a reminder:
   /%[1]s add <text> <time> [week] [repeat] [holiday]
   - /%[1]s add report 8:05
   - /%[1]s add dinner 8:05 sun daily (daily, starting Sunday)
   - /%[1]s add meeting 8:05 mon weekly (every Monday)
   - /%[1]s add rent 8:05 fri monthly (monthly, starting Friday)
   - /%[1]s add clock-in 8:30 daily workday (every workday, public holidays skipped)
   - /%[1]s add rest 9:00 daily holiday (every public holiday)

2. Add a task:
   /%[1]s task <instruction> <time> [week] [repeat] [holiday]
   - /%[1]s task weather-report 8:00
   - /%[1]s task news-digest 18:00 daily

3. List: /%[1]s ls
4. Delete: /%[1]s rm <number> (numbers as shown by ls)

Weekdays: mon, tue, wed, thu, fri, sat, sun
Repeat: daily, weekly, monthly, yearly
Holiday: workday (workdays only), holiday (public holidays only)
Time: HH:MM or HHMM

Schedules are %[2]s.
You can also just ask in plain language.`, name, mode)
}
