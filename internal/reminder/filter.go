package reminder

import (
	"fmt"
	"strings"
	"time"
)

// DeleteFilter selects items for bulk deletion. Every non-empty condition
// must hold. TaskOnly and ReminderOnly narrow by kind first.
type DeleteFilter struct {
	Content      string
	Time         string // HH:MM
	Weekday      string // mon..sun
	Repeat       string
	Date         string // YYYY-MM-DD
	All          bool
	TaskOnly     bool
	ReminderOnly bool
}

type compiledFilter struct {
	content      string
	hour, minute int
	hasTime      bool
	weekday      time.Weekday
	hasWeekday   bool
	repeat       RepeatRule
	hasRepeat    bool
	date         string
	all          bool
	taskOnly     bool
	reminderOnly bool
}

func (f DeleteFilter) hasCondition() bool {
	return f.All || f.Content != "" || f.Time != "" || f.Weekday != "" || f.Repeat != "" || f.Date != ""
}

func (f DeleteFilter) compile() (compiledFilter, error) {
	if !f.hasCondition() {
		return compiledFilter{}, ErrEmptyFilter
	}
	if f.TaskOnly && f.ReminderOnly {
		return compiledFilter{}, fmt.Errorf("task_only and reminder_only cannot both be set")
	}

	c := compiledFilter{
		content:      f.Content,
		all:          f.All,
		taskOnly:     f.TaskOnly,
		reminderOnly: f.ReminderOnly,
	}
	if f.Time != "" {
		h, m, err := ParseClock(f.Time)
		if err != nil {
			return compiledFilter{}, err
		}
		c.hour, c.minute, c.hasTime = h, m, true
	}
	if f.Weekday != "" {
		wd, err := ParseWeekday(f.Weekday)
		if err != nil {
			return compiledFilter{}, err
		}
		c.weekday, c.hasWeekday = wd, true
	}
	if f.Repeat != "" {
		rule, err := ParseRepeat(f.Repeat)
		if err != nil {
			return compiledFilter{}, err
		}
		c.repeat, c.hasRepeat = rule, true
	}
	if f.Date != "" {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(f.Date))
		if err != nil {
			return compiledFilter{}, fmt.Errorf("%w: date %q, expected YYYY-MM-DD", ErrInvalidTime, f.Date)
		}
		c.date = d.Format(time.DateOnly)
	}
	return c, nil
}

func (c compiledFilter) match(it Item, loc *time.Location) bool {
	if c.taskOnly && !it.IsTask {
		return false
	}
	if c.reminderOnly && it.IsTask {
		return false
	}
	if c.all {
		return true
	}
	if c.content != "" && !strings.Contains(it.Text, c.content) {
		return false
	}
	if c.hasRepeat {
		rule, err := it.Rule()
		if err != nil || rule.Recurrence != c.repeat.Recurrence {
			return false
		}
		// A bare cadence matches regardless of gate.
		if c.repeat.Gate != GateNone && rule.Gate != c.repeat.Gate {
			return false
		}
	}
	if !c.hasTime && !c.hasWeekday && c.date == "" {
		return true
	}

	at, err := it.baseTime(loc)
	if err != nil {
		return false
	}
	if c.hasTime && (at.Hour() != c.hour || at.Minute() != c.minute) {
		return false
	}
	if c.hasWeekday && at.Weekday() != c.weekday {
		return false
	}
	if c.date != "" && at.Format(time.DateOnly) != c.date {
		return false
	}
	return true
}

// Describe lists the active conditions, for "nothing matched" replies.
func (f DeleteFilter) Describe() string {
	var conds []string
	add := func(name, v string) {
		if v != "" {
			conds = append(conds, fmt.Sprintf("%s=%s", name, v))
		}
	}
	add("content", f.Content)
	add("time", f.Time)
	add("weekday", f.Weekday)
	add("repeat", f.Repeat)
	add("date", f.Date)
	if f.All {
		conds = append(conds, "all=yes")
	}
	if f.TaskOnly {
		conds = append(conds, "tasks only")
	}
	if f.ReminderOnly {
		conds = append(conds, "reminders only")
	}
	return strings.Join(conds, ", ")
}
