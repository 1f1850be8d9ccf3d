package reminder

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeLayout is the persisted wall-clock format, minute precision.
const DateTimeLayout = "2006-01-02 15:04"

// Item is one scheduled reminder or task. Field names follow the
// reminder.json layout so files written by earlier versions still load.
type Item struct {
	// ID identifies this item among possibly identical ones.
	ID          string `json:"id"`
	Text        string `json:"text"`
	DateTime    string `json:"datetime"`
	UserName    string `json:"user_name"`
	Repeat      string `json:"repeat"`
	CreatorID   string `json:"creator_id,omitempty"`
	CreatorName string `json:"creator_name,omitempty"`
	IsTask      bool   `json:"is_task"`
	// CreatedAt is RFC 3339; rows written by older versions have none.
	CreatedAt string `json:"created_at,omitempty"`
}

func (it Item) Kind() string {
	if it.IsTask {
		return "task"
	}
	return "reminder"
}

// Rule parses the item's repeat tag.
func (it Item) Rule() (RepeatRule, error) {
	return ParseRepeat(it.Repeat)
}

// Periodic reports whether the item recurs. Unparsable tags count as
// periodic so the item is never pruned as a finished one-shot.
func (it Item) Periodic() bool {
	rule, err := it.Rule()
	return err != nil || rule.Periodic()
}

// Recurrence is the cadence of an item.
type Recurrence string

const (
	RepeatNone    Recurrence = "none"
	RepeatDaily   Recurrence = "daily"
	RepeatWeekly  Recurrence = "weekly"
	RepeatMonthly Recurrence = "monthly"
	RepeatYearly  Recurrence = "yearly"
)

func parseRecurrence(s string) (Recurrence, error) {
	switch r := Recurrence(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RepeatNone, nil
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly, RepeatYearly:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRepeat, s)
	}
}

// Gate restricts a periodic cadence to workdays or public holidays.
type Gate string

const (
	GateNone    Gate = ""
	GateWorkday Gate = "workday"
	GateHoliday Gate = "holiday"
)

func parseGate(s string) (Gate, error) {
	switch g := Gate(strings.ToLower(strings.TrimSpace(s))); g {
	case GateNone, "none":
		return GateNone, nil
	case GateWorkday, GateHoliday:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGate, s)
	}
}

// RepeatRule is a recurrence plus an optional calendar gate. It is stored
// as a single tag such as "daily" or "daily_workday".
type RepeatRule struct {
	Recurrence Recurrence
	Gate       Gate
}

// ParseRepeat accepts "daily_workday", "daily+workday" and "daily workday".
// An empty tag is a one-shot.
func ParseRepeat(tag string) (RepeatRule, error) {
	parts := strings.FieldsFunc(strings.ToLower(tag), func(r rune) bool {
		return r == '_' || r == '+' || r == ' ' || r == '\t'
	})
	switch len(parts) {
	case 0:
		return RepeatRule{Recurrence: RepeatNone}, nil
	case 1:
		return NewRepeatRule(parts[0], "")
	case 2:
		return NewRepeatRule(parts[0], parts[1])
	default:
		return RepeatRule{}, fmt.Errorf("%w: %q", ErrInvalidRepeat, tag)
	}
}

// NewRepeatRule validates a recurrence and gate given separately.
func NewRepeatRule(recurrence, gate string) (RepeatRule, error) {
	r, err := parseRecurrence(recurrence)
	if err != nil {
		return RepeatRule{}, err
	}
	g, err := parseGate(gate)
	if err != nil {
		return RepeatRule{}, err
	}
	if r == RepeatNone && g != GateNone {
		return RepeatRule{}, fmt.Errorf("%w: a holiday type needs a repeat type", ErrInvalidRepeat)
	}
	return RepeatRule{Recurrence: r, Gate: g}, nil
}

func (r RepeatRule) Periodic() bool {
	return r.Recurrence != RepeatNone && r.Recurrence != ""
}

func (r RepeatRule) String() string {
	if !r.Periodic() {
		return string(RepeatNone)
	}
	if r.Gate == GateNone {
		return string(r.Recurrence)
	}
	return string(r.Recurrence) + "_" + string(r.Gate)
}

// Describe renders the rule for confirmations and listings.
func (r RepeatRule) Describe() string {
	if !r.Periodic() {
		return "one-time"
	}
	var cadence string
	switch r.Recurrence {
	case RepeatDaily:
		switch r.Gate {
		case GateWorkday:
			return "repeats every workday (public holidays skipped)"
		case GateHoliday:
			return "repeats every public holiday"
		}
		return "repeats daily"
	case RepeatWeekly:
		cadence = "week"
	case RepeatMonthly:
		cadence = "month"
	case RepeatYearly:
		cadence = "year"
	}
	switch r.Gate {
	case GateWorkday:
		return fmt.Sprintf("repeats on this day every %s, workdays only", cadence)
	case GateHoliday:
		return fmt.Sprintf("repeats on this day every %s, public holidays only", cadence)
	}
	return fmt.Sprintf("repeats %sly", cadence)
}

// baseTime parses the item's datetime in loc.
func (it Item) baseTime(loc *time.Location) (time.Time, error) {
	return ParseDateTime(it.DateTime, loc)
}

// IsOutdated is true only for one-shots whose time has passed.
func IsOutdated(it Item, now time.Time, loc *time.Location) bool {
	if it.Periodic() {
		return false
	}
	at, err := it.baseTime(loc)
	if err != nil {
		return false
	}
	return at.Before(now)
}
