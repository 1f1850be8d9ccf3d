package reminder

import "errors"

var (
	ErrNotInitialized = errors.New("reminder: scheduler not initialized, call Init first")

	ErrEmptyText     = errors.New("content cannot be empty")
	ErrInvalidTime   = errors.New("invalid time, use HH:MM (e.g. 8:05) or HHMM (e.g. 0805)")
	ErrInvalidRepeat = errors.New("invalid repeat type, choose from daily, weekly, monthly, yearly")
	ErrInvalidGate   = errors.New("invalid holiday type, choose from workday, holiday")
	ErrInvalidDay    = errors.New("invalid weekday, choose from mon, tue, wed, thu, fri, sat, sun")
	ErrOutdated      = errors.New("the time is already in the past")
	ErrInvalidIndex  = errors.New("invalid index")
	ErrNoMatch       = errors.New("no matching reminders or tasks")
	ErrEmptyFilter   = errors.New("at least one delete condition is required")
)
