package reminder

import (
	"errors"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		h, m    int
		wantErr bool
	}{
		{"8:05", 8, 5, false},
		{"08:05", 8, 5, false},
		{"0805", 8, 5, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"8:5", 0, 0, true},
		{"805", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		h, m, err := ParseClock(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidTime) {
				t.Errorf("ParseClock(%q) err = %v, want ErrInvalidTime", tt.in, err)
			}
			continue
		}
		if err != nil || h != tt.h || m != tt.m {
			t.Errorf("ParseClock(%q) = %d, %d, %v; want %d, %d", tt.in, h, m, err, tt.h, tt.m)
		}
	}
}

func TestResolveClock_RollsPastTimesToTomorrow(t *testing.T) {
	now := time.Date(2024, 2, 8, 9, 0, 30, 0, time.UTC)

	got, err := ResolveClock("8:00", now)
	if err != nil {
		t.Fatalf("ResolveClock: %v", err)
	}
	if want := time.Date(2024, 2, 9, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("past time: got %v, want %v", got, want)
	}

	got, _ = ResolveClock("0930", now)
	if want := time.Date(2024, 2, 8, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("future time: got %v, want %v", got, want)
	}

	// The current minute has already started, so it counts as past.
	got, _ = ResolveClock("09:00", now)
	if got.Day() != 9 {
		t.Fatalf("current minute: got %v, want next day", got)
	}
}

func TestResolveWeekday(t *testing.T) {
	thu := time.Date(2024, 2, 8, 8, 0, 0, 0, time.UTC)

	if got := ResolveWeekday(thu, time.Sunday); got.Format(time.DateOnly) != "2024-02-11" {
		t.Errorf("thu -> sun: got %s", got.Format(time.DateOnly))
	}
	if got := ResolveWeekday(thu, time.Thursday); got.Format(time.DateOnly) != "2024-02-15" {
		t.Errorf("thu -> thu: got %s, want next week", got.Format(time.DateOnly))
	}
	if got := ResolveWeekday(thu, time.Monday); got.Format(time.DateOnly) != "2024-02-12" {
		t.Errorf("thu -> mon: got %s", got.Format(time.DateOnly))
	}
	if got := ResolveWeekday(thu, time.Sunday); got.Hour() != 8 {
		t.Errorf("time of day changed: %v", got)
	}
}

func TestParseWeekday(t *testing.T) {
	if wd, err := ParseWeekday("SUN"); err != nil || wd != time.Sunday {
		t.Fatalf("ParseWeekday(SUN) = %v, %v", wd, err)
	}
	if _, err := ParseWeekday("sunday"); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2024-02-09 08:00:45", time.UTC)
	if err != nil {
		t.Fatalf("ParseDateTime: %v", err)
	}
	if FormatDateTime(got) != "2024-02-09 08:00" || got.Second() != 0 {
		t.Fatalf("seconds not dropped: %v", got)
	}
	if _, err := ParseDateTime("2024/02/09 08:00", time.UTC); !errors.Is(err, ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestRepairDateTime(t *testing.T) {
	now := time.Date(2024, 2, 8, 9, 0, 0, 0, time.UTC)

	fixed, changed, err := RepairDateTime("08:30", now)
	if err != nil || !changed || fixed != "2024-02-09 08:30" {
		t.Fatalf("bare time: %q, %v, %v", fixed, changed, err)
	}

	fixed, changed, err = RepairDateTime("2024-02-08 10:00", now)
	if err != nil || changed || fixed != "2024-02-08 10:00" {
		t.Fatalf("canonical: %q, %v, %v", fixed, changed, err)
	}

	if _, _, err := RepairDateTime("2024-13-01 10:00", now); err == nil {
		t.Fatal("expected error for invalid date")
	}
}
