package command

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgifai/reminder/internal/channel"
	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/reminder"
)

const address = "aiocqhttp:GroupMessage:4242"

// Tuesday 2026-03-03 09:00 UTC.
var testNow = time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)

func newRouter(t *testing.T, isolation bool) (*Router, *reminder.Scheduler) {
	t.Helper()
	s := reminder.NewScheduler(reminder.Options{
		Config: config.ReminderConfig{
			Store:         "/data/reminder.json",
			Timezone:      "UTC",
			UniqueSession: isolation,
		},
		Fs:   afero.NewMemMapFs(),
		Now:  func() time.Time { return testNow },
		Fire: func(context.Context, string, reminder.Item) error { return nil },
	})
	r := NewRouter()
	NewReminders(s).Install(r)
	return r, s
}

func send(t *testing.T, r *Router, userID, content string) string {
	t.Helper()
	reply, handled, err := r.Handle(context.Background(), &channel.Message{
		Address:  address,
		UserID:   userID,
		UserName: "nick-" + userID,
		Content:  content,
	})
	require.NoError(t, err)
	require.True(t, handled, content)
	return reply
}

func TestRouter_Match(t *testing.T) {
	r, _ := newRouter(t, false)

	cmd, args, ok := r.Match("/RMD@bot ls ")
	require.True(t, ok)
	assert.Equal(t, "/rmd", cmd.Name)
	assert.Equal(t, "ls", args)

	_, _, ok = r.Match("remind me at 8")
	assert.False(t, ok)
	_, _, ok = r.Match("/unknown")
	assert.False(t, ok)

	_, handled, err := r.Handle(context.Background(), &channel.Message{Content: "hello"})
	assert.NoError(t, err)
	assert.False(t, handled)
}

func TestParseAddArgs(t *testing.T) {
	tests := []struct {
		raw  string
		want addArgs
	}{
		{"report 8:05", addArgs{text: "report", clock: "8:05"}},
		{"dinner 8:05 sun daily", addArgs{text: "dinner", clock: "8:05", week: "sun", repeat: "daily"}},
		{"clock-in 8:30 daily workday", addArgs{text: "clock-in", clock: "8:30", repeat: "daily", gate: "workday"}},
		{"plan 9:00 mon weekly workday", addArgs{text: "plan", clock: "9:00", week: "mon", repeat: "weekly", gate: "workday"}},
		{"rest 9:00 daily --holiday_type=holiday", addArgs{text: "rest", clock: "9:00", repeat: "daily", gate: "holiday"}},
		{"gym 0700 workday", addArgs{text: "gym", clock: "0700", repeat: "workday"}},
	}
	for _, tt := range tests {
		got, err := parseAddArgs(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}

	for _, bad := range []string{"", "only-text", "x 8:00 someday", "a b c d e f"} {
		_, err := parseAddArgs(bad)
		assert.Error(t, err, bad)
	}
}

func TestAdd_ResolvesTimeAndWeekday(t *testing.T) {
	r, s := newRouter(t, false)

	reply := send(t, r, "bob", "/rmd add dinner 8:05 sun daily")
	assert.Contains(t, reply, "Reminder set:")

	// 8:05 has passed on Tuesday, so the clock lands on Wednesday and the
	// weekday moves it to the following Sunday.
	items := s.List(address)
	require.Len(t, items, 1)
	assert.Equal(t, "2026-03-08 08:05", items[0].DateTime)
	assert.Equal(t, "daily", items[0].Repeat)
	assert.Equal(t, "bob", items[0].CreatorID)
	assert.Equal(t, "nick-bob", items[0].CreatorName)

	reply = send(t, r, "bob", "/rmd task news 18:00 daily workday")
	assert.Contains(t, reply, "Task set:")
	items = s.List(address)
	require.Len(t, items, 2)
	assert.Equal(t, "2026-03-03 18:00", items[1].DateTime)
	assert.Equal(t, "daily_workday", items[1].Repeat)
	assert.True(t, items[1].IsTask)

	send(t, r, "bob", "/rmd add gym 0700 workday")
	assert.Equal(t, "daily_workday", s.List(address)[2].Repeat)
}

func TestAdd_Errors(t *testing.T) {
	r, s := newRouter(t, false)

	assert.Contains(t, send(t, r, "bob", "/rmd add x 25:00"), "Invalid time")
	assert.Contains(t, send(t, r, "bob", "/rmd add x 8:00 someday"), "invalid weekday")
	assert.Contains(t, send(t, r, "bob", "/rmd add x 8:00 mon hourly"), "invalid repeat")
	assert.Empty(t, s.List(address))
}

func TestListAndRemove(t *testing.T) {
	r, s := newRouter(t, false)

	assert.Equal(t, "No reminders or tasks are set.", send(t, r, "bob", "/rmd ls"))

	send(t, r, "bob", "/rmd add first 10:00")
	send(t, r, "bob", "/rmd task second 11:00")
	send(t, r, "bob", "/rmd add third 12:00")

	list := send(t, r, "bob", "/rmd ls")
	assert.Contains(t, list, "1. first")
	assert.Contains(t, list, "2. second")
	assert.Contains(t, list, "3. third")

	assert.Equal(t, "Invalid number.", send(t, r, "bob", "/rmd rm 9"))
	assert.Contains(t, send(t, r, "bob", "/rmd rm x"), "Usage")

	assert.Equal(t, "Deleted task: second", send(t, r, "bob", "/rmd rm 2"))
	items := s.List(address)
	require.Len(t, items, 2)
	assert.Equal(t, "third", items[1].Text)
}

func TestIsolation(t *testing.T) {
	r, s := newRouter(t, true)

	send(t, r, "bob", "/rmd add mine 10:00")
	assert.Equal(t, "No reminders or tasks are set.", send(t, r, "carol", "/rmd ls"))
	assert.Len(t, s.List(address+"_bob"), 1)
	assert.Contains(t, send(t, r, "bob", "/rmd help"), "kept separately")
}

func TestHelp(t *testing.T) {
	r, _ := newRouter(t, false)
	assert.Contains(t, send(t, r, "bob", "/rmd"), "shared by everyone")
	help := send(t, r, "bob", "/help")
	assert.Contains(t, help, "/rmd")
	assert.Contains(t, help, "/help")
	assert.Contains(t, send(t, r, "bob", "/rmd bogus"), "Unknown sub-command")
}
