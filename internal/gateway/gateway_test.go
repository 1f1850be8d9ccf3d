package gateway

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgifai/reminder/internal/channel"
	httpch "github.com/tgifai/reminder/internal/channel/http"
	"github.com/tgifai/reminder/internal/config"
	"github.com/tgifai/reminder/internal/reminder"
)

func newTestGateway(t *testing.T, apiKey string) (*Gateway, *reminder.Scheduler) {
	t.Helper()
	now := time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC)
	s := reminder.NewScheduler(reminder.Options{
		Config: config.ReminderConfig{Store: "/data/reminder.json", Timezone: "UTC"},
		Fs:     afero.NewMemMapFs(),
		Now:    func() time.Time { return now },
		Fire:   func(context.Context, string, reminder.Item) error { return nil },
	})
	gw := NewGateway(Options{
		Config:    config.GatewayConfig{Bind: "127.0.0.1:0", RequestTimeout: 5, APIKey: apiKey},
		Scheduler: s,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, gw.msgQueue.Init(ctx, gw.processMessage))
	gw.registerRoutes()
	return gw, s
}

func attachHTTP(t *testing.T, gw *Gateway, id, apiKey string) {
	t.Helper()
	ch, err := httpch.NewChannel(id, httpch.Config{APIKey: apiKey, ResponseTimeout: 5 * time.Second})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		channel.Unregister(id)
	})
	require.NoError(t, gw.attach(ctx, ch))
}

func postMessage(gw *Gateway, body map[string]string, headers ...ut.Header) (int, map[string]string) {
	raw, _ := sonic.Marshal(body)
	resp := ut.PerformRequest(gw.httpServer.Engine, consts.MethodPost, httpch.MessagePath,
		&ut.Body{Body: bytes.NewReader(raw), Len: len(raw)}, headers...).Result()
	var out map[string]string
	_ = sonic.Unmarshal(resp.Body(), &out)
	return resp.StatusCode(), out
}

func TestHealth(t *testing.T) {
	gw, _ := newTestGateway(t, "")
	resp := ut.PerformRequest(gw.httpServer.Engine, consts.MethodGet, "/health", nil).Result()
	assert.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Body()), "ok")
}

func TestMessage_CommandRoundTrip(t *testing.T) {
	gw, s := newTestGateway(t, "")
	attachHTTP(t, gw, "http-cmd", "")

	address := "aiocqhttp:FriendMessage:alice"
	code, out := postMessage(gw, map[string]string{
		"address": address,
		"user_id": "alice",
		"content": "/rmd add tea 10:30 daily",
	})
	require.Equal(t, consts.StatusOK, code)
	assert.Contains(t, out["content"], "Reminder set:")
	assert.Equal(t, address, out["address"])
	require.Len(t, s.List(address), 1)

	code, out = postMessage(gw, map[string]string{
		"address": address,
		"user_id": "alice",
		"content": "hello there",
	})
	require.Equal(t, consts.StatusOK, code)
	assert.Equal(t, noAgentReply, out["content"])
}

func TestMessage_Validation(t *testing.T) {
	gw, _ := newTestGateway(t, "")
	attachHTTP(t, gw, "http-validate", "secret")

	code, _ := postMessage(gw, map[string]string{"address": "a:FriendMessage:b", "content": "/rmd ls"})
	assert.Equal(t, consts.StatusUnauthorized, code)

	auth := ut.Header{Key: "Authorization", Value: "Bearer secret"}
	code, _ = postMessage(gw, map[string]string{"address": "not-an-address", "content": "/rmd ls"}, auth)
	assert.Equal(t, consts.StatusBadRequest, code)

	code, _ = postMessage(gw, map[string]string{"address": "a:FriendMessage:b"}, auth)
	assert.Equal(t, consts.StatusBadRequest, code)

	code, out := postMessage(gw, map[string]string{"address": "a:FriendMessage:b", "content": "/rmd ls"}, auth)
	assert.Equal(t, consts.StatusOK, code)
	assert.Equal(t, "No reminders or tasks are set.", out["content"])
}

func TestRemindersAndJobs(t *testing.T) {
	gw, s := newTestGateway(t, "k")
	address := "aiocqhttp:GroupMessage:4242"
	_, err := s.Register(context.Background(), address, reminder.Item{
		Text: "stand-up", DateTime: "2026-03-03 10:00", Repeat: "daily_workday", CreatorID: "bob",
	})
	require.NoError(t, err)

	resp := ut.PerformRequest(gw.httpServer.Engine, consts.MethodGet, "/api/v1/jobs", nil).Result()
	assert.Equal(t, consts.StatusUnauthorized, resp.StatusCode())

	auth := ut.Header{Key: "Authorization", Value: "Bearer k"}
	resp = ut.PerformRequest(gw.httpServer.Engine, consts.MethodGet, "/api/v1/reminders?address="+address+"&user_id=bob", nil, auth).Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode())
	var list struct {
		Key   string         `json:"key"`
		Items []reminderView `json:"items"`
	}
	require.NoError(t, sonic.Unmarshal(resp.Body(), &list))
	assert.Equal(t, address, list.Key)
	require.Len(t, list.Items, 1)
	assert.Equal(t, 1, list.Items[0].Position)
	assert.Equal(t, "reminder", list.Items[0].Kind)
	assert.Contains(t, list.Items[0].Describe, "workday")

	resp = ut.PerformRequest(gw.httpServer.Engine, consts.MethodGet, "/api/v1/reminders", nil, auth).Result()
	assert.Equal(t, consts.StatusBadRequest, resp.StatusCode())

	resp = ut.PerformRequest(gw.httpServer.Engine, consts.MethodGet, "/api/v1/jobs", nil, auth).Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode())
	var jobs struct {
		Count int                `json:"count"`
		Jobs  []reminder.JobInfo `json:"jobs"`
	}
	require.NoError(t, sonic.Unmarshal(resp.Body(), &jobs))
	assert.Equal(t, 1, jobs.Count)
	assert.Equal(t, "daily_workday", jobs.Jobs[0].Repeat)
}

func TestMessageQueue_SerializesPerAddress(t *testing.T) {
	q := newMessageQueue(QueueOptions{MaxConcurrent: 2})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 4)
	require.NoError(t, q.Init(ctx, func(_ context.Context, msg *channel.Message) error {
		got <- msg.Address + "/" + msg.Content
		return nil
	}))
	for _, m := range []*channel.Message{
		{Address: "a:FriendMessage:1", Content: "1"},
		{Address: "a:FriendMessage:1", Content: "2"},
		{Address: "a:FriendMessage:2", Content: "1"},
	} {
		require.NoError(t, q.Enqueue(ctx, m))
	}

	var seen []string
	for i := 0; i < 3; i++ {
		select {
		case s := <-got:
			seen = append(seen, s)
		case <-time.After(2 * time.Second):
			t.Fatal("message not processed")
		}
	}
	assert.Equal(t, 2, q.Lanes())
	var first []string
	for _, s := range seen {
		if s[:len("a:FriendMessage:1")] == "a:FriendMessage:1" {
			first = append(first, s)
		}
	}
	assert.Equal(t, []string{"a:FriendMessage:1/1", "a:FriendMessage:1/2"}, first)
}

func TestMessageQueue_ReapsIdleLanes(t *testing.T) {
	q := newMessageQueue(QueueOptions{IdleTimeout: 20 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.ErrorIs(t, q.Enqueue(ctx, &channel.Message{Address: "a:FriendMessage:1"}), errQueueNotReady)

	handled := make(chan struct{}, 1)
	require.NoError(t, q.Init(ctx, func(context.Context, *channel.Message) error {
		handled <- struct{}{}
		panic("handler blew up")
	}))
	require.NoError(t, q.Enqueue(ctx, &channel.Message{Address: "a:FriendMessage:1", Content: "hi"}))
	<-handled

	assert.Eventually(t, func() bool { return q.Lanes() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, q.Enqueue(ctx, &channel.Message{Address: "a:FriendMessage:1", Content: "again"}))
	<-handled
}
