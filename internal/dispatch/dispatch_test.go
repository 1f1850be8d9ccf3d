package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgifai/reminder/internal/agent"
	"github.com/tgifai/reminder/internal/provider"
	"github.com/tgifai/reminder/internal/reminder"
	"github.com/tgifai/reminder/internal/session"
)

type sent struct {
	address string
	content string
}

type fakeDeliverer struct {
	mu   sync.Mutex
	msgs []sent
	err  error
}

func (f *fakeDeliverer) SendMessage(_ context.Context, address, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, sent{address: address, content: content})
	return nil
}

type cannedProvider struct {
	reply string
	err   error
}

func (p *cannedProvider) ID() string          { return "canned" }
func (p *cannedProvider) Type() provider.Type { return provider.OpenAI }
func (p *cannedProvider) IsAvailable() bool   { return true }
func (p *cannedProvider) Close() error        { return nil }
func (p *cannedProvider) ListModels(context.Context) ([]provider.ModelInfo, error) {
	return nil, nil
}

func (p *cannedProvider) Generate(context.Context, string, []*schema.Message, ...model.Option) (*schema.Message, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &schema.Message{Role: schema.Assistant, Content: p.reply}, nil
}

func newAgent(t *testing.T, p provider.Provider) *agent.Agent {
	t.Helper()
	ag, err := agent.NewAgent(p, nil, agent.Config{ID: "test"})
	require.NoError(t, err)
	return ag
}

func TestOnFire_PlainReminderInPrivateChat(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out)
	require.NoError(t, err)

	item := reminder.Item{ID: "r1", Text: "drink water", CreatorID: "alice"}
	require.NoError(t, d.OnFire(context.Background(), "aiocqhttp:FriendMessage:alice", item))

	require.Len(t, out.msgs, 1)
	assert.Equal(t, "aiocqhttp:FriendMessage:alice", out.msgs[0].address)
	assert.Equal(t, "Reminder: drink water", out.msgs[0].content)
}

func isolation(on bool) Option {
	r := session.NewResolver(on)
	return WithResolver(func() *session.Resolver { return r })
}

func TestOnFire_GroupMentionAndIsolatedKey(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out, isolation(true))
	require.NoError(t, err)

	item := reminder.Item{ID: "t1", Text: "post the report", CreatorID: "bob", IsTask: true}
	require.NoError(t, d.OnFire(context.Background(), "aiocqhttp:GroupMessage:4242_bob", item))

	require.Len(t, out.msgs, 1)
	assert.Equal(t, "aiocqhttp:GroupMessage:4242", out.msgs[0].address)
	assert.Equal(t, "@bob Task: post the report", out.msgs[0].content)
}

func TestOnFire_KeyKeptWithoutIsolation(t *testing.T) {
	for _, opt := range []Option{isolation(false), func(*Dispatcher) {}} {
		out := &fakeDeliverer{}
		d, err := New(out, opt)
		require.NoError(t, err)

		key := session.NewResolver(false).Isolate("discord:GroupMessage:ops_42", "42")
		require.NoError(t, d.OnFire(context.Background(), key,
			reminder.Item{ID: "r1", Text: "deploy", CreatorID: "42"}))

		require.Len(t, out.msgs, 1)
		assert.Equal(t, "discord:GroupMessage:ops_42", out.msgs[0].address)
		assert.Equal(t, "@42 Reminder: deploy", out.msgs[0].content)
	}
}

func TestOnFire_IsolationFollowsResolverSwap(t *testing.T) {
	out := &fakeDeliverer{}
	cur := session.NewResolver(false)
	d, err := New(out, WithResolver(func() *session.Resolver { return cur }))
	require.NoError(t, err)

	item := reminder.Item{ID: "r1", Text: "deploy", CreatorID: "42"}
	require.NoError(t, d.OnFire(context.Background(), "discord:GroupMessage:ops_42", item))
	cur = session.NewResolver(true)
	require.NoError(t, d.OnFire(context.Background(), "discord:GroupMessage:ops_42", item))

	require.Len(t, out.msgs, 2)
	assert.Equal(t, "discord:GroupMessage:ops_42", out.msgs[0].address)
	assert.Equal(t, "discord:GroupMessage:ops", out.msgs[1].address)
}

func TestOnFire_WechatRoomReportedAsFriendMessage(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out, WithWechatPlatforms([]string{"gewechat"}), isolation(true))
	require.NoError(t, err)

	require.NoError(t, d.OnFire(context.Background(), "gewechat:FriendMessage:1234@chatroom_wxid_9",
		reminder.Item{ID: "r1", Text: "lunch", CreatorID: "wxid_9", CreatorName: "Carol"}))

	require.Len(t, out.msgs, 1)
	assert.Equal(t, "gewechat:FriendMessage:1234@chatroom", out.msgs[0].address)
	assert.Equal(t, "@Carol Reminder: lunch", out.msgs[0].content)
}

func TestOnFire_WechatMentionUsesNickname(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out, WithWechatPlatforms([]string{"gewechat"}))
	require.NoError(t, err)

	room := "gewechat:GroupMessage:1234@chatroom"
	require.NoError(t, d.OnFire(context.Background(), room,
		reminder.Item{ID: "r1", Text: "lunch", CreatorID: "wxid_9", CreatorName: "Carol"}))
	require.NoError(t, d.OnFire(context.Background(), room,
		reminder.Item{ID: "r2", Text: "lunch", CreatorID: "wxid_9"}))

	require.Len(t, out.msgs, 2)
	assert.Equal(t, "@Carol Reminder: lunch", out.msgs[0].content)
	assert.Equal(t, "@wxid_9 Reminder: lunch", out.msgs[1].content)
}

func TestOnFire_NoCreatorNoMention(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out)
	require.NoError(t, err)

	require.NoError(t, d.OnFire(context.Background(), "aiocqhttp:GroupMessage:4242",
		reminder.Item{ID: "r1", Text: "legacy"}))
	assert.Equal(t, "Reminder: legacy", out.msgs[0].content)
}

func TestOnFire_ReminderPhrasedByAgent(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out, WithAgent(newAgent(t, &cannedProvider{reply: "<think>hm</think>Time to stretch!"})))
	require.NoError(t, err)

	require.NoError(t, d.OnFire(context.Background(), "aiocqhttp:FriendMessage:alice",
		reminder.Item{ID: "r1", Text: "stretch", UserName: "Alice"}))
	assert.Equal(t, "[Reminder] Time to stretch!", out.msgs[0].content)
}

func TestOnFire_ReminderFallsBackWhenModelFails(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out, WithAgent(newAgent(t, &cannedProvider{err: errors.New("boom")})))
	require.NoError(t, err)

	require.NoError(t, d.OnFire(context.Background(), "aiocqhttp:FriendMessage:alice",
		reminder.Item{ID: "r1", Text: "stretch"}))
	assert.Equal(t, "Reminder: stretch", out.msgs[0].content)
}

func TestOnFire_TaskResultAndError(t *testing.T) {
	out := &fakeDeliverer{}
	d, err := New(out, WithAgent(newAgent(t, &cannedProvider{reply: "Sunny, 21C."})))
	require.NoError(t, err)
	require.NoError(t, d.OnFire(context.Background(), "aiocqhttp:FriendMessage:alice",
		reminder.Item{ID: "t1", Text: "weather", IsTask: true}))
	assert.Equal(t, "Sunny, 21C.", out.msgs[0].content)

	failing, err := New(out, WithAgent(newAgent(t, &cannedProvider{err: errors.New("quota exceeded")})))
	require.NoError(t, err)
	require.NoError(t, failing.OnFire(context.Background(), "aiocqhttp:FriendMessage:alice",
		reminder.Item{ID: "t2", Text: "weather", IsTask: true}))
	assert.Contains(t, out.msgs[1].content, "Error while executing task:")
	assert.Contains(t, out.msgs[1].content, "quota exceeded")
}

func TestOnFire_DeliveryError(t *testing.T) {
	d, err := New(&fakeDeliverer{err: errors.New("offline")})
	require.NoError(t, err)
	err = d.OnFire(context.Background(), "aiocqhttp:FriendMessage:alice", reminder.Item{ID: "r1", Text: "x"})
	assert.ErrorContains(t, err, "offline")
}

func TestNew_RequiresDeliverer(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
