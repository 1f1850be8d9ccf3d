package session

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	a := ParseAddress("aiocqhttp:GroupMessage:12345")
	assert.True(t, a.Valid())
	assert.Equal(t, "aiocqhttp", a.Platform)
	assert.Equal(t, GroupMessage, a.Type)
	assert.Equal(t, "12345", a.ID)
	assert.True(t, a.IsGroup())
	assert.Equal(t, "aiocqhttp:GroupMessage:12345", a.String())

	// ids may contain the separator
	a = ParseAddress("slack:ChannelMessage:T1:C2")
	assert.Equal(t, "T1:C2", a.ID)
	assert.True(t, a.IsGroup())
}

func TestParseAddress_Total(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a:b", "::", ":GroupMessage:1", "x::y"} {
		a := ParseAddress(raw)
		assert.False(t, a.Valid(), raw)
		assert.Equal(t, UnknownPlatform, a.Platform)
		assert.Equal(t, UnknownMessage, a.Type)
		assert.Equal(t, raw, a.String(), "malformed input round-trips")
	}
}

func TestParseAddress_ChatroomIsGroup(t *testing.T) {
	a := ParseAddress("gewechat:FriendMessage:12345678@chatroom")
	assert.True(t, a.IsGroup())
	assert.False(t, a.IsPrivate())
}

func TestIsolate(t *testing.T) {
	on := NewResolver(true)
	off := NewResolver(false)

	assert.Equal(t, "qq:GroupMessage:100", off.Isolate("qq:GroupMessage:100", "42"))
	assert.Equal(t, "qq:GroupMessage:100_42", on.Isolate("qq:GroupMessage:100", "42"))
	assert.Equal(t, "qq:ChannelMessage:7_42", on.Isolate("qq:ChannelMessage:7", "42"))
	assert.Equal(t, "qq:FriendMessage:100", on.Isolate("qq:FriendMessage:100", "42"))
	assert.Equal(t, "qq:GroupMessage:100", on.Isolate("qq:GroupMessage:100", ""))
	assert.Equal(t, "garbage@chatroom", on.Isolate("garbage@chatroom", "42"))
	assert.Equal(t, "wx:GroupMessage:1@chatroom_wxid", on.Isolate("wx:GroupMessage:1@chatroom", "wxid"))
}

func TestResolver_Normalize(t *testing.T) {
	on := NewResolver(true)
	off := NewResolver(false)

	assert.Equal(t, "qq:GroupMessage:100", on.Normalize("qq:GroupMessage:100_42", "42"))
	assert.Equal(t, "wx:GroupMessage:1@chatroom", on.Normalize("wx:GroupMessage:1@chatroom_wxid_abc", "wxid_abc"))

	// without isolation nothing was appended, so nothing is stripped
	stored := off.Isolate("discord:GroupMessage:ops_42", "42")
	assert.Equal(t, "discord:GroupMessage:ops_42", stored)
	assert.Equal(t, "discord:GroupMessage:ops_42", off.Normalize(stored, "42"))

	var none *Resolver
	assert.Equal(t, "qq:GroupMessage:100_42", none.Normalize("qq:GroupMessage:100_42", "42"))
}

func TestParseAddress_PrivateAndGroupAreExclusive(t *testing.T) {
	for _, raw := range []string{
		"qq:FriendMessage:1",
		"qq:GroupMessage:1",
		"gewechat:FriendMessage:1@chatroom",
		"gewechat:GroupMessage:1@chatroom",
		"slack:ChannelMessage:C1",
		"garbage",
	} {
		a := ParseAddress(raw)
		assert.False(t, a.IsGroup() && a.IsPrivate(), raw)
	}
}

func TestNormalizeFor_KeepsLegitimateUnderscores(t *testing.T) {
	// an unisolated group whose id contains the delimiter
	assert.Equal(t, "tg:GroupMessage:team_ops", NormalizeFor("tg:GroupMessage:team_ops", "42"))
	assert.Equal(t, "tg:GroupMessage:team_ops", NormalizeFor("tg:GroupMessage:team_ops_42", "42"))
	assert.Equal(t, "tg:GroupMessage:team_ops_42", NormalizeFor("tg:GroupMessage:team_ops_42", ""))
	assert.Equal(t, "tg:FriendMessage:u_42", NormalizeFor("tg:FriendMessage:u_42", "42"))
	// the suffix alone is never the whole id
	assert.Equal(t, "tg:GroupMessage:_42", NormalizeFor("tg:GroupMessage:_42", "42"))
}

func TestParseKey(t *testing.T) {
	k := ParseKey("qq:GroupMessage:100_42", "42")
	assert.True(t, k.Isolated())
	assert.Equal(t, "42", k.UserID)
	assert.Equal(t, "qq:GroupMessage:100", k.Address.String())
	assert.Equal(t, "qq:GroupMessage:100_42", k.String())
}

const alnum = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randToken(r *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alnum[r.Intn(len(alnum))]
	}
	return string(b)
}

func TestIsolateNormalize_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	res := NewResolver(true)
	types := []MessageType{GroupMessage, ChannelMessage}

	for i := 0; i < 500; i++ {
		addr := fmt.Sprintf("%s:%s:%s", randToken(r, 5), types[i%2], randToken(r, 1+r.Intn(12)))
		if i%5 == 0 {
			addr += "_" + randToken(r, 3) // ids with legitimate underscores
		}
		uid := randToken(r, 1+r.Intn(10))

		stored := res.Isolate(addr, uid)
		assert.Equal(t, addr, NormalizeFor(stored, uid), "exact inverse of %s", stored)
		assert.Equal(t, addr, res.Normalize(stored, uid), "resolver inverse of %s", stored)
	}
}
