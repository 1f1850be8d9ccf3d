package reminder

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func newTestStore(fs afero.Fs, now time.Time) *Store {
	s := NewStore(fs, "/data/reminder.json", time.UTC)
	s.now = func() time.Time { return now }
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 2, 8, 9, 0, 0, 0, time.UTC)

	s1 := newTestStore(fs, now)
	s1.Append("wechat:GroupMessage:42@chatroom", Item{Text: "吃药", DateTime: "2024-02-09 08:00", UserName: "user"})
	s1.Append("wechat:GroupMessage:42@chatroom", Item{Text: "standup", DateTime: "2024-02-09 10:00", Repeat: "daily_workday", IsTask: true})
	if err := s1.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := afero.ReadFile(fs, "/data/reminder.json")
	if !strings.Contains(string(raw), "吃药") {
		t.Fatalf("non-ASCII text escaped: %s", raw)
	}

	s2 := newTestStore(fs, now)
	if err := s2.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := s2.List("wechat:GroupMessage:42@chatroom")
	if len(items) != 2 || items[0].Text != "吃药" || !items[1].IsTask || items[1].Repeat != "daily_workday" {
		t.Fatalf("reloaded items: %+v", items)
	}
	if items[0].ID == "" || items[0].ID == items[1].ID {
		t.Fatalf("ids not assigned: %+v", items)
	}
}

func TestStore_LoadMissingFile(t *testing.T) {
	s := newTestStore(afero.NewMemMapFs(), time.Now())
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Keys()) != 0 {
		t.Fatalf("expected empty store, got %v", s.Keys())
	}
}

func TestStore_LoadAssignsLegacyIDs(t *testing.T) {
	fs := afero.NewMemMapFs()
	legacy := `{"qq:FriendMessage:1":[{"text":"a","datetime":"2030-01-01 08:00","user_name":"user","repeat":"none","is_task":false}]}`
	_ = afero.WriteFile(fs, "/data/reminder.json", []byte(legacy), 0o644)

	s := newTestStore(fs, time.Now())
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := s.List("qq:FriendMessage:1")
	if len(items) != 1 || items[0].ID == "" {
		t.Fatalf("legacy item: %+v", items)
	}
}

func TestStore_SavePrunes(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 2, 9, 9, 0, 0, 0, time.UTC)
	s := newTestStore(fs, now)

	s.Append("k1", Item{Text: "past", DateTime: "2024-02-09 08:00", Repeat: "none"})
	s.Append("k1", Item{Text: "keep", DateTime: "2024-02-08 08:00", Repeat: "daily"})
	s.Append("k1", Item{Text: "no time"})
	s.Append("k2", Item{Text: "past too", DateTime: "2024-01-01 08:00"})

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "k1" {
		t.Fatalf("empty key not dropped: %v", keys)
	}
	items := s.List("k1")
	if len(items) != 1 || items[0].Text != "keep" {
		t.Fatalf("after prune: %+v", items)
	}
}

func TestStore_RemoveAt(t *testing.T) {
	s := newTestStore(afero.NewMemMapFs(), time.Now())
	s.Append("k", Item{Text: "a"})
	s.Append("k", Item{Text: "b"})
	s.Append("k", Item{Text: "c"})

	it, err := s.RemoveAt("k", 1)
	if err != nil || it.Text != "b" {
		t.Fatalf("RemoveAt: %+v, %v", it, err)
	}
	if items := s.List("k"); len(items) != 2 || items[0].Text != "a" || items[1].Text != "c" {
		t.Fatalf("after RemoveAt: %+v", items)
	}
	if _, err := s.RemoveAt("k", 5); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if _, err := s.RemoveAt("missing", 0); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex on empty key, got %v", err)
	}
}

func TestStore_RemoveByIDAndReplace(t *testing.T) {
	s := newTestStore(afero.NewMemMapFs(), time.Now())
	s.Append("k", Item{ID: "x", Text: "same"})
	s.Append("k", Item{ID: "y", Text: "same"})

	if !s.Replace("k", Item{ID: "y", Text: "changed"}) {
		t.Fatal("Replace: not found")
	}
	if _, ok := s.RemoveByID("k", "x"); !ok {
		t.Fatal("RemoveByID: not found")
	}
	items := s.List("k")
	if len(items) != 1 || items[0].ID != "y" || items[0].Text != "changed" {
		t.Fatalf("got %+v", items)
	}
	if _, ok := s.RemoveByID("k", "x"); ok {
		t.Fatal("second RemoveByID should miss")
	}
}

func TestStore_ListIsACopy(t *testing.T) {
	s := newTestStore(afero.NewMemMapFs(), time.Now())
	s.Append("k", Item{Text: "a"})
	items := s.List("k")
	items[0].Text = "mutated"
	if s.List("k")[0].Text != "a" {
		t.Fatal("List leaked internal slice")
	}
}
