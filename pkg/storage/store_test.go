package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/AndehUK/exult-bot/pkg/messages"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "exultbot.db"))
	if err := s.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleDraft() *messages.Draft {
	colour := 0x668EFF
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &messages.Draft{
		GuildID: "guild1",
		Content: "hello",
		Embeds: []*messages.Embed{
			{
				Title:       "First",
				Description: "first embed",
				Colour:      &colour,
				Timestamp:   &ts,
				Author:      &messages.EmbedAuthor{Name: "Author", IconURL: "https://example.com/a.png"},
				Footer:      &messages.EmbedFooter{Text: "Footer"},
				Fields: []messages.EmbedField{
					{Name: "f1", Value: "v1", Inline: true},
					{Name: "f2", Value: "v2"},
					{Name: "f3", Value: "v3", Inline: true},
				},
			},
			{Title: "Second"},
		},
	}
}

func TestCreateAndGetMessage(t *testing.T) {
	s := newTestStore(t)
	draft := sampleDraft()
	if err := s.CreateMessage("guild1", "welcome", "user1", draft); err != nil {
		t.Fatalf("create: %v", err)
	}

	msg, ok, err := s.GetMessage("guild1", "welcome")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("message not found after create")
	}
	if msg.Content != "hello" || msg.UserID != "user1" {
		t.Fatalf("got %+v", msg)
	}
	if diff := cmp.Diff(draft.Embeds, msg.Embeds); diff != "" {
		t.Errorf("embeds mismatch (-want +got):\n%s", diff)
	}

	loaded := msg.Draft()
	if loaded.EditingName != "welcome" {
		t.Fatalf("EditingName = %q, want welcome", loaded.EditingName)
	}
}

func TestCreateMessageNameTaken(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateMessage("guild1", "welcome", "user1", sampleDraft()); err != nil {
		t.Fatal(err)
	}

	err := s.CreateMessage("guild1", "welcome", "user2", &messages.Draft{Content: "other"})
	if !errors.Is(err, ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}

	// The rejected save must not have touched the original.
	msg, ok, err := s.GetMessage("guild1", "welcome")
	if err != nil || !ok {
		t.Fatalf("get after rejected create: %v, ok=%v", err, ok)
	}
	if msg.Content != "hello" || msg.UserID != "user1" {
		t.Fatalf("original mutated: %+v", msg)
	}

	// Same name in another guild is fine.
	if err := s.CreateMessage("guild2", "welcome", "user2", &messages.Draft{Content: "other"}); err != nil {
		t.Fatalf("cross-guild create: %v", err)
	}
}

func TestUpdateMessageReplacesEmbeds(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateMessage("guild1", "welcome", "user1", sampleDraft()); err != nil {
		t.Fatal(err)
	}

	updated := &messages.Draft{
		Content: "updated",
		Embeds:  []*messages.Embed{{Title: "Only"}},
	}
	if err := s.UpdateMessage("guild1", "welcome", updated); err != nil {
		t.Fatalf("update: %v", err)
	}

	msg, ok, err := s.GetMessage("guild1", "welcome")
	if err != nil || !ok {
		t.Fatalf("get: %v, ok=%v", err, ok)
	}
	if msg.Content != "updated" || len(msg.Embeds) != 1 || msg.Embeds[0].Title != "Only" {
		t.Fatalf("got %+v", msg)
	}

	if err := s.UpdateMessage("guild1", "missing", updated); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update missing: %v, want ErrNotFound", err)
	}
}

func TestDeleteMessageCascades(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateMessage("guild1", "welcome", "user1", sampleDraft()); err != nil {
		t.Fatal(err)
	}

	deleted, err := s.DeleteMessage("guild1", "welcome")
	if err != nil || !deleted {
		t.Fatalf("delete: %v, deleted=%v", err, deleted)
	}

	for _, table := range []string{"embeds", "embed_fields", "embed_authors", "embed_footers"} {
		var count int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d orphan rows after cascade delete", table, count)
		}
	}

	deleted, err = s.DeleteMessage("guild1", "welcome")
	if err != nil || deleted {
		t.Fatalf("second delete: %v, deleted=%v", err, deleted)
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	s := newTestStore(t)

	// Force a fresh connection per statement so the pragma must come from
	// the DSN rather than whichever connection happened to run Init.
	s.db.SetMaxIdleConns(0)

	var enabled int
	if err := s.db.QueryRow(`PRAGMA foreign_keys`).Scan(&enabled); err != nil {
		t.Fatal(err)
	}
	if enabled != 1 {
		t.Fatal("foreign_keys not enabled on a fresh connection")
	}

	if err := s.CreateMessage("guild1", "welcome", "user1", sampleDraft()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.DeleteMessage("guild1", "welcome"); err != nil {
		t.Fatal(err)
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM embeds`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("embeds has %d orphan rows after cascade delete", count)
	}
}

func TestListAndCountMessages(t *testing.T) {
	s := newTestStore(t)
	names := []string{"one", "two", "three"}
	for _, name := range names {
		if err := s.CreateMessage("guild1", name, "user1", &messages.Draft{Content: name}); err != nil {
			t.Fatal(err)
		}
	}

	count, err := s.CountMessages("guild1")
	if err != nil || count != len(names) {
		t.Fatalf("count = %d, err = %v", count, err)
	}

	infos, err := s.ListMessages("guild1")
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != len(names) {
		t.Fatalf("listed %d messages, want %d", len(infos), len(names))
	}

	count, err = s.CountMessages("guild2")
	if err != nil || count != 0 {
		t.Fatalf("other guild count = %d, err = %v", count, err)
	}
}

func TestAutoroleConfig(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetAutoroleConfig("guild1")
	if err != nil || ok {
		t.Fatalf("unset config: ok=%v, err=%v", ok, err)
	}

	cfg := AutoroleConfig{GuildID: "guild1", Enabled: true, Mode: AutoroleModeOnJoin}
	if err := s.SetAutoroleConfig(cfg); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.GetAutoroleConfig("guild1")
	if err != nil || !ok {
		t.Fatalf("get config: ok=%v, err=%v", ok, err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}

	cfg.Mode = AutoroleModeOnVerify
	cfg.Enabled = false
	if err := s.SetAutoroleConfig(cfg); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.GetAutoroleConfig("guild1")
	if got != cfg {
		t.Fatalf("after upsert got %+v, want %+v", got, cfg)
	}

	if err := s.SetAutoroleConfig(AutoroleConfig{GuildID: "g", Mode: "bogus"}); err == nil {
		t.Fatal("bogus mode accepted")
	}
}

func TestAutoroleRoles(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddAutoroles("guild1", []string{"r1", "r2", "r1"}); err != nil {
		t.Fatal(err)
	}
	roles, err := s.ListAutoroles("guild1")
	if err != nil {
		t.Fatal(err)
	}
	if len(roles) != 2 {
		t.Fatalf("got roles %v, want r1 and r2", roles)
	}

	if err := s.RemoveAutoroles("guild1", []string{"r1"}); err != nil {
		t.Fatal(err)
	}
	roles, _ = s.ListAutoroles("guild1")
	if len(roles) != 1 || roles[0] != "r2" {
		t.Fatalf("got roles %v, want only r2", roles)
	}
}

func TestIncrementUsage(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := s.IncrementUsage("message manager", "user1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.IncrementUsage("message manager", "user2"); err != nil {
		t.Fatal(err)
	}
	if err := s.IncrementUsage("autorole config", "user1"); err != nil {
		t.Fatal(err)
	}

	uses, ok, err := s.GetUsage("message manager", "user1")
	if err != nil || !ok || uses != 3 {
		t.Fatalf("uses = %d, ok=%v, err=%v", uses, ok, err)
	}

	_, ok, err = s.GetUsage("message manager", "nobody")
	if err != nil || ok {
		t.Fatalf("unknown invoker: ok=%v, err=%v", ok, err)
	}

	top, err := s.TopUsage(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].CommandName != "message manager" || top[0].Uses != 4 {
		t.Fatalf("top = %+v", top)
	}

	invokers, err := s.TopInvokers("message manager", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(invokers) != 2 || invokers[0].InvokerID != "user1" || invokers[0].Uses != 3 {
		t.Fatalf("invokers = %+v", invokers)
	}
}

func TestScheduledMessages(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateMessage("guild1", "welcome", "user1", &messages.Draft{Content: "hi"}); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	id, err := s.CreateScheduled(ScheduledMessage{
		GuildID:     "guild1",
		MessageName: "welcome",
		ChannelID:   "chan1",
		RepeatEvery: time.Hour,
		NextRun:     now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("create scheduled: %v", err)
	}
	if _, err := s.CreateScheduled(ScheduledMessage{
		GuildID:     "guild1",
		MessageName: "welcome",
		ChannelID:   "chan2",
		NextRun:     now.Add(time.Hour),
	}); err != nil {
		t.Fatal(err)
	}

	due, err := s.DueScheduledMessages(now)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 1 || due[0].ID != id || due[0].RepeatEvery != time.Hour {
		t.Fatalf("due = %+v", due)
	}

	next := now.Add(time.Hour)
	if err := s.MarkScheduled(id, next); err != nil {
		t.Fatal(err)
	}
	due, _ = s.DueScheduledMessages(now)
	if len(due) != 0 {
		t.Fatalf("due after mark = %+v", due)
	}

	all, err := s.ListScheduled("guild1")
	if err != nil || len(all) != 2 {
		t.Fatalf("list = %+v, err = %v", all, err)
	}

	deleted, err := s.DeleteScheduled(id, "guild1")
	if err != nil || !deleted {
		t.Fatalf("delete: %v, deleted=%v", err, deleted)
	}
	deleted, _ = s.DeleteScheduled(id, "guild1")
	if deleted {
		t.Fatal("second delete reported success")
	}

	// Deleting the message takes its schedules with it.
	if _, err := s.DeleteMessage("guild1", "welcome"); err != nil {
		t.Fatal(err)
	}
	all, _ = s.ListScheduled("guild1")
	if len(all) != 0 {
		t.Fatalf("schedules survived message delete: %+v", all)
	}
}

func TestUninitializedStoreGuards(t *testing.T) {
	s := NewStore("")
	if _, _, err := s.GetMessage("g", "n"); err == nil {
		t.Fatal("uninitialized GetMessage succeeded")
	}
	if err := s.IncrementUsage("c", "u"); err == nil {
		t.Fatal("uninitialized IncrementUsage succeeded")
	}
}
