package components

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

type fakeAPI struct {
	mu        sync.Mutex
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	edits     []*discordgo.MessageEdit
}

func (f *fakeAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) InteractionResponse(_ *discordgo.Interaction, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: "msg1", ChannelID: "chan1"}, nil
}

func (f *fakeAPI) InteractionResponseEdit(_ *discordgo.Interaction, _ *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) ChannelMessageEditComplex(m *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, m)
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(_ string, _ *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) ChannelMessageDelete(_, _ string, _ ...discordgo.RequestOption) error {
	return nil
}

func (f *fakeAPI) UserChannelPermissions(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
	return 0, nil
}

func (f *fakeAPI) editCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.edits)
}

func componentInteraction(customID, userID string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:   discordgo.InteractionMessageComponent,
			Data:   discordgo.MessageComponentInteractionData{CustomID: customID},
			Member: &discordgo.Member{User: &discordgo.User{ID: userID}},
		},
	}
}

func TestDispatchRoutesToHandler(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, time.Minute)
	sess := mgr.NewSession("owner", "guild")

	var called bool
	v := NewView()
	row := v.Row()
	v.AddButton(row, discordgo.Button{Label: "Go", CustomID: sess.CustomID("go")}, func(API, *discordgo.InteractionCreate) error {
		called = true
		return nil
	})
	sess.SetView(v)

	mgr.dispatch(api, componentInteraction(sess.CustomID("go"), "owner"), sess.CustomID("go"))
	if !called {
		t.Fatal("handler not invoked")
	}
}

func TestDispatchRejectsNonOwner(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, time.Minute)
	sess := mgr.NewSession("owner", "guild")

	var called bool
	v := NewView()
	row := v.Row()
	v.AddButton(row, discordgo.Button{Label: "Go", CustomID: sess.CustomID("go")}, func(API, *discordgo.InteractionCreate) error {
		called = true
		return nil
	})
	sess.SetView(v)

	mgr.dispatch(api, componentInteraction(sess.CustomID("go"), "intruder"), sess.CustomID("go"))
	if called {
		t.Fatal("handler invoked for non-owner")
	}
	if len(api.responses) != 1 {
		t.Fatalf("got %d responses, want ownership notice", len(api.responses))
	}
	content := api.responses[0].Data.Content
	if !strings.Contains(content, "belongs to") || !strings.Contains(content, "owner") {
		t.Fatalf("notice = %q", content)
	}
	if api.responses[0].Data.Flags&discordgo.MessageFlagsEphemeral == 0 {
		t.Fatal("ownership notice not ephemeral")
	}
}

func TestDispatchIgnoresUnknownToken(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, time.Minute)

	mgr.dispatch(api, componentInteraction("deadbeef:go", "anyone"), "deadbeef:go")
	if len(api.responses) != 0 {
		t.Fatal("unknown token produced a response")
	}
}

func TestModalHandlerSurvivesViewSwap(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, time.Minute)
	sess := mgr.NewSession("owner", "guild")
	sess.SetView(NewView())

	var called bool
	modalID := sess.CustomID("modal:title")
	sess.OnModal(modalID, func(API, *discordgo.InteractionCreate) error {
		called = true
		return nil
	})
	sess.SetView(NewView())

	mgr.dispatch(api, componentInteraction(modalID, "owner"), modalID)
	if !called {
		t.Fatal("modal handler lost after view swap")
	}
}

func TestExpireDisablesUntouchedView(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, 20*time.Millisecond)
	sess := mgr.NewSession("owner", "guild")

	v := NewView()
	row := v.Row()
	v.AddButton(row, discordgo.Button{Label: "Go", CustomID: sess.CustomID("go")}, func(API, *discordgo.InteractionCreate) error { return nil })
	sess.SetView(v)
	sess.Bind("chan1", "msg1")

	deadline := time.Now().Add(2 * time.Second)
	for api.editCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if api.editCount() != 1 {
		t.Fatal("timed-out view was not disabled")
	}

	rows := *api.edits[0].Components
	ar, ok := rows[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("unexpected component %T", rows[0])
	}
	btn, ok := ar.Components[0].(discordgo.Button)
	if !ok || !btn.Disabled {
		t.Fatalf("button not disabled: %+v", ar.Components[0])
	}

	if _, _, found := mgr.session(sess.CustomID("go")); found {
		t.Fatal("session still registered after expiry")
	}
}

func TestExpireKeepsEditedView(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, 20*time.Millisecond)
	sess := mgr.NewSession("owner", "guild")
	sess.SetView(NewView())
	sess.Bind("chan1", "msg1")
	sess.MarkEdited()

	time.Sleep(100 * time.Millisecond)
	if api.editCount() != 0 {
		t.Fatal("edited view had its controls disabled")
	}
	if _, _, found := mgr.session(sess.CustomID("any")); found {
		t.Fatal("edited session still registered after expiry")
	}
}

func TestCloseStopsExpiry(t *testing.T) {
	api := &fakeAPI{}
	mgr := NewManager(api, 20*time.Millisecond)
	sess := mgr.NewSession("owner", "guild")
	sess.SetView(NewView())
	sess.Bind("chan1", "msg1")

	mgr.Close(sess)
	time.Sleep(100 * time.Millisecond)
	if api.editCount() != 0 {
		t.Fatal("closed session still edited its message")
	}
}

func TestDisabledComponentsPreservesSelects(t *testing.T) {
	v := NewView()
	row := v.Row()
	v.AddSelect(row, discordgo.SelectMenu{CustomID: "tok:sel"}, func(API, *discordgo.InteractionCreate) error { return nil })

	out := v.DisabledComponents()
	ar := out[0].(discordgo.ActionsRow)
	sel, ok := ar.Components[0].(discordgo.SelectMenu)
	if !ok || !sel.Disabled {
		t.Fatalf("select not disabled: %+v", ar.Components[0])
	}
}
