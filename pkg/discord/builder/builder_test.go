package builder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/storage"
)

type fakeAPI struct {
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
	edits     int
	deleted   []string
	sends     []string
	perms     int64
	sendErr   error
}

func (f *fakeAPI) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeAPI) InteractionResponse(_ *discordgo.Interaction, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{ID: "wizard", ChannelID: "chan"}, nil
}

func (f *fakeAPI) InteractionResponseEdit(_ *discordgo.Interaction, _ *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits++
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) ChannelMessageEditComplex(_ *discordgo.MessageEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (f *fakeAPI) ChannelMessageDelete(_, messageID string, _ ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, _ *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sends = append(f.sends, channelID)
	return &discordgo.Message{ID: "sent"}, nil
}

func (f *fakeAPI) UserChannelPermissions(_, _ string, _ ...discordgo.RequestOption) (int64, error) {
	return f.perms, nil
}

func (f *fakeAPI) lastFollowupText(t *testing.T) string {
	t.Helper()
	if len(f.followups) == 0 {
		t.Fatal("no followup was sent")
	}
	last := f.followups[len(f.followups)-1]
	if last.Content != "" {
		return last.Content
	}
	if len(last.Embeds) > 0 {
		return last.Embeds[0].Description
	}
	return ""
}

type stubProbe struct{ ok bool }

func (s stubProbe) Probe(context.Context, string) bool { return s.ok }

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store := storage.NewStore(filepath.Join(t.TempDir(), "builder.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestWizard(t *testing.T, api components.API, store *storage.Store) *Wizard {
	t.Helper()
	mgr := components.NewManager(api, 0)
	sess := mgr.NewSession("owner1", "guild1")
	return &Wizard{
		sess:   sess,
		mgr:    mgr,
		store:  store,
		images: stubProbe{ok: true},
		botID:  "bot1",
	}
}

func componentInteraction(values ...string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{Values: values},
	}}
}

func modalInteraction(values ...string) *discordgo.InteractionCreate {
	rows := make([]discordgo.MessageComponent, 0, len(values))
	for i, v := range values {
		rows = append(rows, &discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: fmt.Sprintf("input_%d", i), Value: v},
		}})
	}
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionModalSubmit,
		Data: discordgo.ModalSubmitInteractionData{Components: rows},
	}}
}

func saveMessage(t *testing.T, store *storage.Store, name string) {
	t.Helper()
	draft := messages.NewDraft("guild1")
	if err := draft.SetContent("hello"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	if err := store.CreateMessage("guild1", name, "owner1", draft); err != nil {
		t.Fatalf("CreateMessage(%s): %v", name, err)
	}
}

func viewButtons(v *components.View) []discordgo.Button {
	var buttons []discordgo.Button
	for _, row := range v.Components() {
		ar := row.(discordgo.ActionsRow)
		for _, c := range ar.Components {
			if b, ok := c.(discordgo.Button); ok {
				buttons = append(buttons, b)
			}
		}
	}
	return buttons
}

func findButton(t *testing.T, v *components.View, label string) discordgo.Button {
	t.Helper()
	for _, b := range viewButtons(v) {
		if b.Label == label {
			return b
		}
	}
	t.Fatalf("no button labelled %q", label)
	return discordgo.Button{}
}

func TestManagerViewEmptyGuild(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))

	v := w.managerView()

	if findButton(t, v, "Create Message").Disabled {
		t.Error("Create Message should be enabled for an empty guild")
	}
	for _, label := range []string{"Edit Message", "Delete Message", "View Message"} {
		if !findButton(t, v, label).Disabled {
			t.Errorf("%s should be disabled when no messages are saved", label)
		}
	}
}

func TestManagerViewAtCap(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(t)
	for i := 0; i < MaxMessagesPerGuild; i++ {
		saveMessage(t, store, fmt.Sprintf("msg-%d", i))
	}
	w := newTestWizard(t, api, store)

	v := w.managerView()

	if !findButton(t, v, "Create Message").Disabled {
		t.Error("Create Message should be disabled at the cap")
	}
	if findButton(t, v, "Edit Message").Disabled {
		t.Error("Edit Message should be enabled with saved messages")
	}
}

func TestHandleCreateRefusesAtCap(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(t)
	for i := 0; i < MaxMessagesPerGuild; i++ {
		saveMessage(t, store, fmt.Sprintf("msg-%d", i))
	}
	w := newTestWizard(t, api, store)

	if err := w.handleCreate(api, componentInteraction()); err != nil {
		t.Fatalf("handleCreate: %v", err)
	}
	want := "`❌` You have reached the maximum amount of saved messages allowed per server."
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
	if w.draft != nil {
		t.Error("a draft was created despite the cap")
	}
}

func TestSubmitContent(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	if err := w.submitContent(api, modalInteraction("hello world")); err != nil {
		t.Fatalf("submitContent: %v", err)
	}

	if w.draft.Content != "hello world" {
		t.Errorf("draft content = %q, want %q", w.draft.Content, "hello world")
	}
	if got := api.lastFollowupText(t); got != "Message Content has been updated!" {
		t.Errorf("followup = %q", got)
	}
	if !w.sess.Edited() {
		t.Error("session was not marked edited")
	}
}

func TestSubmitContentNoChange(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")
	if err := w.draft.SetContent("same"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := w.submitContent(api, modalInteraction("same")); err != nil {
		t.Fatalf("submitContent: %v", err)
	}
	if got := api.lastFollowupText(t); got != "No changes were made." {
		t.Errorf("followup = %q", got)
	}
}

func TestSubmitSaveDuplicateName(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(t)
	saveMessage(t, store, "welcome")
	w := newTestWizard(t, api, store)
	w.draft = messages.NewDraft("guild1")
	if err := w.draft.SetContent("hi"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := w.submitSave(false)(api, modalInteraction("welcome")); err != nil {
		t.Fatalf("submitSave: %v", err)
	}

	want := "`❌` A message named `welcome` already exists in this server."
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
	count, err := store.CountMessages("guild1")
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestSubmitSavePersists(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(t)
	w := newTestWizard(t, api, store)
	w.draft = messages.NewDraft("guild1")
	if err := w.draft.SetContent("hi"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := w.submitSave(false)(api, modalInteraction("greet")); err != nil {
		t.Fatalf("submitSave: %v", err)
	}

	stored, ok, err := store.GetMessage("guild1", "greet")
	if err != nil || !ok {
		t.Fatalf("GetMessage = %v, %v, %v", stored, ok, err)
	}
	if stored.Content != "hi" {
		t.Errorf("stored content = %q", stored.Content)
	}
	if w.draft.EditingName != "greet" {
		t.Errorf("EditingName = %q, want greet", w.draft.EditingName)
	}
	if api.edits == 0 {
		t.Error("terminal confirmation was never rendered")
	}
}

func TestDeleteMessages(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(t)
	saveMessage(t, store, "one")
	saveMessage(t, store, "two")
	w := newTestWizard(t, api, store)

	err := w.deleteMessages(api, componentInteraction("one", "two"), []string{"one", "two"})
	if err != nil {
		t.Fatalf("deleteMessages: %v", err)
	}

	count, err := store.CountMessages("guild1")
	if err != nil {
		t.Fatalf("CountMessages: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	want := "## Messages Deleted:\nSuccessfully deleted 2/2 messages."
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
}

func TestConfirmEmbedAtCap(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")
	for i := 0; i < messages.MaxEmbeds; i++ {
		if err := w.draft.AddEmbed(&messages.Embed{Title: fmt.Sprintf("e%d", i)}); err != nil {
			t.Fatalf("AddEmbed: %v", err)
		}
	}

	e := &messages.Embed{Title: "one too many"}
	if err := w.confirmEmbed(e, true)(api, componentInteraction()); err != nil {
		t.Fatalf("confirmEmbed: %v", err)
	}

	want := "`❌` You have reached the maximum amount of embeds allowed per message."
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
	if len(w.draft.Embeds) != messages.MaxEmbeds {
		t.Errorf("embeds = %d, want %d", len(w.draft.Embeds), messages.MaxEmbeds)
	}
}

func TestHandleSendPermissionDenied(t *testing.T) {
	api := &fakeAPI{perms: discordgo.PermissionViewChannel}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")
	if err := w.draft.SetContent("hi"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := w.handleSend(api, componentInteraction("chan1")); err != nil {
		t.Fatalf("handleSend: %v", err)
	}

	want := "I do not have permission to send messages in <#chan1>."
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
	if len(api.sends) != 0 {
		t.Errorf("message was sent without permission: %v", api.sends)
	}
}

func TestHandleSendDelivers(t *testing.T) {
	api := &fakeAPI{perms: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionEmbedLinks}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")
	if err := w.draft.SetContent("hi"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := w.handleSend(api, componentInteraction("chan1")); err != nil {
		t.Fatalf("handleSend: %v", err)
	}

	if len(api.sends) != 1 || api.sends[0] != "chan1" {
		t.Fatalf("sends = %v, want [chan1]", api.sends)
	}
	v := w.sess.View()
	link := findButton(t, v, "Go to Message")
	if !strings.HasSuffix(link.URL, "/guild1/chan1/sent") {
		t.Errorf("link URL = %q", link.URL)
	}
}

func TestHandleSendFailureKeepsDraft(t *testing.T) {
	api := &fakeAPI{
		perms:   discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		sendErr: errors.New("missing access"),
	}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")
	if err := w.draft.SetContent("hi"); err != nil {
		t.Fatalf("SetContent: %v", err)
	}

	if err := w.handleSend(api, componentInteraction("chan1")); err != nil {
		t.Fatalf("handleSend: %v", err)
	}

	want := "Failed to send message to <#chan1>: `missing access`"
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
	if w.draft.Content != "hi" {
		t.Error("draft was lost on send failure")
	}
}

func TestImagePropUpdate(t *testing.T) {
	cases := []struct {
		name      string
		probeOK   bool
		prev      string
		submitted string
		wantValue string
		wantNote  string
	}{
		{
			name:      "unchanged",
			probeOK:   true,
			prev:      "https://img.example.com/a.png",
			submitted: "https://img.example.com/a.png",
			wantValue: "https://img.example.com/a.png",
			wantNote:  "No changes were made to embed image.",
		},
		{
			name:     "cleared",
			probeOK:  true,
			prev:     "https://img.example.com/a.png",
			wantNote: "No embed image was provided.",
		},
		{
			name:      "bad url",
			probeOK:   true,
			submitted: "not a url",
			wantNote:  "Invalid URL provided for embed image.",
		},
		{
			name:      "not an image",
			probeOK:   false,
			submitted: "https://img.example.com/a.html",
			wantNote:  "Invalid image provided for embed image.",
		},
		{
			name:      "updated",
			probeOK:   true,
			submitted: "https://img.example.com/b.png",
			wantValue: "https://img.example.com/b.png",
			wantNote:  "Embed image has been updated.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newTestWizard(t, &fakeAPI{}, newTestStore(t))
			w.images = stubProbe{ok: tc.probeOK}

			value, note := w.imagePropUpdate(tc.prev, tc.submitted, "embed image", "Embed image has been updated.")
			if value != tc.wantValue {
				t.Errorf("value = %q, want %q", value, tc.wantValue)
			}
			if note != tc.wantNote {
				t.Errorf("note = %q, want %q", note, tc.wantNote)
			}
		})
	}
}

func TestEmbedBuilderViewFreshEmbed(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	v := w.embedBuilderView(&messages.Embed{}, true)

	if !findButton(t, v, "Confirm").Disabled {
		t.Error("Confirm should be disabled for an empty embed")
	}
	for _, label := range []string{"Embed Author", "Embed Footer", "Embed Title"} {
		if b := findButton(t, v, label); b.Style != discordgo.SecondaryButton {
			t.Errorf("%s style = %v, want secondary while unset", label, b.Style)
		}
	}
}

func TestSubmitAuthorOnFreshEmbed(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	e := &messages.Embed{}
	ic := modalInteraction("Exult", "https://img.example.com/icon.png", "")
	if err := w.submitAuthor(e, true)(api, ic); err != nil {
		t.Fatalf("submitAuthor: %v", err)
	}

	if e.AuthorName() != "Exult" {
		t.Errorf("author name = %q, want Exult", e.AuthorName())
	}
	if e.AuthorIconURL() != "https://img.example.com/icon.png" {
		t.Errorf("author icon = %q", e.AuthorIconURL())
	}
	if findButton(t, w.embedBuilderView(e, true), "Embed Author").Style != discordgo.SuccessButton {
		t.Error("Embed Author button not marked complete after submit")
	}
}

func TestSubmitFooterOnFreshEmbed(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	e := &messages.Embed{}
	if err := w.submitFooter(e, true)(api, modalInteraction("bottom text", "")); err != nil {
		t.Fatalf("submitFooter: %v", err)
	}

	if e.FooterText() != "bottom text" {
		t.Errorf("footer text = %q, want bottom text", e.FooterText())
	}
	if findButton(t, w.embedBuilderView(e, true), "Embed Footer").Style != discordgo.SuccessButton {
		t.Error("Embed Footer button not marked complete after submit")
	}
}

func TestAbandonFieldDropsPlaceholder(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	e := &messages.Embed{Description: "body"}
	e.AddInvisibleField(false)

	if err := w.abandonField(e, true, 0, true)(api, componentInteraction()); err != nil {
		t.Fatalf("abandonField: %v", err)
	}
	if len(e.Fields) != 0 {
		t.Errorf("placeholder field survived: %v", e.Fields)
	}
}

func TestAbandonFieldKeepsTouchedField(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	e := &messages.Embed{Description: "body"}
	e.AddInvisibleField(false)
	e.Fields[0].Name = "Rules"

	if err := w.abandonField(e, true, 0, true)(api, componentInteraction()); err != nil {
		t.Fatalf("abandonField: %v", err)
	}
	if len(e.Fields) != 1 {
		t.Errorf("touched field was dropped")
	}
}

func TestHandleFieldSelectionDeletes(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))
	w.draft = messages.NewDraft("guild1")

	e := &messages.Embed{Description: "body"}
	e.AddNamedField("first", false)
	e.AddNamedField("second", false)
	e.AddNamedField("third", false)

	err := w.handleFieldSelection(e, false, true)(api, componentInteraction("0", "2"))
	if err != nil {
		t.Fatalf("handleFieldSelection: %v", err)
	}

	if len(e.Fields) != 1 || e.Fields[0].Name != "second" {
		t.Errorf("fields = %v, want only second", e.Fields)
	}
	want := "## Embed Fields Deleted:\nSuccessfully deleted 2/2 embed fields."
	if got := api.lastFollowupText(t); got != want {
		t.Errorf("followup = %q, want %q", got, want)
	}
}

func TestEditMessageLoadsDraft(t *testing.T) {
	api := &fakeAPI{}
	store := newTestStore(t)
	saveMessage(t, store, "welcome")
	w := newTestWizard(t, api, store)

	if err := w.editMessage(api, componentInteraction("welcome"), "welcome"); err != nil {
		t.Fatalf("editMessage: %v", err)
	}

	if w.draft == nil || w.draft.Content != "hello" {
		t.Fatalf("draft = %+v, want content hello", w.draft)
	}
	if w.draft.EditingName != "welcome" {
		t.Errorf("EditingName = %q, want welcome", w.draft.EditingName)
	}
}

func TestCancelDeletesWizardMessage(t *testing.T) {
	api := &fakeAPI{}
	w := newTestWizard(t, api, newTestStore(t))

	ic := componentInteraction()
	ic.ChannelID = "chan"
	ic.Message = &discordgo.Message{ID: "wizard"}

	if err := w.cancel(api, ic); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(api.deleted) != 1 || api.deleted[0] != "wizard" {
		t.Errorf("deleted = %v, want [wizard]", api.deleted)
	}
}
