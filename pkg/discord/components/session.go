package components

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Session is one open wizard. It is personal: only the owner may interact
// with it. Every custom ID the session hands out is prefixed with the session
// token so the manager can route interactions back to it.
type Session struct {
	token   string
	OwnerID string
	GuildID string

	mu        sync.Mutex
	view      *View
	modals    map[string]HandlerFunc
	channelID string
	messageID string
	edited    bool
	idle      *time.Timer
	closed    bool
}

// Token returns the routing token embedded in the session's custom IDs.
func (s *Session) Token() string { return s.token }

// CustomID namespaces a component key with the session token.
func (s *Session) CustomID(key string) string {
	return s.token + ":" + key
}

// SetView replaces the current view. Navigation fully swaps pages; nothing of
// the previous view's handlers survives.
func (s *Session) SetView(v *View) {
	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
}

// View returns the current view.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// OnModal binds a handler for a modal-submit custom ID. Modal handlers live
// on the session rather than the view because the view may have been swapped
// by the time the modal comes back.
func (s *Session) OnModal(customID string, h HandlerFunc) {
	s.mu.Lock()
	s.modals[customID] = h
	s.mu.Unlock()
}

// Bind records where the wizard message lives so the session can disable its
// controls on timeout.
func (s *Session) Bind(channelID, messageID string) {
	s.mu.Lock()
	s.channelID = channelID
	s.messageID = messageID
	s.mu.Unlock()
}

// MarkEdited flags that the wizard produced a change. Timed-out sessions with
// this flag keep their controls rendered as-is instead of being disabled.
func (s *Session) MarkEdited() {
	s.mu.Lock()
	s.edited = true
	s.mu.Unlock()
}

// Edited reports whether the wizard produced a change.
func (s *Session) Edited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edited
}

// Respond is a convenience for rendering the current view as the interaction
// response, updating the wizard message in place.
func (s *Session) Respond(api API, ic *discordgo.InteractionCreate) error {
	v := s.View()
	if v == nil {
		return fmt.Errorf("session has no view")
	}
	return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    v.Content,
			Embeds:     v.Embeds,
			Components: v.Components(),
		},
	})
}

// RespondEdit renders the current view into the original response after a
// deferred acknowledge.
func (s *Session) RespondEdit(api API, ic *discordgo.InteractionCreate) error {
	v := s.View()
	if v == nil {
		return fmt.Errorf("session has no view")
	}
	content := v.Content
	components := v.Components()
	_, err := api.InteractionResponseEdit(ic.Interaction, &discordgo.WebhookEdit{
		Content:    &content,
		Embeds:     &v.Embeds,
		Components: &components,
	})
	return err
}

func (s *Session) handler(customID string) (HandlerFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.modals[customID]; ok {
		return h, true
	}
	if s.view == nil {
		return nil, false
	}
	return s.view.Handler(customID)
}

// key strips the session token prefix from a custom ID.
func splitToken(customID string) (token, key string, ok bool) {
	token, key, ok = strings.Cut(customID, ":")
	return
}
