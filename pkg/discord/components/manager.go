package components

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// DefaultIdleTimeout is how long a session may sit untouched before it is
// torn down.
const DefaultIdleTimeout = 600 * time.Second

// Manager routes component and modal-submit interactions to the owning
// session by the token prefix of the custom ID.
type Manager struct {
	api  API
	idle time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. A zero idle duration selects the
// default timeout.
func NewManager(api API, idle time.Duration) *Manager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Manager{
		api:      api,
		idle:     idle,
		sessions: map[string]*Session{},
	}
}

// NewSession registers a fresh session for the given owner.
func (m *Manager) NewSession(ownerID, guildID string) *Session {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	sess := &Session{
		token:   hex.EncodeToString(buf),
		OwnerID: ownerID,
		GuildID: guildID,
		modals:  map[string]HandlerFunc{},
	}

	m.mu.Lock()
	m.sessions[sess.token] = sess
	m.mu.Unlock()

	sess.idle = time.AfterFunc(m.idle, func() { m.expire(sess) })
	return sess
}

// Close tears a session down without touching its message. Cancel and exit
// buttons call this after rendering their own final state.
func (m *Manager) Close(sess *Session) {
	m.mu.Lock()
	delete(m.sessions, sess.token)
	m.mu.Unlock()

	sess.mu.Lock()
	sess.closed = true
	if sess.idle != nil {
		sess.idle.Stop()
	}
	sess.mu.Unlock()
}

// expire fires on idle timeout. The session is always unregistered; the
// wizard message only has its controls disabled when nothing was edited, so
// a finished-looking wizard is left readable as the user last saw it.
func (m *Manager) expire(sess *Session) {
	m.mu.Lock()
	if _, ok := m.sessions[sess.token]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, sess.token)
	m.mu.Unlock()

	sess.mu.Lock()
	sess.closed = true
	edited := sess.edited
	channelID, messageID := sess.channelID, sess.messageID
	view := sess.view
	sess.mu.Unlock()

	if edited || view == nil || messageID == "" {
		return
	}
	components := view.DisabledComponents()
	_, err := m.api.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    channelID,
		ID:         messageID,
		Components: &components,
	})
	if err != nil {
		log.Discord().Warn("failed to disable timed-out view", "message_id", messageID, "error", err)
	}
}

// session looks up the owning session for a custom ID.
func (m *Manager) session(customID string) (*Session, string, bool) {
	token, key, ok := splitToken(customID)
	if !ok {
		return nil, "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	return sess, key, ok
}

// HandleInteraction is the discordgo handler for component and modal-submit
// interactions. Interactions for custom IDs the manager does not know are
// ignored so other handlers can claim them.
func (m *Manager) HandleInteraction(s *discordgo.Session, ic *discordgo.InteractionCreate) {
	var customID string
	switch ic.Type {
	case discordgo.InteractionMessageComponent:
		customID = ic.MessageComponentData().CustomID
	case discordgo.InteractionModalSubmit:
		customID = ic.ModalSubmitData().CustomID
	default:
		return
	}
	m.dispatch(s, ic, customID)
}

func (m *Manager) dispatch(api API, ic *discordgo.InteractionCreate, customID string) {
	sess, _, ok := m.session(customID)
	if !ok {
		return
	}

	if invoker := interactionUserID(ic); invoker != sess.OwnerID {
		if err := respondNotYours(api, ic, sess.OwnerID); err != nil {
			log.Discord().Warn("failed to send ownership notice", "error", err)
		}
		return
	}

	sess.mu.Lock()
	if !sess.closed && sess.idle != nil {
		sess.idle.Reset(m.idle)
	}
	sess.mu.Unlock()

	handler, ok := sess.handler(customID)
	if !ok {
		log.Discord().Warn("no handler for component", "custom_id", customID)
		return
	}
	if err := handler(api, ic); err != nil {
		log.Discord().Error("component handler failed", "custom_id", customID, "error", err)
		if err := respondError(api, ic, err); err != nil {
			log.Discord().Warn("failed to report handler error", "error", err)
		}
	}
}

func interactionUserID(ic *discordgo.InteractionCreate) string {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User.ID
	}
	if ic.User != nil {
		return ic.User.ID
	}
	return ""
}

func respondNotYours(api API, ic *discordgo.InteractionCreate, ownerID string) error {
	return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("Sorry, this menu belongs to <@%s>!", ownerID),
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func respondError(api API, ic *discordgo.InteractionCreate, handlerErr error) error {
	embed := &discordgo.MessageEmbed{
		Description: fmt.Sprintf("`❌` %s", handlerErr),
		Color:       theme.Error(),
	}
	err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		return nil
	}
	// The interaction was probably already acknowledged; fall back to a followup.
	_, err = api.FollowupMessageCreate(ic.Interaction, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}
