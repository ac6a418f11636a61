// Package components is the runtime for interactive message-component views.
// A View is a rendered page of a wizard: its embeds, its component rows and
// the handlers bound to them. Sessions own views and route interactions to
// the handler matching the component's custom ID.
package components

import (
	"github.com/bwmarrin/discordgo"
)

// API is the slice of the Discord session surface that view handlers use.
// *discordgo.Session satisfies it; tests substitute a fake.
type API interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(interaction *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelPermissions(userID, channelID string, options ...discordgo.RequestOption) (int64, error)
}

// HandlerFunc handles one component or modal-submit interaction.
type HandlerFunc func(api API, ic *discordgo.InteractionCreate) error

// ViewFactory builds a view on demand. Navigation targets are always
// factories, never pre-built views, so that pages can reference each other
// without constructing the whole tree up front. Factories close over the data
// they render (draft, embed, guild), not over the view navigating away.
type ViewFactory func() *View

// View is one rendered page: content, embeds and component rows with their
// handlers.
type View struct {
	Content  string
	Embeds   []*discordgo.MessageEmbed
	rows     [][]discordgo.MessageComponent
	handlers map[string]HandlerFunc
}

// NewView returns an empty view.
func NewView() *View {
	return &View{handlers: map[string]HandlerFunc{}}
}

// SetContent sets the message content rendered with the view.
func (v *View) SetContent(content string) *View {
	v.Content = content
	return v
}

// AddEmbed appends an embed to the view.
func (v *View) AddEmbed(e *discordgo.MessageEmbed) *View {
	v.Embeds = append(v.Embeds, e)
	return v
}

// Row starts a new component row and returns its index.
func (v *View) Row() int {
	v.rows = append(v.rows, nil)
	return len(v.rows) - 1
}

// AddButton places a button on the given row and binds its handler. The
// button's CustomID must already be namespaced via Session.CustomID.
func (v *View) AddButton(row int, b discordgo.Button, h HandlerFunc) *View {
	v.rows[row] = append(v.rows[row], b)
	if b.CustomID != "" {
		v.handlers[b.CustomID] = h
	}
	return v
}

// AddSelect places a select menu on the given row and binds its handler.
func (v *View) AddSelect(row int, sel discordgo.SelectMenu, h HandlerFunc) *View {
	v.rows[row] = append(v.rows[row], sel)
	v.handlers[sel.CustomID] = h
	return v
}

// Handler returns the handler bound to a custom ID, if any.
func (v *View) Handler(customID string) (HandlerFunc, bool) {
	h, ok := v.handlers[customID]
	return h, ok
}

// Components renders the rows as wire components.
func (v *View) Components() []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(v.rows))
	for _, row := range v.rows {
		out = append(out, discordgo.ActionsRow{Components: row})
	}
	return out
}

// DisabledComponents renders the rows with every control disabled, used when
// a session times out.
func (v *View) DisabledComponents() []discordgo.MessageComponent {
	out := make([]discordgo.MessageComponent, 0, len(v.rows))
	for _, row := range v.rows {
		disabled := make([]discordgo.MessageComponent, 0, len(row))
		for _, c := range row {
			switch typed := c.(type) {
			case discordgo.Button:
				typed.Disabled = true
				disabled = append(disabled, typed)
			case discordgo.SelectMenu:
				typed.Disabled = true
				disabled = append(disabled, typed)
			default:
				disabled = append(disabled, c)
			}
		}
		out = append(out, discordgo.ActionsRow{Components: disabled})
	}
	return out
}
