// Package builder implements the interactive message builder wizard: a tree
// of component views that walks a user through composing, saving and sending
// reusable messages with rich embeds.
package builder

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/storage"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// MaxMessagesPerGuild caps how many reusable messages a guild may persist.
const MaxMessagesPerGuild = 10

const (
	helpURL      = "https://bot.exultsoftware.com"
	dashboardURL = "https://bot.exultsoftware.com"
)

// Wizard is one user's open message-builder session. All views of the wizard
// hang off the same session and mutate the same draft.
type Wizard struct {
	sess   *components.Session
	mgr    *components.Manager
	store  *storage.Store
	images messages.ImageValidator
	botID  string
	draft  *messages.Draft
}

// Open starts the wizard in response to a slash command, rendering the
// message manager as the interaction response.
func Open(api components.API, mgr *components.Manager, store *storage.Store, images messages.ImageValidator, botID string, ic *discordgo.InteractionCreate) error {
	ownerID := ""
	if ic.Member != nil && ic.Member.User != nil {
		ownerID = ic.Member.User.ID
	} else if ic.User != nil {
		ownerID = ic.User.ID
	}

	sess := mgr.NewSession(ownerID, ic.GuildID)
	w := &Wizard{
		sess:   sess,
		mgr:    mgr,
		store:  store,
		images: images,
		botID:  botID,
	}

	v := w.managerView()
	sess.SetView(v)
	err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    v.Content,
			Embeds:     v.Embeds,
			Components: v.Components(),
		},
	})
	if err != nil {
		mgr.Close(sess)
		return err
	}

	if msg, err := api.InteractionResponse(ic.Interaction); err == nil {
		sess.Bind(msg.ChannelID, msg.ID)
	} else {
		log.Discord().Warn("failed to resolve wizard message", "error", err)
	}
	return nil
}

// goTo returns a handler that swaps to the view built by factory and renders
// it in place.
func (w *Wizard) goTo(factory components.ViewFactory) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		w.sess.SetView(factory())
		return w.sess.Respond(api, ic)
	}
}

// cancel tears the wizard down and deletes its message.
func (w *Wizard) cancel(api components.API, ic *discordgo.InteractionCreate) error {
	w.mgr.Close(w.sess)
	if err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		return err
	}
	if ic.Message == nil {
		return nil
	}
	return api.ChannelMessageDelete(ic.ChannelID, ic.Message.ID)
}

// ack defers a component or modal-submit interaction as a message update so
// the handler can do I/O before rendering.
func ack(api components.API, ic *discordgo.InteractionCreate) error {
	return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// followupText sends an ephemeral plain-text followup after an acknowledged
// interaction.
func followupText(api components.API, ic *discordgo.InteractionCreate, text string) error {
	_, err := api.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// followupEmbed sends an ephemeral embed followup.
func followupEmbed(api components.API, ic *discordgo.InteractionCreate, description string, colour int) error {
	_, err := api.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{{Description: description, Color: colour}},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	return err
}

// rerender swaps to the view built by factory and edits it into the deferred
// interaction response.
func (w *Wizard) rerender(api components.API, ic *discordgo.InteractionCreate, factory components.ViewFactory) error {
	w.sess.SetView(factory())
	return w.sess.RespondEdit(api, ic)
}

// openModal binds a modal-submit handler on the session and responds with the
// modal itself.
func (w *Wizard) openModal(api components.API, ic *discordgo.InteractionCreate, key, title string, inputs []discordgo.TextInput, onSubmit components.HandlerFunc) error {
	customID := w.sess.CustomID("modal:" + key)
	w.sess.OnModal(customID, onSubmit)

	rows := make([]discordgo.MessageComponent, 0, len(inputs))
	for i, in := range inputs {
		if in.CustomID == "" {
			in.CustomID = fmt.Sprintf("input_%d", i)
		}
		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{in},
		})
	}
	return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   customID,
			Title:      title,
			Components: rows,
		},
	})
}

// modalValues collects the submitted text-input values in row order.
func modalValues(ic *discordgo.InteractionCreate) []string {
	data := ic.ModalSubmitData()
	var values []string
	for _, row := range data.Components {
		var inner []discordgo.MessageComponent
		switch typed := row.(type) {
		case *discordgo.ActionsRow:
			inner = typed.Components
		case discordgo.ActionsRow:
			inner = typed.Components
		}
		for _, c := range inner {
			switch input := c.(type) {
			case *discordgo.TextInput:
				values = append(values, input.Value)
			case discordgo.TextInput:
				values = append(values, input.Value)
			}
		}
	}
	return values
}

// modalValue returns the submitted value at index, or "" when absent.
func modalValue(values []string, index int) string {
	if index < 0 || index >= len(values) {
		return ""
	}
	return values[index]
}

// completedStyle renders a completed step green and a pending step gray.
func completedStyle(done bool) discordgo.ButtonStyle {
	if done {
		return discordgo.SuccessButton
	}
	return discordgo.SecondaryButton
}

// statusStyle renders an enabled toggle green and a disabled one red.
func statusStyle(on bool) discordgo.ButtonStyle {
	if on {
		return discordgo.SuccessButton
	}
	return discordgo.DangerButton
}

func emoji(name string) *discordgo.ComponentEmoji {
	return &discordgo.ComponentEmoji{Name: name}
}

// addCancel appends the shared Cancel button to a row.
func (w *Wizard) addCancel(v *components.View, row int) {
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Cancel",
		CustomID: w.sess.CustomID("cancel"),
	}, w.cancel)
}

// successEmbed is the green confirmation embed rendered when a message is
// delivered to a channel.
func successEmbed(channelID string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Success!",
		Description: fmt.Sprintf("Your message has been sent to <#%s>!", channelID),
		Color:       theme.Success(),
	}
}
