package builder

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// selectorAction distinguishes what the message selector does with the pick.
type selectorAction string

const (
	actionEdit   selectorAction = "edit"
	actionDelete selectorAction = "delete"
	actionView   selectorAction = "view"
)

func managerEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Message Manager",
		Description: "Use the buttons below to manage your custom reusable messages!",
		Color:       theme.Info(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "➕ Create Message", Value: "Create a new, custom reusable message!", Inline: true},
			{Name: "🛠️ Edit Message", Value: "Edit one of your saved reusable messages!", Inline: true},
			{Name: "🗑️ Delete Message(s)", Value: "Delete one or more of your saved reusable messages!", Inline: true},
			{Name: "👁️ View Message", Value: "View one of your saved reusable messages!", Inline: true},
			{Name: "🌐 Web Dashboard", Value: "Manage your messages on our web dashboard instead!", Inline: true},
		},
	}
}

// managerView is the wizard's entry page.
func (w *Wizard) managerView() *components.View {
	count, err := w.store.CountMessages(w.sess.GuildID)
	if err != nil {
		log.Discord().Warn("failed to count saved messages", "guild_id", w.sess.GuildID, "error", err)
	}

	v := components.NewView().AddEmbed(managerEmbed())

	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SuccessButton,
		Label:    "Create Message",
		Emoji:    emoji("➕"),
		Disabled: count >= MaxMessagesPerGuild,
		CustomID: w.sess.CustomID("mgr:create"),
	}, w.handleCreate)
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.PrimaryButton,
		Label:    "Edit Message",
		Emoji:    emoji("🛠️"),
		Disabled: count <= 0,
		CustomID: w.sess.CustomID("mgr:edit"),
	}, w.goTo(func() *components.View { return w.selectorView(actionEdit) }))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Delete Message",
		Emoji:    emoji("🗑️"),
		Disabled: count <= 0,
		CustomID: w.sess.CustomID("mgr:delete"),
	}, w.goTo(func() *components.View { return w.selectorView(actionDelete) }))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SecondaryButton,
		Label:    "View Message",
		Emoji:    emoji("👁️"),
		Disabled: count <= 0,
		CustomID: w.sess.CustomID("mgr:view"),
	}, w.goTo(func() *components.View { return w.selectorView(actionView) }))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style: discordgo.LinkButton,
		Label: "Help",
		Emoji: emoji("❔"),
		URL:   helpURL,
	}, nil)
	v.AddButton(row, discordgo.Button{
		Style: discordgo.LinkButton,
		Label: "Web Dashboard",
		Emoji: emoji("🌐"),
		URL:   dashboardURL,
	}, nil)
	w.addCancel(v, row)

	return v
}

// handleCreate starts a fresh draft. The saved-message cap is re-checked here
// so a stale manager page cannot create an eleventh message.
func (w *Wizard) handleCreate(api components.API, ic *discordgo.InteractionCreate) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	count, err := w.store.CountMessages(w.sess.GuildID)
	if err != nil {
		return err
	}
	if count >= MaxMessagesPerGuild {
		return followupText(api, ic, "`❌` You have reached the maximum amount of saved messages allowed per server.")
	}
	w.draft = messages.NewDraft(w.sess.GuildID)
	return w.rerender(api, ic, w.builderView)
}

// selectorView lists the guild's saved messages for edit, delete or view.
func (w *Wizard) selectorView(action selectorAction) *components.View {
	infos, err := w.store.ListMessages(w.sess.GuildID)
	if err != nil {
		log.Discord().Warn("failed to list saved messages", "guild_id", w.sess.GuildID, "error", err)
	}

	options := make([]discordgo.SelectMenuOption, 0, len(infos))
	for _, info := range infos {
		options = append(options, discordgo.SelectMenuOption{
			Label:       info.Name,
			Value:       info.Name,
			Description: "Created " + info.CreatedAt.Format("02 Jan 2006"),
		})
	}

	maxValues := 1
	if action == actionDelete {
		maxValues = len(options)
	}

	v := components.NewView().AddEmbed(managerEmbed())
	row := v.Row()
	v.AddSelect(row, discordgo.SelectMenu{
		CustomID:    w.sess.CustomID("mgr:select:" + string(action)),
		Placeholder: "Select a message!",
		MaxValues:   maxValues,
		Options:     options,
	}, w.handleSelection(action))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("mgr:select:back"),
	}, w.goTo(w.managerView))
	w.addCancel(v, row)

	return v
}

func (w *Wizard) handleSelection(action selectorAction) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		names := ic.MessageComponentData().Values
		if len(names) == 0 {
			return nil
		}
		switch action {
		case actionDelete:
			return w.deleteMessages(api, ic, names)
		case actionView:
			return w.viewMessage(api, ic, names[0])
		default:
			return w.editMessage(api, ic, names[0])
		}
	}
}

func (w *Wizard) editMessage(api components.API, ic *discordgo.InteractionCreate, name string) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	stored, ok, err := w.store.GetMessage(w.sess.GuildID, name)
	if err != nil {
		return err
	}
	if !ok {
		return followupText(api, ic, fmt.Sprintf("Message `%s` no longer exists.", name))
	}
	w.draft = stored.Draft()
	return w.rerender(api, ic, w.builderView)
}

func (w *Wizard) deleteMessages(api components.API, ic *discordgo.InteractionCreate, names []string) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	deleted := 0
	for _, name := range names {
		ok, err := w.store.DeleteMessage(w.sess.GuildID, name)
		if err != nil {
			return err
		}
		if ok {
			deleted++
		}
	}
	w.sess.MarkEdited()
	if err := w.rerender(api, ic, w.managerView); err != nil {
		return err
	}
	description := fmt.Sprintf("Successfully deleted %d/%d messages.", deleted, len(names))
	return followupEmbed(api, ic, "## Messages Deleted:\n"+description, theme.Success())
}

// viewMessage renders a saved message ephemerally without touching the
// wizard page.
func (w *Wizard) viewMessage(api components.API, ic *discordgo.InteractionCreate, name string) error {
	stored, ok, err := w.store.GetMessage(w.sess.GuildID, name)
	if err != nil {
		return err
	}
	if !ok {
		return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: fmt.Sprintf("Message `%s` no longer exists.", name),
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(stored.Embeds))
	for _, e := range stored.Embeds {
		embeds = append(embeds, e.ToMessageEmbed())
	}
	return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: stored.Content,
			Embeds:  embeds,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
