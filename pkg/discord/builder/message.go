package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/storage"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

func builderEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Message Builder",
		Description: "Use the buttons below to build your message!",
		Color:       theme.Info(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📃 Message Content", Value: "The plain text outside of embeds in your message.", Inline: true},
			{Name: "📰 Embeds", Value: "Build your own embeds for your message.", Inline: true},
			{
				Name: "📎 JSON Editor",
				Value: "Have an existing message you want to start with? Use our Context " +
					"Menu command `Message Source` on your desired message and import " +
					"the JSON data provided!",
				Inline: false,
			},
			{
				Name: "💨 Save and Exit",
				Value: "Save your message for later, you can send it at a later date using " +
					"the `/message send` command!",
				Inline: false,
			},
			{
				Name:   "💌 Save and Send",
				Value:  "Send your message to your desired channel now and save it for later use as well!",
				Inline: false,
			},
			{
				Name:   "📨 Send without Saving",
				Value:  "Send your message to your desired channel now without saving it for later.",
				Inline: false,
			},
		},
	}
}

// builderView is the top page of a single draft.
func (w *Wizard) builderView() *components.View {
	d := w.draft
	v := components.NewView().AddEmbed(builderEmbed())

	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(d.Content != ""),
		Label:    "Message Content",
		Emoji:    emoji("📃"),
		CustomID: w.sess.CustomID("builder:content"),
	}, w.openContentModal)
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(len(d.Embeds) > 0),
		Label:    "Embeds",
		Emoji:    emoji("📰"),
		CustomID: w.sess.CustomID("builder:embeds"),
	}, w.handleEmbeds)
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SecondaryButton,
		Label:    "JSON Editor",
		Emoji:    emoji("📎"),
		CustomID: w.sess.CustomID("builder:json"),
	}, w.openJSONModal)

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SecondaryButton,
		Label:    "Save and Exit",
		Emoji:    emoji("💨"),
		Disabled: !d.Ready(),
		CustomID: w.sess.CustomID("builder:save_exit"),
	}, w.handleSave(false))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SecondaryButton,
		Label:    "Save and Send",
		Emoji:    emoji("💌"),
		Disabled: !d.Ready(),
		CustomID: w.sess.CustomID("builder:save_send"),
	}, w.handleSave(true))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(d.Ready()),
		Label:    "Send without Saving",
		Emoji:    emoji("📨"),
		Disabled: !d.Ready(),
		CustomID: w.sess.CustomID("builder:send"),
	}, w.goTo(w.sendView))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("builder:back"),
	}, w.goTo(w.managerView))
	w.addCancel(v, row)

	return v
}

func (w *Wizard) openContentModal(api components.API, ic *discordgo.InteractionCreate) error {
	return w.openModal(api, ic, "content", "Message Content", []discordgo.TextInput{{
		Label:       "Message Content",
		Style:       discordgo.TextInputParagraph,
		Placeholder: "My message content...",
		Value:       w.draft.Content,
		MaxLength:   messages.MaxContentLen,
	}}, w.submitContent)
}

func (w *Wizard) submitContent(api components.API, ic *discordgo.InteractionCreate) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	content := modalValue(modalValues(ic), 0)
	if content == w.draft.Content {
		return followupText(api, ic, "No changes were made.")
	}
	if err := w.draft.SetContent(content); err != nil {
		return followupText(api, ic, "`❌` "+err.Error())
	}
	w.sess.MarkEdited()
	if err := w.rerender(api, ic, w.builderView); err != nil {
		return err
	}
	return followupText(api, ic, "Message Content has been updated!")
}

// handleEmbeds routes to a fresh embed builder when the draft has no embeds
// yet, and to the embed list otherwise.
func (w *Wizard) handleEmbeds(api components.API, ic *discordgo.InteractionCreate) error {
	if len(w.draft.Embeds) == 0 {
		embed := &messages.Embed{}
		w.sess.SetView(w.embedBuilderView(embed, true))
		return w.sess.Respond(api, ic)
	}
	w.sess.SetView(w.embedListView())
	return w.sess.Respond(api, ic)
}

// embedListView manages the draft's existing embeds.
func (w *Wizard) embedListView() *components.View {
	d := w.draft
	v := components.NewView().AddEmbed(builderEmbed())

	editOptions := make([]discordgo.SelectMenuOption, 0, len(d.Embeds))
	for i, e := range d.Embeds {
		label := fmt.Sprintf("Embed %d", i+1)
		if e.Title != "" {
			label = fmt.Sprintf("Embed %d — %s", i+1, e.Title)
		}
		editOptions = append(editOptions, discordgo.SelectMenuOption{
			Label: truncateLabel(label),
			Value: strconv.Itoa(i),
		})
	}

	row := v.Row()
	v.AddSelect(row, discordgo.SelectMenu{
		CustomID:    w.sess.CustomID("embeds:edit"),
		Placeholder: "Select an embed to edit!",
		Options:     editOptions,
	}, w.handleEmbedEdit)

	row = v.Row()
	v.AddSelect(row, discordgo.SelectMenu{
		CustomID:    w.sess.CustomID("embeds:remove"),
		Placeholder: "Select embeds to remove!",
		MaxValues:   len(editOptions),
		Options:     editOptions,
	}, w.handleEmbedRemove)

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SuccessButton,
		Label:    "Add Embed",
		Emoji:    emoji("➕"),
		Disabled: len(d.Embeds) >= messages.MaxEmbeds,
		CustomID: w.sess.CustomID("embeds:add"),
	}, func(api components.API, ic *discordgo.InteractionCreate) error {
		embed := &messages.Embed{}
		w.sess.SetView(w.embedBuilderView(embed, true))
		return w.sess.Respond(api, ic)
	})
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("embeds:back"),
	}, w.goTo(w.builderView))
	w.addCancel(v, row)

	return v
}

func (w *Wizard) handleEmbedEdit(api components.API, ic *discordgo.InteractionCreate) error {
	values := ic.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}
	pos, err := strconv.Atoi(values[0])
	if err != nil || pos < 0 || pos >= len(w.draft.Embeds) {
		return fmt.Errorf("invalid embed selection")
	}
	w.sess.SetView(w.embedBuilderView(w.draft.Embeds[pos], false))
	return w.sess.Respond(api, ic)
}

func (w *Wizard) handleEmbedRemove(api components.API, ic *discordgo.InteractionCreate) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	values := ic.MessageComponentData().Values
	indices := make([]int, 0, len(values))
	for _, v := range values {
		pos, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid embed selection")
		}
		indices = append(indices, pos)
	}
	// Remove back to front so earlier removals do not shift later indices.
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	removed := 0
	for _, pos := range indices {
		if err := w.draft.RemoveEmbed(pos); err == nil {
			removed++
		}
	}
	w.sess.MarkEdited()
	if err := w.rerender(api, ic, w.builderView); err != nil {
		return err
	}
	description := fmt.Sprintf("Successfully deleted %d/%d embeds.", removed, len(values))
	return followupEmbed(api, ic, "## Embeds Deleted:\n"+description, theme.Success())
}

func (w *Wizard) openJSONModal(api components.API, ic *discordgo.InteractionCreate) error {
	value := ""
	if raw, err := messages.ExportPayload(w.draft); err == nil {
		value = string(raw)
	} else {
		log.Discord().Warn("failed to export draft payload", "error", err)
	}
	if len(value) > 4000 {
		value = ""
	}
	return w.openModal(api, ic, "json", "JSON Editor", []discordgo.TextInput{{
		Label:       "JSON",
		Style:       discordgo.TextInputParagraph,
		Placeholder: `{"content": "My message content!", "embeds": []}`,
		Value:       value,
		MaxLength:   4000,
	}}, w.submitJSON)
}

func (w *Wizard) submitJSON(api components.API, ic *discordgo.InteractionCreate) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	raw := modalValue(modalValues(ic), 0)
	payload, err := messages.ParsePayload(context.Background(), []byte(raw), w.images)
	if err != nil {
		return followupText(api, ic, "`❌` "+err.Error())
	}
	w.draft.Content = payload.Content
	w.draft.Embeds = payload.Embeds
	w.sess.MarkEdited()
	if err := w.rerender(api, ic, w.builderView); err != nil {
		return err
	}
	return followupText(api, ic, "Successfully updated message data!")
}

// handleSave persists the draft. Drafts loaded from a saved message update in
// place; new drafts prompt for a name first.
func (w *Wizard) handleSave(thenSend bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if w.draft.EditingName != "" {
			return w.updateExisting(api, ic, thenSend)
		}
		return w.openModal(api, ic, "save", "Save Message", []discordgo.TextInput{{
			Label:       "Message Name",
			Placeholder: "welcome-message",
			Required:    true,
			MaxLength:   100,
		}}, w.submitSave(thenSend))
	}
}

func (w *Wizard) updateExisting(api components.API, ic *discordgo.InteractionCreate, thenSend bool) error {
	if err := ack(api, ic); err != nil {
		return err
	}
	name := w.draft.EditingName
	if err := w.store.UpdateMessage(w.sess.GuildID, name, w.draft); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return followupText(api, ic, fmt.Sprintf("Message `%s` no longer exists.", name))
		}
		return err
	}
	w.sess.MarkEdited()
	if thenSend {
		if err := w.rerender(api, ic, w.sendView); err != nil {
			return err
		}
		return followupText(api, ic, fmt.Sprintf("Message `%s` has been updated!", name))
	}
	return w.finishSaved(api, ic, name)
}

func (w *Wizard) submitSave(thenSend bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		name := modalValue(modalValues(ic), 0)
		if name == "" {
			return followupText(api, ic, "`❌` No message name was provided.")
		}

		count, err := w.store.CountMessages(w.sess.GuildID)
		if err != nil {
			return err
		}
		if count >= MaxMessagesPerGuild {
			return followupText(api, ic, "`❌` You have reached the maximum amount of saved messages allowed per server.")
		}

		err = w.store.CreateMessage(w.sess.GuildID, name, w.sess.OwnerID, w.draft)
		if errors.Is(err, storage.ErrNameTaken) {
			return followupText(api, ic, fmt.Sprintf("`❌` A message named `%s` already exists in this server.", name))
		}
		if err != nil {
			return err
		}

		w.draft.EditingName = name
		w.sess.MarkEdited()
		if thenSend {
			if err := w.rerender(api, ic, w.sendView); err != nil {
				return err
			}
			return followupText(api, ic, fmt.Sprintf("Message `%s` has been saved!", name))
		}
		return w.finishSaved(api, ic, name)
	}
}

// finishSaved replaces the wizard with a terminal confirmation and tears the
// session down.
func (w *Wizard) finishSaved(api components.API, ic *discordgo.InteractionCreate, name string) error {
	v := components.NewView().AddEmbed(&discordgo.MessageEmbed{
		Title: "Message Saved!",
		Description: fmt.Sprintf(
			"Your message has been saved as `%s`! You can send it at any time with `/message send`.", name),
		Color: theme.Success(),
	})
	w.sess.SetView(v)
	if err := w.sess.RespondEdit(api, ic); err != nil {
		return err
	}
	w.mgr.Close(w.sess)
	return nil
}

// sendView asks where to deliver the draft.
func (w *Wizard) sendView() *components.View {
	v := components.NewView().AddEmbed(builderEmbed())

	row := v.Row()
	v.AddSelect(row, discordgo.SelectMenu{
		MenuType:     discordgo.ChannelSelectMenu,
		CustomID:     w.sess.CustomID("send:channel"),
		Placeholder:  "Where shall we send your message?",
		ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
	}, w.handleSend)

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("send:back"),
	}, w.goTo(w.builderView))
	w.addCancel(v, row)

	return v
}

// handleSend verifies the bot's permissions in the picked channel and
// delivers the draft. Failures leave the draft untouched so the user can
// retry.
func (w *Wizard) handleSend(api components.API, ic *discordgo.InteractionCreate) error {
	values := ic.MessageComponentData().Values
	if len(values) == 0 {
		return nil
	}
	channelID := values[0]
	if err := ack(api, ic); err != nil {
		return err
	}

	perms, err := api.UserChannelPermissions(w.botID, channelID)
	if err != nil {
		return fmt.Errorf("failed to resolve channel permissions: %w", err)
	}
	if perms&discordgo.PermissionViewChannel == 0 {
		return followupText(api, ic, fmt.Sprintf("I do not have permission to read messages in <#%s>.", channelID))
	}
	if perms&discordgo.PermissionSendMessages == 0 {
		return followupText(api, ic, fmt.Sprintf("I do not have permission to send messages in <#%s>.", channelID))
	}
	if len(w.draft.Embeds) > 0 && perms&discordgo.PermissionEmbedLinks == 0 {
		return followupText(api, ic, fmt.Sprintf("I do not have permission to embed messages in <#%s>.", channelID))
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(w.draft.Embeds))
	for _, e := range w.draft.Embeds {
		embeds = append(embeds, e.ToMessageEmbed())
	}
	msg, err := api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: w.draft.Content,
		Embeds:  embeds,
	})
	if err != nil {
		return followupText(api, ic, fmt.Sprintf("Failed to send message to <#%s>: `%s`", channelID, err))
	}

	w.sess.MarkEdited()
	v := components.NewView().AddEmbed(successEmbed(channelID))
	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style: discordgo.LinkButton,
		Label: "Go to Message",
		URL:   fmt.Sprintf("https://discord.com/channels/%s/%s/%s", w.sess.GuildID, channelID, msg.ID),
	}, nil)
	w.sess.SetView(v)
	if err := w.sess.RespondEdit(api, ic); err != nil {
		return err
	}
	w.mgr.Close(w.sess)
	return nil
}

// truncateLabel keeps select labels inside Discord's 100 character cap.
func truncateLabel(s string) string {
	if len(s) <= 100 {
		return s
	}
	return s[:97] + "..."
}
