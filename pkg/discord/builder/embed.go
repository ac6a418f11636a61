package builder

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// embedBuilderView edits a single embed. A new embed only joins the draft
// when Confirm fires; an existing embed is edited in place.
func (w *Wizard) embedBuilderView(e *messages.Embed, embedNew bool) *components.View {
	v := components.NewView().AddEmbed(builderEmbed())
	if e.MinimalReady() {
		v.AddEmbed(e.ToMessageEmbed())
	}

	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.AuthorName() != ""),
		Label:    "Embed Author",
		CustomID: w.sess.CustomID("embed:author"),
	}, w.openAuthorModal(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.Title != ""),
		Label:    "Embed Title",
		CustomID: w.sess.CustomID("embed:title"),
	}, w.openTitleModal(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.Description != ""),
		Label:    "Embed Description",
		CustomID: w.sess.CustomID("embed:description"),
	}, w.openDescriptionModal(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.Colour != nil),
		Label:    "Embed Colour",
		CustomID: w.sess.CustomID("embed:colour"),
	}, w.openColourModal(e, embedNew))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(len(e.Fields) > 0),
		Label:    "Fields",
		Emoji:    emoji("📰"),
		Disabled: len(e.Fields) >= messages.MaxFields,
		CustomID: w.sess.CustomID("embed:fields"),
	}, w.goTo(func() *components.View { return w.fieldsView(e, embedNew) }))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.FooterText() != ""),
		Label:    "Embed Footer",
		CustomID: w.sess.CustomID("embed:footer"),
	}, w.openFooterModal(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.Thumbnail != ""),
		Label:    "Embed Thumbnail",
		CustomID: w.sess.CustomID("embed:thumbnail"),
	}, w.openThumbnailModal(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.Image != ""),
		Label:    "Embed Image",
		CustomID: w.sess.CustomID("embed:image"),
	}, w.openImageModal(e, embedNew))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(e.MinimalReady()),
		Label:    "Confirm",
		Emoji:    emoji("✅"),
		Disabled: !e.MinimalReady(),
		CustomID: w.sess.CustomID("embed:confirm"),
	}, w.confirmEmbed(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("embed:back"),
	}, w.goTo(w.builderView))
	w.addCancel(v, row)

	return v
}

// confirmEmbed attaches a new embed to the draft. The embed cap is re-checked
// at confirm time because the draft may have grown since the view rendered.
func (w *Wizard) confirmEmbed(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		note := "Embed has been updated!"
		if embedNew {
			if len(w.draft.Embeds) >= messages.MaxEmbeds {
				return followupText(api, ic, "`❌` You have reached the maximum amount of embeds allowed per message.")
			}
			if err := w.draft.AddEmbed(e); err != nil {
				return followupText(api, ic, "`❌` "+err.Error())
			}
			note = "Embed has been added to your message!"
		}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, w.builderView); err != nil {
			return err
		}
		return followupText(api, ic, note)
	}
}

// imagePropUpdate applies change detection to an image-bearing property. The
// returned value is what the property should now hold; the note describes the
// outcome to the user.
func (w *Wizard) imagePropUpdate(prev, submitted, prop, updated string) (string, string) {
	switch {
	case submitted == prev:
		return submitted, fmt.Sprintf("No changes were made to %s.", prop)
	case submitted == "":
		return "", fmt.Sprintf("No %s was provided.", prop)
	case !messages.ValidateURL(submitted):
		return "", fmt.Sprintf("Invalid URL provided for %s.", prop)
	case !w.images.Probe(context.Background(), submitted):
		return "", fmt.Sprintf("Invalid image provided for %s.", prop)
	default:
		return submitted, updated
	}
}

// urlPropUpdate is imagePropUpdate without the image probe.
func urlPropUpdate(prev, submitted, prop, updated string) (string, string) {
	switch {
	case submitted == prev:
		return submitted, fmt.Sprintf("No changes were made to %s.", prop)
	case submitted == "":
		return "", fmt.Sprintf("No %s was provided.", prop)
	case !messages.ValidateURL(submitted):
		return "", fmt.Sprintf("Invalid URL provided for %s.", prop)
	default:
		return submitted, updated
	}
}

func (w *Wizard) openAuthorModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		return w.openModal(api, ic, "author", "Embed Author", []discordgo.TextInput{
			{
				Label:     "Author Name",
				Value:     e.AuthorName(),
				Required:  true,
				MaxLength: messages.MaxAuthorNameLen,
			},
			{
				Label: "Author Icon URL",
				Value: e.AuthorIconURL(),
			},
			{
				Label:       "Author URL",
				Placeholder: helpURL,
				Value:       e.AuthorURL(),
			},
		}, w.submitAuthor(e, embedNew))
	}
}

func (w *Wizard) submitAuthor(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		values := modalValues(ic)
		name := modalValue(values, 0)

		nameNote := fmt.Sprintf("Author name has been updated to `%s`.", name)
		if name == e.AuthorName() {
			nameNote = "No changes were made to author name."
		}
		icon, iconNote := w.imagePropUpdate(e.AuthorIconURL(), modalValue(values, 1),
			"author icon", "Author icon has been updated.")
		url, urlNote := urlPropUpdate(e.AuthorURL(), modalValue(values, 2),
			"author URL", "Author URL has been updated.")

		e.Author = &messages.EmbedAuthor{Name: name, IconURL: icon, URL: url}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		description := fmt.Sprintf("## Updated Embed Author:\n%s\n%s\n%s", nameNote, iconNote, urlNote)
		return followupEmbed(api, ic, description, theme.Success())
	}
}

func (w *Wizard) openTitleModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		return w.openModal(api, ic, "title", "Embed Title", []discordgo.TextInput{
			{
				Label:       "Title",
				Placeholder: "My Embed Title",
				Value:       e.Title,
				Required:    true,
				MaxLength:   messages.MaxTitleLen,
			},
			{
				Label:       "Title URL",
				Placeholder: helpURL,
				Value:       e.URL,
			},
		}, w.submitTitle(e, embedNew))
	}
}

func (w *Wizard) submitTitle(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		values := modalValues(ic)
		title := modalValue(values, 0)

		titleNote := fmt.Sprintf("Embed title has been updated to `%s`.", title)
		if title == e.Title {
			titleNote = "No changes were made to embed title."
		}
		url, urlNote := urlPropUpdate(e.URL, modalValue(values, 1),
			"embed title URL", "Embed title URL has been updated.")

		e.Title = title
		e.URL = url
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		description := fmt.Sprintf("## Updated Embed Title:\n%s\n%s", titleNote, urlNote)
		return followupEmbed(api, ic, description, theme.Success())
	}
}

func (w *Wizard) openDescriptionModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		return w.openModal(api, ic, "description", "Embed Description", []discordgo.TextInput{{
			Label:       "Description",
			Style:       discordgo.TextInputParagraph,
			Placeholder: "My Embed Description",
			Value:       e.Description,
			Required:    true,
			MaxLength:   messages.MaxDescriptionLen,
		}}, w.submitDescription(e, embedNew))
	}
}

func (w *Wizard) submitDescription(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		description := modalValue(modalValues(ic), 0)

		note := fmt.Sprintf("Embed description has been updated to `%s`.", description)
		if description == e.Description {
			note = "No changes were made to embed description."
		}
		e.Description = description
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		return followupEmbed(api, ic, "## Updated Embed Description:\n"+note, theme.Success())
	}
}

func (w *Wizard) openColourModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		value := "#"
		if e.Colour != nil {
			c := *e.Colour
			value = fmt.Sprintf("rgb(%d, %d, %d)", c>>16&0xff, c>>8&0xff, c&0xff)
		}
		return w.openModal(api, ic, "colour", "Embed Colour", []discordgo.TextInput{{
			Label:       "Colour",
			Placeholder: "#000000",
			Value:       value,
			Required:    true,
			MaxLength:   25,
		}}, w.submitColour(e, embedNew))
	}
}

func (w *Wizard) submitColour(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		colour, err := messages.ParseColour(modalValue(modalValues(ic), 0))
		if err != nil {
			description := "## Invalid colour value given.\n" +
				"Please ensure you provide either a **__Hex Code__** or **__RGB__** value.\n" +
				"### Example:\n- rgb(102, 142, 255)\n- #668EFF"
			return followupEmbed(api, ic, description, theme.Error())
		}

		note := fmt.Sprintf("Embed colour has been updated to `#%06x`.", colour)
		if e.Colour != nil && *e.Colour == colour {
			note = "No changes were made to embed colour."
		}
		e.Colour = &colour
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		return followupEmbed(api, ic, "## Updated Embed Colour:\n"+note, colour)
	}
}

func (w *Wizard) openFooterModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		return w.openModal(api, ic, "footer", "Embed Footer", []discordgo.TextInput{
			{
				Label:       "Footer Text",
				Placeholder: "My footer text...",
				Value:       e.FooterText(),
				Required:    true,
				MaxLength:   messages.MaxFooterTextLen,
			},
			{
				Label: "Footer Icon URL",
				Value: e.FooterIconURL(),
			},
		}, w.submitFooter(e, embedNew))
	}
}

func (w *Wizard) submitFooter(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		values := modalValues(ic)
		text := modalValue(values, 0)

		textNote := fmt.Sprintf("Footer text has been updated to `%s`.", text)
		if text == e.FooterText() {
			textNote = "No changes were made to footer text."
		}
		icon, iconNote := w.imagePropUpdate(e.FooterIconURL(), modalValue(values, 1),
			"footer icon", "Footer icon has been updated.")

		e.Footer = &messages.EmbedFooter{Text: text, IconURL: icon}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		description := fmt.Sprintf("## Updated Embed Footer:\n%s\n%s", textNote, iconNote)
		return followupEmbed(api, ic, description, theme.Success())
	}
}

func (w *Wizard) openThumbnailModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		return w.openModal(api, ic, "thumbnail", "Embed Thumbnail", []discordgo.TextInput{{
			Label:       "Thumbnail URL",
			Placeholder: "https://i.imgur.com/...",
			Value:       e.Thumbnail,
		}}, w.submitThumbnail(e, embedNew))
	}
}

func (w *Wizard) submitThumbnail(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		value, note := w.imagePropUpdate(e.Thumbnail, modalValue(modalValues(ic), 0),
			"embed thumbnail", "Embed thumbnail has been updated.")
		e.Thumbnail = value
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		return followupEmbed(api, ic, "## Updated Embed Thumbnail:\n"+note, theme.Success())
	}
}

func (w *Wizard) openImageModal(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		return w.openModal(api, ic, "image", "Embed Image", []discordgo.TextInput{{
			Label:       "Image URL",
			Placeholder: "https://i.imgur.com/...",
			Value:       e.Image,
		}}, w.submitImage(e, embedNew))
	}
}

func (w *Wizard) submitImage(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		value, note := w.imagePropUpdate(e.Image, modalValue(modalValues(ic), 0),
			"embed image", "Embed image has been updated.")
		e.Image = value
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View { return w.embedBuilderView(e, embedNew) }); err != nil {
			return err
		}
		return followupEmbed(api, ic, "## Updated Embed Image:\n"+note, theme.Success())
	}
}
