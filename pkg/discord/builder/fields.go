package builder

import (
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// fieldsView manages one embed's fields.
func (w *Wizard) fieldsView(e *messages.Embed, embedNew bool) *components.View {
	v := components.NewView().AddEmbed(builderEmbed())

	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SuccessButton,
		Label:    "Add Field",
		Disabled: len(e.Fields) >= messages.MaxFields,
		CustomID: w.sess.CustomID("fields:add"),
	}, w.handleAddField(e, embedNew))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.PrimaryButton,
		Label:    "Edit Field",
		Disabled: len(e.Fields) == 0,
		CustomID: w.sess.CustomID("fields:edit"),
	}, w.goTo(func() *components.View { return w.fieldSelectorView(e, embedNew, false) }))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Delete Field",
		Disabled: len(e.Fields) == 0,
		CustomID: w.sess.CustomID("fields:delete"),
	}, w.goTo(func() *components.View { return w.fieldSelectorView(e, embedNew, true) }))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("fields:back"),
	}, w.goTo(func() *components.View { return w.embedBuilderView(e, embedNew) }))
	w.addCancel(v, row)

	return v
}

// handleAddField seeds an invisible placeholder field and opens the field
// builder on it.
func (w *Wizard) handleAddField(e *messages.Embed, embedNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		e.AddInvisibleField(false)
		w.sess.SetView(w.fieldBuilderView(e, embedNew, len(e.Fields)-1, true))
		return w.sess.Respond(api, ic)
	}
}

// fieldBuilderView edits one field of an embed. Confirm only unlocks once
// both the name and the value have been replaced with real content.
func (w *Wizard) fieldBuilderView(e *messages.Embed, embedNew bool, fieldID int, fieldNew bool) *components.View {
	f := e.Fields[fieldID]
	v := components.NewView().AddEmbed(builderEmbed())

	ready := f.Name != messages.Sentinel && f.Value != messages.Sentinel

	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(f.Name != messages.Sentinel),
		Label:    "Field Name",
		CustomID: w.sess.CustomID("field:name"),
	}, w.openFieldPropModal(e, embedNew, fieldID, fieldNew, "name"))
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(f.Value != messages.Sentinel),
		Label:    "Field Value",
		CustomID: w.sess.CustomID("field:value"),
	}, w.openFieldPropModal(e, embedNew, fieldID, fieldNew, "value"))
	v.AddButton(row, discordgo.Button{
		Style:    statusStyle(f.Inline),
		Label:    inlineLabel(f.Inline),
		CustomID: w.sess.CustomID("field:inline"),
	}, w.toggleFieldInline(e, embedNew, fieldID, fieldNew))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    completedStyle(ready),
		Label:    "Confirm",
		Disabled: !ready,
		CustomID: w.sess.CustomID("field:confirm"),
	}, w.confirmField(e, embedNew, fieldID, fieldNew))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("field:back"),
	}, w.abandonField(e, embedNew, fieldID, fieldNew))
	w.addCancel(v, row)

	return v
}

func inlineLabel(inline bool) string {
	if inline {
		return "Inline"
	}
	return "Not Inline"
}

func (w *Wizard) openFieldPropModal(e *messages.Embed, embedNew bool, fieldID int, fieldNew bool, prop string) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		f := e.Fields[fieldID]
		label, current, maxLen := "Field Name", f.Name, messages.MaxFieldNameLen
		if prop == "value" {
			label, current, maxLen = "Field Value", f.Value, messages.MaxFieldValueLen
		}
		if current == messages.Sentinel {
			current = ""
		}
		return w.openModal(api, ic, "field_"+prop, "Embed "+label, []discordgo.TextInput{{
			Label:     label,
			Value:     current,
			Required:  true,
			MaxLength: maxLen,
		}}, w.submitFieldProp(e, embedNew, fieldID, fieldNew, prop))
	}
}

func (w *Wizard) submitFieldProp(e *messages.Embed, embedNew bool, fieldID int, fieldNew bool, prop string) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		submitted := modalValue(modalValues(ic), 0)

		old := e.Fields[fieldID].Name
		if prop == "value" {
			old = e.Fields[fieldID].Value
		}
		note := fmt.Sprintf("Field %s has been updated to `%s`.", prop, submitted)
		if old == submitted {
			note = fmt.Sprintf("No changes were made to field %s.", prop)
		}

		if prop == "value" {
			e.Fields[fieldID].Value = submitted
		} else {
			e.Fields[fieldID].Name = submitted
		}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View {
			return w.fieldBuilderView(e, embedNew, fieldID, fieldNew)
		}); err != nil {
			return err
		}
		header := "## Updated Embed Field Name:\n"
		if prop == "value" {
			header = "## Updated Embed Field Value:\n"
		}
		return followupEmbed(api, ic, header+note, theme.Success())
	}
}

func (w *Wizard) toggleFieldInline(e *messages.Embed, embedNew bool, fieldID int, fieldNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		e.Fields[fieldID].Inline = !e.Fields[fieldID].Inline
		status := "`❌` Not Inline"
		if e.Fields[fieldID].Inline {
			status = "`✅` Inline"
		}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View {
			return w.fieldBuilderView(e, embedNew, fieldID, fieldNew)
		}); err != nil {
			return err
		}
		return followupEmbed(api, ic, "## Updated Embed Field Inline:\n"+status, theme.Success())
	}
}

func (w *Wizard) confirmField(e *messages.Embed, embedNew bool, fieldID int, fieldNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if err := ack(api, ic); err != nil {
			return err
		}
		action := "updated"
		if fieldNew {
			action = "created"
		}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View {
			return w.embedBuilderView(e, embedNew)
		}); err != nil {
			return err
		}
		description := fmt.Sprintf("## Embed Field %s:\nField %d has been %s!", action, fieldID+1, action)
		return followupEmbed(api, ic, description, theme.Success())
	}
}

// abandonField backs out of the field builder. A never-touched placeholder
// field is dropped so it cannot make the embed look ready.
func (w *Wizard) abandonField(e *messages.Embed, embedNew bool, fieldID int, fieldNew bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		if fieldNew && fieldID == len(e.Fields)-1 {
			f := e.Fields[fieldID]
			if f.Name == messages.Sentinel && f.Value == messages.Sentinel {
				e.Fields = e.Fields[:fieldID]
			}
		}
		w.sess.SetView(w.embedBuilderView(e, embedNew))
		return w.sess.Respond(api, ic)
	}
}

// fieldSelectorView picks fields for editing (single) or deletion (multi).
func (w *Wizard) fieldSelectorView(e *messages.Embed, embedNew bool, del bool) *components.View {
	options := make([]discordgo.SelectMenuOption, 0, len(e.Fields))
	for i, f := range e.Fields {
		label := f.Name
		if label == messages.Sentinel {
			label = fmt.Sprintf("(unnamed field %d)", i+1)
		}
		options = append(options, discordgo.SelectMenuOption{
			Label: truncateLabel(label),
			Value: strconv.Itoa(i),
		})
	}

	maxValues := 1
	if del {
		maxValues = len(options)
	}

	v := components.NewView().AddEmbed(builderEmbed())
	row := v.Row()
	v.AddSelect(row, discordgo.SelectMenu{
		CustomID:    w.sess.CustomID("field:select"),
		Placeholder: "Select an Embed Field!",
		MaxValues:   maxValues,
		Options:     options,
	}, w.handleFieldSelection(e, embedNew, del))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: w.sess.CustomID("field:select:back"),
	}, w.goTo(func() *components.View { return w.fieldsView(e, embedNew) }))
	w.addCancel(v, row)

	return v
}

func (w *Wizard) handleFieldSelection(e *messages.Embed, embedNew bool, del bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		values := ic.MessageComponentData().Values
		if len(values) == 0 {
			return nil
		}
		if !del {
			pos, err := strconv.Atoi(values[0])
			if err != nil || pos < 0 || pos >= len(e.Fields) {
				return fmt.Errorf("invalid field selection")
			}
			w.sess.SetView(w.fieldBuilderView(e, embedNew, pos, false))
			return w.sess.Respond(api, ic)
		}

		if err := ack(api, ic); err != nil {
			return err
		}
		indices := make([]int, 0, len(values))
		for _, v := range values {
			pos, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid field selection")
			}
			indices = append(indices, pos)
		}
		if err := e.RemoveFields(indices); err != nil {
			return followupText(api, ic, "`❌` "+err.Error())
		}
		w.sess.MarkEdited()
		if err := w.rerender(api, ic, func() *components.View {
			return w.embedBuilderView(e, embedNew)
		}); err != nil {
			return err
		}
		description := fmt.Sprintf("Successfully deleted %d/%d embed fields.", len(indices), len(values))
		return followupEmbed(api, ic, "## Embed Fields Deleted:\n"+description, theme.Success())
	}
}
