// Package messages holds the message builder domain model: embed and draft
// value objects, their validation rules, and the shareable JSON payload format.
package messages

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Discord-imposed limits enforced on every mutation path.
const (
	MaxTitleLen       = 256
	MaxDescriptionLen = 2048
	MaxFieldNameLen   = 256
	MaxFieldValueLen  = 1024
	MaxFields         = 25
	MaxEmbeds         = 10
	MaxContentLen     = 2000
	MaxAuthorNameLen  = 256
	MaxFooterTextLen  = 2048
)

// Sentinel is the zero-width space used as a placeholder for invisible
// field names and values while a field is under construction.
const Sentinel = "​"

// EmbedAuthor mirrors the author block of a Discord embed.
type EmbedAuthor struct {
	Name    string
	IconURL string
	URL     string
}

// EmbedFooter mirrors the footer block of a Discord embed.
type EmbedFooter struct {
	Text    string
	IconURL string
}

// EmbedField is a single name/value pair within an embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// IsSentinel reports whether the field still carries placeholder content in
// either property.
func (f EmbedField) IsSentinel() bool {
	return f.Name == Sentinel || f.Value == Sentinel
}

// Embed is the builder's embed value object. The zero value is an empty embed
// that is not yet ready to be attached to a draft.
type Embed struct {
	Title       string
	Description string
	URL         string
	Colour      *int
	Timestamp   *time.Time
	Author      *EmbedAuthor
	Footer      *EmbedFooter
	Thumbnail   string
	Image       string
	Fields      []EmbedField
}

// MinimalReady reports whether the embed has at least one renderable property
// set. Discord rejects fully empty embeds, so this gates both the interactive
// confirm button and every bulk import path.
func (e *Embed) MinimalReady() bool {
	return e.Title != "" ||
		e.Description != "" ||
		len(e.Fields) > 0 ||
		e.Timestamp != nil ||
		e.Author != nil ||
		e.Thumbnail != "" ||
		e.Footer != nil ||
		e.Image != ""
}

// AuthorName returns the author name, or "" when no author is set.
func (e *Embed) AuthorName() string {
	if e.Author == nil {
		return ""
	}
	return e.Author.Name
}

// AuthorIconURL returns the author icon URL, or "" when no author is set.
func (e *Embed) AuthorIconURL() string {
	if e.Author == nil {
		return ""
	}
	return e.Author.IconURL
}

// AuthorURL returns the author link URL, or "" when no author is set.
func (e *Embed) AuthorURL() string {
	if e.Author == nil {
		return ""
	}
	return e.Author.URL
}

// FooterText returns the footer text, or "" when no footer is set.
func (e *Embed) FooterText() string {
	if e.Footer == nil {
		return ""
	}
	return e.Footer.Text
}

// FooterIconURL returns the footer icon URL, or "" when no footer is set.
func (e *Embed) FooterIconURL() string {
	if e.Footer == nil {
		return ""
	}
	return e.Footer.IconURL
}

// AddInvisibleField appends a field whose name and value are both the
// zero-width sentinel. The field sub-builder starts from this state.
func (e *Embed) AddInvisibleField(inline bool) {
	e.Fields = append(e.Fields, EmbedField{Name: Sentinel, Value: Sentinel, Inline: inline})
}

// AddNamedField appends a field with the given name and an invisible value.
func (e *Embed) AddNamedField(name string, inline bool) {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: Sentinel, Inline: inline})
}

// Validate checks every populated property against the Discord limits. It does
// not require MinimalReady; an empty embed validates.
func (e *Embed) Validate() error {
	if len(e.Title) > MaxTitleLen {
		return fmt.Errorf("embed title exceeds %d characters", MaxTitleLen)
	}
	if len(e.Description) > MaxDescriptionLen {
		return fmt.Errorf("embed description exceeds %d characters", MaxDescriptionLen)
	}
	if e.Colour != nil && (*e.Colour < 0 || *e.Colour > 0xFFFFFF) {
		return fmt.Errorf("embed colour out of 24-bit range")
	}
	if e.Author != nil {
		if e.Author.Name == "" {
			return fmt.Errorf("embed author requires a name")
		}
		if len(e.Author.Name) > MaxAuthorNameLen {
			return fmt.Errorf("embed author name exceeds %d characters", MaxAuthorNameLen)
		}
	}
	if e.Footer != nil {
		if e.Footer.Text == "" {
			return fmt.Errorf("embed footer requires text")
		}
		if len(e.Footer.Text) > MaxFooterTextLen {
			return fmt.Errorf("embed footer text exceeds %d characters", MaxFooterTextLen)
		}
	}
	if len(e.Fields) > MaxFields {
		return fmt.Errorf("embed exceeds %d fields", MaxFields)
	}
	for i, f := range e.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d is missing a name", i)
		}
		if f.Value == "" {
			return fmt.Errorf("field %d is missing a value", i)
		}
		if len(f.Name) > MaxFieldNameLen {
			return fmt.Errorf("field %d name exceeds %d characters", i, MaxFieldNameLen)
		}
		if len(f.Value) > MaxFieldValueLen {
			return fmt.Errorf("field %d value exceeds %d characters", i, MaxFieldValueLen)
		}
	}
	return nil
}

// ToMessageEmbed converts the value object into the wire representation sent
// to Discord.
func (e *Embed) ToMessageEmbed() *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		URL:         e.URL,
	}
	if e.Colour != nil {
		out.Color = *e.Colour
	}
	if e.Timestamp != nil {
		out.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	if e.Author != nil {
		out.Author = &discordgo.MessageEmbedAuthor{
			Name:    e.Author.Name,
			IconURL: e.Author.IconURL,
			URL:     e.Author.URL,
		}
	}
	if e.Footer != nil {
		out.Footer = &discordgo.MessageEmbedFooter{
			Text:    e.Footer.Text,
			IconURL: e.Footer.IconURL,
		}
	}
	if e.Thumbnail != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.Thumbnail}
	}
	if e.Image != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.Image}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return out
}

// FromMessageEmbed converts a wire embed back into the builder value object.
// Unparseable timestamps are dropped rather than failing the load.
func FromMessageEmbed(src *discordgo.MessageEmbed) *Embed {
	e := &Embed{
		Title:       src.Title,
		Description: src.Description,
		URL:         src.URL,
	}
	if src.Color != 0 {
		c := src.Color
		e.Colour = &c
	}
	if src.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, src.Timestamp); err == nil {
			e.Timestamp = &ts
		}
	}
	if src.Author != nil && src.Author.Name != "" {
		e.Author = &EmbedAuthor{
			Name:    src.Author.Name,
			IconURL: src.Author.IconURL,
			URL:     src.Author.URL,
		}
	}
	if src.Footer != nil && src.Footer.Text != "" {
		e.Footer = &EmbedFooter{
			Text:    src.Footer.Text,
			IconURL: src.Footer.IconURL,
		}
	}
	if src.Thumbnail != nil {
		e.Thumbnail = src.Thumbnail.URL
	}
	if src.Image != nil {
		e.Image = src.Image.URL
	}
	for _, f := range src.Fields {
		e.Fields = append(e.Fields, EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return e
}

// Clone returns a deep copy so modal handlers can stage changes without
// touching the live embed until they commit.
func (e *Embed) Clone() *Embed {
	out := *e
	if e.Colour != nil {
		c := *e.Colour
		out.Colour = &c
	}
	if e.Timestamp != nil {
		ts := *e.Timestamp
		out.Timestamp = &ts
	}
	if e.Author != nil {
		a := *e.Author
		out.Author = &a
	}
	if e.Footer != nil {
		f := *e.Footer
		out.Footer = &f
	}
	out.Fields = append([]EmbedField(nil), e.Fields...)
	return &out
}
