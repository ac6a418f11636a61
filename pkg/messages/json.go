package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// jsonPayload is the shareable message format the JSON editor accepts. Exactly
// one of Embed/Embeds may be present.
type jsonPayload struct {
	Content *string           `json:"content,omitempty"`
	Embed   *jsonEmbed        `json:"embed,omitempty"`
	Embeds  []json.RawMessage `json:"embeds,omitempty"`
}

type jsonEmbed struct {
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	URL         string          `json:"url,omitempty"`
	Color       json.RawMessage `json:"color,omitempty"`
	Colour      json.RawMessage `json:"colour,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Thumbnail   string          `json:"thumbnail,omitempty"`
	Image       string          `json:"image,omitempty"`
	Author      *jsonAuthor     `json:"author,omitempty"`
	Footer      *jsonFooter     `json:"footer,omitempty"`
	Fields      []jsonField     `json:"fields,omitempty"`
}

type jsonAuthor struct {
	Name    *string `json:"name,omitempty"`
	IconURL string  `json:"icon_url,omitempty"`
	URL     string  `json:"url,omitempty"`
}

type jsonFooter struct {
	Text    *string `json:"text,omitempty"`
	IconURL string  `json:"icon_url,omitempty"`
}

type jsonField struct {
	Name   *string         `json:"name,omitempty"`
	Value  *string         `json:"value,omitempty"`
	Inline json.RawMessage `json:"inline,omitempty"`
}

// Payload is the validated result of parsing a shareable JSON document. The
// caller applies it to a draft in one step, so a parse failure never leaves a
// draft half-updated.
type Payload struct {
	Content string
	Embeds  []*Embed
}

// ParsePayload validates a JSON editor submission. Either a single `embed`
// object or an `embeds` array is accepted, never both. Validation matches the
// interactive builder: any invalid property aborts the whole parse with a
// descriptive error and nothing is returned.
func ParsePayload(ctx context.Context, raw []byte, probe ImageValidator) (*Payload, error) {
	// Detect embed/embeds coexistence before typed decoding.
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("invalid JSON data provided: %w", err)
	}
	_, hasEmbed := keys["embed"]
	_, hasEmbeds := keys["embeds"]
	if hasEmbed && hasEmbeds {
		return nil, fmt.Errorf("found both `embed` and `embeds` properties, please provide only one of them")
	}

	var p jsonPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid JSON data provided: %w", err)
	}

	out := &Payload{}
	if p.Content != nil {
		if len(*p.Content) > MaxContentLen {
			return nil, fmt.Errorf("message content exceeds %d characters", MaxContentLen)
		}
		out.Content = *p.Content
	}

	switch {
	case hasEmbed:
		if p.Embed == nil {
			return nil, fmt.Errorf("embed property must be an object representing a valid embed")
		}
		e, err := embedFromJSON(ctx, p.Embed, probe)
		if err != nil {
			return nil, err
		}
		out.Embeds = append(out.Embeds, e)
	case hasEmbeds:
		if len(p.Embeds) > MaxEmbeds {
			return nil, fmt.Errorf("a message may have at most %d embeds", MaxEmbeds)
		}
		for pos, rawEmbed := range p.Embeds {
			var je jsonEmbed
			if err := json.Unmarshal(rawEmbed, &je); err != nil {
				return nil, fmt.Errorf("embed %d must be an object representing a valid embed", pos)
			}
			e, err := embedFromJSON(ctx, &je, probe)
			if err != nil {
				return nil, fmt.Errorf("embed `%d`: %w", pos, err)
			}
			out.Embeds = append(out.Embeds, e)
		}
	}
	return out, nil
}

func embedFromJSON(ctx context.Context, src *jsonEmbed, probe ImageValidator) (*Embed, error) {
	e := &Embed{
		Title:       src.Title,
		Description: src.Description,
		URL:         src.URL,
	}

	// Both spellings accepted, `color` wins when both are present.
	colourRaw := src.Color
	if colourRaw == nil {
		colourRaw = src.Colour
	}
	if colourRaw != nil {
		var c int
		if err := json.Unmarshal(colourRaw, &c); err != nil || c < 0 || c > 0xFFFFFF {
			return nil, fmt.Errorf("invalid value given for key `color`")
		}
		e.Colour = &c
	}

	if src.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, src.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid value given for key `timestamp`, value must be a valid timestamp")
		}
		e.Timestamp = &ts
	}

	if src.Thumbnail != "" {
		if !ValidateURL(src.Thumbnail) || !probe.Probe(ctx, src.Thumbnail) {
			return nil, fmt.Errorf("embed thumbnail must be a direct image url")
		}
		e.Thumbnail = src.Thumbnail
	}
	if src.Image != "" {
		if !ValidateURL(src.Image) || !probe.Probe(ctx, src.Image) {
			return nil, fmt.Errorf("embed image must be a direct image url")
		}
		e.Image = src.Image
	}

	if src.Author != nil {
		if src.Author.Name == nil || *src.Author.Name == "" || len(*src.Author.Name) > MaxAuthorNameLen {
			return nil, fmt.Errorf("embed author name must exist and be at most %d characters in length", MaxAuthorNameLen)
		}
		author := &EmbedAuthor{Name: *src.Author.Name}
		if src.Author.IconURL != "" {
			if !ValidateURL(src.Author.IconURL) || !probe.Probe(ctx, src.Author.IconURL) {
				return nil, fmt.Errorf("embed author icon url must be a direct image url")
			}
			author.IconURL = src.Author.IconURL
		}
		if src.Author.URL != "" {
			if !ValidateURL(src.Author.URL) {
				return nil, fmt.Errorf("embed author url must be a valid url")
			}
			author.URL = src.Author.URL
		}
		e.Author = author
	}

	if src.Footer != nil {
		if src.Footer.Text == nil || *src.Footer.Text == "" || len(*src.Footer.Text) > MaxFooterTextLen {
			return nil, fmt.Errorf("embed footer text must exist and be at most %d characters in length", MaxFooterTextLen)
		}
		footer := &EmbedFooter{Text: *src.Footer.Text}
		if src.Footer.IconURL != "" {
			if !ValidateURL(src.Footer.IconURL) || !probe.Probe(ctx, src.Footer.IconURL) {
				return nil, fmt.Errorf("embed footer icon url must be a direct image url")
			}
			footer.IconURL = src.Footer.IconURL
		}
		e.Footer = footer
	}

	if len(src.Fields) > MaxFields {
		return nil, fmt.Errorf("an embed may have at most %d fields", MaxFields)
	}
	for pos, f := range src.Fields {
		if f.Name == nil {
			return nil, fmt.Errorf("missing property `name` in field `%d`", pos)
		}
		if f.Value == nil {
			return nil, fmt.Errorf("missing property `value` in field `%d`", pos)
		}
		if *f.Name == "" || len(*f.Name) > MaxFieldNameLen {
			return nil, fmt.Errorf("embed field %d name must be between 1 and %d characters in length", pos, MaxFieldNameLen)
		}
		if *f.Value == "" || len(*f.Value) > MaxFieldValueLen {
			return nil, fmt.Errorf("embed field %d value must be between 1 and %d characters in length", pos, MaxFieldValueLen)
		}
		inline := false
		if f.Inline != nil {
			if err := json.Unmarshal(f.Inline, &inline); err != nil {
				return nil, fmt.Errorf("field %d inline must be a boolean", pos)
			}
		}
		e.Fields = append(e.Fields, EmbedField{Name: *f.Name, Value: *f.Value, Inline: inline})
	}

	if len(e.Title) > MaxTitleLen {
		return nil, fmt.Errorf("embed title exceeds %d characters", MaxTitleLen)
	}
	if len(e.Description) > MaxDescriptionLen {
		return nil, fmt.Errorf("embed description exceeds %d characters", MaxDescriptionLen)
	}
	if e.URL != "" && !ValidateURL(e.URL) {
		return nil, fmt.Errorf("embed url must be a valid url")
	}
	if !e.MinimalReady() {
		return nil, fmt.Errorf("embed has no content")
	}
	return e, nil
}

// ExportPayload serializes a draft into the shareable JSON document shown in
// the JSON editor. The output round-trips through ParsePayload.
func ExportPayload(d *Draft) ([]byte, error) {
	out := struct {
		Content string            `json:"content"`
		Embeds  []json.RawMessage `json:"embeds"`
	}{Content: d.Content, Embeds: []json.RawMessage{}}
	for _, e := range d.Embeds {
		je := jsonEmbed{
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Thumbnail:   e.Thumbnail,
			Image:       e.Image,
		}
		if e.Colour != nil {
			raw, err := json.Marshal(*e.Colour)
			if err != nil {
				return nil, err
			}
			je.Color = raw
		}
		if e.Timestamp != nil {
			je.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		if e.Author != nil {
			name := e.Author.Name
			je.Author = &jsonAuthor{Name: &name, IconURL: e.Author.IconURL, URL: e.Author.URL}
		}
		if e.Footer != nil {
			text := e.Footer.Text
			je.Footer = &jsonFooter{Text: &text, IconURL: e.Footer.IconURL}
		}
		for _, f := range e.Fields {
			name, value := f.Name, f.Value
			inline, err := json.Marshal(f.Inline)
			if err != nil {
				return nil, err
			}
			je.Fields = append(je.Fields, jsonField{Name: &name, Value: &value, Inline: inline})
		}
		raw, err := json.Marshal(je)
		if err != nil {
			return nil, err
		}
		out.Embeds = append(out.Embeds, raw)
	}
	return json.MarshalIndent(out, "", "  ")
}
