package messages

import (
	"fmt"
	"sort"
)

// Draft is the in-progress message a builder session is working on. A draft is
// owned by exactly one component session, so no locking is needed.
type Draft struct {
	GuildID string
	Content string
	Embeds  []*Embed

	// EditingName is the persisted message name this draft was loaded from.
	// Empty for new drafts; a Save under the same name replaces the original.
	EditingName string
}

// NewDraft returns an empty draft for the given guild.
func NewDraft(guildID string) *Draft {
	return &Draft{GuildID: guildID}
}

// Ready reports whether the draft can be sent: non-empty content or at least
// one embed.
func (d *Draft) Ready() bool {
	return d.Content != "" || len(d.Embeds) > 0
}

// SetContent replaces the message content after checking the length cap.
func (d *Draft) SetContent(content string) error {
	if len(content) > MaxContentLen {
		return fmt.Errorf("message content exceeds %d characters", MaxContentLen)
	}
	d.Content = content
	return nil
}

// AddEmbed appends an embed to the draft. The embed must be minimally ready
// and the draft must be under the embed cap; on failure the draft is unchanged.
func (d *Draft) AddEmbed(e *Embed) error {
	if !e.MinimalReady() {
		return fmt.Errorf("embed has no content")
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if len(d.Embeds) >= MaxEmbeds {
		return fmt.Errorf("message already has %d embeds", MaxEmbeds)
	}
	d.Embeds = append(d.Embeds, e)
	return nil
}

// RemoveEmbed deletes the embed at the given position.
func (d *Draft) RemoveEmbed(index int) error {
	if index < 0 || index >= len(d.Embeds) {
		return fmt.Errorf("no embed at position %d", index)
	}
	d.Embeds = append(d.Embeds[:index], d.Embeds[index+1:]...)
	return nil
}

// RemoveFields deletes the fields at the given indices from the embed,
// processing indices in descending order so earlier removals never shift the
// positions of later ones. Any out-of-range index fails the whole call before
// any removal happens.
func (e *Embed) RemoveFields(indices []int) error {
	seen := make(map[int]struct{}, len(indices))
	ordered := make([]int, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(e.Fields) {
			return fmt.Errorf("no field at position %d", idx)
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		ordered = append(ordered, idx)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))
	for _, idx := range ordered {
		e.Fields = append(e.Fields[:idx], e.Fields[idx+1:]...)
	}
	return nil
}
