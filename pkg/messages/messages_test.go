package messages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type stubProbe struct {
	valid map[string]bool
}

func (s stubProbe) Probe(_ context.Context, url string) bool {
	return s.valid[url]
}

func noImages() stubProbe {
	return stubProbe{valid: map[string]bool{}}
}

type permissiveProbe struct{}

func (permissiveProbe) Probe(context.Context, string) bool { return true }

func TestParseColourNormalization(t *testing.T) {
	inputs := []string{
		"668EFF",
		"#668EFF",
		"##668EFF",
		"rgb(102, 142, 255)",
		"rgb(102,142,255)",
		"#668eff",
		"RGB(102, 142, 255)",
	}
	want := 0x668EFF
	for _, in := range inputs {
		got, err := ParseColour(in)
		if err != nil {
			t.Errorf("ParseColour(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseColour(%q) = %#x, want %#x", in, got, want)
		}
	}
}

func TestParseColourRejectsJunk(t *testing.T) {
	for _, in := range []string{"", "banana", "#66", "rgb(300, 0, 0)", "rgb(1,2)", "#GGGGGG", "###668EFF"} {
		if _, err := ParseColour(in); err == nil {
			t.Errorf("ParseColour(%q) succeeded, want error", in)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/path/to/thing?q=1",
		"https://cdn.discordapp.com/attachments/1/2/image.png",
		"http://192.168.1.1:8080/x",
	}
	invalid := []string{
		"example.com",
		"ftp://example.com",
		"https://",
		"not a url",
	}
	for _, u := range valid {
		if !ValidateURL(u) {
			t.Errorf("ValidateURL(%q) = false, want true", u)
		}
	}
	for _, u := range invalid {
		if ValidateURL(u) {
			t.Errorf("ValidateURL(%q) = true, want false", u)
		}
	}
}

func TestMinimalReady(t *testing.T) {
	empty := &Embed{}
	if empty.MinimalReady() {
		t.Fatal("empty embed reported ready")
	}
	colourOnly := &Embed{Colour: intPtr(0x123456)}
	if colourOnly.MinimalReady() {
		t.Fatal("colour-only embed reported ready")
	}
	cases := []*Embed{
		{Title: "t"},
		{Description: "d"},
		{Fields: []EmbedField{{Name: "n", Value: "v"}}},
		{Timestamp: timePtr(time.Now())},
		{Author: &EmbedAuthor{Name: "a"}},
		{Thumbnail: "https://example.com/a.png"},
		{Footer: &EmbedFooter{Text: "f"}},
		{Image: "https://example.com/a.png"},
	}
	for i, e := range cases {
		if !e.MinimalReady() {
			t.Errorf("case %d: embed not ready", i)
		}
	}
}

func TestAuthorFooterAccessorsOnUnsetEmbed(t *testing.T) {
	e := &Embed{}
	if e.AuthorName() != "" || e.AuthorIconURL() != "" || e.AuthorURL() != "" {
		t.Error("unset author accessors returned non-empty values")
	}
	if e.FooterText() != "" || e.FooterIconURL() != "" {
		t.Error("unset footer accessors returned non-empty values")
	}

	e.Author = &EmbedAuthor{Name: "a", IconURL: "ai", URL: "au"}
	e.Footer = &EmbedFooter{Text: "f", IconURL: "fi"}
	if e.AuthorName() != "a" || e.AuthorIconURL() != "ai" || e.AuthorURL() != "au" {
		t.Errorf("author accessors = %q %q %q", e.AuthorName(), e.AuthorIconURL(), e.AuthorURL())
	}
	if e.FooterText() != "f" || e.FooterIconURL() != "fi" {
		t.Errorf("footer accessors = %q %q", e.FooterText(), e.FooterIconURL())
	}
}

func TestRemoveFieldsDescending(t *testing.T) {
	e := &Embed{Fields: []EmbedField{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "2"},
		{Name: "c", Value: "3"},
	}}
	// Ascending input order must not shift later removals.
	if err := e.RemoveFields([]int{0, 2}); err != nil {
		t.Fatalf("RemoveFields: %v", err)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != "b" {
		t.Fatalf("got fields %+v, want only b", e.Fields)
	}
}

func TestRemoveFieldsOutOfRangeFailsFast(t *testing.T) {
	e := &Embed{Fields: []EmbedField{{Name: "a", Value: "1"}}}
	if err := e.RemoveFields([]int{0, 5}); err == nil {
		t.Fatal("out-of-range index accepted")
	}
	if len(e.Fields) != 1 {
		t.Fatal("failed removal mutated the embed")
	}
}

func TestDraftAddEmbed(t *testing.T) {
	d := NewDraft("guild")
	if err := d.AddEmbed(&Embed{}); err == nil {
		t.Fatal("empty embed accepted into draft")
	}
	for i := 0; i < MaxEmbeds; i++ {
		if err := d.AddEmbed(&Embed{Title: "t"}); err != nil {
			t.Fatalf("embed %d rejected: %v", i, err)
		}
	}
	if err := d.AddEmbed(&Embed{Title: "eleventh"}); err == nil {
		t.Fatal("embed accepted past the cap")
	}
	if len(d.Embeds) != MaxEmbeds {
		t.Fatalf("draft has %d embeds, want %d", len(d.Embeds), MaxEmbeds)
	}
}

func TestDraftReady(t *testing.T) {
	d := NewDraft("guild")
	if d.Ready() {
		t.Fatal("empty draft reported ready")
	}
	if err := d.SetContent("hello"); err != nil {
		t.Fatal(err)
	}
	if !d.Ready() {
		t.Fatal("draft with content not ready")
	}
	d2 := NewDraft("guild")
	if err := d2.AddEmbed(&Embed{Title: "t"}); err != nil {
		t.Fatal(err)
	}
	if !d2.Ready() {
		t.Fatal("draft with embed not ready")
	}
}

func TestSetContentLimit(t *testing.T) {
	d := NewDraft("guild")
	if err := d.SetContent(strings.Repeat("x", MaxContentLen+1)); err == nil {
		t.Fatal("over-limit content accepted")
	}
	if d.Content != "" {
		t.Fatal("failed SetContent mutated the draft")
	}
}

func TestParsePayloadRejectsBothEmbedKeys(t *testing.T) {
	raw := []byte(`{"content": "hi", "embed": {"title": "a"}, "embeds": [{"title": "b"}]}`)
	if _, err := ParsePayload(context.Background(), raw, noImages()); err == nil {
		t.Fatal("payload with both embed and embeds accepted")
	}
}

func TestParsePayloadSingleEmbed(t *testing.T) {
	raw := []byte(`{"content": "hi", "embed": {"title": "a", "colour": 6721279}}`)
	p, err := ParsePayload(context.Background(), raw, noImages())
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if p.Content != "hi" || len(p.Embeds) != 1 {
		t.Fatalf("got %+v", p)
	}
	if p.Embeds[0].Colour == nil || *p.Embeds[0].Colour != 0x668EFF {
		t.Fatalf("colour = %v, want 0x668EFF", p.Embeds[0].Colour)
	}
}

func TestParsePayloadFieldValidation(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"missing field name", `{"embed": {"fields": [{"value": "v"}]}}`},
		{"missing field value", `{"embed": {"fields": [{"name": "n"}]}}`},
		{"non-bool inline", `{"embed": {"fields": [{"name": "n", "value": "v", "inline": "yes"}]}}`},
		{"author without name", `{"embed": {"author": {"icon_url": "https://example.com/a.png"}}}`},
		{"footer without text", `{"embed": {"footer": {"icon_url": "https://example.com/a.png"}}}`},
		{"bad colour type", `{"embed": {"title": "t", "color": "red"}}`},
		{"bad timestamp", `{"embed": {"title": "t", "timestamp": "yesterday"}}`},
		{"empty embed", `{"embed": {}}`},
		{"bad image url", `{"embed": {"image": "notaurl"}}`},
	}
	for _, tc := range cases {
		if _, err := ParsePayload(context.Background(), []byte(tc.raw), permissiveProbe{}); err == nil {
			t.Errorf("%s: accepted, want error", tc.name)
		}
	}
}

func TestParsePayloadImageProbe(t *testing.T) {
	probe := stubProbe{valid: map[string]bool{"https://example.com/ok.png": true}}
	good := []byte(`{"embed": {"image": "https://example.com/ok.png"}}`)
	if _, err := ParsePayload(context.Background(), good, probe); err != nil {
		t.Fatalf("valid image rejected: %v", err)
	}
	bad := []byte(`{"embed": {"image": "https://example.com/fake.png"}}`)
	if _, err := ParsePayload(context.Background(), bad, probe); err == nil {
		t.Fatal("unprobed image accepted")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	d := NewDraft("guild")
	if err := d.SetContent("announcement"); err != nil {
		t.Fatal(err)
	}
	err := d.AddEmbed(&Embed{
		Title:       "Title",
		Description: "Description",
		URL:         "https://example.com",
		Colour:      intPtr(0x668EFF),
		Timestamp:   &ts,
		Author:      &EmbedAuthor{Name: "Author", IconURL: "https://example.com/a.png", URL: "https://example.com"},
		Footer:      &EmbedFooter{Text: "Footer", IconURL: "https://example.com/f.png"},
		Thumbnail:   "https://example.com/t.png",
		Image:       "https://example.com/i.png",
		Fields: []EmbedField{
			{Name: "one", Value: "1", Inline: true},
			{Name: "two", Value: "2"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	raw, err := ExportPayload(d)
	if err != nil {
		t.Fatalf("ExportPayload: %v", err)
	}
	p, err := ParsePayload(context.Background(), raw, permissiveProbe{})
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if p.Content != d.Content {
		t.Errorf("content = %q, want %q", p.Content, d.Content)
	}
	if diff := cmp.Diff(d.Embeds, p.Embeds); diff != "" {
		t.Errorf("embeds mismatch (-want +got):\n%s", diff)
	}
}

func TestToMessageEmbedConversion(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := &Embed{
		Title:     "t",
		Colour:    intPtr(0x2B2D31),
		Timestamp: &ts,
		Fields:    []EmbedField{{Name: "n", Value: "v", Inline: true}},
	}
	wire := e.ToMessageEmbed()
	back := FromMessageEmbed(wire)
	if diff := cmp.Diff(e, back); diff != "" {
		t.Errorf("conversion mismatch (-want +got):\n%s", diff)
	}
}

func TestSentinelField(t *testing.T) {
	e := &Embed{}
	e.AddInvisibleField(true)
	if len(e.Fields) != 1 || !e.Fields[0].IsSentinel() {
		t.Fatalf("got %+v, want one sentinel field", e.Fields)
	}
	e.Fields[0].Name = "real name"
	if !e.Fields[0].IsSentinel() {
		t.Fatal("field with sentinel value not reported as sentinel")
	}
	e.Fields[0].Value = "real value"
	if e.Fields[0].IsSentinel() {
		t.Fatal("completed field reported as sentinel")
	}
}

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }
