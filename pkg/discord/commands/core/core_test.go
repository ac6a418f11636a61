package core

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func strOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

func TestOptionExtractor(t *testing.T) {
	ex := NewOptionExtractor([]*discordgo.ApplicationCommandInteractionDataOption{
		strOption("name", "  welcome  "),
		{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(5)},
		{Name: "enabled", Type: discordgo.ApplicationCommandOptionBoolean, Value: true},
		{Name: "role", Type: discordgo.ApplicationCommandOptionRole, Value: "role123"},
		{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "chan456"},
	})

	if got := ex.String("name"); got != "welcome" {
		t.Errorf("String = %q, want welcome", got)
	}
	if got := ex.Int("count"); got != 5 {
		t.Errorf("Int = %d, want 5", got)
	}
	if !ex.Bool("enabled") {
		t.Error("Bool = false, want true")
	}
	if got := ex.Role("role"); got != "role123" {
		t.Errorf("Role = %q", got)
	}
	if got := ex.Channel("channel"); got != "chan456" {
		t.Errorf("Channel = %q", got)
	}
	if ex.HasOption("missing") {
		t.Error("HasOption reported a missing option")
	}
	if _, err := ex.StringRequired("missing"); err == nil {
		t.Error("StringRequired for missing option succeeded")
	}
}

func TestGetSubCommandName(t *testing.T) {
	ic := &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommand,
			Data: discordgo.ApplicationCommandInteractionData{
				Name: "autorole",
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name: "config",
						Type: discordgo.ApplicationCommandOptionSubCommand,
						Options: []*discordgo.ApplicationCommandInteractionDataOption{
							strOption("mode", "on_join"),
						},
					},
				},
			},
		},
	}

	if got := GetSubCommandName(ic); got != "config" {
		t.Errorf("GetSubCommandName = %q", got)
	}
	if got := GetCommandPath(ic); got != "autorole config" {
		t.Errorf("GetCommandPath = %q", got)
	}
	opts := GetSubCommandOptions(ic)
	if len(opts) != 1 || opts[0].Name != "mode" {
		t.Errorf("GetSubCommandOptions = %+v", opts)
	}
}

func TestCompareCommands(t *testing.T) {
	a := &discordgo.ApplicationCommand{Name: "x", Description: "d"}
	b := &discordgo.ApplicationCommand{Name: "x", Description: "d"}
	if !CompareCommands(a, b) {
		t.Error("identical commands reported different")
	}
	b.Description = "other"
	if CompareCommands(a, b) {
		t.Error("different commands reported equal")
	}
}

type fakeSub struct {
	name string
}

func (f fakeSub) Name() string                                  { return f.name }
func (f fakeSub) Description() string                           { return f.name + " desc" }
func (f fakeSub) Options() []*discordgo.ApplicationCommandOption { return nil }
func (f fakeSub) Handle(*Context) error                         { return nil }
func (f fakeSub) RequiresGuild() bool                           { return true }
func (f fakeSub) RequiresPermissions() bool                     { return false }

func TestGroupCommandOptionsOrder(t *testing.T) {
	gc := NewGroupCommand("group", "a group")
	for _, name := range []string{"add", "list", "remove"} {
		gc.AddSubCommand(fakeSub{name: name})
	}

	opts := gc.Options()
	if len(opts) != 3 {
		t.Fatalf("got %d options", len(opts))
	}
	for i, want := range []string{"add", "list", "remove"} {
		if opts[i].Name != want {
			t.Errorf("option %d = %q, want %q", i, opts[i].Name, want)
		}
	}
	if !gc.RequiresGuild() {
		t.Error("group with guild-only subcommand does not require guild")
	}
}

func TestProcessCommaSeparatedList(t *testing.T) {
	got := ProcessCommaSeparatedList(" a, b ,, c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("got %v", got)
	}
	if got := ProcessCommaSeparatedList(""); got != nil {
		t.Errorf("empty input gave %v", got)
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("hello world", 8); got != "hello..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
}
