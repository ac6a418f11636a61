// Package message exposes the reusable-message commands: the interactive
// builder wizard and direct sending of saved messages.
package message

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/builder"
	"github.com/AndehUK/exult-bot/pkg/discord/commands/core"
)

// RegisterMessageCommands registers slash commands under the /message group.
func RegisterMessageCommands(router *core.CommandRouter) {
	group := core.NewGroupCommand("message", "Manage and send reusable messages")
	group.AddSubCommand(newManagerCommand())
	group.AddSubCommand(newSendCommand())

	router.RegisterCommand(group)
	router.RegisterAutocomplete("message", &messageNameAutocomplete{})
}

type managerCommand struct{}

func newManagerCommand() *managerCommand { return &managerCommand{} }

func (c *managerCommand) Name() string { return "manager" }

func (c *managerCommand) Description() string { return "Open the interactive message manager" }

func (c *managerCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *managerCommand) RequiresGuild() bool { return true }

func (c *managerCommand) RequiresPermissions() bool { return true }

func (c *managerCommand) Handle(ctx *core.Context) error {
	botID := ""
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		botID = ctx.Session.State.User.ID
	}
	return builder.Open(ctx.Session, ctx.Components, ctx.Store, ctx.Images, botID, ctx.Interaction)
}

type sendCommand struct{}

func newSendCommand() *sendCommand { return &sendCommand{} }

func (c *sendCommand) Name() string { return "send" }

func (c *sendCommand) Description() string { return "Send one of your saved messages to a channel" }

func (c *sendCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "name",
			Description:  "Name of the saved message",
			Required:     true,
			Autocomplete: true,
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Channel to send the message to",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
	}
}

func (c *sendCommand) RequiresGuild() bool { return true }

func (c *sendCommand) RequiresPermissions() bool { return true }

func (c *sendCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	name, err := extractor.StringRequired("name")
	if err != nil {
		return err
	}
	channelID := extractor.Channel("channel")
	if channelID == "" {
		return core.NewValidationError("channel", "Option \"channel\" is required")
	}

	stored, ok, err := ctx.Store.GetMessage(ctx.GuildID, name)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewCommandError(fmt.Sprintf("Message `%s` does not exist in this server.", name), true)
	}

	botID := ""
	if ctx.Session.State != nil && ctx.Session.State.User != nil {
		botID = ctx.Session.State.User.ID
	}
	perms, err := ctx.Session.UserChannelPermissions(botID, channelID)
	if err != nil {
		return core.NewCommandError(fmt.Sprintf("Failed to resolve my permissions in <#%s>.", channelID), true)
	}
	if perms&discordgo.PermissionViewChannel == 0 {
		return core.NewCommandError(fmt.Sprintf("I do not have permission to read messages in <#%s>.", channelID), true)
	}
	if perms&discordgo.PermissionSendMessages == 0 {
		return core.NewCommandError(fmt.Sprintf("I do not have permission to send messages in <#%s>.", channelID), true)
	}
	if len(stored.Embeds) > 0 && perms&discordgo.PermissionEmbedLinks == 0 {
		return core.NewCommandError(fmt.Sprintf("I do not have permission to embed messages in <#%s>.", channelID), true)
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(stored.Embeds))
	for _, e := range stored.Embeds {
		embeds = append(embeds, e.ToMessageEmbed())
	}
	if _, err := ctx.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: stored.Content,
		Embeds:  embeds,
	}); err != nil {
		return core.NewCommandError(fmt.Sprintf("Failed to send message to <#%s>: `%s`", channelID, err), true)
	}

	return core.NewResponder(ctx.Session).
		WithConfig(core.ResponseConfig{Ephemeral: true}).
		Success(ctx.Interaction, fmt.Sprintf("Your message has been sent to <#%s>!", channelID))
}

// messageNameAutocomplete suggests saved message names, filtered by the text
// typed so far.
type messageNameAutocomplete struct{}

func (a *messageNameAutocomplete) HandleAutocomplete(ctx *core.Context, focusedOption string) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	if focusedOption != "name" {
		return nil, nil
	}

	typed := ""
	if opt, ok := core.HasFocusedOption(ctx.Interaction.ApplicationCommandData().Options); ok {
		if v, isString := opt.Value.(string); isString {
			typed = strings.ToLower(strings.TrimSpace(v))
		}
	}

	infos, err := ctx.Store.ListMessages(ctx.GuildID)
	if err != nil {
		return nil, err
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(infos))
	for _, info := range infos {
		if typed != "" && !strings.Contains(strings.ToLower(info.Name), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  info.Name,
			Value: info.Name,
		})
	}
	return choices, nil
}
