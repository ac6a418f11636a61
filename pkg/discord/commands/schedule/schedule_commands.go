// Package schedule exposes the /schedule command group for scheduling
// delivery of saved messages.
package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/commands/core"
	"github.com/AndehUK/exult-bot/pkg/storage"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// minRepeat guards against schedules that would spam a channel.
const minRepeat = time.Minute

// RegisterScheduleCommands registers slash commands under the /schedule group.
func RegisterScheduleCommands(router *core.CommandRouter) {
	group := core.NewGroupCommand("schedule", "Schedule delivery of saved messages")
	group.AddSubCommand(newAddCommand())
	group.AddSubCommand(newListCommand())
	group.AddSubCommand(newRemoveCommand())

	router.RegisterCommand(group)
}

type addCommand struct{}

func newAddCommand() *addCommand { return &addCommand{} }

func (c *addCommand) Name() string { return "add" }

func (c *addCommand) Description() string { return "Schedule a saved message" }

func (c *addCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "name",
			Description: "Name of the saved message",
			Required:    true,
		},
		{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  "Channel to send the message to",
			Required:     true,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "in",
			Description: "Delay until the first send, e.g. 30m or 2h",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "every",
			Description: "Repeat interval, e.g. 24h. Omit for a one-off send",
			Required:    false,
		},
	}
}

func (c *addCommand) RequiresGuild() bool { return true }

func (c *addCommand) RequiresPermissions() bool { return true }

func (c *addCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	name, err := extractor.StringRequired("name")
	if err != nil {
		return err
	}
	channelID := extractor.Channel("channel")
	if channelID == "" {
		return core.NewValidationError("channel", "Option \"channel\" is required")
	}
	delayInput, err := extractor.StringRequired("in")
	if err != nil {
		return err
	}

	delay, err := time.ParseDuration(delayInput)
	if err != nil || delay <= 0 {
		return core.NewValidationError("in", "Provide a positive duration such as `30m` or `2h`")
	}

	var repeat time.Duration
	if repeatInput := extractor.String("every"); repeatInput != "" {
		repeat, err = time.ParseDuration(repeatInput)
		if err != nil || repeat < minRepeat {
			return core.NewValidationError("every", "Provide a repeat interval of at least one minute, such as `1h` or `24h`")
		}
	}

	_, ok, err := ctx.Store.GetMessage(ctx.GuildID, name)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewCommandError(fmt.Sprintf("Message `%s` does not exist in this server.", name), true)
	}

	nextRun := time.Now().Add(delay)
	id, err := ctx.Store.CreateScheduled(storage.ScheduledMessage{
		GuildID:     ctx.GuildID,
		MessageName: name,
		ChannelID:   channelID,
		RepeatEvery: repeat,
		NextRun:     nextRun,
	})
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("Scheduled message `%s` (#%d) for <#%s> <t:%d:R>.", name, id, channelID, nextRun.Unix())
	if repeat > 0 {
		summary += fmt.Sprintf(" Repeats every %s.", repeat)
	}
	return core.NewResponder(ctx.Session).Success(ctx.Interaction, summary)
}

type listCommand struct{}

func newListCommand() *listCommand { return &listCommand{} }

func (c *listCommand) Name() string { return "list" }

func (c *listCommand) Description() string { return "List this server's scheduled messages" }

func (c *listCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *listCommand) RequiresGuild() bool { return true }

func (c *listCommand) RequiresPermissions() bool { return true }

func (c *listCommand) Handle(ctx *core.Context) error {
	scheduled, err := ctx.Store.ListScheduled(ctx.GuildID)
	if err != nil {
		return err
	}
	if len(scheduled) == 0 {
		return core.NewResponder(ctx.Session).Info(ctx.Interaction, "No messages are scheduled for this server.")
	}

	lines := make([]string, 0, len(scheduled))
	for _, sm := range scheduled {
		line := fmt.Sprintf("`#%d` — `%s` → <#%s>, next <t:%d:R>", sm.ID, sm.MessageName, sm.ChannelID, sm.NextRun.Unix())
		if sm.RepeatEvery > 0 {
			line += fmt.Sprintf(", repeats every %s", sm.RepeatEvery)
		}
		lines = append(lines, line)
	}
	return core.NewResponder(ctx.Session).
		WithConfig(core.ResponseConfig{WithEmbed: true, Title: "Scheduled Messages", Color: theme.Info()}).
		Info(ctx.Interaction, strings.Join(lines, "\n"))
}

type removeCommand struct{}

func newRemoveCommand() *removeCommand { return &removeCommand{} }

func (c *removeCommand) Name() string { return "remove" }

func (c *removeCommand) Description() string { return "Remove a scheduled message" }

func (c *removeCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Schedule ID from /schedule list",
			Required:    true,
		},
	}
}

func (c *removeCommand) RequiresGuild() bool { return true }

func (c *removeCommand) RequiresPermissions() bool { return true }

func (c *removeCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	id := extractor.Int("id")
	if id <= 0 {
		return core.NewValidationError("id", "Option \"id\" is required")
	}

	ok, err := ctx.Store.DeleteScheduled(id, ctx.GuildID)
	if err != nil {
		return err
	}
	if !ok {
		return core.NewCommandError(fmt.Sprintf("No scheduled message with ID `%d` exists in this server.", id), true)
	}
	return core.NewResponder(ctx.Session).Success(ctx.Interaction, fmt.Sprintf("Removed scheduled message `#%d`.", id))
}
