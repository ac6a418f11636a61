// Package moderation exposes the /moderation command group.
package moderation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/commands/core"
)

// RegisterModerationCommands registers slash commands under the /moderation group.
func RegisterModerationCommands(router *core.CommandRouter) {
	group := core.NewGroupCommand("moderation", "Moderation commands")
	group.AddSubCommand(newBanCommand())
	group.AddSubCommand(newMassBanCommand())
	group.AddSubCommand(newPurgeCommand())

	router.RegisterCommand(group)
}

type banCommand struct{}

func newBanCommand() *banCommand { return &banCommand{} }

func (c *banCommand) Name() string { return "ban" }

func (c *banCommand) Description() string { return "Ban a user by ID" }

func (c *banCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "user",
			Description: "User ID to ban",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the ban",
			Required:    false,
		},
	}
}

func (c *banCommand) RequiresGuild() bool { return true }

func (c *banCommand) RequiresPermissions() bool { return true }

func (c *banCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	userID, err := extractor.StringRequired("user")
	if err != nil {
		return err
	}

	reason := extractor.String("reason")
	if reason == "" {
		reason = "No reason provided"
	}

	if err := ctx.Session.GuildBanCreateWithReason(ctx.GuildID, userID, reason, 0); err != nil {
		return core.NewCommandError(fmt.Sprintf("Failed to ban user %s: %v", userID, err), true)
	}

	message := fmt.Sprintf("Banned user `%s`. Reason: %s", userID, reason)
	return core.NewResponder(ctx.Session).Success(ctx.Interaction, message)
}

type massBanCommand struct{}

func newMassBanCommand() *massBanCommand { return &massBanCommand{} }

func (c *massBanCommand) Name() string { return "massban" }

func (c *massBanCommand) Description() string { return "Ban multiple users by ID" }

func (c *massBanCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "members",
			Description: "Space or comma separated user IDs",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "reason",
			Description: "Reason for the bans",
			Required:    false,
		},
	}
}

func (c *massBanCommand) RequiresGuild() bool { return true }

func (c *massBanCommand) RequiresPermissions() bool { return true }

func (c *massBanCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	membersInput, err := extractor.StringRequired("members")
	if err != nil {
		return err
	}

	memberIDs := parseMemberIDs(membersInput)
	if len(memberIDs) == 0 {
		return core.NewCommandError("No member IDs provided", true)
	}

	reason := extractor.String("reason")
	if reason == "" {
		reason = "No reason provided"
	}

	var failed []string
	for _, memberID := range memberIDs {
		if err := ctx.Session.GuildBanCreateWithReason(ctx.GuildID, memberID, reason, 0); err != nil {
			failed = append(failed, fmt.Sprintf("%s (%v)", memberID, err))
		}
	}

	message := buildMassBanMessage(memberIDs, failed, reason)
	return core.NewResponder(ctx.Session).Success(ctx.Interaction, message)
}

func parseMemberIDs(input string) []string {
	rawIDs := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})

	unique := make(map[string]struct{})
	for _, id := range rawIDs {
		clean := strings.TrimSpace(id)
		if clean == "" {
			continue
		}
		unique[clean] = struct{}{}
	}

	ids := make([]string, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func buildMassBanMessage(memberIDs, failed []string, reason string) string {
	message := fmt.Sprintf("Banned %d user(s). Reason: %s", len(memberIDs)-len(failed), reason)
	if len(failed) == 0 {
		return message
	}

	return fmt.Sprintf("%s\nFailed: %s", message, strings.Join(failed, "; "))
}

type purgeCommand struct{}

func newPurgeCommand() *purgeCommand { return &purgeCommand{} }

func (c *purgeCommand) Name() string { return "purge" }

func (c *purgeCommand) Description() string { return "Bulk delete recent messages in this channel" }

func (c *purgeCommand) Options() []*discordgo.ApplicationCommandOption {
	minCount, maxCount := float64(1), float64(100)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "count",
			Description: "How many messages to delete (1-100)",
			Required:    true,
			MinValue:    &minCount,
			MaxValue:    maxCount,
		},
	}
}

func (c *purgeCommand) RequiresGuild() bool { return true }

func (c *purgeCommand) RequiresPermissions() bool { return true }

func (c *purgeCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	count := int(extractor.Int("count"))
	if count < 1 || count > 100 {
		return core.NewValidationError("count", "Count must be between 1 and 100")
	}

	channelID := ctx.Interaction.ChannelID
	msgs, err := ctx.Session.ChannelMessages(channelID, count, "", "", "")
	if err != nil {
		return core.NewCommandError(fmt.Sprintf("Failed to fetch messages: %v", err), true)
	}
	if len(msgs) == 0 {
		return core.NewCommandError("No messages to delete", true)
	}

	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	if err := ctx.Session.ChannelMessagesBulkDelete(channelID, ids); err != nil {
		return core.NewCommandError(fmt.Sprintf("Failed to delete messages: %v", err), true)
	}

	return core.NewResponder(ctx.Session).
		WithConfig(core.ResponseConfig{Ephemeral: true}).
		Success(ctx.Interaction, fmt.Sprintf("Deleted %d message(s).", len(ids)))
}
