// Package usage exposes the /usage command group, a leaderboard over the
// per-command usage counters the router records.
package usage

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/commands/core"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

const defaultLimit = 10

// RegisterUsageCommands registers slash commands under the /usage group.
func RegisterUsageCommands(router *core.CommandRouter) {
	group := core.NewGroupCommand("usage", "Command usage statistics")
	group.AddSubCommand(newTopCommand())
	group.AddSubCommand(newInvokersCommand())

	router.RegisterCommand(group)
}

type topCommand struct{}

func newTopCommand() *topCommand { return &topCommand{} }

func (c *topCommand) Name() string { return "top" }

func (c *topCommand) Description() string { return "Show the most used commands" }

func (c *topCommand) Options() []*discordgo.ApplicationCommandOption {
	minLimit, maxLimit := float64(1), float64(25)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "limit",
			Description: "How many commands to list (default 10)",
			Required:    false,
			MinValue:    &minLimit,
			MaxValue:    maxLimit,
		},
	}
}

func (c *topCommand) RequiresGuild() bool { return false }

func (c *topCommand) RequiresPermissions() bool { return false }

func (c *topCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))
	limit := int(extractor.Int("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := ctx.Store.TopUsage(limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return core.NewResponder(ctx.Session).Info(ctx.Interaction, "No command usage has been recorded yet.")
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		lines = append(lines, fmt.Sprintf("%d. `/%s` — %d uses", i+1, row.CommandName, row.Uses))
	}
	return core.NewResponder(ctx.Session).
		WithConfig(core.ResponseConfig{WithEmbed: true, Title: "Top Commands", Color: theme.Info()}).
		Info(ctx.Interaction, strings.Join(lines, "\n"))
}

type invokersCommand struct{}

func newInvokersCommand() *invokersCommand { return &invokersCommand{} }

func (c *invokersCommand) Name() string { return "invokers" }

func (c *invokersCommand) Description() string { return "Show who uses a command the most" }

func (c *invokersCommand) Options() []*discordgo.ApplicationCommandOption {
	minLimit, maxLimit := float64(1), float64(25)
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "command",
			Description: "Full command path, e.g. \"message manager\"",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "limit",
			Description: "How many users to list (default 10)",
			Required:    false,
			MinValue:    &minLimit,
			MaxValue:    maxLimit,
		},
	}
}

func (c *invokersCommand) RequiresGuild() bool { return false }

func (c *invokersCommand) RequiresPermissions() bool { return false }

func (c *invokersCommand) Handle(ctx *core.Context) error {
	extractor := core.NewOptionExtractor(core.GetSubCommandOptions(ctx.Interaction))

	command, err := extractor.StringRequired("command")
	if err != nil {
		return err
	}
	limit := int(extractor.Int("limit"))
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := ctx.Store.TopInvokers(command, limit)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return core.NewResponder(ctx.Session).Info(ctx.Interaction,
			fmt.Sprintf("No usage has been recorded for `/%s` yet.", command))
	}

	lines := make([]string, 0, len(rows))
	for i, row := range rows {
		lines = append(lines, fmt.Sprintf("%d. <@%s> — %d uses", i+1, row.InvokerID, row.Uses))
	}
	return core.NewResponder(ctx.Session).
		WithConfig(core.ResponseConfig{WithEmbed: true, Title: fmt.Sprintf("Top Invokers of /%s", command), Color: theme.Info()}).
		Info(ctx.Interaction, strings.Join(lines, "\n"))
}
