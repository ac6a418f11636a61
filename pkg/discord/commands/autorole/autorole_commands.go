// Package autorole exposes the /autorole configuration command. The config
// itself is an interactive component view: toggles for status and mode plus
// role selects for managing the assigned roles.
package autorole

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/commands/core"
	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/storage"
	"github.com/AndehUK/exult-bot/pkg/theme"
)

// RegisterAutoroleCommands registers slash commands under the /autorole group.
func RegisterAutoroleCommands(router *core.CommandRouter) {
	group := core.NewGroupCommand("autorole", "Automatically assign roles to new members")
	group.AddSubCommand(newConfigCommand())

	router.RegisterCommand(group)
}

type configCommand struct{}

func newConfigCommand() *configCommand { return &configCommand{} }

func (c *configCommand) Name() string { return "config" }

func (c *configCommand) Description() string { return "Configure autoroles for this server" }

func (c *configCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *configCommand) RequiresGuild() bool { return true }

func (c *configCommand) RequiresPermissions() bool { return true }

func (c *configCommand) Handle(ctx *core.Context) error {
	sess := ctx.Components.NewSession(ctx.UserID, ctx.GuildID)
	cv := &configView{sess: sess, mgr: ctx.Components, store: ctx.Store}

	v := cv.view()
	sess.SetView(v)
	err := ctx.Session.InteractionRespond(ctx.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     v.Embeds,
			Components: v.Components(),
		},
	})
	if err != nil {
		ctx.Components.Close(sess)
		return err
	}
	if msg, err := ctx.Session.InteractionResponse(ctx.Interaction.Interaction); err == nil {
		sess.Bind(msg.ChannelID, msg.ID)
	} else {
		log.Discord().Warn("failed to resolve autorole config message", "error", err)
	}
	return nil
}

// configView drives the interactive autorole configuration.
type configView struct {
	sess  *components.Session
	mgr   *components.Manager
	store *storage.Store
}

func (cv *configView) config() storage.AutoroleConfig {
	cfg, ok, err := cv.store.GetAutoroleConfig(cv.sess.GuildID)
	if err != nil {
		log.Discord().Warn("failed to load autorole config", "guild_id", cv.sess.GuildID, "error", err)
	}
	if !ok {
		cfg = storage.AutoroleConfig{GuildID: cv.sess.GuildID, Mode: storage.AutoroleModeOnJoin}
	}
	return cfg
}

func (cv *configView) roles() []string {
	roles, err := cv.store.ListAutoroles(cv.sess.GuildID)
	if err != nil {
		log.Discord().Warn("failed to list autoroles", "guild_id", cv.sess.GuildID, "error", err)
	}
	return roles
}

func modeLabel(mode string) string {
	switch mode {
	case storage.AutoroleModeOnJoin:
		return "On Join"
	case storage.AutoroleModeOnVerify:
		return "On Verify"
	default:
		return mode
	}
}

func statusLabel(enabled bool) string {
	if enabled {
		return "Enabled"
	}
	return "Disabled"
}

func (cv *configView) view() *components.View {
	cfg := cv.config()
	roles := cv.roles()

	v := components.NewView().AddEmbed(&discordgo.MessageEmbed{
		Title:       "Autoroles Config",
		Description: "Use the buttons below to configure automatic role assignment for new members!",
		Color:       theme.Info(),
	})

	style := discordgo.DangerButton
	if cfg.Enabled {
		style = discordgo.SuccessButton
	}

	row := v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    style,
		Label:    statusLabel(cfg.Enabled),
		CustomID: cv.sess.CustomID("autorole:toggle"),
	}, cv.toggleStatus)
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.PrimaryButton,
		Label:    "Mode: " + modeLabel(cfg.Mode),
		CustomID: cv.sess.CustomID("autorole:mode"),
	}, cv.toggleMode)
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SecondaryButton,
		Label:    fmt.Sprintf("View Autoroles (%d)", len(roles)),
		Disabled: len(roles) == 0,
		CustomID: cv.sess.CustomID("autorole:view"),
	}, cv.viewRoles)

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SuccessButton,
		Label:    "Add Autoroles",
		Emoji:    &discordgo.ComponentEmoji{Name: "➕"},
		CustomID: cv.sess.CustomID("autorole:add"),
	}, cv.goToSelector(false))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.SuccessButton,
		Label:    "Remove Autoroles",
		Emoji:    &discordgo.ComponentEmoji{Name: "➖"},
		CustomID: cv.sess.CustomID("autorole:remove"),
	}, cv.goToSelector(true))
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Cancel",
		CustomID: cv.sess.CustomID("autorole:cancel"),
	}, cv.cancel)

	return v
}

func (cv *configView) cancel(api components.API, ic *discordgo.InteractionCreate) error {
	cv.mgr.Close(cv.sess)
	if err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		return err
	}
	if ic.Message == nil {
		return nil
	}
	return api.ChannelMessageDelete(ic.ChannelID, ic.Message.ID)
}

func (cv *configView) toggleStatus(api components.API, ic *discordgo.InteractionCreate) error {
	cfg := cv.config()
	cfg.Enabled = !cfg.Enabled
	if err := cv.store.SetAutoroleConfig(cfg); err != nil {
		return err
	}
	cv.sess.MarkEdited()
	cv.sess.SetView(cv.view())
	return cv.sess.Respond(api, ic)
}

func (cv *configView) toggleMode(api components.API, ic *discordgo.InteractionCreate) error {
	cfg := cv.config()
	if cfg.Mode == storage.AutoroleModeOnJoin {
		cfg.Mode = storage.AutoroleModeOnVerify
	} else {
		cfg.Mode = storage.AutoroleModeOnJoin
	}
	if err := cv.store.SetAutoroleConfig(cfg); err != nil {
		return err
	}
	cv.sess.MarkEdited()
	cv.sess.SetView(cv.view())
	return cv.sess.Respond(api, ic)
}

func (cv *configView) viewRoles(api components.API, ic *discordgo.InteractionCreate) error {
	cfg := cv.config()
	roles := cv.roles()
	if len(roles) == 0 {
		return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: "No autoroles have been configured for this server!",
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
	}

	mentions := make([]string, 0, len(roles))
	for _, id := range roles {
		mentions = append(mentions, "- <@&"+id+">")
	}
	description := fmt.Sprintf("## Autoroles\n**__Status:__** %s\n**__Mode:__** %s\n### Roles\n%s",
		statusLabel(cfg.Enabled), modeLabel(cfg.Mode), strings.Join(mentions, "\n"))
	return api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{{Description: description, Color: theme.Success()}},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
}

// goToSelector swaps to the role-select page for adding or removing roles.
func (cv *configView) goToSelector(remove bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		cv.sess.SetView(cv.selectorView(remove))
		return cv.sess.Respond(api, ic)
	}
}

func (cv *configView) selectorView(remove bool) *components.View {
	action := "add"
	if remove {
		action = "remove"
	}

	v := components.NewView().AddEmbed(&discordgo.MessageEmbed{
		Title:       "Autoroles Config",
		Description: fmt.Sprintf("Select the roles to %s below.", action),
		Color:       theme.Info(),
	})

	row := v.Row()
	v.AddSelect(row, discordgo.SelectMenu{
		MenuType:    discordgo.RoleSelectMenu,
		CustomID:    cv.sess.CustomID("autorole:select:" + action),
		Placeholder: fmt.Sprintf("Select a role to %s!", action),
		MaxValues:   25,
	}, cv.handleSelection(remove))

	row = v.Row()
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Go Back",
		CustomID: cv.sess.CustomID("autorole:select:back"),
	}, func(api components.API, ic *discordgo.InteractionCreate) error {
		cv.sess.SetView(cv.view())
		return cv.sess.Respond(api, ic)
	})
	v.AddButton(row, discordgo.Button{
		Style:    discordgo.DangerButton,
		Label:    "Cancel",
		CustomID: cv.sess.CustomID("autorole:select:cancel"),
	}, cv.cancel)

	return v
}

func (cv *configView) handleSelection(remove bool) components.HandlerFunc {
	return func(api components.API, ic *discordgo.InteractionCreate) error {
		roleIDs := ic.MessageComponentData().Values
		if len(roleIDs) == 0 {
			return nil
		}
		if err := api.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredMessageUpdate,
		}); err != nil {
			return err
		}

		existing := make(map[string]struct{})
		for _, id := range cv.roles() {
			existing[id] = struct{}{}
		}

		var changed, skipped []string
		for _, id := range roleIDs {
			_, configured := existing[id]
			if configured == remove {
				changed = append(changed, id)
			} else {
				skipped = append(skipped, id)
			}
		}

		var err error
		if remove {
			err = cv.store.RemoveAutoroles(cv.sess.GuildID, changed)
		} else {
			err = cv.store.AddAutoroles(cv.sess.GuildID, changed)
		}
		if err != nil {
			return err
		}

		embed := &discordgo.MessageEmbed{
			Description: "## Autoroles Config",
			Color:       theme.Success(),
		}
		changedName, skippedName := "New Autoroles", "Already Configured"
		if remove {
			changedName, skippedName = "Deleted Autoroles", "Not Configured"
			embed.Color = theme.Error()
		}
		if len(changed) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: changedName, Value: roleList(changed),
			})
		}
		if len(skipped) > 0 {
			embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
				Name: skippedName, Value: roleList(skipped),
			})
		}

		cv.sess.MarkEdited()
		cv.sess.SetView(cv.view())
		if err := cv.sess.RespondEdit(api, ic); err != nil {
			return err
		}
		_, err = api.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
		return err
	}
}

func roleList(ids []string) string {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, "- <@&"+id+">")
	}
	return strings.Join(lines, "\n")
}
