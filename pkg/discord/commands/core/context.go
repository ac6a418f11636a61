package core

import (
	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/storage"
)

// ContextBuilder creates contexts for command execution.
type ContextBuilder struct {
	session    *discordgo.Session
	store      *storage.Store
	components *components.Manager
	images     messages.ImageValidator
}

// NewContextBuilder creates a new context builder.
func NewContextBuilder(session *discordgo.Session, store *storage.Store, mgr *components.Manager, images messages.ImageValidator) *ContextBuilder {
	return &ContextBuilder{
		session:    session,
		store:      store,
		components: mgr,
		images:     images,
	}
}

// BuildContext creates a complete context for command execution.
func (cb *ContextBuilder) BuildContext(i *discordgo.InteractionCreate) *Context {
	return &Context{
		Session:     cb.session,
		Interaction: i,
		Store:       cb.store,
		Components:  cb.components,
		Images:      cb.images,
		GuildID:     i.GuildID,
		UserID:      extractUserID(i),
	}
}

// extractUserID extracts the invoking user's ID from the interaction.
func extractUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// GetSubCommandName extracts the subcommand name from the interaction.
func GetSubCommandName(i *discordgo.InteractionCreate) string {
	options := i.ApplicationCommandData().Options
	if len(options) > 0 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return options[0].Name
	}
	return ""
}

// GetSubCommandOptions extracts the subcommand options from the interaction,
// or the direct options when the command has no subcommand.
func GetSubCommandOptions(i *discordgo.InteractionCreate) []*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	if len(options) > 0 && options[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		return options[0].Options
	}
	return options
}

// GetCommandPath returns the full command path (command + subcommand if present).
func GetCommandPath(i *discordgo.InteractionCreate) string {
	path := i.ApplicationCommandData().Name
	if subCmd := GetSubCommandName(i); subCmd != "" {
		path += " " + subCmd
	}
	return path
}

// HasFocusedOption finds the focused option for autocomplete, descending into
// subcommands.
func HasFocusedOption(options []*discordgo.ApplicationCommandInteractionDataOption) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, opt := range options {
		if opt.Focused {
			return opt, true
		}
		if opt.Type == discordgo.ApplicationCommandOptionSubCommand && len(opt.Options) > 0 {
			if focused, found := HasFocusedOption(opt.Options); found {
				return focused, true
			}
		}
	}
	return nil, false
}

// IsAutocompleteInteraction checks if the interaction is for autocomplete.
func IsAutocompleteInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionApplicationCommandAutocomplete
}

// IsSlashCommandInteraction checks if the interaction is a slash command.
func IsSlashCommandInteraction(i *discordgo.InteractionCreate) bool {
	return i.Type == discordgo.InteractionApplicationCommand
}

// HasManageGuild reports whether the invoking member holds Manage Server in
// the interaction's guild. Management commands gate on this.
func HasManageGuild(i *discordgo.InteractionCreate) bool {
	return i.Member != nil && i.Member.Permissions&discordgo.PermissionManageServer != 0
}
