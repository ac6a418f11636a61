package core

import (
	"encoding/json"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/storage"
)

var commandExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "exultbot_command_executions_total",
	Help: "Slash command executions by command path and outcome.",
}, []string{"command", "outcome"})

// CommandRouter routes slash command interactions to registered handlers.
type CommandRouter struct {
	registry        *CommandRegistry
	contextBuilder  *ContextBuilder
	responder       *Responder
	store           *storage.Store
	autocompleteMap map[string]AutocompleteHandler
}

// NewCommandRouter creates a new command router.
func NewCommandRouter(session *discordgo.Session, store *storage.Store, mgr *components.Manager, images messages.ImageValidator) *CommandRouter {
	return &CommandRouter{
		registry:        NewCommandRegistry(),
		contextBuilder:  NewContextBuilder(session, store, mgr, images),
		responder:       NewResponder(session),
		store:           store,
		autocompleteMap: make(map[string]AutocompleteHandler),
	}
}

// RegisterCommand registers a top-level command.
func (cr *CommandRouter) RegisterCommand(cmd Command) {
	cr.registry.Register(cmd)
}

// RegisterAutocomplete registers an autocomplete handler for a command.
func (cr *CommandRouter) RegisterAutocomplete(commandName string, handler AutocompleteHandler) {
	cr.autocompleteMap[commandName] = handler
}

// HandleInteraction routes interactions to the appropriate handlers.
func (cr *CommandRouter) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if IsAutocompleteInteraction(i) {
		cr.handleAutocomplete(i)
		return
	}
	if !IsSlashCommandInteraction(i) {
		return
	}
	cr.handleSlashCommand(i)
}

func (cr *CommandRouter) handleSlashCommand(i *discordgo.InteractionCreate) {
	ctx := cr.contextBuilder.BuildContext(i)
	commandName := i.ApplicationCommandData().Name
	path := GetCommandPath(i)
	logger := log.Discord().With("command", path, "guild_id", ctx.GuildID, "user_id", ctx.UserID)

	cmd, exists := cr.registry.GetCommand(commandName)
	if !exists {
		logger.Error("command not found")
		_ = cr.responder.Error(i, "Command not found")
		return
	}

	if cmd.RequiresGuild() && ctx.GuildID == "" {
		_ = cr.responder.Ephemeral(i, "This command can only be used in a server")
		return
	}
	if cmd.RequiresPermissions() && !HasManageGuild(i) {
		logger.Warn("user without permission tried to use command")
		_ = cr.responder.Ephemeral(i, "You need the Manage Server permission to use this command")
		return
	}

	logger.Debug("executing command")
	if err := cmd.Handle(ctx); err != nil {
		logger.Error("command execution failed", "error", err)
		commandExecutions.WithLabelValues(path, "error").Inc()

		if cmdErr, ok := err.(*CommandError); ok {
			if cmdErr.Ephemeral {
				_ = cr.responder.Ephemeral(i, cmdErr.Message)
			} else {
				_ = cr.responder.Error(i, cmdErr.Message)
			}
		} else if valErr, ok := err.(*ValidationError); ok {
			_ = cr.responder.Ephemeral(i, valErr.Message)
		} else {
			_ = cr.responder.Error(i, "An error occurred while executing the command")
		}
		return
	}

	commandExecutions.WithLabelValues(path, "ok").Inc()
	if cr.store != nil {
		if err := cr.store.IncrementUsage(path, ctx.UserID); err != nil {
			logger.Warn("failed to record command usage", "error", err)
		}
	}
}

func (cr *CommandRouter) handleAutocomplete(i *discordgo.InteractionCreate) {
	ctx := cr.contextBuilder.BuildContext(i)
	commandName := i.ApplicationCommandData().Name

	handler, exists := cr.autocompleteMap[commandName]
	if !exists {
		_ = cr.responder.Autocomplete(i, nil)
		return
	}
	focusedOpt, hasFocus := HasFocusedOption(i.ApplicationCommandData().Options)
	if !hasFocus {
		_ = cr.responder.Autocomplete(i, nil)
		return
	}

	choices, err := handler.HandleAutocomplete(ctx, focusedOpt.Name)
	if err != nil {
		log.Discord().Error("autocomplete handler failed", "command", commandName, "error", err)
		choices = nil
	}
	_ = cr.responder.Autocomplete(i, choices)
}

// CommandManager owns the command lifecycle against the Discord API.
type CommandManager struct {
	session *discordgo.Session
	router  *CommandRouter
}

// NewCommandManager creates a new command manager.
func NewCommandManager(session *discordgo.Session, router *CommandRouter) *CommandManager {
	return &CommandManager{session: session, router: router}
}

// SetupCommands registers the interaction handler and incrementally syncs the
// registered commands with Discord. An empty guildIDs slice syncs globally;
// otherwise each listed guild is synced separately.
func (cm *CommandManager) SetupCommands(guildIDs []string) error {
	cm.session.AddHandler(cm.router.HandleInteraction)

	if len(guildIDs) == 0 {
		return cm.syncScope("")
	}
	for _, gid := range guildIDs {
		if err := cm.syncScope(gid); err != nil {
			return err
		}
	}
	return nil
}

// syncScope creates, updates and prunes commands within one scope (a guild,
// or global when guildID is empty).
func (cm *CommandManager) syncScope(guildID string) error {
	appID := cm.session.State.User.ID
	logger := log.Discord().With("scope", syncScopeName(guildID))

	registered, err := cm.session.ApplicationCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("failed to fetch registered commands: %w", err)
	}
	regByName := make(map[string]*discordgo.ApplicationCommand, len(registered))
	for _, rc := range registered {
		regByName[rc.Name] = rc
	}

	codeCommands := cm.router.registry.GetAllCommands()
	created, updated, unchanged := 0, 0, 0
	for name, cmd := range codeCommands {
		desired := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}
		if existing, ok := regByName[name]; ok {
			if CompareCommands(existing, desired) {
				unchanged++
				continue
			}
			if _, err := cm.session.ApplicationCommandEdit(appID, guildID, existing.ID, desired); err != nil {
				return fmt.Errorf("error updating command %q: %w", name, err)
			}
			logger.Info("command updated", "command", name)
			updated++
		} else {
			if _, err := cm.session.ApplicationCommandCreate(appID, guildID, desired); err != nil {
				return fmt.Errorf("error creating command %q: %w", name, err)
			}
			logger.Info("command created", "command", name)
			created++
		}
	}

	deleted := 0
	for _, rc := range registered {
		if _, exists := codeCommands[rc.Name]; !exists {
			if err := cm.session.ApplicationCommandDelete(appID, guildID, rc.ID); err != nil {
				logger.Warn("error removing orphan command", "command", rc.Name, "error", err)
				continue
			}
			logger.Info("orphan command removed", "command", rc.Name)
			deleted++
		}
	}

	logger.Info("command synchronization completed",
		"created", created,
		"updated", updated,
		"deleted", deleted,
		"unchanged", unchanged,
		"total", len(codeCommands),
	)
	return nil
}

func syncScopeName(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return "guild:" + guildID
}

// CompareCommands compares two commands semantically.
func CompareCommands(a, b *discordgo.ApplicationCommand) bool {
	type shape struct {
		Name        string                                `json:"name"`
		Description string                                `json:"description"`
		Options     []*discordgo.ApplicationCommandOption `json:"options"`
	}
	ba, _ := json.Marshal(shape{a.Name, a.Description, a.Options})
	bb, _ := json.Marshal(shape{b.Name, b.Description, b.Options})
	return string(ba) == string(bb)
}

// GroupCommand is a command composed of subcommands.
type GroupCommand struct {
	name        string
	description string
	order       []string
	subcommands map[string]SubCommand
}

// NewGroupCommand creates a new group command.
func NewGroupCommand(name, description string) *GroupCommand {
	return &GroupCommand{
		name:        name,
		description: description,
		subcommands: make(map[string]SubCommand),
	}
}

// AddSubCommand adds a subcommand to the group.
func (gc *GroupCommand) AddSubCommand(subcmd SubCommand) {
	if _, exists := gc.subcommands[subcmd.Name()]; !exists {
		gc.order = append(gc.order, subcmd.Name())
	}
	gc.subcommands[subcmd.Name()] = subcmd
}

func (gc *GroupCommand) Name() string        { return gc.name }
func (gc *GroupCommand) Description() string { return gc.description }

// Options builds the command options from the subcommands in registration order.
func (gc *GroupCommand) Options() []*discordgo.ApplicationCommandOption {
	options := make([]*discordgo.ApplicationCommandOption, 0, len(gc.order))
	for _, name := range gc.order {
		subcmd := gc.subcommands[name]
		options = append(options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        subcmd.Name(),
			Description: subcmd.Description(),
			Options:     subcmd.Options(),
		})
	}
	return options
}

// RequiresGuild reports whether any subcommand requires a guild.
func (gc *GroupCommand) RequiresGuild() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresGuild() {
			return true
		}
	}
	return false
}

// RequiresPermissions reports whether any subcommand requires permissions.
func (gc *GroupCommand) RequiresPermissions() bool {
	for _, subcmd := range gc.subcommands {
		if subcmd.RequiresPermissions() {
			return true
		}
	}
	return false
}

// Handle routes to the matching subcommand.
func (gc *GroupCommand) Handle(ctx *Context) error {
	subCommandName := GetSubCommandName(ctx.Interaction)
	if subCommandName == "" {
		return NewCommandError("No subcommand specified", true)
	}
	subcmd, exists := gc.subcommands[subCommandName]
	if !exists {
		return NewCommandError("Unknown subcommand", true)
	}
	if subcmd.RequiresGuild() && ctx.GuildID == "" {
		return NewCommandError("This subcommand can only be used in a server", true)
	}
	if subcmd.RequiresPermissions() && !HasManageGuild(ctx.Interaction) {
		return NewCommandError("You need the Manage Server permission to use this subcommand", true)
	}
	return subcmd.Handle(ctx)
}

// SimpleCommand implements Command for commands without subcommands.
type SimpleCommand struct {
	name                string
	description         string
	options             []*discordgo.ApplicationCommandOption
	handler             func(ctx *Context) error
	requiresGuild       bool
	requiresPermissions bool
}

// NewSimpleCommand creates a simple command.
func NewSimpleCommand(
	name, description string,
	options []*discordgo.ApplicationCommandOption,
	handler func(ctx *Context) error,
	requiresGuild, requiresPermissions bool,
) *SimpleCommand {
	return &SimpleCommand{
		name:                name,
		description:         description,
		options:             options,
		handler:             handler,
		requiresGuild:       requiresGuild,
		requiresPermissions: requiresPermissions,
	}
}

func (sc *SimpleCommand) Name() string        { return sc.name }
func (sc *SimpleCommand) Description() string { return sc.description }
func (sc *SimpleCommand) Options() []*discordgo.ApplicationCommandOption {
	return sc.options
}
func (sc *SimpleCommand) Handle(ctx *Context) error { return sc.handler(ctx) }
func (sc *SimpleCommand) RequiresGuild() bool       { return sc.requiresGuild }
func (sc *SimpleCommand) RequiresPermissions() bool { return sc.requiresPermissions }
