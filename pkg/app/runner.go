// Package app boots the bot: logging, storage, the Discord session, command
// sync, background workers and the dashboard API, then blocks until shutdown.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/api"
	"github.com/AndehUK/exult-bot/pkg/discord/autorole"
	autorolecmd "github.com/AndehUK/exult-bot/pkg/discord/commands/autorole"
	"github.com/AndehUK/exult-bot/pkg/discord/commands/core"
	messagecmd "github.com/AndehUK/exult-bot/pkg/discord/commands/message"
	"github.com/AndehUK/exult-bot/pkg/discord/commands/moderation"
	schedulecmd "github.com/AndehUK/exult-bot/pkg/discord/commands/schedule"
	"github.com/AndehUK/exult-bot/pkg/discord/commands/usage"
	"github.com/AndehUK/exult-bot/pkg/discord/components"
	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/messages"
	"github.com/AndehUK/exult-bot/pkg/schedule"
	"github.com/AndehUK/exult-bot/pkg/storage"
	"github.com/AndehUK/exult-bot/pkg/util"
)

// TokenEnv is the environment variable holding the bot token.
const TokenEnv = "EXULT_BOT_TOKEN"

const shutdownTimeout = 10 * time.Second

// Config carries the runtime options resolved from the command line.
type Config struct {
	DBPath   string
	LogDir   string
	LogLevel string
	APIAddr  string

	// GuildIDs limits command sync to the listed guilds. Empty syncs globally.
	GuildIDs []string

	// SyncOnly syncs slash commands and exits without serving.
	SyncOnly bool
}

// Run boots the bot and blocks until the context is cancelled or an interrupt
// arrives.
func Run(ctx context.Context, cfg Config) error {
	started := time.Now()

	if err := log.Setup(cfg.LogDir, log.ParseLevel(cfg.LogLevel)); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer log.Close()

	token, err := util.LoadEnvToken(TokenEnv)
	if err != nil {
		return err
	}

	store := storage.NewStore(cfg.DBPath)
	if err := store.Init(); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer store.Close()

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages
	session.StateEnabled = true

	mgr := components.NewManager(session, components.DefaultIdleTimeout)
	images := messages.NewHTTPImageValidator()

	router := core.NewCommandRouter(session, store, mgr, images)
	messagecmd.RegisterMessageCommands(router)
	autorolecmd.RegisterAutoroleCommands(router)
	moderation.RegisterModerationCommands(router)
	usage.RegisterUsageCommands(router)
	schedulecmd.RegisterScheduleCommands(router)

	session.AddHandler(mgr.HandleInteraction)

	roles := autorole.NewHandler(session, store)
	session.AddHandler(roles.HandleMemberAdd)
	session.AddHandler(roles.HandleMemberUpdate)

	log.Discord().Info("connecting to the discord gateway")
	if err := session.Open(); err != nil {
		return fmt.Errorf("open discord session: %w", err)
	}
	defer session.Close()

	if session.State.User == nil {
		me, err := session.User("@me")
		if err != nil {
			return fmt.Errorf("fetch bot user: %w", err)
		}
		session.State.User = me
	}
	log.Discord().Info("authenticated", "user", session.State.User.Username, "id", session.State.User.ID)

	manager := core.NewCommandManager(session, router)
	if err := manager.SetupCommands(cfg.GuildIDs); err != nil {
		return fmt.Errorf("sync slash commands: %w", err)
	}
	if cfg.SyncOnly {
		log.Application().Info("command sync completed, exiting")
		return nil
	}

	dispatcher := schedule.NewDispatcher(session, store, schedule.DefaultInterval)
	stopDispatcher := dispatcher.Start(ctx)
	defer stopDispatcher()

	server := api.NewServer(cfg.APIAddr, api.NewSessionState(session))
	server.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			log.API().Error("dashboard api shutdown failed", "error", err)
		}
	}()

	log.Application().Info("exult bot running", "startup", time.Since(started).Round(time.Millisecond))
	util.WaitForInterrupt(ctx)
	log.Application().Info("shutting down")
	return nil
}
