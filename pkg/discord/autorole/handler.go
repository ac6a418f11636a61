// Package autorole applies configured autoroles to members as they join, or
// once they clear membership screening, depending on the guild's mode.
package autorole

import (
	"github.com/bwmarrin/discordgo"

	"github.com/AndehUK/exult-bot/pkg/log"
	"github.com/AndehUK/exult-bot/pkg/storage"
)

// RoleAssigner is the slice of the Discord session the handler needs.
// *discordgo.Session satisfies it.
type RoleAssigner interface {
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Handler assigns autoroles in response to gateway member events.
type Handler struct {
	api   RoleAssigner
	store *storage.Store
}

// NewHandler creates an autorole handler.
func NewHandler(api RoleAssigner, store *storage.Store) *Handler {
	return &Handler{api: api, store: store}
}

// HandleMemberAdd is the discordgo handler for GuildMemberAdd. In on_join
// mode roles are assigned immediately; members still pending membership
// screening are left for HandleMemberUpdate.
func (h *Handler) HandleMemberAdd(_ *discordgo.Session, e *discordgo.GuildMemberAdd) {
	if e.Member == nil || e.Member.User == nil || e.Member.User.Bot {
		return
	}

	cfg, ok, err := h.store.GetAutoroleConfig(e.GuildID)
	if err != nil {
		log.Discord().Error("failed to load autorole config", "guild_id", e.GuildID, "error", err)
		return
	}
	if !ok || !cfg.Enabled {
		return
	}
	if cfg.Mode == storage.AutoroleModeOnVerify || e.Member.Pending {
		return
	}

	h.assignRoles(e.GuildID, e.Member.User.ID)
}

// HandleMemberUpdate is the discordgo handler for GuildMemberUpdate. It
// catches the pending -> done transition of membership screening, which is
// when on_verify guilds hand out roles.
func (h *Handler) HandleMemberUpdate(_ *discordgo.Session, e *discordgo.GuildMemberUpdate) {
	if e.Member == nil || e.Member.User == nil || e.Member.User.Bot {
		return
	}
	if e.BeforeUpdate == nil || !e.BeforeUpdate.Pending || e.Member.Pending {
		return
	}

	cfg, ok, err := h.store.GetAutoroleConfig(e.GuildID)
	if err != nil {
		log.Discord().Error("failed to load autorole config", "guild_id", e.GuildID, "error", err)
		return
	}
	if !ok || !cfg.Enabled || cfg.Mode != storage.AutoroleModeOnVerify {
		return
	}

	h.assignRoles(e.GuildID, e.Member.User.ID)
}

func (h *Handler) assignRoles(guildID, userID string) {
	roleIDs, err := h.store.ListAutoroles(guildID)
	if err != nil {
		log.Discord().Error("failed to list autoroles", "guild_id", guildID, "error", err)
		return
	}

	assigned := 0
	for _, roleID := range roleIDs {
		if err := h.api.GuildMemberRoleAdd(guildID, userID, roleID); err != nil {
			log.Discord().Warn("failed to assign autorole",
				"guild_id", guildID, "user_id", userID, "role_id", roleID, "error", err)
			continue
		}
		assigned++
	}
	if assigned > 0 {
		log.Discord().Info("autoroles assigned", "guild_id", guildID, "user_id", userID, "roles", assigned)
	}
}
