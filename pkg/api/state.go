package api

import (
	"github.com/bwmarrin/discordgo"
)

// SessionState adapts the discordgo state cache to the BotState interface.
type SessionState struct {
	session *discordgo.Session
}

// NewSessionState wraps the given session.
func NewSessionState(session *discordgo.Session) *SessionState {
	return &SessionState{session: session}
}

// Stats counts guilds and members from the state cache. Total sums member
// counts across guilds; unique counts distinct cached users.
func (s *SessionState) Stats() Stats {
	s.session.State.RLock()
	defer s.session.State.RUnlock()

	stats := Stats{Guilds: len(s.session.State.Guilds)}
	unique := make(map[string]struct{})
	for _, guild := range s.session.State.Guilds {
		stats.TotalUsers += guild.MemberCount
		for _, member := range guild.Members {
			if member.User != nil {
				unique[member.User.ID] = struct{}{}
			}
		}
	}
	stats.UniqueUsers = len(unique)
	return stats
}

// User looks the user up in the member cache of any shared guild.
func (s *SessionState) User(id string) (User, bool) {
	s.session.State.RLock()
	defer s.session.State.RUnlock()

	for _, guild := range s.session.State.Guilds {
		for _, member := range guild.Members {
			if member.User != nil && member.User.ID == id {
				return userFromDiscord(member.User), true
			}
		}
	}
	return User{}, false
}

// MutualGuilds returns every cached guild the user is a member of.
func (s *SessionState) MutualGuilds(userID string) []Guild {
	s.session.State.RLock()
	defer s.session.State.RUnlock()

	guilds := make([]Guild, 0)
	for _, guild := range s.session.State.Guilds {
		for _, member := range guild.Members {
			if member.User != nil && member.User.ID == userID {
				guilds = append(guilds, guildFromDiscord(guild))
				break
			}
		}
	}
	return guilds
}

func userFromDiscord(u *discordgo.User) User {
	user := User{
		Username: u.Username,
		ID:       u.ID,
		Avatar:   u.AvatarURL(""),
	}
	if u.GlobalName != "" {
		name := u.GlobalName
		user.GlobalName = &name
	}
	return user
}

func guildFromDiscord(g *discordgo.Guild) Guild {
	guild := Guild{
		Channels:    make([]Channel, 0, len(g.Channels)),
		Emojis:      []string{},
		ID:          g.ID,
		Name:        g.Name,
		OwnerID:     g.OwnerID,
		PremiumTier: int(g.PremiumTier),
		Roles:       []string{},
		Unavailable: g.Unavailable,
	}
	if g.Icon != "" {
		icon := g.IconURL("")
		guild.Icon = &icon
	}

	categories := make(map[string]*Category)
	for _, ch := range g.Channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories[ch.ID] = &Category{ID: ch.ID, Name: ch.Name}
		}
	}
	for _, ch := range g.Channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			continue
		}
		guild.Channels = append(guild.Channels, Channel{
			Category: categories[ch.ParentID],
			ID:       ch.ID,
			Name:     ch.Name,
			Type:     int(ch.Type),
		})
	}
	return guild
}
