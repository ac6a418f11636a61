package storage

import (
	"database/sql"
	"fmt"
)

// Autorole assignment modes.
const (
	AutoroleModeOnJoin   = "on_join"
	AutoroleModeOnVerify = "on_verify"
)

// AutoroleConfig is a guild's autorole configuration.
type AutoroleConfig struct {
	GuildID string
	Enabled bool
	Mode    string
}

// SetAutoroleConfig upserts a guild's autorole configuration.
func (s *Store) SetAutoroleConfig(cfg AutoroleConfig) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if cfg.Mode != AutoroleModeOnJoin && cfg.Mode != AutoroleModeOnVerify {
		return fmt.Errorf("unknown autorole mode %q", cfg.Mode)
	}
	_, err := s.db.Exec(
		`INSERT INTO autorole_config (guild_id, enabled, mode)
         VALUES (?, ?, ?)
         ON CONFLICT(guild_id) DO UPDATE SET
           enabled=excluded.enabled,
           mode=excluded.mode`,
		cfg.GuildID, cfg.Enabled, cfg.Mode,
	)
	return err
}

// GetAutoroleConfig returns a guild's autorole configuration. The bool
// reports whether any configuration has been saved.
func (s *Store) GetAutoroleConfig(guildID string) (AutoroleConfig, bool, error) {
	if s.db == nil {
		return AutoroleConfig{}, false, fmt.Errorf("store not initialized")
	}
	cfg := AutoroleConfig{GuildID: guildID}
	err := s.db.QueryRow(
		`SELECT enabled, mode FROM autorole_config WHERE guild_id=?`, guildID,
	).Scan(&cfg.Enabled, &cfg.Mode)
	if err != nil {
		if err == sql.ErrNoRows {
			return AutoroleConfig{}, false, nil
		}
		return AutoroleConfig{}, false, err
	}
	return cfg, true, nil
}

// AddAutoroles adds role IDs to a guild's autorole set. Already-present roles
// are ignored.
func (s *Store) AddAutoroles(guildID string, roleIDs []string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, rid := range roleIDs {
		if rid == "" {
			continue
		}
		if _, err := tx.Exec(
			`INSERT INTO autoroles (guild_id, role_id) VALUES (?, ?)
             ON CONFLICT(guild_id, role_id) DO NOTHING`,
			guildID, rid,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RemoveAutoroles removes role IDs from a guild's autorole set.
func (s *Store) RemoveAutoroles(guildID string, roleIDs []string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, rid := range roleIDs {
		if _, err := tx.Exec(
			`DELETE FROM autoroles WHERE guild_id=? AND role_id=?`, guildID, rid,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListAutoroles returns the configured autorole IDs for a guild.
func (s *Store) ListAutoroles(guildID string) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(`SELECT role_id FROM autoroles WHERE guild_id=?`, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return nil, err
		}
		roles = append(roles, rid)
	}
	return roles, rows.Err()
}
