// Package storage wraps an embedded SQLite database holding everything the
// bot persists: saved messages with their embeds, autorole configuration,
// command usage counters and scheduled sends.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/AndehUK/exult-bot/pkg/log"
)

// Sentinel errors surfaced to the command layer.
var (
	// ErrNameTaken is returned when saving a message under a (guild, name)
	// pair that already exists. Nothing is written in that case.
	ErrNameTaken = errors.New("a message with that name already exists")

	// ErrNotFound is returned by lookups for a message that does not exist.
	ErrNotFound = errors.New("message not found")
)

// Store wraps the SQLite database. It uses modernc.org/sqlite for CGO-less
// builds.
type Store struct {
	dbPath string
	db     *sql.DB
}

// NewStore creates a new Store pointing to dbPath. Call Init() before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Init opens the SQLite database, configures pragmas, and ensures the schema exists.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create db directory: %w", err)
	}

	// Pragmas go in the DSN so the driver applies them to every pooled
	// connection. foreign_keys in particular is per-connection in SQLite;
	// setting it with Exec would leave later connections without it.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", s.dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	log.Database().Info("database initialized", "path", s.dbPath)
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ensureSchema creates required tables and indexes if they don't exist.
func ensureSchema(db *sql.DB) error {
	const createMessages = `
CREATE TABLE IF NOT EXISTS messages (
  guild_id   TEXT NOT NULL,
  name       TEXT NOT NULL,
  user_id    TEXT NOT NULL,
  content    TEXT,
  created_at TIMESTAMP NOT NULL,
  PRIMARY KEY (guild_id, name)
);`

	const createEmbeds = `
CREATE TABLE IF NOT EXISTS embeds (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  guild_id     TEXT NOT NULL,
  message_name TEXT NOT NULL,
  position     INTEGER NOT NULL,
  title        TEXT,
  description  TEXT,
  url          TEXT,
  colour       INTEGER,
  timestamp    TIMESTAMP,
  thumbnail    TEXT,
  image        TEXT,
  FOREIGN KEY (guild_id, message_name) REFERENCES messages(guild_id, name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_embeds_message ON embeds(guild_id, message_name);`

	const createEmbedFields = `
CREATE TABLE IF NOT EXISTS embed_fields (
  embed_id    INTEGER NOT NULL,
  field_index INTEGER NOT NULL,
  name        TEXT NOT NULL,
  value       TEXT NOT NULL,
  inline      INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (embed_id, field_index),
  FOREIGN KEY (embed_id) REFERENCES embeds(id) ON DELETE CASCADE
);`

	const createEmbedAuthors = `
CREATE TABLE IF NOT EXISTS embed_authors (
  embed_id INTEGER PRIMARY KEY,
  name     TEXT NOT NULL,
  icon_url TEXT,
  url      TEXT,
  FOREIGN KEY (embed_id) REFERENCES embeds(id) ON DELETE CASCADE
);`

	const createEmbedFooters = `
CREATE TABLE IF NOT EXISTS embed_footers (
  embed_id INTEGER PRIMARY KEY,
  text     TEXT NOT NULL,
  icon_url TEXT,
  FOREIGN KEY (embed_id) REFERENCES embeds(id) ON DELETE CASCADE
);`

	const createAutoroleConfig = `
CREATE TABLE IF NOT EXISTS autorole_config (
  guild_id TEXT PRIMARY KEY,
  enabled  INTEGER NOT NULL DEFAULT 0,
  mode     TEXT NOT NULL DEFAULT 'on_join'
);`

	const createAutoroles = `
CREATE TABLE IF NOT EXISTS autoroles (
  guild_id TEXT NOT NULL,
  role_id  TEXT NOT NULL,
  PRIMARY KEY (guild_id, role_id)
);`

	const createCommandUsage = `
CREATE TABLE IF NOT EXISTS command_usage (
  command_name TEXT NOT NULL,
  invoker_id   TEXT NOT NULL,
  uses         INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (command_name, invoker_id)
);`

	const createScheduledMessages = `
CREATE TABLE IF NOT EXISTS scheduled_messages (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  guild_id       TEXT NOT NULL,
  message_name   TEXT NOT NULL,
  channel_id     TEXT NOT NULL,
  repeat_seconds INTEGER NOT NULL DEFAULT 0,
  next_run       TIMESTAMP NOT NULL,
  FOREIGN KEY (guild_id, message_name) REFERENCES messages(guild_id, name) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_scheduled_next_run ON scheduled_messages(next_run);`

	stmts := []string{
		createMessages,
		createEmbeds,
		createEmbedFields,
		createEmbedAuthors,
		createEmbedFooters,
		createAutoroleConfig,
		createAutoroles,
		createCommandUsage,
		createScheduledMessages,
	}
	for _, sqlText := range stmts {
		if _, err := db.Exec(sqlText); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
