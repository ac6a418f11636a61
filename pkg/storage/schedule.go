package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// ScheduledMessage is a queued send of a persisted message. RepeatEvery of
// zero means a one-shot schedule that is removed after delivery.
type ScheduledMessage struct {
	ID          int64
	GuildID     string
	MessageName string
	ChannelID   string
	RepeatEvery time.Duration
	NextRun     time.Time
}

// CreateScheduled queues a send of a persisted message. The message must
// exist; the schema enforces the reference.
func (s *Store) CreateScheduled(sm ScheduledMessage) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	res, err := s.db.Exec(
		`INSERT INTO scheduled_messages (guild_id, message_name, channel_id, repeat_seconds, next_run)
         VALUES (?, ?, ?, ?, ?)`,
		sm.GuildID, sm.MessageName, sm.ChannelID, int64(sm.RepeatEvery.Seconds()), sm.NextRun.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListScheduled returns a guild's scheduled sends ordered by next run.
func (s *Store) ListScheduled(guildID string) ([]ScheduledMessage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(
		`SELECT id, guild_id, message_name, channel_id, repeat_seconds, next_run
         FROM scheduled_messages WHERE guild_id=? ORDER BY next_run`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScheduled(rows)
}

// DueScheduledMessages returns every schedule whose next run is at or before
// now, across all guilds.
func (s *Store) DueScheduledMessages(now time.Time) ([]ScheduledMessage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(
		`SELECT id, guild_id, message_name, channel_id, repeat_seconds, next_run
         FROM scheduled_messages WHERE next_run <= ? ORDER BY next_run`,
		now.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanScheduled(rows)
}

func scanScheduled(rows *sql.Rows) ([]ScheduledMessage, error) {
	var out []ScheduledMessage
	for rows.Next() {
		var sm ScheduledMessage
		var repeatSeconds int64
		if err := rows.Scan(&sm.ID, &sm.GuildID, &sm.MessageName, &sm.ChannelID, &repeatSeconds, &sm.NextRun); err != nil {
			return nil, err
		}
		sm.RepeatEvery = time.Duration(repeatSeconds) * time.Second
		out = append(out, sm)
	}
	return out, rows.Err()
}

// MarkScheduled records the next run time for a repeating schedule.
func (s *Store) MarkScheduled(id int64, nextRun time.Time) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	_, err := s.db.Exec(`UPDATE scheduled_messages SET next_run=? WHERE id=?`, nextRun.UTC(), id)
	return err
}

// DeleteScheduled removes a schedule. The guild ID guards against deleting
// another guild's schedule by ID. The bool reports whether anything was
// deleted.
func (s *Store) DeleteScheduled(id int64, guildID string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("store not initialized")
	}
	res, err := s.db.Exec(`DELETE FROM scheduled_messages WHERE id=? AND guild_id=?`, id, guildID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
