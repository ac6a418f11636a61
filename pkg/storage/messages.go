package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/AndehUK/exult-bot/pkg/messages"
)

// StoredMessage is a persisted builder message with its embeds fully loaded.
type StoredMessage struct {
	GuildID   string
	Name      string
	UserID    string
	Content   string
	CreatedAt time.Time
	Embeds    []*messages.Embed
}

// Draft converts the stored message back into an editable draft. EditingName
// is set so a later save replaces this message instead of creating a new one.
func (m *StoredMessage) Draft() *messages.Draft {
	return &messages.Draft{
		GuildID:     m.GuildID,
		Content:     m.Content,
		Embeds:      m.Embeds,
		EditingName: m.Name,
	}
}

// MessageInfo is a listing row without the embed payload.
type MessageInfo struct {
	Name      string
	UserID    string
	CreatedAt time.Time
}

// CreateMessage persists a draft under the given name. Returns ErrNameTaken
// without writing anything when the (guild, name) pair already exists. The
// message row and all embed rows are written in one transaction.
func (s *Store) CreateMessage(guildID, name, userID string, draft *messages.Draft) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM messages WHERE guild_id=? AND name=?`, guildID, name).Scan(&exists)
	switch {
	case err == nil:
		return ErrNameTaken
	case err != sql.ErrNoRows:
		return err
	}

	if _, err := tx.Exec(
		`INSERT INTO messages (guild_id, name, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		guildID, name, userID, draft.Content, time.Now().UTC(),
	); err != nil {
		return err
	}
	if err := insertEmbeds(tx, guildID, name, draft.Embeds); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateMessage replaces the content and embeds of an existing message in one
// transaction. Returns ErrNotFound if the message does not exist.
func (s *Store) UpdateMessage(guildID, name string, draft *messages.Draft) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE messages SET content=? WHERE guild_id=? AND name=?`, draft.Content, guildID, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	// Dependent field/author/footer rows go with the embeds via cascade.
	if _, err := tx.Exec(`DELETE FROM embeds WHERE guild_id=? AND message_name=?`, guildID, name); err != nil {
		return err
	}
	if err := insertEmbeds(tx, guildID, name, draft.Embeds); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEmbeds(tx *sql.Tx, guildID, name string, embeds []*messages.Embed) error {
	for pos, e := range embeds {
		var colour any
		if e.Colour != nil {
			colour = *e.Colour
		}
		var timestamp any
		if e.Timestamp != nil {
			timestamp = e.Timestamp.UTC()
		}
		res, err := tx.Exec(
			`INSERT INTO embeds (guild_id, message_name, position, title, description, url, colour, timestamp, thumbnail, image)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			guildID, name, pos, e.Title, e.Description, e.URL, colour, timestamp, e.Thumbnail, e.Image,
		)
		if err != nil {
			return err
		}
		embedID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if e.Author != nil {
			if _, err := tx.Exec(
				`INSERT INTO embed_authors (embed_id, name, icon_url, url) VALUES (?, ?, ?, ?)`,
				embedID, e.Author.Name, e.Author.IconURL, e.Author.URL,
			); err != nil {
				return err
			}
		}
		if e.Footer != nil {
			if _, err := tx.Exec(
				`INSERT INTO embed_footers (embed_id, text, icon_url) VALUES (?, ?, ?)`,
				embedID, e.Footer.Text, e.Footer.IconURL,
			); err != nil {
				return err
			}
		}
		for idx, f := range e.Fields {
			if _, err := tx.Exec(
				`INSERT INTO embed_fields (embed_id, field_index, name, value, inline) VALUES (?, ?, ?, ?, ?)`,
				embedID, idx, f.Name, f.Value, f.Inline,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetMessage loads a persisted message with its embeds. The bool reports
// whether the message exists.
func (s *Store) GetMessage(guildID, name string) (*StoredMessage, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("store not initialized")
	}

	row := s.db.QueryRow(
		`SELECT guild_id, name, user_id, content, created_at FROM messages WHERE guild_id=? AND name=?`,
		guildID, name,
	)
	var msg StoredMessage
	var content sql.NullString
	if err := row.Scan(&msg.GuildID, &msg.Name, &msg.UserID, &content, &msg.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	msg.Content = content.String

	embeds, err := s.loadEmbeds(guildID, name)
	if err != nil {
		return nil, false, err
	}
	msg.Embeds = embeds
	return &msg, true, nil
}

func (s *Store) loadEmbeds(guildID, name string) ([]*messages.Embed, error) {
	rows, err := s.db.Query(
		`SELECT id, title, description, url, colour, timestamp, thumbnail, image
         FROM embeds WHERE guild_id=? AND message_name=? ORDER BY position`,
		guildID, name,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embeds []*messages.Embed
	var ids []int64
	for rows.Next() {
		var (
			id                      int64
			title, description, url sql.NullString
			colour                  sql.NullInt64
			timestamp               sql.NullTime
			thumbnail, image        sql.NullString
		)
		if err := rows.Scan(&id, &title, &description, &url, &colour, &timestamp, &thumbnail, &image); err != nil {
			return nil, err
		}
		e := &messages.Embed{
			Title:       title.String,
			Description: description.String,
			URL:         url.String,
			Thumbnail:   thumbnail.String,
			Image:       image.String,
		}
		if colour.Valid {
			c := int(colour.Int64)
			e.Colour = &c
		}
		if timestamp.Valid {
			ts := timestamp.Time
			e.Timestamp = &ts
		}
		embeds = append(embeds, e)
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		if err := s.loadEmbedDetails(id, embeds[i]); err != nil {
			return nil, err
		}
	}
	return embeds, nil
}

func (s *Store) loadEmbedDetails(embedID int64, e *messages.Embed) error {
	var author messages.EmbedAuthor
	var icon, url sql.NullString
	err := s.db.QueryRow(
		`SELECT name, icon_url, url FROM embed_authors WHERE embed_id=?`, embedID,
	).Scan(&author.Name, &icon, &url)
	switch {
	case err == nil:
		author.IconURL = icon.String
		author.URL = url.String
		e.Author = &author
	case err != sql.ErrNoRows:
		return err
	}

	var footer messages.EmbedFooter
	var footerIcon sql.NullString
	err = s.db.QueryRow(
		`SELECT text, icon_url FROM embed_footers WHERE embed_id=?`, embedID,
	).Scan(&footer.Text, &footerIcon)
	switch {
	case err == nil:
		footer.IconURL = footerIcon.String
		e.Footer = &footer
	case err != sql.ErrNoRows:
		return err
	}

	rows, err := s.db.Query(
		`SELECT name, value, inline FROM embed_fields WHERE embed_id=? ORDER BY field_index`, embedID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var f messages.EmbedField
		if err := rows.Scan(&f.Name, &f.Value, &f.Inline); err != nil {
			return err
		}
		e.Fields = append(e.Fields, f)
	}
	return rows.Err()
}

// ListMessages returns the persisted messages for a guild, newest first,
// without loading embed payloads.
func (s *Store) ListMessages(guildID string) ([]MessageInfo, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	rows, err := s.db.Query(
		`SELECT name, user_id, created_at FROM messages WHERE guild_id=? ORDER BY created_at DESC`,
		guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []MessageInfo
	for rows.Next() {
		var info MessageInfo
		if err := rows.Scan(&info.Name, &info.UserID, &info.CreatedAt); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// CountMessages returns how many messages a guild has persisted.
func (s *Store) CountMessages(guildID string) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE guild_id=?`, guildID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteMessage removes a persisted message and, via cascade, all of its
// embed, field, author and footer rows. The bool reports whether anything was
// deleted.
func (s *Store) DeleteMessage(guildID, name string) (bool, error) {
	if s.db == nil {
		return false, fmt.Errorf("store not initialized")
	}
	res, err := s.db.Exec(`DELETE FROM messages WHERE guild_id=? AND name=?`, guildID, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
