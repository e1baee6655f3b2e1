package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/matheus3301/chatline/internal/chat"
)

// ReplaceThread swaps the cached messages of one thread.
func (db *DB) ReplaceThread(key chat.Key, msgs []chat.Message) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM messages WHERE kind = ? AND thread_id = ?`, string(key.Kind), key.ID); err != nil {
		return fmt.Errorf("clear thread %s: %w", key, err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO messages (kind, thread_id, id, sender_id, sender_avatar, content, audio_ref, duration, color_tag, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, thread_id, id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, m := range msgs {
		if _, err := stmt.Exec(string(key.Kind), key.ID, m.ID, m.SenderID, m.SenderAvatar, m.Content,
			m.AudioRef, m.DurationSeconds, m.ColorTag, nullableMillis(m.CreatedAt)); err != nil {
			return fmt.Errorf("insert message %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// ListThread returns the cached messages of a thread, oldest first.
func (db *DB) ListThread(key chat.Key) ([]chat.Message, error) {
	return db.queryMessages(`
		SELECT kind, thread_id, id, sender_id, sender_avatar, content, audio_ref, duration, color_tag, created_at
		FROM messages WHERE kind = ? AND thread_id = ?`, string(key.Kind), key.ID)
}

// SearchResult is a cached message matching a search.
type SearchResult struct {
	Key     chat.Key
	Message chat.Message
}

// SearchMessages finds cached text messages containing query, newest first.
func (db *DB) SearchMessages(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query) + "%"
	rows, err := db.Query(`
		SELECT kind, thread_id, id, sender_id, sender_avatar, content, audio_ref, duration, color_tag, created_at
		FROM messages
		WHERE content LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	return scanResults(rows)
}

func (db *DB) queryMessages(q string, args ...any) ([]chat.Message, error) {
	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	msgs := make([]chat.Message, 0, len(results))
	for _, r := range results {
		msgs = append(msgs, r.Message)
	}
	return chat.SortMessages(msgs), nil
}

func scanResults(rows *sql.Rows) ([]SearchResult, error) {
	defer func() { _ = rows.Close() }()
	var out []SearchResult
	for rows.Next() {
		var (
			r    SearchResult
			kind string
			at   sql.NullInt64
		)
		m := &r.Message
		if err := rows.Scan(&kind, &r.Key.ID, &m.ID, &m.SenderID, &m.SenderAvatar, &m.Content,
			&m.AudioRef, &m.DurationSeconds, &m.ColorTag, &at); err != nil {
			return nil, err
		}
		r.Key.Kind = chat.Kind(kind)
		m.CreatedAt = fromMillis(at)
		out = append(out, r)
	}
	return out, rows.Err()
}
