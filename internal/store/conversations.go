package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/matheus3301/chatline/internal/chat"
)

// ReplaceConversations swaps the cached conversation list for convs.
func (db *DB) ReplaceConversations(convs []chat.ConversationSummary) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM conversations`); err != nil {
		return fmt.Errorf("clear conversations: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO conversations (kind, id, display_name, avatar_ref, last_message_preview, last_message_at, is_liked, other_user_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UnixMilli()
	for _, c := range convs {
		if _, err := stmt.Exec(string(c.Key.Kind), c.Key.ID, c.DisplayName, c.AvatarRef,
			c.LastMessagePreview, nullableMillis(c.LastMessageTime), c.IsLiked, c.OtherUserID, now); err != nil {
			return fmt.Errorf("insert conversation %s: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

// ListConversations returns the cached list in storage order. Callers apply
// chat.Order.
func (db *DB) ListConversations() ([]chat.ConversationSummary, error) {
	rows, err := db.Query(`
		SELECT kind, id, display_name, avatar_ref, last_message_preview, last_message_at, is_liked, other_user_id
		FROM conversations`)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []chat.ConversationSummary
	for rows.Next() {
		var (
			c    chat.ConversationSummary
			kind string
			at   sql.NullInt64
		)
		if err := rows.Scan(&kind, &c.Key.ID, &c.DisplayName, &c.AvatarRef, &c.LastMessagePreview, &at, &c.IsLiked, &c.OtherUserID); err != nil {
			return nil, err
		}
		c.Key.Kind = chat.Kind(kind)
		c.LastMessageTime = fromMillis(at)
		out = append(out, c)
	}
	return out, rows.Err()
}
