package store

import (
	"fmt"
	"time"

	"github.com/matheus3301/chatline/internal/chat"
)

// Voice outbox statuses.
const (
	StatusQueued  = "queued"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// VoiceEntry is a recorded clip waiting for upload.
type VoiceEntry struct {
	ID           int64
	ClientID     string
	Key          chat.Key
	MIME         string
	Duration     int
	Audio        []byte
	Status       string
	ErrorMessage string
	Attempts     int
	CreatedAt    time.Time
}

// QueueVoice adds a clip to the outbox.
func (db *DB) QueueVoice(clientID string, key chat.Key, mime string, duration int, audio []byte) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO voice_outbox (client_id, kind, thread_id, mime, duration, audio, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'queued', ?, ?)`,
		clientID, string(key.Kind), key.ID, mime, duration, audio, now, now)
	if err != nil {
		return fmt.Errorf("queue voice %s: %w", clientID, err)
	}
	return nil
}

// MarkVoiceSending claims a queued entry. It reports false when the entry
// was not queued any more.
func (db *DB) MarkVoiceSending(clientID string) (bool, error) {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`
		UPDATE voice_outbox SET status = 'sending', attempts = attempts + 1, updated_at = ?
		WHERE client_id = ? AND status = 'queued'`, now, clientID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// MarkVoiceSent records a successful upload and drops the audio.
func (db *DB) MarkVoiceSent(clientID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE voice_outbox SET status = 'sent', audio = x'', error_message = '', updated_at = ? WHERE client_id = ?`, now, clientID)
	return err
}

// MarkVoiceFailed records a failed upload. The audio is kept for a retry.
func (db *DB) MarkVoiceFailed(clientID, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE voice_outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE client_id = ?`, errMsg, now, clientID)
	return err
}

// RetryVoice puts a failed entry back in the queue.
func (db *DB) RetryVoice(clientID string) error {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`UPDATE voice_outbox SET status = 'queued', updated_at = ? WHERE client_id = ? AND status = 'failed'`, now, clientID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("retry voice %s: no failed entry", clientID)
	}
	return nil
}

// RequeueStale returns entries stuck in 'sending' (after a crash) to the queue.
func (db *DB) RequeueStale() (int64, error) {
	res, err := db.Exec(`UPDATE voice_outbox SET status = 'queued' WHERE status = 'sending'`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PendingVoice returns queued entries, oldest first.
func (db *DB) PendingVoice() ([]VoiceEntry, error) {
	return db.listVoice(StatusQueued)
}

// FailedVoice returns entries whose upload failed, oldest first.
func (db *DB) FailedVoice() ([]VoiceEntry, error) {
	return db.listVoice(StatusFailed)
}

func (db *DB) listVoice(status string) ([]VoiceEntry, error) {
	rows, err := db.Query(`
		SELECT id, client_id, kind, thread_id, mime, duration, audio, status, error_message, attempts, created_at
		FROM voice_outbox WHERE status = ? ORDER BY created_at ASC, id ASC`, status)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []VoiceEntry
	for rows.Next() {
		var (
			e       VoiceEntry
			kind    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.ClientID, &kind, &e.Key.ID, &e.MIME, &e.Duration, &e.Audio,
			&e.Status, &e.ErrorMessage, &e.Attempts, &created); err != nil {
			return nil, err
		}
		e.Key.Kind = chat.Kind(kind)
		e.CreatedAt = time.UnixMilli(created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
