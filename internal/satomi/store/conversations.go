package store

import (
	"database/sql"
	"fmt"
	"time"
)

// StoredTurn is one persisted message. The raw text is the source of truth;
// intent and confidence are recorded for inspection and can be rebuilt from
// the text on replay.
type StoredTurn struct {
	ID         int64
	Role       string
	Body       string
	Intent     string
	Confidence float64
	CreatedAt  time.Time
}

// EnsureConversation returns the conversation id for (roomID, senderID),
// creating the row on first contact.
func (s *Store) EnsureConversation(roomID, senderID string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT OR IGNORE INTO conversations (room_id, sender_id) VALUES (?, ?)",
		roomID, senderID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		if id, err := res.LastInsertId(); err == nil {
			return id, nil
		}
	}

	var id int64
	err = s.db.QueryRow(
		"SELECT id FROM conversations WHERE room_id = ? AND sender_id = ?",
		roomID, senderID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up conversation: %w", err)
	}
	return id, nil
}

// AppendTurn records one message. The log is append-only; rows are never
// updated.
func (s *Store) AppendTurn(conversationID int64, role, body, intentName string, confidence float64) error {
	_, err := s.db.Exec(
		"INSERT INTO turns (conversation_id, role, body, intent, confidence) VALUES (?, ?, ?, ?, ?)",
		conversationID, role, body, intentName, confidence,
	)
	if err != nil {
		return fmt.Errorf("failed to append turn: %w", err)
	}
	return nil
}

// RecentTurns returns the last limit turns of a conversation, oldest first,
// so a restarted process can replay them through extraction and
// classification to rebuild its short-term memory.
func (s *Store) RecentTurns(conversationID int64, limit int) ([]StoredTurn, error) {
	rows, err := s.db.Query(`
		SELECT id, role, body, intent, confidence, created_at FROM (
			SELECT id, role, body, intent, confidence, created_at
			FROM turns WHERE conversation_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		conversationID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []StoredTurn
	for rows.Next() {
		var t StoredTurn
		if err := rows.Scan(&t.ID, &t.Role, &t.Body, &t.Intent, &t.Confidence, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// DeleteConversation removes a conversation and its turns, for an explicit
// "forget this conversation" reset.
func (s *Store) DeleteConversation(roomID, senderID string) error {
	_, err := s.db.Exec(
		"DELETE FROM conversations WHERE room_id = ? AND sender_id = ?",
		roomID, senderID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// SetKV stores a small piece of client state, such as the sync token.
func (s *Store) SetKV(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// GetKV returns the stored value for key, or "" when absent.
func (s *Store) GetKV(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}
