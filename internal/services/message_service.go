package services

import (
	"database/sql"
	"time"

	"github.com/avelinof/chatrelay/internal/models"
)

// SQLite stores timestamps as text; keep the format fixed so ordering and
// retention comparisons stay lexicographic-safe.
const storedTimeFormat = time.RFC3339Nano

func parseStoredTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// MessageServiceProvider defines the interface for message persistence.
type MessageServiceProvider interface {
	Append(room, sender, text string, ts time.Time) (models.Message, error)
	Recent(room string, limit int) ([]models.Message, error)
	PruneBefore(cutoff time.Time) (int64, error)
}

// MessageService provides the append-only message log.
type MessageService struct {
	db *sql.DB
}

// NewMessageService creates a new MessageService.
func NewMessageService(db *sql.DB) *MessageService {
	return &MessageService{db: db}
}

// Append durably appends one message to a room's log. The assigned row id
// defines the room's order.
func (s *MessageService) Append(room, sender, text string, ts time.Time) (models.Message, error) {
	msg := models.Message{
		Room:   room,
		Sender: sender,
		Text:   text,
		Ts:     ts,
	}

	res, err := s.db.Exec("INSERT INTO messages(room, sender, text, ts) VALUES(?, ?, ?, ?)",
		room, sender, text, ts.Format(storedTimeFormat))
	if err != nil {
		return models.Message{}, err
	}
	msg.ID, err = res.LastInsertId()
	if err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// Recent returns up to limit messages from a room in chronological order,
// selecting the most recent ones first and reversing.
func (s *MessageService) Recent(room string, limit int) ([]models.Message, error) {
	rows, err := s.db.Query(
		"SELECT id, sender, text, ts FROM messages WHERE room = ? ORDER BY id DESC LIMIT ?",
		room, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		var ts string
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Text, &ts); err != nil {
			return nil, err
		}
		msg.Ts = parseStoredTime(ts)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse into oldest-first order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// PruneBefore deletes messages older than the cutoff and reports how many
// rows were removed.
func (s *MessageService) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM messages WHERE ts < ?", cutoff.Format(storedTimeFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
