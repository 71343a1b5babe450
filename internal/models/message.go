package models

import "time"

// Message is one persisted chat line. Messages are append-only; the row id
// defines the order of a room's history.
type Message struct {
	ID     int64     `json:"-"`
	Room   string    `json:"room,omitempty"`
	Sender string    `json:"sender"`
	Text   string    `json:"text"`
	Ts     time.Time `json:"ts"`
}
