package models

import "time"

// Message is one chat message inside a thread. ID and Timestamp are
// assigned by the message store at append time; messages are immutable
// once appended.
type Message struct {
	ID        string    `json:"id,omitempty"` // ULID
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Thread is the ordered message history for one room. Insertion order
// is chronological order; the store enforces it, not the client.
type Thread struct {
	RoomID   string    `json:"roomId"`
	Messages []Message `json:"messages"`
}
