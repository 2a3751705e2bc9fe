package models

import "time"

// Message represents a text message sent in a group.
type Message struct {
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sentAt"`
	UserName string    `json:"userName"`
}

// NewMessage builds a message authored by userName at sentAt (normalised to UTC).
func NewMessage(text, userName string, sentAt time.Time) Message {
	return Message{Text: text, SentAt: sentAt.UTC(), UserName: userName}
}

// Score is the numeric ordering key of the message in a group log.
func (m Message) Score() float64 {
	return float64(m.SentAt.UnixMilli())
}

