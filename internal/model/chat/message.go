package chat

import "time"

// Message is a single turn inside a session.
type Message struct {
	ID              string    `json:"id"`
	Text            string    `json:"text"`
	IsFromAssistant bool      `json:"isBot"`
	Timestamp       time.Time `json:"timestamp"`
}
