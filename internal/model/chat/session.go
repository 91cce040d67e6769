package chat

import "time"

// Session is one named, ordered log of exchanged messages.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  []Message `json:"messages"`
}

// LastTimestamp returns the timestamp of the newest message, or the zero time.
func (s Session) LastTimestamp() time.Time {
	if len(s.Messages) == 0 {
		return time.Time{}
	}
	return s.Messages[len(s.Messages)-1].Timestamp
}

// Clone returns a copy that does not share the message slice.
func (s Session) Clone() Session {
	s.Messages = append([]Message(nil), s.Messages...)
	return s
}
