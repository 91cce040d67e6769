// Package history persists chat sessions per signed-in user.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/vedpatil1345/codetalk/internal/model/chat"
)

const (
	// RecordKey names the single record holding every session of an owner.
	RecordKey = "chatHistory"
	// Greeting seeds every new session.
	Greeting = "Hello! How can I help you with your code today?"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyMessage    = errors.New("message text is required")
)

// Store is the write-through session log of one owner.
type Store struct {
	db     *bolt.DB
	bucket []byte
	now    func() time.Time

	mu       sync.Mutex
	sessions []chat.Session
	activeID string
}

func openStore(db *bolt.DB, owner string, now func() time.Time) (*Store, error) {
	s := &Store{db: db, bucket: []byte(owner), now: now}

	sessions, err := s.read()
	if err != nil {
		slog.Warn("chat history unreadable, starting fresh", "owner", owner, "kind", "StorageCorrupt", "error", err)
		if _, err := s.CreateSession(); err != nil {
			return nil, err
		}
		return s, nil
	}

	s.sessions = sessions
	if n := len(sessions); n > 0 {
		s.activeID = sessions[n-1].ID
	}
	return s, nil
}

// CreateSession appends a new session seeded with the greeting and makes it active.
func (s *Store) CreateSession() (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return chat.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	now := s.now().UTC()
	session := chat.Session{
		ID:        id.String(),
		Title:     "Chat Session " + now.Format("1/2/2006"),
		CreatedAt: now,
		Messages: []chat.Message{{
			ID:              uuid.NewString(),
			Text:            Greeting,
			IsFromAssistant: true,
			Timestamp:       now,
		}},
	}

	next := append(cloneAll(s.sessions), session)
	if err := s.write(next); err != nil {
		return chat.Session{}, err
	}
	s.sessions = next
	s.activeID = session.ID
	return session.Clone(), nil
}

// AppendMessage adds msg to the session. The timestamp is assigned so that
// messages stay strictly ordered. Unknown sessions are left untouched and
// reported with ErrSessionNotFound.
func (s *Store) AppendMessage(sessionID string, msg chat.Message) (chat.Message, error) {
	if msg.Text == "" {
		return chat.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionID)
	if idx < 0 {
		return chat.Message{}, ErrSessionNotFound
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	ts := s.now().UTC()
	if last := s.sessions[idx].LastTimestamp(); !ts.After(last) {
		ts = last.Add(time.Millisecond)
	}
	msg.Timestamp = ts

	next := cloneAll(s.sessions)
	next[idx].Messages = append(next[idx].Messages, msg)
	if err := s.write(next); err != nil {
		return chat.Message{}, err
	}
	s.sessions = next
	return msg, nil
}

// ListSessions returns every session, oldest first.
func (s *Store) ListSessions() []chat.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneAll(s.sessions)
}

// Session returns one session by id.
func (s *Store) Session(sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(sessionID)
	if idx < 0 {
		return chat.Session{}, ErrSessionNotFound
	}
	return s.sessions[idx].Clone(), nil
}

// SwitchActive makes sessionID the active session.
func (s *Store) SwitchActive(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(sessionID) < 0 {
		return ErrSessionNotFound
	}
	s.activeID = sessionID
	return nil
}

// Active returns the active session, creating one if the store is empty.
func (s *Store) Active() (chat.Session, error) {
	s.mu.Lock()
	if idx := s.indexOf(s.activeID); idx >= 0 {
		session := s.sessions[idx].Clone()
		s.mu.Unlock()
		return session, nil
	}
	s.mu.Unlock()
	return s.CreateSession()
}

// ClearAll removes every session.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(nil); err != nil {
		return err
	}
	s.sessions = nil
	s.activeID = ""
	return nil
}

func (s *Store) indexOf(sessionID string) int {
	if sessionID == "" {
		return -1
	}
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			return i
		}
	}
	return -1
}

func (s *Store) read() ([]chat.Session, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(RecordKey)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var sessions []chat.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode %s: %w", RecordKey, err)
	}
	for _, session := range sessions {
		if session.ID == "" {
			return nil, fmt.Errorf("decode %s: session without id", RecordKey)
		}
	}
	return sessions, nil
}

func (s *Store) write(sessions []chat.Session) error {
	if sessions == nil {
		sessions = []chat.Session{}
	}
	enc, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode %s: %w", RecordKey, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(RecordKey), enc)
	})
}

func cloneAll(sessions []chat.Session) []chat.Session {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]chat.Session, len(sessions))
	for i, session := range sessions {
		out[i] = session.Clone()
	}
	return out
}
