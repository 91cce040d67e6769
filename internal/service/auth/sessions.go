package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/vedpatil1345/codetalk/internal/model/auth"
)

// CookieName carries the session token.
const CookieName = "codetalk_session"

// Sessions maps opaque tokens to the signed-in user snapshot.
type Sessions struct {
	mu    sync.RWMutex
	users map[string]auth.User
}

// NewSessions returns an empty cache.
func NewSessions() *Sessions {
	return &Sessions{users: make(map[string]auth.User)}
}

// Issue stores user under a fresh random token.
func (s *Sessions) Issue(user auth.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	s.mu.Lock()
	s.users[token] = user
	s.mu.Unlock()
	return token, nil
}

// Lookup returns the user of token.
func (s *Sessions) Lookup(token string) (auth.User, bool) {
	if token == "" {
		return auth.User{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[token]
	return user, ok
}

// Revoke drops token and reports the user it belonged to.
func (s *Sessions) Revoke(token string) (auth.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[token]
	delete(s.users, token)
	return user, ok
}

// Active reports whether uid still holds any token.
func (s *Sessions) Active(uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.UID == uid {
			return true
		}
	}
	return false
}
