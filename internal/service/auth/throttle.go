package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	signInBurst    = 5
	signInInterval = 12 * time.Second
)

// attemptLimiter caps failed sign-ins per email.
type attemptLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

func newAttemptLimiter() *attemptLimiter {
	return &attemptLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Every(signInInterval),
		burst:    signInBurst,
	}
}

func (a *attemptLimiter) limiter(email string) *rate.Limiter {
	a.mu.Lock()
	defer a.mu.Unlock()

	lim, ok := a.limiters[email]
	if !ok {
		lim = rate.NewLimiter(a.every, a.burst)
		a.limiters[email] = lim
	}
	return lim
}

// Blocked reports whether email has used up its failed attempts.
func (a *attemptLimiter) Blocked(email string) bool {
	return a.limiter(email).Tokens() < 1
}

// Fail records one failed attempt.
func (a *attemptLimiter) Fail(email string) {
	a.limiter(email).Allow()
}

// Reset forgets the failures of email after a successful sign-in.
func (a *attemptLimiter) Reset(email string) {
	a.mu.Lock()
	delete(a.limiters, email)
	a.mu.Unlock()
}
