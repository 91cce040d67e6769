// Package auth signs users in against an identity provider, caches the
// signed-in user per session token and decides page access.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/vedpatil1345/codetalk/internal/model/auth"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
)

// Sign-in failures.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrUserDisabled       = errors.New("user disabled")
	ErrTooManyAttempts    = errors.New("too many attempts")
)

var messages = []struct {
	err  error
	text string
}{
	{ErrInvalidCredentials, "Invalid email or password."},
	{ErrEmailInUse, "An account with this email already exists."},
	{ErrWeakPassword, "Password should be at least 6 characters."},
	{ErrInvalidEmail, "Please enter a valid email address."},
	{ErrUserDisabled, "This account has been disabled."},
	{ErrTooManyAttempts, "Too many attempts. Please try again later."},
}

// MinPasswordLength matches the Firebase password policy.
const MinPasswordLength = 6

// Provider is an identity backend.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (auth.User, error)
	SignIn(ctx context.Context, email, password string) (auth.User, error)
	SignOut(ctx context.Context, user auth.User) error
}

// ValidateCredentials rejects blank fields and malformed emails before a
// provider is called.
func ValidateCredentials(email, password string) error {
	if err := prompt.Require("email", email, "password", password); err != nil {
		return err
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t") {
		return ErrInvalidEmail
	}
	return nil
}

// Message returns the text shown to the user for a sign-in failure.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var vErr *prompt.ValidationError
	if errors.As(err, &vErr) {
		return "Please fill in " + vErr.Field + "."
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	return "Authentication failed. Please try again."
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
