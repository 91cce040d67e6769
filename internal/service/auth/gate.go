package auth

import (
	"net/url"
	"strings"

	"github.com/vedpatil1345/codetalk/internal/model/auth"
)

const (
	HomePath = "/"
	AuthPath = "/auth"
)

// Decision is the outcome of the page gate.
type Decision struct {
	Allow    bool
	Redirect string
	// From is the location to return to after signing in.
	From string
}

// Location renders the redirect target, carrying From as a query parameter.
func (d Decision) Location() string {
	if d.Allow || d.Redirect == "" {
		return ""
	}
	if d.From == "" {
		return d.Redirect
	}
	return d.Redirect + "?from=" + url.QueryEscape(d.From)
}

// Decide computes access for path from the signed-in user alone; user is nil
// when nobody is signed in.
func Decide(path string, user *auth.User) Decision {
	signedIn := user != nil
	if path == "" {
		path = HomePath
	}
	onAuth := path == AuthPath || strings.HasPrefix(path, AuthPath+"/")

	switch {
	case !signedIn && path != HomePath && !onAuth:
		return Decision{Redirect: AuthPath, From: path}
	case signedIn && onAuth:
		return Decision{Redirect: HomePath}
	default:
		return Decision{Allow: true}
	}
}

// ReturnPath sanitizes a remembered location so sign-in only ever returns
// to a local page.
func ReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.Contains(from, "\\") {
		return HomePath
	}
	if from == AuthPath || strings.HasPrefix(from, AuthPath+"/") {
		return HomePath
	}
	return from
}
