package middleware

import (
	"context"
	"net/http"

	modelauth "github.com/vedpatil1345/codetalk/internal/model/auth"
	"github.com/vedpatil1345/codetalk/internal/service/auth"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

type contextKey struct{}

// UserFromContext returns the signed-in user attached by Authenticate.
func UserFromContext(ctx context.Context) (modelauth.User, bool) {
	user, ok := ctx.Value(contextKey{}).(modelauth.User)
	return user, ok
}

// WithUser attaches user to ctx.
func WithUser(ctx context.Context, user modelauth.User) context.Context {
	return context.WithValue(ctx, contextKey{}, user)
}

// Authenticate resolves the session cookie and attaches the cached user. It
// never rejects a request.
func Authenticate(sessions *auth.Sessions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cookie, err := r.Cookie(auth.CookieName); err == nil {
				if user, ok := sessions.Lookup(cookie.Value); ok {
					r = r.WithContext(WithUser(r.Context(), user))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser answers 401 for API requests without a signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			utils.RespondError(w, http.StatusUnauthorized, "sign in required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Gate applies the page access rules, redirecting instead of rendering.
func Gate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var current *modelauth.User
		if user, ok := UserFromContext(r.Context()); ok {
			current = &user
		}

		decision := auth.Decide(r.URL.Path, current)
		if !decision.Allow {
			http.Redirect(w, r, decision.Location(), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
