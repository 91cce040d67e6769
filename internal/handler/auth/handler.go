// Package auth exposes sign-up, sign-in and sign-out over HTTP.
package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedpatil1345/codetalk/internal/middleware"
	modelauth "github.com/vedpatil1345/codetalk/internal/model/auth"
	"github.com/vedpatil1345/codetalk/internal/provider"
	authservice "github.com/vedpatil1345/codetalk/internal/service/auth"
	"github.com/vedpatil1345/codetalk/internal/service/history"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Lifecycle creates a user's history store on sign-in and drops it on sign-out.
type Lifecycle interface {
	Open(uid string) (*history.Store, error)
	Close(uid string)
}

// Handler serves /auth routes.
type Handler struct {
	provider     authservice.Provider
	sessions     *authservice.Sessions
	histories    Lifecycle
	secureCookie bool
}

// New creates the auth handler.
func New(p authservice.Provider, sessions *authservice.Sessions, histories Lifecycle, secureCookie bool) *Handler {
	return &Handler{provider: p, sessions: sessions, histories: histories, secureCookie: secureCookie}
}

// RegisterRoutes mounts the auth endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/signup", h.handleSignUp)
	r.Post("/auth/signin", h.handleSignIn)
	r.Post("/auth/signout", h.handleSignOut)
	r.Get("/auth/me", h.handleMe)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type authResponse struct {
	User     modelauth.User `json:"user"`
	Redirect string         `json:"redirect"`
}

func (h *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	user, err := h.provider.SignUp(r.Context(), req.Email, req.Password)
	h.complete(w, r, req, user, err)
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	user, err := h.provider.SignIn(r.Context(), req.Email, req.Password)
	h.complete(w, r, req, user, err)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request, req credentials, user modelauth.User, err error) {
	if err != nil {
		respondAuthError(w, err)
		return
	}

	// A new sign-in replaces whatever snapshot the browser held.
	if cookie, cerr := r.Cookie(authservice.CookieName); cerr == nil {
		h.sessions.Revoke(cookie.Value)
	}

	if _, err := h.histories.Open(user.UID); err != nil {
		slog.Error("failed to open history store", "uid", user.UID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to start session")
		return
	}
	http.SetCookie(w, h.cookie(token, 0))

	slog.Info("user signed in", "uid", user.UID)
	utils.RespondJSON(w, http.StatusOK, authResponse{User: user, Redirect: authservice.ReturnPath(req.From)})
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(authservice.CookieName)
	if err == nil {
		if user, ok := h.sessions.Revoke(cookie.Value); ok {
			if err := h.provider.SignOut(r.Context(), user); err != nil {
				slog.Warn("provider sign out failed", "uid", user.UID, "error", err)
			}
			if !h.sessions.Active(user.UID) {
				h.histories.Close(user.UID)
			}
			slog.Info("user signed out", "uid", user.UID)
		}
	}

	http.SetCookie(w, h.cookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "sign in required")
		return
	}
	utils.RespondJSON(w, http.StatusOK, user)
}

func (h *Handler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     authservice.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}

func respondAuthError(w http.ResponseWriter, err error) {
	var vErr *prompt.ValidationError
	status := http.StatusBadGateway
	switch {
	case errors.As(err, &vErr),
		errors.Is(err, authservice.ErrInvalidEmail),
		errors.Is(err, authservice.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, authservice.ErrInvalidCredentials),
		errors.Is(err, authservice.ErrUserDisabled):
		status = http.StatusUnauthorized
	case errors.Is(err, authservice.ErrEmailInUse):
		status = http.StatusConflict
	case errors.Is(err, authservice.ErrTooManyAttempts):
		status = http.StatusTooManyRequests
	case errors.Is(err, provider.ErrMissingCredential):
		utils.RespondError(w, http.StatusServiceUnavailable, "Authentication is not configured.")
		return
	default:
		slog.Error("auth provider failed", "error", err)
	}
	utils.RespondError(w, status, authservice.Message(err))
}
