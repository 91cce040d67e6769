// Package contact serves the contact form.
package contact

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedpatil1345/codetalk/internal/service/mail"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Sender delivers a contact form.
type Sender interface {
	Send(ctx context.Context, form mail.ContactForm) error
}

// Handler serves /contact.
type Handler struct {
	sender Sender
}

// New creates the contact handler.
func New(sender Sender) *Handler {
	return &Handler{sender: sender}
}

// RegisterRoutes mounts the contact endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.handleContact)
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var form mail.ContactForm
	if !utils.DecodeJSON(w, r, &form) {
		return
	}

	err := h.sender.Send(r.Context(), form)
	var vErr *prompt.ValidationError
	switch {
	case err == nil:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "sent"})
	case errors.As(err, &vErr):
		utils.RespondError(w, http.StatusBadRequest, vErr.Field+" is required")
	case errors.Is(err, mail.ErrNotConfigured):
		utils.RespondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Warn("contact form delivery failed", "error", err)
		utils.RespondError(w, http.StatusBadGateway, "Failed to send message. Please try again.")
	}
}
