// Package chat serves the per-user chat history and chat turns.
package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedpatil1345/codetalk/internal/handler/stream"
	"github.com/vedpatil1345/codetalk/internal/middleware"
	"github.com/vedpatil1345/codetalk/internal/model/chat"
	modelprompt "github.com/vedpatil1345/codetalk/internal/model/prompt"
	"github.com/vedpatil1345/codetalk/internal/service/history"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
	"github.com/vedpatil1345/codetalk/internal/service/request"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Stores resolves the history store of a signed-in user.
type Stores interface {
	Open(uid string) (*history.Store, error)
}

// Handler serves /sessions routes. Every route expects an authenticated user.
type Handler struct {
	stores   Stores
	streamer request.Streamer
}

// New creates the chat handler.
func New(stores Stores, streamer request.Streamer) *Handler {
	return &Handler{stores: stores, streamer: streamer}
}

// RegisterRoutes mounts the history endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Delete("/", h.handleClear)
		r.Get("/active", h.handleActive)
		r.Put("/active", h.handleSwitch)
		r.Get("/{sessionID}", h.handleGet)
		r.Post("/{sessionID}/messages", h.handleAppend)
		r.Post("/{sessionID}/chat", h.handleChat)
	})
}

type listResponse struct {
	Sessions []chat.Session `json:"sessions"`
	ActiveID string         `json:"activeId"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	active, err := store.Active()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, listResponse{Sessions: store.ListSessions(), ActiveID: active.ID})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	session, err := store.CreateSession()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.ClearAll(); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	session, err := store.Active()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleSwitch(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var payload struct {
		ID string `json:"id"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if err := store.SwitchActive(payload.ID); err != nil {
		respondStoreError(w, err)
		return
	}
	session, err := store.Session(payload.ID)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	session, err := store.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, session)
}

func (h *Handler) handleAppend(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var payload struct {
		Text            string `json:"text"`
		IsFromAssistant bool   `json:"isBot"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}

	msg, err := store.AppendMessage(chi.URLParam(r, "sessionID"), chat.Message{
		Text:            payload.Text,
		IsFromAssistant: payload.IsFromAssistant,
	})
	if err != nil {
		respondStoreError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, msg)
}

// handleChat records the user's message, streams the assistant reply and
// records it once complete. A failed reply is not persisted.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	var payload struct {
		Message string `json:"message"`
	}
	if !utils.DecodeJSON(w, r, &payload) {
		return
	}
	if err := prompt.Require("message", payload.Message); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := store.AppendMessage(sessionID, chat.Message{Text: payload.Message}); err != nil {
		respondStoreError(w, err)
		return
	}

	ew, err := utils.NewEventWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	p := prompt.BuildChatPrompt(payload.Message)
	results := stream.Run(r.Context(), ew, h.streamer, []modelprompt.Prompt{p}, sessionID)

	final := results[0]
	if final.Status != request.StatusSucceeded {
		slog.Info("chat turn not completed", "session", sessionID, "status", final.Status, "kind", final.ErrorKind)
		return
	}
	if _, err := store.AppendMessage(sessionID, chat.Message{Text: final.Response, IsFromAssistant: true}); err != nil {
		slog.Error("failed to save assistant message", "session", sessionID, "error", err)
	}
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*history.Store, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "sign in required")
		return nil, false
	}
	store, err := h.stores.Open(user.UID)
	if err != nil {
		slog.Error("failed to open history store", "uid", user.UID, "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to load chat history")
		return nil, false
	}
	return store, true
}

func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, history.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, history.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("history store failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to update chat history")
	}
}
