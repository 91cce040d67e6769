// Package render serves Markdown presentation of assistant replies.
package render

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	renderservice "github.com/vedpatil1345/codetalk/internal/service/render"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Markdown renders assistant replies and their stylesheet.
type Markdown interface {
	Markdown(text string) (renderservice.Response, error)
	WriteCSS(w io.Writer) error
}

// Handler serves /render routes.
type Handler struct {
	renderer Markdown
}

// New creates the render handler.
func New(renderer Markdown) *Handler {
	return &Handler{renderer: renderer}
}

// RegisterRoutes mounts the render endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/render", h.handleRender)
	r.Get("/render/styles.css", h.handleStyles)
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !utils.DecodeJSON(w, r, &req) {
		return
	}

	out, err := h.renderer.Markdown(req.Text)
	if err != nil {
		slog.Error("render failed", "error", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to render response")
		return
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleStyles(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.renderer.WriteCSS(&buf); err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to build stylesheet")
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(buf.Bytes())
}
