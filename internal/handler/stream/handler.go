// Package stream serves prompt runs as Server-Sent Events.
package stream

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	modelprompt "github.com/vedpatil1345/codetalk/internal/model/prompt"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
	"github.com/vedpatil1345/codetalk/internal/service/request"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Handler streams AI responses via Server-Sent Events.
type Handler struct {
	streamer request.Streamer
}

// New creates a stream handler.
func New(streamer request.Streamer) *Handler {
	return &Handler{streamer: streamer}
}

// RegisterRoutes mounts the streaming endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.handleStream)
	r.Post("/analysis/code", h.handleCodeAnalysis)
	r.Post("/analysis/error", h.handleErrorAnalysis)
	r.Post("/translate", h.handleTranslate)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if err := prompt.Require("query", query); err != nil {
		respondValidation(w, err)
		return
	}
	h.serve(w, r, []modelprompt.Prompt{{Name: "Response", Query: query}})
}

type codeAnalysisRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

func (h *Handler) handleCodeAnalysis(w http.ResponseWriter, r *http.Request) {
	var req codeAnalysisRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := prompt.Require("code", req.Code, "language", req.Language); err != nil {
		respondValidation(w, err)
		return
	}
	h.serve(w, r, prompt.BuildAnalysisPrompts(req.Code, req.Language))
}

type errorAnalysisRequest struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (h *Handler) handleErrorAnalysis(w http.ResponseWriter, r *http.Request) {
	var req errorAnalysisRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := prompt.Require("error", req.Error); err != nil {
		respondValidation(w, err)
		return
	}
	h.serve(w, r, prompt.BuildErrorPrompts(req.Error, req.Code))
}

type translateRequest struct {
	Code           string `json:"code"`
	TargetLanguage string `json:"targetLanguage"`
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := prompt.Require("code", req.Code, "targetLanguage", req.TargetLanguage); err != nil {
		respondValidation(w, err)
		return
	}
	h.serve(w, r, []modelprompt.Prompt{prompt.BuildTranslatePrompt(req.Code, req.TargetLanguage)})
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, prompts []modelprompt.Prompt) {
	ew, err := utils.NewEventWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := Run(r.Context(), ew, h.streamer, prompts, "")

	failed := 0
	for _, s := range results {
		if s.Status == request.StatusFailed {
			failed++
		}
	}
	slog.Info("stream completed", "path", r.URL.Path, "cards", len(prompts), "failed", failed)
}

func respondValidation(w http.ResponseWriter, err error) {
	var vErr *prompt.ValidationError
	if errors.As(err, &vErr) {
		utils.RespondError(w, http.StatusBadRequest, vErr.Field+" is required")
		return
	}
	utils.RespondError(w, http.StatusBadRequest, err.Error())
}
