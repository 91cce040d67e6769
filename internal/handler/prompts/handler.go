// Package prompts exposes the prompt builders as JSON endpoints.
package prompts

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	modelprompt "github.com/vedpatil1345/codetalk/internal/model/prompt"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Handler serves /prompts routes.
type Handler struct{}

// New creates the prompts handler.
func New() *Handler {
	return &Handler{}
}

// RegisterRoutes mounts the builders.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/prompts/analysis", h.handleAnalysis)
	r.Post("/prompts/errors", h.handleErrors)
	r.Post("/prompts/translate", h.handleTranslate)
}

type promptsResponse struct {
	Prompts []modelprompt.Prompt `json:"prompts"`
}

func (h *Handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := prompt.Require("code", req.Code, "language", req.Language); err != nil {
		respondValidation(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, promptsResponse{Prompts: prompt.BuildAnalysisPrompts(req.Code, req.Language)})
}

func (h *Handler) handleErrors(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := prompt.Require("error", req.Error); err != nil {
		respondValidation(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, promptsResponse{Prompts: prompt.BuildErrorPrompts(req.Error, req.Code)})
}

func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code           string `json:"code"`
		TargetLanguage string `json:"targetLanguage"`
	}
	if !utils.DecodeJSON(w, r, &req) {
		return
	}
	if err := prompt.Require("code", req.Code, "targetLanguage", req.TargetLanguage); err != nil {
		respondValidation(w, err)
		return
	}
	p := prompt.BuildTranslatePrompt(req.Code, req.TargetLanguage)
	utils.RespondJSON(w, http.StatusOK, promptsResponse{Prompts: []modelprompt.Prompt{p}})
}

func respondValidation(w http.ResponseWriter, err error) {
	var vErr *prompt.ValidationError
	if errors.As(err, &vErr) {
		utils.RespondError(w, http.StatusBadRequest, vErr.Field+" is required")
		return
	}
	utils.RespondError(w, http.StatusBadRequest, err.Error())
}
