// Package vision serves the image to code upload.
package vision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vedpatil1345/codetalk/internal/service/ai"
	visionservice "github.com/vedpatil1345/codetalk/internal/service/vision"
	"github.com/vedpatil1345/codetalk/pkg/utils"
)

// Converter turns an image into code.
type Converter interface {
	ImageToCode(ctx context.Context, platform, mimeType string, data []byte) (string, error)
}

// Handler serves /image2code.
type Handler struct {
	converter Converter
}

// New creates the vision handler.
func New(converter Converter) *Handler {
	return &Handler{converter: converter}
}

// RegisterRoutes mounts the upload endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/image2code", h.handleImageToCode)
}

type imageResponse struct {
	Platform string `json:"platform"`
	Code     string `json:"code"`
}

func (h *Handler) handleImageToCode(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, visionservice.MaxImageSize+(1<<20))
	if err := r.ParseMultipartForm(visionservice.MaxImageSize); err != nil {
		utils.RespondError(w, http.StatusBadRequest, visionservice.RejectionReason)
		return
	}

	platform := r.FormValue("platform")
	if platform == "" {
		platform = "html"
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, visionservice.RejectionReason)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, visionservice.MaxImageSize+1))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	check := visionservice.ValidateImage(header.Header.Get("Content-Type"), int64(len(data)), data)
	if !check.Valid {
		utils.RespondError(w, http.StatusBadRequest, check.Reason)
		return
	}

	code, err := h.converter.ImageToCode(r.Context(), platform, check.MIMEType, data)
	if err != nil {
		if errors.Is(err, visionservice.ErrUnknownPlatform) {
			utils.RespondError(w, http.StatusBadRequest, "unsupported platform")
			return
		}
		status := http.StatusBadGateway
		if ai.Classify(err) == ai.MissingCredential {
			status = http.StatusServiceUnavailable
		}
		slog.Warn("image to code failed", "platform", platform, "kind", ai.Classify(err), "error", err)
		utils.RespondJSON(w, status, map[string]string{
			"error":     ai.Describe(err),
			"errorKind": string(ai.Classify(err)),
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, imageResponse{Platform: platform, Code: code})
}
