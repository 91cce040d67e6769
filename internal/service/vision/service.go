package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vedpatil1345/codetalk/internal/provider/gemini"
	"github.com/vedpatil1345/codetalk/internal/service/prompt"
)

// Generator produces text from a prompt and an inline image.
type Generator interface {
	GenerateContent(ctx context.Context, text string, image *gemini.InlineImage) (string, error)
}

// Service converts screenshots into code for a target platform.
type Service struct {
	gen Generator
}

// NewService wraps gen.
func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

// ErrUnknownPlatform is returned for a platform outside prompt.Platforms.
var ErrUnknownPlatform = errors.New("unknown platform")

// ImageToCode asks the vision model for platform code reproducing the image.
func (s *Service) ImageToCode(ctx context.Context, platform, mimeType string, data []byte) (string, error) {
	if _, ok := prompt.Platforms[platform]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, platform)
	}

	p := prompt.BuildImagePrompt(platform)
	text, err := s.gen.GenerateContent(ctx, p.Query, &gemini.InlineImage{MIMEType: mimeType, Data: data})
	if err != nil {
		return "", fmt.Errorf("image to code: %w", err)
	}

	slog.Debug("image converted", "platform", platform, "bytes", len(data), "length", len(text))
	return text, nil
}
