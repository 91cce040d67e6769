package ai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/vedpatil1345/codetalk/internal/config"
)

// Service runs prompts against the configured chat model.
type Service struct {
	chatModel model.BaseChatModel
	streaming bool
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService creates the AI service. A provider without credentials yields a
// service whose every call fails with ErrMissingCredential, so the server
// still starts and the UI can show the configuration error.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	if !cfg.Credentialed() {
		slog.Warn("ai provider has no credential, prompts will fail", "provider", cfg.Provider)
		return &Service{streaming: cfg.StreamResponse}, nil
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg.StreamResponse)
}

// NewServiceWithModel wires an existing chat model into the prompt chain.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, streaming bool) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		streaming: streaming,
		chain:     runnable,
	}, nil
}

// StreamingEnabled reports whether the provider is asked for incremental output.
func (s *Service) StreamingEnabled() bool {
	return s.streaming
}

// Generate returns the whole completion for query.
func (s *Service) Generate(ctx context.Context, query string) (*schema.Message, error) {
	if s.chain == nil {
		return nil, ErrMissingCredential
	}

	response, err := s.chain.Invoke(ctx, map[string]any{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to run AI chain: %w", err)
	}

	slog.Debug("ai response generated", "length", len(response.Content))
	return response, nil
}

// Stream returns the completion for query as ordered fragments. When
// streaming is disabled the full completion arrives as a single fragment.
func (s *Service) Stream(ctx context.Context, query string) (*schema.StreamReader[*schema.Message], error) {
	if s.chain == nil {
		return nil, ErrMissingCredential
	}

	if !s.streaming {
		msg, err := s.Generate(ctx, query)
		if err != nil {
			return nil, err
		}
		return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
	}

	stream, err := s.chain.Stream(ctx, map[string]any{"query": query})
	if err != nil {
		return nil, fmt.Errorf("failed to stream AI chain output: %w", err)
	}
	return stream, nil
}
