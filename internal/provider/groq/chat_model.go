// Package groq implements an eino chat model on top of Groq's
// OpenAI-compatible chat completions API.
package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/vedpatil1345/codetalk/internal/provider"
)

const (
	providerName   = "groq"
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.2-90b-vision-preview"
)

// Config describes how to reach the Groq API.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
	TopP        *float32
	MaxTokens   *int
	HTTPClient  *http.Client
}

// ChatModel satisfies model.ChatModel so it can be appended to an eino chain.
type ChatModel struct {
	cfg    Config
	client *http.Client
}

var _ model.ChatModel = (*ChatModel)(nil)

// NewChatModel applies defaults to cfg. A missing API key is not an error
// here; calls fail with provider.ErrMissingCredential instead.
func NewChatModel(cfg Config) *ChatModel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		// No timeout: a hung stream stays open until the caller cancels.
		client = &http.Client{}
	}
	return &ChatModel{cfg: cfg, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	TopP        *float32      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stop        []string      `json:"stop,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Generate performs a single non-streamed completion.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	resp, err := m.send(ctx, input, false, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, provider.Malformed(providerName, err)
	}
	if len(out.Choices) == 0 {
		return nil, provider.Malformed(providerName, errors.New("no choices in response"))
	}

	return schema.AssistantMessage(out.Choices[0].Message.Content, nil), nil
}

// Stream opens a streamed completion. Fragments are delivered in the order
// the server emits them; the reader ends with io.EOF after the [DONE] marker.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	resp, err := m.send(ctx, input, true, opts...)
	if err != nil {
		return nil, err
	}

	sr, sw := schema.Pipe[*schema.Message](16)
	go func() {
		defer resp.Body.Close()
		defer sw.Close()

		if err := pumpEvents(resp.Body, sw); err != nil {
			sw.Send(nil, err)
		}
	}()

	return sr, nil
}

// BindTools is part of model.ChatModel; tool calling is not used here.
func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return errors.New("groq: tool calling is not supported")
}

func (m *ChatModel) send(ctx context.Context, input []*schema.Message, stream bool, opts ...model.Option) (*http.Response, error) {
	if strings.TrimSpace(m.cfg.APIKey) == "" {
		return nil, provider.ErrMissingCredential
	}

	options := model.GetCommonOptions(&model.Options{
		Model:       &m.cfg.Model,
		Temperature: m.cfg.Temperature,
		TopP:        m.cfg.TopP,
		MaxTokens:   m.cfg.MaxTokens,
	}, opts...)

	req := chatRequest{
		Model:       m.cfg.Model,
		Messages:    make([]chatMessage, 0, len(input)),
		Temperature: options.Temperature,
		TopP:        options.TopP,
		MaxTokens:   options.MaxTokens,
		Stop:        options.Stop,
		Stream:      stream,
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}
	for _, msg := range input {
		if msg == nil {
			continue
		}
		req.Messages = append(req.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	url := strings.TrimRight(m.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("groq request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, provider.FromResponse(providerName, resp)
	}

	return resp, nil
}

// pumpEvents reads the SSE body and forwards each non-empty delta.
func pumpEvents(body io.Reader, sw *schema.StreamWriter[*schema.Message]) error {
	reader := bufio.NewReader(body)
	for {
		line, readErr := reader.ReadString('\n')
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return nil
			}

			var chunk streamChunk
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				return provider.Malformed(providerName, err)
			}
			if chunk.Error != nil {
				return &provider.Error{Provider: providerName, Message: chunk.Error.Message}
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if closed := sw.Send(schema.AssistantMessage(choice.Delta.Content, nil), nil); closed {
					return nil
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return provider.Malformed(providerName, errors.New("stream ended without [DONE]"))
			}
			return fmt.Errorf("groq stream read failed: %w", readErr)
		}
	}
}
