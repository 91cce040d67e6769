package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedpatil1345/codetalk/internal/provider"
)

func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
		}
	}))
}

func drain(t *testing.T, sr *schema.StreamReader[*schema.Message]) (string, error) {
	t.Helper()
	defer sr.Close()
	var sb strings.Builder
	for {
		msg, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(msg.Content)
	}
}

func TestStreamConcatenatesDeltasInOrder(t *testing.T) {
	srv := sseServer(t,
		`{"choices":[{"delta":{"role":"assistant"}}]}`,
		`{"choices":[{"delta":{"content":"Hel"}}]}`,
		`{"choices":[{"delta":{"content":"lo"}}]}`,
		`[DONE]`,
	)
	defer srv.Close()

	m := NewChatModel(Config{APIKey: "test-key", BaseURL: srv.URL})
	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)

	text, err := drain(t, sr)
	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
}

func TestStreamWithoutDoneIsProviderError(t *testing.T) {
	srv := sseServer(t, `{"choices":[{"delta":{"content":"partial"}}]}`)
	defer srv.Close()

	m := NewChatModel(Config{APIKey: "test-key", BaseURL: srv.URL})
	sr, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)

	_, err = drain(t, sr)
	var pErr *provider.Error
	assert.True(t, errors.As(err, &pErr))
}

func TestStreamMissingCredential(t *testing.T) {
	m := NewChatModel(Config{})
	_, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	assert.ErrorIs(t, err, provider.ErrMissingCredential)
}

func TestGenerateNon2xxIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	m := NewChatModel(Config{APIKey: "test-key", BaseURL: srv.URL})
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})

	var pErr *provider.Error
	require.True(t, errors.As(err, &pErr))
	assert.Equal(t, http.StatusTooManyRequests, pErr.StatusCode)
	assert.Equal(t, "rate limited", pErr.Message)
}

func TestGenerateReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.False(t, req.Stream)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer srv.Close()

	m := NewChatModel(Config{APIKey: "test-key", BaseURL: srv.URL})
	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "done", msg.Content)
}
