// Package provider holds the error vocabulary shared by the LLM provider clients.
package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrMissingCredential is returned before any network call when no API key is configured.
var ErrMissingCredential = errors.New("provider API key is not configured")

// Error reports a non-2xx answer or a malformed payload from a provider.
type Error struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Malformed builds an Error for a response body that could not be understood.
func Malformed(providerName string, err error) *Error {
	return &Error{Provider: providerName, Message: fmt.Sprintf("malformed response: %v", err)}
}

// FromResponse reads at most 4 KiB of a failed response and extracts the
// provider's error message. Both OpenAI-style and Google-style bodies carry
// it under error.message.
func FromResponse(providerName string, resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		msg = payload.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &Error{Provider: providerName, StatusCode: resp.StatusCode, Message: msg}
}
