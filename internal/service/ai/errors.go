package ai

import (
	"context"
	"errors"

	"github.com/vedpatil1345/codetalk/internal/provider"
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	MissingCredential ErrorKind = "missing_credential"
	NetworkFailure    ErrorKind = "network_failure"
	ProviderError     ErrorKind = "provider_error"
)

// ErrMissingCredential is re-exported so callers need not import the provider package.
var ErrMissingCredential = provider.ErrMissingCredential

// Classify maps an error from Stream, Generate or the vision client to its kind.
// Anything that is neither a missing credential nor a provider answer is a
// transport failure.
func Classify(err error) ErrorKind {
	var pErr *provider.Error
	switch {
	case errors.Is(err, provider.ErrMissingCredential):
		return MissingCredential
	case errors.As(err, &pErr):
		return ProviderError
	default:
		return NetworkFailure
	}
}

// Describe returns the message shown to the user for err.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var pErr *provider.Error
	switch Classify(err) {
	case MissingCredential:
		return "The AI provider API key is not configured."
	case ProviderError:
		if errors.As(err, &pErr) && pErr.Message != "" {
			return "The AI provider returned an error: " + pErr.Message
		}
		return "The AI provider returned an error."
	default:
		if errors.Is(err, context.Canceled) {
			return "The request was cancelled."
		}
		return "Failed to reach the AI provider. Check your connection and retry."
	}
}
