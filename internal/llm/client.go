// Package llm provides the completion clients that generate replacement text.
//
// Every client turns a prompt into text and classifies its own failures:
// IsTransient reports whether a failed request should be retried unchanged.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderClaudeCLI = "claude-cli"
)

// Default models per provider.
const (
	DefaultAnthropicModel = "claude-3-7-sonnet-20250219"
	DefaultGeminiModel    = "gemini-2.5-pro"
)

// DefaultMaxTokens caps the length of a generated replacement.
const DefaultMaxTokens = 8192

// ErrOverloaded marks a provider response that asks the caller to retry the
// same request later. Clients wrap it; IsOverloaded detects it.
var ErrOverloaded = errors.New("provider overloaded")

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from provider")

// Client generates text for a prompt.
type Client interface {
	// Complete sends prompt as a single user message and returns the reply text.
	Complete(ctx context.Context, prompt string) (string, error)

	// IsTransient reports whether err, returned by Complete, should be
	// retried with the same prompt.
	IsTransient(err error) bool

	// Name identifies the provider and model for logs.
	Name() string
}

// Options selects and configures a provider.
type Options struct {
	Provider   string
	Model      string
	MaxTokens  int
	BaseURL    string // Anthropic API base URL override
	ClaudePath string // claude binary for the claude-cli provider
}

// IsOverloaded reports whether err carries ErrOverloaded.
func IsOverloaded(err error) bool {
	return errors.Is(err, ErrOverloaded)
}

// New constructs the client for opts.Provider. The credential is the API key
// loaded at startup; it is handed to the client here and never re-read.
func New(ctx context.Context, opts Options, credential string) (Client, error) {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderAnthropic:
		return NewAnthropicClient(credential, opts), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, credential, opts)
	case ProviderClaudeCLI:
		return NewCLIClient(credential, opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want %s, %s or %s)",
			opts.Provider, ProviderAnthropic, ProviderGemini, ProviderClaudeCLI)
	}
}

// truncate returns s truncated to maxLen bytes with "..." suffix if needed.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
