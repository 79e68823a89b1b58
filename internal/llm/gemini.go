package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli       *genai.Client
	model     string
	maxTokens int
}

// NewGeminiClient creates a Gemini API client authenticated with apiKey.
func NewGeminiClient(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured")
	}

	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	return &GeminiClient{cli: cli, model: model, maxTokens: maxTokens}, nil
}

// Name returns "gemini:<model>".
func (g *GeminiClient) Name() string { return ProviderGemini + ":" + g.model }

// IsTransient reports whether the API asked for the request to be repeated.
func (g *GeminiClient) IsTransient(err error) bool { return IsOverloaded(err) }

// Complete sends prompt as a single user turn and returns the text of the
// first candidate.
func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxTokens)},
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classifyGeminiError wraps ErrOverloaded around 503 UNAVAILABLE responses,
// which Gemini returns when the model is overloaded.
func classifyGeminiError(err error) error {
	code, status, ok := geminiErrorCode(err)
	if ok && (code == http.StatusServiceUnavailable || status == "UNAVAILABLE") {
		return fmt.Errorf("%w: gemini: %v", ErrOverloaded, err)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

func geminiErrorCode(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, true
	}
	return 0, "", false
}
