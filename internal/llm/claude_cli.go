package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// CLIClient generates text by invoking the claude CLI in print mode.
// It follows the http.Client pattern: create once, use many times.
type CLIClient struct {
	// ClaudePath is the path to the claude CLI binary.
	// Defaults to "claude" (found in PATH).
	ClaudePath string

	// Model is passed via --model when set.
	Model string

	apiKey string
}

// cliResult is the document printed by `claude -p --output-format json`.
type cliResult struct {
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
	IsError   bool   `json:"is_error"`
	Result    string `json:"result"`
	SessionID string `json:"session_id"`
}

// NewCLIClient creates a CLIClient. A non-empty apiKey is exported to the CLI
// as ANTHROPIC_API_KEY.
func NewCLIClient(apiKey string, opts Options) *CLIClient {
	path := opts.ClaudePath
	if path == "" {
		path = "claude"
	}
	return &CLIClient{
		ClaudePath: path,
		Model:      opts.Model,
		apiKey:     apiKey,
	}
}

// Name returns "claude-cli" or "claude-cli:<model>".
func (c *CLIClient) Name() string {
	if c.Model == "" {
		return ProviderClaudeCLI
	}
	return ProviderClaudeCLI + ":" + c.Model
}

// IsTransient reports whether the CLI reported an overloaded API.
// Usage limits are not transient.
func (c *CLIClient) IsTransient(err error) bool { return IsOverloaded(err) }

// Complete runs `claude -p <prompt> --output-format json` and returns the
// result text.
func (c *CLIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}

	args := []string{"-p", prompt, "--output-format", "json"}
	if c.Model != "" {
		args = append(args, "--model", c.Model)
	}
	// Disable hooks for automation
	args = append(args, "--settings", `{"disableAllHooks": true}`)

	claudePath := c.ClaudePath
	if claudePath == "" {
		claudePath = "claude"
	}

	cmd := exec.CommandContext(ctx, claudePath, args...)
	setCleanEnv(cmd, c.apiKey)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	result, parseErr := parseCLIResult(stdout.Bytes())

	if runErr != nil || parseErr != nil || result.IsError {
		return "", classifyCLIFailure(runErr, parseErr, result, stdout.String(), stderr.String())
	}

	if result.Result == "" {
		return "", ErrEmptyResponse
	}
	return result.Result, nil
}

func classifyCLIFailure(runErr, parseErr error, result *cliResult, stdout, stderr string) error {
	var parts []string
	if result != nil && result.Result != "" {
		parts = append(parts, result.Result)
	} else if stdout != "" {
		parts = append(parts, stdout)
	}
	if stderr != "" {
		parts = append(parts, stderr)
	}
	output := strings.Join(parts, "\n")

	if isOverloadOutput(output) {
		return fmt.Errorf("%w: claude CLI: %s", ErrOverloaded, truncate(output, 200))
	}
	if limit := ParseUsageLimit(output); limit != nil {
		return &UsageLimitError{Limit: limit}
	}

	switch {
	case runErr != nil:
		return fmt.Errorf("claude invocation failed: %w (output: %s)", runErr, truncate(output, 500))
	case parseErr != nil:
		return fmt.Errorf("failed to parse claude output: %w", parseErr)
	default:
		return fmt.Errorf("claude reported an error: %s", truncate(output, 500))
	}
}

// parseCLIResult decodes the CLI's JSON document. Leading or trailing noise
// around the JSON object is tolerated.
func parseCLIResult(raw []byte) (*cliResult, error) {
	var result cliResult
	if err := json.Unmarshal(raw, &result); err == nil {
		return &result, nil
	}

	extracted := extractJSON(string(raw))
	if extracted == "" {
		return nil, fmt.Errorf("no JSON object in output: %q", truncate(string(raw), 200))
	}
	if err := json.Unmarshal([]byte(extracted), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return &result, nil
}

// extractJSON returns the substring from the first '{' to the last '}', or ""
// when there is none.
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	end := strings.LastIndexByte(content, '}')
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return ""
}
