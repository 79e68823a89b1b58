package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultCredentialPath is the file the API key is read from.
const DefaultCredentialPath = "~/.slop"

// ErrMissingCredential is returned when the credential file is absent,
// unreadable or blank.
var ErrMissingCredential = errors.New("missing credential")

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// LoadCredential reads the single-line secret stored at path, trimmed of
// surrounding whitespace.
func LoadCredential(path string) (string, error) {
	resolved, err := ExpandHome(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMissingCredential, err)
	}

	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingCredential, resolved)
	}
	return key, nil
}
