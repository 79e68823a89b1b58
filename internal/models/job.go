package models

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// JobTypeReplace is the only job type currently understood.
const JobTypeReplace = "replace"

// DefaultExtensions is the extension filter used when a job names none.
var DefaultExtensions = []string{".rs"}

// Job describes one complete run of the replace workflow.
// A Job is loaded once and never mutated afterwards.
//
// YAML structure:
//
//	type: replace              # optional
//	path: ./project
//	regex: 'unwrap\(\)'
//	prompt: "Rewrite this without unwrap:\n%%"
//	check: [cargo, check]
//	commit: "Remove unwrap"
//	extensions: [".rs"]        # optional
//	exclude: [target]          # optional
//	extract_code_block: false  # optional
type Job struct {
	// Type selects the job kind. Empty means "replace".
	Type string `yaml:"type,omitempty"`

	// Path is the scan boundary and the working directory for check and commit.
	Path string `yaml:"path"`

	// Regex is the source text of Pattern.
	Regex string `yaml:"regex"`

	// Prompt is the template sent to the model; "%%" is replaced by the match.
	Prompt string `yaml:"prompt"`

	// Check is the argv of the validation command.
	Check []string `yaml:"check"`

	// Commit is the commit message used for every change.
	Commit string `yaml:"commit"`

	// Extensions limits scanning to files with these extensions.
	Extensions []string `yaml:"extensions,omitempty"`

	// Exclude lists directory names that are never descended into.
	Exclude []string `yaml:"exclude,omitempty"`

	// ExtractCodeBlock parses the model response as markdown and keeps the
	// single fenced code block it contains.
	ExtractCodeBlock bool `yaml:"extract_code_block,omitempty"`

	// Pattern is the compiled Regex, set by Compile.
	Pattern *regexp.Regexp `yaml:"-"`
}

// Validate checks that the required fields are present and well formed.
// It does not touch the filesystem.
func (j *Job) Validate() error {
	if j.Type != "" && j.Type != JobTypeReplace {
		return fmt.Errorf("unsupported job type %q", j.Type)
	}
	if strings.TrimSpace(j.Path) == "" {
		return errors.New("job path is required")
	}
	if j.Regex == "" {
		return errors.New("job regex is required")
	}
	if j.Prompt == "" {
		return errors.New("job prompt is required")
	}
	if len(j.Check) == 0 || j.Check[0] == "" {
		return errors.New("job check command is required")
	}
	if j.Commit == "" {
		return errors.New("job commit message is required")
	}
	for _, ext := range j.Extensions {
		if strings.TrimPrefix(ext, ".") == "" {
			return fmt.Errorf("invalid extension %q", ext)
		}
	}
	return nil
}

// Compile compiles Regex into Pattern.
func (j *Job) Compile() error {
	re, err := regexp.Compile(j.Regex)
	if err != nil {
		return fmt.Errorf("invalid regex %q: %w", j.Regex, err)
	}
	j.Pattern = re
	return nil
}

// ExtensionFilter returns the normalized extension filter, each entry with a
// leading dot. DefaultExtensions is used when the job names none.
func (j *Job) ExtensionFilter() []string {
	exts := j.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// RelPath expresses path relative to the job root.
func (j *Job) RelPath(path string) (string, error) {
	rel, err := filepath.Rel(j.Path, path)
	if err != nil {
		return "", fmt.Errorf("path %s is not under %s: %w", path, j.Path, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is not under %s", path, j.Path)
	}
	return rel, nil
}
