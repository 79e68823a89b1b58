// Package parser loads job descriptions and post-processes model responses.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/harrison/slop/internal/models"
)

// ErrEmptyJob is returned when a job file contains no document.
var ErrEmptyJob = errors.New("job file is empty")

// LoadJob reads, validates and compiles the job at path.
func LoadJob(path string) (*models.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}

	job, err := ParseJob(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", path, err)
	}
	return job, nil
}

// ParseJob decodes a YAML job description. Unknown fields are rejected.
// The returned job is validated and its regex compiled.
func ParseJob(r io.Reader) (*models.Job, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var job models.Job
	if err := dec.Decode(&job); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyJob
		}
		return nil, fmt.Errorf("failed to parse job: %w", err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	if err := job.Compile(); err != nil {
		return nil, err
	}

	return &job, nil
}
