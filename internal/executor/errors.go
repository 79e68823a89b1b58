package executor

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a fatal run error.
type ErrorKind int

const (
	// KindConfig covers invalid jobs, missing credentials and lock contention.
	KindConfig ErrorKind = iota
	// KindIO covers walk, read and write failures.
	KindIO
	// KindProvider covers non-transient model failures.
	KindProvider
	// KindCheck means the check command exited non-zero.
	KindCheck
	// KindCommit means git commit exited non-zero.
	KindCommit
	// KindCanceled means the run context was canceled.
	KindCanceled
)

// String returns the string representation of ErrorKind.
func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindIO:
		return "io"
	case KindProvider:
		return "provider"
	case KindCheck:
		return "check"
	case KindCommit:
		return "commit"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

var (
	// ErrCheckFailed indicates the check command exited with non-zero status.
	ErrCheckFailed = errors.New("check failed")

	// ErrCommitFailed indicates git commit exited with non-zero status.
	ErrCommitFailed = errors.New("commit failed")
)

// RunError is the fatal error that ends a run.
type RunError struct {
	Kind  ErrorKind
	State State  // State the loop was in when the error occurred
	Path  string // Passage path relative to the job root, if any
	Err   error
}

// Error implements the error interface for RunError.
func (e *RunError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *RunError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *RunError anywhere in err's chain.
// ok is false when err carries no RunError.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Kind, true
	}
	return 0, false
}
