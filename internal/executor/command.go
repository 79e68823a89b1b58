package executor

import (
	"context"
	"errors"
	"os/exec"
)

// CommandRunner abstracts subprocess execution for testability.
type CommandRunner interface {
	// Run executes argv in dir and returns combined stdout/stderr.
	// A non-zero exit status is reported as an error.
	Run(ctx context.Context, dir string, argv []string) (output string, err error)
}

// ExecCommandRunner runs commands directly, without a shell.
type ExecCommandRunner struct{}

// NewExecCommandRunner creates a CommandRunner that executes real processes.
func NewExecCommandRunner() *ExecCommandRunner {
	return &ExecCommandRunner{}
}

// Run executes argv[0] with argv[1:] as arguments.
func (r *ExecCommandRunner) Run(ctx context.Context, dir string, argv []string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	return string(output), err
}
