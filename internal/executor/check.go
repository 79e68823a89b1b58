package executor

import (
	"context"
	"fmt"
	"strings"
)

// Validator runs the job's check command.
type Validator interface {
	// Check runs argv in dir. A nil error means the check passed.
	Check(ctx context.Context, dir string, argv []string) (output string, err error)
}

// CommandValidator judges a check by its exit status only.
type CommandValidator struct {
	Runner CommandRunner
}

// NewCommandValidator creates a CommandValidator. A nil runner executes
// real processes.
func NewCommandValidator(runner CommandRunner) *CommandValidator {
	if runner == nil {
		runner = NewExecCommandRunner()
	}
	return &CommandValidator{Runner: runner}
}

// Check implements Validator.
func (v *CommandValidator) Check(ctx context.Context, dir string, argv []string) (string, error) {
	output, err := v.Runner.Run(ctx, dir, argv)
	if err != nil {
		return output, fmt.Errorf("%w: %q: %v", ErrCheckFailed, strings.Join(argv, " "), err)
	}
	return output, nil
}
