package executor

import (
	"context"
	"fmt"
)

// Committer records a change to a single file.
type Committer interface {
	// Commit commits relPath, relative to dir, with message.
	Commit(ctx context.Context, dir, message, relPath string) (output string, err error)
}

// GitCommitter commits with `git commit --message <msg> -- <path>`.
// Only the named path is committed; other staged changes are left alone.
type GitCommitter struct {
	// CommandRunner for executing git commands (uses exec if nil)
	CommandRunner CommandRunner

	// GitPath is the git binary (default "git").
	GitPath string
}

// NewGitCommitter creates a GitCommitter with default settings.
func NewGitCommitter() *GitCommitter {
	return &GitCommitter{GitPath: "git"}
}

// NewGitCommitterWithRunner creates a GitCommitter with a custom command runner.
func NewGitCommitterWithRunner(runner CommandRunner) *GitCommitter {
	return &GitCommitter{CommandRunner: runner, GitPath: "git"}
}

// Args returns the git argv for committing relPath with message.
func (g *GitCommitter) Args(message, relPath string) []string {
	git := g.GitPath
	if git == "" {
		git = "git"
	}
	return []string{git, "commit", "--message", message, "--", relPath}
}

// Commit implements Committer.
func (g *GitCommitter) Commit(ctx context.Context, dir, message, relPath string) (string, error) {
	runner := g.CommandRunner
	if runner == nil {
		runner = NewExecCommandRunner()
	}

	output, err := runner.Run(ctx, dir, g.Args(message, relPath))
	if err != nil {
		return output, fmt.Errorf("%w: %s: %v", ErrCommitFailed, relPath, err)
	}
	return output, nil
}
