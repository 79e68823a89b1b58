package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/harrison/slop/internal/llm"
	"github.com/harrison/slop/internal/models"
)

// fakeClient answers prompts through respond, or with a fixed reply.
type fakeClient struct {
	prompts []string
	reply   string
	respond func(call int, prompt string) (string, error)
}

func (c *fakeClient) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if c.respond != nil {
		return c.respond(len(c.prompts), prompt)
	}
	return c.reply, nil
}

func (c *fakeClient) IsTransient(err error) bool { return llm.IsOverloaded(err) }

func (c *fakeClient) Name() string { return "fake" }

type checkCall struct {
	dir  string
	argv []string
}

type fakeValidator struct {
	calls []checkCall
	err   error
}

func (v *fakeValidator) Check(ctx context.Context, dir string, argv []string) (string, error) {
	v.calls = append(v.calls, checkCall{dir: dir, argv: argv})
	if v.err != nil {
		return "error: oops", fmt.Errorf("%w: %v", ErrCheckFailed, v.err)
	}
	return "ok", nil
}

type commitCall struct {
	dir, message, relPath string
}

type fakeCommitter struct {
	calls []commitCall
	err   error
}

func (c *fakeCommitter) Commit(ctx context.Context, dir, message, relPath string) (string, error) {
	c.calls = append(c.calls, commitCall{dir: dir, message: message, relPath: relPath})
	if c.err != nil {
		return "", fmt.Errorf("%w: %v", ErrCommitFailed, c.err)
	}
	return "[main abc123] " + message, nil
}

func (c *fakeCommitter) paths() []string {
	out := make([]string, 0, len(c.calls))
	for _, call := range c.calls {
		out = append(out, call.relPath)
	}
	return out
}

type fakeLocator struct {
	passage *models.Passage
	err     error
}

func (l *fakeLocator) Locate() (*models.Passage, error) {
	return l.passage, l.err
}

type fakeRecorder struct {
	records []models.IterationRecord
	err     error
}

func (r *fakeRecorder) Record(ctx context.Context, record models.IterationRecord) error {
	r.records = append(r.records, record)
	return r.err
}

// recordingLogger captures logging calls for testing.
type recordingLogger struct {
	found    []string
	retries  []int
	failed   []models.IterationRecord
	summary  []models.RunResult
	warnings []string
}

func (l *recordingLogger) LogPassageFound(iteration int, relPath string, passage *models.Passage) {
	l.found = append(l.found, relPath)
}
func (l *recordingLogger) LogReplacement(iteration int, replacement string) {}
func (l *recordingLogger) LogOverloadRetry(iteration, attempt int, err error) {
	l.retries = append(l.retries, attempt)
}
func (l *recordingLogger) LogCheck(iteration int, argv []string, output string, err error) {}
func (l *recordingLogger) LogCommit(iteration int, relPath, output string, err error)     {}
func (l *recordingLogger) LogIterationFailed(record models.IterationRecord) {
	l.failed = append(l.failed, record)
}
func (l *recordingLogger) LogSummary(result models.RunResult) {
	l.summary = append(l.summary, result)
}
func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

var errBoom = errors.New("boom")

// writeTree creates files under a fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func readFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newJob(t *testing.T, root, regex string) *models.Job {
	t.Helper()
	job := &models.Job{
		Path:   root,
		Regex:  regex,
		Prompt: "rewrite: %%",
		Check:  []string{"cargo", "check"},
		Commit: "Rewrite",
	}
	if err := job.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := job.Compile(); err != nil {
		t.Fatal(err)
	}
	return job
}
