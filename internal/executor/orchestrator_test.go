package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/slop/internal/llm"
	"github.com/harrison/slop/internal/models"
)

func newTestOrchestrator(job *models.Job, client llm.Client, v *fakeValidator, c *fakeCommitter, opts Options) *Orchestrator {
	opts.Validator = v
	opts.Committer = c
	if opts.RunID == "" {
		opts.RunID = "run-1"
	}
	return NewOrchestrator(job, client, opts)
}

func TestRunNoMatchTerminates(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/main.rs": "fn main() {}\n",
		"notes.txt":   "foo()",
	})
	job := newJob(t, root, `foo\(\)`)
	client := &fakeClient{reply: "bar()"}
	validator := &fakeValidator{}
	committer := &fakeCommitter{}
	log := &recordingLogger{}

	result, err := newTestOrchestrator(job, client, validator, committer, Options{Logger: log}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "done", result.FinalState)
	assert.Equal(t, 0, result.Commits)
	assert.Empty(t, result.Records)
	assert.Empty(t, client.prompts)
	assert.Empty(t, validator.calls)
	assert.Empty(t, committer.calls)
	assert.Equal(t, "fn main() {}\n", readFile(t, root, "src/main.rs"))
	assert.Equal(t, "foo()", readFile(t, root, "notes.txt"))
	require.Len(t, log.summary, 1)
}

func TestRunFirstMatchByTraversalOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/z.rs": "zzzzzzzzzz foo()",
		"b.rs":   "foo()",
		"c.rs":   "nothing here",
	})
	job := newJob(t, root, `foo\(\)`)
	client := &fakeClient{reply: "bar()"}
	committer := &fakeCommitter{}

	result, err := newTestOrchestrator(job, client, &fakeValidator{}, committer, Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a/z.rs", "b.rs"}, committer.paths())
	assert.Equal(t, 2, result.Commits)
	assert.Equal(t, "zzzzzzzzzz bar()", readFile(t, root, "a/z.rs"))
	assert.Equal(t, "bar()", readFile(t, root, "b.rs"))
}

func TestRunSplicesEveryMatchInTurn(t *testing.T) {
	root := writeTree(t, map[string]string{
		"lib.rs": "let a = x.unwrap();\nlet b = y.unwrap();\n",
	})
	job := newJob(t, root, `\w+\.unwrap\(\)`)
	client := &fakeClient{respond: func(call int, prompt string) (string, error) {
		return fmt.Sprintf("v%d?", call), nil
	}}
	committer := &fakeCommitter{}

	result, err := newTestOrchestrator(job, client, &fakeValidator{}, committer, Options{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "let a = v1?;\nlet b = v2?;\n", readFile(t, root, "lib.rs"))
	assert.Equal(t, []string{"rewrite: x.unwrap()", "rewrite: y.unwrap()"}, client.prompts)
	require.Len(t, result.Records, 2)
	assert.Equal(t, 8, result.Records[0].Start)
	assert.Equal(t, 18, result.Records[0].End)
	assert.Equal(t, "x.unwrap()", result.Records[0].MatchedText)
	assert.Equal(t, models.OutcomeCommitted, result.Records[1].Outcome)
}

func TestRunPromptSubstitutesAllPlaceholders(t *testing.T) {
	root := writeTree(t, map[string]string{"m.rs": "foo()"})
	job := newJob(t, root, `foo\(\)`)
	job.Prompt = "%% and again %%"
	client := &fakeClient{reply: "done"}

	_, err := newTestOrchestrator(job, client, &fakeValidator{}, &fakeCommitter{}, Options{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Equal(t, "foo() and again foo()", client.prompts[0])
}

func TestRunRetriesOverloadWithoutMutation(t *testing.T) {
	const original = "fn f() { foo() }"
	root := writeTree(t, map[string]string{"m.rs": original})
	job := newJob(t, root, `foo\(\)`)
	validator := &fakeValidator{}
	committer := &fakeCommitter{}
	log := &recordingLogger{}

	client := &fakeClient{}
	client.respond = func(call int, prompt string) (string, error) {
		// Nothing may change while the provider is overloaded.
		assert.Equal(t, original, readFile(t, root, "m.rs"))
		assert.Empty(t, validator.calls)
		assert.Empty(t, committer.calls)
		if call <= 3 {
			return "", fmt.Errorf("status 529: %w", llm.ErrOverloaded)
		}
		return "bar()", nil
	}

	result, err := newTestOrchestrator(job, client, validator, committer, Options{Logger: log}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, client.prompts, 4)
	for _, p := range client.prompts {
		assert.Equal(t, "rewrite: foo()", p)
	}
	assert.Equal(t, "fn f() { bar() }", readFile(t, root, "m.rs"))
	assert.Equal(t, 3, result.Retries)
	assert.Equal(t, []int{1, 2, 3}, log.retries)
	require.Len(t, result.Records, 1)
	assert.Equal(t, 3, result.Records[0].Retries)
	assert.Len(t, committer.calls, 1)
}

func TestRunCheckFailureLeavesFileModified(t *testing.T) {
	root := writeTree(t, map[string]string{"src/m.rs": "foo()"})
	job := newJob(t, root, `foo\(\)`)
	validator := &fakeValidator{err: errBoom}
	committer := &fakeCommitter{}
	log := &recordingLogger{}
	recorder := &fakeRecorder{}

	result, err := newTestOrchestrator(job, &fakeClient{reply: "bar()"}, validator, committer,
		Options{Logger: log, Recorder: recorder}).Run(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrCheckFailed)
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, KindCheck, runErr.Kind)
	assert.Equal(t, StateValidating, runErr.State)
	assert.Equal(t, "src/m.rs", runErr.Path)

	assert.Equal(t, "bar()", readFile(t, root, "src/m.rs"))
	require.Len(t, validator.calls, 1)
	assert.Equal(t, root, validator.calls[0].dir)
	assert.Equal(t, []string{"cargo", "check"}, validator.calls[0].argv)
	assert.Empty(t, committer.calls)

	assert.Equal(t, "failed", result.FinalState)
	require.Len(t, recorder.records, 1)
	assert.Equal(t, models.OutcomeCheckFailed, recorder.records[0].Outcome)
	assert.NotEmpty(t, recorder.records[0].ErrorMessage)
	assert.Len(t, log.failed, 1)
}

func TestRunFatalErrors(t *testing.T) {
	tests := []struct {
		name       string
		client     *fakeClient
		committer  *fakeCommitter
		wantKind   ErrorKind
		wantState  State
		wantIs     error
		wantOut    string
		wantText   string
		wantCommit int
	}{
		{
			name: "provider error",
			client: &fakeClient{respond: func(int, string) (string, error) {
				return "", errBoom
			}},
			committer: &fakeCommitter{},
			wantKind:  KindProvider,
			wantState: StateGenerating,
			wantIs:    errBoom,
			wantOut:   models.OutcomeProviderFailed,
			wantText:  "x foo()",
		},
		{
			name: "usage limit is fatal",
			client: &fakeClient{respond: func(int, string) (string, error) {
				return "", &llm.UsageLimitError{}
			}},
			committer: &fakeCommitter{},
			wantKind:  KindProvider,
			wantState: StateGenerating,
			wantIs:    llm.ErrUsageLimit,
			wantOut:   models.OutcomeProviderFailed,
			wantText:  "x foo()",
		},
		{
			name:       "commit failure",
			client:     &fakeClient{reply: "bar()"},
			committer:  &fakeCommitter{err: errBoom},
			wantKind:   KindCommit,
			wantState:  StateCommitting,
			wantIs:     ErrCommitFailed,
			wantOut:    models.OutcomeCommitFailed,
			wantText:   "x bar()",
			wantCommit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, map[string]string{"m.rs": "x foo()"})
			job := newJob(t, root, `foo\(\)`)

			result, err := newTestOrchestrator(job, tt.client, &fakeValidator{}, tt.committer, Options{}).Run(context.Background())
			require.Error(t, err)

			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
			assert.ErrorIs(t, err, tt.wantIs)

			var runErr *RunError
			require.ErrorAs(t, err, &runErr)
			assert.Equal(t, tt.wantState, runErr.State)
			assert.Equal(t, "m.rs", runErr.Path)

			require.Len(t, result.Records, 1)
			assert.Equal(t, tt.wantOut, result.Records[0].Outcome)
			assert.Equal(t, tt.wantText, readFile(t, root, "m.rs"))
			assert.Len(t, tt.committer.calls, tt.wantCommit)
			assert.Equal(t, 0, result.Commits)
		})
	}
}

func TestRunLocateErrorIsIO(t *testing.T) {
	job := newJob(t, t.TempDir(), `foo`)
	client := &fakeClient{}

	result, err := newTestOrchestrator(job, client, &fakeValidator{}, &fakeCommitter{},
		Options{Locator: &fakeLocator{err: errBoom}}).Run(context.Background())

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindIO, kind)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, client.prompts)
	assert.Empty(t, result.Records)
}

func TestRunPassageOutsideRootIsLocateFailure(t *testing.T) {
	job := newJob(t, t.TempDir(), `foo`)
	client := &fakeClient{}
	outside := &models.Passage{Path: filepath.Join(t.TempDir(), "x.rs"), FullText: "foo", Start: 0, End: 3}

	result, err := newTestOrchestrator(job, client, &fakeValidator{}, &fakeCommitter{},
		Options{Locator: &fakeLocator{passage: outside}}).Run(context.Background())

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindIO, kind)
	assert.Empty(t, client.prompts)
	require.Len(t, result.Records, 1)
	assert.Equal(t, models.OutcomeLocateFailed, result.Records[0].Outcome)
}

func TestRunExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantText string
		wantErr  bool
	}{
		{name: "single block", reply: "Here:\n\n```rust\nbar()\n```\n", wantText: "x bar()\n"},
		{name: "no block", reply: "bar()", wantText: "x bar()"},
		{name: "two blocks", reply: "```\na\n```\n\n```\nb\n```\n", wantText: "x foo()", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := writeTree(t, map[string]string{"m.rs": "x foo()"})
			job := newJob(t, root, `foo\(\)`)
			job.ExtractCodeBlock = true

			_, err := newTestOrchestrator(job, &fakeClient{reply: tt.reply}, &fakeValidator{}, &fakeCommitter{}, Options{}).Run(context.Background())
			if tt.wantErr {
				kind, _ := KindOf(err)
				assert.Equal(t, KindProvider, kind)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantText, readFile(t, root, "m.rs"))
		})
	}
}

func TestRunRecorderFailureOnlyWarns(t *testing.T) {
	root := writeTree(t, map[string]string{"m.rs": "foo()"})
	job := newJob(t, root, `foo\(\)`)
	log := &recordingLogger{}
	recorder := &fakeRecorder{err: errors.New("disk full")}

	result, err := newTestOrchestrator(job, &fakeClient{reply: "bar()"}, &fakeValidator{}, &fakeCommitter{},
		Options{Logger: log, Recorder: recorder}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Commits)
	require.Len(t, recorder.records, 1)
	assert.Equal(t, "run-1", recorder.records[0].RunID)
	assert.Equal(t, "m.rs", recorder.records[0].Path)
	require.Len(t, log.warnings, 1)
	assert.Contains(t, log.warnings[0], "disk full")
}

func TestRunCanceledContext(t *testing.T) {
	root := writeTree(t, map[string]string{"m.rs": "foo()"})
	job := newJob(t, root, `foo\(\)`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	client := &fakeClient{}

	_, err := newTestOrchestrator(job, client, &fakeValidator{}, &fakeCommitter{}, Options{}).Run(ctx)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindCanceled, kind)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, client.prompts)
}

func TestRunCancelDuringOverloadStopsRetrying(t *testing.T) {
	root := writeTree(t, map[string]string{"m.rs": "foo()"})
	job := newJob(t, root, `foo\(\)`)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{respond: func(call int, prompt string) (string, error) {
		if call == 2 {
			cancel()
		}
		return "", llm.ErrOverloaded
	}}

	_, err := newTestOrchestrator(job, client, &fakeValidator{}, &fakeCommitter{}, Options{}).Run(ctx)

	kind, _ := KindOf(err)
	assert.Equal(t, KindCanceled, kind)
	assert.Len(t, client.prompts, 2)
	assert.Equal(t, "foo()", readFile(t, root, "m.rs"))
}

func TestPreview(t *testing.T) {
	root := writeTree(t, map[string]string{"m.rs": "a foo() b"})
	job := newJob(t, root, `foo\(\)`)

	passage, rendered, err := Preview(job, nil)
	require.NoError(t, err)
	require.NotNil(t, passage)
	assert.Equal(t, "foo()", passage.Text())
	assert.Equal(t, "rewrite: foo()", rendered)
	assert.Equal(t, "a foo() b", readFile(t, root, "m.rs"))

	passage, _, err = Preview(newJob(t, t.TempDir(), `foo`), nil)
	require.NoError(t, err)
	assert.Nil(t, passage)

	_, _, err = Preview(job, &fakeLocator{err: errBoom})
	kind, _ := KindOf(err)
	assert.Equal(t, KindIO, kind)
}

func TestNewOrchestratorDefaults(t *testing.T) {
	job := newJob(t, t.TempDir(), `foo`)
	o := NewOrchestrator(job, &fakeClient{}, Options{})

	assert.NotEmpty(t, o.RunID())
	assert.IsType(t, &TreeLocator{}, o.locator)
	assert.IsType(t, FileApplier{}, o.applier)
	assert.IsType(t, &CommandValidator{}, o.validator)
	assert.IsType(t, &GitCommitter{}, o.committer)

	assert.Panics(t, func() { NewOrchestrator(nil, &fakeClient{}, Options{}) })
	assert.Panics(t, func() { NewOrchestrator(job, nil, Options{}) })
}
