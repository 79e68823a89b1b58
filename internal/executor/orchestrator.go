package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/slop/internal/llm"
	"github.com/harrison/slop/internal/models"
	"github.com/harrison/slop/internal/parser"
	"github.com/harrison/slop/internal/prompt"
)

// Logger receives progress events from the replace loop.
type Logger interface {
	LogPassageFound(iteration int, relPath string, passage *models.Passage)
	LogReplacement(iteration int, replacement string)
	LogOverloadRetry(iteration, attempt int, err error)
	LogCheck(iteration int, argv []string, output string, err error)
	LogCommit(iteration int, relPath, output string, err error)
	LogIterationFailed(record models.IterationRecord)
	LogSummary(result models.RunResult)
	Warnf(format string, args ...interface{})
}

// Recorder persists iteration records. Recording failures are logged and
// never end a run.
type Recorder interface {
	Record(ctx context.Context, record models.IterationRecord) error
}

// Options supplies optional collaborators. Nil fields get the production
// implementation; Logger and Recorder may stay nil.
type Options struct {
	RunID     string
	Locator   Locator
	Applier   Applier
	Validator Validator
	Committer Committer
	Logger    Logger
	Recorder  Recorder
}

// Orchestrator drives the replace loop for one job.
type Orchestrator struct {
	job       *models.Job
	client    llm.Client
	runID     string
	locator   Locator
	applier   Applier
	validator Validator
	committer Committer
	logger    Logger
	recorder  Recorder
}

// NewOrchestrator creates an Orchestrator for a validated, compiled job.
func NewOrchestrator(job *models.Job, client llm.Client, opts Options) *Orchestrator {
	if job == nil {
		panic("job cannot be nil")
	}
	if client == nil {
		panic("client cannot be nil")
	}

	o := &Orchestrator{
		job:       job,
		client:    client,
		runID:     opts.RunID,
		locator:   opts.Locator,
		applier:   opts.Applier,
		validator: opts.Validator,
		committer: opts.Committer,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
	}
	if o.runID == "" {
		o.runID = uuid.NewString()
	}
	if o.locator == nil {
		o.locator = NewTreeLocator(job)
	}
	if o.applier == nil {
		o.applier = FileApplier{}
	}
	if o.validator == nil {
		o.validator = NewCommandValidator(nil)
	}
	if o.committer == nil {
		o.committer = NewGitCommitter()
	}
	return o
}

// RunID returns the identifier attached to every record of this run.
func (o *Orchestrator) RunID() string {
	return o.runID
}

// iteration holds everything that lives for one pass through the loop.
type iteration struct {
	number      int
	started     time.Time
	passage     *models.Passage
	relPath     string
	prompt      string
	replacement string
	retries     int
}

// Run executes the loop until no passage matches (nil error) or a fatal
// error occurs (*RunError). The returned result is never nil.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunResult, error) {
	start := time.Now()
	result := &models.RunResult{RunID: o.runID, JobPath: o.job.Path, StartedAt: start}

	var (
		state  = StateSearching
		it     *iteration
		count  int
		runErr *RunError
	)

	fail := func(kind ErrorKind, outcome string, err error) {
		runErr = &RunError{Kind: kind, State: state, Err: err}
		if it != nil {
			runErr.Path = it.relPath
			o.finish(ctx, result, it, outcome, err)
		}
		state = StateFailed
	}

	for !state.Terminal() {
		switch state {
		case StateSearching:
			if err := ctx.Err(); err != nil {
				it = nil
				fail(KindCanceled, "", err)
				continue
			}
			passage, err := o.locator.Locate()
			if err != nil {
				it = nil
				fail(KindIO, "", fmt.Errorf("failed to locate passage: %w", err))
				continue
			}
			if passage == nil {
				state = StateDone
				continue
			}
			count++
			it = &iteration{number: count, started: time.Now(), passage: passage}
			state = StateFound

		case StateFound:
			rel, err := o.job.RelPath(it.passage.Path)
			if err != nil {
				fail(KindIO, models.OutcomeLocateFailed, err)
				continue
			}
			it.relPath = rel
			it.prompt = prompt.Build(o.job.Prompt, it.passage.Text())
			o.logPassage(it)
			state = StateGenerating

		case StateGenerating:
			reply, err := o.client.Complete(ctx, it.prompt)
			if err != nil {
				if ctx.Err() == nil && o.client.IsTransient(err) {
					it.retries++
					result.Retries++
					if o.logger != nil {
						o.logger.LogOverloadRetry(it.number, it.retries, err)
					}
					continue
				}
				kind := KindProvider
				if ctx.Err() != nil {
					kind = KindCanceled
				}
				fail(kind, models.OutcomeProviderFailed, fmt.Errorf("%s: %w", o.client.Name(), err))
				continue
			}
			if o.job.ExtractCodeBlock {
				reply, err = parser.ExtractCodeBlock(reply)
				if err != nil {
					fail(KindProvider, models.OutcomeProviderFailed, fmt.Errorf("failed to extract replacement: %w", err))
					continue
				}
			}
			it.replacement = reply
			if o.logger != nil {
				o.logger.LogReplacement(it.number, reply)
			}
			state = StateApplying

		case StateApplying:
			if err := o.applier.Apply(it.passage, it.replacement); err != nil {
				fail(KindIO, models.OutcomeWriteFailed, fmt.Errorf("failed to write replacement: %w", err))
				continue
			}
			state = StateValidating

		case StateValidating:
			output, err := o.validator.Check(ctx, o.job.Path, o.job.Check)
			if o.logger != nil {
				o.logger.LogCheck(it.number, o.job.Check, output, err)
			}
			if err != nil {
				fail(KindCheck, models.OutcomeCheckFailed, err)
				continue
			}
			state = StateCommitting

		case StateCommitting:
			output, err := o.committer.Commit(ctx, o.job.Path, o.job.Commit, it.relPath)
			if o.logger != nil {
				o.logger.LogCommit(it.number, it.relPath, output, err)
			}
			if err != nil {
				fail(KindCommit, models.OutcomeCommitFailed, err)
				continue
			}
			result.Commits++
			o.finish(ctx, result, it, models.OutcomeCommitted, nil)
			it = nil
			state = StateSearching
		}
	}

	result.FinalState = state.String()
	result.Duration = time.Since(start)
	if o.logger != nil {
		o.logger.LogSummary(*result)
	}

	if runErr != nil {
		return result, runErr
	}
	return result, nil
}

// Preview locates the first passage and renders its prompt without calling
// the model or touching the tree. A nil passage means nothing matches.
// A nil locator scans the job's tree.
func Preview(job *models.Job, locator Locator) (*models.Passage, string, error) {
	if locator == nil {
		locator = NewTreeLocator(job)
	}
	passage, err := locator.Locate()
	if err != nil {
		return nil, "", &RunError{Kind: KindIO, State: StateSearching, Err: err}
	}
	if passage == nil {
		return nil, "", nil
	}
	return passage, prompt.Build(job.Prompt, passage.Text()), nil
}

func (o *Orchestrator) logPassage(it *iteration) {
	if o.logger != nil {
		o.logger.LogPassageFound(it.number, it.relPath, it.passage)
	}
}

// finish closes an iteration: it builds the record, appends it to the
// result, logs failures and hands the record to the recorder.
func (o *Orchestrator) finish(ctx context.Context, result *models.RunResult, it *iteration, outcome string, err error) {
	record := models.IterationRecord{
		RunID:             o.runID,
		Iteration:         it.number,
		Path:              it.relPath,
		Start:             it.passage.Start,
		End:               it.passage.End,
		MatchedText:       it.passage.Text(),
		ReplacementLength: len(it.replacement),
		Retries:           it.retries,
		Outcome:           outcome,
		Duration:          time.Since(it.started),
		Timestamp:         time.Now(),
	}
	if err != nil {
		record.ErrorMessage = err.Error()
	}
	result.Records = append(result.Records, record)

	if err != nil && o.logger != nil {
		o.logger.LogIterationFailed(record)
	}

	if o.recorder != nil {
		// The record outlives a canceled run.
		if rerr := o.recorder.Record(context.WithoutCancel(ctx), record); rerr != nil && o.logger != nil {
			o.logger.Warnf("failed to record iteration %d: %v", it.number, rerr)
		}
	}
}
