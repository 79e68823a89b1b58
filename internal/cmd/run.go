package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/slop/internal/config"
	"github.com/harrison/slop/internal/executor"
	"github.com/harrison/slop/internal/filelock"
	"github.com/harrison/slop/internal/history"
	"github.com/harrison/slop/internal/llm"
	"github.com/harrison/slop/internal/logger"
	"github.com/harrison/slop/internal/models"
	"github.com/harrison/slop/internal/parser"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run --job <job-file>",
		Short: "Run a replace job until no passage matches",
		Long: `Run a replace job.

Each iteration finds the first matching passage (files are walked in lexical
order), sends the prompt to the model, writes the reply in place of the
passage, runs the check command and commits the file. Overloaded provider
responses are retried immediately and without limit. Any other failure
stops the run with a non-zero exit status; a failed check leaves the file
modified for inspection.

The API key is read from ~/.slop unless credential_path is configured.

Examples:
  slop run --job jobs/unwrap.yaml
  slop run --job jobs/unwrap.yaml --provider gemini --model gemini-2.5-flash
  slop run --job jobs/unwrap.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: runCommand,
	}

	cmd.Flags().String("job", "", "Path to the job file (required)")
	cmd.Flags().String("config", "", "Path to config file (default: .slop/config.yaml)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for log files")
	cmd.Flags().String("provider", "", "Completion provider: anthropic, gemini, claude-cli")
	cmd.Flags().String("model", "", "Model name (default depends on provider)")
	cmd.Flags().Bool("no-history", false, "Do not record iterations in the history database")
	cmd.Flags().Bool("dry-run", false, "Show the first match and its prompt without changing anything")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return configError(err)
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	cfg.MergeWithFlags(
		stringFlag(cmd, "log-level"),
		stringFlag(cmd, "log-dir"),
		stringFlag(cmd, "provider"),
		stringFlag(cmd, "model"),
		&noHistory,
	)
	if err := cfg.Validate(); err != nil {
		return configError(fmt.Errorf("invalid configuration: %w", err))
	}

	jobPath, _ := cmd.Flags().GetString("job")
	job, err := parser.LoadJob(jobPath)
	if err != nil {
		return configError(err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		return previewJob(cmd, job)
	}

	credential, err := loadCredential(cfg)
	if err != nil {
		return configError(err)
	}

	lock, err := filelock.AcquireRunLock(job.Path)
	if err != nil {
		return configError(err)
	}
	defer lock.Unlock()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.New(ctx, cfg.LLMOptions(), credential)
	if err != nil {
		return configError(err)
	}

	consoleLog := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return configError(err)
	}
	defer fileLog.Close()
	log := logger.NewMulti(consoleLog, fileLog)

	runID := uuid.NewString()
	opts := executor.Options{RunID: runID, Logger: log}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.NewStore(cfg.History.DBPath)
		if err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			defer store.Close()
			opts.Recorder = store
		}
	}

	consoleLog.LogInfo(fmt.Sprintf("Run %s: job %s with %s", runID, jobPath, client.Name()))

	orch := executor.NewOrchestrator(job, client, opts)
	result, runErr := orch.Run(ctx)

	if store != nil {
		if err := store.RecordRun(context.WithoutCancel(ctx), result); err != nil {
			log.Warnf("failed to record run: %v", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Fprintf(cmd.OutOrStdout(), "No matches remain. %d commit(s) made.\n", result.Commits)
	fmt.Fprintf(cmd.OutOrStdout(), "Logs written to: %s\n", fileLog.RunFile())
	return nil
}

// loadCredential reads the API key. The claude-cli provider may run
// without one when no credential path is configured.
func loadCredential(cfg *config.Config) (string, error) {
	if cfg.Provider == llm.ProviderClaudeCLI && cfg.CredentialPath == "" {
		return "", nil
	}
	key, err := config.LoadCredential(cfg.CredentialPath)
	if err != nil {
		return "", err
	}
	return key, nil
}

func previewJob(cmd *cobra.Command, job *models.Job) error {
	passage, rendered, err := executor.Preview(job, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if passage == nil {
		fmt.Fprintf(out, "Dry-run: no passage in %s matches %q.\n", job.Path, job.Regex)
		return nil
	}

	rel, err := job.RelPath(passage.Path)
	if err != nil {
		return configError(err)
	}
	fmt.Fprintf(out, "Dry-run: first match in %s [%d:%d]\n\n", rel, passage.Start, passage.End)
	fmt.Fprintf(out, "%s\n\n", passage.Text())
	fmt.Fprintf(out, "Prompt:\n\n%s\n", rendered)
	return nil
}
