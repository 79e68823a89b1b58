package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/slop/internal/models"
	"github.com/harrison/slop/internal/parser"
	"github.com/harrison/slop/internal/prompt"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate --job <job-file>",
		Short: "Validate a job file without running it",
		Long: `Parse and validate a job file, checking for:
  - Unknown or missing fields
  - A supported job type
  - A regular expression that compiles
  - A non-empty check command and commit message
  - A scan path that exists and is a directory

Exit code: 0 if valid, 1 if errors found`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobPath, _ := cmd.Flags().GetString("job")
			return validateJobWithOutput(jobPath, cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}

	cmd.Flags().String("job", "", "Path to the job file (required)")
	_ = cmd.MarkFlagRequired("job")

	return cmd
}

// validateJobWithOutput validates a job file with custom output writer (for testing)
func validateJobWithOutput(jobPath string, output io.Writer) error {
	job, err := parser.LoadJob(jobPath)
	if err != nil {
		return configError(err)
	}

	info, err := os.Stat(job.Path)
	if err != nil {
		return configError(fmt.Errorf("job path: %w", err))
	}
	if !info.IsDir() {
		return configError(fmt.Errorf("job path %s is not a directory", job.Path))
	}

	printJobSummary(output, job)

	if !prompt.HasPlaceholder(job.Prompt) {
		fmt.Fprintf(output, "\nWarning: prompt does not contain %s; the matched text will not be sent\n", prompt.Placeholder)
	}

	fmt.Fprintf(output, "\n✓ Job is valid\n")
	return nil
}

func printJobSummary(w io.Writer, job *models.Job) {
	jobType := job.Type
	if jobType == "" {
		jobType = models.JobTypeReplace
	}

	fmt.Fprintf(w, "Job Summary:\n")
	fmt.Fprintf(w, "  Type: %s\n", jobType)
	fmt.Fprintf(w, "  Path: %s\n", job.Path)
	fmt.Fprintf(w, "  Regex: %s\n", job.Regex)
	fmt.Fprintf(w, "  Extensions: %s\n", strings.Join(job.ExtensionFilter(), ", "))
	if len(job.Exclude) > 0 {
		fmt.Fprintf(w, "  Exclude: %s\n", strings.Join(job.Exclude, ", "))
	}
	fmt.Fprintf(w, "  Check: %s\n", strings.Join(job.Check, " "))
	fmt.Fprintf(w, "  Commit: %s\n", job.Commit)
	if job.ExtractCodeBlock {
		fmt.Fprintf(w, "  Extract code block: yes\n")
	}
}
