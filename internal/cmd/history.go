package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/slop/internal/history"
	"github.com/harrison/slop/internal/models"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded iterations",
		Long: `Show iterations recorded by previous runs.

Without flags the most recent iterations across all runs are listed.
Use --run to list every iteration of one run, or --runs to list run
summaries.`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .slop/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of rows to show")
	cmd.Flags().String("run", "", "Show the iterations of this run id")
	cmd.Flags().Bool("runs", false, "List runs instead of iterations")

	return cmd
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return configError(err)
	}
	if cfg.History.DBPath == "" {
		return configError(fmt.Errorf("history.db_path is not configured"))
	}

	store, err := history.NewStore(cfg.History.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runID, _ := cmd.Flags().GetString("run")
	listRuns, _ := cmd.Flags().GetBool("runs")
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if listRuns {
		runs, err := store.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		printRuns(out, runs)
		return nil
	}

	var records []models.IterationRecord
	if runID != "" {
		records, err = store.ListRun(ctx, runID)
	} else {
		records, err = store.ListRecent(ctx, limit)
	}
	if err != nil {
		return err
	}
	printIterations(out, records)
	return nil
}

func printRuns(w io.Writer, runs []models.RunResult) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	for _, run := range runs {
		fmt.Fprintf(w, "%s  %s  %-7s commits=%d retries=%d  %s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"), run.RunID, run.FinalState,
			run.Commits, run.Retries, run.Duration.Round(time.Second), run.JobPath)
	}
}

func printIterations(w io.Writer, records []models.IterationRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No iterations recorded.")
		return
	}
	for _, rec := range records {
		fmt.Fprintf(w, "%s  %s #%d  %-15s %s [%d:%d] retries=%d\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04:05"), shortID(rec.RunID), rec.Iteration,
			rec.Outcome, rec.Path, rec.Start, rec.End, rec.Retries)
		if rec.ErrorMessage != "" {
			fmt.Fprintf(w, "    %s\n", firstLine(rec.ErrorMessage))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
