package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/slop/internal/models"
)

// FileLogger logs run events to files in a log directory (.slop/logs by
// default). It creates a timestamped per-run log file and maintains a
// latest.log symlink pointing to the most recent run.
// It is thread-safe and implements the executor.Logger interface.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLoggerWithDirAndLevel creates a FileLogger with a custom log
// directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== Slop Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of this run's log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !enabled(fl.logLevel, strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format(time.RFC3339), level, message))
}

// Warnf logs a formatted warning.
func (fl *FileLogger) Warnf(format string, args ...interface{}) {
	fl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// LogPassageFound records the match and its location.
func (fl *FileLogger) LogPassageFound(iteration int, relPath string, passage *models.Passage) {
	fl.logWithLevel("INFO", fmt.Sprintf("iteration %d: match in %s [%d:%d]\n%s",
		iteration, relPath, passage.Start, passage.End, indent(passage.Text())))
}

// LogReplacement records the generated replacement.
func (fl *FileLogger) LogReplacement(iteration int, replacement string) {
	fl.logWithLevel("INFO", fmt.Sprintf("iteration %d: replacement (%d bytes)\n%s",
		iteration, len(replacement), indent(replacement)))
}

// LogOverloadRetry records a transient provider failure.
func (fl *FileLogger) LogOverloadRetry(iteration, attempt int, err error) {
	fl.logWithLevel("WARN", fmt.Sprintf("iteration %d: provider overloaded, attempt %d: %v", iteration, attempt, err))
}

// LogCheck records the check command and its full output.
func (fl *FileLogger) LogCheck(iteration int, argv []string, output string, err error) {
	level, verdict := "INFO", "passed"
	if err != nil {
		level, verdict = "ERROR", "failed"
	}
	msg := fmt.Sprintf("iteration %d: check %s: %s", iteration, verdict, strings.Join(argv, " "))
	if out := indent(output); out != "" {
		msg += "\n" + out
	}
	fl.logWithLevel(level, msg)
}

// LogCommit records the commit outcome.
func (fl *FileLogger) LogCommit(iteration int, relPath, output string, err error) {
	if err != nil {
		fl.logWithLevel("ERROR", fmt.Sprintf("iteration %d: commit failed for %s: %v\n%s", iteration, relPath, err, indent(output)))
		return
	}
	fl.logWithLevel("INFO", fmt.Sprintf("iteration %d: committed %s", iteration, relPath))
}

// LogIterationFailed records a failed iteration.
func (fl *FileLogger) LogIterationFailed(record models.IterationRecord) {
	fl.logWithLevel("ERROR", fmt.Sprintf("iteration %d: %s on %s after %d retries: %s",
		record.Iteration, record.Outcome, record.Path, record.Retries, record.ErrorMessage))
}

// LogSummary writes the run summary. Summaries are always written.
func (fl *FileLogger) LogSummary(result models.RunResult) {
	var sb strings.Builder
	sb.WriteString("\n=== Run Summary ===\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Job path: %s\n", result.JobPath))
	sb.WriteString(fmt.Sprintf("Commits: %d\n", result.Commits))
	sb.WriteString(fmt.Sprintf("Overload retries: %d\n", result.Retries))
	sb.WriteString(fmt.Sprintf("Final state: %s\n", result.FinalState))
	sb.WriteString(fmt.Sprintf("Duration: %s\n", formatDuration(result.Duration)))

	for _, rec := range result.Records {
		status := "ok"
		if !rec.Succeeded() {
			status = rec.Outcome
		}
		sb.WriteString(fmt.Sprintf("  #%d %s [%d:%d] %s\n", rec.Iteration, rec.Path, rec.Start, rec.End, status))
	}

	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
