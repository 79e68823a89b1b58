// Package logger provides the console and file loggers for slop runs.
//
// Both implement executor.Logger and are safe for concurrent use.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/slop/internal/models"
)

// ConsoleLogger logs run progress to a writer with timestamps.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled only when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a TTY that supports colors.
// NO_COLOR disables colors through fatih/color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

// Warnf logs a formatted warning.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.logWithLevel("WARN", fmt.Sprintf(format, args...))
}

// logWithLevel writes "[HH:MM:SS] [LEVEL] message" if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !enabled(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), label, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "INFO":
		return color.New(color.FgBlue)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.Reset)
	}
}

// paint applies attrs when color output is on.
func (cl *ConsoleLogger) paint(s string, attrs ...color.Attribute) string {
	if !cl.colorOutput {
		return s
	}
	return color.New(attrs...).Sprint(s)
}

// LogPassageFound logs the matched text at INFO level.
func (cl *ConsoleLogger) LogPassageFound(iteration int, relPath string, passage *models.Passage) {
	cl.LogInfo(fmt.Sprintf("Found match #%d in %s [%d:%d]:\n\n%s\n",
		iteration, cl.paint(relPath, color.Bold), passage.Start, passage.End, indent(passage.Text())))
}

// LogReplacement logs the generated replacement at INFO level.
func (cl *ConsoleLogger) LogReplacement(iteration int, replacement string) {
	cl.LogInfo(fmt.Sprintf("Replacement #%d:\n\n%s\n", iteration, indent(replacement)))
}

// LogOverloadRetry logs a transient provider failure at WARN level.
func (cl *ConsoleLogger) LogOverloadRetry(iteration, attempt int, err error) {
	cl.LogWarn(fmt.Sprintf("Provider overloaded, retrying #%d (attempt %d): %v", iteration, attempt, err))
}

// LogCheck logs the outcome of the check command. Output is shown at DEBUG
// on success and at ERROR on failure.
func (cl *ConsoleLogger) LogCheck(iteration int, argv []string, output string, err error) {
	command := strings.Join(argv, " ")
	if err != nil {
		msg := fmt.Sprintf("Check %s: %s", cl.paint("failed", color.FgRed), command)
		if out := indent(output); out != "" {
			msg += "\n" + out
		}
		cl.LogError(msg)
		return
	}
	cl.LogInfo(fmt.Sprintf("Check %s: %s", cl.paint("passed", color.FgGreen), command))
	if out := indent(output); out != "" {
		cl.LogDebug(out)
	}
}

// LogCommit logs the outcome of git commit.
func (cl *ConsoleLogger) LogCommit(iteration int, relPath, output string, err error) {
	if err != nil {
		msg := fmt.Sprintf("Commit %s for %s", cl.paint("failed", color.FgRed), relPath)
		if out := indent(output); out != "" {
			msg += "\n" + out
		}
		cl.LogError(msg)
		return
	}
	cl.LogInfo(fmt.Sprintf("Committed %s", cl.paint(relPath, color.FgGreen)))
}

// LogIterationFailed logs the record of a failed iteration at ERROR level.
func (cl *ConsoleLogger) LogIterationFailed(record models.IterationRecord) {
	cl.LogError(fmt.Sprintf("Iteration %d on %s %s: %s",
		record.Iteration, record.Path, strings.ReplaceAll(record.Outcome, "_", " "), record.ErrorMessage))
}

// LogSummary logs the run summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.RunResult) {
	if cl.writer == nil || !enabled(cl.logLevel, "info") {
		return
	}

	state := result.FinalState
	if state == "done" {
		state = cl.paint(state, color.FgGreen)
	} else {
		state = cl.paint(state, color.FgRed)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	fmt.Fprintf(cl.writer, "[%s] === Run Summary ===\n", ts)
	fmt.Fprintf(cl.writer, "[%s] Run: %s\n", ts, result.RunID)
	fmt.Fprintf(cl.writer, "[%s] Commits: %d\n", ts, result.Commits)
	fmt.Fprintf(cl.writer, "[%s] Overload retries: %d\n", ts, result.Retries)
	fmt.Fprintf(cl.writer, "[%s] Final state: %s\n", ts, state)
	fmt.Fprintf(cl.writer, "[%s] Duration: %s\n", ts, formatDuration(result.Duration))
}
