package logger

import (
	"github.com/harrison/slop/internal/executor"
	"github.com/harrison/slop/internal/models"
)

// Multi fans every event out to several loggers in order.
type Multi []executor.Logger

// NewMulti drops nil loggers and returns the rest as one executor.Logger.
func NewMulti(loggers ...executor.Logger) Multi {
	m := make(Multi, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m Multi) LogPassageFound(iteration int, relPath string, passage *models.Passage) {
	for _, l := range m {
		l.LogPassageFound(iteration, relPath, passage)
	}
}

func (m Multi) LogReplacement(iteration int, replacement string) {
	for _, l := range m {
		l.LogReplacement(iteration, replacement)
	}
}

func (m Multi) LogOverloadRetry(iteration, attempt int, err error) {
	for _, l := range m {
		l.LogOverloadRetry(iteration, attempt, err)
	}
}

func (m Multi) LogCheck(iteration int, argv []string, output string, err error) {
	for _, l := range m {
		l.LogCheck(iteration, argv, output, err)
	}
}

func (m Multi) LogCommit(iteration int, relPath, output string, err error) {
	for _, l := range m {
		l.LogCommit(iteration, relPath, output, err)
	}
}

func (m Multi) LogIterationFailed(record models.IterationRecord) {
	for _, l := range m {
		l.LogIterationFailed(record)
	}
}

func (m Multi) LogSummary(result models.RunResult) {
	for _, l := range m {
		l.LogSummary(result)
	}
}

func (m Multi) Warnf(format string, args ...interface{}) {
	for _, l := range m {
		l.Warnf(format, args...)
	}
}

var (
	_ executor.Logger = (*ConsoleLogger)(nil)
	_ executor.Logger = (*FileLogger)(nil)
	_ executor.Logger = Multi(nil)
)
