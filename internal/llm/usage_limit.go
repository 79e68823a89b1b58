package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrUsageLimit marks an account usage limit reported by the claude CLI.
// It is not transient: the limit resets hours later, so retrying the request
// immediately cannot succeed.
var ErrUsageLimit = errors.New("usage limit reached")

// UsageLimit contains parsed usage-limit details.
type UsageLimit struct {
	DetectedAt time.Time
	ResetAt    time.Time // Zero when the output names no reset time
	RawMessage string
}

// UsageLimitError reports a usage limit. It wraps ErrUsageLimit.
type UsageLimitError struct {
	Limit *UsageLimit
}

func (e *UsageLimitError) Error() string {
	if e.Limit == nil || e.Limit.ResetAt.IsZero() {
		return ErrUsageLimit.Error()
	}
	return fmt.Sprintf("%s (resets at %s)", ErrUsageLimit, e.Limit.ResetAt.Format(time.RFC3339))
}

func (e *UsageLimitError) Unwrap() error { return ErrUsageLimit }

var (
	// Claude AI usage limit reached|<unix_timestamp>
	unixTimestampPattern = regexp.MustCompile(`Claude AI usage limit reached\|(\d+)`)

	// Your limit will reset at 2pm (America/New_York)
	humanTimePattern = regexp.MustCompile(`limit will reset at (\d+)(am|pm)\s*\(([^)]+)\)`)

	// resets 1am (Europe/Dublin)
	resetsTimePattern = regexp.MustCompile(`resets\s+(\d+)(am|pm)\s*\(([^)]+)\)`)

	// Generic usage limit indicators
	usageLimitIndicator = regexp.MustCompile(`(?i)(out of.*usage|usage.?limit)`)

	// Overload indicators in CLI output
	overloadIndicator = regexp.MustCompile(`(?i)(overloaded_error|\b529\b|\boverloaded\b)`)
)

// ParseUsageLimit parses usage-limit info from claude CLI output.
// It returns nil when the output does not report a usage limit.
func ParseUsageLimit(output string) *UsageLimit {
	if output == "" || !usageLimitIndicator.MatchString(output) {
		return nil
	}

	limit := &UsageLimit{
		DetectedAt: time.Now(),
		RawMessage: output,
	}

	if matches := unixTimestampPattern.FindStringSubmatch(output); len(matches) > 1 {
		if ts, err := strconv.ParseInt(matches[1], 10, 64); err == nil {
			limit.ResetAt = time.Unix(ts, 0)
			return limit
		}
	}

	for _, pattern := range []*regexp.Regexp{humanTimePattern, resetsTimePattern} {
		if matches := pattern.FindStringSubmatch(output); len(matches) > 3 {
			limit.ResetAt = clockResetTime(matches[1], matches[2], matches[3], time.Now())
			return limit
		}
	}

	return limit
}

// clockResetTime turns "2", "pm", "America/New_York" into the next such time
// after now. Unknown timezones fall back to UTC.
func clockResetTime(hourStr, meridiem, tzName string, now time.Time) time.Time {
	hour, _ := strconv.Atoi(hourStr)

	// Convert 12-hour to 24-hour
	if meridiem == "pm" && hour != 12 {
		hour += 12
	} else if meridiem == "am" && hour == 12 {
		hour = 0
	}

	loc, err := time.LoadLocation(tzName)
	if err != nil {
		loc = time.UTC
	}

	local := now.In(loc)
	resetAt := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if resetAt.Before(local) {
		resetAt = resetAt.Add(24 * time.Hour)
	}
	return resetAt
}

// isOverloadOutput reports whether CLI output describes an overloaded API.
func isOverloadOutput(output string) bool {
	return overloadIndicator.MatchString(output)
}
