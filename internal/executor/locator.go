package executor

import (
	"regexp"

	"github.com/harrison/slop/internal/fileutil"
	"github.com/harrison/slop/internal/models"
)

// Locator finds the next passage to rewrite.
type Locator interface {
	// Locate returns the first matching passage, or nil when none remain.
	Locate() (*models.Passage, error)
}

// TreeLocator scans a directory tree from disk on every call.
type TreeLocator struct {
	Root    string
	Options fileutil.ScanOptions
	Pattern *regexp.Regexp
}

// NewTreeLocator builds the locator for a compiled job.
func NewTreeLocator(job *models.Job) *TreeLocator {
	return &TreeLocator{
		Root: job.Path,
		Options: fileutil.ScanOptions{
			Extensions:  job.ExtensionFilter(),
			ExcludeDirs: job.Exclude,
		},
		Pattern: job.Pattern,
	}
}

// Locate implements Locator.
func (l *TreeLocator) Locate() (*models.Passage, error) {
	return fileutil.FindFirstMatch(l.Root, l.Options, l.Pattern)
}
