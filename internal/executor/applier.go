package executor

import (
	"github.com/harrison/slop/internal/filelock"
	"github.com/harrison/slop/internal/models"
)

// Applier writes a replacement into the passage's file.
type Applier interface {
	Apply(passage *models.Passage, replacement string) error
}

// FileApplier splices the replacement into the content the passage was
// found in and replaces the file atomically, keeping its mode.
type FileApplier struct{}

// Apply implements Applier.
func (FileApplier) Apply(passage *models.Passage, replacement string) error {
	return filelock.ReplaceFile(passage.Path, []byte(passage.Splice(replacement)))
}
