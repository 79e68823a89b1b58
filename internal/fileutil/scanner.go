package fileutil

import (
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"regexp"

	"github.com/harrison/slop/internal/models"
)

// ScanOptions configures which files a walk yields.
type ScanOptions struct {
	// Extensions is a list of file extensions to include (e.g., ".rs").
	// Matching is exact; an empty list accepts every file.
	Extensions []string
	// ExcludeDirs is a list of directory names that are never descended into.
	ExcludeDirs []string
}

type fileFilter struct {
	extensions map[string]bool
	exclude    map[string]bool
}

func newFileFilter(opts ScanOptions) *fileFilter {
	f := &fileFilter{
		extensions: make(map[string]bool, len(opts.Extensions)),
		exclude:    make(map[string]bool, len(opts.ExcludeDirs)),
	}
	for _, ext := range opts.Extensions {
		if ext != "" && ext[0] != '.' {
			ext = "." + ext
		}
		f.extensions[ext] = true
	}
	for _, dir := range opts.ExcludeDirs {
		f.exclude[dir] = true
	}
	return f
}

// accepts reports whether a file with the given base name passes the
// extension filter. A dotfile such as ".rs" has no extension.
func (f *fileFilter) accepts(name string) bool {
	if len(f.extensions) == 0 {
		return true
	}
	ext := filepath.Ext(name)
	if ext == name {
		return false
	}
	return f.extensions[ext]
}

// Walk returns a lazy sequence of the files under root that pass opts, in
// depth-first lexical order. The underlying walk stops as soon as the
// consumer stops iterating. A walk error is yielded once and ends the
// sequence.
//
// A root that is a symlink is followed. Yielded paths are always expressed
// under root as given, never under the link target.
func Walk(root string, opts ScanOptions) iter.Seq2[string, error] {
	filter := newFileFilter(opts)

	return func(yield func(string, error) bool) {
		realRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield(root, fmt.Errorf("failed to walk %s: %w", root, err))
			return
		}

		_ = filepath.WalkDir(realRoot, func(walked string, d fs.DirEntry, err error) error {
			path := rebase(realRoot, root, walked)
			if err != nil {
				yield(path, fmt.Errorf("failed to walk %s: %w", path, err))
				return filepath.SkipAll
			}

			if d.IsDir() {
				if walked != realRoot && filter.exclude[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}

			if !filter.accepts(d.Name()) {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// rebase moves path from under realRoot to under root.
func rebase(realRoot, root, path string) string {
	if realRoot == root {
		return path
	}
	rel, err := filepath.Rel(realRoot, path)
	if err != nil {
		return path
	}
	return filepath.Join(root, rel)
}

// FindFirstMatch returns the first match of pattern in the first file, in
// Walk order, that contains one. Files later in the order are never read once
// a match is found. It returns nil when no file matches.
func FindFirstMatch(root string, opts ScanOptions, pattern *regexp.Regexp) (*models.Passage, error) {
	for path, err := range Walk(root, opts) {
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		if loc := pattern.FindIndex(data); loc != nil {
			return &models.Passage{
				Path:     path,
				FullText: string(data),
				Start:    loc[0],
				End:      loc[1],
			}, nil
		}
	}

	return nil, nil
}
