// Package fileutil locates passages in a source tree.
//
// # Traversal
//
// Walk visits the tree depth-first using filepath.WalkDir, which reads each
// directory's entries in lexical order, so the sequence of files is stable
// for an unchanged tree. Directories are never yielded. Files are filtered by
// exact extension match and directories named in ScanOptions.ExcludeDirs are
// pruned.
//
// The sequence is lazy: breaking out of a range over Walk stops the walk, so
// a match near the top of the tree costs only the files before it.
//
// # Matching
//
// FindFirstMatch reads each yielded file in full and applies the pattern with
// leftmost-first semantics. The first file that contains any match wins; the
// globally earliest offset across files is not considered.
//
//	passage, err := fileutil.FindFirstMatch(root, fileutil.ScanOptions{
//		Extensions: []string{".rs"},
//	}, pattern)
//	if err != nil {
//		return err
//	}
//	if passage == nil {
//		// tree exhausted
//	}
package fileutil
