package models

// Passage is a located span of matched text within a file.
// It is created from on-disk content at the start of an iteration and
// discarded when the iteration ends.
type Passage struct {
	Path     string // File the match was found in
	FullText string // File contents at the time of the match
	Start    int    // Byte offset of the first matched byte
	End      int    // Byte offset one past the last matched byte
}

// Text returns the matched span.
func (p *Passage) Text() string {
	return p.FullText[p.Start:p.End]
}

// Splice returns the file content with the matched span replaced.
func (p *Passage) Splice(replacement string) string {
	return p.FullText[:p.Start] + replacement + p.FullText[p.End:]
}
