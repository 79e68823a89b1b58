package executor

// State is a position in the replace loop.
type State int

const (
	StateSearching State = iota
	StateFound
	StateGenerating
	StateApplying
	StateValidating
	StateCommitting
	StateDone
	StateFailed
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateSearching:
		return "searching"
	case StateFound:
		return "found"
	case StateGenerating:
		return "generating"
	case StateApplying:
		return "applying"
	case StateValidating:
		return "validating"
	case StateCommitting:
		return "committing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the loop stops in s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
