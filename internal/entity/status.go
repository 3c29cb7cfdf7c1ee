package entity

// State is the lifecycle state of a submission.
type State string

const (
	InProgress State = "in_progress"
	Detected   State = "detected"
	Completed  State = "completed"
	Failed     State = "error"
)

func ParseState(s string) (State, bool) {
	switch State(s) {
	case InProgress, Detected, Completed, Failed:
		return State(s), true
	}
	return "", false
}

// Terminal reports whether no further transition may leave s.
func (s State) Terminal() bool {
	return s == Completed || s == Failed
}

// CanTransitionTo reports whether a submission in state s may be written with
// next. Rewriting the same state is allowed so that redelivered stage work
// overwrites instead of failing.
func (s State) CanTransitionTo(next State) bool {
	switch next {
	case Detected:
		return s == InProgress || s == Detected
	case Completed:
		return s == Detected || s == Completed
	case Failed:
		return s == InProgress || s == Detected || s == Failed
	}
	return false
}

// Rewrites reports whether an allowed transition from s to next writes the
// submission. A failed submission keeps the first error it recorded.
func (s State) Rewrites(next State) bool {
	return !(s == Failed && next == Failed)
}

func (s State) String() string {
	return string(s)
}
