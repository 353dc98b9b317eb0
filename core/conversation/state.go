package conversation

type State int

const (
	StateAwaitingStart State = iota
	StateInProgress
	StateAwaitingClose
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateInProgress:
		return "in_progress"
	case StateAwaitingClose:
		return "awaiting_close"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}
