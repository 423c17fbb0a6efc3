package game

import "errors"

// State is the session lifecycle. Transitions only move forward.
type State string

const (
	StateWaiting  State = "waiting"
	StateStarting State = "starting"
	StatePlaying  State = "playing"
	StateEnded    State = "ended"
)

var (
	ErrUnknownState      = errors.New("unknown_state")
	ErrInvalidTransition = errors.New("invalid_state_transition")
)

func (s State) rank() int {
	switch s {
	case StateWaiting:
		return 0
	case StateStarting:
		return 1
	case StatePlaying:
		return 2
	case StateEnded:
		return 3
	default:
		return -1
	}
}

func (s State) Valid() bool {
	return s.rank() >= 0
}

func (s State) Terminal() bool {
	return s == StateEnded
}

// CanTransitionTo allows any strictly later state, so a session may skip
// straight from waiting to ended when it is abandoned.
func (s State) CanTransitionTo(next State) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	return next.rank() > s.rank()
}
