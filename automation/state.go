package automation

import "fmt"

// State is a task lifecycle state.
type State string

const (
	StateBuilding             State = "Building"
	StateSubmitted            State = "Submitted"
	StateAwaitingConfirmation State = "AwaitingConfirmation"
	StateExecuted             State = "Executed"
	StateTimedOut             State = "TimedOut"
	StateCancelRequested      State = "CancelRequested"
	StateCancelConfirmed      State = "CancelConfirmed"
	StateCancelFailed         State = "CancelFailed"
	// StateFailed is a task whose scheduling extrinsic failed, so it never existed on chain.
	StateFailed State = "Failed"
)

var transitions = map[State][]State{
	StateBuilding:             {StateSubmitted, StateFailed},
	StateSubmitted:            {StateAwaitingConfirmation},
	StateAwaitingConfirmation: {StateExecuted, StateTimedOut},
	StateExecuted:             {StateCancelRequested},
	StateTimedOut:             {StateCancelRequested},
	StateCancelRequested:      {StateCancelConfirmed, StateCancelFailed},
}

// CanTransition reports whether a task may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// IsTerminal reports whether no transition leaves s without a cancellation request.
func (s State) IsTerminal() bool {
	switch s {
	case StateExecuted, StateTimedOut, StateCancelConfirmed, StateCancelFailed, StateFailed:
		return true
	}

	return false
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	if _, ok := transitions[s]; ok {
		return true
	}

	return s == StateCancelConfirmed || s == StateCancelFailed || s == StateFailed
}

// InvalidTransitionError is returned when the orchestrator is asked for a transition the lifecycle
// does not allow.
type InvalidTransitionError struct {
	From, To State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid task transition %s -> %s", e.From, e.To)
}
