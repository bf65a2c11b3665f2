package automation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_State_CanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give State
		to   State
		want bool
	}{
		{give: StateBuilding, to: StateSubmitted, want: true},
		{give: StateBuilding, to: StateFailed, want: true},
		{give: StateBuilding, to: StateExecuted},
		{give: StateSubmitted, to: StateAwaitingConfirmation, want: true},
		{give: StateSubmitted, to: StateFailed},
		{give: StateAwaitingConfirmation, to: StateExecuted, want: true},
		{give: StateAwaitingConfirmation, to: StateTimedOut, want: true},
		{give: StateExecuted, to: StateCancelRequested, want: true},
		{give: StateTimedOut, to: StateCancelRequested, want: true},
		{give: StateCancelRequested, to: StateCancelConfirmed, want: true},
		{give: StateCancelRequested, to: StateCancelFailed, want: true},
		{give: StateCancelConfirmed, to: StateCancelRequested},
		{give: StateFailed, to: StateSubmitted},
	}

	for _, tt := range tests {
		t.Run(string(tt.give)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.give.CanTransition(tt.to))
		})
	}
}

func Test_State_IsTerminal(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateExecuted, StateTimedOut, StateCancelConfirmed, StateCancelFailed, StateFailed} {
		assert.True(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	for _, s := range []State{StateBuilding, StateSubmitted, StateAwaitingConfirmation, StateCancelRequested} {
		assert.False(t, s.IsTerminal(), s)
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, State("Unknown").Valid())
}
