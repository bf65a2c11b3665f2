package notify

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Transition_Subject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		give string
		want string
	}{
		{give: "Executed", want: "xcm.automation.task.executed"},
		{give: "CancelConfirmed", want: "xcm.automation.task.cancelconfirmed"},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Transition{To: tt.give}.Subject())
		})
	}
}

func Test_Transition_JSON(t *testing.T) {
	t.Parallel()

	tr := Transition{
		ChainKey: "turing", TaskID: "0x01", ProvidedID: "p", From: "Submitted", To: "AwaitingConfirmation",
		At: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chainKey":"turing","taskId":"0x01","providedId":"p","from":"Submitted",
		"to":"AwaitingConfirmation","at":"2026-01-01T00:00:00Z"}`, string(b))
}

func Test_Recorder(t *testing.T) {
	t.Parallel()

	r := &Recorder{}
	require.NoError(t, r.Publish(t.Context(), Transition{To: "Submitted"}))
	require.NoError(t, r.Publish(t.Context(), Transition{To: "Executed"}))
	require.NoError(t, r.Close())

	assert.Equal(t, []string{"Submitted", "Executed"}, r.States())
	assert.NoError(t, Nop{}.Publish(t.Context(), Transition{}))
}

func Test_NewNATSPublisher_Unreachable(t *testing.T) {
	t.Parallel()

	_, err := NewNATSPublisher(NATSConfig{URL: "nats://127.0.0.1:1", ConnectTimeout: 100 * time.Millisecond})
	require.ErrorContains(t, err, "failed to connect to nats")
}
