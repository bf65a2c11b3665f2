package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func Test_ParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    zapcore.Level
		wantErr string
	}{
		{name: "empty defaults to info", give: "", want: zapcore.InfoLevel},
		{name: "debug", give: "debug", want: zapcore.DebugLevel},
		{name: "warn", give: "warn", want: zapcore.WarnLevel},
		{name: "invalid", give: "loud", wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_Logger_NamedAndWith(t *testing.T) {
	t.Parallel()

	lggr, logs := TestObserved(t, zapcore.InfoLevel)

	child := lggr.Named("orchestrator").With("task", "abc")
	child.Infow("Task scheduled", "chain", "turing")
	child.Debugw("dropped below level")

	assert.Equal(t, "orchestrator", child.Name())
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "Task scheduled", entry.Message)
	assert.Equal(t, "abc", entry.ContextMap()["task"])
	assert.Equal(t, "turing", entry.ContextMap()["chain"])
}

func Test_Nop(t *testing.T) {
	t.Parallel()

	lggr := Nop()
	lggr.Errorw("ignored", "k", "v")
	assert.Empty(t, lggr.Name())
}
