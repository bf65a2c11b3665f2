package operations

import (
	"context"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

type OpDeps struct{}

type OpInput struct {
	A int
	B int
}

func Test_NewOperation(t *testing.T) {
	t.Parallel()

	version := semver.MustParse("1.0.0")
	handler := func(b Bundle, deps OpDeps, input OpInput) (output int, err error) {
		return input.A + input.B, nil
	}

	op := NewOperation("sum", version, "test operation", handler)

	assert.Equal(t, "sum", op.ID())
	assert.Equal(t, "1.0.0", op.Version())
	assert.Equal(t, "test operation", op.Description())
	assert.Equal(t, op.def, op.Def())
	res, err := op.handler(Bundle{}, OpDeps{}, OpInput{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res)
}

func Test_Operation_Execute(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	op := NewOperation("sum", semver.MustParse("1.0.0"), "test operation",
		func(b Bundle, deps OpDeps, input OpInput) (int, error) {
			return input.A + input.B, nil
		})

	out, err := op.execute(NewBundle(context.Background, lggr, nil), OpDeps{}, OpInput{A: 1, B: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, out)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Executing operation", entry.Message)
	assert.Equal(t, "sum", entry.ContextMap()["id"])
}

func Test_MemoryReporter(t *testing.T) {
	t.Parallel()

	def := Definition{ID: "cancel-task", Version: semver.MustParse("1.0.0")}
	existing := NewReport(def, OpInput{A: 1}, 2, nil).ToGenericReport()
	reporter := NewMemoryReporter(WithReports([]Report[any, any]{existing}))

	got, err := reporter.GetReport(existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	assert.WithinDuration(t, time.Now(), *got.Timestamp, time.Minute)

	_, err = reporter.GetReport("missing")
	require.ErrorIs(t, err, ErrReportNotFound)

	require.NoError(t, reporter.AddReport(NewReport[any, any](def, nil, nil, assert.AnError)))
	reports, err := reporter.GetReports()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, assert.AnError.Error(), reports[1].Err.Error())
}

func Test_typeReport(t *testing.T) {
	t.Parallel()

	generic := Report[any, any]{
		ID:     "r1",
		Input:  map[string]any{"A": 1.0, "B": 2.0},
		Output: 3.0,
	}

	typed, ok := typeReport[OpInput, int](generic)
	require.True(t, ok)
	assert.Equal(t, OpInput{A: 1, B: 2}, typed.Input)
	assert.Equal(t, 3, typed.Output)

	_, ok = typeReport[OpInput, int](Report[any, any]{Input: "not an object"})
	assert.False(t, ok)
}
