package operations

import (
	"context"
	"errors"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

type topUpInput struct {
	Account string `json:"account"`
	Amount  int    `json:"amount"`
}

func Test_ExecuteOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		options           []ExecuteOption[topUpInput, any]
		isUnrecoverable   bool
		wantOpCalledTimes int
		wantOutput        int
		wantErr           string
	}{
		{
			name:              "no retry",
			wantOpCalledTimes: 1,
			wantErr:           "node busy",
		},
		{
			name: "with default retry",
			options: []ExecuteOption[topUpInput, any]{
				WithRetry[topUpInput, any](),
			},
			wantOpCalledTimes: 3,
			wantOutput:        100,
		},
		{
			name: "with custom retry eventual failure",
			options: []ExecuteOption[topUpInput, any]{
				WithRetryConfig(RetryConfig[topUpInput, any]{
					Enabled: true,
					Policy:  RetryPolicy{MaxAttempts: 1},
				}),
			},
			wantOpCalledTimes: 1,
			wantErr:           "node busy",
		},
		{
			name: "input hook",
			options: []ExecuteOption[topUpInput, any]{
				WithRetryInput(func(_ uint, err error, input topUpInput, _ any) topUpInput {
					input.Amount = 40
					return input
				}),
			},
			wantOpCalledTimes: 3,
			wantOutput:        40,
		},
		{
			name:              "unrecoverable",
			isUnrecoverable:   true,
			options:           []ExecuteOption[topUpInput, any]{WithRetry[topUpInput, any]()},
			wantOpCalledTimes: 1,
			wantErr:           "dispatch failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			failTimes := 2
			handlerCalledTimes := 0
			handler := func(_ Bundle, _ any, input topUpInput) (int, error) {
				handlerCalledTimes++
				if tt.isUnrecoverable {
					return 0, NewUnrecoverableError(errors.New("dispatch failed"))
				}
				if failTimes > 0 {
					failTimes--
					return 0, errors.New("node busy")
				}

				return input.Amount, nil
			}
			op := NewOperation("top-up", semver.MustParse("1.0.0"), "Top up an account", handler)
			b := NewBundle(context.Background, logger.Test(t), NewMemoryReporter())

			res, err := ExecuteOperation(b, op, nil, topUpInput{Account: "alice", Amount: 100}, tt.options...)

			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.NotNil(t, res.Err)
				assert.Contains(t, res.Err.Message, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Nil(t, res.Err)
				assert.Equal(t, tt.wantOutput, res.Output)
			}
			assert.Equal(t, tt.wantOpCalledTimes, handlerCalledTimes)
		})
	}
}

func Test_ExecuteOperation_UnrecoverableKeepsChain(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("already cancelled")
	op := NewOperation("cancel-task", semver.MustParse("1.0.0"), "Cancel a task",
		func(Bundle, any, EmptyInput) (int, error) {
			return 0, NewUnrecoverableError(sentinel)
		})
	b := NewBundle(context.Background, logger.Nop(), NewMemoryReporter())

	_, err := ExecuteOperation(b, op, nil, EmptyInput{}, WithRetry[EmptyInput, any]())
	require.ErrorIs(t, err, sentinel)
}

func Test_ExecuteOperation_SkipsPreviousSuccess(t *testing.T) {
	t.Parallel()

	lggr, logs := logger.TestObserved(t, zapcore.InfoLevel)
	reporter := NewMemoryReporter()
	b := NewBundle(context.Background, lggr, reporter)

	calls := 0
	op := NewOperation("schedule-task", semver.MustParse("1.0.0"), "Schedule a task",
		func(_ Bundle, _ any, input topUpInput) (int, error) {
			calls++
			return input.Amount * 2, nil
		})

	first, err := ExecuteOperation(b, op, nil, topUpInput{Account: "alice", Amount: 3})
	require.NoError(t, err)
	second, err := ExecuteOperation(b, op, nil, topUpInput{Account: "alice", Amount: 3})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 6, second.Output)
	assert.Equal(t, 1, logs.FilterMessage("Operation already executed. Returning previous result").Len())

	_, err = ExecuteOperation(b, op, nil, topUpInput{Account: "bob", Amount: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	reports, err := reporter.GetReports()
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func Test_ExecuteOperation_FailureIsNotSkipped(t *testing.T) {
	t.Parallel()

	b := NewBundle(context.Background, logger.Nop(), NewMemoryReporter())
	calls := 0
	op := NewOperation("add-proxy", semver.MustParse("1.0.0"), "Add a proxy",
		func(Bundle, any, EmptyInput) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("transport closed")
			}

			return 1, nil
		})

	_, err := ExecuteOperation(b, op, nil, EmptyInput{})
	require.Error(t, err)
	res, err := ExecuteOperation(b, op, nil, EmptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Output)
	assert.Equal(t, 2, calls)
}

func Test_ExecuteOperation_NotSerializable(t *testing.T) {
	t.Parallel()

	b := NewBundle(context.Background, logger.Nop(), NewMemoryReporter())
	inputOp := NewOperation("bad-input", semver.MustParse("1.0.0"), "", func(Bundle, any, chan int) (int, error) {
		return 0, nil
	})
	_, err := ExecuteOperation(b, inputOp, nil, make(chan int))
	require.ErrorIs(t, err, ErrNotSerializable)

	outputOp := NewOperation("bad-output", semver.MustParse("1.0.0"), "", func(Bundle, any, EmptyInput) (func(), error) {
		return func() {}, nil
	})
	_, err = ExecuteOperation(b, outputOp, nil, EmptyInput{})
	require.ErrorIs(t, err, ErrNotSerializable)
}
