package automation

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/chain/substrate/substratetest"
	"github.com/parachain-tools/xcm-automation/pkg/clock"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

var proxyExecuted = Match("proxy", "ProxyExecuted")

func Test_ConfirmationTimeout(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	grace := 60 * time.Second

	tests := []struct {
		name string
		give uint64
		want time.Duration
	}{
		{name: "as soon as possible", give: 0, want: grace},
		{name: "in the future", give: 1_700_000_600, want: 11 * time.Minute},
		{name: "inside the grace period", give: 1_699_999_970, want: 30 * time.Second},
		{name: "deadline passed", give: 1_699_999_940, want: 0},
		{name: "long past", give: 1_699_990_000, want: -10000*time.Second + grace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ConfirmationTimeout(tt.give, now, grace))
		})
	}
}

func Test_MatchCriteria_Matches(t *testing.T) {
	t.Parallel()

	hash := []byte{0xab, 0xcd}
	ev := substrate.Event{Section: "XcmpQueue", Method: "Success", Fields: map[string]any{
		"message_hash": hash,
		"weight":       big.NewInt(10),
		"result":       "Ok",
	}}

	tests := []struct {
		name string
		give MatchCriteria
		want bool
	}{
		{name: "section and method", give: Match("xcmpQueue", "success"), want: true},
		{name: "other method", give: Match("XcmpQueue", "Fail")},
		{name: "hash predicate", give: Match("XcmpQueue", "Success", FieldBytes("message_hash", hash)), want: true},
		{name: "other hash", give: Match("XcmpQueue", "Success", FieldBytes("message_hash", []byte{0x01}))},
		{name: "uint predicate", give: Match("XcmpQueue", "Success", FieldUint("weight", big.NewInt(10))), want: true},
		{name: "missing field", give: Match("XcmpQueue", "Success", FieldUint("fee", big.NewInt(10)))},
		{
			name: "all predicates",
			give: Match("XcmpQueue", "Success", FieldString("result", "ok"), FieldBytes("message_hash", hash)),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.give.Matches(ev))
		})
	}
}

func Test_Waiter_Await_Matches(t *testing.T) {
	t.Parallel()

	client := substratetest.NewClient()
	w := NewWaiter(clock.NewFakeClock(time.Unix(0, 0)), logger.Test(t))

	p, err := w.Subscribe(t.Context(), client, proxyExecuted)
	require.NoError(t, err)
	client.Emit(substrate.Event{Section: "System", Method: "Remarked"})
	client.Emit(substrate.Event{Section: "Proxy", Method: "ProxyExecuted"})

	conf, ok, err := p.Wait(t.Context(), 20*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "ProxyExecuted", conf.Event.Method)
	assert.NotEmpty(t, conf.BlockHash)
	assert.Zero(t, client.ActiveSubscriptions())
}

func Test_Waiter_Await_TimesOut(t *testing.T) {
	t.Parallel()

	client := substratetest.NewClient()
	fake := clock.NewFakeClock(time.Unix(0, 0))
	w := NewWaiter(fake, nil)

	type result struct {
		ok  bool
		err error
	}
	done := make(chan result, 1)
	go func() {
		_, ok, err := w.Await(t.Context(), client, proxyExecuted, 20*time.Second)
		done <- result{ok, err}
	}()

	require.Eventually(t, func() bool { return fake.Waiters() == 1 }, time.Second, time.Millisecond)
	client.Emit(substrate.Event{Section: "System", Method: "Remarked"})
	fake.Advance(20 * time.Second)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.False(t, r.ok)
	case <-time.After(time.Second):
		t.Fatal("Await did not return")
	}
	assert.Zero(t, client.ActiveSubscriptions())
}

func Test_Waiter_Await_DeadlinePassed(t *testing.T) {
	t.Parallel()

	for _, timeout := range []time.Duration{0, -time.Second} {
		client := substratetest.NewClient()
		w := NewWaiter(clock.NewFakeClock(time.Unix(0, 0)), nil)

		_, ok, err := w.Await(t.Context(), client, proxyExecuted, timeout)
		require.NoError(t, err)
		assert.False(t, ok)
		client.Emit(substrate.Event{Section: "Proxy", Method: "ProxyExecuted"})
		assert.Zero(t, client.ActiveSubscriptions())
	}
}

func Test_Pending_Wait_DeadlinePassedIgnoresBufferedMatch(t *testing.T) {
	t.Parallel()

	client := substratetest.NewClient()
	w := NewWaiter(clock.NewFakeClock(time.Unix(0, 0)), nil)

	p, err := w.Subscribe(t.Context(), client, proxyExecuted)
	require.NoError(t, err)
	client.Emit(substrate.Event{Section: "Proxy", Method: "ProxyExecuted"})

	_, ok, err := p.Wait(t.Context(), 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, client.ActiveSubscriptions())
}

func Test_Pending_Wait_Errors(t *testing.T) {
	t.Parallel()

	subErr := errors.New("connection reset")

	tests := []struct {
		name    string
		give    func(cancel context.CancelFunc, client *substratetest.Client)
		wantErr error
	}{
		{
			name:    "context cancelled",
			give:    func(cancel context.CancelFunc, _ *substratetest.Client) { cancel() },
			wantErr: context.Canceled,
		},
		{
			name:    "subscription failed",
			give:    func(_ context.CancelFunc, client *substratetest.Client) { client.FailSubscriptions(subErr) },
			wantErr: subErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := substratetest.NewClient()
			w := NewWaiter(clock.NewFakeClock(time.Unix(0, 0)), nil)
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			p, err := w.Subscribe(ctx, client, proxyExecuted)
			require.NoError(t, err)
			tt.give(cancel, client)

			_, ok, err := p.Wait(ctx, time.Minute)
			require.ErrorIs(t, err, tt.wantErr)
			assert.False(t, ok)
			assert.Zero(t, client.ActiveSubscriptions())
		})
	}
}

func Test_Waiter_Subscribe_Error(t *testing.T) {
	t.Parallel()

	client := substratetest.NewClient()
	client.SubscribeErr = substrate.ErrTransport

	_, _, err := NewWaiter(nil, nil).Await(t.Context(), client, proxyExecuted, time.Second)
	require.ErrorIs(t, err, substrate.ErrTransport)
}
