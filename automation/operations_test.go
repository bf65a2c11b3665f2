package automation

import (
	"errors"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/chain/substrate/substratetest"
	"github.com/parachain-tools/xcm-automation/operations/optest"
	"github.com/parachain-tools/xcm-automation/xcm"
)

func submitChain() (substrate.Chain, *substratetest.Client) {
	client := substratetest.NewClient()

	return substrate.Chain{
		Endpoint: substrate.ChainEndpoint{Key: "turing", AddressKind: xcm.AddressKindSubstrate, XcmVersion: xcm.V3},
		Client:   client,
		Signer:   signature.TestKeyringPairAlice,
	}, client
}

func Test_submit_SkipsRepeatedSubmission(t *testing.T) {
	t.Parallel()

	ch, client := submitChain()
	b := optest.NewBundle(t)
	metrics, err := NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	call := substrate.NewCall("System", "remark", types.NewBytes([]byte("x")))

	first, err := submit(b, ch, call, "task-a", metrics, nil)
	require.NoError(t, err)
	again, err := submit(b, ch, call, "task-a", metrics, nil)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Len(t, client.Submitted(), 1)

	other, err := submit(b, ch, call, "task-b", metrics, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.Len(t, client.Submitted(), 2)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.extrinsics.WithLabelValues("turing", call.Name(), "success")), 0)
}

func Test_submit_Errors(t *testing.T) {
	t.Parallel()

	badOrigin := &substrate.DispatchError{Reason: "BadOrigin"}
	errInspect := errors.New("unexpected events")

	tests := []struct {
		name        string
		giveHandler substratetest.SubmitHandler
		giveInspect func([]substrate.Event) error
		wantErr     error
	}{
		{
			name: "dispatch error",
			giveHandler: func(*substratetest.Client, substrate.Call, signature.KeyringPair) (substrate.ExtrinsicResult, error) {
				return substrate.ExtrinsicResult{}, badOrigin
			},
			wantErr: badOrigin,
		},
		{
			name:        "inspect rejects events",
			giveInspect: func([]substrate.Event) error { return errInspect },
			wantErr:     errInspect,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ch, client := submitChain()
			call := substrate.NewCall("System", "remark", types.NewBytes([]byte("x")))
			if tt.giveHandler != nil {
				client.HandleSubmit(call.Name(), tt.giveHandler)
			}

			_, err := submit(optest.NewBundle(t), ch, call, "task-a", nil, tt.giveInspect)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), "submit System.remark on")
		})
	}
}
