package substratetest

import (
	"context"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

func Test_Client_Query(t *testing.T) {
	t.Parallel()

	c := NewClient()
	key := []byte{1, 2, 3}
	c.SetStorage("System", "Account", types.AccountInfo{Nonce: 7}, key)

	var info types.AccountInfo
	found, err := c.Query(t.Context(), "system", "account", &info, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, types.U32(7), info.Nonce)

	found, err = c.Query(t.Context(), "System", "Account", &info, []byte{9})
	require.NoError(t, err)
	assert.False(t, found)

	var wrong types.U32
	_, err = c.Query(t.Context(), "System", "Account", &wrong, key)
	require.ErrorContains(t, err, "cannot assign")
}

func Test_Client_SubmitSigned(t *testing.T) {
	t.Parallel()

	c := NewClient()
	c.HandleSubmit("Proxy.add_proxy", func(c *Client, call substrate.Call, _ signature.KeyringPair) (substrate.ExtrinsicResult, error) {
		c.SetStorage("Proxy", "Proxies", call.Args[0])
		return substrate.ExtrinsicResult{}, nil
	})

	res, err := c.SubmitSigned(t.Context(), substrate.NewCall("Proxy", "add_proxy", "delegate"), signature.TestKeyringPairAlice)
	require.NoError(t, err)
	assert.NotEmpty(t, res.BlockHash)

	v, ok := c.Storage("Proxy", "Proxies")
	require.True(t, ok)
	assert.Equal(t, "delegate", v)

	_, err = c.SubmitSigned(t.Context(), substrate.NewCall("Balances", "transfer_keep_alive"), signature.TestKeyringPairAlice)
	require.NoError(t, err)

	assert.Len(t, c.Submitted(), 2)
	assert.Len(t, c.SubmittedNamed("proxy.add_proxy"), 1)
}

func Test_Client_Subscriptions(t *testing.T) {
	t.Parallel()

	c := NewClient()
	sub, err := c.SubscribeEvents(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, c.ActiveSubscriptions())

	c.Emit(substrate.Event{Section: "Proxy", Method: "ProxyExecuted"})
	batch := <-sub.Events()
	require.Len(t, batch.Events, 1)
	assert.True(t, batch.Events[0].Is("proxy", "ProxyExecuted"))

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, c.ActiveSubscriptions())

	// no receivers left, must not block
	c.Emit(substrate.Event{Section: "Proxy", Method: "ProxyExecuted"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = c.SubscribeEvents(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func Test_Client_RPC(t *testing.T) {
	t.Parallel()

	c := NewClient()
	c.HandleRPC("automationTime_generateTaskId", func(args ...any) (any, error) {
		return "0x01", nil
	})

	var got string
	require.NoError(t, c.RPC(t.Context(), &got, "automationTime_generateTaskId", "owner", "id"))
	assert.Equal(t, "0x01", got)

	err := c.RPC(t.Context(), &got, "unknown_method")
	require.ErrorIs(t, err, substrate.ErrTransport)
}
