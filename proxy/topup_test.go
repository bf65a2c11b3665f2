package proxy

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/chain/substrate/substratetest"
	"github.com/parachain-tools/xcm-automation/xcm"
)

func Test_Amount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		give         string
		giveDecimals uint8
		want         string
		wantErr      string
	}{
		{name: "whole", give: "3", giveDecimals: 10, want: "30000000000"},
		{name: "fraction", give: "1.5", giveDecimals: 10, want: "15000000000"},
		{name: "eighteen decimals", give: "0.000000000000000001", giveDecimals: 18, want: "1"},
		{name: "zero decimals", give: "42", giveDecimals: 0, want: "42"},
		{name: "too precise", give: "0.123", giveDecimals: 2, wantErr: "more than 2 decimals"},
		{name: "negative", give: "-1", giveDecimals: 10, wantErr: "negative"},
		{name: "garbage", give: "ten", giveDecimals: 10, wantErr: "invalid amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Amount(tt.give, tt.giveDecimals)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func Test_LocalTransfer(t *testing.T) {
	t.Parallel()

	ch, client := testChain(t)
	account := bytes32(0xcc)
	client.SetStorage("System", "Account", accountInfo(10), account)
	client.HandleSubmit("Balances.transfer_keep_alive", func(c *substratetest.Client, call substrate.Call, _ signature.KeyringPair) (substrate.ExtrinsicResult, error) {
		amount := big.Int(call.Args[1].(types.UCompact))
		c.SetStorage("System", "Account", accountInfo(10+amount.Int64()), account)

		return substrate.ExtrinsicResult{}, nil
	})

	toppedUp, err := NewManager(Config{}).EnsureMinimumBalance(t.Context(), ch, account, Asset{}, big.NewInt(100), LocalTransfer(ch))
	require.NoError(t, err)
	assert.True(t, toppedUp)

	calls := client.SubmittedNamed("Balances.transfer_keep_alive")
	require.Len(t, calls, 1)
	dest, ok := calls[0].Args[0].(types.MultiAddress)
	require.True(t, ok)
	assert.True(t, dest.IsID)
}

func Test_LocalTransfer_DispatchError(t *testing.T) {
	t.Parallel()

	ch, client := testChain(t)
	client.HandleSubmit("Balances.transfer_keep_alive", func(*substratetest.Client, substrate.Call, signature.KeyringPair) (substrate.ExtrinsicResult, error) {
		return substrate.ExtrinsicResult{}, &substrate.DispatchError{Reason: "BadOrigin"}
	})

	err := LocalTransfer(ch)(t.Context(), bytes32(0xcc), big.NewInt(1))
	require.ErrorContains(t, err, "dispatch failed: BadOrigin")
}

func Test_ReserveTransferCall(t *testing.T) {
	t.Parallel()

	source, _ := testChain(t)
	destID := uint32(2000)
	dest := substrate.ChainEndpoint{Key: "moonbase", ParaID: &destID, AddressKind: xcm.AddressKindEthereum, XcmVersion: xcm.V3}
	key, err := hex.DecodeString("f24ff3a9cf04c71dbc94d0b566f7a27b94566cac")
	require.NoError(t, err)

	call, err := ReserveTransferCall(source.Endpoint, dest, xcm.Here(), key, big.NewInt(1_000))
	require.NoError(t, err)
	assert.Equal(t, "PolkadotXcm.limited_reserve_transfer_assets", call.Name())
	require.Len(t, call.Args, 5)

	tests := []struct {
		name string
		give any
		want string
	}{
		{name: "destination", give: call.Args[0], want: "03010100411f"},
		{name: "beneficiary", give: call.Args[1], want: "0300010300" + hex.EncodeToString(key)},
		{name: "assets", give: call.Args[2], want: "030400000000a10f"},
		{name: "fee asset item", give: call.Args[3], want: "00000000"},
		{name: "weight limit", give: call.Args[4], want: "00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := codec.Encode(tt.give)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}

	_, err = ReserveTransferCall(source.Endpoint, dest, xcm.Here(), key, big.NewInt(0))
	require.ErrorContains(t, err, "must be positive")
}

func Test_ReserveTransferCall_FromRelay(t *testing.T) {
	t.Parallel()

	relay := substrate.ChainEndpoint{Key: "rococo", IsRelay: true, AddressKind: xcm.AddressKindSubstrate, XcmVersion: xcm.V3}
	paraID := uint32(2114)
	dest := substrate.ChainEndpoint{Key: "turing", ParaID: &paraID, AddressKind: xcm.AddressKindSubstrate, XcmVersion: xcm.V3}

	call, err := ReserveTransferCall(relay, dest, xcm.Here(), bytes32(0x01), big.NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, "XcmPallet.limited_reserve_transfer_assets", call.Name())

	got, err := codec.Encode(call.Args[0])
	require.NoError(t, err)
	assert.Equal(t, "030001000921", hex.EncodeToString(got))
}

func Test_WrapCall(t *testing.T) {
	t.Parallel()

	inner := substrate.NewCall("AutomationTime", "cancel_task", types.NewH256(bytes32(0x01)))

	call, err := WrapCall(xcm.AddressKindSubstrate, bytes32(0xaa), inner)
	require.NoError(t, err)
	assert.Equal(t, "Proxy.proxy", call.Name())
	require.Len(t, call.Args, 3)
	assert.Equal(t, types.NewOptionU8Empty(), call.Args[1])
	assert.Equal(t, inner, call.Args[2])

	_, err = WrapCall(xcm.AddressKindEthereum, bytes32(0xaa), inner)
	require.ErrorContains(t, err, "20 bytes")
}
