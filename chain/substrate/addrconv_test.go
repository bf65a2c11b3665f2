package substrate

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/xcm"
)

const (
	alicePub          = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	aliceGeneric      = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	aliceTuringFormat = "6AwtFW6sYcQ8RcuAJeXdDKuFtUVXj4xW57ghjYQ5xyciT1yd"
)

func Test_EncodeAddress(t *testing.T) {
	t.Parallel()

	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)

	tests := []struct {
		name       string
		givePrefix uint16
		want       string
	}{
		{name: "generic substrate", givePrefix: 42, want: aliceGeneric},
		{name: "turing", givePrefix: 51, want: aliceTuringFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := EncodeAddress(pub, tt.givePrefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			prefix, decoded, err := DecodeAddress(got)
			require.NoError(t, err)
			assert.Equal(t, tt.givePrefix, prefix)
			assert.Equal(t, pub, decoded)
		})
	}

	_, err = EncodeAddress(pub[:20], 42)
	require.ErrorContains(t, err, "32 bytes")
}

func Test_DerivedAccount_SS58(t *testing.T) {
	t.Parallel()

	pub, err := hex.DecodeString(alicePub)
	require.NoError(t, err)

	derived, err := xcm.DeriveAccount(2114, pub, xcm.DeriveOptions{
		AddressKind: xcm.AddressKindSubstrate, Version: xcm.V3,
	})
	require.NoError(t, err)

	got, err := EncodeAddress(derived.AccountID32[:], 51)
	require.NoError(t, err)
	assert.Equal(t, "6AabXQXPkcfR6J48qbEvxV4cZrtyfFMQ23jgRqceZygA4Ek7", got)

	got, err = EncodeAddress(derived.AccountID32[:], 42)
	require.NoError(t, err)
	assert.Equal(t, "5GVfCUemHznsgmQxgoKiZNfnkVcLAbgiKakVtgpwQHKmXHiq", got)
}

func Test_ParseAccount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		giveAddress string
		giveKind    xcm.AddressKind
		want        string
		wantErr     string
	}{
		{
			name:        "ss58",
			giveAddress: aliceTuringFormat,
			giveKind:    xcm.AddressKindSubstrate,
			want:        alicePub,
		},
		{
			name:        "hex account id",
			giveAddress: "0x" + alicePub,
			giveKind:    xcm.AddressKindSubstrate,
			want:        alicePub,
		},
		{
			name:        "short hex account id",
			giveAddress: "0x1234",
			giveKind:    xcm.AddressKindSubstrate,
			wantErr:     "want 32 bytes",
		},
		{
			name:        "ethereum",
			giveAddress: "0xf24FF3a9CF04c71Dbc94D0b566f7A27B94566cac",
			giveKind:    xcm.AddressKindEthereum,
			want:        "f24ff3a9cf04c71dbc94d0b566f7a27b94566cac",
		},
		{
			name:        "ethereum given ss58",
			giveAddress: aliceGeneric,
			giveKind:    xcm.AddressKindEthereum,
			wantErr:     "invalid ethereum address",
		},
		{
			name:        "garbage ss58",
			giveAddress: "not-an-address",
			giveKind:    xcm.AddressKindSubstrate,
			wantErr:     "invalid SS58 address",
		},
		{
			name:        "unset kind",
			giveAddress: aliceGeneric,
			wantErr:     "unsupported address kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseAccount(tt.giveAddress, tt.giveKind)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}
}

func Test_FormatAccount(t *testing.T) {
	t.Parallel()

	key, err := hex.DecodeString("f24ff3a9cf04c71dbc94d0b566f7a27b94566cac")
	require.NoError(t, err)

	got, err := FormatAccount(key, xcm.AddressKindEthereum, 0)
	require.NoError(t, err)
	assert.Equal(t, "0xf24FF3a9CF04c71Dbc94D0b566f7A27B94566cac", got)

	_, err = FormatAccount(key, xcm.AddressKindSubstrate, 42)
	require.Error(t, err)

	conv := AddressConverter{Endpoint: ChainEndpoint{AddressKind: xcm.AddressKindSubstrate, SS58Prefix: 51}}
	pub, err := conv.ConvertToBytes(aliceGeneric)
	require.NoError(t, err)
	addr, err := conv.ConvertToString(pub)
	require.NoError(t, err)
	assert.Equal(t, aliceTuringFormat, addr)
}
