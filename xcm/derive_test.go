package xcm

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const alicePub = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

func Test_DeriveAccount(t *testing.T) {
	t.Parallel()

	alith := "f24ff3a9cf04c71dbc94d0b566f7a27b94566cac"

	tests := []struct {
		name        string
		giveParaID  uint32
		giveAccount string
		giveOpts    DeriveOptions
		want32      string
		want20      string
	}{
		{
			name:        "para 2114 any network V3",
			giveParaID:  2114,
			giveAccount: alicePub,
			giveOpts:    DeriveOptions{AddressKind: AddressKindSubstrate, Version: V3},
			want32:      "c3f91ea5c873ee4f4be432f11c670e7102674b3965de7e4dfc40a2aa59366568",
			want20:      "c3f91ea5c873ee4f4be432f11c670e7102674b39",
		},
		{
			name:        "para 2114 any network V2 matches V3",
			giveParaID:  2114,
			giveAccount: alicePub,
			giveOpts:    DeriveOptions{AddressKind: AddressKindSubstrate, Version: V2},
			want32:      "c3f91ea5c873ee4f4be432f11c670e7102674b3965de7e4dfc40a2aa59366568",
			want20:      "c3f91ea5c873ee4f4be432f11c670e7102674b39",
		},
		{
			name:        "para 2000 any network",
			giveParaID:  2000,
			giveAccount: alicePub,
			giveOpts:    DeriveOptions{AddressKind: AddressKindSubstrate, Version: V3},
			want32:      "b28bad43ad8e66f54af980033b8c559bccf58633f55e48213fde8214a2faf159",
		},
		{
			name:        "polkadot network V2",
			giveParaID:  2114,
			giveAccount: alicePub,
			giveOpts: DeriveOptions{
				AddressKind: AddressKindSubstrate, Version: V2, Network: NetworkID{Kind: NetworkPolkadot},
			},
			want32: "2d140249aa48887df8e20e60e3e55b1dfd2960ba7c8a47f8ae3cee5050620a99",
		},
		{
			name:        "polkadot network V3 is optional",
			giveParaID:  2114,
			giveAccount: alicePub,
			giveOpts: DeriveOptions{
				AddressKind: AddressKindSubstrate, Version: V3, Network: NetworkID{Kind: NetworkPolkadot},
			},
			want32: "267493df37ebcd91e5b7bb432cdfb3c0e51ecc32f0104b3933571f86fa93ac03",
		},
		{
			name:        "ethereum account key",
			giveParaID:  1000,
			giveAccount: alith,
			giveOpts:    DeriveOptions{AddressKind: AddressKindEthereum, Version: V3},
			want32:      "036fa5d08c7ea3182c4c1a5d0e882b1cef05d79a760fd6ba4ad8279918e500cc",
			want20:      "036fa5d08c7ea3182c4c1a5d0e882b1cef05d79a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DeriveAccount(tt.giveParaID, mustHex(t, tt.giveAccount), tt.giveOpts)
			require.NoError(t, err)

			assert.Equal(t, tt.want32, hex.EncodeToString(got.AccountID32[:]))
			if tt.want20 != "" {
				assert.Equal(t, tt.want20, hex.EncodeToString(got.AccountKey20[:]))
			}
			assert.Equal(t, got.AccountID32[:20], got.AccountKey20[:])
			assert.Len(t, got.Bytes(tt.giveOpts.AddressKind), map[AddressKind]int{
				AddressKindSubstrate: 32, AddressKindEthereum: 20,
			}[tt.giveOpts.AddressKind])
		})
	}
}

func Test_DeriveAccount_Deterministic(t *testing.T) {
	t.Parallel()

	opts := DeriveOptions{AddressKind: AddressKindSubstrate, Version: V3}
	first, err := DeriveAccount(2114, mustHex(t, alicePub), opts)
	require.NoError(t, err)

	for range 10 {
		again, err := DeriveAccount(2114, mustHex(t, alicePub), opts)
		require.NoError(t, err)
		assert.Equal(t, first.AccountID32, again.AccountID32)
	}
}

func Test_DeriveAccount_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		giveAccount []byte
		giveOpts    DeriveOptions
		wantErrIs   error
		wantErr     string
	}{
		{
			name:        "unset address kind",
			giveAccount: make([]byte, 32),
			giveOpts:    DeriveOptions{Version: V3},
			wantErrIs:   ErrUnsupportedAddressKind,
		},
		{
			name:        "unknown address kind",
			giveAccount: make([]byte, 32),
			giveOpts:    DeriveOptions{AddressKind: 9, Version: V3},
			wantErrIs:   ErrUnsupportedAddressKind,
		},
		{
			name:        "substrate account of wrong length",
			giveAccount: make([]byte, 20),
			giveOpts:    DeriveOptions{AddressKind: AddressKindSubstrate, Version: V3},
			wantErr:     "account id must be 32 bytes",
		},
		{
			name:        "ethereum key of wrong length",
			giveAccount: make([]byte, 32),
			giveOpts:    DeriveOptions{AddressKind: AddressKindEthereum, Version: V3},
			wantErr:     "account key must be 20 bytes",
		},
		{
			name:        "unknown version",
			giveAccount: make([]byte, 32),
			giveOpts:    DeriveOptions{AddressKind: AddressKindSubstrate, Version: 7},
			wantErrIs:   ErrUnsupportedVersion,
		},
		{
			name:        "westend network has no V2 form",
			giveAccount: make([]byte, 32),
			giveOpts: DeriveOptions{
				AddressKind: AddressKindSubstrate, Version: V2, Network: NetworkID{Kind: NetworkWestend},
			},
			wantErrIs: ErrUnsupportedVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := DeriveAccount(2114, tt.giveAccount, tt.giveOpts)
			require.Error(t, err)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
			}
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func Test_ParseAddressKind(t *testing.T) {
	t.Parallel()

	got, err := ParseAddressKind("Ethereum")
	require.NoError(t, err)
	assert.Equal(t, AddressKindEthereum, got)

	got, err = ParseAddressKind("substrate")
	require.NoError(t, err)
	assert.Equal(t, AddressKindSubstrate, got)

	_, err = ParseAddressKind("bitcoin")
	require.ErrorIs(t, err, ErrUnsupportedAddressKind)
}
