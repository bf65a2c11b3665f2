package provider

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alicePub  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	devPhrase = "bottom drive obey lake curtain smoke basket hold race lonely fit walk"
)

func Test_SignerGenerator_Generate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		give        SignerGenerator
		givePrefix  uint16
		wantPub     string
		wantAddress string
		wantErr     string
	}{
		{
			name:        "dev uri",
			give:        SignerFromURI("//Alice"),
			givePrefix:  42,
			wantPub:     alicePub,
			wantAddress: "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY",
		},
		{
			name:        "dev uri with chain prefix",
			give:        SignerFromURI("//Alice"),
			givePrefix:  51,
			wantPub:     alicePub,
			wantAddress: "6AwtFW6sYcQ8RcuAJeXdDKuFtUVXj4xW57ghjYQ5xyciT1yd",
		},
		{
			name:       "mnemonic with derivation path",
			give:       SignerFromMnemonic("  "+devPhrase+" ", "//Alice"),
			givePrefix: 42,
			wantPub:    alicePub,
		},
		{
			name:    "empty uri",
			give:    SignerFromURI(" "),
			wantErr: "signer URI is empty",
		},
		{
			name:    "invalid mnemonic",
			give:    SignerFromMnemonic("bottom drive obey lake curtain smoke basket hold race lonely fit fit", ""),
			wantErr: "invalid mnemonic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			kp, err := tt.give.Generate(tt.givePrefix)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantPub, hex.EncodeToString(kp.PublicKey))
			if tt.wantAddress != "" {
				assert.Equal(t, tt.wantAddress, kp.Address)
			}
		})
	}
}
