package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
	"github.com/parachain-tools/xcm-automation/xcm"
)

func Test_RPCChainProviderConfig_validate(t *testing.T) {
	t.Parallel()

	require.ErrorContains(t, RPCChainProviderConfig{}.validate(), "signer generator is required")
	require.NoError(t, RPCChainProviderConfig{SignerGen: SignerFromURI("//Alice")}.validate())
}

func Test_RPCChainProvider_Initialize_Invalid(t *testing.T) {
	t.Parallel()

	paraID := uint32(2114)
	endpoint := substrate.ChainEndpoint{
		Key:         "turing",
		Name:        "Turing",
		Endpoints:   []string{"ws://127.0.0.1:1"},
		SS58Prefix:  51,
		ParaID:      &paraID,
		AddressKind: xcm.AddressKindSubstrate,
		XcmVersion:  xcm.V3,
	}

	tests := []struct {
		name         string
		giveEndpoint func(e *substrate.ChainEndpoint)
		giveConfig   RPCChainProviderConfig
		wantErr      string
	}{
		{
			name:         "missing signer",
			giveEndpoint: func(*substrate.ChainEndpoint) {},
			giveConfig:   RPCChainProviderConfig{Logger: logger.Nop()},
			wantErr:      "failed to validate provider config",
		},
		{
			name:         "invalid endpoint",
			giveEndpoint: func(e *substrate.ChainEndpoint) { e.Endpoints = nil },
			giveConfig:   RPCChainProviderConfig{Logger: logger.Nop(), SignerGen: SignerFromURI("//Alice")},
			wantErr:      "failed to validate chain endpoint",
		},
		{
			name:         "bad signer",
			giveEndpoint: func(*substrate.ChainEndpoint) {},
			giveConfig:   RPCChainProviderConfig{Logger: logger.Nop(), SignerGen: SignerFromMnemonic("nope", "")},
			wantErr:      "failed to generate signer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := endpoint
			tt.giveEndpoint(&e)

			p := NewRPCChainProvider(e, tt.giveConfig)
			_, err := p.Initialize(t.Context())
			require.ErrorContains(t, err, tt.wantErr)
		})
	}

	p := NewRPCChainProvider(endpoint, RPCChainProviderConfig{})
	assert.Equal(t, "turing", p.ChainKey())
	assert.Equal(t, "Substrate RPC Chain Provider", p.Name())
}
