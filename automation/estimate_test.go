package automation

import (
	"math/big"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parachain-tools/xcm-automation/weight"
)

func Test_EstimateExecution(t *testing.T) {
	t.Parallel()

	dest, _ := parachain("moonbase", 2000, signature.TestKeyringPairAlice)
	unpriced := dest.Endpoint
	unpriced.FeePerSecond = nil
	callWeight := weight.New(500_000_000, 10_000)

	tests := []struct {
		name             string
		give             InstructionSequence
		giveNum, giveDen uint64
		wantInstructions uint64
		wantOverall      weight.Weight
		wantFee          *big.Int
	}{
		{
			name:             "sovereign",
			give:             PayThroughSovereignAccount,
			giveNum:          3,
			giveDen:          2,
			wantInstructions: 5,
			wantOverall:      weight.New(5_500_000_000, 10_000+5*64*1024),
			wantFee:          big.NewInt(8_250_000_000),
		},
		{
			name:             "derivative without margin",
			give:             PayThroughRemoteDerivativeAccount,
			giveNum:          1,
			giveDen:          1,
			wantInstructions: 6,
			wantOverall:      weight.New(6_500_000_000, 10_000+6*64*1024),
			wantFee:          big.NewInt(6_500_000_000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := EstimateExecution(dest.Endpoint, tt.give, callWeight, tt.giveNum, tt.giveDen)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInstructions, got.Instructions)
			assert.True(t, tt.wantOverall.Equal(got.Overall), got.Overall.String())
			assert.Equal(t, tt.wantFee, got.Fee)
		})
	}

	got, err := EstimateExecution(unpriced, PayThroughSovereignAccount, callWeight, 3, 2)
	require.NoError(t, err)
	assert.Nil(t, got.Fee)
	assert.Equal(t, uint64(5), got.Instructions)
}
