package automation

import (
	"math/big"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/weight"
	"github.com/parachain-tools/xcm-automation/xcm"
)

// ExecutionEstimate is what the destination charges for the program a task sends.
type ExecutionEstimate struct {
	Instructions uint64
	Overall      weight.Weight
	// Fee is the padded execution fee, nil when dest has no fee per second configured.
	Fee *big.Int
}

// EstimateExecution computes the overall weight of the program for a call of callWeight and, when
// dest prices weight, the execution fee padded by marginNum/marginDen.
func EstimateExecution(dest substrate.ChainEndpoint, seq InstructionSequence, callWeight weight.Weight, marginNum, marginDen uint64) (ExecutionEstimate, error) {
	builder := xcm.NewBuilder(seq.builderOptions()...)
	est := ExecutionEstimate{
		Instructions: builder.InstructionCount(),
		Overall:      builder.OverallWeight(callWeight, dest.InstructionWeight),
	}
	if dest.FeePerSecond == nil {
		return est, nil
	}

	base, err := dest.FeeFor(est.Overall)
	if err != nil {
		return ExecutionEstimate{}, err
	}
	est.Fee = weight.WithMargin(base, marginNum, marginDen)

	return est, nil
}
