package commands

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/automation"
	"github.com/parachain-tools/xcm-automation/weight"
)

var (
	feeLong = longDesc(`
Computes, without connecting to any chain, the overall weight and the execution fee of the
program an automation task sends to a destination for a call of the given weight. The fee is
padded with the configured fee margin.
`)

	feeExample = examples(`
		# Fee on moonbase for a call weighing 500000000 ref time and 10000 proof size
		xcm-automation fee --chain moonbase --ref-time 500000000 --proof-size 10000

		# Same call, paid by the derivative account
		xcm-automation fee --chain moonbase --ref-time 500000000 --proof-size 10000 --sequence derivative
	`)
)

func newFeeCmd(cfg Config) *cobra.Command {
	var (
		chainKey           string
		refTime, proofSize uint64
		sequence           sequenceValue
	)

	cmd := &cobra.Command{
		Use:     "fee",
		Short:   "Estimate the execution fee of a task",
		Long:    feeLong,
		Example: feeExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runFee(cmd, rt, chainKey, weight.New(refTime, proofSize), automation.InstructionSequence(sequence))
		},
	}

	cmd.Flags().StringVar(&chainKey, "chain", "", "Network key of the destination (required)")
	cmd.Flags().Uint64Var(&refTime, "ref-time", 0, "Ref time of the dispatched call")
	cmd.Flags().Uint64Var(&proofSize, "proof-size", 0, "Proof size of the dispatched call")
	cmd.Flags().Var(&sequence, "sequence", "Instruction sequence: sovereign or derivative")
	_ = cmd.MarkFlagRequired("chain")

	return cmd
}

func runFee(cmd *cobra.Command, rt *runtime, chainKey string, callWeight weight.Weight, seq automation.InstructionSequence) error {
	dest, err := rt.endpoint(chainKey)
	if err != nil {
		return err
	}

	num, den := rt.env.Automation.FeeMarginNumerator, rt.env.Automation.FeeMarginDenominator
	if num == 0 || den == 0 {
		num, den = automation.DefaultFeeMarginNumerator, automation.DefaultFeeMarginDenominator
	}
	est, err := automation.EstimateExecution(dest, seq, callWeight, num, den)
	if err != nil {
		return err
	}

	cmd.Printf("Instructions: %d\n", est.Instructions)
	cmd.Printf("Overall:      %s\n", est.Overall)
	if est.Fee == nil {
		cmd.Printf("Fee:          %s has no fee per second configured\n", dest.Key)
		return nil
	}
	human := decimal.NewFromBigInt(est.Fee, -int32(dest.NativeAsset.Decimals))
	cmd.Printf("Fee:          %s (%s %s, margin %d/%d)\n", est.Fee, human, dest.NativeAsset.Symbol, num, den)

	return nil
}
