package automation

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/operations"
)

// submitInput identifies one extrinsic submission. Two submissions of the same encoded call on
// the same chain for the same task are the same run.
type submitInput struct {
	ChainKey   string `json:"chainKey"`
	Call       string `json:"call"`
	Encoded    string `json:"encoded"`
	ProvidedID string `json:"providedId"`
}

type submitOutput struct {
	BlockHash string `json:"blockHash"`
}

type submitDeps struct {
	Chain   substrate.Chain
	Call    substrate.Call
	Metrics *Metrics
	// Inspect checks the events of the included extrinsic.
	Inspect func(events []substrate.Event) error
}

// submitExtrinsicOp signs and submits a call. Dispatch failures are not retried.
var submitExtrinsicOp = operations.NewOperation(
	"automation-submit-extrinsic",
	semver.MustParse("1.0.0"),
	"Submit a signed extrinsic and wait for inclusion",
	func(b operations.Bundle, deps submitDeps, input submitInput) (submitOutput, error) {
		res, err := deps.Chain.Client.SubmitSigned(b.GetContext(), deps.Call, deps.Chain.Signer)
		deps.Metrics.extrinsic(input.ChainKey, input.Call, err)
		if err != nil {
			var dispatchErr *substrate.DispatchError
			if errors.As(err, &dispatchErr) {
				return submitOutput{}, operations.NewUnrecoverableError(err)
			}

			return submitOutput{}, err
		}
		b.Logger.Infow("Extrinsic included", "chain", input.ChainKey, "call", input.Call, "block", res.BlockHash)

		if deps.Inspect != nil {
			if err = deps.Inspect(res.Events); err != nil {
				return submitOutput{}, operations.NewUnrecoverableError(err)
			}
		}

		return submitOutput{BlockHash: res.BlockHash}, nil
	},
)

// submit runs submitExtrinsicOp for call on ch, skipping a previous successful submission of the
// same call for the same task.
func submit(b operations.Bundle, ch substrate.Chain, call substrate.Call, providedID string, metrics *Metrics, inspect func([]substrate.Event) error) (string, error) {
	encoded, err := ch.Client.EncodeCall(call)
	if err != nil {
		return "", fmt.Errorf("encode %s for %s: %w", call.Name(), ch, err)
	}

	report, err := operations.ExecuteOperation(b, submitExtrinsicOp,
		submitDeps{Chain: ch, Call: call, Metrics: metrics, Inspect: inspect},
		submitInput{
			ChainKey:   ch.Key(),
			Call:       call.Name(),
			Encoded:    "0x" + hex.EncodeToString(encoded),
			ProvidedID: providedID,
		},
	)
	if err != nil {
		return "", fmt.Errorf("submit %s on %s: %w", call.Name(), ch, err)
	}

	return report.Output.BlockHash, nil
}
