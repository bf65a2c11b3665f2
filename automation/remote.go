package automation

import (
	"context"
	"fmt"
	"math/big"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/weight"
	"github.com/parachain-tools/xcm-automation/xcm"
)

// RemoteDispatcher is the account dispatching calls on target that source sends through XCM
// Transact: the derived account of source's signer.
func RemoteDispatcher(source substrate.Chain, target substrate.ChainEndpoint) (xcm.DerivedAccount, error) {
	paraID, ok := source.Endpoint.ParachainID()
	if !ok {
		return xcm.DerivedAccount{}, fmt.Errorf("%s is not a parachain", source)
	}

	return xcm.DeriveAccount(paraID, source.Signer.PublicKey, xcm.DeriveOptions{
		AddressKind: source.Endpoint.AddressKind,
		Version:     target.XcmVersion,
		Network:     xcm.AnyNetwork,
	})
}

// RemoteCall describes a call dispatched on Target by a Transact sent from Source.
type RemoteCall struct {
	Source substrate.Chain
	Target substrate.Chain
	Call   substrate.Call
	// CallWeight overrides the weight estimated on Target.
	CallWeight *weight.Weight
	// Fee overrides the fee computed from Target's fee per second.
	Fee *big.Int
}

// remoteSendCall wraps rc in PolkadotXcm.send on the source chain. The message is paid from the
// dispatcher's holding on the target and refunds it.
func remoteSendCall(ctx context.Context, rc RemoteCall, marginNum, marginDen uint64) (substrate.Call, xcm.Message, error) {
	paraID, ok := rc.Source.Endpoint.ParachainID()
	if !ok {
		return substrate.Call{}, xcm.Message{}, fmt.Errorf("%s is not a parachain", rc.Source)
	}
	target := rc.Target.Endpoint

	encoded, err := rc.Target.Client.EncodeCall(rc.Call)
	if err != nil {
		return substrate.Call{}, xcm.Message{}, fmt.Errorf("encode %s for %s: %w", rc.Call.Name(), rc.Target, err)
	}

	var callWeight weight.Weight
	if rc.CallWeight != nil {
		callWeight = *rc.CallWeight
	} else {
		info, err := rc.Target.Client.EstimateFee(ctx, rc.Call, rc.Target.Signer)
		if err != nil {
			return substrate.Call{}, xcm.Message{}, fmt.Errorf("estimate %s on %s: %w", rc.Call.Name(), rc.Target, err)
		}
		callWeight = info.Weight
	}

	// pallet-xcm descends into the signed origin before the program runs.
	builder := xcm.NewBuilder(xcm.WithImplicitDescendOrigin())
	overall := builder.OverallWeight(callWeight, target.InstructionWeight)

	fee := rc.Fee
	if fee == nil {
		base, err := target.FeeFor(overall)
		if err != nil {
			return substrate.Call{}, xcm.Message{}, err
		}
		fee = weight.WithMargin(base, marginNum, marginDen)
	}

	sender, err := xcm.AccountJunction(rc.Source.Endpoint.AddressKind, xcm.AnyNetwork, rc.Source.Signer.PublicKey)
	if err != nil {
		return substrate.Call{}, xcm.Message{}, err
	}

	msg, err := builder.Build(xcm.BuildParams{
		Destination:        target.SiblingLocation(),
		EncodedCall:        encoded,
		RequiredCallWeight: callWeight,
		OverallWeight:      overall,
		FeeAsset:           target.FeeAssetLocation(),
		FeeAmount:          fee,
		Beneficiary:        xcm.SiblingParachain(paraID).Append(sender),
		Version:            rc.Source.Endpoint.XcmVersion,
	})
	if err != nil {
		return substrate.Call{}, xcm.Message{}, err
	}

	return substrate.NewCall(xcmPallet(rc.Source.Endpoint), "send", msg.VersionedDestination(), msg), msg, nil
}

func xcmPallet(e substrate.ChainEndpoint) string {
	if e.IsRelay {
		return "XcmPallet"
	}

	return "PolkadotXcm"
}
