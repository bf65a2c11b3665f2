package proxy

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/shopspring/decimal"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/xcm"
)

// LocalTransfer tops up from the signer of from with Balances.transfer_keep_alive. The account must
// live on from.
func LocalTransfer(from substrate.Chain) TopUpFunc {
	return func(ctx context.Context, account []byte, amount *big.Int) error {
		dest, err := substrate.LookupArg(from.Endpoint.AddressKind, account)
		if err != nil {
			return err
		}
		call := substrate.NewCall("Balances", "transfer_keep_alive", dest, types.NewUCompact(amount))
		if _, err = from.Client.SubmitSigned(ctx, call, from.Signer); err != nil {
			return fmt.Errorf("transfer on %s: %w", from, err)
		}

		return nil
	}
}

// ReserveTransfer tops up an account on dest from the signer of source with
// limited_reserve_transfer_assets. asset is the transferred asset as seen from source.
func ReserveTransfer(source substrate.Chain, dest substrate.ChainEndpoint, asset xcm.MultiLocation) TopUpFunc {
	return func(ctx context.Context, account []byte, amount *big.Int) error {
		call, err := ReserveTransferCall(source.Endpoint, dest, asset, account, amount)
		if err != nil {
			return err
		}
		if _, err = source.Client.SubmitSigned(ctx, call, source.Signer); err != nil {
			return fmt.Errorf("reserve transfer from %s to %s: %w", source, dest.Key, err)
		}

		return nil
	}
}

// ReserveTransferCall builds the limited_reserve_transfer_assets call sending amount of asset from
// source to account on dest, with an unlimited execution weight paid from the transferred asset.
func ReserveTransferCall(source, dest substrate.ChainEndpoint, asset xcm.MultiLocation, account []byte, amount *big.Int) (substrate.Call, error) {
	if amount == nil || amount.Sign() <= 0 {
		return substrate.Call{}, errors.New("transfer amount must be positive")
	}

	v := source.XcmVersion
	j, err := xcm.AccountJunction(dest.AddressKind, xcm.AnyNetwork, account)
	if err != nil {
		return substrate.Call{}, err
	}
	pallet, destination := "PolkadotXcm", dest.SiblingLocation()
	if source.IsRelay {
		pallet = "XcmPallet"
		destination = xcm.MultiLocation{}
		if id, ok := dest.ParachainID(); ok {
			destination = destination.Append(xcm.Parachain(id))
		}
	}

	return substrate.NewCall(pallet, "limited_reserve_transfer_assets",
		xcm.VersionedLocation{Version: v, Location: destination},
		xcm.VersionedLocation{Version: v, Location: xcm.Here().Append(j)},
		xcm.VersionedAssets{Version: v, Assets: []xcm.MultiAsset{xcm.Fungible(asset, amount)}},
		types.NewU32(0),
		xcm.WeightLimit{Version: v},
	), nil
}

// WrapCall dispatches call on behalf of delegator through Proxy.proxy, letting any proxy type match.
func WrapCall(kind xcm.AddressKind, delegator []byte, call substrate.Call) (substrate.Call, error) {
	lookup, err := substrate.LookupArg(kind, delegator)
	if err != nil {
		return substrate.Call{}, err
	}

	return substrate.NewCall("Proxy", "proxy", lookup, types.NewOptionU8Empty(), call), nil
}

// Amount converts a human readable amount such as "1.5" into the asset's smallest unit.
func Amount(value string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %q is negative", value)
	}
	d = d.Shift(int32(decimals))
	if !d.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimals", value, decimals)
	}

	return d.BigInt(), nil
}
