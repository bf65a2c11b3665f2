package substrate

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/parachain-tools/xcm-automation/weight"
	"github.com/parachain-tools/xcm-automation/xcm"
)

// NativeAsset describes a chain's native token.
type NativeAsset struct {
	Symbol   string
	Decimals uint8
	// Location is the asset as seen from the chain itself. Nil means Here.
	Location *xcm.MultiLocation
}

// ProxyType is a proxy pallet ProxyType variant: its name and its enum index.
type ProxyType struct {
	Name  string
	Index uint8
}

// ChainEndpoint identifies a chain and the constants the components need about it. It is loaded
// once from the network manifest and never mutated.
type ChainEndpoint struct {
	Key       string
	Name      string
	Endpoints []string
	// SS58Prefix is the address format discriminator.
	SS58Prefix uint16
	// ParaID is nil for relay chains.
	ParaID      *uint32
	NativeAsset NativeAsset
	// InstructionWeight is the weight the chain charges per XCM instruction.
	InstructionWeight weight.Weight
	// FeePerSecond is the native asset amount charged per second of ref time. Optional.
	FeePerSecond *big.Int
	AddressKind  xcm.AddressKind
	XcmVersion   xcm.Version
	ProxyType    ProxyType
	IsRelay      bool
}

// Validate checks the endpoint is usable.
func (e ChainEndpoint) Validate() error {
	var errs []error
	if e.Key == "" {
		errs = append(errs, errors.New("key is required"))
	}
	if len(e.Endpoints) == 0 {
		errs = append(errs, errors.New("at least one endpoint is required"))
	}
	if e.IsRelay && e.ParaID != nil {
		errs = append(errs, errors.New("relay chain cannot have a para id"))
	}
	if !e.IsRelay && e.ParaID == nil {
		errs = append(errs, errors.New("para id is required for parachains"))
	}
	if err := e.AddressKind.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := e.XcmVersion.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := e.InstructionWeight.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("instruction weight: %w", err))
	}
	if e.FeePerSecond != nil && e.FeePerSecond.Sign() < 0 {
		errs = append(errs, errors.New("fee per second cannot be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("chain %q: %w", e.Key, err)
	}

	return nil
}

// ParachainID returns the para id, or false for a relay chain.
func (e ChainEndpoint) ParachainID() (uint32, bool) {
	if e.ParaID == nil {
		return 0, false
	}

	return *e.ParaID, true
}

// SiblingLocation is the chain as seen from another parachain.
func (e ChainEndpoint) SiblingLocation() xcm.MultiLocation {
	if id, ok := e.ParachainID(); ok {
		return xcm.SiblingParachain(id)
	}

	return xcm.MultiLocation{Parents: 1}
}

// FeeAssetLocation is the native asset as seen from the chain itself, used to pay for execution
// of messages sent to it.
func (e ChainEndpoint) FeeAssetLocation() xcm.MultiLocation {
	if e.NativeAsset.Location != nil {
		return *e.NativeAsset.Location
	}

	return xcm.Here()
}

// SiblingFeeAssetLocation is the native asset as seen from another parachain.
func (e ChainEndpoint) SiblingFeeAssetLocation() xcm.MultiLocation {
	loc := e.FeeAssetLocation()
	if loc.Parents > 0 {
		return loc
	}

	return e.SiblingLocation().Append(loc.Interior...)
}

// FeeFor returns the native asset amount charged for budget, using FeePerSecond.
func (e ChainEndpoint) FeeFor(budget weight.Weight) (*big.Int, error) {
	if e.FeePerSecond == nil {
		return nil, fmt.Errorf("chain %q has no fee per second configured", e.Key)
	}

	return weight.FungibleFee(budget, e.FeePerSecond)
}
