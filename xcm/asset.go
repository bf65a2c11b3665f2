package xcm

import (
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// MultiAsset is a concrete fungible asset: an amount of the asset identified by a location.
type MultiAsset struct {
	ID     MultiLocation
	Amount *big.Int
}

// Fungible returns amount units of the asset at id.
func Fungible(id MultiLocation, amount *big.Int) MultiAsset {
	return MultiAsset{ID: id, Amount: amount}
}

func (a MultiAsset) String() string {
	amount := "0"
	if a.Amount != nil {
		amount = a.Amount.String()
	}

	return fmt.Sprintf("%s of %s", amount, a.ID)
}

func encodeAsset(e scale.Encoder, c locationEncoder, a MultiAsset) error {
	// AssetId::Concrete
	if err := e.PushByte(0); err != nil {
		return err
	}
	if err := c.location(e, a.ID); err != nil {
		return err
	}
	// Fungibility::Fungible
	if err := e.PushByte(0); err != nil {
		return err
	}

	return encodeCompactBig(e, a.Amount)
}

func encodeAssets(e scale.Encoder, c locationEncoder, as []MultiAsset) error {
	if err := encodeCompact(e, uint64(len(as))); err != nil {
		return err
	}
	for _, a := range as {
		if err := encodeAsset(e, c, a); err != nil {
			return err
		}
	}

	return nil
}

// VersionedAssets is a VersionedMultiAssets value.
type VersionedAssets struct {
	Version Version
	Assets  []MultiAsset
}

// Encode implements scale.Encodeable.
func (v VersionedAssets) Encode(e scale.Encoder) error {
	idx, err := v.Version.locationIndex()
	if err != nil {
		return err
	}
	c, err := codecFor(v.Version)
	if err != nil {
		return err
	}
	if err = e.PushByte(idx); err != nil {
		return err
	}

	return encodeAssets(e, c, v.Assets)
}
