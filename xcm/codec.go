package xcm

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

// locationEncoder writes one version family's layout of locations and junctions. V1 and V2 share
// legacyCodec; V3 has its own.
type locationEncoder interface {
	location(e scale.Encoder, l MultiLocation) error
	junctions(e scale.Encoder, js []Junction) error
}

func codecFor(v Version) (locationEncoder, error) {
	switch v {
	case V1, V2:
		return legacyCodec{}, nil
	case V3:
		return v3Codec{}, nil
	}

	return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, uint8(v))
}

// EncodeLocation returns the unversioned SCALE encoding of l in the layout of version v.
func EncodeLocation(v Version, l MultiLocation) ([]byte, error) {
	c, err := codecFor(v)
	if err != nil {
		return nil, err
	}
	if err = l.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err = c.location(*scale.NewEncoder(&buf), l); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func encodeCompact(e scale.Encoder, v uint64) error {
	return e.EncodeUintCompact(*new(big.Int).SetUint64(v))
}

func encodeCompactBig(e scale.Encoder, v *big.Int) error {
	if v == nil {
		return encodeCompact(e, 0)
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return fmt.Errorf("value %s does not fit u128", v)
	}

	return e.EncodeUintCompact(*v)
}

type legacyCodec struct{}

func (c legacyCodec) location(e scale.Encoder, l MultiLocation) error {
	if err := e.PushByte(l.Parents); err != nil {
		return err
	}

	return c.junctions(e, l.Interior)
}

func (c legacyCodec) junctions(e scale.Encoder, js []Junction) error {
	if len(js) > MaxJunctions {
		return fmt.Errorf("interior has %d junctions, at most %d allowed", len(js), MaxJunctions)
	}
	if err := e.PushByte(byte(len(js))); err != nil {
		return err
	}
	for _, j := range js {
		if err := c.junction(e, j); err != nil {
			return err
		}
	}

	return nil
}

func (c legacyCodec) junction(e scale.Encoder, j Junction) error {
	switch j := j.(type) {
	case Parachain:
		if err := e.PushByte(0); err != nil {
			return err
		}

		return encodeCompact(e, uint64(j))
	case AccountID32:
		if err := e.PushByte(1); err != nil {
			return err
		}
		if err := c.network(e, j.Network); err != nil {
			return err
		}

		return e.Write(j.ID[:])
	case AccountKey20:
		if err := e.PushByte(3); err != nil {
			return err
		}
		if err := c.network(e, j.Network); err != nil {
			return err
		}

		return e.Write(j.Key[:])
	case PalletInstance:
		if err := e.PushByte(4); err != nil {
			return err
		}

		return e.PushByte(uint8(j))
	case GeneralIndex:
		if err := e.PushByte(5); err != nil {
			return err
		}

		return encodeCompactBig(e, j.Index)
	case GeneralKey:
		if err := e.PushByte(6); err != nil {
			return err
		}

		return e.Encode([]byte(j))
	}

	return fmt.Errorf("unknown junction %T", j)
}

func (legacyCodec) network(e scale.Encoder, n NetworkID) error {
	switch n.Kind {
	case NetworkAny:
		return e.PushByte(0)
	case NetworkNamed:
		if err := e.PushByte(1); err != nil {
			return err
		}

		return e.Encode(n.Name)
	case NetworkPolkadot:
		return e.PushByte(2)
	case NetworkKusama:
		return e.PushByte(3)
	}

	return fmt.Errorf("%w: network %s requires V3", ErrUnsupportedVersion, n)
}

type v3Codec struct{}

func (c v3Codec) location(e scale.Encoder, l MultiLocation) error {
	if err := e.PushByte(l.Parents); err != nil {
		return err
	}

	return c.junctions(e, l.Interior)
}

func (c v3Codec) junctions(e scale.Encoder, js []Junction) error {
	if len(js) > MaxJunctions {
		return fmt.Errorf("interior has %d junctions, at most %d allowed", len(js), MaxJunctions)
	}
	if err := e.PushByte(byte(len(js))); err != nil {
		return err
	}
	for _, j := range js {
		if err := c.junction(e, j); err != nil {
			return err
		}
	}

	return nil
}

func (c v3Codec) junction(e scale.Encoder, j Junction) error {
	switch j := j.(type) {
	case Parachain:
		if err := e.PushByte(0); err != nil {
			return err
		}

		return encodeCompact(e, uint64(j))
	case AccountID32:
		if err := e.PushByte(1); err != nil {
			return err
		}
		if err := c.optionalNetwork(e, j.Network); err != nil {
			return err
		}

		return e.Write(j.ID[:])
	case AccountKey20:
		if err := e.PushByte(3); err != nil {
			return err
		}
		if err := c.optionalNetwork(e, j.Network); err != nil {
			return err
		}

		return e.Write(j.Key[:])
	case PalletInstance:
		if err := e.PushByte(4); err != nil {
			return err
		}

		return e.PushByte(uint8(j))
	case GeneralIndex:
		if err := e.PushByte(5); err != nil {
			return err
		}

		return encodeCompactBig(e, j.Index)
	case GeneralKey:
		if len(j) > 32 {
			return fmt.Errorf("general key of %d bytes exceeds 32", len(j))
		}
		if err := e.PushByte(6); err != nil {
			return err
		}
		if err := e.PushByte(byte(len(j))); err != nil {
			return err
		}
		var data [32]byte
		copy(data[:], j)

		return e.Write(data[:])
	}

	return fmt.Errorf("unknown junction %T", j)
}

// optionalNetwork writes Option<NetworkId>; NetworkAny is None.
func (c v3Codec) optionalNetwork(e scale.Encoder, n NetworkID) error {
	if n.Kind == NetworkAny {
		return e.PushByte(0)
	}
	if err := e.PushByte(1); err != nil {
		return err
	}

	return c.network(e, n)
}

func (v3Codec) network(e scale.Encoder, n NetworkID) error {
	switch n.Kind {
	case NetworkByGenesis:
		if err := e.PushByte(0); err != nil {
			return err
		}

		return e.Write(n.Genesis[:])
	case NetworkPolkadot:
		return e.PushByte(2)
	case NetworkKusama:
		return e.PushByte(3)
	case NetworkWestend:
		return e.PushByte(4)
	case NetworkRococo:
		return e.PushByte(5)
	case NetworkEthereum:
		if err := e.PushByte(7); err != nil {
			return err
		}

		return encodeCompact(e, n.ChainID)
	}

	return fmt.Errorf("%w: network %s has no V3 form", ErrUnsupportedVersion, n)
}

// VersionedLocation is a VersionedMultiLocation: a location tagged with the version it encodes as.
type VersionedLocation struct {
	Version  Version
	Location MultiLocation
}

// Encode implements scale.Encodeable.
func (v VersionedLocation) Encode(e scale.Encoder) error {
	idx, err := v.Version.locationIndex()
	if err != nil {
		return err
	}
	c, err := codecFor(v.Version)
	if err != nil {
		return err
	}
	if err = v.Location.Validate(); err != nil {
		return err
	}
	if err = e.PushByte(idx); err != nil {
		return err
	}

	return c.location(e, v.Location)
}
