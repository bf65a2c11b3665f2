package xcm

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// Junction is one step of a multilocation's interior. It is a closed set: Parachain,
// AccountID32, AccountKey20, PalletInstance, GeneralIndex and GeneralKey.
type Junction interface {
	fmt.Stringer
	junction()
}

// Parachain identifies a parachain by its id.
type Parachain uint32

// AccountID32 is a 32 byte account on a substrate chain.
type AccountID32 struct {
	Network NetworkID
	ID      [32]byte
}

// AccountKey20 is a 20 byte account on an EVM-style chain.
type AccountKey20 struct {
	Network NetworkID
	Key     [20]byte
}

// PalletInstance is a pallet index within a runtime.
type PalletInstance uint8

// GeneralIndex is a u128 index, typically an asset id.
type GeneralIndex struct {
	Index *big.Int
}

// GeneralKey is an opaque key. V3 bounds it to 32 bytes.
type GeneralKey []byte

func (Parachain) junction()      {}
func (AccountID32) junction()    {}
func (AccountKey20) junction()   {}
func (PalletInstance) junction() {}
func (GeneralIndex) junction()   {}
func (GeneralKey) junction()     {}

func (p Parachain) String() string { return fmt.Sprintf("Parachain(%d)", uint32(p)) }

func (a AccountID32) String() string {
	return fmt.Sprintf("AccountId32(%s, 0x%s)", a.Network, hex.EncodeToString(a.ID[:]))
}

func (a AccountKey20) String() string {
	return fmt.Sprintf("AccountKey20(%s, 0x%s)", a.Network, hex.EncodeToString(a.Key[:]))
}

func (p PalletInstance) String() string { return fmt.Sprintf("PalletInstance(%d)", uint8(p)) }

func (g GeneralIndex) String() string {
	if g.Index == nil {
		return "GeneralIndex(0)"
	}

	return "GeneralIndex(" + g.Index.String() + ")"
}

func (g GeneralKey) String() string { return "GeneralKey(0x" + hex.EncodeToString(g) + ")" }

// NewAccountID32 builds an AccountID32 junction from a 32 byte public key.
func NewAccountID32(network NetworkID, id []byte) (AccountID32, error) {
	if len(id) != 32 {
		return AccountID32{}, fmt.Errorf("account id must be 32 bytes, got %d", len(id))
	}
	j := AccountID32{Network: network}
	copy(j.ID[:], id)

	return j, nil
}

// NewAccountKey20 builds an AccountKey20 junction from a 20 byte key.
func NewAccountKey20(network NetworkID, key []byte) (AccountKey20, error) {
	if len(key) != 20 {
		return AccountKey20{}, fmt.Errorf("account key must be 20 bytes, got %d", len(key))
	}
	j := AccountKey20{Network: network}
	copy(j.Key[:], key)

	return j, nil
}

// MaxJunctions is the deepest interior a multilocation can hold (X8).
const MaxJunctions = 8

// MultiLocation is a location relative to the chain interpreting it: Parents hops up, then down
// through Interior.
type MultiLocation struct {
	Parents  uint8
	Interior []Junction
}

// Here is the location of the interpreting chain itself.
func Here() MultiLocation { return MultiLocation{} }

// SiblingParachain is {parents: 1, interior: X1(Parachain(id))}.
func SiblingParachain(id uint32) MultiLocation {
	return MultiLocation{Parents: 1, Interior: []Junction{Parachain(id)}}
}

// Validate checks the interior depth.
func (l MultiLocation) Validate() error {
	if len(l.Interior) > MaxJunctions {
		return fmt.Errorf("interior has %d junctions, at most %d allowed", len(l.Interior), MaxJunctions)
	}
	for i, j := range l.Interior {
		if j == nil {
			return fmt.Errorf("junction %d is nil", i)
		}
	}

	return nil
}

// Append returns a copy of l with js appended to its interior.
func (l MultiLocation) Append(js ...Junction) MultiLocation {
	interior := make([]Junction, 0, len(l.Interior)+len(js))
	interior = append(interior, l.Interior...)
	interior = append(interior, js...)

	return MultiLocation{Parents: l.Parents, Interior: interior}
}

func (l MultiLocation) String() string {
	if len(l.Interior) == 0 {
		return fmt.Sprintf("{parents: %d, interior: Here}", l.Parents)
	}
	parts := make([]string, 0, len(l.Interior))
	for _, j := range l.Interior {
		parts = append(parts, j.String())
	}

	return fmt.Sprintf("{parents: %d, interior: X%d(%s)}", l.Parents, len(l.Interior), strings.Join(parts, ", "))
}
