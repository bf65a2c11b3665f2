package xcm

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// ErrUnsupportedAddressKind is returned for an address kind other than Substrate or Ethereum.
var ErrUnsupportedAddressKind = errors.New("unsupported address kind")

// AddressKind selects the account junction a chain's accounts are expressed with. The zero value
// is invalid so that an unset kind is reported instead of assumed.
type AddressKind uint8

const (
	// AddressKindSubstrate accounts are 32 byte AccountId32 junctions.
	AddressKindSubstrate AddressKind = iota + 1
	// AddressKindEthereum accounts are 20 byte AccountKey20 junctions.
	AddressKindEthereum
)

// ParseAddressKind parses "substrate" or "ethereum".
func ParseAddressKind(s string) (AddressKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "substrate", "sr25519", "ss58":
		return AddressKindSubstrate, nil
	case "ethereum", "evm", "eth":
		return AddressKindEthereum, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAddressKind, s)
}

func (k AddressKind) String() string {
	switch k {
	case AddressKindSubstrate:
		return "substrate"
	case AddressKindEthereum:
		return "ethereum"
	}

	return fmt.Sprintf("AddressKind(%d)", uint8(k))
}

// Validate reports whether k is a known kind.
func (k AddressKind) Validate() error {
	switch k {
	case AddressKindSubstrate, AddressKindEthereum:
		return nil
	}

	return fmt.Errorf("%w: %d", ErrUnsupportedAddressKind, uint8(k))
}

// AccountJunction wraps account bytes in the junction matching kind.
func AccountJunction(kind AddressKind, network NetworkID, account []byte) (Junction, error) {
	switch kind {
	case AddressKindSubstrate:
		return NewAccountID32(network, account)
	case AddressKindEthereum:
		return NewAccountKey20(network, account)
	}

	return nil, fmt.Errorf("%w: %d", ErrUnsupportedAddressKind, uint8(kind))
}

// DeriveOptions parameterise DeriveAccount.
type DeriveOptions struct {
	AddressKind AddressKind
	Version     Version
	Network     NetworkID
}

// DerivedAccount is the account a destination chain assigns to a remote origin.
type DerivedAccount struct {
	// Location is the origin as seen from the destination.
	Location MultiLocation
	// AccountID32 is the full hash, used as the account on substrate chains.
	AccountID32 [32]byte
	// AccountKey20 is the hash truncated to 20 bytes, used on EVM-style chains.
	AccountKey20 [20]byte
}

// derivationPrefix is the SCALE encoding of the string "multiloc": compact length 8 (0x20)
// followed by the bytes.
var derivationPrefix = append([]byte{0x20}, "multiloc"...)

// DeriveAccount computes the account that a destination chain derives for beneficiary on
// parachain sourceParaID. The origin is {parents: 1, interior: X2(Parachain, account)}.
func DeriveAccount(sourceParaID uint32, beneficiary []byte, opts DeriveOptions) (DerivedAccount, error) {
	if err := opts.AddressKind.Validate(); err != nil {
		return DerivedAccount{}, err
	}
	account, err := AccountJunction(opts.AddressKind, opts.Network, beneficiary)
	if err != nil {
		return DerivedAccount{}, err
	}

	loc := SiblingParachain(sourceParaID).Append(account)

	return DeriveLocation(loc, opts.Version)
}

// DeriveLocation hashes an arbitrary origin location encoded in version v.
func DeriveLocation(loc MultiLocation, v Version) (DerivedAccount, error) {
	encoded, err := EncodeLocation(v, loc)
	if err != nil {
		return DerivedAccount{}, fmt.Errorf("encode origin %s: %w", loc, err)
	}

	preimage := make([]byte, 0, len(derivationPrefix)+len(encoded))
	preimage = append(preimage, derivationPrefix...)
	preimage = append(preimage, encoded...)

	d := DerivedAccount{Location: loc, AccountID32: blake2b.Sum256(preimage)}
	copy(d.AccountKey20[:], d.AccountID32[:20])

	return d, nil
}

// Bytes returns the account id for kind: 32 bytes for substrate, 20 for ethereum.
func (d DerivedAccount) Bytes(kind AddressKind) []byte {
	if kind == AddressKindEthereum {
		return d.AccountKey20[:]
	}

	return d.AccountID32[:]
}
