package substrate

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/vedhavyas/go-subkey/v2"

	"github.com/parachain-tools/xcm-automation/xcm"
)

// EncodeAddress renders a 32 byte public key as an SS58 address with the given prefix.
func EncodeAddress(pub []byte, prefix uint16) (string, error) {
	if len(pub) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(pub))
	}

	return subkey.SS58Encode(pub, prefix), nil
}

// DecodeAddress parses an SS58 address into its prefix and public key.
func DecodeAddress(address string) (uint16, []byte, error) {
	prefix, pub, err := subkey.SS58Decode(address)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid SS58 address %q: %w", address, err)
	}

	return prefix, pub, nil
}

// ParseAccount decodes an address of the given kind into raw account bytes: SS58 for substrate
// accounts (0x-prefixed 32 byte hex is accepted too), hex for ethereum accounts.
func ParseAccount(address string, kind xcm.AddressKind) ([]byte, error) {
	address = strings.TrimSpace(address)

	switch kind {
	case xcm.AddressKindSubstrate:
		if strings.HasPrefix(address, "0x") {
			b := common.FromHex(address)
			if len(b) != 32 {
				return nil, fmt.Errorf("invalid account id %q: want 32 bytes, got %d", address, len(b))
			}

			return b, nil
		}
		_, pub, err := DecodeAddress(address)

		return pub, err
	case xcm.AddressKindEthereum:
		if !common.IsHexAddress(address) {
			return nil, fmt.Errorf("invalid ethereum address %q", address)
		}

		return common.HexToAddress(address).Bytes(), nil
	}

	return nil, fmt.Errorf("%w: %d", xcm.ErrUnsupportedAddressKind, uint8(kind))
}

// FormatAccount renders raw account bytes in the address format for kind: SS58 with prefix, or an
// EIP-55 checksummed hex address.
func FormatAccount(account []byte, kind xcm.AddressKind, prefix uint16) (string, error) {
	switch kind {
	case xcm.AddressKindSubstrate:
		return EncodeAddress(account, prefix)
	case xcm.AddressKindEthereum:
		if len(account) != common.AddressLength {
			return "", fmt.Errorf("ethereum account must be %d bytes, got %d", common.AddressLength, len(account))
		}

		return common.BytesToAddress(account).Hex(), nil
	}

	return "", fmt.Errorf("%w: %d", xcm.ErrUnsupportedAddressKind, uint8(kind))
}

// AddressConverter converts addresses for one chain endpoint.
type AddressConverter struct {
	Endpoint ChainEndpoint
}

// ConvertToBytes parses an address of the endpoint's kind.
func (a AddressConverter) ConvertToBytes(address string) ([]byte, error) {
	return ParseAccount(address, a.Endpoint.AddressKind)
}

// ConvertToString renders account bytes in the endpoint's format.
func (a AddressConverter) ConvertToString(account []byte) (string, error) {
	return FormatAccount(account, a.Endpoint.AddressKind, a.Endpoint.SS58Prefix)
}
