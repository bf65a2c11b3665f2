package substrate

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/xcm"
)

// LookupArg returns account as a call argument of type AccountIdLookupOf: a MultiAddress::Id on
// substrate chains, the bare 20 byte key on ethereum-style chains.
func LookupArg(kind xcm.AddressKind, account []byte) (any, error) {
	switch kind {
	case xcm.AddressKindSubstrate:
		addr, err := types.NewMultiAddressFromAccountID(account)
		if err != nil {
			return nil, fmt.Errorf("account lookup: %w", err)
		}

		return addr, nil
	case xcm.AddressKindEthereum:
		return accountKey20(account)
	}

	return nil, fmt.Errorf("%w: %d", xcm.ErrUnsupportedAddressKind, uint8(kind))
}

// AccountArg returns account as a call argument of type AccountId.
func AccountArg(kind xcm.AddressKind, account []byte) (any, error) {
	switch kind {
	case xcm.AddressKindSubstrate:
		if len(account) != 32 {
			return nil, fmt.Errorf("account id must be 32 bytes, got %d", len(account))
		}
		var id types.AccountID
		copy(id[:], account)

		return id, nil
	case xcm.AddressKindEthereum:
		return accountKey20(account)
	}

	return nil, fmt.Errorf("%w: %d", xcm.ErrUnsupportedAddressKind, uint8(kind))
}

func accountKey20(account []byte) ([20]byte, error) {
	var key [20]byte
	if len(account) != len(key) {
		return key, fmt.Errorf("account key must be 20 bytes, got %d", len(account))
	}
	copy(key[:], account)

	return key, nil
}
