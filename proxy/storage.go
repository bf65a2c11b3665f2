package proxy

import (
	"bytes"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/xcm"
)

// Definition is one proxy delegation of an account.
type Definition struct {
	Delegate  []byte
	ProxyType uint8
	Delay     uint32
}

// Matches reports whether d delegates to delegate with proxyType.
func (d Definition) Matches(delegate []byte, proxyType uint8) bool {
	return d.ProxyType == proxyType && bytes.Equal(d.Delegate, delegate)
}

// AccountID32Proxies is the Proxy.Proxies storage value of chains with 32 byte accounts.
type AccountID32Proxies struct {
	Definitions []AccountID32Definition
	Deposit     types.U128
}

// AccountID32Definition is a ProxyDefinition<AccountId32, ProxyType, BlockNumber>.
type AccountID32Definition struct {
	Delegate  types.AccountID
	ProxyType types.U8
	Delay     types.U32
}

// AccountKey20Proxies is the Proxy.Proxies storage value of chains with 20 byte accounts.
type AccountKey20Proxies struct {
	Definitions []AccountKey20Definition
	Deposit     types.U128
}

// AccountKey20Definition is a ProxyDefinition<AccountId20, ProxyType, BlockNumber>.
type AccountKey20Definition struct {
	Delegate  [20]byte
	ProxyType types.U8
	Delay     types.U32
}

// delegations is implemented by both storage shapes.
type delegations interface {
	definitions() []Definition
}

func (p *AccountID32Proxies) definitions() []Definition {
	out := make([]Definition, 0, len(p.Definitions))
	for _, d := range p.Definitions {
		out = append(out, Definition{Delegate: d.Delegate[:], ProxyType: uint8(d.ProxyType), Delay: uint32(d.Delay)})
	}

	return out
}

func (p *AccountKey20Proxies) definitions() []Definition {
	out := make([]Definition, 0, len(p.Definitions))
	for _, d := range p.Definitions {
		out = append(out, Definition{Delegate: d.Delegate[:], ProxyType: uint8(d.ProxyType), Delay: uint32(d.Delay)})
	}

	return out
}

func newDelegations(kind xcm.AddressKind) (delegations, error) {
	switch kind {
	case xcm.AddressKindSubstrate:
		return &AccountID32Proxies{}, nil
	case xcm.AddressKindEthereum:
		return &AccountKey20Proxies{}, nil
	}

	return nil, kind.Validate()
}

// TokenAccount is the orml Tokens.Accounts storage value.
type TokenAccount struct {
	Free     types.U128
	Reserved types.U128
	Frozen   types.U128
}

func u128(v types.U128) *big.Int {
	if v.Int == nil {
		return new(big.Int)
	}

	return new(big.Int).Set(v.Int)
}
