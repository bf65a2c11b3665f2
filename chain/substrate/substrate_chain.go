package substrate

import (
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
)

// Family is the chain family of substrate-based chains.
const Family = "substrate"

// Chain is a connected substrate chain: its manifest entry, a client and the account that signs
// extrinsics on it.
type Chain struct {
	Endpoint ChainEndpoint
	Client   Client
	// Signer signs every extrinsic the components submit on this chain.
	Signer signature.KeyringPair
}

// Key returns the manifest key of the chain
func (c Chain) Key() string {
	return c.Endpoint.Key
}

// Name returns the name of the chain
func (c Chain) Name() string {
	return c.Endpoint.Name
}

// String returns chain name and key "<name> (<key>)"
func (c Chain) String() string {
	return fmt.Sprintf("%s (%s)", c.Endpoint.Name, c.Endpoint.Key)
}

// Family returns the family of the chain
func (Chain) Family() string {
	return Family
}

// SignerAddress renders the signer's public key in the chain's address format.
func (c Chain) SignerAddress() (string, error) {
	return FormatAccount(c.Signer.PublicKey, c.Endpoint.AddressKind, c.Endpoint.SS58Prefix)
}
