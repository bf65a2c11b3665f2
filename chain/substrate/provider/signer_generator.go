package provider

import (
	"errors"
	"fmt"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/cosmos/go-bip39"
)

// SignerGenerator produces the keyring pair that signs extrinsics on a chain, rendering its
// address with the chain's SS58 prefix.
type SignerGenerator interface {
	Generate(ss58Prefix uint16) (signature.KeyringPair, error)
}

var (
	_ SignerGenerator = (*signerFromURI)(nil)
	_ SignerGenerator = (*signerFromMnemonic)(nil)
)

// SignerFromURI returns a generator for a secret URI: a dev account ("//Alice"), a 0x-prefixed
// seed, or a phrase with an optional derivation path.
func SignerFromURI(uri string) SignerGenerator {
	return &signerFromURI{uri: uri}
}

type signerFromURI struct {
	uri string
}

// Generate derives the keyring pair from the URI.
func (g *signerFromURI) Generate(ss58Prefix uint16) (signature.KeyringPair, error) {
	if strings.TrimSpace(g.uri) == "" {
		return signature.KeyringPair{}, errors.New("signer URI is empty")
	}

	kp, err := signature.KeyringPairFromSecret(g.uri, ss58Prefix)
	if err != nil {
		return signature.KeyringPair{}, fmt.Errorf("failed to derive signer from URI: %w", err)
	}

	return kp, nil
}

// SignerFromMnemonic returns a generator for a BIP-39 mnemonic and an optional derivation path
// such as "//automation". The mnemonic is validated before any key is derived.
func SignerFromMnemonic(mnemonic, derivationPath string) SignerGenerator {
	return &signerFromMnemonic{mnemonic: mnemonic, path: derivationPath}
}

type signerFromMnemonic struct {
	mnemonic string
	path     string
}

// Generate validates the mnemonic and derives the keyring pair.
func (g *signerFromMnemonic) Generate(ss58Prefix uint16) (signature.KeyringPair, error) {
	mnemonic := strings.Join(strings.Fields(g.mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return signature.KeyringPair{}, errors.New("invalid mnemonic")
	}

	return (&signerFromURI{uri: mnemonic + g.path}).Generate(ss58Prefix)
}
