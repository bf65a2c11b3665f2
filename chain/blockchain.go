package chain

import (
	"errors"
	"iter"
	"maps"
	"reflect"
	"slices"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

var ErrBlockChainNotFound = errors.New("blockchain not found")

var _ BlockChain = substrate.Chain{}

// BlockChain is an interface that represents a chain known to the manifest.
type BlockChain interface {
	// String returns chain name and key "<name> (<key>)"
	String() string
	// Name returns the name of the chain
	Name() string
	// Key is the manifest key of the chain, e.g. "turing-staging".
	Key() string
	Family() string
}

// BlockChains represents a collection of chains keyed by chain key.
type BlockChains struct {
	chains map[string]BlockChain
}

// NewBlockChains initializes a new BlockChains instance
func NewBlockChains(chains map[string]BlockChain) BlockChains {
	// copy to avoid mutating the caller's map
	copied := make(map[string]BlockChain, len(chains))
	maps.Copy(copied, chains)

	return BlockChains{chains: copied}
}

// NewBlockChainsFromSlice initializes a new BlockChains instance from a slice of BlockChain.
func NewBlockChainsFromSlice(chains []BlockChain) BlockChains {
	chainsMap := make(map[string]BlockChain, len(chains))
	for _, chain := range chains {
		chainsMap[chain.Key()] = chain
	}

	return NewBlockChains(chainsMap)
}

// GetByKey returns a blockchain by its key.
func (b BlockChains) GetByKey(key string) (BlockChain, error) {
	if chain, ok := b.chains[key]; ok {
		return chain, nil
	}

	return nil, ErrBlockChainNotFound
}

// Exists checks if a chain with the given key exists.
func (b BlockChains) Exists(key string) bool {
	_, ok := b.chains[key]

	return ok
}

// ExistsN checks if all chains with the given keys exist.
func (b BlockChains) ExistsN(keys ...string) bool {
	for _, key := range keys {
		if !b.Exists(key) {
			return false
		}
	}

	return true
}

// All returns an iterator over all chains with their keys.
func (b BlockChains) All() iter.Seq2[string, BlockChain] {
	return maps.All(b.chains)
}

// SubstrateChains returns a map of all substrate chains with their keys.
func (b BlockChains) SubstrateChains() map[string]substrate.Chain {
	return getChainsByType[substrate.Chain, *substrate.Chain](b)
}

// SubstrateChain returns the substrate chain with the given key.
func (b BlockChains) SubstrateChain(key string) (substrate.Chain, error) {
	c, ok := b.SubstrateChains()[key]
	if !ok {
		return substrate.Chain{}, ErrBlockChainNotFound
	}

	return c, nil
}

// ChainKeysOption defines a function type for configuring ListChainKeys
type ChainKeysOption func(*chainKeysOptions)

type chainKeysOptions struct {
	includedFamilies map[string]struct{}
	excludedKeys     map[string]struct{}
}

// WithFamily returns an option to filter chains by family.
// This can be used more than once to include multiple families.
func WithFamily(family string) ChainKeysOption {
	return func(o *chainKeysOptions) {
		if o.includedFamilies == nil {
			o.includedFamilies = make(map[string]struct{})
		}
		o.includedFamilies[family] = struct{}{}
	}
}

// WithKeysExclusion returns an option to exclude specific chain keys
func WithKeysExclusion(keys []string) ChainKeysOption {
	return func(o *chainKeysOptions) {
		if o.excludedKeys == nil {
			o.excludedKeys = make(map[string]struct{})
		}
		for _, key := range keys {
			o.excludedKeys[key] = struct{}{}
		}
	}
}

// ListChainKeys returns all chain keys, sorted, with optional filtering
func (b BlockChains) ListChainKeys(options ...ChainKeysOption) []string {
	opts := chainKeysOptions{}
	for _, option := range options {
		option(&opts)
	}

	keys := make([]string, 0, len(b.chains))
	for key, chain := range b.chains {
		if _, excluded := opts.excludedKeys[key]; excluded {
			continue
		}
		if opts.includedFamilies != nil {
			if _, ok := opts.includedFamilies[chain.Family()]; !ok {
				continue
			}
		}
		keys = append(keys, key)
	}
	slices.Sort(keys)

	return keys
}

// getChainsByType extracts chains of a specific type, accepting both value (VT) and pointer (PT)
// entries.
func getChainsByType[VT any, PT any](b BlockChains) map[string]VT {
	chains := make(map[string]VT, len(b.chains))
	for key, chain := range b.chains {
		switch c := any(chain).(type) {
		case VT:
			chains[key] = c
		case PT:
			val := reflect.ValueOf(c)
			if val.Kind() == reflect.Ptr && !val.IsNil() {
				if v, ok := val.Elem().Interface().(VT); ok {
					chains[key] = v
				}
			}
		}
	}

	return chains
}
