package chain

import "context"

// Provider is an interface for blockchain providers that can initialize a blockchain instance.
type Provider interface {
	Initialize(ctx context.Context) (BlockChain, error)
	Name() string
	ChainKey() string
	BlockChain() BlockChain
}
