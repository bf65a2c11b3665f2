package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/parachain-tools/xcm-automation/chain"
	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

// RPCChainProviderConfig holds the configuration to initialize the RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: A generator for the signer. Use SignerFromURI for dev accounts and raw seeds, or
	// SignerFromMnemonic for a validated BIP-39 phrase.
	SignerGen SignerGenerator
	// Optional: ClientOpts are applied to the RPCClient, e.g. WithRetryConfig or WithFinalization.
	ClientOpts []func(client *RPCClient)
	// Optional: Logger is the logger to use for the RPCChainProvider. If not provided, a default
	// logger will be used.
	Logger logger.Logger
}

// validate checks if the RPCChainProviderConfig is valid.
func (c RPCChainProviderConfig) validate() error {
	if c.SignerGen == nil {
		return errors.New("signer generator is required")
	}

	return nil
}

var _ chain.Provider = (*RPCChainProvider)(nil)

// RPCChainProvider is a chain provider that connects to a substrate node over WebSocket RPC.
type RPCChainProvider struct {
	endpoint substrate.ChainEndpoint
	config   RPCChainProviderConfig

	chain *substrate.Chain
}

// NewRPCChainProvider creates a new RPCChainProvider for the given endpoint.
func NewRPCChainProvider(endpoint substrate.ChainEndpoint, config RPCChainProviderConfig) *RPCChainProvider {
	return &RPCChainProvider{
		endpoint: endpoint,
		config:   config,
	}
}

// Initialize connects to the chain and derives the signer. It returns the initialized
// chain.BlockChain or an error if initialization fails.
func (p *RPCChainProvider) Initialize(ctx context.Context) (chain.BlockChain, error) {
	if p.chain != nil {
		return *p.chain, nil // Already initialized
	}

	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}

	if err := p.config.validate(); err != nil {
		return nil, fmt.Errorf("failed to validate provider config: %w", err)
	}
	if err := p.endpoint.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate chain endpoint: %w", err)
	}

	signer, err := p.config.SignerGen.Generate(p.endpoint.SS58Prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signer: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	client, err := NewRPCClient(p.config.Logger.Named(p.endpoint.Key), p.endpoint, p.config.ClientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc client: %w", err)
	}

	p.chain = &substrate.Chain{
		Endpoint: p.endpoint,
		Client:   client,
		Signer:   signer,
	}

	return *p.chain, nil
}

// Name returns the name of the RPCChainProvider.
func (*RPCChainProvider) Name() string {
	return "Substrate RPC Chain Provider"
}

// ChainKey returns the manifest key of the chain managed by this provider.
func (p *RPCChainProvider) ChainKey() string {
	return p.endpoint.Key
}

// BlockChain returns the chain instance managed by this provider. You must call Initialize
// before using this method to ensure the chain is properly set up.
func (p *RPCChainProvider) BlockChain() chain.BlockChain {
	return *p.chain
}
