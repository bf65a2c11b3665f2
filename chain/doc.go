/*
Package chain provides the blockchain abstraction shared by the XCM automation components.

A BlockChain is one chain from the network manifest, identified by its key. Chains are built by a
Provider (see chain/substrate/provider) and collected in BlockChains, which is passed to the
components that need more than one chain, e.g. the task orchestrator driving a source chain, the
automation chain and a target chain at once.

	chains := chain.NewBlockChainsFromSlice([]chain.BlockChain{turing, shibuya})

	if !chains.ExistsN("turing-staging", "shibuya") {
		return errors.New("manifest is missing a chain")
	}

	turing, err := chains.SubstrateChain("turing-staging")

Providers own the connection lifecycle:

	p := provider.NewRPCChainProvider(endpoint, provider.RPCChainProviderConfig{
		SignerGen: provider.SignerFromURI("//Alice"),
	})
	bc, err := p.Initialize(ctx)
*/
package chain
