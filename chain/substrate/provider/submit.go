package provider

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

// WithFinalization makes SubmitSigned wait for finality instead of block inclusion.
func WithFinalization() func(client *RPCClient) {
	return func(c *RPCClient) { c.waitForFinalization = true }
}

// WithRetryConfig overrides the default retry configuration.
func WithRetryConfig(cfg RetryConfig) func(client *RPCClient) {
	return func(c *RPCClient) { c.RetryConfig = cfg }
}

func (c *RPCClient) sign(ctx context.Context, n *node, call substrate.Call, signer signature.KeyringPair) (types.Extrinsic, error) {
	tc, err := buildCall(n.meta, call)
	if err != nil {
		return types.Extrinsic{}, err
	}

	var nonce uint64
	if err = c.RPC(ctx, &nonce, "system_accountNextIndex", signer.Address); err != nil {
		return types.Extrinsic{}, fmt.Errorf("next nonce of %s: %w", signer.Address, err)
	}

	ext := types.NewExtrinsic(tc)
	err = ext.Sign(signer, types.SignatureOptions{
		BlockHash:          n.genesis,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        n.genesis,
		Nonce:              types.NewUCompactFromUInt(nonce),
		SpecVersion:        n.runtime.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: n.runtime.TransactionVersion,
	})
	if err != nil {
		return types.Extrinsic{}, fmt.Errorf("sign %s: %w", call.Name(), err)
	}

	return ext, nil
}

// SubmitSigned implements substrate.Client. It returns the extrinsic's own events and, when the
// runtime rejected it, a *substrate.DispatchError alongside them.
func (c *RPCClient) SubmitSigned(ctx context.Context, call substrate.Call, signer signature.KeyringPair) (substrate.ExtrinsicResult, error) {
	n, err := c.current(ctx, c.primary())
	if err != nil {
		return substrate.ExtrinsicResult{}, err
	}

	ext, err := c.sign(ctx, n, call, signer)
	if err != nil {
		return substrate.ExtrinsicResult{}, err
	}
	encoded, err := codec.EncodeToHex(ext)
	if err != nil {
		return substrate.ExtrinsicResult{}, fmt.Errorf("encode %s: %w", call.Name(), err)
	}

	sub, err := n.api.RPC.Author.SubmitAndWatchExtrinsic(ext)
	if err != nil {
		return substrate.ExtrinsicResult{}, fmt.Errorf("submit %s: %w", call.Name(), err)
	}
	defer sub.Unsubscribe()

	c.lggr.Infow("Submitted extrinsic", "call", call.Name(), "signer", signer.Address)

	for {
		select {
		case <-ctx.Done():
			return substrate.ExtrinsicResult{}, ctx.Err()
		case err = <-sub.Err():
			return substrate.ExtrinsicResult{}, fmt.Errorf("%w: watching %s: %w", substrate.ErrTransport, call.Name(), err)
		case status := <-sub.Chan():
			switch {
			case status.IsInBlock && !c.waitForFinalization:
				return c.inclusionResult(ctx, n, encoded, status.AsInBlock)
			case status.IsFinalized:
				return c.inclusionResult(ctx, n, encoded, status.AsFinalized)
			case status.IsDropped, status.IsInvalid, status.IsUsurped, status.IsFinalityTimeout:
				return substrate.ExtrinsicResult{}, fmt.Errorf("extrinsic %s was not included: %s", call.Name(), describeStatus(status))
			}
		}
	}
}

func describeStatus(s types.ExtrinsicStatus) string {
	switch {
	case s.IsDropped:
		return "dropped"
	case s.IsInvalid:
		return "invalid"
	case s.IsUsurped:
		return "usurped by " + s.AsUsurped.Hex()
	case s.IsFinalityTimeout:
		return "finality timeout"
	}

	return "unknown"
}

type rawBlock struct {
	Block struct {
		Extrinsics []string `json:"extrinsics"`
	} `json:"block"`
}

// inclusionResult locates the extrinsic in its block and collects the events it emitted.
func (c *RPCClient) inclusionResult(ctx context.Context, n *node, encoded string, blockHash types.Hash) (substrate.ExtrinsicResult, error) {
	res := substrate.ExtrinsicResult{BlockHash: blockHash.Hex()}

	var block rawBlock
	if err := c.RPC(ctx, &block, "chain_getBlock", blockHash.Hex()); err != nil {
		return res, fmt.Errorf("fetch block %s: %w", blockHash.Hex(), err)
	}
	index := -1
	for i, ext := range block.Block.Extrinsics {
		if ext == encoded {
			index = i
			break
		}
	}
	if index < 0 {
		return res, fmt.Errorf("extrinsic not found in block %s", blockHash.Hex())
	}

	events, err := c.eventsAt(ctx, n, blockHash)
	if err != nil {
		return res, err
	}
	for _, ev := range events {
		if ev.ExtrinsicIndex != nil && int(*ev.ExtrinsicIndex) == index {
			res.Events = append(res.Events, ev)
		}
	}

	for _, ev := range res.Events {
		if ev.Is("System", "ExtrinsicFailed") {
			derr := decodeDispatchError(n.meta, ev)
			derr.BlockHash = res.BlockHash

			return res, derr
		}
	}

	return res, nil
}
