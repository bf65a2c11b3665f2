package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/registry"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types/codec"
	"github.com/google/uuid"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
	"github.com/parachain-tools/xcm-automation/weight"
)

const (
	// Default retry configuration for RPC calls
	RPCDefaultRetryAttempts = 1
	RPCDefaultRetryDelay    = 1000 * time.Millisecond
	RPCDefaultRetryTimeout  = 30 * time.Second

	// Default retry configuration for dialing RPC endpoints
	RPCDefaultDialRetryAttempts = 2
	RPCDefaultDialRetryDelay    = 1000 * time.Millisecond
	RPCDefaultDialTimeout       = 15 * time.Second

	// Default timeout for health checks
	RPCDefaultHealthCheckTimeout = 5 * time.Second
)

type RetryConfig struct {
	Attempts     uint
	Delay        time.Duration
	Timeout      time.Duration
	DialAttempts uint
	DialDelay    time.Duration
	DialTimeout  time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:     RPCDefaultRetryAttempts,
		Delay:        RPCDefaultRetryDelay,
		Timeout:      RPCDefaultRetryTimeout,
		DialAttempts: RPCDefaultDialRetryAttempts,
		DialDelay:    RPCDefaultDialRetryDelay,
		DialTimeout:  RPCDefaultDialTimeout,
	}
}

var _ substrate.Client = (*RPCClient)(nil)

// node is one connected endpoint with the runtime constants needed to sign for it.
type node struct {
	url     string
	api     *gsrpc.SubstrateAPI
	meta    *types.Metadata
	genesis types.Hash
	runtime *types.RuntimeVersion
	events  registry.EventRegistry
}

// RPCClient is a substrate.Client over one or more WebSocket endpoints of the same chain. Reads
// fail over to backup endpoints; submissions and subscriptions use the first healthy one.
type RPCClient struct {
	RetryConfig RetryConfig

	lggr                logger.Logger
	chainKey            string
	waitForFinalization bool
	mu                  sync.RWMutex
	nodes               []*node
}

// NewRPCClient dials every endpoint, keeping those that pass a health check.
func NewRPCClient(lggr logger.Logger, endpoint substrate.ChainEndpoint, opts ...func(client *RPCClient)) (*RPCClient, error) {
	if len(endpoint.Endpoints) == 0 {
		return nil, errors.New("no endpoints provided, need at least one")
	}

	c := &RPCClient{lggr: lggr, chainKey: endpoint.Key, RetryConfig: defaultRetryConfig()}
	for _, opt := range opts {
		opt(c)
	}

	for i, url := range endpoint.Endpoints {
		n, err := c.dialWithRetry(url)
		if err != nil {
			lggr.Warnf("failed to dial endpoint %d '%s' for chain %q, trying with the next one: %v", i, url, c.chainKey, err)
			continue
		}
		c.nodes = append(c.nodes, n)
	}

	if len(c.nodes) == 0 {
		return nil, fmt.Errorf("%w: no healthy endpoint for chain %q", substrate.ErrTransport, c.chainKey)
	}

	return c, nil
}

func (c *RPCClient) dialWithRetry(url string) (*node, error) {
	traceID := uuid.New()
	var n *node

	err := retry.Do(func() error {
		c.lggr.Debugf("traceID %q: chain %q: dialing endpoint '%s'", traceID.String(), c.chainKey, url)

		ctx, cancel := context.WithTimeout(context.Background(), c.RetryConfig.DialTimeout)
		defer cancel()

		var err error
		n, err = withContext(ctx, func() (*node, error) { return dial(url) })
		if err != nil {
			c.lggr.Warnf("traceID %q: chain %q: dialing '%s' failed - retryable error: %v", traceID.String(), c.chainKey, url, err)
		}

		return err
	}, retry.Attempts(c.RetryConfig.DialAttempts), retry.Delay(c.RetryConfig.DialDelay))

	return n, err
}

// dial connects and loads the constants used for signing; a successful load doubles as the
// health check.
func dial(url string) (*node, error) {
	api, err := gsrpc.NewSubstrateAPI(url)
	if err != nil {
		return nil, err
	}
	meta, err := api.RPC.State.GetMetadataLatest()
	if err != nil {
		api.Client.Close()
		return nil, fmt.Errorf("health check failed: metadata: %w", err)
	}
	genesis, err := api.RPC.Chain.GetBlockHash(0)
	if err != nil {
		api.Client.Close()
		return nil, fmt.Errorf("health check failed: genesis hash: %w", err)
	}
	rv, err := api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		api.Client.Close()
		return nil, fmt.Errorf("health check failed: runtime version: %w", err)
	}

	events, err := registry.NewFactory().CreateEventRegistry(meta)
	if err != nil {
		api.Client.Close()
		return nil, fmt.Errorf("event registry: %w", err)
	}

	return &node{url: url, api: api, meta: meta, genesis: genesis, runtime: rv, events: events}, nil
}

// withContext runs fn, returning early with ctx's error when ctx ends first. go-substrate-rpc-client
// calls take no context.
func withContext[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// current returns n, or a copy of n with reloaded metadata when the runtime was upgraded since n
// loaded it. The copy replaces n in the endpoint list.
func (c *RPCClient) current(ctx context.Context, n *node) (*node, error) {
	rv, err := withContext(ctx, func() (*types.RuntimeVersion, error) { return n.api.RPC.State.GetRuntimeVersionLatest() })
	if err != nil {
		return nil, fmt.Errorf("%w: runtime version: %w", substrate.ErrTransport, err)
	}
	if !runtimeUpgraded(n.runtime, rv) {
		return n, nil
	}

	meta, err := withContext(ctx, func() (*types.Metadata, error) { return n.api.RPC.State.GetMetadataLatest() })
	if err != nil {
		return nil, fmt.Errorf("%w: metadata: %w", substrate.ErrTransport, err)
	}
	events, err := registry.NewFactory().CreateEventRegistry(meta)
	if err != nil {
		return nil, fmt.Errorf("event registry: %w", err)
	}

	fresh := &node{url: n.url, api: n.api, meta: meta, genesis: n.genesis, runtime: rv, events: events}
	c.replace(n, fresh)
	c.lggr.Infof("chain %q: runtime upgraded from spec version %d to %d on '%s'", c.chainKey, n.runtime.SpecVersion, rv.SpecVersion, n.url)

	return fresh, nil
}

func runtimeUpgraded(loaded, latest *types.RuntimeVersion) bool {
	return loaded.SpecVersion != latest.SpecVersion || loaded.TransactionVersion != latest.TransactionVersion
}

func (c *RPCClient) replace(old, fresh *node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.nodes {
		if existing == old {
			c.nodes[i] = fresh
			return
		}
	}
}

func (c *RPCClient) primary() *node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.nodes[0]
}

func (c *RPCClient) snapshot() []*node {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]*node(nil), c.nodes...)
}

// promote moves the node that just served a request to the front.
func (c *RPCClient) promote(n *node) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, existing := range c.nodes {
		if existing == n && i > 0 {
			c.nodes[0], c.nodes[i] = c.nodes[i], c.nodes[0]
			c.lggr.Infof("chain %q: promoted endpoint '%s' to primary", c.chainKey, n.url)

			return
		}
	}
}

func (c *RPCClient) retryWithBackups(ctx context.Context, opName string, op func(n *node) error) error {
	var err error
	traceID := uuid.New()

	for idx, n := range c.snapshot() {
		retryCount := 0
		err2 := retry.Do(func() error {
			timeoutCtx, cancel := context.WithTimeout(ctx, c.RetryConfig.Timeout)
			defer cancel()

			_, err = withContext(timeoutCtx, func() (struct{}, error) { return struct{}{}, op(n) })
			if err != nil {
				c.lggr.Warnf("traceID %q: chain %q: op: %q: endpoint index %d: failed execution - retryable error '%v'", traceID.String(), c.chainKey, opName, idx, err)
				return err
			}
			c.promote(n)

			return nil
		}, retry.Context(ctx), retry.Attempts(c.RetryConfig.Attempts), retry.Delay(c.RetryConfig.Delay),
			retry.OnRetry(func(uint, error) { retryCount++ }))
		if err2 == nil {
			if retryCount > 0 {
				c.lggr.Infof("traceID %q: chain %q: op: %q: endpoint index %d: successfully executed after %d retry", traceID.String(), c.chainKey, opName, idx, retryCount)
			}

			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.lggr.Infof("traceID %q: chain %q: op: %q: endpoint index %d: failed, trying next endpoint", traceID.String(), c.chainKey, opName, idx)
	}

	return fmt.Errorf("%w: all endpoints failed for chain %q: %w", substrate.ErrTransport, c.chainKey, err)
}

// Query implements substrate.Client.
func (c *RPCClient) Query(ctx context.Context, pallet, item string, out any, keys ...[]byte) (bool, error) {
	key, err := types.CreateStorageKey(c.primary().meta, pallet, item, keys...)
	if err != nil {
		return false, fmt.Errorf("storage key %s.%s: %w", pallet, item, err)
	}

	var found bool
	err = c.retryWithBackups(ctx, "Query "+pallet+"."+item, func(n *node) error {
		var qerr error
		found, qerr = n.api.RPC.State.GetStorageLatest(key, out)

		return qerr
	})

	return found, err
}

// RPC implements substrate.Client.
func (c *RPCClient) RPC(ctx context.Context, result any, method string, args ...any) error {
	return c.retryWithBackups(ctx, method, func(n *node) error {
		return n.api.Client.Call(result, method, args...)
	})
}

// EncodeCall implements substrate.Client.
func (c *RPCClient) EncodeCall(call substrate.Call) ([]byte, error) {
	tc, err := buildCall(c.primary().meta, call)
	if err != nil {
		return nil, err
	}

	return codec.Encode(tc)
}

type runtimeDispatchInfo struct {
	Weight     json.RawMessage `json:"weight"`
	Class      string          `json:"class"`
	PartialFee json.RawMessage `json:"partialFee"`
}

// EstimateFee implements substrate.Client using payment_queryInfo.
func (c *RPCClient) EstimateFee(ctx context.Context, call substrate.Call, signer signature.KeyringPair) (substrate.FeeInfo, error) {
	n := c.primary()
	ext, err := c.sign(ctx, n, call, signer)
	if err != nil {
		return substrate.FeeInfo{}, err
	}
	encoded, err := codec.EncodeToHex(ext)
	if err != nil {
		return substrate.FeeInfo{}, fmt.Errorf("encode extrinsic: %w", err)
	}

	var info runtimeDispatchInfo
	if err = c.RPC(ctx, &info, "payment_queryInfo", encoded); err != nil {
		return substrate.FeeInfo{}, err
	}

	return info.toFeeInfo()
}

func (i runtimeDispatchInfo) toFeeInfo() (substrate.FeeInfo, error) {
	w, err := parseWeight(i.Weight)
	if err != nil {
		return substrate.FeeInfo{}, err
	}
	fee, err := parseNumber(i.PartialFee)
	if err != nil {
		return substrate.FeeInfo{}, fmt.Errorf("partial fee: %w", err)
	}

	return substrate.FeeInfo{Weight: w, PartialFee: fee, Class: i.Class}, nil
}

// parseWeight accepts a V1 scalar weight or a V2 {ref_time, proof_size} object.
func parseWeight(raw json.RawMessage) (weight.Weight, error) {
	if len(raw) == 0 {
		return weight.Zero(), nil
	}
	if raw[0] != '{' {
		rt, err := parseNumber(raw)
		if err != nil {
			return weight.Weight{}, fmt.Errorf("weight: %w", err)
		}

		return weight.FromBig(rt, new(big.Int)), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return weight.Weight{}, fmt.Errorf("weight: %w", err)
	}
	pick := func(names ...string) (*big.Int, error) {
		for _, name := range names {
			if v, ok := fields[name]; ok {
				return parseNumber(v)
			}
		}

		return new(big.Int), nil
	}
	rt, err := pick("ref_time", "refTime")
	if err != nil {
		return weight.Weight{}, fmt.Errorf("weight ref time: %w", err)
	}
	ps, err := pick("proof_size", "proofSize")
	if err != nil {
		return weight.Weight{}, fmt.Errorf("weight proof size: %w", err)
	}

	return weight.FromBig(rt, ps), nil
}

// parseNumber accepts a JSON number or a decimal / 0x-hex string.
func parseNumber(raw json.RawMessage) (*big.Int, error) {
	if len(raw) == 0 {
		return new(big.Int), nil
	}
	s := strings.Trim(string(raw), `"`)
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid number %s", raw)
	}

	return n, nil
}

// buildCall resolves call against the runtime metadata. Args that are themselves calls, or slices
// of calls, are resolved recursively.
func buildCall(meta *types.Metadata, call substrate.Call) (types.Call, error) {
	args := make([]any, len(call.Args))
	for i, arg := range call.Args {
		switch a := arg.(type) {
		case substrate.Call:
			nested, err := buildCall(meta, a)
			if err != nil {
				return types.Call{}, err
			}
			args[i] = nested
		case []substrate.Call:
			nested := make([]types.Call, len(a))
			for j, inner := range a {
				tc, err := buildCall(meta, inner)
				if err != nil {
					return types.Call{}, err
				}
				nested[j] = tc
			}
			args[i] = nested
		default:
			args[i] = arg
		}
	}

	tc, err := types.NewCall(meta, call.Name(), args...)
	if err != nil {
		return types.Call{}, fmt.Errorf("build call %s: %w", call.Name(), err)
	}

	return tc, nil
}

// Close closes every endpoint connection.
func (c *RPCClient) Close() {
	for _, n := range c.snapshot() {
		n.api.Client.Close()
	}
}
