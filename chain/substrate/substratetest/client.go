// Package substratetest provides an in-memory substrate.Client for tests.
package substratetest

import (
	"context"
	"encoding/hex"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

var _ substrate.Client = (*Client)(nil)

// SubmitHandler reacts to a submitted call. It may mutate the client's storage or emit events.
type SubmitHandler func(c *Client, call substrate.Call, signer signature.KeyringPair) (substrate.ExtrinsicResult, error)

// RPCHandler answers a raw RPC method.
type RPCHandler func(args ...any) (any, error)

// Client is a substrate.Client backed by maps. It is safe for concurrent use.
type Client struct {
	mu        sync.Mutex
	storage   map[string]any
	submitted []substrate.Call
	handlers  map[string]SubmitHandler
	rpcs      map[string]RPCHandler
	subs      map[*subscription]struct{}
	block     int

	// Fee is returned by EstimateFee.
	Fee substrate.FeeInfo
	// SubscribeErr, when set, is returned by SubscribeEvents.
	SubscribeErr error
}

// NewClient returns an empty Client.
func NewClient() *Client {
	return &Client{
		storage:  make(map[string]any),
		handlers: make(map[string]SubmitHandler),
		rpcs:     make(map[string]RPCHandler),
		subs:     make(map[*subscription]struct{}),
	}
}

func storageKey(pallet, item string, keys ...[]byte) string {
	parts := []string{strings.ToLower(pallet), strings.ToLower(item)}
	for _, k := range keys {
		parts = append(parts, hex.EncodeToString(k))
	}

	return strings.Join(parts, "/")
}

// SetStorage sets the value returned by Query for pallet.item at keys.
func (c *Client) SetStorage(pallet, item string, value any, keys ...[]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.storage[storageKey(pallet, item, keys...)] = value
}

// Storage returns the value stored for pallet.item at keys.
func (c *Client) Storage(pallet, item string, keys ...[]byte) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.storage[storageKey(pallet, item, keys...)]

	return v, ok
}

// HandleSubmit registers fn for calls named "Section.method".
func (c *Client) HandleSubmit(name string, fn SubmitHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[strings.ToLower(name)] = fn
}

// HandleRPC registers fn for a raw RPC method.
func (c *Client) HandleRPC(method string, fn RPCHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rpcs[method] = fn
}

// Submitted returns every submitted call in order.
func (c *Client) Submitted() []substrate.Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]substrate.Call(nil), c.submitted...)
}

// SubmittedNamed returns the submitted calls named "Section.method".
func (c *Client) SubmittedNamed(name string) []substrate.Call {
	var out []substrate.Call
	for _, call := range c.Submitted() {
		if strings.EqualFold(call.Name(), name) {
			out = append(out, call)
		}
	}

	return out
}

// SubmitSigned records call and runs its handler, if any.
func (c *Client) SubmitSigned(ctx context.Context, call substrate.Call, signer signature.KeyringPair) (substrate.ExtrinsicResult, error) {
	if err := ctx.Err(); err != nil {
		return substrate.ExtrinsicResult{}, err
	}

	c.mu.Lock()
	c.submitted = append(c.submitted, call)
	h := c.handlers[strings.ToLower(call.Name())]
	c.block++
	hash := fmt.Sprintf("0x%064x", c.block)
	c.mu.Unlock()

	if h == nil {
		return substrate.ExtrinsicResult{BlockHash: hash}, nil
	}

	res, err := h(c, call, signer)
	if res.BlockHash == "" {
		res.BlockHash = hash
	}

	return res, err
}

// Query copies the stored value into out.
func (c *Client) Query(ctx context.Context, pallet, item string, out any, keys ...[]byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	v, ok := c.Storage(pallet, item, keys...)
	if !ok {
		return false, nil
	}

	return true, assign(out, v)
}

// EstimateFee returns Fee.
func (c *Client) EstimateFee(ctx context.Context, _ substrate.Call, _ signature.KeyringPair) (substrate.FeeInfo, error) {
	if err := ctx.Err(); err != nil {
		return substrate.FeeInfo{}, err
	}

	return c.Fee, nil
}

// EncodeCall returns a deterministic stand-in encoding.
func (c *Client) EncodeCall(call substrate.Call) ([]byte, error) {
	return []byte(fmt.Sprintf("%s%v", call.Name(), call.Args)), nil
}

// RPC runs the registered handler for method.
func (c *Client) RPC(ctx context.Context, result any, method string, args ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	h, ok := c.rpcs[method]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: method %s not found", substrate.ErrTransport, method)
	}

	v, err := h(args...)
	if err != nil {
		return err
	}

	return assign(result, v)
}

func assign(out, v any) error {
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Ptr || dst.IsNil() {
		return fmt.Errorf("out must be a non-nil pointer, got %T", out)
	}
	src := reflect.ValueOf(v)
	if !src.Type().AssignableTo(dst.Elem().Type()) {
		return fmt.Errorf("cannot assign %T to %s", v, dst.Elem().Type())
	}
	dst.Elem().Set(src)

	return nil
}
