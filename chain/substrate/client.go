package substrate

import (
	"context"
	"errors"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"

	"github.com/parachain-tools/xcm-automation/weight"
)

// ErrTransport wraps connection failures: the node could not be reached or dropped the
// connection. They are fatal to the calling operation.
var ErrTransport = errors.New("substrate transport error")

// Call is a runtime call by pallet and function name, e.g. {"Proxy", "add_proxy", args}. Args are
// SCALE encodable values; an Arg that is itself a Call is encoded as a nested call.
type Call struct {
	Section string
	Method  string
	Args    []any
}

// NewCall returns a Call.
func NewCall(section, method string, args ...any) Call {
	return Call{Section: section, Method: method, Args: args}
}

// Name is "Section.method".
func (c Call) Name() string {
	return c.Section + "." + c.Method
}

// ExtrinsicResult is the outcome of an included extrinsic.
type ExtrinsicResult struct {
	BlockHash string
	// Events are the events emitted by the extrinsic.
	Events []Event
}

// FeeInfo is a dry-run estimate.
type FeeInfo struct {
	Weight     weight.Weight
	PartialFee *big.Int
	Class      string
}

// EventBatch holds the events of one block.
type EventBatch struct {
	BlockHash string
	Events    []Event
}

// EventSubscription delivers event batches until Unsubscribe is called. Unsubscribe is safe to
// call more than once.
type EventSubscription interface {
	Events() <-chan EventBatch
	// Err delivers at most one error, after which no more batches arrive.
	Err() <-chan error
	Unsubscribe()
}

// Client is the set of node capabilities the automation components rely on. Implementations wrap
// transport failures in ErrTransport and return *DispatchError when an included extrinsic failed.
type Client interface {
	// SubmitSigned signs and submits call, waiting until it is included in a block.
	SubmitSigned(ctx context.Context, call Call, signer signature.KeyringPair) (ExtrinsicResult, error)
	// Query reads storage item pallet.item at the given SCALE encoded keys into out. It reports
	// false when the entry does not exist, leaving out untouched.
	Query(ctx context.Context, pallet, item string, out any, keys ...[]byte) (bool, error)
	// SubscribeEvents subscribes to the events of every new block.
	SubscribeEvents(ctx context.Context) (EventSubscription, error)
	// EstimateFee dry-runs call signed by signer.
	EstimateFee(ctx context.Context, call Call, signer signature.KeyringPair) (FeeInfo, error)
	// EncodeCall returns the SCALE encoding of call for this chain's runtime.
	EncodeCall(call Call) ([]byte, error)
	// RPC invokes a raw JSON-RPC method.
	RPC(ctx context.Context, result any, method string, args ...any) error
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}
