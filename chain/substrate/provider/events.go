package provider

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/centrifuge/go-substrate-rpc-client/v4/registry/parser"
	"github.com/centrifuge/go-substrate-rpc-client/v4/rpc/state"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

func (c *RPCClient) eventsAt(ctx context.Context, n *node, blockHash types.Hash) ([]substrate.Event, error) {
	key, err := types.CreateStorageKey(n.meta, "System", "Events")
	if err != nil {
		return nil, fmt.Errorf("events storage key: %w", err)
	}

	raw, err := withContext(ctx, func() (*types.StorageDataRaw, error) {
		return n.api.RPC.State.GetStorageRaw(key, blockHash)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: events at %s: %w", substrate.ErrTransport, blockHash.Hex(), err)
	}

	return decodeEvents(n, raw)
}

func decodeEvents(n *node, raw *types.StorageDataRaw) ([]substrate.Event, error) {
	if n.events == nil {
		return nil, fmt.Errorf("no event registry for %s", n.url)
	}
	parsed, err := parser.NewEventParser().ParseEvents(n.events, raw)
	if err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	return convertEvents(parsed), nil
}

// convertEvents maps parsed events to substrate.Event. Unnamed fields are keyed by position.
func convertEvents(parsed []*parser.Event) []substrate.Event {
	out := make([]substrate.Event, 0, len(parsed))
	for _, ev := range parsed {
		if ev == nil {
			continue
		}
		section, method, _ := strings.Cut(ev.Name, ".")

		fields := make(map[string]any, len(ev.Fields))
		for i, f := range ev.Fields {
			if f == nil {
				continue
			}
			name := f.Name
			if _, dup := fields[name]; name == "" || dup {
				name = strconv.Itoa(i)
			}
			fields[name] = f.Value
		}

		var idx *uint32
		if ev.Phase != nil && ev.Phase.IsApplyExtrinsic {
			v := ev.Phase.AsApplyExtrinsic
			idx = &v
		}

		out = append(out, substrate.Event{Section: section, Method: method, Fields: fields, ExtrinsicIndex: idx})
	}

	return out
}

type eventSubscription struct {
	events chan substrate.EventBatch
	errs   chan error
	done   chan struct{}
	once   sync.Once
	sub    *state.StorageSubscription
}

func (s *eventSubscription) Events() <-chan substrate.EventBatch { return s.events }
func (s *eventSubscription) Err() <-chan error                   { return s.errs }

func (s *eventSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.sub.Unsubscribe()
	})
}

// SubscribeEvents implements substrate.Client by watching the System.Events storage item.
func (c *RPCClient) SubscribeEvents(ctx context.Context) (substrate.EventSubscription, error) {
	n := c.primary()
	key, err := types.CreateStorageKey(n.meta, "System", "Events")
	if err != nil {
		return nil, fmt.Errorf("events storage key: %w", err)
	}

	sub, err := withContext(ctx, func() (*state.StorageSubscription, error) {
		return n.api.RPC.State.SubscribeStorageRaw([]types.StorageKey{key})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe to events: %w", substrate.ErrTransport, err)
	}

	s := &eventSubscription{
		events: make(chan substrate.EventBatch, 16),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
		sub:    sub,
	}
	go c.pump(n, s)

	return s, nil
}

func (c *RPCClient) pump(n *node, s *eventSubscription) {
	for {
		select {
		case <-s.done:
			return
		case err := <-s.sub.Err():
			s.errs <- fmt.Errorf("%w: event subscription: %w", substrate.ErrTransport, err)
			return
		case set := <-s.sub.Chan():
			for _, change := range set.Changes {
				if !change.HasStorageData {
					continue
				}
				raw := change.StorageData
				events, err := decodeEvents(n, &raw)
				if err != nil {
					c.lggr.Warnw("Skipping undecodable event batch", "chain", c.chainKey, "block", set.Block.Hex(), "error", err)
					continue
				}
				c.lggr.Debugw("Received events", "chain", c.chainKey, "block", set.Block.Hex(), "count", len(events))

				select {
				case s.events <- substrate.EventBatch{BlockHash: set.Block.Hex(), Events: events}:
				case <-s.done:
					return
				}
			}
		}
	}
}
