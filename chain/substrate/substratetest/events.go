package substratetest

import (
	"context"
	"fmt"
	"sync"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

type subscription struct {
	client *Client
	events chan substrate.EventBatch
	errs   chan error
	done   chan struct{}
	once   sync.Once
}

func (s *subscription) Events() <-chan substrate.EventBatch { return s.events }
func (s *subscription) Err() <-chan error                   { return s.errs }

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		s.client.mu.Lock()
		delete(s.client.subs, s)
		s.client.mu.Unlock()
	})
}

// SubscribeEvents returns a subscription fed by Emit.
func (c *Client) SubscribeEvents(ctx context.Context) (substrate.EventSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.SubscribeErr != nil {
		return nil, c.SubscribeErr
	}

	s := &subscription{
		client: c,
		events: make(chan substrate.EventBatch, 64),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.subs[s] = struct{}{}
	c.mu.Unlock()

	return s, nil
}

// Emit delivers events as one block to every active subscription.
func (c *Client) Emit(events ...substrate.Event) {
	c.mu.Lock()
	c.block++
	batch := substrate.EventBatch{BlockHash: fmt.Sprintf("0x%064x", c.block), Events: events}
	subs := make([]*subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		select {
		case s.events <- batch:
		case <-s.done:
		}
	}
}

// FailSubscriptions delivers err to every active subscription.
func (c *Client) FailSubscriptions(err error) {
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, s := range subs {
		select {
		case s.errs <- err:
		default:
		}
	}
}

// ActiveSubscriptions is the number of subscriptions not yet unsubscribed.
func (c *Client) ActiveSubscriptions() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.subs)
}
