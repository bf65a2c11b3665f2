package automation

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/pkg/clock"
	"github.com/parachain-tools/xcm-automation/pkg/logger"
)

// DefaultGracePeriod is added to the time left until execution when waiting for confirmation.
const DefaultGracePeriod = 60 * time.Second

// EventPredicate is an additional condition on a matching event.
type EventPredicate func(ev substrate.Event) bool

// MatchCriteria selects the event confirming an execution.
type MatchCriteria struct {
	Section string
	Method  string
	// Predicates must all hold for the event to match.
	Predicates []EventPredicate
}

// Match returns criteria for section.method with the given predicates.
func Match(section, method string, predicates ...EventPredicate) MatchCriteria {
	return MatchCriteria{Section: section, Method: method, Predicates: predicates}
}

// Matches reports whether ev satisfies the criteria.
func (c MatchCriteria) Matches(ev substrate.Event) bool {
	if !ev.Is(c.Section, c.Method) {
		return false
	}
	for _, p := range c.Predicates {
		if !p(ev) {
			return false
		}
	}

	return true
}

func (c MatchCriteria) String() string {
	return c.Section + "." + c.Method
}

// FieldBytes matches events whose field name holds want, e.g. a message hash or task id.
func FieldBytes(name string, want []byte) EventPredicate {
	return func(ev substrate.Event) bool {
		got, ok := ev.BytesField(name)
		return ok && bytes.Equal(got, want)
	}
}

// FieldUint matches events whose integer field name equals want.
func FieldUint(name string, want *big.Int) EventPredicate {
	return func(ev substrate.Event) bool {
		got, ok := ev.UintField(name)
		return ok && got.Cmp(want) == 0
	}
}

// FieldString matches events whose field name renders as want, ignoring case.
func FieldString(name, want string) EventPredicate {
	return func(ev substrate.Event) bool {
		got, ok := ev.Field(name)
		return ok && strings.EqualFold(fmt.Sprint(got), want)
	}
}

// Confirmation is the event that satisfied a MatchCriteria.
type Confirmation struct {
	Event     substrate.Event
	BlockHash string
}

// ConfirmationTimeout is how long to wait for a task executing at executionTime (unix seconds):
// the time left until execution plus grace. A zero executionTime means as soon as possible. The
// result is not clamped; a non-positive timeout means the deadline has passed.
func ConfirmationTimeout(executionTime uint64, now time.Time, grace time.Duration) time.Duration {
	if executionTime == 0 {
		return grace
	}

	return time.Unix(int64(executionTime), 0).Sub(now) + grace
}

// Waiter watches a chain's events for a confirmation.
type Waiter struct {
	clock clock.Clock
	lggr  logger.Logger
}

// NewWaiter returns a Waiter. A nil clock is the system clock and a nil logger discards.
func NewWaiter(clk clock.Clock, lggr logger.Logger) Waiter {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if lggr == nil {
		lggr = logger.Nop()
	}

	return Waiter{clock: clk, lggr: lggr}
}

// Pending is an active subscription waiting for a matching event. Events arriving between
// Subscribe and Wait are buffered by the subscription and are not missed.
type Pending struct {
	sub      substrate.EventSubscription
	criteria MatchCriteria
	waiter   Waiter
}

// Subscribe starts watching client for criteria. The returned Pending must be consumed with Wait
// or released with Cancel.
func (w Waiter) Subscribe(ctx context.Context, client substrate.Client, criteria MatchCriteria) (*Pending, error) {
	sub, err := client.SubscribeEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe for %s: %w", criteria, err)
	}

	return &Pending{sub: sub, criteria: criteria, waiter: w}, nil
}

// Cancel releases the subscription without waiting.
func (p *Pending) Cancel() {
	p.sub.Unsubscribe()
}

// Wait blocks until a matching event arrives, timeout elapses or ctx is done, and always
// unsubscribes. A timeout is reported as false with a nil error; a non-positive timeout returns
// false immediately without inspecting any event.
func (p *Pending) Wait(ctx context.Context, timeout time.Duration) (Confirmation, bool, error) {
	defer p.sub.Unsubscribe()

	lggr := p.waiter.lggr.With("event", p.criteria.String(), "timeout", timeout)
	if timeout <= 0 {
		lggr.Infow("Confirmation deadline already passed")
		return Confirmation{}, false, nil
	}

	deadline := p.waiter.clock.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return Confirmation{}, false, ctx.Err()
		case <-deadline:
			lggr.Infow("Confirmation timed out")
			return Confirmation{}, false, nil
		case err := <-p.sub.Err():
			return Confirmation{}, false, fmt.Errorf("event subscription for %s: %w", p.criteria, err)
		case batch, ok := <-p.sub.Events():
			if !ok {
				return Confirmation{}, false, fmt.Errorf("%w: event subscription for %s closed", substrate.ErrTransport, p.criteria)
			}
			lggr.Debugw("Received events", "block", batch.BlockHash, "count", len(batch.Events))
			for _, ev := range batch.Events {
				if p.criteria.Matches(ev) {
					lggr.Infow("Confirmation received", "block", batch.BlockHash)
					return Confirmation{Event: ev, BlockHash: batch.BlockHash}, true, nil
				}
			}
		}
	}
}

// Await subscribes to client and waits up to timeout for an event matching criteria. It reports
// whether a match was seen; the subscription is released on every path.
func (w Waiter) Await(ctx context.Context, client substrate.Client, criteria MatchCriteria, timeout time.Duration) (Confirmation, bool, error) {
	if timeout <= 0 {
		w.lggr.Infow("Confirmation deadline already passed", "event", criteria.String(), "timeout", timeout)
		return Confirmation{}, false, nil
	}

	p, err := w.Subscribe(ctx, client, criteria)
	if err != nil {
		return Confirmation{}, false, err
	}

	return p.Wait(ctx, timeout)
}
