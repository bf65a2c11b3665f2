// Package notify publishes task lifecycle transitions.
package notify

import (
	"context"
	"strings"
	"sync"
	"time"
)

// SubjectPrefix prefixes every transition subject: xcm.automation.task.<state>.
const SubjectPrefix = "xcm.automation.task"

// Transition is a task moving from one lifecycle state to the next.
type Transition struct {
	ChainKey   string    `json:"chainKey"`
	TaskID     string    `json:"taskId"`
	ProvidedID string    `json:"providedId"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	BlockHash  string    `json:"blockHash,omitempty"`
	Error      string    `json:"error,omitempty"`
	At         time.Time `json:"at"`
}

// Subject is the subject the transition is published on.
func (t Transition) Subject() string {
	return SubjectPrefix + "." + strings.ToLower(t.To)
}

// Publisher delivers transitions to subscribers.
type Publisher interface {
	Publish(ctx context.Context, t Transition) error
	Close() error
}

// Nop discards every transition.
type Nop struct{}

var _ Publisher = Nop{}

func (Nop) Publish(context.Context, Transition) error { return nil }
func (Nop) Close() error                              { return nil }

// Recorder keeps published transitions in memory.
type Recorder struct {
	mu          sync.Mutex
	transitions []Transition
}

var _ Publisher = (*Recorder)(nil)

// Publish records t.
func (r *Recorder) Publish(_ context.Context, t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transitions = append(r.transitions, t)

	return nil
}

// Close is a no-op.
func (r *Recorder) Close() error { return nil }

// Transitions returns the recorded transitions in order.
func (r *Recorder) Transitions() []Transition {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Transition(nil), r.transitions...)
}

// States returns the To state of every recorded transition.
func (r *Recorder) States() []string {
	ts := r.Transitions()
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.To
	}

	return out
}
