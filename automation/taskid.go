package automation

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
	"golang.org/x/crypto/blake2b"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

// GenerateTaskIDMethod is the automation chain RPC that returns the id it will assign to a task.
const GenerateTaskIDMethod = "automationTime_generateTaskId"

// ErrTaskIDMismatch is returned when the locally derived task id differs from the chain's.
var ErrTaskIDMismatch = errors.New("task id mismatch")

// TaskID is the id the automation pallet assigns to a task: blake2_256 of the SCALE encoded
// (owner, provided id) pair.
type TaskID [32]byte

// GenerateTaskID derives the task id of providedID scheduled by owner.
func GenerateTaskID(owner []byte, providedID string) (TaskID, error) {
	var buf bytes.Buffer
	buf.Write(owner)
	enc := scale.NewEncoder(&buf)
	if err := enc.EncodeUintCompact(*big.NewInt(int64(len(providedID)))); err != nil {
		return TaskID{}, fmt.Errorf("encode provided id: %w", err)
	}
	buf.WriteString(providedID)

	return blake2b.Sum256(buf.Bytes()), nil
}

// ParseTaskID parses a 0x prefixed hex id.
func ParseTaskID(s string) (TaskID, error) {
	var id TaskID
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return id, fmt.Errorf("invalid task id %q: %w", s, err)
	}
	if len(b) != len(id) {
		return id, fmt.Errorf("invalid task id %q: want %d bytes, got %d", s, len(id), len(b))
	}
	copy(id[:], b)

	return id, nil
}

// Hex returns the 0x prefixed hex id.
func (id TaskID) Hex() string {
	return "0x" + hex.EncodeToString(id[:])
}

func (id TaskID) String() string {
	return id.Hex()
}

// IsZero reports whether the id is unset.
func (id TaskID) IsZero() bool {
	return id == TaskID{}
}

// Encode implements scale.Encodeable.
func (id TaskID) Encode(e scale.Encoder) error {
	return e.Write(id[:])
}

// MarshalText renders the id as hex.
func (id TaskID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText parses a hex id.
func (id *TaskID) UnmarshalText(b []byte) error {
	parsed, err := ParseTaskID(string(b))
	if err != nil {
		return err
	}
	*id = parsed

	return nil
}

// TaskIDMismatchError reports a locally derived id that disagrees with the automation chain.
type TaskIDMismatchError struct {
	Local  TaskID
	Remote TaskID
	// Source names where Remote came from: the RPC or the TaskScheduled event.
	Source string
}

func (e *TaskIDMismatchError) Error() string {
	return fmt.Sprintf("%s: derived %s, %s returned %s", ErrTaskIDMismatch, e.Local, e.Source, e.Remote)
}

// Is matches ErrTaskIDMismatch.
func (e *TaskIDMismatchError) Is(target error) bool {
	return target == ErrTaskIDMismatch
}

// VerifyTaskID asks the automation chain for the id of providedID scheduled by owner and compares
// it with expected. owner is rendered in the chain's address format.
func VerifyTaskID(ctx context.Context, client substrate.Client, owner, providedID string, expected TaskID) error {
	var remote string
	if err := client.RPC(ctx, &remote, GenerateTaskIDMethod, owner, providedID); err != nil {
		return fmt.Errorf("%s: %w", GenerateTaskIDMethod, err)
	}
	id, err := ParseTaskID(remote)
	if err != nil {
		return fmt.Errorf("%s: %w", GenerateTaskIDMethod, err)
	}
	if id != expected {
		return &TaskIDMismatchError{Local: expected, Remote: id, Source: GenerateTaskIDMethod}
	}

	return nil
}

// verifyScheduledEvent cross-checks the task_id of an AutomationTime.TaskScheduled event, when the
// extrinsic emitted one with a 32 byte id.
func verifyScheduledEvent(events []substrate.Event, expected TaskID) error {
	for _, ev := range events {
		if !ev.Is("AutomationTime", "TaskScheduled") {
			continue
		}
		raw, ok := ev.BytesField("task_id")
		if !ok || len(raw) != len(expected) {
			return nil
		}
		var got TaskID
		copy(got[:], raw)
		if got != expected {
			return &TaskIDMismatchError{Local: expected, Remote: got, Source: "TaskScheduled event"}
		}
	}

	return nil
}
