package automation

import (
	"errors"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/weight"
	"github.com/parachain-tools/xcm-automation/xcm"
)

const pallet = "AutomationTime"

// Route is how the scheduling extrinsic reaches the automation chain.
type Route uint8

const (
	// RouteDirect signs schedule_xcmp_task on the automation chain as the task owner.
	RouteDirect Route = iota
	// RouteThroughProxy signs schedule_xcmp_task_through_proxy as a proxy of the owner.
	RouteThroughProxy
	// RouteRemoteXcm sends schedule_xcmp_task_through_proxy from a source chain inside an XCM
	// Transact, dispatched by the source account's derived account.
	RouteRemoteXcm
)

// ParseRoute parses "direct", "proxy" or "xcm".
func ParseRoute(s string) (Route, error) {
	switch s {
	case "", "direct":
		return RouteDirect, nil
	case "proxy":
		return RouteThroughProxy, nil
	case "xcm":
		return RouteRemoteXcm, nil
	}

	return 0, fmt.Errorf("unknown route %q", s)
}

func (r Route) String() string {
	switch r {
	case RouteThroughProxy:
		return "proxy"
	case RouteRemoteXcm:
		return "xcm"
	default:
		return "direct"
	}
}

// XcmpTask holds the arguments shared by the schedule_xcmp_task calls.
type XcmpTask struct {
	ProvidedID string
	Schedule   Schedule
	// Destination is the target chain as seen from the automation chain.
	Destination xcm.VersionedLocation
	// ScheduleFee is the asset the automation chain charges its scheduling fee in.
	ScheduleFee  xcm.VersionedLocation
	ExecutionFee AssetPayment
	EncodedCall  []byte
	// EncodedCallWeight bounds the Transact on the destination.
	EncodedCallWeight weight.Weight
	// OverallWeight is the BuyExecution limit on the destination.
	OverallWeight       weight.Weight
	InstructionSequence InstructionSequence
}

// Validate checks t before a call is built.
func (t XcmpTask) Validate() error {
	if t.ProvidedID == "" {
		return errors.New("provided id is required")
	}
	if t.Schedule == nil {
		return errors.New("schedule is required")
	}
	if err := t.Schedule.Validate(); err != nil {
		return err
	}
	if len(t.EncodedCall) == 0 {
		return errors.New("encoded call is empty")
	}
	if !t.EncodedCallWeight.AllLTE(t.OverallWeight) {
		return fmt.Errorf("call weight %s exceeds overall weight %s", t.EncodedCallWeight, t.OverallWeight)
	}

	return nil
}

func (t XcmpTask) args() []any {
	return []any{
		types.NewBytes([]byte(t.ProvidedID)),
		t.Schedule,
		t.Destination,
		t.ScheduleFee,
		t.ExecutionFee,
		types.NewBytes(t.EncodedCall),
		t.EncodedCallWeight,
		t.OverallWeight,
	}
}

// ScheduleXcmpTaskCall returns AutomationTime.schedule_xcmp_task for t.
func ScheduleXcmpTaskCall(t XcmpTask) (substrate.Call, error) {
	if err := t.Validate(); err != nil {
		return substrate.Call{}, fmt.Errorf("invalid task: %w", err)
	}

	return substrate.NewCall(pallet, "schedule_xcmp_task", append(t.args(), t.InstructionSequence)...), nil
}

// ScheduleXcmpTaskThroughProxyCall returns AutomationTime.schedule_xcmp_task_through_proxy for t,
// owned by scheduleAs.
func ScheduleXcmpTaskThroughProxyCall(t XcmpTask, kind xcm.AddressKind, scheduleAs []byte) (substrate.Call, error) {
	if err := t.Validate(); err != nil {
		return substrate.Call{}, fmt.Errorf("invalid task: %w", err)
	}
	owner, err := substrate.AccountArg(kind, scheduleAs)
	if err != nil {
		return substrate.Call{}, fmt.Errorf("schedule as: %w", err)
	}

	return substrate.NewCall(pallet, "schedule_xcmp_task_through_proxy", append(t.args(), owner)...), nil
}

// CancelTaskCall returns AutomationTime.cancel_task for id.
func CancelTaskCall(id TaskID) substrate.Call {
	return substrate.NewCall(pallet, "cancel_task", id)
}

// CancelTaskWithScheduleAsCall returns AutomationTime.cancel_task_with_schedule_as, dispatched by
// a proxy of the owner.
func CancelTaskWithScheduleAsCall(kind xcm.AddressKind, scheduleAs []byte, id TaskID) (substrate.Call, error) {
	owner, err := substrate.AccountArg(kind, scheduleAs)
	if err != nil {
		return substrate.Call{}, fmt.Errorf("schedule as: %w", err)
	}

	return substrate.NewCall(pallet, "cancel_task_with_schedule_as", owner, id), nil
}
