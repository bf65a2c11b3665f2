package commands

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/automation"
	"github.com/parachain-tools/xcm-automation/chain/substrate"
	"github.com/parachain-tools/xcm-automation/proxy"
	"github.com/parachain-tools/xcm-automation/weight"
)

// taskFlags are the flags describing a task, shared by schedule and run.
type taskFlags struct {
	automation  string
	destination string
	source      string
	route       routeValue
	sequence    sequenceValue
	providedID  string
	scheduleAs  string
	remark      string
	at          []int64
	every       uint64

	callRefTime   uint64
	callProofSize uint64
	executionFee  string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.automation, "automation", "", "Network key of the automation chain (required)")
	cmd.Flags().StringVar(&f.destination, "destination", "", "Network key of the chain executing the call (required)")
	cmd.Flags().StringVar(&f.source, "source", "", "Network key of the chain sending the schedule through XCM, with --route xcm")
	cmd.Flags().Var(&f.route, "route", "Scheduling route: direct, proxy or xcm")
	cmd.Flags().Var(&f.sequence, "sequence", "Instruction sequence: sovereign or derivative")
	cmd.Flags().StringVar(&f.providedID, "provided-id", "", "Task provided id. Default is a random ksuid")
	cmd.Flags().StringVar(&f.scheduleAs, "schedule-as", "", "Owner of the task on the automation chain, with --route proxy or xcm")
	cmd.Flags().StringVar(&f.remark, "remark", "xcm-automation", "Remark dispatched on the destination with System.remark_with_event")
	cmd.Flags().Int64SliceVar(&f.at, "at", nil, "Execution times in unix seconds. Default is as soon as possible")
	cmd.Flags().Uint64Var(&f.every, "every", 0, "Recurrence in seconds, starting at the single --at time")
	cmd.Flags().Uint64Var(&f.callRefTime, "call-ref-time", 0, "Call weight ref time. Default is the destination's estimate")
	cmd.Flags().Uint64Var(&f.callProofSize, "call-proof-size", 0, "Call weight proof size, with --call-ref-time")
	cmd.Flags().StringVar(&f.executionFee, "execution-fee", "", "Execution fee in destination native units, e.g. 0.5. Default is computed")
	_ = cmd.MarkFlagRequired("automation")
	_ = cmd.MarkFlagRequired("destination")
}

// schedule builds the task schedule from --at and --every.
func (f *taskFlags) schedule() (automation.Schedule, error) {
	times := make([]uint64, 0, len(f.at))
	for _, t := range f.at {
		if t < 0 {
			return nil, fmt.Errorf("execution time %d is negative", t)
		}
		times = append(times, uint64(t))
	}

	var s automation.Schedule
	switch {
	case f.every > 0:
		if len(times) != 1 {
			return nil, errors.New("--every needs exactly one --at start time")
		}
		s = automation.Recurring{NextExecutionTime: times[0], Frequency: f.every}
	case len(times) == 0:
		s = automation.Immediate()
	default:
		s = automation.Fixed{ExecutionTimes: times}
	}

	return s, s.Validate()
}

// nextExecution is the execution following the first one, or false when the schedule has none.
func nextExecution(s automation.Schedule) (uint64, bool) {
	switch s := s.(type) {
	case automation.Recurring:
		return s.NextExecutionTime + s.Frequency, true
	case automation.Fixed:
		times := slices.Clone(s.ExecutionTimes)
		slices.Sort(times)
		times = slices.Compact(times)
		if len(times) > 1 {
			return times[1], true
		}
	}

	return 0, false
}

// request connects to the chains and builds the schedule request.
func (f *taskFlags) request(ctx context.Context, rt *runtime) (automation.ScheduleRequest, error) {
	route, seq := automation.Route(f.route), automation.InstructionSequence(f.sequence)
	sched, err := f.schedule()
	if err != nil {
		return automation.ScheduleRequest{}, err
	}
	if route == automation.RouteRemoteXcm && f.source == "" {
		return automation.ScheduleRequest{}, errors.New("--source is required with --route xcm")
	}

	auto, err := rt.connect(ctx, f.automation)
	if err != nil {
		return automation.ScheduleRequest{}, err
	}
	dest, err := rt.connect(ctx, f.destination)
	if err != nil {
		return automation.ScheduleRequest{}, err
	}

	req := automation.ScheduleRequest{
		Route:       route,
		Automation:  auto,
		Destination: dest,
		Task: automation.TaskParams{
			ProvidedID: f.providedID,
			Schedule:   sched,
			Sequence:   seq,
			Call:       substrate.NewCall("System", "remark_with_event", types.NewBytes([]byte(f.remark))),
		},
	}
	if f.source != "" {
		src, err := rt.connect(ctx, f.source)
		if err != nil {
			return automation.ScheduleRequest{}, err
		}
		req.Source = &src
	}
	if f.scheduleAs != "" {
		if req.ScheduleAs, err = substrate.ParseAccount(f.scheduleAs, auto.Endpoint.AddressKind); err != nil {
			return automation.ScheduleRequest{}, fmt.Errorf("--schedule-as: %w", err)
		}
	}
	if f.callRefTime > 0 {
		w := weight.New(f.callRefTime, f.callProofSize)
		req.Task.CallWeight = &w
	}
	if f.executionFee != "" {
		fee, err := proxy.Amount(f.executionFee, dest.Endpoint.NativeAsset.Decimals)
		if err != nil {
			return automation.ScheduleRequest{}, fmt.Errorf("--execution-fee: %w", err)
		}
		req.Task.ExecutionFee = fee
	}

	return req, nil
}

// parseCriteria parses "Section.Method".
func parseCriteria(s string) (automation.MatchCriteria, error) {
	section, method, ok := strings.Cut(s, ".")
	if !ok || section == "" || method == "" {
		return automation.MatchCriteria{}, fmt.Errorf("invalid event %q, want Section.Method", s)
	}

	return automation.Match(section, method), nil
}

// parseMinimum converts an optional human readable floor into smallest units.
func parseMinimum(value string, decimals uint8) (*big.Int, error) {
	if value == "" {
		return nil, nil
	}

	return proxy.Amount(value, decimals)
}

func printTask(cmd *cobra.Command, task *automation.Task) {
	cmd.Printf("Task:        %s\n", task.ID)
	cmd.Printf("Provided ID: %s\n", task.ProvidedID)
	cmd.Printf("Owner:       %s\n", task.OwnerAddress)
	cmd.Printf("Route:       %s\n", task.Route)
	cmd.Printf("State:       %s\n", task.State)
	if task.BlockHash != "" {
		cmd.Printf("Block:       %s\n", task.BlockHash)
	}
}
