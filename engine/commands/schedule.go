package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/automation"
	"github.com/parachain-tools/xcm-automation/proxy"
)

var (
	scheduleLong = longDesc(`
Schedules an automation task that dispatches System.remark_with_event on the destination and
returns once the scheduling extrinsic is included. Use run to also wait for the execution.
`)

	scheduleExample = examples(`
		# Schedule an immediate task on turing executing on moonbase
		xcm-automation schedule --automation turing --destination moonbase

		# Schedule a recurring task paid by the derivative account, setting up proxies first
		xcm-automation schedule --automation turing --destination moonbase --sequence derivative --at 1700003600 --every 3600 --setup
	`)

	runLong = longDesc(`
Runs a task end to end: account setup, scheduling, confirmation of the execution on the
destination and, with --cancel-after, cancellation followed by a check that the next
execution does not happen.
`)

	runExample = examples(`
		# Schedule, confirm the remark on moonbase, then cancel and verify
		xcm-automation run --automation turing --destination moonbase --at 1700003600 --every 3600 --cancel-after

		# Schedule from shibuya through xcm
		xcm-automation run --automation turing --destination shibuya --source shibuya --route xcm
	`)
)

func newScheduleCmd(cfg Config) *cobra.Command {
	var (
		tf    taskFlags
		setup bool
	)

	cmd := &cobra.Command{
		Use:     "schedule",
		Short:   "Schedule an automation task",
		Long:    scheduleLong,
		Example: scheduleExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runSchedule(cmd, rt, &tf, setup)
		},
	}

	tf.register(cmd)
	cmd.Flags().BoolVar(&setup, "setup", false, "Ensure the proxy delegations the task needs before scheduling")

	return cmd
}

func runSchedule(cmd *cobra.Command, rt *runtime, tf *taskFlags, setup bool) error {
	ctx := cmd.Context()

	o, err := rt.orchestrator(ctx)
	if err != nil {
		return err
	}
	req, err := tf.request(ctx, rt)
	if err != nil {
		return err
	}
	if setup {
		if err = o.Setup(ctx, req, automation.SetupParams{}); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	task, err := o.Schedule(ctx, req)
	if task != nil {
		printTask(cmd, task)
	}
	if err != nil {
		return fmt.Errorf("failed to schedule task: %w", err)
	}

	return nil
}

type runFlags struct {
	taskFlags

	confirm            string
	cancelAfter        bool
	automationMinimum  string
	destinationMinimum string
}

func newRunCmd(cfg Config) *cobra.Command {
	var rf runFlags

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Schedule, confirm and optionally cancel a task",
		Long:    runLong,
		Example: runExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runRun(cmd, rt, &rf)
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&rf.confirm, "confirm", "System.Remarked", "Destination event confirming the execution")
	cmd.Flags().BoolVar(&rf.cancelAfter, "cancel-after", false, "Cancel the task after confirmation and verify its next execution does not happen")
	cmd.Flags().StringVar(&rf.automationMinimum, "automation-minimum", "", "Top the fee payer on the automation chain up to this native amount")
	cmd.Flags().StringVar(&rf.destinationMinimum, "destination-minimum", "", "Top the derivative account on the destination up to this native amount")

	return cmd
}

// errNotConfirmed is returned when the execution was not observed in time.
var errNotConfirmed = errors.New("task execution not confirmed")

func runRun(cmd *cobra.Command, rt *runtime, rf *runFlags) error {
	ctx := cmd.Context()

	criteria, err := parseCriteria(rf.confirm)
	if err != nil {
		return err
	}
	o, err := rt.orchestrator(ctx)
	if err != nil {
		return err
	}
	sreq, err := rf.request(ctx, rt)
	if err != nil {
		return err
	}

	req := automation.RunRequest{Schedule: sreq, Confirm: criteria}
	if rf.cancelAfter {
		next, ok := nextExecution(sreq.Task.Schedule)
		if !ok {
			return errors.New("--cancel-after needs a schedule with more than one execution")
		}
		req.CancelAfter = &automation.CancelCheck{NextExecution: next}
	}

	auto, dest := sreq.Automation, sreq.Destination
	if req.Setup.AutomationMinimum, err = parseMinimum(rf.automationMinimum, auto.Endpoint.NativeAsset.Decimals); err != nil {
		return fmt.Errorf("--automation-minimum: %w", err)
	}
	if req.Setup.DestinationMinimum, err = parseMinimum(rf.destinationMinimum, dest.Endpoint.NativeAsset.Decimals); err != nil {
		return fmt.Errorf("--destination-minimum: %w", err)
	}
	req.Setup.AutomationTopUp = proxy.LocalTransfer(auto)
	req.Setup.DestinationTopUp = proxy.LocalTransfer(dest)

	res, err := o.Run(ctx, req)
	if res.Task != nil {
		printTask(cmd, res.Task)
	}
	if err != nil {
		return err
	}

	switch {
	case !res.Confirmed:
		return fmt.Errorf("%w: no %s on %s", errNotConfirmed, criteria, dest)
	case res.CancelFailed:
		return fmt.Errorf("task %s executed after cancellation", res.Task.ID)
	}

	return nil
}
