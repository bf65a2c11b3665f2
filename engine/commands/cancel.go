package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/automation"
	"github.com/parachain-tools/xcm-automation/chain/substrate"
)

var (
	cancelLong = longDesc(`
Cancels a task recorded in the task store. Tasks scheduled through XCM are cancelled through
XCM from their source chain. With --next-execution the destination is watched until that time
plus the grace period to verify the task does not fire again.
`)

	cancelExample = examples(`
		# Cancel a task scheduled directly on turing
		xcm-automation cancel --automation turing --task-id 0x54...3b

		# Cancel and verify the next hourly execution does not happen
		xcm-automation cancel --automation turing --task-id 0x54...3b --destination moonbase --next-execution 1700007200
	`)
)

func newCancelCmd(cfg Config) *cobra.Command {
	var (
		automationKey, sourceKey, destinationKey string
		taskID, confirm                          string
		next                                     uint64
	)

	cmd := &cobra.Command{
		Use:     "cancel",
		Short:   "Cancel a scheduled task",
		Long:    cancelLong,
		Example: cancelExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			return runCancel(cmd, rt, cancelArgs{
				automation:    automationKey,
				source:        sourceKey,
				destination:   destinationKey,
				taskID:        taskID,
				confirm:       confirm,
				nextExecution: next,
			})
		},
	}

	cmd.Flags().StringVar(&automationKey, "automation", "", "Network key of the automation chain (required)")
	cmd.Flags().StringVar(&sourceKey, "source", "", "Network key of the source chain of tasks scheduled through xcm")
	cmd.Flags().StringVar(&taskID, "task-id", "", "0x task id (required)")
	cmd.Flags().StringVar(&destinationKey, "destination", "", "Network key of the destination, with --next-execution")
	cmd.Flags().StringVar(&confirm, "confirm", "System.Remarked", "Destination event of an execution, with --next-execution")
	cmd.Flags().Uint64Var(&next, "next-execution", 0, "Next execution time in unix seconds to verify the cancellation against")
	_ = cmd.MarkFlagRequired("automation")
	_ = cmd.MarkFlagRequired("task-id")

	return cmd
}

type cancelArgs struct {
	automation, source, destination string
	taskID, confirm                 string
	nextExecution                   uint64
}

func runCancel(cmd *cobra.Command, rt *runtime, args cancelArgs) error {
	ctx := cmd.Context()

	id, err := automation.ParseTaskID(args.taskID)
	if err != nil {
		return err
	}
	var criteria automation.MatchCriteria
	if args.nextExecution > 0 {
		if args.destination == "" {
			return errors.New("--destination is required with --next-execution")
		}
		if criteria, err = parseCriteria(args.confirm); err != nil {
			return err
		}
	}

	o, err := rt.orchestrator(ctx)
	if err != nil {
		return err
	}
	auto, err := rt.connect(ctx, args.automation)
	if err != nil {
		return err
	}
	var source *substrate.Chain
	if args.source != "" {
		src, err := rt.connect(ctx, args.source)
		if err != nil {
			return err
		}
		source = &src
	}

	task, err := o.Restore(ctx, auto, source, id)
	if err != nil {
		return err
	}
	if err = o.Cancel(ctx, task); err != nil {
		return fmt.Errorf("failed to cancel task: %w", err)
	}

	if args.nextExecution > 0 {
		dest, err := rt.connect(ctx, args.destination)
		if err != nil {
			return err
		}
		fired, err := o.VerifyCancelled(ctx, task, dest.Client, criteria, o.CancelWindow(args.nextExecution))
		if err != nil {
			return err
		}
		printTask(cmd, task)
		if fired {
			return fmt.Errorf("task %s executed after cancellation", task.ID)
		}

		return nil
	}
	printTask(cmd, task)

	return nil
}
