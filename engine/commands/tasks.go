package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/parachain-tools/xcm-automation/datastore"
)

var tasksExample = examples(`
	# All tasks on turing that timed out
	xcm-automation tasks --chain turing --state TimedOut

	# Every task record as JSON
	xcm-automation tasks --json
`)

func newTasksCmd(cfg Config) *cobra.Command {
	var (
		chainKey, owner string
		states          statesValue
		asJSON          bool
	)

	cmd := &cobra.Command{
		Use:     "tasks",
		Short:   "List the task records in the task store",
		Example: tasksExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			var filters []datastore.FilterFunc
			if chainKey != "" {
				filters = append(filters, datastore.TaskByChain(chainKey))
			}
			if owner != "" {
				filters = append(filters, datastore.TaskByOwner(owner))
			}
			if len(states) > 0 {
				filters = append(filters, datastore.TaskByState(states.names()...))
			}

			return runTasks(cmd, rt, filters, asJSON)
		},
	}

	cmd.Flags().StringVar(&chainKey, "chain", "", "Only tasks on this automation chain")
	cmd.Flags().StringVar(&owner, "owner", "", "Only tasks of this owner address")
	cmd.Flags().Var(&states, "state", "Only tasks in these states")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the task records as JSON instead of a table")

	return cmd
}

func runTasks(cmd *cobra.Command, rt *runtime, filters []datastore.FilterFunc, asJSON bool) error {
	ctx := cmd.Context()

	o, err := rt.orchestrator(ctx)
	if err != nil {
		return err
	}
	records, err := o.Tasks(ctx, filters...)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if !asJSON {
		writeTaskTable(cmd.OutOrStdout(), records)
		return nil
	}

	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal tasks: %w", err)
	}
	cmd.Println(string(b))

	return nil
}

func writeTaskTable(w io.Writer, records []datastore.TaskRecord) {
	data := make([][]string, 0, len(records))
	for _, r := range records {
		var executionTime string
		if r.ExecutionTime > 0 {
			executionTime = strconv.FormatUint(r.ExecutionTime, 10)
		}
		data = append(data, []string{
			r.ChainKey, r.TaskID, r.ProvidedID, r.Owner, r.Route, r.State,
			executionTime, r.BlockHash, r.UpdatedAt.Format(time.RFC3339),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Chain", "Task ID", "Provided ID", "Owner", "Route", "State", "Execution time", "Block", "Updated at"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.AppendBulk(data)
	table.Render()
}
