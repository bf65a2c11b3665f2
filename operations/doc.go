/*
Package operations runs the extrinsics of the automation workflow (task scheduling, cancellation
and remote XCM sends) as versioned, reportable operations.

Each Operation performs at most one side effect. ExecuteOperation records a Report for every run and
returns the previous successful Report instead of running again when an operation with the same
definition and input already succeeded, which makes a resumed workflow skip the extrinsics it
already submitted.

# Basic Usage

	op := operations.NewOperation("cancel-task", semver.MustParse("1.0.0"), "Cancel an automation task",
		func(b operations.Bundle, deps Deps, in CancelInput) (CancelOutput, error) { ... })

	bundle := operations.NewBundle(cmd.Context, lggr, operations.NewMemoryReporter())
	report, err := operations.ExecuteOperation(bundle, op, deps, input, operations.WithRetry[CancelInput, Deps]())
*/
package operations
